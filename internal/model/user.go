package model

// Role: "admin" | "cashier"
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCashier Role = "cashier"
)

// User is an entry of the externally configured user directory.
// Password may be plain text or a bcrypt hash ("$2a$…").
type User struct {
	Name     string `mapstructure:"name"     json:"name"`
	PIN      string `mapstructure:"pin"      json:"-"`
	Password string `mapstructure:"password" json:"-"`
	Role     Role   `mapstructure:"role"     json:"role"`
}

// IsAdmin reports whether the user may authorize gated register actions.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }
