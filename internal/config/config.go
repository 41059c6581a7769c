package config

import (
	"fmt"
	"strings"

	"inventorypro/internal/model"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	// Server
	Port           int    `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"` // development | production
	WorkerPoolSize int    `mapstructure:"WORKER_POOL_SIZE"`
	CORSOrigins    string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	// Database; empty keeps shift history in memory.
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Redis; empty disables the shift snapshot and the report queue.
	RedisURL string `mapstructure:"REDIS_URL"`

	// Auth
	JWTSecret          string `mapstructure:"JWT_SECRET"`
	JWTExpirationHours int    `mapstructure:"JWT_EXPIRATION_HOURS"`
	UsersFile          string `mapstructure:"USERS_FILE"`

	// Register
	JustificationThreshold  string `mapstructure:"JUSTIFICATION_THRESHOLD"`
	AuthorizationTTLSeconds int    `mapstructure:"AUTHORIZATION_TTL_SECONDS"`

	// Reports
	ReportStoragePath string `mapstructure:"REPORT_STORAGE_PATH"`
	ReportEmail       string `mapstructure:"REPORT_EMAIL"`
	StoreName         string `mapstructure:"STORE_NAME"`

	// SMTP
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`

	// Logging
	LogLevel string `mapstructure:"LOG_LEVEL"`
	LogFile  string `mapstructure:"LOG_FILE"`
}

// Load reads configuration from environment variables (and optional .env file).
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	v.SetDefault("PORT", 8000)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("WORKER_POOL_SIZE", 2)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_EXPIRATION_HOURS", 12)
	v.SetDefault("USERS_FILE", "")
	v.SetDefault("JUSTIFICATION_THRESHOLD", "10")
	v.SetDefault("AUTHORIZATION_TTL_SECONDS", 300)
	v.SetDefault("REPORT_STORAGE_PATH", "/tmp/inventorypro/reports")
	v.SetDefault("REPORT_EMAIL", "")
	v.SetDefault("STORE_NAME", "InventoryPro")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")

	// Optional .env file for local development; missing is fine.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("config: JWT_SECRET is required in production")
		}
		cfg.JWTSecret = "dev-secret-change-me"
		log.Warn().Msg("config: JWT_SECRET not set, using development secret")
	}
	if _, err := cfg.Threshold(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

// Threshold parses JUSTIFICATION_THRESHOLD as a decimal amount.
func (c *Config) Threshold() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(c.JustificationThreshold))
	if err != nil || d.IsNegative() {
		return decimal.Zero, fmt.Errorf("config: invalid JUSTIFICATION_THRESHOLD %q", c.JustificationThreshold)
	}
	return d, nil
}

// Origins splits CORS_ALLOWED_ORIGINS on commas.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// ── User directory ────────────────────────────────────────────────────────────

type usersFile struct {
	Users []model.User `mapstructure:"users"`
}

// DevUsers are used when no USERS_FILE is configured outside production.
var DevUsers = []model.User{
	{Name: "admin", PIN: "1234", Password: "admin", Role: model.RoleAdmin},
	{Name: "cashier", PIN: "0000", Password: "cashier", Role: model.RoleCashier},
}

// LoadUsers reads the user directory from a YAML/JSON/TOML file.
func LoadUsers(cfg *Config) ([]model.User, error) {
	if cfg.UsersFile == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("config: USERS_FILE is required in production")
		}
		log.Warn().Msg("config: USERS_FILE not set, using development users")
		return DevUsers, nil
	}

	v := viper.New()
	v.SetConfigFile(cfg.UsersFile)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read users file: %w", err)
	}
	var f usersFile
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("config: parse users file: %w", err)
	}
	return validateUsers(f.Users)
}

func validateUsers(users []model.User) ([]model.User, error) {
	if len(users) == 0 {
		return nil, fmt.Errorf("config: users file defines no users")
	}
	seen := make(map[string]bool, len(users))
	// A PIN alone identifies the user at the register.
	pins := make(map[string]string, len(users))
	for i, u := range users {
		name := strings.ToLower(strings.TrimSpace(u.Name))
		if name == "" {
			return nil, fmt.Errorf("config: user #%d has no name", i+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("config: duplicate user %q", u.Name)
		}
		seen[name] = true
		if u.PIN == "" && u.Password == "" {
			return nil, fmt.Errorf("config: user %q needs a pin or a password", u.Name)
		}
		if u.PIN != "" {
			if other, ok := pins[u.PIN]; ok {
				return nil, fmt.Errorf("config: users %q and %q share a pin", other, u.Name)
			}
			pins[u.PIN] = u.Name
		}
		switch u.Role {
		case model.RoleAdmin, model.RoleCashier:
		default:
			return nil, fmt.Errorf("config: user %q has unknown role %q", u.Name, u.Role)
		}
	}
	return users, nil
}
