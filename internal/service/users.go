package service

import (
	"crypto/subtle"
	"strings"

	"inventorypro/internal/model"

	"golang.org/x/crypto/bcrypt"
)

// MatchPolicy is one rule by which an (identifier, secret) pair selects a user.
type MatchPolicy int

const (
	// MatchPIN: secret equals the user's PIN; identifier is blank, the name or the PIN.
	MatchPIN MatchPolicy = iota + 1
	// MatchNamePassword: identifier equals the name and secret matches the password.
	MatchNamePassword
	// MatchPINPassword: identifier equals the PIN and secret matches the password.
	MatchPINPassword
)

func (p MatchPolicy) String() string {
	switch p {
	case MatchPIN:
		return "pin"
	case MatchNamePassword:
		return "name+password"
	case MatchPINPassword:
		return "pin+password"
	}
	return "unknown"
}

// DefaultMatchPolicies are tried in order; the first policy that matches any
// user wins, so a PIN match always takes precedence over a password match.
var DefaultMatchPolicies = []MatchPolicy{MatchPIN, MatchNamePassword, MatchPINPassword}

// UserDirectory is the read-only list of users supplied by configuration.
type UserDirectory struct {
	users    []model.User
	policies []MatchPolicy
}

func NewUserDirectory(users []model.User) *UserDirectory {
	return &UserDirectory{users: users, policies: DefaultMatchPolicies}
}

// Users returns a copy of the configured users.
func (d *UserDirectory) Users() []model.User {
	out := make([]model.User, len(d.users))
	copy(out, d.users)
	return out
}

// FindUser resolves identifier/secret to a user. When role is non-empty only
// users with that role are considered.
func (d *UserDirectory) FindUser(identifier, secret string, role model.Role) (model.User, MatchPolicy, bool) {
	identifier = strings.TrimSpace(identifier)
	if secret == "" {
		return model.User{}, 0, false
	}
	for _, policy := range d.policies {
		for _, u := range d.users {
			if role != "" && u.Role != role {
				continue
			}
			if policy.matches(u, identifier, secret) {
				return u, policy, true
			}
		}
	}
	return model.User{}, 0, false
}

func (p MatchPolicy) matches(u model.User, identifier, secret string) bool {
	switch p {
	case MatchPIN:
		if u.PIN == "" || !equalSecret(u.PIN, secret) {
			return false
		}
		return identifier == "" || strings.EqualFold(identifier, u.Name) || identifier == u.PIN
	case MatchNamePassword:
		return identifier != "" && strings.EqualFold(identifier, u.Name) && passwordMatches(u.Password, secret)
	case MatchPINPassword:
		return u.PIN != "" && identifier == u.PIN && passwordMatches(u.Password, secret)
	}
	return false
}

// passwordMatches accepts bcrypt hashes and plain-text passwords.
func passwordMatches(stored, secret string) bool {
	if stored == "" {
		return false
	}
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(secret)) == nil
	}
	return equalSecret(stored, secret)
}

func equalSecret(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
