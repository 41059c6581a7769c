package service

import (
	"context"
	"time"

	"inventorypro/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

// Session is a signed access token for a directory user.
type Session struct {
	AccessToken string
	ExpiresIn   int
	User        model.User
}

// AuthService issues access tokens for users of the configured directory.
// Cashiers get one when they open a shift; administrators can also log in
// to the back office without a shift.
type AuthService interface {
	Login(ctx context.Context, identifier, secret string) (*Session, error)
	IssueToken(user model.User, shiftID string) (*Session, error)
}

type authService struct {
	users      *UserDirectory
	secret     []byte
	expiration time.Duration
}

func NewAuthService(users *UserDirectory, secret string, expirationHours int) AuthService {
	if expirationHours <= 0 {
		expirationHours = 8
	}
	return &authService{
		users:      users,
		secret:     []byte(secret),
		expiration: time.Duration(expirationHours) * time.Hour,
	}
}

func (s *authService) Login(_ context.Context, identifier, secret string) (*Session, error) {
	user, _, ok := s.users.FindUser(identifier, secret, "")
	if !ok {
		return nil, authError(AuthReasonCredentials)
	}
	return s.IssueToken(user, "")
}

func (s *authService) IssueToken(user model.User, shiftID string) (*Session, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"username": user.Name,
		"role":     string(user.Role),
		"exp":      now.Add(s.expiration).Unix(),
		"iat":      now.Unix(),
	}
	if shiftID != "" {
		claims["shift_id"] = shiftID
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	return &Session{
		AccessToken: signed,
		ExpiresIn:   int(s.expiration.Seconds()),
		User:        user,
	}, nil
}
