package middleware

import (
	"context"
	"net/http"
	"strings"

	"inventorypro/internal/apierror"
	"inventorypro/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const ClaimsKey = "claims"

// JWTClaims mirror what AuthService.IssueToken signs. ShiftID is empty for
// back-office sessions opened through /v1/auth/login.
type JWTClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	ShiftID  string `json:"shift_id,omitempty"`
	jwt.RegisteredClaims
}

func (c *JWTClaims) HasRole(roles map[model.Role]bool) bool {
	return roles[model.Role(c.Role)]
}

// JWTAuth rejects requests without a valid HS256 bearer token and stores the
// parsed claims under ClaimsKey.
func JWTAuth(secret string) gin.HandlerFunc {
	key := []byte(secret)
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	keyFunc := func(*jwt.Token) (interface{}, error) { return key, nil }

	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("authentication required"))
			return
		}
		claims := &JWTClaims{}
		if _, err := parser.ParseWithClaims(raw, claims, keyFunc); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("invalid or expired token"))
			return
		}
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireRole must run after JWTAuth.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil || !claims.HasRole(allowed) {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("insufficient permissions"))
			return
		}
		c.Next()
	}
}

// GetClaims returns nil when JWTAuth did not run for this request.
func GetClaims(c *gin.Context) *JWTClaims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*JWTClaims)
	return claims
}

// ShiftSession binds register tokens to the shift they were issued for.
// current returns the open shift's id, or "" when none is open. A token
// carrying another shift's id is rejected, and cashiers need a shift token;
// administrators may act with a back-office token.
func ShiftSession(current func(ctx context.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("authentication required"))
			return
		}
		switch {
		case claims.ShiftID == "" && model.Role(claims.Role) != model.RoleAdmin:
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.WithReason("open a shift to use the register", "shift-required"))
			return
		case claims.ShiftID != "" && claims.ShiftID != current(c.Request.Context()):
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.WithReason("shift session has ended", "shift-ended"))
			return
		}
		c.Next()
	}
}
