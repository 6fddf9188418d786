package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/richxcame/fraudshield/pkg/common"
	"github.com/richxcame/fraudshield/pkg/jwtkeys"
	"github.com/richxcame/fraudshield/pkg/logger"
)

const (
	userIDKey    = "user_id"
	userRoleKey  = "user_role"
	userEmailKey = "user_email"
)

// Claims are the fields read from tokens issued by the identity service
type Claims struct {
	Role  string `json:"role"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

var errMissingToken = errors.New("missing bearer token")

// AuthMiddlewareWithProvider rejects requests without a valid HS256 bearer token
func AuthMiddlewareWithProvider(provider jwtkeys.KeyProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := authenticate(c, provider); err != nil {
			common.ErrorResponse(c, http.StatusUnauthorized, "invalid or missing token")
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalAuth attaches the caller identity when a valid token is present and
// lets anonymous requests through untouched. A bad token is still rejected.
func OptionalAuth(provider jwtkeys.KeyProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := authenticate(c, provider)
		if err != nil && !errors.Is(err, errMissingToken) {
			common.ErrorResponse(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole allows only callers whose token role is one of roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(userRoleKey)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		common.ErrorResponse(c, http.StatusForbidden, "insufficient permissions")
		c.Abort()
	}
}

// GetUserID returns the authenticated caller. Tests may set the value as a
// uuid.UUID or as its string form.
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return uuid.Nil, errors.New("user not authenticated")
	}
	switch id := v.(type) {
	case uuid.UUID:
		return id, nil
	case string:
		return uuid.Parse(id)
	}
	return uuid.Nil, fmt.Errorf("unexpected user id type %T", v)
}

// GetUserRole returns the role claim of the authenticated caller
func GetUserRole(c *gin.Context) string {
	return c.GetString(userRoleKey)
}

func authenticate(c *gin.Context, provider jwtkeys.KeyProvider) error {
	header := c.GetHeader("Authorization")
	if header == "" {
		return errMissingToken
	}
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return errors.New("malformed authorization header")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if kid, ok := t.Header["kid"].(string); ok && kid != "" {
			return provider.ResolveKey(kid)
		}
		if key := provider.LegacyKey(); len(key) > 0 {
			return key, nil
		}
		return nil, jwtkeys.ErrKeyNotFound
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return fmt.Errorf("parse token: %w", err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return fmt.Errorf("token subject: %w", err)
	}

	c.Set(userIDKey, userID)
	c.Set(userRoleKey, claims.Role)
	c.Set(userEmailKey, claims.Email)
	c.Request = c.Request.WithContext(logger.ContextWithUserID(c.Request.Context(), userID.String()))
	return nil
}
