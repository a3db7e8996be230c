package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aslima544/consultorio-api/internal/handler"
	"github.com/aslima544/consultorio-api/pkg/auth"
	"github.com/aslima544/consultorio-api/pkg/errors"
)

type AuthMiddleware struct {
	jwt auth.JWTService
}

func NewAuthMiddleware(jwt auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

// Authenticate verifies the bearer token and stores the caller in the context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			handler.RespondError(c, errors.Unauthorized("missing authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			handler.RespondError(c, errors.Unauthorized("invalid authorization format"))
			return
		}

		claims, err := m.jwt.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			handler.RespondError(c, errors.Unauthorized("invalid or expired token"))
			return
		}

		c.Set(handler.CtxUserID, claims.UserID)
		c.Set(handler.CtxUsername, claims.Subject)
		c.Set(handler.CtxRole, claims.Role)
		c.Next()
	}
}

// RequireRole lets the request through only for the given roles. It must run
// after Authenticate.
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(handler.CtxRole)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		handler.RespondError(c, errors.Forbidden("insufficient permissions"))
	}
}
