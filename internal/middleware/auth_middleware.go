// auth_middleware.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	"restaurant-order-service/internal/service"

	"github.com/gin-gonic/gin"
)

// Claves del contexto gin
const (
	UserIDKey          = "userID"
	UserNameKey        = "userName"
	UserEmailKey       = "userEmail"
	UserPermissionsKey = "userPermissions"
)

type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*service.AuthUser, error)
}

// Middleware que valida el token y guarda la info del usuario en el contexto.
// Los EventSource del navegador no mandan headers: para los streams se
// acepta también ?access_token=.
func AuthMiddleware(authService TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		if token == "" {
			token = c.Query("access_token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		user, err := authService.ValidateToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		// Guardamos los datos del usuario en el contexto
		c.Set(UserIDKey, user.ID)
		c.Set(UserNameKey, user.Name)
		c.Set(UserEmailKey, user.Email)
		c.Set(UserPermissionsKey, user.Permissions)
		c.Next()
	}
}
