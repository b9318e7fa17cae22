package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"restaurant-order-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubValidator map[string]*service.AuthUser

func (s stubValidator) ValidateToken(ctx context.Context, token string) (*service.AuthUser, error) {
	if u, ok := s[token]; ok {
		return u, nil
	}
	return nil, errors.New("invalid token")
}

func newRouter(t *testing.T) *gin.Engine {
	validator := stubValidator{
		"user":  {ID: "u1", Email: "a@x.com"},
		"admin": {ID: "u2", Email: "admin@x.com", Permissions: []string{"admin"}},
	}

	r := gin.New()
	r.Use(RequestID(), LoggerMiddleware(zaptest.NewLogger(t)), MetricsMiddleware())
	auth := r.Group("/")
	auth.Use(AuthMiddleware(validator))
	auth.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.GetString(UserIDKey), "email": c.GetString(UserEmailKey)})
	})
	admin := auth.Group("/admin")
	admin.Use(AdminOnly())
	admin.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter(t)

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{name: "missing token", path: "/me", want: http.StatusUnauthorized},
		{name: "invalid token", path: "/me", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "valid token", path: "/me", header: "Bearer user", want: http.StatusOK},
		{name: "token in query for event streams", path: "/me?access_token=user", want: http.StatusOK},
		{name: "admin route as user", path: "/admin/ping", header: "Bearer user", want: http.StatusForbidden},
		{name: "admin route as admin", path: "/admin/ping", header: "Bearer admin", want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRequestID(t *testing.T) {
	r := newRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}
