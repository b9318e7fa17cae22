package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger comprueba una dependencia (Mongo, Redis).
type Pinger func(ctx context.Context) error

// Health responde 200 si todas las dependencias contestan; si no, 503 con el
// detalle de cuál falló.
func Health(checks map[string]Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		result := gin.H{}
		for name, ping := range checks {
			if err := ping(ctx); err != nil {
				status = http.StatusServiceUnavailable
				result[name] = err.Error()
				continue
			}
			result[name] = "ok"
		}

		c.JSON(status, gin.H{"status": http.StatusText(status), "checks": result})
	}
}
