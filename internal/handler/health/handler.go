package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const pingTimeout = 2 * time.Second

// Pinger checks one dependency.
type Pinger func(ctx context.Context) error

type Handler struct {
	db    Pinger
	redis Pinger
}

// NewHandler takes the database and redis checks. A nil database check
// means the in-memory store, which is always up. A nil redis check reports
// redis as not connected without affecting the status.
func NewHandler(db, redis Pinger) *Handler {
	return &Handler{db: db, redis: redis}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/health", h.Check)
}

func (h *Handler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()

	dbUp := h.db == nil || h.db(ctx) == nil
	redisUp := h.redis != nil && h.redis(ctx) == nil

	status, code := "healthy", http.StatusOK
	if !dbUp {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":             status,
		"database_connected": dbUp,
		"redis_connected":    redisUp,
		"timestamp":          time.Now().UTC(),
	})
}
