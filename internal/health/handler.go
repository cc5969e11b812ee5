package health

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ConnectionCounter is satisfied by the live stats hub.
type ConnectionCounter interface {
	ConnectionCount() int
}

type Handler struct {
	db      func() *sql.DB
	viewers ConnectionCounter
}

// NewHandler takes a getter so a closed or replaced database is noticed.
func NewHandler(db func() *sql.DB, viewers ConnectionCounter) *Handler {
	return &Handler{db: db, viewers: viewers}
}

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (h *Handler) Readyz(c *gin.Context) {
	if err := h.Check(c.Request.Context()); err != "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "reason": err})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Check returns an empty reason when the service can take traffic.
func (h *Handler) Check(ctx context.Context) string {
	db := h.db()
	if db == nil {
		return "database_not_initialized"
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return "database_ping_failed"
	}

	if h.viewers != nil && h.viewers.ConnectionCount() < 0 {
		return "live_hub_not_running"
	}
	return ""
}
