package metrics

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handler struct {
	prom http.Handler
}

func NewHandler() *Handler {
	return &Handler{prom: promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})}
}

// Summary is the JSON view of the storefront counters.
func (h *Handler) Summary(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"downloads_total":        GetDownloads(),
		"likes_total":            GetLikes(),
		"likes_skipped_total":    GetLikesSkipped(),
		"reviews_total":          GetReviews(),
		"reviews_rejected_total": GetReviewsRejected(),
		"broadcasts_total":       GetBroadcasts(),
		"broadcast_fails_total":  GetBroadcastFails(),
		"active_connections":     GetActiveConnections(),
	})
}

// Prometheus serves the text exposition format.
func (h *Handler) Prometheus(c *gin.Context) {
	h.prom.ServeHTTP(c.Writer, c.Request)
}
