package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Metrics struct {
	downloadsTotal       int64
	likesTotal           int64
	likesSkippedTotal    int64
	reviewsTotal         int64
	reviewsRejectedTotal int64
	broadcastsTotal      int64
	broadcastFailsTotal  int64
	activeConnections    int64
}

var global = &Metrics{}

var (
	// Registry holds the storefront collectors served on /metrics.
	Registry = prometheus.NewRegistry()

	actionsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "appser",
			Subsystem: "storefront",
			Name:      "actions_total",
			Help:      "Visitor actions applied to listings.",
		},
		[]string{"action", "result"},
	)

	broadcastsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "appser",
			Subsystem: "live",
			Name:      "broadcasts_total",
			Help:      "Live stats messages pushed to websocket viewers.",
		},
		[]string{"result"},
	)

	connectionsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "appser",
			Subsystem: "live",
			Name:      "active_connections",
			Help:      "Open websocket viewer connections.",
		},
	)
)

func init() {
	Registry.MustRegister(actionsCounter, broadcastsCounter, connectionsGauge)
	Registry.MustRegister(collectors.NewGoCollector())
}

func IncrementDownloads() {
	atomic.AddInt64(&global.downloadsTotal, 1)
	actionsCounter.WithLabelValues("download", "ok").Inc()
}

func IncrementLikes() {
	atomic.AddInt64(&global.likesTotal, 1)
	actionsCounter.WithLabelValues("like", "ok").Inc()
}

// IncrementLikesSkipped counts likes ignored because the vote record already had one.
func IncrementLikesSkipped() {
	atomic.AddInt64(&global.likesSkippedTotal, 1)
	actionsCounter.WithLabelValues("like", "skipped").Inc()
}

func IncrementReviews() {
	atomic.AddInt64(&global.reviewsTotal, 1)
	actionsCounter.WithLabelValues("review", "ok").Inc()
}

func IncrementReviewsRejected() {
	atomic.AddInt64(&global.reviewsRejectedTotal, 1)
	actionsCounter.WithLabelValues("review", "rejected").Inc()
}

func IncrementBroadcasts() {
	atomic.AddInt64(&global.broadcastsTotal, 1)
	broadcastsCounter.WithLabelValues("ok").Inc()
}

func IncrementBroadcastFails() {
	atomic.AddInt64(&global.broadcastFailsTotal, 1)
	broadcastsCounter.WithLabelValues("dropped").Inc()
}

func SetActiveConnections(count int64) {
	atomic.StoreInt64(&global.activeConnections, count)
	connectionsGauge.Set(float64(count))
}

func GetDownloads() int64       { return atomic.LoadInt64(&global.downloadsTotal) }
func GetLikes() int64           { return atomic.LoadInt64(&global.likesTotal) }
func GetLikesSkipped() int64    { return atomic.LoadInt64(&global.likesSkippedTotal) }
func GetReviews() int64         { return atomic.LoadInt64(&global.reviewsTotal) }
func GetReviewsRejected() int64 { return atomic.LoadInt64(&global.reviewsRejectedTotal) }
func GetBroadcasts() int64      { return atomic.LoadInt64(&global.broadcastsTotal) }
func GetBroadcastFails() int64  { return atomic.LoadInt64(&global.broadcastFailsTotal) }

func GetActiveConnections() int64 {
	return atomic.LoadInt64(&global.activeConnections)
}

// Reset zeroes the summary counters. Prometheus counters are monotonic and
// are left untouched.
func Reset() {
	atomic.StoreInt64(&global.downloadsTotal, 0)
	atomic.StoreInt64(&global.likesTotal, 0)
	atomic.StoreInt64(&global.likesSkippedTotal, 0)
	atomic.StoreInt64(&global.reviewsTotal, 0)
	atomic.StoreInt64(&global.reviewsRejectedTotal, 0)
	atomic.StoreInt64(&global.broadcastsTotal, 0)
	atomic.StoreInt64(&global.broadcastFailsTotal, 0)
	atomic.StoreInt64(&global.activeConnections, 0)
}
