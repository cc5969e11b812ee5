package metrics_test

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/appser/appser-store/pkg/metrics"
	"github.com/gin-gonic/gin"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := metrics.NewHandler()
	router := gin.New()
	router.GET("/metrics", h.Prometheus)
	router.GET("/metrics/summary", h.Summary)
	return router
}

func TestSummary_InitialState(t *testing.T) {
	metrics.Reset()

	resp := httptest.NewRecorder()
	newRouter().ServeHTTP(resp, httptest.NewRequest("GET", "/metrics/summary", nil))

	if resp.Code != 200 {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var result map[string]interface{}
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"downloads_total", "likes_total", "reviews_total", "active_connections"} {
		if result[key].(float64) != 0 {
			t.Fatalf("expected %s=0, got %v", key, result[key])
		}
	}
}

func TestSummary_AfterActions(t *testing.T) {
	metrics.Reset()
	metrics.IncrementDownloads()
	metrics.IncrementDownloads()
	metrics.IncrementLikes()
	metrics.IncrementLikesSkipped()
	metrics.IncrementReviewsRejected()
	metrics.SetActiveConnections(3)

	resp := httptest.NewRecorder()
	newRouter().ServeHTTP(resp, httptest.NewRequest("GET", "/metrics/summary", nil))

	var result map[string]float64
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if result["downloads_total"] != 2 || result["likes_total"] != 1 || result["likes_skipped_total"] != 1 {
		t.Fatalf("unexpected counters: %v", result)
	}
	if result["reviews_rejected_total"] != 1 || result["active_connections"] != 3 {
		t.Fatalf("unexpected counters: %v", result)
	}
}

func TestPrometheusExposition(t *testing.T) {
	metrics.IncrementLikes()

	resp := httptest.NewRecorder()
	newRouter().ServeHTTP(resp, httptest.NewRequest("GET", "/metrics", nil))

	if resp.Code != 200 {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body := resp.Body.String()
	if !strings.Contains(body, `appser_storefront_actions_total{action="like",result="ok"}`) {
		t.Fatalf("missing like counter in exposition:\n%s", body)
	}
}
