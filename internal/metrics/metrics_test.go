package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_LabelsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	for _, p := range []string{"/items/1", "/items/2", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/items/:id", "204")); got != 2 {
		t.Fatalf("want 2 templated requests, got %v", got)
	}
	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "unmatched", "404")); got != 1 {
		t.Fatalf("want 1 unmatched request, got %v", got)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "storefront_http_requests_total") {
		t.Fatalf("metrics endpoint missing series: %d", w.Code)
	}
}

func TestRecordDomainCounters(t *testing.T) {
	m := New()
	m.RecordAuth("login", nil)
	m.RecordAuth("login", errors.New("bad"))
	m.RecordCatalog("buy", nil)
	m.WSConnected()
	m.WSConnected()
	m.WSDisconnected()

	if got := testutil.ToFloat64(m.authAttempts.WithLabelValues("login", "error")); got != 1 {
		t.Fatalf("login errors: %v", got)
	}
	if got := testutil.ToFloat64(m.catalogOps.WithLabelValues("buy", "ok")); got != 1 {
		t.Fatalf("buy ok: %v", got)
	}
	if got := testutil.ToFloat64(m.wsClients); got != 1 {
		t.Fatalf("ws clients: %v", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordAuth("login", nil)
	m.RecordCatalog("add", nil)
	m.WSConnected()
	m.WSDisconnected()
}
