package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"storefront/internal/models"
	"storefront/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func TestSummaryInterval(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Duration
	}{
		{"", time.Second},
		{"200ms", 200 * time.Millisecond},
		{"10s", 10 * time.Second},
		{"20s", time.Second},
		{"-1s", time.Second},
		{"bogus", time.Second},
	}
	for _, tc := range cases {
		if got := summaryInterval(tc.raw); got != tc.want {
			t.Fatalf("summaryInterval(%q)=%v, want %v", tc.raw, got, tc.want)
		}
	}
}

// --- websocket integration tests ---

func TestWebSocket_CatalogStream_InitialAndPeriodic(t *testing.T) {
	catalog := &mockCatalog{summary: models.CatalogSummary{Available: 2, Owned: 1, Total: 3}}
	s := &service.Service{Catalog: catalog}

	// Build router with /ws
	r := gin.New()
	h := NewHandler(s, nil, Options{})
	r.GET("/ws", h.wsConnect)

	srv := httptest.NewServer(r)
	defer srv.Close()

	// Build ws URL
	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	q := u.Query()
	q.Set("interval", "20ms") // fast ticks for the test
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	defer conn.Close()

	type envelope struct {
		Type  string          `json:"type"`
		Data  json.RawMessage `json:"data"`
		Error string          `json:"error"`
	}

	// Read initial summary
	_ = conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	var env envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read initial: %v", err)
	}
	if env.Type != "catalog" || len(env.Data) == 0 {
		t.Fatalf("bad envelope: %+v", env)
	}
	var sum models.CatalogSummary
	if err := json.Unmarshal(env.Data, &sum); err != nil {
		t.Fatalf("unmarshal summary: %v", err)
	}
	if sum.Available != 2 || sum.Owned != 1 || sum.Total != 3 {
		t.Fatalf("unexpected summary: %+v", sum)
	}

	// Read a subsequent tick
	_ = conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	env = envelope{}
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read second: %v", err)
	}
	if env.Type != "catalog" {
		t.Fatalf("expected type=catalog, got %+v", env)
	}
}

func TestWebSocket_InitialSummaryError_Closes(t *testing.T) {
	catalog := &mockCatalog{sumErr: errors.New("boom")}
	s := &service.Service{Catalog: catalog}

	r := gin.New()
	h := NewHandler(s, nil, Options{})
	r.GET("/ws", h.wsConnect)

	srv := httptest.NewServer(r)
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	defer conn.Close()

	// One error frame, then the server closes.
	_ = conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	var env wsEnvelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read error frame: %v", err)
	}
	if env.Type != "error" || env.Error != errGetSummary {
		t.Fatalf("unexpected frame: %+v", env)
	}
	var raw json.RawMessage
	if err := conn.ReadJSON(&raw); err == nil {
		t.Fatalf("expected read error (closed), got message: %s", string(raw))
	}
}

func TestWebSocket_RequiresSession(t *testing.T) {
	r := newTestRouter(&service.Service{Sessions: &mockSessions{}, Catalog: &mockCatalog{}})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))
	if w.Code != http.StatusFound {
		t.Fatalf("status=%d, want 302", w.Code)
	}
}

func TestSameOrigin(t *testing.T) {
	cases := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://shop.local:8080", true},
		{"http://evil.example", false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "http://shop.local:8080/ws", nil)
		if tc.origin != "" {
			req.Header.Set("Origin", tc.origin)
		}
		if got := sameOrigin(req); got != tc.want {
			t.Fatalf("origin %q: got %v want %v", tc.origin, got, tc.want)
		}
	}
}
