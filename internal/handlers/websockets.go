package handlers

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPongTimeout  = 60 * time.Second
	wsPingEvery    = wsPongTimeout * 9 / 10
	wsReadLimit    = 4 << 10

	summaryEvery    = time.Second
	maxSummaryEvery = 10 * time.Second
)

// wsEnvelope is the frame written to catalog stream clients.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{CheckOrigin: sameOrigin}

// sameOrigin admits requests without an Origin header (non-browser clients)
// and browser requests from this host only.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}

// @Summary      Catalog stream
// @Description  Upgrades to a WebSocket and pushes {"type":"catalog","data":summary} every interval.
// @Tags         products
// @Param        interval  query  string  false  "Push interval, e.g. 2s (max 10s)"
// @Router       /ws [get]
func (h *Handler) wsConnect(c *gin.Context) {
	every := summaryInterval(c.Query("interval"))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	h.metrics.WSConnected()
	defer func() {
		h.metrics.WSDisconnected()
		_ = conn.Close()
	}()

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	})

	closed := make(chan struct{})
	go h.drain(conn, closed)

	ctx := c.Request.Context()
	if err := h.pushSummary(ctx, conn); err != nil {
		return
	}

	push := time.NewTicker(every)
	defer push.Stop()
	ping := time.NewTicker(wsPingEvery)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case <-push.C:
			if err := h.pushSummary(ctx, conn); err != nil {
				return
			}
		}
	}
}

// summaryInterval parses ?interval=2s, falling back to one second when
// missing, malformed or outside (0, 10s].
func summaryInterval(raw string) time.Duration {
	if raw == "" {
		return summaryEvery
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 || d > maxSummaryEvery {
		return summaryEvery
	}
	return d
}

// drain reads until the client goes away so pongs and close frames are processed.
func (h *Handler) drain(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if h.log != nil {
				h.log.Infow("ws_client_gone", "err", err)
			}
			return
		}
	}
}

// pushSummary writes the catalog counts, or an error frame when they cannot be read.
func (h *Handler) pushSummary(ctx context.Context, conn *websocket.Conn) error {
	sum, err := h.services.Summary(ctx)
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_get_summary_failed", "err", err)
		}
		_ = conn.WriteJSON(wsEnvelope{Type: "error", Error: errGetSummary})
		return err
	}
	if err := conn.WriteJSON(wsEnvelope{Type: "catalog", Data: sum}); err != nil {
		if h.log != nil {
			h.log.Infow("ws_write_failed", "err", err)
		}
		return err
	}
	return nil
}
