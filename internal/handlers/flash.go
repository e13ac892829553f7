package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	flashCookieName = "flash"
	ctxFlashes      = "pendingFlashes"

	flashSuccess = "success"
	flashDanger  = "danger"
	flashError   = "error"
)

// flashMessage is shown once on the next rendered page.
type flashMessage struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// addFlash queues a message for the next page render, which may be in a
// later request after a redirect.
func (h *Handler) addFlash(c *gin.Context, category, message string) {
	pending := pendingFlashes(c)
	pending = append(pending, flashMessage{Category: category, Message: message})
	c.Set(ctxFlashes, pending)

	b, err := json.Marshal(pending)
	if err != nil {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookieName, base64.RawURLEncoding.EncodeToString(b), 60, "/", "", h.opts.SecureCookie, true)
}

// popFlashes returns queued messages (cookie plus this request) and clears them.
func (h *Handler) popFlashes(c *gin.Context) []flashMessage {
	var out []flashMessage
	fromCookie := false
	if raw, err := c.Cookie(flashCookieName); err == nil && raw != "" {
		fromCookie = true
		if b, err := base64.RawURLEncoding.DecodeString(raw); err == nil {
			_ = json.Unmarshal(b, &out)
		}
	}
	pending := pendingFlashes(c)
	out = append(out, pending...)
	if fromCookie || len(pending) > 0 {
		c.SetCookie(flashCookieName, "", -1, "/", "", h.opts.SecureCookie, true)
	}
	c.Set(ctxFlashes, []flashMessage(nil))
	return out
}

func pendingFlashes(c *gin.Context) []flashMessage {
	v, ok := c.Get(ctxFlashes)
	if !ok {
		return nil
	}
	list, _ := v.([]flashMessage)
	return list
}
