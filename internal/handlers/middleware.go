package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	sessionCookieName = "session_id"

	ctxUserID    = "userId"
	ctxSessionID = "sessionId"
)

func (h *Handler) userIdMiddleware(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "missing Authorization header",
		})
		return
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid Authorization header format",
		})
		return
	}

	userId, err := h.services.ParseToken(parts[1])
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid or expired token",
		})
		return
	}

	// store in Gin context
	c.Set(ctxUserID, userId)
	c.Next()
}

// loadSession resolves the session cookie, if any, into userId/sessionId.
// Anonymous requests pass through untouched.
func (h *Handler) loadSession(c *gin.Context) {
	sid, err := c.Cookie(sessionCookieName)
	if err != nil || sid == "" {
		c.Next()
		return
	}

	userID, err := h.services.Resolve(c.Request.Context(), sid)
	switch {
	case err == nil:
		c.Set(ctxUserID, userID)
		c.Set(ctxSessionID, sid)
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrSessionExpired):
		h.clearSessionCookie(c)
	default:
		if h.log != nil {
			h.log.Errorw("session_resolve_failed", "err", err)
		}
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Next()
}

// requireSession redirects anonymous requests to the login page.
func (h *Handler) requireSession(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
		return
	}
	c.Next()
}

func currentUserID(c *gin.Context) (int, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int)
	return id, ok && id > 0
}

func (h *Handler) setSessionCookie(c *gin.Context, id string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, id, int(h.opts.SessionTTL/time.Second), "/", "", h.opts.SecureCookie, true)
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, "", -1, "/", "", h.opts.SecureCookie, true)
}

// requestLogger writes one line per request.
func (h *Handler) requestLogger(c *gin.Context) {
	start := time.Now()
	c.Next()
	if h.log == nil {
		return
	}
	h.log.Infow("http_request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"latency", time.Since(start),
		"ip", c.ClientIP(),
	)
}
