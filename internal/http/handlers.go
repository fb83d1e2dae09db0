package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pagecast/backend/internal/session"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	sessions *session.Manager
	started  time.Time
}

// NewHandlers creates a new handler set
func NewHandlers(sessions *session.Manager) *Handlers {
	return &Handlers{
		sessions: sessions,
		started:  time.Now(),
	}
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "Pagecast Relay",
		"version": "0.2.0",
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"active_sessions": h.sessions.Count(),
		"uptime_seconds":  int64(time.Since(h.started).Seconds()),
	})
}
