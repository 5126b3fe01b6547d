package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Response struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	DB        string    `json:"db,omitempty"`
	Backend   string    `json:"backend"`
}

type Handler struct {
	serviceName string
	version     string
	backend     string
	db          Pinger
}

// NewHandler reports on db when it is non-nil; hosted backends are not pinged.
func NewHandler(serviceName, version, backend string, db Pinger) *Handler {
	return &Handler{
		serviceName: serviceName,
		version:     version,
		backend:     backend,
		db:          db,
	}
}

func (h *Handler) Check(c *gin.Context) {
	dbStatus := "disabled"
	if h.db != nil {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		if err := h.db.PingContext(pingCtx); err != nil {
			dbStatus = "down"
		} else {
			dbStatus = "up"
		}
	}

	c.JSON(http.StatusOK, Response{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		DB:        dbStatus,
		Backend:   h.backend,
	})
}

func (h *Handler) Register(r gin.IRouter) {
	r.GET("/health", h.Check)
	r.GET("/healthz", h.Check)
}
