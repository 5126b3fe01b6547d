package site

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Zachkp/portfolio/internal/typewriter"
)

type frame struct {
	Text string `json:"text"`
}

// typewriter streams the hero subtitle as server-sent events. Each event
// carries the full display text; a slow client only ever sees the latest.
func (h *Handler) typewriter(c *gin.Context) {
	ctx := c.Request.Context()
	words := h.svc.Profile(ctx).Subtitles

	cy, err := typewriter.New(typewriter.Options{
		Words:           words,
		TypingInterval:  h.timing.TypingInterval,
		ErasingInterval: h.timing.ErasingInterval,
		Pause:           h.timing.Pause,
	}, typewriter.WithClock(h.clock))
	if err != nil {
		h.log.Error("typewriter setup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "typewriter unavailable"})
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "streaming unsupported"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	send := func(text string) bool {
		data, _ := json.Marshal(frame{Text: text})
		if _, err := fmt.Fprintf(c.Writer, "event: text\ndata: %s\n\n", data); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !send(cy.Text()) {
		return
	}

	// Single producer: draining before the send keeps it non-blocking.
	latest := make(chan string, 1)
	cy.Start(func(text string) {
		select {
		case <-latest:
		default:
		}
		latest <- text
	})
	defer cy.Stop()

	keepAlive := time.NewTicker(h.keepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case text := <-latest:
			if !send(text) {
				return
			}
		case <-keepAlive.C:
			if _, err := fmt.Fprint(c.Writer, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
