package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Zachkp/portfolio/internal/apierror"
	"github.com/Zachkp/portfolio/internal/session"
)

type loginReq struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func (h *Handler) login(c *gin.Context) {
	client := h.clientKey(c)
	if !h.limiter.Allow(client) {
		h.log.Warn("admin login throttled", zap.String("client", client))
		c.JSON(http.StatusTooManyRequests, gin.H{"ok": false, "error": "too many login attempts, try again later"})
		return
	}

	var req loginReq
	if err := c.ShouldBind(&req); err != nil {
		apierror.BadRequest(c, "invalid body")
		return
	}
	if !h.auth.Check(req.Username, req.Password) {
		h.log.Warn("failed admin login attempt", zap.String("client", client))
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "Invalid credentials"})
		return
	}

	s, err := h.sessions.Create(c.Request.Context(), req.Username)
	if err != nil {
		h.log.Error("creating admin session failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not start session"})
		return
	}

	session.SetCookie(c, s, h.secure)
	h.log.Info("admin login successful", zap.String("client", client))
	c.JSON(http.StatusOK, gin.H{"ok": true, "session": s, "token": s.Token})
}

func (h *Handler) logout(c *gin.Context) {
	if token := session.TokenFrom(c); token != "" {
		if err := h.sessions.Delete(c.Request.Context(), token); err != nil {
			h.log.Warn("deleting admin session failed", zap.Error(err))
		}
	}
	session.ClearCookie(c, h.secure)
	h.log.Info("admin logout", zap.String("client", h.clientKey(c)))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) me(c *gin.Context) {
	s, ok := session.From(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "login required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "session": s})
}
