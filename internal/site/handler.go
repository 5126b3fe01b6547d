// Package site serves the public JSON API behind the portfolio SPA.
package site

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/Zachkp/portfolio/internal/apierror"
	"github.com/Zachkp/portfolio/internal/config"
	"github.com/Zachkp/portfolio/internal/contact"
	"github.com/Zachkp/portfolio/internal/portfolio"
)

// Copy holds the user-facing strings the handlers answer with.
type Copy struct {
	ContactSuccess string
	ContactFailure string
	Privacy        string
}

type Handler struct {
	svc    *portfolio.Service
	mailer contact.Mailer
	copy   Copy
	timing config.TypewriterConfig
	log    *zap.Logger

	clock     clockwork.Clock
	keepAlive time.Duration
}

type Option func(*Handler)

func WithMailer(m contact.Mailer) Option {
	return func(h *Handler) { h.mailer = m }
}

// WithClock drives the typewriter stream from c instead of the wall clock.
func WithClock(c clockwork.Clock) Option {
	return func(h *Handler) { h.clock = c }
}

func NewHandler(svc *portfolio.Service, timing config.TypewriterConfig, copy Copy, log *zap.Logger, opts ...Option) *Handler {
	h := &Handler{
		svc:       svc,
		copy:      copy,
		timing:    timing,
		log:       log,
		clock:     clockwork.NewRealClock(),
		keepAlive: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register attaches the public API routes to rg, normally the /api group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/profile", h.profile)
	rg.GET("/about", h.about)
	rg.GET("/portfolio", h.portfolio)
	rg.GET("/portfolio/cached", h.cachedPortfolio)
	rg.GET("/projects/:id", h.project)
	rg.GET("/comments", h.listComments)
	rg.POST("/comments", h.postComment)
	rg.POST("/contact", h.contact)
	rg.GET("/typewriter", h.typewriter)
	rg.GET("/privacy", h.privacy)
}

// RegisterFavicon serves /favicon.ico as a redirect to the profile photo.
func (h *Handler) RegisterFavicon(r gin.IRouter) {
	r.GET("/favicon.ico", h.favicon)
}

func (h *Handler) profile(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "profile": h.svc.Profile(c.Request.Context())})
}

func (h *Handler) about(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "about": h.svc.About(c.Request.Context())})
}

func (h *Handler) portfolio(c *gin.Context) {
	snap, err := h.svc.Portfolio(c.Request.Context(), c.Query("category"))
	if err != nil {
		apierror.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "portfolio": snap})
}

func (h *Handler) cachedPortfolio(c *gin.Context) {
	snap, found, err := h.svc.CachedPortfolio(c.Request.Context(), c.Query("category"))
	if err != nil {
		apierror.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "cached": found, "portfolio": snap})
}

func (h *Handler) project(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		apierror.BadRequest(c, "invalid project id")
		return
	}
	p, err := h.svc.Project(c.Request.Context(), id)
	if err != nil {
		apierror.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) listComments(c *gin.Context) {
	comments, err := h.svc.Comments(c.Request.Context())
	if err != nil {
		apierror.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "comments": comments})
}

type postCommentReq struct {
	UserName     string `json:"user_name"`
	Content      string `json:"content"`
	ProfileImage string `json:"profile_image"`
}

func (h *Handler) postComment(c *gin.Context) {
	var req postCommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.BadRequest(c, "invalid body")
		return
	}

	created, err := h.svc.PostComment(c.Request.Context(), portfolio.Comment{
		UserName:     req.UserName,
		Content:      req.Content,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		apierror.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "comment": created})
}

type contactReq struct {
	Name    string `json:"fullName" form:"fullName"`
	Email   string `json:"email" form:"email"`
	Message string `json:"message" form:"message"`
}

func (h *Handler) contact(c *gin.Context) {
	var req contactReq
	if err := c.ShouldBind(&req); err != nil {
		apierror.BadRequest(c, "invalid body")
		return
	}
	msg := contact.Message{Name: req.Name, Email: req.Email, Message: req.Message}
	if err := msg.Validate(); err != nil {
		apierror.Write(c, h.log, err)
		return
	}
	if h.mailer == nil {
		apierror.Write(c, h.log, contact.ErrNotConfigured)
		return
	}

	if err := h.mailer.Send(c.Request.Context(), msg); err != nil {
		h.log.Error("contact form delivery failed", zap.Error(err))
		status := http.StatusBadGateway
		if apierror.Status(err) == http.StatusServiceUnavailable {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"ok": false, "error": h.copy.ContactFailure})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": h.copy.ContactSuccess})
}

func (h *Handler) privacy(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "privacy": h.copy.Privacy})
}

func (h *Handler) favicon(c *gin.Context) {
	photo := h.svc.Profile(c.Request.Context()).PhotoURL
	if photo == "" {
		c.Status(http.StatusNotFound)
		return
	}
	c.Header("Cache-Control", "public, max-age=300")
	c.Redirect(http.StatusFound, photo)
}
