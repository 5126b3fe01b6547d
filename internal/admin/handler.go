// Package admin serves the back-office JSON API: login, dashboard, visitor
// stats and the CRUD screens for projects, certificates, tech stack,
// comments and the profile.
package admin

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Zachkp/portfolio/internal/apierror"
	"github.com/Zachkp/portfolio/internal/crud"
	"github.com/Zachkp/portfolio/internal/objectstore"
	"github.com/Zachkp/portfolio/internal/portfolio"
	"github.com/Zachkp/portfolio/internal/remote"
	"github.com/Zachkp/portfolio/internal/session"
	"github.com/Zachkp/portfolio/internal/visitors"
)

const (
	defaultVisitorLimit = 200
	maxVisitorLimit     = 1000
)

// Deps carries what the admin API needs from main.
type Deps struct {
	Service  *portfolio.Service
	Table    remote.Table
	Store    objectstore.Store
	Sessions session.Store
	Tracker  *visitors.Tracker

	Username      string
	Password      string
	SecureCookies bool

	Log *zap.Logger
}

type Handler struct {
	svc      *portfolio.Service
	sessions session.Store
	auth     *session.Authenticator
	limiter  *session.Limiter
	tracker  *visitors.Tracker
	uploader *objectstore.Uploader
	secure   bool
	log      *zap.Logger
	now      func() time.Time

	projects     *resource[portfolio.Project, *portfolio.Project]
	certificates *resource[portfolio.Certificate, *portfolio.Certificate]
	techStack    *resource[portfolio.TechItem, *portfolio.TechItem]
	comments     *crud.Screen[portfolio.Comment]
	commentRepo  *crud.TableRepository[portfolio.Comment]
	profiles     *portfolio.ProfileRepository
}

func NewHandler(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	uploader := objectstore.NewUploader(d.Store)
	commentRepo := portfolio.NewCommentRepository(d.Table)

	return &Handler{
		svc:      d.Service,
		sessions: d.Sessions,
		auth:     session.NewAuthenticator(d.Username, d.Password),
		// Five attempts, then one every twelve seconds.
		limiter:  session.NewLimiter(rate.Every(12*time.Second), 5),
		tracker:  d.Tracker,
		uploader: uploader,
		secure:   d.SecureCookies,
		log:      log,
		now:      time.Now,

		projects: &resource[portfolio.Project, *portfolio.Project]{
			screen:   crud.NewScreen[portfolio.Project]("projects", portfolio.NewProjectRepository(d.Table), portfolio.ProjectFields, log),
			uploader: uploader,
			target:   objectstore.Target{Bucket: portfolio.BucketProfileImages, Folder: "projects", Policy: objectstore.AnyImage},
			image:    func(p *portfolio.Project) *string { return &p.Img },
			log:      log,
		},
		certificates: &resource[portfolio.Certificate, *portfolio.Certificate]{
			screen:   crud.NewScreen[portfolio.Certificate]("certificates", portfolio.NewCertificateRepository(d.Table), portfolio.CertificateFields, log),
			uploader: uploader,
			target:   objectstore.Target{Bucket: portfolio.BucketCertificates, Folder: "certificates", Policy: objectstore.CertificateImage},
			image:    func(c *portfolio.Certificate) *string { return &c.Img },
			log:      log,
		},
		techStack: &resource[portfolio.TechItem, *portfolio.TechItem]{
			screen:   crud.NewScreen[portfolio.TechItem]("tech-stack", portfolio.NewTechStackRepository(d.Table), portfolio.TechItemFields, log),
			uploader: uploader,
			target:   objectstore.Target{Bucket: portfolio.BucketProfileImages, Folder: "tech-stack", Policy: objectstore.AnyImage},
			image:    func(t *portfolio.TechItem) *string { return &t.IconURL },
			log:      log,
		},
		comments:    crud.NewScreen[portfolio.Comment]("comments", commentRepo, portfolio.CommentFields, log),
		commentRepo: commentRepo,
		profiles:    d.Service.Profiles(),
	}
}

// Register attaches the admin API to rg, normally /admin/api. Everything but
// login and logout requires a session.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/login", h.login)
	rg.POST("/logout", h.logout)

	authed := rg.Group("", session.Guard(h.sessions))
	authed.GET("/me", h.me)
	authed.GET("/dashboard", h.dashboard)
	authed.GET("/export/stats", h.exportStats)
	authed.GET("/visitors", h.visitors)
	authed.POST("/privacy/cleanup", h.privacyCleanup)
	authed.POST("/cache/refresh", h.refreshCache)

	h.projects.register(authed.Group("/projects"), true)
	h.certificates.register(authed.Group("/certificates"), false)
	h.techStack.register(authed.Group("/tech-stack"), true)

	comments := authed.Group("/comments")
	comments.GET("", h.listComments)
	comments.PATCH("/:id/pin", h.togglePin)
	comments.DELETE("/:id", h.deleteComment)

	profile := authed.Group("/profile")
	profile.GET("", h.getProfile)
	profile.PUT("", h.saveProfile)
	profile.POST("/photo", h.uploadPhoto)
}

func (h *Handler) dashboard(c *gin.Context) {
	d, err := h.svc.Dashboard(c.Request.Context(), h.now())
	if err != nil {
		apierror.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "dashboard": d})
}

// exportStats serves the dashboard as a downloadable JSON file.
func (h *Handler) exportStats(c *gin.Context) {
	d, err := h.svc.Dashboard(c.Request.Context(), h.now())
	if err != nil {
		apierror.Write(c, h.log, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=admin-stats.json")
	h.log.Info("admin stats exported", zap.String("client", h.clientKey(c)))
	c.JSON(http.StatusOK, d)
}

func (h *Handler) visitors(c *gin.Context) {
	if !h.trackingEnabled(c) {
		return
	}
	limit := defaultVisitorLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			apierror.BadRequest(c, "invalid limit")
			return
		}
		limit = min(n, maxVisitorLimit)
	}

	visits, err := h.tracker.Recent(c.Request.Context(), limit)
	if err != nil {
		apierror.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "visitors": visits})
}

// privacyCleanup runs the retention sweep now instead of waiting for the
// nightly job.
func (h *Handler) privacyCleanup(c *gin.Context) {
	if !h.trackingEnabled(c) {
		return
	}
	n, err := h.tracker.Cleanup(c.Request.Context())
	if err != nil {
		apierror.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "deleted": n})
}

func (h *Handler) refreshCache(c *gin.Context) {
	if err := h.svc.RefreshCache(c.Request.Context()); err != nil {
		apierror.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) trackingEnabled(c *gin.Context) bool {
	if h.tracker == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "visitor tracking is disabled"})
		return false
	}
	return true
}

// clientKey identifies the caller in logs and the login limiter without
// keeping the raw IP.
func (h *Handler) clientKey(c *gin.Context) string {
	if h.tracker == nil {
		return c.ClientIP()
	}
	return h.tracker.HashIP(c.ClientIP())
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		apierror.BadRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}
