package main

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Zachkp/portfolio/internal/admin"
)

// setupAdminRoutes mounts the back-office API. The admin SPA pages under
// /admin are served by the frontend fallback.
func setupAdminRoutes(r *gin.Engine, a *app) {
	if a.cfg.Admin.UsingDefaults {
		a.log.Warn("WARNING: using default admin credentials. Set ADMIN_USERNAME and ADMIN_PASSWORD.")
	}

	h := admin.NewHandler(admin.Deps{
		Service:       a.svc,
		Table:         a.backend.Table,
		Store:         a.store,
		Sessions:      a.sessions,
		Tracker:       a.tracker,
		Username:      a.cfg.Admin.Username,
		Password:      a.cfg.Admin.Password,
		SecureCookies: a.cfg.IsProduction(),
		Log:           a.log.Named("admin"),
	})
	h.Register(r.Group("/admin/api"))

	a.log.Info("Admin access available", zap.String("login", "/admin/api/login"))
}
