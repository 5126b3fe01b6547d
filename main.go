package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Zachkp/portfolio/internal/bootstrap"
	"github.com/Zachkp/portfolio/internal/config"
	"github.com/Zachkp/portfolio/internal/contact"
	"github.com/Zachkp/portfolio/internal/health"
	"github.com/Zachkp/portfolio/internal/jobs"
	"github.com/Zachkp/portfolio/internal/logger"
	"github.com/Zachkp/portfolio/internal/middleware"
	"github.com/Zachkp/portfolio/internal/objectstore"
	"github.com/Zachkp/portfolio/internal/portfolio"
	"github.com/Zachkp/portfolio/internal/session"
	"github.com/Zachkp/portfolio/internal/site"
	"github.com/Zachkp/portfolio/internal/visitors"
)

const serviceName = "portfolio"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

// app holds the wired dependencies shared by the routers and jobs.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	backend  *bootstrap.Backend
	store    objectstore.Store
	redis    *redis.Client
	svc      *portfolio.Service
	tracker  *visitors.Tracker
	sessions session.Store
	mailer   *contact.SMTPMailer
}

func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	backend, err := bootstrap.OpenBackend(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open backend: %w", err)
	}
	a.backend = backend

	if a.store, err = bootstrap.OpenStore(ctx, cfg, backend, log); err != nil {
		a.close()
		return nil, fmt.Errorf("open object storage: %w", err)
	}
	if a.redis, err = bootstrap.OpenRedis(ctx, cfg); err != nil {
		a.close()
		return nil, err
	}

	a.svc = portfolio.NewService(backend.Table, bootstrap.NewCache(a.redis), log.Named("portfolio"))
	a.sessions = bootstrap.NewSessionStore(a.redis, cfg.Admin.SessionTTL)

	if a.tracker, err = visitors.NewTracker(backend.Table, cfg.Server.VisitorSalt, log.Named("visitors")); err != nil {
		a.close()
		return nil, err
	}
	log.Info("Privacy: visitor tracking enabled with hashed IP addresses")

	a.mailer = contact.NewSMTPMailer(cfg.SMTP, log.Named("contact"))
	if !a.mailer.Configured() {
		log.Warn("SMTP credentials not configured, the contact form will answer 503")
	}
	return a, nil
}

func (a *app) close() {
	if a.tracker != nil {
		a.tracker.Wait()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			a.log.Warn("closing backend failed", zap.Error(err))
		}
	}
}

func (a *app) router() *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(a.log.Named("http")),
		middleware.CORS(a.cfg.Server.AllowedOrigins),
		a.tracker.Middleware(),
	)

	health.NewHandler(serviceName, version, a.backend.Driver, a.backend.Pinger()).Register(r)

	pub := site.NewHandler(a.svc, a.cfg.Typewriter, siteCopy, a.log.Named("site"), site.WithMailer(a.mailer))
	pub.Register(r.Group("/api"))
	pub.RegisterFavicon(r)

	setupAdminRoutes(r, a)

	if a.cfg.Storage.Driver == config.StorageLocal && strings.HasPrefix(a.cfg.Storage.UploadBaseURL, "/") {
		r.Static(a.cfg.Storage.UploadBaseURL, a.cfg.Storage.UploadDir)
	}
	serveSPA(r, a.cfg.Server.StaticDir)
	return r
}

// serveSPA serves the built frontend: existing files as-is, every other
// non-API path as index.html so client-side routes survive a reload.
func serveSPA(r *gin.Engine, dir string) {
	index := filepath.Join(dir, "index.html")
	r.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, "/admin/api/") {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "not found"})
			return
		}
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "not found"})
			return
		}

		file := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+path)))
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			c.File(file)
			return
		}
		if _, err := os.Stat(index); err != nil {
			c.String(http.StatusNotFound, "frontend not built")
			return
		}
		c.File(index)
	})
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootstrap.SetGinMode(cfg.Server.Environment)

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	scheduler := jobs.NewScheduler(a.tracker, a.svc, log.Named("jobs"))
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           a.router(),
		ReadHeaderTimeout: 10 * time.Second,
		// Long-lived typewriter streams end with the signal context.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Server.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	scheduler.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
