// Package bootstrap turns the configuration into the live adapters: the
// table backend, object storage, redis-backed cache and sessions.
package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Zachkp/portfolio/internal/cache"
	"github.com/Zachkp/portfolio/internal/config"
	"github.com/Zachkp/portfolio/internal/health"
	"github.com/Zachkp/portfolio/internal/objectstore"
	"github.com/Zachkp/portfolio/internal/objectstore/localstore"
	"github.com/Zachkp/portfolio/internal/objectstore/s3store"
	"github.com/Zachkp/portfolio/internal/portfolio"
	"github.com/Zachkp/portfolio/internal/remote"
	"github.com/Zachkp/portfolio/internal/remote/sqltable"
	"github.com/Zachkp/portfolio/internal/session"
	"github.com/Zachkp/portfolio/internal/supabase"
)

func SetGinMode(env string) {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
}

// Backend is the opened table adapter. SQL is set for the SQL drivers and
// Supabase for the hosted one.
type Backend struct {
	Driver   string
	Table    remote.Table
	SQL      *sqltable.Store
	Supabase *supabase.Client
}

// Pinger returns the database to health-check, or nil.
func (b *Backend) Pinger() health.Pinger {
	if b.SQL == nil {
		return nil
	}
	return b.SQL.DB()
}

func (b *Backend) Close() error {
	if b.SQL != nil {
		return b.SQL.Close()
	}
	return nil
}

// sqliteDSN pins the time format so stored timestamps compare as text.
func sqliteDSN(path string) string {
	if strings.Contains(path, "_time_format") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_time_format=sqlite&_pragma=busy_timeout(5000)"
}

// OpenBackend connects the configured table backend and runs migrations for
// the SQL drivers. A Supabase backend without URL or key degrades to the
// disabled adapter.
func OpenBackend(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Backend, error) {
	b := &Backend{Driver: cfg.Backend.Driver}

	switch cfg.Backend.Driver {
	case config.BackendSupabase:
		if !cfg.SupabaseConfigured() {
			log.Warn("Supabase URL or key missing, reads return empty data and writes are rejected")
			b.Driver = config.BackendNone
			b.Table = remote.NewDisabled(log)
			return b, nil
		}
		b.Supabase = supabase.New(cfg.Backend.SupabaseURL, cfg.Backend.SupabaseKey,
			supabase.WithLogger(log.Named("supabase")))
		b.Table = b.Supabase.Table()

	case config.BackendPostgres, config.BackendSQLite:
		dialect, dsn := sqltable.Postgres, cfg.Backend.DatabaseURL
		if cfg.Backend.Driver == config.BackendSQLite {
			dialect, dsn = sqltable.SQLite, sqliteDSN(cfg.Backend.SQLitePath)
		}
		store, err := sqltable.Open(ctx, dialect, dsn)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(log); err != nil {
			_ = store.Close()
			return nil, err
		}
		b.SQL = store
		b.Table = store

	default:
		log.Warn("no backend configured, reads return empty data and writes are rejected")
		b.Table = remote.NewDisabled(log)
	}

	log.Info("table backend ready", zap.String("driver", b.Driver))
	return b, nil
}

// OpenStore builds the configured object store. The Supabase driver reuses
// the backend's client and falls back to disabled when it is absent.
func OpenStore(ctx context.Context, cfg *config.Config, b *Backend, log *zap.Logger) (objectstore.Store, error) {
	switch cfg.Storage.Driver {
	case config.StorageSupabase:
		if b.Supabase == nil {
			if !cfg.SupabaseConfigured() {
				log.Warn("Supabase storage selected without URL or key, uploads are disabled")
				return objectstore.Disabled{}, nil
			}
			return supabase.New(cfg.Backend.SupabaseURL, cfg.Backend.SupabaseKey,
				supabase.WithLogger(log.Named("supabase"))).Storage(), nil
		}
		return b.Supabase.Storage(), nil

	case config.StorageS3:
		store, err := s3store.New(ctx, s3store.Config{
			Endpoint:      cfg.Storage.S3Endpoint,
			Region:        cfg.Storage.S3Region,
			AccessKey:     cfg.Storage.S3AccessKey,
			SecretKey:     cfg.Storage.S3SecretKey,
			PublicBaseURL: cfg.Storage.S3PublicBaseURL,
		})
		if err != nil {
			return nil, err
		}
		return store, nil

	case config.StorageLocal:
		store := localstore.New(cfg.Storage.UploadDir, cfg.Storage.UploadBaseURL)
		for _, bucket := range []string{portfolio.BucketProfileImages, portfolio.BucketCertificates} {
			if err := store.EnsureBucket(bucket); err != nil {
				return nil, fmt.Errorf("create upload bucket %s: %w", bucket, err)
			}
		}
		return store, nil

	default:
		log.Warn("no object storage configured, uploads are disabled")
		return objectstore.Disabled{}, nil
	}
}

// OpenRedis connects when REDIS_URL is set. A nil client means "use the
// in-memory implementations".
func OpenRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if cfg.Cache.RedisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.Cache.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func NewCache(client *redis.Client) cache.Cache {
	if client == nil {
		return cache.NewMemory()
	}
	return cache.NewRedis(client)
}

func NewSessionStore(client *redis.Client, ttl time.Duration) session.Store {
	if client == nil {
		return session.NewMemoryStore(ttl)
	}
	return session.NewRedisStore(client, ttl)
}
