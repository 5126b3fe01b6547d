// Package visitors records privacy-conscious page visits: client IPs are
// stored only as salted hashes, Do Not Track is honoured and records older
// than the retention window are purged.
package visitors

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Zachkp/portfolio/internal/portfolio"
	"github.com/Zachkp/portfolio/internal/remote"
)

// Retention is how long visits are kept.
const Retention = 12 // months

const recordTimeout = 5 * time.Second

// Paths that are never recorded.
var skipPrefixes = []string{
	"/api/",
	"/admin",
	"/assets/",
	"/static/",
	"/uploads/",
	"/images/",
	"/favicon",
	"/health",
	"/healthz",
	"/privacy",
}

type Visit struct {
	ID        int64               `json:"id"`
	HashedIP  string              `json:"hashed_ip"`
	UserAgent string              `json:"user_agent"`
	Path      string              `json:"path"`
	VisitedAt portfolio.Timestamp `json:"visited_at"`
}

type Tracker struct {
	table remote.Table
	salt  string
	log   *zap.Logger
	now   func() time.Time
	wg    sync.WaitGroup
}

// NewTracker hashes with salt; an empty salt is replaced by a random one,
// which makes hashes stable only for the life of the process.
func NewTracker(table remote.Table, salt string, log *zap.Logger) (*Tracker, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if salt == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return nil, fmt.Errorf("generate hashing salt: %w", err)
		}
		salt = hex.EncodeToString(b)
	}
	return &Tracker{table: table, salt: salt, log: log, now: time.Now}, nil
}

// HashIP returns a truncated salted SHA-256 of ip, consistent per IP.
func (t *Tracker) HashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip + t.salt))
	return hex.EncodeToString(sum[:])[:16]
}

func skipped(path string) bool {
	for _, p := range skipPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// Middleware records GET page loads in the background.
func (t *Tracker) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if c.Request.Method != http.MethodGet || skipped(path) || c.GetHeader("DNT") == "1" {
			c.Next()
			return
		}

		ip, ua := c.ClientIP(), c.GetHeader("User-Agent")
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
			defer cancel()
			if err := t.Record(ctx, ip, ua, path); err != nil {
				t.log.Warn("failed to record visitor", zap.Error(err))
			}
		}()
		c.Next()
	}
}

func (t *Tracker) Record(ctx context.Context, ip, userAgent, path string) error {
	_, err := t.table.Insert(ctx, portfolio.TablePageVisits, remote.Row{
		"hashed_ip":  t.HashIP(ip),
		"user_agent": userAgent,
		"path":       path,
		"visited_at": t.now().UTC(),
	})
	return err
}

// Wait blocks until background recordings finish.
func (t *Tracker) Wait() { t.wg.Wait() }

// Cleanup deletes visits older than the retention window.
func (t *Tracker) Cleanup(ctx context.Context) (int64, error) {
	cutoff := t.now().UTC().AddDate(0, -Retention, 0)
	n, err := t.table.DeleteWhere(ctx, portfolio.TablePageVisits,
		remote.Where("visited_at", remote.Lt, cutoff))
	if err != nil {
		return 0, fmt.Errorf("cleanup visitors: %w", err)
	}
	if n > 0 {
		t.log.Info("privacy cleanup removed old visitor records",
			zap.Int64("removed", n), zap.Int("older_than_months", Retention))
	}
	return n, nil
}

// Recent lists the latest visits, newest first.
func (t *Tracker) Recent(ctx context.Context, limit int) ([]Visit, error) {
	rows, err := t.table.Select(ctx, portfolio.TablePageVisits, remote.Query{
		Order: []remote.Order{remote.Desc("visited_at")},
		Limit: limit,
	})
	if err != nil {
		return nil, err
	}
	return remote.DecodeAll[Visit](rows)
}
