package portfolio

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Zachkp/portfolio/internal/remote"
)

// RecentCommentsLimit is how many comments the dashboard previews.
const RecentCommentsLimit = 5

type Stats struct {
	Projects       int64 `json:"projects"`
	Certificates   int64 `json:"certificates"`
	Comments       int64 `json:"comments"`
	PinnedComments int64 `json:"pinned_comments"`
	Visitors       int64 `json:"visitors"`
	VisitorsWeek   int64 `json:"visitors_last_7_days"`
}

type Dashboard struct {
	Stats          Stats     `json:"stats"`
	RecentComments []Comment `json:"recent_comments"`
}

// Dashboard runs the record counts concurrently, then loads the latest
// comments. Visitor counts are best effort since page_visits may not exist
// on a hosted backend.
func (s *Service) Dashboard(ctx context.Context, now time.Time) (Dashboard, error) {
	var st Stats

	g, gctx := errgroup.WithContext(ctx)
	count := func(dst *int64, table string, filters ...remote.Filter) {
		g.Go(func() error {
			n, err := s.table.Count(gctx, table, filters...)
			if err != nil {
				return fmt.Errorf("count %s: %w", table, err)
			}
			*dst = n
			return nil
		})
	}
	count(&st.Projects, TableProjects)
	count(&st.Certificates, TableCertificates)
	count(&st.Comments, TableComments)
	count(&st.PinnedComments, TableComments, remote.Where("is_pinned", remote.Eq, true))

	g.Go(func() error {
		total, err := s.table.Count(gctx, TablePageVisits)
		if err != nil {
			s.log.Warn("failed to count visitors", zap.Error(err))
			return nil
		}
		week, err := s.table.Count(gctx, TablePageVisits,
			remote.Where("visited_at", remote.Gte, now.UTC().AddDate(0, 0, -7)))
		if err != nil {
			s.log.Warn("failed to count recent visitors", zap.Error(err))
			return nil
		}
		st.Visitors, st.VisitorsWeek = total, week
		return nil
	})

	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	rows, err := s.table.Select(ctx, TableComments, remote.Query{
		Order: []remote.Order{remote.Desc("created_at")},
		Limit: RecentCommentsLimit,
	})
	if err != nil {
		return Dashboard{}, fmt.Errorf("fetch recent comments: %w", err)
	}
	recent, err := remote.DecodeAll[Comment](rows)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{Stats: st, RecentComments: recent}, nil
}
