package portfolio

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Zachkp/portfolio/internal/cache"
	"github.com/Zachkp/portfolio/internal/remote"
)

// TechBadge is a tech stack entry as the portfolio page shows it.
type TechBadge struct {
	Icon     string `json:"icon"`
	Language string `json:"language"`
}

// NormalizeTechStack drops entries missing a name or icon and orders the
// rest by sort_order, then name.
func NormalizeTechStack(items []TechItem) []TechBadge {
	kept := make([]TechItem, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.Name) != "" && strings.TrimSpace(it.IconURL) != "" {
			kept = append(kept, it)
		}
	}
	slices.SortStableFunc(kept, func(a, b TechItem) int {
		if c := cmp.Compare(a.SortOrder, b.SortOrder); c != 0 {
			return c
		}
		return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})

	out := make([]TechBadge, len(kept))
	for i, it := range kept {
		out[i] = TechBadge{Icon: it.IconURL, Language: it.Name}
	}
	return out
}

// Snapshot is everything the portfolio page lists.
type Snapshot struct {
	Projects     []Project     `json:"projects"`
	Certificates []Certificate `json:"certificates"`
	TechStack    []TechBadge   `json:"tech_stack"`
	// Stale is set when the lists come from the cache because the backend failed.
	Stale bool `json:"stale,omitempty"`
}

// FilterCategory keeps the projects of category. Empty or "all" keeps everything.
func (s Snapshot) FilterCategory(category string) Snapshot {
	category = strings.TrimSpace(category)
	if category == "" || strings.EqualFold(category, "all") {
		return s
	}
	out := make([]Project, 0, len(s.Projects))
	for _, p := range s.Projects {
		if strings.EqualFold(p.CategoryOrDefault(), category) {
			out = append(out, p)
		}
	}
	s.Projects = out
	return s
}

type About struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	PhotoURL          string `json:"photo_url"`
	CVLink            string `json:"cv_link"`
	TotalProjects     int64  `json:"total_projects"`
	TotalCertificates int64  `json:"total_certificates"`
}

// Service serves the public pages.
type Service struct {
	table    remote.Table
	cache    cache.Cache
	profiles *ProfileRepository
	log      *zap.Logger
}

func NewService(table remote.Table, c cache.Cache, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		table:    table,
		cache:    c,
		profiles: NewProfileRepository(table),
		log:      log,
	}
}

func (s *Service) Profiles() *ProfileRepository { return s.profiles }

// Profile never fails: a backend error is logged and the defaults are served.
func (s *Service) Profile(ctx context.Context) PublicProfile {
	p, _, err := s.profiles.Get(ctx)
	if err != nil {
		s.log.Warn("failed to fetch profile, serving defaults", zap.Error(err))
		return Profile{}.Public()
	}
	return p.Public()
}

// About fetches the profile and both counts concurrently. Failures fall
// back to defaults and zero counts.
func (s *Service) About(ctx context.Context) About {
	var (
		profile        Profile
		projects, cert int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, _, err := s.profiles.Get(gctx)
		if err != nil {
			s.log.Warn("failed to fetch profile", zap.Error(err))
			return nil
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		n, err := s.table.Count(gctx, TableProjects)
		if err != nil {
			s.log.Warn("failed to count projects", zap.Error(err))
			return nil
		}
		projects = n
		return nil
	})
	g.Go(func() error {
		n, err := s.table.Count(gctx, TableCertificates)
		if err != nil {
			s.log.Warn("failed to count certificates", zap.Error(err))
			return nil
		}
		cert = n
		return nil
	})
	_ = g.Wait()

	pub := profile.Public()
	return About{
		Name:              pub.Name,
		Description:       pub.Description,
		PhotoURL:          pub.PhotoURL,
		CVLink:            pub.CVLink,
		TotalProjects:     projects,
		TotalCertificates: cert,
	}
}

// Portfolio fetches the three lists in parallel and refreshes the cache.
// A failed tech stack fetch keeps the cached badges; a failed project or
// certificate fetch serves the whole cached snapshot marked stale.
func (s *Service) Portfolio(ctx context.Context, category string) (Snapshot, error) {
	var (
		projects []Project
		certs    []Certificate
		tech     []TechItem
		techErr  error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.table.Select(gctx, TableProjects, remote.Query{Order: []remote.Order{remote.Asc("id")}})
		if err != nil {
			return fmt.Errorf("fetch projects: %w", err)
		}
		projects, err = remote.DecodeAll[Project](rows)
		return err
	})
	g.Go(func() error {
		rows, err := s.table.Select(gctx, TableCertificates, remote.Query{Order: []remote.Order{remote.Asc("id")}})
		if err != nil {
			return fmt.Errorf("fetch certificates: %w", err)
		}
		certs, err = remote.DecodeAll[Certificate](rows)
		return err
	})
	g.Go(func() error {
		rows, err := s.table.Select(gctx, TableTechStack, remote.Query{Order: []remote.Order{remote.Asc("sort_order")}})
		if err == nil {
			tech, err = remote.DecodeAll[TechItem](rows)
		}
		techErr = err
		return nil
	})

	if err := g.Wait(); err != nil {
		s.log.Error("failed to fetch portfolio", zap.Error(err))
		cached, ok, cerr := s.CachedPortfolio(ctx, category)
		if cerr != nil || !ok {
			return Snapshot{}, err
		}
		cached.Stale = true
		return cached, nil
	}

	snap := Snapshot{Projects: projects, Certificates: certs}
	s.store(ctx, cache.KeyProjects, projects)
	s.store(ctx, cache.KeyCertificates, certs)

	if techErr != nil {
		s.log.Warn("failed to fetch tech stack", zap.Error(techErr))
		var badges []TechBadge
		if _, err := cache.GetJSON(ctx, s.cache, cache.KeyTechStack, &badges); err != nil {
			s.log.Warn("failed to read cached tech stack", zap.Error(err))
		}
		snap.TechStack = badges
	} else {
		snap.TechStack = NormalizeTechStack(tech)
		s.store(ctx, cache.KeyTechStack, snap.TechStack)
	}

	return snap.ensureLists().FilterCategory(category), nil
}

// CachedPortfolio returns the last successful snapshot; ok is false when
// nothing has been cached yet.
func (s *Service) CachedPortfolio(ctx context.Context, category string) (Snapshot, bool, error) {
	var snap Snapshot
	found := false
	for key, dst := range map[string]any{
		cache.KeyProjects:     &snap.Projects,
		cache.KeyCertificates: &snap.Certificates,
		cache.KeyTechStack:    &snap.TechStack,
	} {
		ok, err := cache.GetJSON(ctx, s.cache, key, dst)
		if err != nil {
			return Snapshot{}, false, err
		}
		found = found || ok
	}
	if !found {
		return Snapshot{}, false, nil
	}
	return snap.ensureLists().FilterCategory(category), true, nil
}

// RefreshCache refetches the portfolio so the cache tracks the backend.
func (s *Service) RefreshCache(ctx context.Context) error {
	snap, err := s.Portfolio(ctx, "")
	if err != nil {
		return err
	}
	if snap.Stale {
		return errors.New("portfolio backend unavailable, cache left as is")
	}
	return nil
}

func (s *Service) store(ctx context.Context, key string, v any) {
	if err := cache.SetJSON(ctx, s.cache, key, v); err != nil {
		s.log.Warn("failed to write cache", zap.String("key", key), zap.Error(err))
	}
}

func (s Snapshot) ensureLists() Snapshot {
	if s.Projects == nil {
		s.Projects = []Project{}
	}
	if s.Certificates == nil {
		s.Certificates = []Certificate{}
	}
	if s.TechStack == nil {
		s.TechStack = []TechBadge{}
	}
	return s
}

// Project returns one project for its detail page.
func (s *Service) Project(ctx context.Context, id int64) (Project, error) {
	return NewProjectRepository(s.table).Get(ctx, id)
}

// Comments lists the public comment wall: pinned first, newest first.
func (s *Service) Comments(ctx context.Context) ([]Comment, error) {
	rows, err := s.table.Select(ctx, TableComments, remote.Query{
		Order: []remote.Order{remote.Desc("created_at")},
	})
	if err != nil {
		return nil, err
	}
	comments, err := remote.DecodeAll[Comment](rows)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(comments, func(a, b Comment) int {
		switch {
		case a.IsPinned == b.IsPinned:
			return 0
		case a.IsPinned:
			return -1
		}
		return 1
	})
	return comments, nil
}

// PostComment adds a visitor comment. Visitors cannot pin.
func (s *Service) PostComment(ctx context.Context, c Comment) (Comment, error) {
	c.Normalize()
	c.IsPinned = false
	if err := c.Validate(); err != nil {
		return Comment{}, err
	}
	return NewCommentRepository(s.table).Create(ctx, c)
}
