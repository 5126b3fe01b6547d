package portfolio

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zachkp/portfolio/internal/cache"
	"github.com/Zachkp/portfolio/internal/crud"
	"github.com/Zachkp/portfolio/internal/remote"
	"github.com/Zachkp/portfolio/internal/testutil"
)

// selectFailer fails Select for the named tables only.
type selectFailer struct {
	remote.Table
	fail map[string]error
}

func (f *selectFailer) Select(ctx context.Context, table string, q remote.Query) ([]remote.Row, error) {
	if err := f.fail[table]; err != nil {
		return nil, err
	}
	return f.Table.Select(ctx, table, q)
}

func newSeededTable() *testutil.FakeTable {
	table := testutil.NewFakeTable()
	table.Seed(TableProjects,
		remote.Row{"Title": "Shop", "category": "Project", "Features": []any{"cart"}, "TechStack": `["React","Go"]`},
		remote.Row{"Title": "Poster", "category": "Design"},
		remote.Row{"Title": "Legacy"},
	)
	table.Seed(TableCertificates, remote.Row{"Img": "https://cdn/c1.png"})
	table.Seed(TableTechStack,
		remote.Row{"name": "Vue", "icon_url": "vue.svg", "sort_order": 1},
		remote.Row{"name": "react", "icon_url": "react.svg", "sort_order": 0},
		remote.Row{"name": "Angular", "icon_url": "angular.svg", "sort_order": 1},
		remote.Row{"name": "NoIcon", "icon_url": "", "sort_order": 0},
	)
	return table
}

func TestSubtitlePhrases(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"Network & Telecom Student", "Tech Enthusiast"}},
		{"Web Developer", []string{"Web Developer", "Tech Enthusiast"}},
		{"Web Developer | Design|UI/UX", []string{"Web Developer", "Design", "UI/UX"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SubtitlePhrases(tt.in), "subtitle %q", tt.in)
	}
}

func TestPublicProfileDefaults(t *testing.T) {
	pub := Profile{}.Public()
	assert.Equal(t, DefaultTitle, pub.Title)
	assert.Equal(t, DefaultName, pub.Name)
	assert.Equal(t, DefaultPhotoURL, pub.PhotoURL)
	assert.Equal(t, DefaultTechStack, pub.TechStack)
	assert.Equal(t, DefaultGithubURL, pub.SocialLinks[0].URL)
	assert.Empty(t, pub.Connect)

	pub = Profile{
		Title:         "Backend Engineer",
		TechStack:     StringList{"Go"},
		GithubURL:     "https://github.com/me",
		TiktokConnect: "https://tiktok.com/@me",
	}.Public()
	assert.Equal(t, "Backend Engineer", pub.Title)
	assert.Equal(t, []string{"Go"}, pub.TechStack)
	assert.Equal(t, "https://github.com/me", pub.SocialLinks[0].URL)
	assert.Equal(t, []SocialLink{{Name: "tiktok", URL: "https://tiktok.com/@me"}}, pub.Connect)
}

func TestProfileRepositoryUpsert(t *testing.T) {
	ctx := context.Background()
	table := testutil.NewFakeTable()
	repo := NewProfileRepository(table)
	now := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	p, found, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, int64(ProfileID), p.ID)

	saved, err := repo.Save(ctx, Profile{ID: 7, Title: "Dev", TechStack: StringList{"Go"}})
	require.NoError(t, err)
	assert.Equal(t, int64(ProfileID), saved.ID, "always row 1")
	assert.Equal(t, now, saved.UpdatedAt.Time)
	assert.Equal(t, 1, table.Calls["insert"])

	now = now.Add(time.Hour)
	saved, err = repo.Save(ctx, Profile{Title: "Senior Dev"})
	require.NoError(t, err)
	assert.Equal(t, "Senior Dev", saved.Title)
	assert.Equal(t, now, saved.UpdatedAt.Time)
	assert.Equal(t, 1, table.Calls["insert"], "second save updates")
	assert.Len(t, table.Rows(TableProfile), 1)

	got, found, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Senior Dev", got.Title)
}

func TestTimestampDecoding(t *testing.T) {
	want := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	for _, in := range []string{
		`"2024-05-06T07:08:09Z"`,
		`"2024-05-06T09:08:09+02:00"`,
		`"2024-05-06 07:08:09"`,
		`"2024-05-06 07:08:09+00:00"`,
	} {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(in), &ts), in)
		assert.True(t, want.Equal(ts.Time), "%s decoded to %s", in, ts.Time)
	}

	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))

	b, err := json.Marshal(Timestamp{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
}

func TestStringListDecoding(t *testing.T) {
	tests := map[string]StringList{
		`["a","b"]`:  {"a", "b"},
		`"[\"a\"]"`:  {"a"},
		`"a, b ,,c"`: {"a", "b", "c"},
		`null`:       nil,
		`""`:         nil,
	}
	for in, want := range tests {
		var l StringList
		require.NoError(t, json.Unmarshal([]byte(in), &l), in)
		assert.Equal(t, want, l, in)
	}

	b, err := json.Marshal(StringList(nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))
}

func TestNormalizeTechStack(t *testing.T) {
	got := NormalizeTechStack([]TechItem{
		{Name: "Vue", IconURL: "vue.svg", SortOrder: 1},
		{Name: "react", IconURL: "react.svg"},
		{Name: "Angular", IconURL: "angular.svg", SortOrder: 1},
		{Name: "NoIcon"},
		{IconURL: "anon.svg"},
	})
	assert.Equal(t, []TechBadge{
		{Icon: "react.svg", Language: "react"},
		{Icon: "angular.svg", Language: "Angular"},
		{Icon: "vue.svg", Language: "Vue"},
	}, got)
}

func TestPortfolioFetchesAndCaches(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory()
	svc := NewService(newSeededTable(), c, nil)

	snap, err := svc.Portfolio(ctx, "")
	require.NoError(t, err)
	assert.False(t, snap.Stale)
	require.Len(t, snap.Projects, 3)
	assert.Equal(t, "Shop", snap.Projects[0].Title)
	assert.Equal(t, StringList{"cart"}, snap.Projects[0].Features)
	assert.Equal(t, StringList{"React", "Go"}, snap.Projects[0].TechStack)
	assert.Len(t, snap.Certificates, 1)
	require.Len(t, snap.TechStack, 3)
	assert.Equal(t, "react", snap.TechStack[0].Language)

	for _, key := range []string{cache.KeyProjects, cache.KeyCertificates, cache.KeyTechStack} {
		_, ok, err := c.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok, "%s cached", key)
	}

	projects, err := svc.Portfolio(ctx, "project")
	require.NoError(t, err)
	require.Len(t, projects.Projects, 2, "missing category counts as Project")
	assert.Equal(t, "Legacy", projects.Projects[1].Title)

	design, err := svc.Portfolio(ctx, "Design")
	require.NoError(t, err)
	require.Len(t, design.Projects, 1)
	assert.Equal(t, "Poster", design.Projects[0].Title)
}

func TestPortfolioServesStaleCacheOnFailure(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory()
	table := newSeededTable()
	svc := NewService(table, c, nil)

	_, err := svc.Portfolio(ctx, "")
	require.NoError(t, err)

	table.Errors["select"] = errors.New("connection reset")
	snap, err := svc.Portfolio(ctx, "Design")
	require.NoError(t, err)
	assert.True(t, snap.Stale)
	require.Len(t, snap.Projects, 1)
	assert.Len(t, snap.TechStack, 3)
}

func TestPortfolioFailsWithoutCache(t *testing.T) {
	boom := errors.New("connection reset")
	table := newSeededTable()
	table.Errors["select"] = boom
	svc := NewService(table, cache.NewMemory(), nil)

	_, err := svc.Portfolio(context.Background(), "")
	assert.ErrorIs(t, err, boom)

	_, ok, err := svc.CachedPortfolio(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPortfolioTechStackFailureKeepsCachedBadges(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory()
	badges := []TechBadge{{Icon: "go.svg", Language: "Go"}}
	require.NoError(t, cache.SetJSON(ctx, c, cache.KeyTechStack, badges))

	table := &selectFailer{Table: newSeededTable(), fail: map[string]error{TableTechStack: errors.New("no such table")}}
	snap, err := NewService(table, c, nil).Portfolio(ctx, "")
	require.NoError(t, err)
	assert.False(t, snap.Stale)
	assert.Len(t, snap.Projects, 3)
	assert.Equal(t, badges, snap.TechStack)
}

func TestAboutCounts(t *testing.T) {
	table := newSeededTable()
	table.Seed(TableProfile, remote.Row{"id": 1, "name": "Rian", "cv_link": "https://cv"})

	about := NewService(table, cache.NewMemory(), nil).About(context.Background())
	assert.Equal(t, "Rian", about.Name)
	assert.Equal(t, "https://cv", about.CVLink)
	assert.Equal(t, DefaultPhotoURL, about.PhotoURL)
	assert.Equal(t, int64(3), about.TotalProjects)
	assert.Equal(t, int64(1), about.TotalCertificates)
}

func TestAboutFallsBackOnFailure(t *testing.T) {
	table := newSeededTable()
	table.Errors["select"] = errors.New("down")
	table.Errors["count"] = errors.New("down")

	about := NewService(table, cache.NewMemory(), nil).About(context.Background())
	assert.Equal(t, DefaultName, about.Name)
	assert.Zero(t, about.TotalProjects)
}

func TestCommentsPinnedFirst(t *testing.T) {
	table := testutil.NewFakeTable()
	table.Seed(TableComments,
		remote.Row{"user_name": "a", "content": "first", "is_pinned": false},
		remote.Row{"user_name": "b", "content": "pinned old", "is_pinned": true},
		remote.Row{"user_name": "c", "content": "newest", "is_pinned": false},
	)

	comments, err := NewService(table, cache.NewMemory(), nil).Comments(context.Background())
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, "pinned old", comments[0].Content)
	assert.Equal(t, "newest", comments[1].Content)
	assert.Equal(t, "first", comments[2].Content)
}

func TestPostComment(t *testing.T) {
	ctx := context.Background()
	table := testutil.NewFakeTable()
	svc := NewService(table, cache.NewMemory(), nil)

	_, err := svc.PostComment(ctx, Comment{UserName: "  ", Content: "hi"})
	assert.ErrorIs(t, err, crud.ErrValidation)
	assert.Zero(t, table.Calls["insert"], "validation runs before the remote call")

	c, err := svc.PostComment(ctx, Comment{UserName: " Ana ", Content: "Great work", IsPinned: true})
	require.NoError(t, err)
	assert.Equal(t, "Ana", c.UserName)
	assert.False(t, c.IsPinned)
	assert.NotZero(t, c.ID)
}

func TestDashboard(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	table := newSeededTable()
	for i := 0; i < 7; i++ {
		table.Seed(TableComments, remote.Row{"user_name": "u", "content": "c", "is_pinned": i == 0})
	}
	table.Seed(TablePageVisits,
		remote.Row{"hashed_ip": "x", "visited_at": now.AddDate(0, 0, -1)},
		remote.Row{"hashed_ip": "y", "visited_at": now.AddDate(0, 0, -30)},
	)

	d, err := NewService(table, cache.NewMemory(), nil).Dashboard(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, Stats{
		Projects:       3,
		Certificates:   1,
		Comments:       7,
		PinnedComments: 1,
		Visitors:       2,
		VisitorsWeek:   1,
	}, d.Stats)
	require.Len(t, d.RecentComments, RecentCommentsLimit)
	assert.Equal(t, int64(7), d.RecentComments[0].ID, "newest first")
}

func TestDashboardCountFailure(t *testing.T) {
	table := newSeededTable()
	table.Errors["count"] = errors.New("timeout")

	_, err := NewService(table, cache.NewMemory(), nil).Dashboard(context.Background(), time.Now())
	assert.Error(t, err)
}

func TestValidation(t *testing.T) {
	p := Project{Title: "  Site  ", Features: StringList{" a ", ""}}
	p.Normalize()
	assert.NoError(t, p.Validate())
	assert.Equal(t, "Site", p.Title)
	assert.Equal(t, DefaultCategory, p.Category)
	assert.Equal(t, StringList{"a"}, p.Features)

	assert.ErrorIs(t, Project{}.Validate(), crud.ErrValidation)
	assert.ErrorIs(t, Certificate{}.Validate(), crud.ErrValidation)
	assert.ErrorIs(t, TechItem{Name: "Go"}.Validate(), crud.ErrValidation)
	assert.NoError(t, TechItem{Name: "Go", IconURL: "go.svg"}.Validate())
	assert.ErrorIs(t, Comment{UserName: "a"}.Validate(), crud.ErrValidation)
}
