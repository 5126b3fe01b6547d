package portfolio

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Zachkp/portfolio/internal/remote"
)

// ProfileID is the id of the only profile_settings row.
const ProfileID = 1

const (
	DefaultTitle    = "Frontend Developer"
	DefaultName     = "Andika Rian Ansari"
	DefaultPhotoURL = "/Photo.jpg"
	// FallbackPhrase follows a subtitle that holds a single phrase.
	FallbackPhrase = "Tech Enthusiast"
)

var (
	DefaultSubtitles = []string{"Network & Telecom Student", FallbackPhrase}
	DefaultTechStack = []string{
		"React", "Javascript", "Node.js", "Tailwind", "Canva",
		"Adobe Animate", "Adobe Photoshop", "Capcut", "Figma",
	}
)

// Placeholder social links shown until the profile sets its own.
const (
	DefaultGithubURL    = "https://github.com/StartYourProject"
	DefaultLinkedinURL  = "https://www.linkedin.com/"
	DefaultInstagramURL = "https://www.instagram.com/"
)

// SubtitlePhrases splits the "|" separated subtitle into typewriter phrases.
func SubtitlePhrases(subtitle string) []string {
	subtitle = strings.TrimSpace(subtitle)
	if subtitle == "" {
		return append([]string(nil), DefaultSubtitles...)
	}
	if !strings.Contains(subtitle, "|") {
		return []string{subtitle, FallbackPhrase}
	}
	parts := strings.Split(subtitle, "|")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

type SocialLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// PublicProfile is the profile as the public pages render it, with every
// empty field replaced by its default.
type PublicProfile struct {
	Name        string       `json:"name"`
	Title       string       `json:"title"`
	Subtitles   []string     `json:"subtitles"`
	Description string       `json:"description"`
	PhotoURL    string       `json:"photo_url"`
	CVLink      string       `json:"cv_link"`
	TechStack   []string     `json:"tech_stack"`
	SocialLinks []SocialLink `json:"social_links"`
	Connect     []SocialLink `json:"connect"`
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// Public applies the page defaults to p.
func (p Profile) Public() PublicProfile {
	tech := []string(p.TechStack)
	if tech == nil {
		tech = append([]string(nil), DefaultTechStack...)
	}

	out := PublicProfile{
		Name:        orDefault(p.Name, DefaultName),
		Title:       orDefault(p.Title, DefaultTitle),
		Subtitles:   SubtitlePhrases(p.Subtitle),
		Description: p.Description,
		PhotoURL:    orDefault(p.PhotoURL, DefaultPhotoURL),
		CVLink:      p.CVLink,
		TechStack:   tech,
		SocialLinks: []SocialLink{
			{Name: "github", URL: orDefault(p.GithubURL, DefaultGithubURL)},
			{Name: "linkedin", URL: orDefault(p.LinkedinURL, DefaultLinkedinURL)},
			{Name: "instagram", URL: orDefault(p.InstagramURL, DefaultInstagramURL)},
		},
		Connect: []SocialLink{},
	}

	// Connect links without a value are hidden rather than defaulted.
	for _, l := range []SocialLink{
		{Name: "linkedin", URL: p.LinkedinConnect},
		{Name: "instagram", URL: p.InstagramConnect},
		{Name: "youtube", URL: p.YoutubeConnect},
		{Name: "github", URL: p.GithubConnect},
		{Name: "tiktok", URL: p.TiktokConnect},
	} {
		if strings.TrimSpace(l.URL) != "" {
			out.Connect = append(out.Connect, l)
		}
	}
	return out
}

// ProfileRepository reads and upserts the single profile row.
type ProfileRepository struct {
	table remote.Table
	now   func() time.Time
}

func NewProfileRepository(table remote.Table) *ProfileRepository {
	return &ProfileRepository{table: table, now: time.Now}
}

// Get returns the stored profile. A missing row is not an error; found
// reports whether one exists.
func (r *ProfileRepository) Get(ctx context.Context) (Profile, bool, error) {
	rows, err := r.table.Select(ctx, TableProfile, remote.Query{
		Filters: []remote.Filter{remote.Where("id", remote.Eq, ProfileID)},
		Limit:   1,
	})
	if err != nil {
		return Profile{}, false, err
	}
	if len(rows) == 0 {
		return Profile{ID: ProfileID}, false, nil
	}
	var p Profile
	if err := remote.Decode(rows[0], &p); err != nil {
		return Profile{}, false, err
	}
	return p, true, nil
}

// Save writes p as row 1, creating it on first save, and stamps updated_at.
func (r *ProfileRepository) Save(ctx context.Context, p Profile) (Profile, error) {
	p.ID = ProfileID
	p.UpdatedAt = NewTimestamp(r.now())

	row, err := remote.Encode(p)
	if err != nil {
		return Profile{}, err
	}

	saved, err := r.table.Update(ctx, TableProfile, ProfileID, row.Without("id"))
	if errors.Is(err, remote.ErrNotFound) {
		saved, err = r.table.Insert(ctx, TableProfile, row)
	}
	if err != nil {
		return Profile{}, err
	}

	var out Profile
	if err := remote.Decode(saved, &out); err != nil {
		return Profile{}, err
	}
	return out, nil
}
