// Package portfolio holds the site's records and the read paths the public
// pages and the admin dashboard share.
package portfolio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Tables owned by the hosted backend.
const (
	TableProjects     = "projects"
	TableCertificates = "certificates"
	TableTechStack    = "tech_stack"
	TableComments     = "portfolio_comments"
	TableProfile      = "profile_settings"
	TablePageVisits   = "page_visits"
)

// Storage buckets for uploaded images.
const (
	BucketProfileImages = "profile-images"
	BucketCertificates  = "certificates"
)

// DefaultCategory applies to projects saved without one.
const DefaultCategory = "Project"

// Categories lists the tabs of the portfolio page.
var Categories = []string{"Project", "Design", "Editing"}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Timestamp decodes the timestamp forms the backends produce: RFC 3339 from
// the hosted API and Postgres, and the space separated form SQLite stores.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp { return Timestamp{Time: t.UTC()} }

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognised format %q", s)
}

// StringList is a text list column. It accepts a JSON array, a JSON array
// stored as a string, or a comma separated string.
type StringList []string

func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

func (l *StringList) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*l = nil
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*l = nil
			return nil
		}
		if strings.HasPrefix(s, "[") {
			return l.UnmarshalJSON([]byte(s))
		}
		*l = splitTrim(s, ",")
		return nil
	}
	var items []string
	if err := json.Unmarshal(b, &items); err != nil {
		return fmt.Errorf("string list: %w", err)
	}
	*l = items
	return nil
}

func splitTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type Project struct {
	ID          int64      `json:"id"`
	Title       string     `json:"Title"`
	Description string     `json:"Description"`
	Img         string     `json:"Img"`
	Link        string     `json:"Link"`
	Github      string     `json:"Github"`
	Features    StringList `json:"Features"`
	TechStack   StringList `json:"TechStack"`
	Category    string     `json:"category"`
	CreatedAt   Timestamp  `json:"created_at"`
}

// CategoryOrDefault reports the category the portfolio tabs file it under.
func (p Project) CategoryOrDefault() string {
	if c := strings.TrimSpace(p.Category); c != "" {
		return c
	}
	return DefaultCategory
}

type Certificate struct {
	ID        int64     `json:"id"`
	Img       string    `json:"Img"`
	CreatedAt Timestamp `json:"created_at"`
}

// TechItem is one row of the tech stack section.
type TechItem struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	IconURL   string    `json:"icon_url"`
	SortOrder int       `json:"sort_order"`
	CreatedAt Timestamp `json:"created_at"`
}

type Comment struct {
	ID           int64     `json:"id"`
	UserName     string    `json:"user_name"`
	Content      string    `json:"content"`
	ProfileImage string    `json:"profile_image"`
	IsPinned     bool      `json:"is_pinned"`
	CreatedAt    Timestamp `json:"created_at"`
}

// Profile is the single profile_settings row.
type Profile struct {
	ID               int64      `json:"id"`
	PhotoURL         string     `json:"photo_url"`
	Title            string     `json:"title"`
	Subtitle         string     `json:"subtitle"`
	TechStack        StringList `json:"tech_stack"`
	GithubURL        string     `json:"github_url"`
	LinkedinURL      string     `json:"linkedin_url"`
	InstagramURL     string     `json:"instagram_url"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	CVLink           string     `json:"cv_link"`
	LinkedinConnect  string     `json:"linkedin_connect"`
	InstagramConnect string     `json:"instagram_connect"`
	YoutubeConnect   string     `json:"youtube_connect"`
	GithubConnect    string     `json:"github_connect"`
	TiktokConnect    string     `json:"tiktok_connect"`
	UpdatedAt        Timestamp  `json:"updated_at"`
}
