package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Zachkp/portfolio/internal/portfolio"
	"github.com/Zachkp/portfolio/internal/remote"
)

// seedFile is the YAML layout of a seed file. See seed.example.yaml.
type seedFile struct {
	Profile      *seedProfile  `yaml:"profile"`
	Projects     []seedProject `yaml:"projects"`
	Certificates []string      `yaml:"certificates"`
	TechStack    []seedTech    `yaml:"tech_stack"`
}

type seedProfile struct {
	Name         string            `yaml:"name"`
	Title        string            `yaml:"title"`
	Subtitles    []string          `yaml:"subtitles"`
	Description  string            `yaml:"description"`
	PhotoURL     string            `yaml:"photo_url"`
	CVLink       string            `yaml:"cv_link"`
	TechStack    []string          `yaml:"tech_stack"`
	GithubURL    string            `yaml:"github_url"`
	LinkedinURL  string            `yaml:"linkedin_url"`
	InstagramURL string            `yaml:"instagram_url"`
	Connect      map[string]string `yaml:"connect"`
}

type seedProject struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Image       string   `yaml:"image"`
	Link        string   `yaml:"link"`
	Github      string   `yaml:"github"`
	Category    string   `yaml:"category"`
	Features    []string `yaml:"features"`
	TechStack   []string `yaml:"tech_stack"`
}

type seedTech struct {
	Name      string `yaml:"name"`
	Icon      string `yaml:"icon"`
	SortOrder int    `yaml:"sort_order"`
}

func loadSeed(path string) (*seedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var s seedFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &s, nil
}

func (p seedProfile) record() portfolio.Profile {
	return portfolio.Profile{
		Name:             p.Name,
		Title:            p.Title,
		Subtitle:         strings.Join(p.Subtitles, " | "),
		Description:      p.Description,
		PhotoURL:         p.PhotoURL,
		CVLink:           p.CVLink,
		TechStack:        p.TechStack,
		GithubURL:        p.GithubURL,
		LinkedinURL:      p.LinkedinURL,
		InstagramURL:     p.InstagramURL,
		LinkedinConnect:  p.Connect["linkedin"],
		InstagramConnect: p.Connect["instagram"],
		YoutubeConnect:   p.Connect["youtube"],
		GithubConnect:    p.Connect["github"],
		TiktokConnect:    p.Connect["tiktok"],
	}
}

// counts reports how many rows of each kind were written.
type counts struct {
	Profile      bool
	Projects     int
	Certificates int
	TechStack    int
}

// validate checks every record before anything is written.
func (s *seedFile) validate() error {
	for i, p := range s.Projects {
		if err := p.project().Validate(); err != nil {
			return fmt.Errorf("projects[%d]: %w", i, err)
		}
	}
	for i, img := range s.Certificates {
		if err := (portfolio.Certificate{Img: img}).Validate(); err != nil {
			return fmt.Errorf("certificates[%d]: %w", i, err)
		}
	}
	for i, t := range s.TechStack {
		if err := t.item().Validate(); err != nil {
			return fmt.Errorf("tech_stack[%d]: %w", i, err)
		}
	}
	return nil
}

func (p seedProject) project() portfolio.Project {
	out := portfolio.Project{
		Title:       p.Title,
		Description: p.Description,
		Img:         p.Image,
		Link:        p.Link,
		Github:      p.Github,
		Category:    p.Category,
		Features:    p.Features,
		TechStack:   p.TechStack,
	}
	out.Normalize()
	return out
}

func (t seedTech) item() portfolio.TechItem {
	out := portfolio.TechItem{Name: t.Name, IconURL: t.Icon, SortOrder: t.SortOrder}
	out.Normalize()
	return out
}

// apply writes the seed through the table backend. Rows are appended, the
// profile is upserted.
func apply(ctx context.Context, table remote.Table, s *seedFile, log *zap.Logger) (counts, error) {
	var n counts
	if err := s.validate(); err != nil {
		return n, err
	}

	if s.Profile != nil {
		if _, err := portfolio.NewProfileRepository(table).Save(ctx, s.Profile.record()); err != nil {
			return n, fmt.Errorf("save profile: %w", err)
		}
		n.Profile = true
		log.Info("profile saved")
	}

	projects := portfolio.NewProjectRepository(table)
	for _, p := range s.Projects {
		if _, err := projects.Create(ctx, p.project()); err != nil {
			return n, fmt.Errorf("insert project %q: %w", p.Title, err)
		}
		n.Projects++
	}

	certs := portfolio.NewCertificateRepository(table)
	for _, img := range s.Certificates {
		c := portfolio.Certificate{Img: img}
		c.Normalize()
		if _, err := certs.Create(ctx, c); err != nil {
			return n, fmt.Errorf("insert certificate %q: %w", img, err)
		}
		n.Certificates++
	}

	tech := portfolio.NewTechStackRepository(table)
	for _, t := range s.TechStack {
		if _, err := tech.Create(ctx, t.item()); err != nil {
			return n, fmt.Errorf("insert tech %q: %w", t.Name, err)
		}
		n.TechStack++
	}

	log.Info("seed applied",
		zap.Int("projects", n.Projects),
		zap.Int("certificates", n.Certificates),
		zap.Int("tech_stack", n.TechStack),
	)
	return n, nil
}
