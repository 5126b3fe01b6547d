package portfolio

import (
	"strings"

	"github.com/Zachkp/portfolio/internal/crud"
	"github.com/Zachkp/portfolio/internal/remote"
)

// Admin list orders.
func NewProjectRepository(t remote.Table) *crud.TableRepository[Project] {
	return crud.NewTableRepository[Project](t, TableProjects, remote.Desc("id"))
}

func NewCertificateRepository(t remote.Table) *crud.TableRepository[Certificate] {
	return crud.NewTableRepository[Certificate](t, TableCertificates, remote.Desc("id"))
}

func NewTechStackRepository(t remote.Table) *crud.TableRepository[TechItem] {
	return crud.NewTableRepository[TechItem](t, TableTechStack, remote.Asc("sort_order"), remote.Asc("id"))
}

func NewCommentRepository(t remote.Table) *crud.TableRepository[Comment] {
	return crud.NewTableRepository[Comment](t, TableComments, remote.Desc("created_at"))
}

// Search fields of each admin screen.

func ProjectFields(p Project) []string { return []string{p.Title, p.Description} }
func CertificateFields(c Certificate) []string { return []string{c.Img} }
func TechItemFields(t TechItem) []string { return []string{t.Name} }
func CommentFields(c Comment) []string { return []string{c.UserName, c.Content} }

// Normalize trims user input and fills defaults before a save.
func (p *Project) Normalize() {
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	p.Img = strings.TrimSpace(p.Img)
	p.Link = strings.TrimSpace(p.Link)
	p.Github = strings.TrimSpace(p.Github)
	p.Features = compact(p.Features)
	p.TechStack = compact(p.TechStack)
	p.Category = p.CategoryOrDefault()
}

func (p Project) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return crud.Invalid("Title is required")
	}
	return nil
}

func (c *Certificate) Normalize() {
	c.Img = strings.TrimSpace(c.Img)
}

func (c Certificate) Validate() error {
	if strings.TrimSpace(c.Img) == "" {
		return crud.Invalid("certificate image is required")
	}
	return nil
}

func (t *TechItem) Normalize() {
	t.Name = strings.TrimSpace(t.Name)
	t.IconURL = strings.TrimSpace(t.IconURL)
}

func (t TechItem) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return crud.Invalid("tech name is required")
	}
	if strings.TrimSpace(t.IconURL) == "" {
		return crud.Invalid("upload an icon or provide an icon URL")
	}
	return nil
}

func (c *Comment) Normalize() {
	c.UserName = strings.TrimSpace(c.UserName)
	c.Content = strings.TrimSpace(c.Content)
	c.ProfileImage = strings.TrimSpace(c.ProfileImage)
}

func (c Comment) Validate() error {
	if strings.TrimSpace(c.UserName) == "" {
		return crud.Invalid("name is required")
	}
	if strings.TrimSpace(c.Content) == "" {
		return crud.Invalid("comment is required")
	}
	return nil
}

func compact(in []string) StringList {
	out := make(StringList, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
