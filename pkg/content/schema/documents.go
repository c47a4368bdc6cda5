// Package schema holds the closed set of content document types the site
// renders, and decodes raw query results into them.
package schema

import "encoding/json"

const (
	TypeSite         = "site"
	TypeHome         = "home"
	TypeContact      = "contact"
	TypeProjectsPage = "projectsPage"
	TypeAboutPage    = "aboutPage"
	TypeProject      = "project"
	TypeCaseStudy    = "caseStudy"
)

// Document is implemented by every variant below.
type Document interface {
	DocumentType() string
	DocumentID() string
}

// Base carries the system fields every document has. Draft documents have an
// id prefixed with "drafts.".
type Base struct {
	ID        string `json:"_id" validate:"required"`
	Type      string `json:"_type" validate:"required"`
	Rev       string `json:"_rev,omitempty"`
	UpdatedAt string `json:"_updatedAt,omitempty"`
}

func (b Base) DocumentType() string { return b.Type }
func (b Base) DocumentID() string   { return b.ID }

// ProjectSummary is the projection used where pages reference projects.
type ProjectSummary struct {
	ID     string `json:"_id" validate:"required"`
	Title  string `json:"title"`
	Slug   string `json:"slug"`
	Client string `json:"client,omitempty"`
	Year   string `json:"year,omitempty"`
}

type Site struct {
	Base
	SiteName      string `json:"siteName"`
	HeaderTitle   string `json:"headerTitle"`
	FooterTitle   string `json:"footerTitle"`
	GeneralLabel  string `json:"generalLabel"`
	BusinessLabel string `json:"businessLabel"`
	GeneralEmail  string `json:"generalEmail" validate:"omitempty,email"`
	Address       string `json:"address"`
	AddressLink   string `json:"addressLink" validate:"omitempty,url"`
}

type Home struct {
	Base
	HeroTitle         string           `json:"heroTitle"`
	HeroSubtitle      string           `json:"heroSubtitle"`
	WorkTitle         string           `json:"workTitle"`
	ProjectsTitle     string           `json:"projectsTitle"`
	Projects          []ProjectSummary `json:"projects" validate:"dive"`
	ExpandableGallery json.RawMessage  `json:"expandableGallery,omitempty"`
}

type Contact struct {
	Base
	Blocks []json.RawMessage `json:"blocks" validate:"max=1"`
}

type ProjectsPage struct {
	Base
	Blocks   []json.RawMessage `json:"blocks"`
	Projects []ProjectSummary  `json:"projects" validate:"dive"`
}

type AboutPage struct {
	Base
	Title         string          `json:"title"`
	HeroSection   json.RawMessage `json:"heroSection,omitempty"`
	SkillsSection json.RawMessage `json:"skillsSection,omitempty"`
}

type Project struct {
	Base
	Title       string            `json:"title"`
	Slug        string            `json:"slug" validate:"required"`
	Description string            `json:"description,omitempty"`
	Client      string            `json:"client,omitempty"`
	Year        string            `json:"year,omitempty"`
	Categories  []string          `json:"categories,omitempty"`
	Link        string            `json:"link,omitempty" validate:"omitempty,url"`
	Content     []json.RawMessage `json:"content,omitempty"`
}

type CaseStudy struct {
	Base
	Title   string            `json:"title"`
	Slug    string            `json:"slug" validate:"required"`
	Content []json.RawMessage `json:"content,omitempty"`
}
