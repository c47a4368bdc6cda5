package presentation

import (
	"strings"

	"portfolio-be/pkg/content"
	"portfolio-be/pkg/content/schema"
)

const projectSummaryProjection = `{_id, _type, title, "slug": slug.current, client, year}`

// Route is one entry of the site's route table. Collection routes render one
// page per document at /<slug>.
type Route struct {
	Key          string
	DocumentType string
	Title        string
	Path         string
	Query        string
	Collection   bool
}

// PathFor returns the site-relative path the route renders slug at.
func (r Route) PathFor(slug string) string {
	if !r.Collection {
		return r.Path
	}
	return "/" + strings.Trim(slug, "/")
}

// Descriptor returns the query the page for this route is rendered from.
func (r Route) Descriptor(slug string) content.QueryDescriptor {
	params := map[string]interface{}{}
	if r.Collection {
		params["slug"] = slug
	}
	return content.QueryDescriptor{Query: r.Query, Params: params}
}

// Routes is the site route table. Keep it in step with the front end pages.
var Routes = []Route{
	{
		Key:          "home",
		DocumentType: schema.TypeHome,
		Title:        "Home Page",
		Path:         "/",
		Query: `*[_type == "home"][0]{_id, _type, _rev, _updatedAt, heroTitle, heroSubtitle, workTitle, projectsTitle, ` +
			`"projects": projects[]->` + projectSummaryProjection + `, expandableGallery}`,
	},
	{
		Key:          "contact",
		DocumentType: schema.TypeContact,
		Title:        "Contact Page",
		Path:         "/contact",
		Query:        `*[_type == "contact"][0]{_id, _type, _rev, _updatedAt, blocks}`,
	},
	{
		Key:          "projects",
		DocumentType: schema.TypeProjectsPage,
		Title:        "Projects Page",
		Path:         "/projects",
		Query: `*[_type == "projectsPage"][0]{_id, _type, _rev, _updatedAt, blocks, ` +
			`"projects": projects[]->` + projectSummaryProjection + `}`,
	},
	{
		Key:          "about",
		DocumentType: schema.TypeAboutPage,
		Title:        "About Page",
		Path:         "/about",
		Query:        `*[_type == "aboutPage"][0]{_id, _type, _rev, _updatedAt, title, heroSection, skillsSection}`,
	},
	{
		Key:          "project",
		DocumentType: schema.TypeProject,
		Title:        "Project",
		Collection:   true,
		Query: `*[_type == "project" && slug.current == $slug][0]{_id, _type, _rev, _updatedAt, title, ` +
			`"slug": slug.current, description, client, year, categories, link, content}`,
	},
	{
		Key:          "caseStudy",
		DocumentType: schema.TypeCaseStudy,
		Title:        "Case Study",
		Collection:   true,
		Query:        `*[_type == "caseStudy" && slug.current == $slug][0]{_id, _type, _rev, _updatedAt, title, "slug": slug.current, content}`,
	},
}

// SiteSettingsQuery feeds the site settings store.
const SiteSettingsQuery = `*[_type == "site"][0]{_id, _type, _rev, _updatedAt, siteName, headerTitle, footerTitle, ` +
	`generalLabel, businessLabel, generalEmail, address, addressLink}`

func RouteByKey(key string) (Route, bool) {
	for _, r := range Routes {
		if r.Key == key {
			return r, true
		}
	}
	return Route{}, false
}

func RouteByType(docType string) (Route, bool) {
	for _, r := range Routes {
		if r.DocumentType == docType {
			return r, true
		}
	}
	return Route{}, false
}
