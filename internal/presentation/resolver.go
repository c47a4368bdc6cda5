package presentation

import (
	"strings"

	"portfolio-be/pkg/content/schema"
)

// Location is a place on the site where a document is rendered.
type Location struct {
	Title string `json:"title"`
	Href  string `json:"href"`
}

// DocumentLocator identifies a content document by type and optional slug.
type DocumentLocator struct {
	Type string
	Slug string
}

// Resolver maps documents to the site paths that render them. The authoring
// tool uses it for "open preview" and "show in context" links.
type Resolver struct {
	routes []Route
}

func NewResolver(routes []Route) *Resolver {
	return &Resolver{routes: routes}
}

func (r *Resolver) route(docType string) (Route, bool) {
	for _, rt := range r.routes {
		if rt.DocumentType == docType {
			return rt, true
		}
	}
	return Route{}, false
}

// Resolve returns the locations for a document. Unknown types and collection
// documents without a slug resolve to no locations.
func (r *Resolver) Resolve(docType, slug string) []Location {
	locations := []Location{}

	rt, ok := r.route(docType)
	if !ok {
		return locations
	}

	if !rt.Collection {
		return append(locations, Location{Title: rt.Title, Href: rt.Path})
	}

	slug = strings.Trim(strings.TrimSpace(slug), "/")
	if slug == "" {
		return locations
	}
	locations = append(locations, Location{Title: rt.Title + ": " + slug, Href: rt.PathFor(slug)})

	// projects are also listed on the projects index
	if docType == schema.TypeProject {
		if index, ok := r.route(schema.TypeProjectsPage); ok {
			locations = append(locations, Location{Title: index.Title, Href: index.Path})
		}
	}
	return locations
}

// RedirectPath picks where a successful preview activation sends the browser.
// A typed locator follows the resolver's primary location; a bare slug maps to
// /<slug>, with "home" and the empty locator mapping to the root.
func (r *Resolver) RedirectPath(loc DocumentLocator) string {
	if loc.Type != "" {
		if locations := r.Resolve(loc.Type, loc.Slug); len(locations) > 0 {
			return locations[0].Href
		}
	}

	slug := strings.Trim(strings.TrimSpace(loc.Slug), "/")
	switch {
	case slug == "" && loc.Type == "":
		return "/"
	case slug == schema.TypeHome || (slug == "" && loc.Type == schema.TypeHome):
		return "/"
	case slug != "":
		return "/" + slug
	default:
		return "/" + loc.Type
	}
}
