package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"portfolio-be/internal/dto"
	"portfolio-be/internal/pkg/logger"
	"portfolio-be/internal/presentation"
	"portfolio-be/pkg/content"
	"portfolio-be/pkg/content/schema"
)

// defaultSiteNav are the anchors the header menu links to.
var defaultSiteNav = []dto.SiteNavItem{
	{Id: "work", Label: "Work"},
	{Id: "capabilities", Label: "Capabilities"},
	{Id: "leadership", Label: "Leadership"},
}

// ISiteStore holds the published site settings. It is built once at boot and
// passed to whoever needs it.
type ISiteStore interface {
	// Initialize loads the settings once. Later calls are no-ops.
	Initialize(ctx context.Context) error
	// Refresh reloads the settings. On failure the previous settings are kept.
	Refresh(ctx context.Context) error
	Settings() *dto.SiteSettingsResponse
}

type siteStore struct {
	selector *content.Selector
	logger   logger.ILogger
	now      func() time.Time

	mu          sync.RWMutex
	site        *schema.Site
	initialized bool
	refreshedAt time.Time
}

func NewSiteStore(selector *content.Selector, log logger.ILogger) ISiteStore {
	return &siteStore{
		selector: selector,
		logger:   log,
		now:      time.Now,
	}
}

func (s *siteStore) Initialize(ctx context.Context) error {
	s.mu.RLock()
	done := s.initialized
	s.mu.RUnlock()
	if done {
		return nil
	}
	return s.Refresh(ctx)
}

func (s *siteStore) Refresh(ctx context.Context) error {
	client, err := s.selector.GetClient(false)
	if err != nil {
		return err
	}

	raw, err := client.Fetch(ctx, content.QueryDescriptor{Query: presentation.SiteSettingsQuery})
	if err != nil {
		return fmt.Errorf("fetch site settings: %w", err)
	}

	var site *schema.Site
	doc, err := schema.DecodeAs(raw, schema.TypeSite)
	switch {
	case errors.Is(err, schema.ErrEmpty):
		s.logger.Warn("SITE", "No site settings document published", nil)
	case err != nil:
		return fmt.Errorf("decode site settings: %w", err)
	default:
		site = doc.(*schema.Site)
	}

	s.mu.Lock()
	s.site = site
	s.initialized = true
	s.refreshedAt = s.now()
	s.mu.Unlock()

	s.logger.Info("SITE", "Site settings refreshed", map[string]interface{}{"found": site != nil})
	return nil
}

func (s *siteStore) Settings() *dto.SiteSettingsResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nav := make([]dto.SiteNavItem, len(defaultSiteNav))
	copy(nav, defaultSiteNav)

	res := &dto.SiteSettingsResponse{
		Loaded:  s.site != nil,
		SiteNav: nav,
	}
	if s.initialized {
		at := s.refreshedAt
		res.RefreshedAt = &at
	}
	if s.site != nil {
		res.SiteName = s.site.SiteName
		res.HeaderTitle = s.site.HeaderTitle
		res.FooterTitle = s.site.FooterTitle
		res.GeneralLabel = s.site.GeneralLabel
		res.BusinessLabel = s.site.BusinessLabel
		res.GeneralEmail = s.site.GeneralEmail
		res.Address = s.site.Address
		res.AddressLink = s.site.AddressLink
	}
	return res
}
