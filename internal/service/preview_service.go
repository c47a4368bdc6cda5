package service

import (
	"context"
	"crypto/subtle"
	"net/url"
	"strings"
	"unicode"

	"portfolio-be/internal/config"
	"portfolio-be/internal/dto"
	"portfolio-be/internal/pkg/logger"
	"portfolio-be/internal/presentation"
	"portfolio-be/pkg/events"
)

type IPreviewService interface {
	// Activate validates the secret and returns where to send the browser.
	// It never touches the session; the caller sets the cookie on success.
	Activate(ctx context.Context, req *dto.PreviewActivateRequest) (*dto.PreviewActivateResponse, error)
	Deactivate(ctx context.Context) *dto.PreviewDisableResponse
}

type previewService struct {
	secrets   []string
	resolver  *presentation.Resolver
	publisher IEventPublisher
	logger    logger.ILogger
}

func NewPreviewService(cfg config.PreviewConfig, resolver *presentation.Resolver, publisher IEventPublisher, log logger.ILogger) IPreviewService {
	var secrets []string
	if cfg.Secret != "" {
		secrets = append(secrets, cfg.Secret)
	}
	if cfg.PlaceholderSecret != "" {
		log.Warn("PREVIEW", "Placeholder preview secret is enabled; anyone who knows it can enter preview mode", nil)
		secrets = append(secrets, cfg.PlaceholderSecret)
	}

	return &previewService{
		secrets:   secrets,
		resolver:  resolver,
		publisher: publisher,
		logger:    log,
	}
}

func (s *previewService) secretMatches(candidate string) bool {
	matched := false
	for _, secret := range s.secrets {
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(secret)) == 1 {
			matched = true
		}
	}
	return matched
}

func (s *previewService) Activate(ctx context.Context, req *dto.PreviewActivateRequest) (*dto.PreviewActivateResponse, error) {
	if req == nil || req.Secret == "" {
		s.logger.Warn("PREVIEW", "Activation rejected", map[string]interface{}{"reason": "missing secret"})
		return nil, ErrMissingSecret
	}
	if !s.secretMatches(req.Secret) {
		s.logger.Warn("PREVIEW", "Activation rejected", map[string]interface{}{
			"reason": "invalid secret",
			"ip":     req.ClientIP,
		})
		return nil, ErrInvalidSecret
	}

	redirect := s.redirectPath(req)

	s.logger.Info("PREVIEW", "Preview mode activated", map[string]interface{}{
		"redirect": redirect,
		"type":     req.Type,
		"slug":     req.Slug,
	})
	publishBestEffort(ctx, s.publisher, s.logger, "PREVIEW", events.New(events.PreviewActivated, map[string]interface{}{
		"redirect": redirect,
		"type":     req.Type,
		"slug":     req.Slug,
		"ip":       req.ClientIP,
	}))

	return &dto.PreviewActivateResponse{RedirectPath: redirect}, nil
}

// redirectPath prefers the pathname sent by the authoring tool. Only
// site-relative paths are followed so the endpoint cannot be used as an open
// redirect.
func (s *previewService) redirectPath(req *dto.PreviewActivateRequest) string {
	if p := strings.TrimSpace(req.Pathname); isSiteRelative(p) {
		return p
	}
	return s.resolver.RedirectPath(presentation.DocumentLocator{Type: req.Type, Slug: req.Slug})
}

// isSiteRelative accepts a plain path on this site. Browsers drop tabs and
// newlines from URLs, so "/\t/host" would become "//host"; any whitespace or
// control character is rejected.
func isSiteRelative(p string) bool {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") {
		return false
	}
	for _, r := range p {
		if r == '\\' || unicode.IsSpace(r) || unicode.IsControl(r) {
			return false
		}
	}
	u, err := url.Parse(p)
	return err == nil && u.Scheme == "" && u.Host == ""
}

func (s *previewService) Deactivate(ctx context.Context) *dto.PreviewDisableResponse {
	s.logger.Info("PREVIEW", "Preview mode disabled", nil)
	publishBestEffort(ctx, s.publisher, s.logger, "PREVIEW", events.New(events.PreviewDisabled, nil))
	return &dto.PreviewDisableResponse{Success: true}
}
