package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"portfolio-be/internal/dto"
	"portfolio-be/internal/pkg/logger"
	"portfolio-be/internal/presentation"
	"portfolio-be/pkg/content"
	"portfolio-be/pkg/content/schema"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var contentTracer = otel.Tracer("portfolio-be/content")

type IContentService interface {
	// PageDescriptor returns the route and query a page is rendered from.
	PageDescriptor(key, slug string) (presentation.Route, content.QueryDescriptor, error)
	// LoadPage fetches and decodes a page. Content API failures are logged and
	// produce a response with nil Data; only an unknown page is an error.
	LoadPage(ctx context.Context, key, slug string, isPreview bool) (*dto.PageResponse, error)
	// FetchPage is the raw fetch used by the live channel's refetch.
	FetchPage(ctx context.Context, route presentation.Route, q content.QueryDescriptor, isPreview bool) (json.RawMessage, error)
}

type contentService struct {
	selector *content.Selector
	logger   logger.ILogger
}

func NewContentService(selector *content.Selector, log logger.ILogger) IContentService {
	return &contentService{selector: selector, logger: log}
}

func (s *contentService) PageDescriptor(key, slug string) (presentation.Route, content.QueryDescriptor, error) {
	route, ok := presentation.RouteByKey(key)
	if !ok {
		return presentation.Route{}, content.QueryDescriptor{}, ErrUnknownPage
	}
	slug = strings.Trim(strings.TrimSpace(slug), "/")
	if route.Collection && slug == "" {
		return presentation.Route{}, content.QueryDescriptor{}, ErrSlugRequired
	}
	return route, route.Descriptor(slug), nil
}

func (s *contentService) LoadPage(ctx context.Context, key, slug string, isPreview bool) (*dto.PageResponse, error) {
	route, q, err := s.PageDescriptor(key, slug)
	if err != nil {
		return nil, err
	}

	res := &dto.PageResponse{
		Preview: isPreview,
		Query:   q.Query,
		Params:  q.Params,
	}

	raw, err := s.FetchPage(ctx, route, q, isPreview)
	if err != nil {
		return res, nil
	}

	doc, err := schema.DecodeAs(raw, route.DocumentType)
	if err != nil {
		if !errors.Is(err, schema.ErrEmpty) {
			s.logger.Warn("CONTENT", "Discarding page document", map[string]interface{}{
				"page":    key,
				"slug":    slug,
				"preview": isPreview,
				"error":   err.Error(),
			})
		}
		return res, nil
	}

	res.Data = doc
	return res, nil
}

func (s *contentService) FetchPage(ctx context.Context, route presentation.Route, q content.QueryDescriptor, isPreview bool) (json.RawMessage, error) {
	ctx, span := contentTracer.Start(ctx, "content.FetchPage")
	defer span.End()
	span.SetAttributes(
		attribute.String("page.key", route.Key),
		attribute.Bool("preview", isPreview),
	)

	client, err := s.selector.GetClient(isPreview)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "client unavailable")
		s.logger.Error("CONTENT", "Content client unavailable", map[string]interface{}{
			"page":    route.Key,
			"preview": isPreview,
			"error":   err.Error(),
		})
		return nil, err
	}

	raw, err := client.Fetch(ctx, q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		s.logger.Error("CONTENT", "Content fetch failed", map[string]interface{}{
			"page":    route.Key,
			"client":  client.Name(),
			"preview": isPreview,
			"error":   err.Error(),
		})
		return nil, err
	}
	return raw, nil
}
