package content

// Selector hands out one of two preconfigured clients based on whether the
// caller's session is in preview mode. Both clients are built once and are
// safe for concurrent use.
type Selector struct {
	published    Client
	preview      Client
	publishedErr error
	previewErr   error
}

// NewSelector builds the published and preview clients. A missing project or
// dataset does not fail construction; it is reported by every GetClient call
// for the affected mode instead. decorate, when non-nil, wraps the published
// client (used for caching).
func NewSelector(publishedCfg, previewCfg Config, decorate func(Client) Client) *Selector {
	s := &Selector{}

	s.published, s.publishedErr = NewClient(publishedCfg)
	if s.publishedErr == nil && decorate != nil {
		s.published = decorate(s.published)
	}
	s.preview, s.previewErr = NewClient(previewCfg)

	return s
}

// NewSelectorFromClients is used when the clients are built elsewhere.
func NewSelectorFromClients(published, preview Client) *Selector {
	s := &Selector{published: published, preview: preview}
	if published == nil {
		s.publishedErr = &ClientUnavailableError{Client: "published", Reason: "client is not configured"}
	}
	if preview == nil {
		s.previewErr = &ClientUnavailableError{Client: "preview", Reason: "client is not configured"}
	}
	return s
}

// GetClient returns the preview client when isPreview is set, otherwise the
// published client.
func (s *Selector) GetClient(isPreview bool) (Client, error) {
	if isPreview {
		if s.previewErr != nil {
			return nil, s.previewErr
		}
		return s.preview, nil
	}
	if s.publishedErr != nil {
		return nil, s.publishedErr
	}
	return s.published, nil
}
