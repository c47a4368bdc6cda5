package presentation

import (
	"fmt"
	"net/url"
	"strings"
)

// ActivationURL builds the preview activation link for path. The link embeds
// the secret and must only be handed to editors.
func ActivationURL(baseURL, secret, path string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("preview secret is not configured")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/api/preview")
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid base url %q", baseURL)
	}

	q := url.Values{}
	q.Set("secret", secret)
	q.Set("sanity-preview-pathname", path)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
