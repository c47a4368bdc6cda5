package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const (
	PerspectivePublished     = "published"
	PerspectivePreviewDrafts = "previewDrafts"

	maxResponseSize = 10 * 1024 * 1024
)

// QueryDescriptor identifies the content a page needs. The live listener must
// be opened with the same descriptor the page was rendered from.
type QueryDescriptor struct {
	Query  string                 `json:"query"`
	Params map[string]interface{} `json:"params"`
}

// CacheKey is stable across param map ordering.
func (q QueryDescriptor) CacheKey() string {
	keys := make([]string, 0, len(q.Params))
	for k := range q.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(q.Query)
	for _, k := range keys {
		v, _ := json.Marshal(q.Params[k])
		b.WriteString("|")
		b.WriteString(k)
		b.WriteString("=")
		b.Write(v)
	}
	return b.String()
}

// Config describes one content API client.
type Config struct {
	Name        string
	ProjectID   string
	Dataset     string
	APIVersion  string
	UseCDN      bool
	Token       string
	Perspective string
	// APIHost overrides the derived https://<project>.api.sanity.io host.
	APIHost string
	Timeout time.Duration
	Retry   RetryConfig
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ProjectID) == "" {
		return &ClientUnavailableError{Client: c.Name, Reason: "project id is not configured"}
	}
	if strings.TrimSpace(c.Dataset) == "" {
		return &ClientUnavailableError{Client: c.Name, Reason: "dataset is not configured"}
	}
	return nil
}

// Client is a handle on one content API configuration.
type Client interface {
	Name() string
	Config() Config
	Fetch(ctx context.Context, q QueryDescriptor) (json.RawMessage, error)
	Listen(ctx context.Context, q QueryDescriptor, opts ListenOptions) (<-chan ListenEvent, error)
}

type httpClient struct {
	cfg        Config
	httpClient *http.Client
	// streamClient has no overall timeout; listen connections are long lived.
	streamClient *http.Client
}

// NewClient validates cfg and returns an HTTP backed Client.
func NewClient(cfg Config) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2022-03-07"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Retry == (RetryConfig{}) {
		cfg.Retry = DefaultRetryConfig()
	}

	return &httpClient{
		cfg:          cfg,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		streamClient: &http.Client{},
	}, nil
}

func (c *httpClient) Name() string {
	return c.cfg.Name
}

func (c *httpClient) Config() Config {
	return c.cfg
}

func (c *httpClient) host(forListen bool) string {
	if c.cfg.APIHost != "" {
		return strings.TrimRight(c.cfg.APIHost, "/")
	}
	if c.cfg.UseCDN && !forListen && c.cfg.Token == "" {
		return fmt.Sprintf("https://%s.apicdn.sanity.io", c.cfg.ProjectID)
	}
	return fmt.Sprintf("https://%s.api.sanity.io", c.cfg.ProjectID)
}

func (c *httpClient) endpoint(kind string, q QueryDescriptor, extra url.Values) (string, error) {
	version := c.cfg.APIVersion
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}

	values := url.Values{}
	values.Set("query", q.Query)
	for k, v := range q.Params {
		encoded, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("encode param %q: %w", k, err)
		}
		values.Set("$"+k, string(encoded))
	}
	if c.cfg.Perspective != "" {
		values.Set("perspective", c.cfg.Perspective)
	}
	for k, vs := range extra {
		for _, v := range vs {
			values.Add(k, v)
		}
	}

	return fmt.Sprintf("%s/%s/data/%s/%s?%s",
		c.host(kind == "listen"), version, kind, url.PathEscape(c.cfg.Dataset), values.Encode()), nil
}

func (c *httpClient) newRequest(ctx context.Context, target, accept string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", accept)
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	return req, nil
}

// Fetch runs q and returns the raw "result" member of the response.
func (c *httpClient) Fetch(ctx context.Context, q QueryDescriptor) (json.RawMessage, error) {
	return WithRetry(ctx, c.cfg.Name, c.cfg.Retry, func(ctx context.Context) (json.RawMessage, error) {
		return c.doFetch(ctx, q)
	})
}

func (c *httpClient) doFetch(ctx context.Context, q QueryDescriptor) (json.RawMessage, error) {
	target, err := c.endpoint("query", q, nil)
	if err != nil {
		return nil, &FetchError{Client: c.cfg.Name, Operation: "build query", Err: err}
	}

	req, err := c.newRequest(ctx, target, "application/json")
	if err != nil {
		return nil, &FetchError{Client: c.cfg.Name, Operation: "create request", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newFetchError(c.cfg.Name, "query", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &FetchError{
			Client:     c.cfg.Name,
			Operation:  "query",
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			Retryable:  isRetryableStatus(resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, newFetchError(c.cfg.Name, "read response", err)
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &FetchError{Client: c.cfg.Name, Operation: "decode response", Err: err}
	}
	if len(envelope.Result) == 0 {
		return json.RawMessage("null"), nil
	}
	return envelope.Result, nil
}
