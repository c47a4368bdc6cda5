package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"portfolio-be/internal/config"
	"portfolio-be/internal/dto"
	"portfolio-be/internal/pkg/logger"
	"portfolio-be/internal/pkg/serverutils"
	"portfolio-be/internal/presentation"
	"portfolio-be/internal/service"
	"portfolio-be/pkg/content"
	"portfolio-be/pkg/store"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	name   string
	result string
}

func (s *stubClient) Name() string           { return s.name }
func (s *stubClient) Config() content.Config { return content.Config{Name: s.name} }
func (s *stubClient) Fetch(ctx context.Context, q content.QueryDescriptor) (json.RawMessage, error) {
	return json.RawMessage(s.result), nil
}
func (s *stubClient) Listen(ctx context.Context, q content.QueryDescriptor, opts content.ListenOptions) (<-chan content.ListenEvent, error) {
	ch := make(chan content.ListenEvent)
	close(ch)
	return ch, nil
}

type endedSessions struct {
	mu  sync.Mutex
	ids []string
}

func (e *endedSessions) EndSession(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ids = append(e.ids, id)
}

type testEnv struct {
	app      *fiber.App
	sessions *store.CookieSessionStore
	ended    *endedSessions
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.NewNopLogger()
	sessions := store.NewCookieSessionStore("cookie-key")
	resolver := presentation.NewResolver(presentation.Routes)
	ended := &endedSessions{}

	selector := content.NewSelectorFromClients(
		&stubClient{name: "published", result: `{"_id":"home","_type":"home","heroTitle":"Published"}`},
		&stubClient{name: "preview", result: `{"_id":"drafts.home","_type":"home","heroTitle":"Draft"}`},
	)

	app := fiber.New(fiber.Config{ErrorHandler: serverutils.ErrorHandler})
	app.Use(serverutils.SessionMiddleware(sessions))

	NewStudioController("https://abc123.sanity.studio/").RegisterRoutes(app)
	api := app.Group("/api")
	NewPreviewController(
		service.NewPreviewService(config.PreviewConfig{Secret: "abc"}, resolver, nil, log),
		sessions, ended, log,
	).RegisterRoutes(api)
	NewContentController(service.NewContentService(selector, log), service.NewSiteStore(selector, log)).RegisterRoutes(api)
	NewPresentationController(resolver).RegisterRoutes(api)

	return &testEnv{app: app, sessions: sessions, ended: ended}
}

func (e *testEnv) do(t *testing.T, method, target, cookie string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if cookie != "" {
		req.Header.Set("Cookie", "preview="+cookie)
	}
	resp, err := e.app.Test(req)
	require.NoError(t, err)
	return resp
}

func previewCookie(resp *http.Response) (*http.Cookie, bool) {
	for _, c := range resp.Cookies() {
		if c.Name == "preview" {
			return c, true
		}
	}
	return nil, false
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, v), string(body))
}

func TestPreview_ActivateWithSlugHome(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/preview?secret=abc&slug=home", "")
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	cookie, ok := previewCookie(resp)
	require.True(t, ok)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 86400, cookie.MaxAge)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

	var status dto.PreviewStatusResponse
	decode(t, env.do(t, http.MethodGet, "/api/preview/status", cookie.Value), &status)
	assert.True(t, status.Preview)
}

func TestPreview_ActivateRedirectTargets(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		query string
		want  string
	}{
		{query: "secret=abc", want: "/"},
		{query: "secret=abc&slug=contact", want: "/contact"},
		{query: "secret=abc&type=project&slug=acme-rebrand", want: "/acme-rebrand"},
		{query: "secret=abc&sanity-preview-pathname=" + url.QueryEscape("/projects"), want: "/projects"},
		{query: "secret=abc&slug=about&sanity-preview-pathname=%2F%09%2Fevil.example", want: "/about"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp := env.do(t, http.MethodGet, "/api/preview?"+tt.query, "")
			assert.Equal(t, fiber.StatusFound, resp.StatusCode)
			assert.Equal(t, tt.want, resp.Header.Get("Location"))
		})
	}
}

func TestPreview_ActivatePostForm(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/preview", strings.NewReader("secret=abc&slug=about"))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	resp, err := env.app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/about", resp.Header.Get("Location"))
	_, ok := previewCookie(resp)
	assert.True(t, ok)
}

func TestPreview_ActivateRejects(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name    string
		query   string
		message string
	}{
		{name: "wrong secret", query: "secret=wrong&slug=home", message: "Invalid secret"},
		{name: "missing secret", query: "slug=home", message: "Missing secret"},
		{name: "empty secret", query: "secret=", message: "Missing secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodGet, "/api/preview?"+tt.query, "")
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
			_, ok := previewCookie(resp)
			assert.False(t, ok, "no cookie on failure")
			assert.Empty(t, resp.Header.Get("Set-Cookie"))

			var body struct {
				StatusCode int    `json:"statusCode"`
				Message    string `json:"message"`
			}
			decode(t, resp, &body)
			assert.Equal(t, 401, body.StatusCode)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestPreview_DisableIsIdempotent(t *testing.T) {
	env := newTestEnv(t)

	activated := env.do(t, http.MethodGet, "/api/preview?secret=abc", "")
	cookie, ok := previewCookie(activated)
	require.True(t, ok)
	sessionID := func() string {
		app := fiber.New()
		app.Get("/", func(c *fiber.Ctx) error { return c.SendString(env.sessions.SessionID(c)) })
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Cookie", "preview="+cookie.Value)
		resp, err := app.Test(req)
		require.NoError(t, err)
		b, _ := io.ReadAll(resp.Body)
		return string(b)
	}()
	require.NotEmpty(t, sessionID)

	for _, tc := range []struct {
		method string
		cookie string
	}{
		{http.MethodGet, cookie.Value},
		{http.MethodPost, ""},
		{http.MethodGet, ""},
	} {
		resp := env.do(t, tc.method, "/api/disable-preview", tc.cookie)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Contains(t, strings.ToLower(resp.Header.Get("Set-Cookie")), "expires=thu, 01 jan 1970")

		var body dto.PreviewDisableResponse
		decode(t, resp, &body)
		assert.True(t, body.Success)
	}

	assert.Equal(t, []string{sessionID, "", ""}, env.ended.ids)
}

func TestPages_ServeClientBySession(t *testing.T) {
	env := newTestEnv(t)

	var published dto.PageResponse
	decode(t, env.do(t, http.MethodGet, "/api/pages/home", ""), &published)
	assert.False(t, published.Preview)
	assert.Equal(t, "Published", published.Data.(map[string]interface{})["heroTitle"])

	// the legacy query flag does not grant draft access
	var flagged dto.PageResponse
	decode(t, env.do(t, http.MethodGet, "/api/pages/home?preview=true", ""), &flagged)
	assert.False(t, flagged.Preview)

	cookie, _ := previewCookie(env.do(t, http.MethodGet, "/api/preview?secret=abc", ""))
	resp := env.do(t, http.MethodGet, "/api/pages/home", cookie.Value)
	assert.Equal(t, "private, no-store", resp.Header.Get("Cache-Control"))

	var draft dto.PageResponse
	decode(t, resp, &draft)
	assert.True(t, draft.Preview)
	assert.Equal(t, "Draft", draft.Data.(map[string]interface{})["heroTitle"])
}

func TestPages_Errors(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, fiber.StatusNotFound, env.do(t, http.MethodGet, "/api/pages/nope", "").StatusCode)
	assert.Equal(t, fiber.StatusBadRequest, env.do(t, http.MethodGet, "/api/pages/project", "").StatusCode)

	// the stub returns a home document for every query, which is the wrong type here
	var res dto.PageResponse
	decode(t, env.do(t, http.MethodGet, "/api/pages/projects/acme-rebrand", ""), &res)
	assert.Nil(t, res.Data)
	assert.Equal(t, "acme-rebrand", res.Params["slug"])
}

func TestStudio_Redirect(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/studio", "")
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://abc123.sanity.studio/", resp.Header.Get("Location"))

	app := fiber.New()
	NewStudioController("").RegisterRoutes(app)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/studio", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestPresentation_Locations(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		query string
		want  []string
	}{
		{query: "type=home", want: []string{"/"}},
		{query: "type=project&slug=acme-rebrand", want: []string{"/acme-rebrand", "/projects"}},
		{query: "type=unknownType", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var res dto.LocationsResponse
			decode(t, env.do(t, http.MethodGet, "/api/presentation/locations?"+tt.query, ""), &res)
			hrefs := []string{}
			for _, loc := range res.Locations {
				hrefs = append(hrefs, loc.Href)
			}
			assert.Equal(t, tt.want, hrefs)
		})
	}

	assert.Equal(t, fiber.StatusBadRequest, env.do(t, http.MethodGet, "/api/presentation/locations", "").StatusCode)
}
