package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SANITY_STUDIO_PROJECT_ID", "abc123")
	t.Setenv("SANITY_PREVIEW_SECRET", "s3cret")

	cfg := Load()

	assert.Equal(t, "3000", cfg.App.Port)
	assert.Equal(t, "abc123", cfg.Sanity.ProjectID)
	assert.Equal(t, "production", cfg.Sanity.Dataset)
	assert.Equal(t, "2022-03-07", cfg.Sanity.APIVersion)
	assert.False(t, cfg.Sanity.UseCDN)
	assert.Equal(t, 24*time.Hour, cfg.Preview.CookieMaxAge)
	assert.Equal(t, time.Second, cfg.Preview.DebounceWindow)
	assert.Equal(t, 3, cfg.Preview.ListenMaxRetries)
	assert.Empty(t, cfg.Preview.PlaceholderSecret)
	assert.NoError(t, cfg.Sanity.Validate())
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, "portfolio-be", cfg.Tracing.ServiceName)
	assert.Equal(t, "localhost:4318", cfg.Tracing.Endpoint)
	assert.Equal(t, 1.0, cfg.Tracing.SampleRatio)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SANITY_STUDIO_PROJECT_ID", "abc123")
	t.Setenv("SANITY_USE_CDN", "true")
	t.Setenv("PREVIEW_DEBOUNCE_WINDOW", "250ms")
	t.Setenv("PREVIEW_LISTEN_MAX_RETRIES", "not-a-number")
	t.Setenv("GO_ENV", "production")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_SERVICE_NAME", "site-preview")
	t.Setenv("OTEL_SAMPLE_RATIO", "0.1")

	cfg := Load()

	assert.True(t, cfg.Sanity.UseCDN)
	assert.Equal(t, 250*time.Millisecond, cfg.Preview.DebounceWindow)
	assert.Equal(t, 3, cfg.Preview.ListenMaxRetries)
	assert.True(t, cfg.App.IsProduction())
	assert.True(t, cfg.Preview.CookieSecure)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, "site-preview", cfg.Tracing.ServiceName)
	assert.Equal(t, "production", cfg.Tracing.Environment)
	assert.Equal(t, 0.1, cfg.Tracing.SampleRatio)
}

func TestSanityConfig_Validate(t *testing.T) {
	err := SanityConfig{}.Validate()
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "SANITY_STUDIO_PROJECT_ID")
		assert.Contains(t, err.Error(), "SANITY_DATASET")
	}
}

func TestSanityConfig_StudioRedirectURL(t *testing.T) {
	assert.Equal(t, "https://abc123.sanity.studio/", SanityConfig{ProjectID: "abc123"}.StudioRedirectURL())
	assert.Equal(t, "https://studio.example.com", SanityConfig{ProjectID: "abc123", StudioURL: "https://studio.example.com"}.StudioRedirectURL())
	assert.Empty(t, SanityConfig{}.StudioRedirectURL())
}

func TestPreviewConfig_SigningKey(t *testing.T) {
	assert.Equal(t, "k", PreviewConfig{CookieSigningKey: "k", Secret: "s"}.SigningKey())
	assert.Equal(t, "s", PreviewConfig{Secret: "s", PlaceholderSecret: "p"}.SigningKey())
	assert.Equal(t, "p", PreviewConfig{PlaceholderSecret: "p"}.SigningKey())
	assert.Empty(t, PreviewConfig{}.SigningKey())
}
