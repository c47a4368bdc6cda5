package service

import (
	"context"
	"testing"

	"portfolio-be/internal/pkg/logger"
	"portfolio-be/internal/presentation"
	"portfolio-be/pkg/content"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSiteStore_InitializeLoadsOnce(t *testing.T) {
	published := newFakeClient("published")
	published.setResult(presentation.SiteSettingsQuery, `{"_id":"site","_type":"site","siteName":"Studio","headerTitle":"Hi","generalEmail":"hello@example.com"}`)
	store := NewSiteStore(content.NewSelectorFromClients(published, newFakeClient("preview")), logger.NewNopLogger())

	before := store.Settings()
	assert.False(t, before.Loaded)
	assert.Nil(t, before.RefreshedAt)
	assert.Len(t, before.SiteNav, 3)

	require.NoError(t, store.Initialize(context.Background()))
	require.NoError(t, store.Initialize(context.Background()))
	assert.Equal(t, 1, published.fetchCount())

	settings := store.Settings()
	assert.True(t, settings.Loaded)
	assert.Equal(t, "Studio", settings.SiteName)
	assert.Equal(t, "Hi", settings.HeaderTitle)
	assert.Equal(t, "hello@example.com", settings.GeneralEmail)
	assert.NotNil(t, settings.RefreshedAt)
	assert.Equal(t, "work", settings.SiteNav[0].Id)
}

func TestSiteStore_RefreshKeepsPreviousOnFailure(t *testing.T) {
	published := newFakeClient("published")
	published.setResult(presentation.SiteSettingsQuery, `{"_id":"site","_type":"site","siteName":"First"}`)
	store := NewSiteStore(content.NewSelectorFromClients(published, nil), logger.NewNopLogger())
	require.NoError(t, store.Refresh(context.Background()))

	published.mu.Lock()
	published.fetchErr = &content.FetchError{Client: "published", Operation: "query", StatusCode: 500}
	published.mu.Unlock()

	assert.Error(t, store.Refresh(context.Background()))
	assert.Equal(t, "First", store.Settings().SiteName)

	published.mu.Lock()
	published.fetchErr = nil
	published.mu.Unlock()
	published.setResult(presentation.SiteSettingsQuery, `{"_id":"site","_type":"site","siteName":"Second"}`)

	require.NoError(t, store.Refresh(context.Background()))
	assert.Equal(t, "Second", store.Settings().SiteName)
}

func TestSiteStore_MissingDocumentAndMisconfiguration(t *testing.T) {
	empty := NewSiteStore(content.NewSelectorFromClients(newFakeClient("published"), nil), logger.NewNopLogger())
	require.NoError(t, empty.Initialize(context.Background()))
	assert.False(t, empty.Settings().Loaded)
	assert.NotNil(t, empty.Settings().RefreshedAt)

	broken := NewSiteStore(content.NewSelectorFromClients(nil, nil), logger.NewNopLogger())
	var unavailable *content.ClientUnavailableError
	assert.ErrorAs(t, broken.Initialize(context.Background()), &unavailable)
}
