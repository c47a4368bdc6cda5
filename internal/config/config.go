package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Sanity  SanityConfig
	Preview PreviewConfig
	Cache   CacheConfig
	Webhook WebhookConfig
	Tracing TracingConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	LiveLogFilePath    string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type SanityConfig struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	UseCDN     bool
	ReadToken  string // required for draft reads
	StudioURL  string // overrides https://<project>.sanity.studio/
	APIHost    string // overrides the derived API host (local mocks)
}

type PreviewConfig struct {
	Secret string
	// PlaceholderSecret is accepted in addition to Secret when non-empty.
	// Leave unset unless the studio's presentation handshake needs it.
	PlaceholderSecret string
	CookieSigningKey  string
	CookieMaxAge      time.Duration
	CookieSecure      bool
	DebounceWindow    time.Duration
	ListenMaxRetries  int
	ListenRetryDelay  time.Duration
}

type CacheConfig struct {
	PublishedTTL time.Duration
}

type WebhookConfig struct {
	Secret string
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string // OTLP HTTP host:port
	ServiceName string
	Environment string
	SampleRatio float64
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	env := getEnv("GO_ENV", "development")

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        env,
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			LiveLogFilePath:    getEnv("LIVE_LOG_FILE_PATH", "logs/live-preview.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
		},
		Sanity: SanityConfig{
			ProjectID:  getEnv("SANITY_STUDIO_PROJECT_ID", ""),
			Dataset:    getEnv("SANITY_DATASET", "production"),
			APIVersion: getEnv("SANITY_API_VERSION", "2022-03-07"),
			UseCDN:     getEnvAsBool("SANITY_USE_CDN", false),
			ReadToken:  getEnv("SANITY_API_READ_TOKEN", ""),
			StudioURL:  getEnv("SANITY_STUDIO_URL", ""),
			APIHost:    getEnv("SANITY_API_HOST", ""),
		},
		Preview: PreviewConfig{
			Secret:            getEnv("SANITY_PREVIEW_SECRET", ""),
			PlaceholderSecret: getEnv("SANITY_PREVIEW_PLACEHOLDER_SECRET", ""),
			CookieSigningKey:  getEnv("PREVIEW_COOKIE_SIGNING_KEY", ""),
			CookieMaxAge:      getEnvAsDuration("PREVIEW_COOKIE_MAX_AGE", 24*time.Hour),
			CookieSecure:      getEnvAsBool("PREVIEW_COOKIE_SECURE", env == "production"),
			DebounceWindow:    getEnvAsDuration("PREVIEW_DEBOUNCE_WINDOW", time.Second),
			ListenMaxRetries:  getEnvAsInt("PREVIEW_LISTEN_MAX_RETRIES", 3),
			ListenRetryDelay:  getEnvAsDuration("PREVIEW_LISTEN_RETRY_DELAY", 500*time.Millisecond),
		},
		Cache: CacheConfig{
			PublishedTTL: getEnvAsDuration("PUBLISHED_CACHE_TTL", time.Minute),
		},
		Webhook: WebhookConfig{
			Secret: getEnv("CONTENT_WEBHOOK_SECRET", ""),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "portfolio-be"),
			Environment: env,
			SampleRatio: getEnvAsFloat("OTEL_SAMPLE_RATIO", 1),
		},
	}
}

// Validate reports the content API settings that are missing.
func (c SanityConfig) Validate() error {
	var missing []string
	if strings.TrimSpace(c.ProjectID) == "" {
		missing = append(missing, "SANITY_STUDIO_PROJECT_ID")
	}
	if strings.TrimSpace(c.Dataset) == "" {
		missing = append(missing, "SANITY_DATASET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("content API is not configured: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// StudioRedirectURL is where GET /studio sends editors.
func (c SanityConfig) StudioRedirectURL() string {
	if c.StudioURL != "" {
		return c.StudioURL
	}
	if c.ProjectID == "" {
		return ""
	}
	return fmt.Sprintf("https://%s.sanity.studio/", c.ProjectID)
}

// SigningKey is the key used for the preview cookie. It falls back to the
// preview secret so a minimal deployment only configures one value.
func (c PreviewConfig) SigningKey() string {
	for _, k := range []string{c.CookieSigningKey, c.Secret, c.PlaceholderSecret} {
		if k != "" {
			return k
		}
	}
	return ""
}

func (c AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
