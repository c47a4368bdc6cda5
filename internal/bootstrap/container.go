package bootstrap

import (
	"context"
	"log"

	"portfolio-be/internal/config"
	"portfolio-be/internal/controller"
	"portfolio-be/internal/handler"
	"portfolio-be/internal/pkg/logger"
	"portfolio-be/internal/presentation"
	"portfolio-be/internal/service"
	"portfolio-be/internal/websocket"
	"portfolio-be/pkg/content"
	pktNats "portfolio-be/pkg/nats"
	"portfolio-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	Logger   logger.ILogger
	Sessions store.SessionStore

	// Controllers
	PreviewController      controller.IPreviewController
	StudioController       controller.IStudioController
	ContentController      controller.IContentController
	PresentationController controller.IPresentationController
	WebhookController      controller.IWebhookController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	SiteStore       service.ISiteStore
	LiveSubscriber  service.ILiveSubscriber

	// WebSockets
	LiveHandler  *handler.LiveHandler
	WebSocketHub *websocket.Hub

	NatsSubscriber *pktNats.Subscriber
	closers        []func()
}

// ContentConfigs derives the published and preview client settings.
func ContentConfigs(cfg config.SanityConfig) (published, preview content.Config) {
	published = content.Config{
		Name:        "published",
		ProjectID:   cfg.ProjectID,
		Dataset:     cfg.Dataset,
		APIVersion:  cfg.APIVersion,
		UseCDN:      cfg.UseCDN,
		Perspective: content.PerspectivePublished,
		APIHost:     cfg.APIHost,
	}
	preview = content.Config{
		Name:        "preview",
		ProjectID:   cfg.ProjectID,
		Dataset:     cfg.Dataset,
		APIVersion:  cfg.APIVersion,
		Token:       cfg.ReadToken,
		Perspective: content.PerspectivePreviewDrafts,
		APIHost:     cfg.APIHost,
	}
	return published, preview
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.IsProduction())
	liveLogger := logger.NewIsolatedLogger(cfg.App.LiveLogFilePath)
	instanceID := uuid.NewString()

	if err := cfg.Sanity.Validate(); err != nil {
		sysLogger.Error("BOOT", "Content API misconfigured, pages will render without data", map[string]interface{}{"error": err.Error()})
	}
	if cfg.Sanity.ReadToken == "" {
		sysLogger.Warn("BOOT", "SANITY_API_READ_TOKEN is not set, preview mode cannot read drafts", nil)
	}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Infrastructure
	var (
		natsPub  *pktNats.Publisher
		natsSub  *pktNats.Subscriber
		eventPub service.IEventPublisher
		closers  []func()
	)
	if cfg.App.NatsURL != "" {
		var err error
		natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			eventPub = natsPub
			closers = append(closers, natsPub.Close)
		}
		natsSub, err = pktNats.NewSubscriber(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
			natsSub = nil
		} else {
			closers = append(closers, natsSub.Close)
		}
	}

	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v (continuing without shared cache)", err)
			_ = rdb.Close()
			rdb = nil
		} else {
			closers = append(closers, func() { _ = rdb.Close() })
		}
	}

	// 4. Content
	publishedCfg, previewCfg := ContentConfigs(cfg.Sanity)
	var cached *content.CachedClient
	selector := content.NewSelector(publishedCfg, previewCfg, func(c content.Client) content.Client {
		cached = content.NewCachedClient(c, rdb, cfg.Cache.PublishedTTL)
		return cached
	})

	routes := presentation.Routes
	resolver := presentation.NewResolver(routes)
	sessions := store.NewCookieSessionStore(cfg.Preview.SigningKey(),
		store.WithMaxAge(cfg.Preview.CookieMaxAge),
		store.WithSecure(cfg.Preview.CookieSecure),
	)

	// 5. Services
	siteStore := service.NewSiteStore(selector, sysLogger)
	contentService := service.NewContentService(selector, sysLogger)
	previewService := service.NewPreviewService(cfg.Preview, resolver, eventPub, sysLogger)
	liveSubscriber := service.NewLiveSubscriber(selector, service.LiveConfig{
		DebounceWindow: cfg.Preview.DebounceWindow,
		MaxRetries:     cfg.Preview.ListenMaxRetries,
		RetryDelay:     cfg.Preview.ListenRetryDelay,
	}, liveLogger)
	webhookService := service.NewWebhookService(cfg.Webhook.Secret, instanceID, pubSub, eventPub, sysLogger)

	var invalidator service.CacheInvalidator
	if cached != nil {
		invalidator = cached
	}
	consumerService := service.NewConsumerService(pubSub, pubSub, instanceID, invalidator, siteStore, sysLogger)

	// 6. WebSocket Hub
	wsHub := websocket.NewHub(rdb, liveLogger)
	liveHandler := handler.NewLiveHandler(contentService, liveSubscriber, sessions, wsHub, liveLogger)

	closers = append(closers, func() { _ = pubSub.Close() })

	// 7. Controllers
	return &Container{
		Logger:   sysLogger,
		Sessions: sessions,

		PreviewController:      controller.NewPreviewController(previewService, sessions, wsHub, sysLogger),
		StudioController:       controller.NewStudioController(cfg.Sanity.StudioRedirectURL()),
		ContentController:      controller.NewContentController(contentService, siteStore),
		PresentationController: controller.NewPresentationController(resolver),
		WebhookController:      controller.NewWebhookController(webhookService),

		ConsumerService: consumerService,
		SiteStore:       siteStore,
		LiveSubscriber:  liveSubscriber,

		LiveHandler:  liveHandler,
		WebSocketHub: wsHub,

		NatsSubscriber: natsSub,
		closers:        closers,
	}
}

// Close releases the connections opened by NewContainer.
func (c *Container) Close() {
	c.LiveSubscriber.CloseAll()
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
