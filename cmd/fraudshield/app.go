package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/timeout"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/richxcame/fraudshield/internal/community"
	"github.com/richxcame/fraudshield/internal/notifications"
	"github.com/richxcame/fraudshield/internal/providers"
	"github.com/richxcame/fraudshield/internal/risk"
	"github.com/richxcame/fraudshield/pkg/common"
	"github.com/richxcame/fraudshield/pkg/config"
	"github.com/richxcame/fraudshield/pkg/database"
	"github.com/richxcame/fraudshield/pkg/eventbus"
	"github.com/richxcame/fraudshield/pkg/health"
	"github.com/richxcame/fraudshield/pkg/jwtkeys"
	"github.com/richxcame/fraudshield/pkg/logger"
	"github.com/richxcame/fraudshield/pkg/middleware"
	"github.com/richxcame/fraudshield/pkg/ratelimit"
	"github.com/richxcame/fraudshield/pkg/redis"
	"github.com/richxcame/fraudshield/pkg/resilience"
	"github.com/richxcame/fraudshield/pkg/secrets"
	"github.com/richxcame/fraudshield/pkg/storage"
	"github.com/richxcame/fraudshield/pkg/tracing"
	"go.uber.org/zap"
)

// app holds the wired services of one process
type app struct {
	cfg       *config.Config
	jwt       jwtkeys.KeyProvider
	limiter   *ratelimit.Limiter
	bus       eventbus.Bus
	community *community.Service
	alerts    *notifications.AlertService
	providers *providers.Set
	checks    map[string]func() error
	closers   []func()
}

// newApp connects the configured backends and wires the services
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, checks: make(map[string]func() error)}
	if err := a.wire(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context) error {
	cfg := a.cfg

	jwtProvider, err := jwtkeys.NewProviderFromConfig(ctx, cfg.JWT, cfg.Secrets)
	if err != nil {
		return fmt.Errorf("jwt keys: %w", err)
	}
	a.jwt = jwtProvider

	// Stores
	var (
		communityRepo community.Repository
		alertRepo     notifications.Repository
	)
	switch cfg.Server.StoreDriver {
	case "memory":
		communityRepo = community.NewMemoryRepository()
		alertRepo = notifications.NewMemoryRepository()
		logger.Warn("using in-memory store, data is lost on restart")
	default:
		pool, err := database.NewPostgresPool(ctx, &cfg.Database)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		a.closers = append(a.closers, func() { database.Close(pool) })
		a.checks["database"] = health.PoolChecker(pool)
		communityRepo = community.NewPostgresRepository(pool)
		alertRepo = notifications.NewPostgresRepository(pool)
	}

	// Redis is optional: without it the cache stays in-process and rate limiting is off
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewRedisClient(&cfg.Redis)
		if err != nil {
			logger.Warn("redis unavailable, continuing without shared cache", zap.Error(err))
			redisClient = nil
		} else {
			a.closers = append(a.closers, func() { _ = redisClient.Close() })
			a.checks["redis"] = health.RedisChecker(redisClient.Client)
			a.limiter = ratelimit.NewLimiter(redisClient.Client, cfg.RateLimit)
		}
	}

	// Event bus
	if cfg.NATS.Enabled {
		bus, err := eventbus.Connect(cfg.NATS, cfg.Server.ServiceName)
		if err != nil {
			return fmt.Errorf("connect to nats: %w", err)
		}
		a.checks["nats"] = bus.Ping
		a.bus = bus
	} else {
		a.bus = eventbus.NewLocalBus()
	}
	a.closers = append(a.closers, func() { _ = a.bus.Close() })

	// Community trust
	svc := community.NewService(communityRepo, risk.NewAssessor(cfg.Risk.ReferenceDomains))
	svc.SetCache(community.NewLookupCache(time.Duration(cfg.Redis.TrustCacheTTL)*time.Second, redisClient))
	svc.SetEventPublisher(a.bus)

	maxEvidence := int64(cfg.Storage.MaxFileSizeMB) << 20
	switch {
	case cfg.Storage.Enabled:
		s3, err := storage.NewS3Storage(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("evidence storage: %w", err)
		}
		svc.SetEvidenceStorage(s3, maxEvidence)
	case cfg.Server.StoreDriver == "memory":
		svc.SetEvidenceStorage(storage.NewMemoryStorage(cfg.Storage.BaseURL), maxEvidence)
	}
	a.community = svc

	// Verification providers
	sm, err := secrets.NewManager(ctx, cfg.Secrets)
	if err != nil && !errors.Is(err, secrets.ErrProviderNotConfigured) {
		return fmt.Errorf("secrets manager: %w", err)
	}
	a.providers, err = providers.Build(ctx, cfg.Providers, sm)
	if err != nil {
		return fmt.Errorf("verification providers: %w", err)
	}

	// Alerts
	if cfg.Notifications.Enabled {
		if err := a.wireAlerts(alertRepo); err != nil {
			return err
		}
	}

	return nil
}

func (a *app) wireAlerts(repo notifications.Repository) error {
	ncfg := a.cfg.Notifications

	var phone notifications.PhoneSender
	if ncfg.TwilioAccountSID != "" && ncfg.TwilioAuthToken != "" {
		phone = notifications.NewTwilioSender(ncfg.TwilioAccountSID, ncfg.TwilioAuthToken, ncfg.TwilioFromNumber, ncfg.TwilioWhatsAppFrom)
	}

	var ops notifications.OpsNotifier
	if len(ncfg.ShoutrrrURLs) > 0 {
		n, err := notifications.NewShoutrrrNotifier(ncfg.ShoutrrrURLs, 10*time.Second)
		if err != nil {
			return fmt.Errorf("ops notifier: %w", err)
		}
		ops = n
	}

	alerts := notifications.NewAlertService(repo, phone, ops, ncfg.DefaultLanguage)
	alerts.SetCircuitBreaker(resilience.NewCircuitBreaker(resilience.For(resilience.KindAlert, "twilio", resilience.Tuning{
		OpenSeconds:      a.cfg.Providers.BreakerTimeoutSeconds,
		FailureThreshold: a.cfg.Providers.BreakerFailureThreshold,
	})))
	if err := notifications.NewEventHandler(alerts).RegisterSubscriptions(a.bus); err != nil {
		return err
	}
	a.alerts = alerts

	logger.Info("alerts enabled",
		zap.Bool("phone", phone != nil),
		zap.Bool("ops", ops != nil),
	)
	return nil
}

// router builds the HTTP API
func (a *app) router() *gin.Engine {
	cfg := a.cfg
	r := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = splitOrigins(cfg.Server.CORSOrigins)
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", middleware.CorrelationIDHeader}

	r.Use(middleware.CorrelationID())
	if cfg.Sentry.Enabled {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: false}))
	}
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.New(corsConfig))
	r.Use(middleware.Metrics(cfg.Server.ServiceName))
	r.Use(tracing.Middleware(cfg.Server.ServiceName))

	// Health check and metrics (no auth required)
	r.GET("/healthz", common.HealthCheck(cfg.Server.ServiceName, Version))
	r.GET("/readyz", common.HealthCheckWithDeps(cfg.Server.ServiceName, Version, a.checks))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Applies to the API routes registered below
	r.Use(requestTimeout(cfg.Server.RequestTimeout))

	community.NewHandler(a.community).RegisterRoutes(r, a.jwt, a.limiter)
	providers.NewHandler(a.providers.Payments, a.providers.Companies).RegisterRoutes(r, a.jwt)
	if a.alerts != nil {
		notifications.NewHandler(a.alerts).RegisterRoutes(r, a.jwt)
	}

	return r
}

// requestTimeout answers 503 when a handler runs longer than seconds
func requestTimeout(seconds int) gin.HandlerFunc {
	if seconds <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return timeout.New(
		timeout.WithTimeout(time.Duration(seconds)*time.Second),
		timeout.WithResponse(func(c *gin.Context) {
			common.ErrorResponse(c, http.StatusServiceUnavailable, "request timed out")
		}),
	)
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// Close releases backends in reverse order of acquisition
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
