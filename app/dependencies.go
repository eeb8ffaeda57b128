package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/provider-manager/backend/config"
	"github.com/provider-manager/backend/internal/crypto"
	"github.com/provider-manager/backend/middleware"
	"github.com/provider-manager/backend/repositories"
	"github.com/provider-manager/backend/repositories/postgres"
	"github.com/provider-manager/backend/services/audit"
	"github.com/provider-manager/backend/services/events"
	"github.com/provider-manager/backend/services/killswitch"
	"github.com/provider-manager/backend/services/pricing"
	"github.com/provider-manager/backend/services/providers"
	"github.com/provider-manager/backend/services/providers/azure"
	"github.com/provider-manager/backend/services/providers/bedrock"
	"github.com/provider-manager/backend/services/providers/openai"
	"github.com/provider-manager/backend/services/providers/vertex"
	"github.com/provider-manager/backend/services/ratelimit"
	"github.com/provider-manager/backend/services/runtime"
	"github.com/provider-manager/backend/services/usage"
	"github.com/provider-manager/backend/services/webhooks"
)

// Dependencies holds all application dependencies. This is the central
// wiring point for dependency injection.
type Dependencies struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *postgres.DB
	Repos  *repositories.Repositories

	Encryptor *crypto.Encryptor

	KillSwitch *killswitch.Service
	RateLimit  *ratelimit.Service
	Pricing    *pricing.Service
	Usage      *usage.Service
	Webhooks   *webhooks.Service
	Publisher  events.Publisher
	Audit      *audit.Service
	Adapters   *providers.Registry
	Runtime    *runtime.Service

	AuthMiddleware *middleware.AuthMiddleware

	redisClient  *redis.Client
	webhookQueue *webhooks.ChannelQueue
	cacheStop    chan struct{}
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := deps.initCrypto(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize encryption: %w", err)
	}

	deps.initRedis(cfg)
	deps.initControls(cfg)

	if err := deps.initServices(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	deps.initRuntime(cfg)
	deps.AuthMiddleware = middleware.NewAuthMiddleware(cfg.Auth, logger)

	logger.Info("all dependencies initialized")
	return deps, nil
}

func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	db, err := postgres.NewDB(cfg.Database, d.Logger)
	if err != nil {
		return err
	}

	if err := db.InitSchema(ctx); err != nil {
		db.Close()
		return fmt.Errorf("schema initialization failed: %w", err)
	}

	d.DB = db
	d.Repos = postgres.NewRepositories(db.DB, d.Logger)
	return nil
}

func (d *Dependencies) initCrypto(cfg *config.Config) error {
	enc, err := crypto.NewEncryptor(cfg.Encryption.Key)
	if err != nil {
		return err
	}
	d.Encryptor = enc
	return nil
}

// initRedis connects the optional shared cache backend. Absence of
// redis is not an error: the kill switch cache and rate limiter fall
// back to in-process implementations.
func (d *Dependencies) initRedis(cfg *config.Config) {
	if !cfg.Redis.Active() {
		return
	}

	d.redisClient = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	d.Logger.Info("redis backend enabled", zap.String("addr", cfg.Redis.Addr()))
}

// initControls wires the admission controls: kill switches and the
// per-tenant rate limiter.
func (d *Dependencies) initControls(cfg *config.Config) {
	var ksCache killswitch.Cache
	var counters ratelimit.CounterStore

	if d.redisClient != nil {
		ksCache = killswitch.NewRedisCache(d.redisClient)
		counters = ratelimit.NewRedisCounterStore(d.redisClient)
	} else {
		memCache := killswitch.NewMemoryCache(cfg.KillSwitch.CacheTTL)
		d.cacheStop = make(chan struct{})
		go memCache.StartCleanupWorker(cfg.KillSwitch.CacheTTL, d.cacheStop)
		ksCache = memCache
		counters = ratelimit.NewMemoryCounterStore()
	}

	d.KillSwitch = killswitch.NewService(
		d.Repos.Settings,
		d.Repos.Tenants,
		ksCache,
		cfg.KillSwitch.CacheTTL,
		cfg.KillSwitch.GlobalDefault,
		d.Logger,
	)
	d.RateLimit = ratelimit.NewService(counters, d.Logger)
}

func (d *Dependencies) initServices(ctx context.Context, cfg *config.Config) error {
	d.Pricing = pricing.NewService(d.Repos.Pricing, d.Logger)
	if err := d.Pricing.Seed(ctx); err != nil {
		return fmt.Errorf("pricing seed failed: %w", err)
	}

	d.Usage = usage.NewService(d.Repos.Usage, d.Logger)

	d.Webhooks = webhooks.NewService(d.Repos.Webhooks, d.Encryptor, cfg.Webhooks.DeliveryTimeout, d.Logger)
	if cfg.Webhooks.QueueEnabled {
		d.webhookQueue = webhooks.NewChannelQueue(
			cfg.Webhooks.QueueBuffer, 4, cfg.Webhooks.DeliveryTimeout,
			d.Webhooks.Process, d.Logger,
		)
		d.Webhooks.SetQueue(d.webhookQueue)
	}

	if cfg.Queue.URL != "" {
		publisher, err := events.NewSQSPublisher(ctx, cfg.Queue, d.Logger)
		if err != nil {
			return fmt.Errorf("queue publisher setup failed: %w", err)
		}
		d.Publisher = publisher
	} else {
		d.Publisher = events.NoopPublisher{}
	}

	d.Audit = audit.NewService(d.Repos.Audit, d.Publisher, d.Webhooks, d.Logger)
	return nil
}

func (d *Dependencies) initRuntime(cfg *config.Config) {
	timeout := cfg.Runtime.ProviderTimeout

	registry := providers.NewRegistry(openai.NewAdapter(timeout))
	registry.Register("azure-openai", azure.NewAdapter(timeout))
	registry.Register("bedrock", bedrock.NewAdapter())
	registry.Register("vertex", vertex.NewAdapter(timeout))
	registry.Register("mock", providers.NewMockAdapter())
	d.Adapters = registry

	d.Runtime = runtime.NewService(runtime.Deps{
		Tenants:         d.Repos.Tenants,
		Providers:       d.Repos.Providers,
		Policies:        d.Repos.Policies,
		KillSwitch:      d.KillSwitch,
		RateLimiter:     d.RateLimit,
		Ledger:          d.Usage,
		Pricer:          d.Pricing,
		Auditor:         d.Audit,
		Decryptor:       d.Encryptor,
		Adapters:        registry,
		ProviderTimeout: timeout,
	}, d.Logger)
}

// Close releases all held resources in reverse dependency order.
func (d *Dependencies) Close() {
	if d.webhookQueue != nil {
		d.webhookQueue.Close()
	}
	if d.cacheStop != nil {
		close(d.cacheStop)
	}
	if d.redisClient != nil {
		if err := d.redisClient.Close(); err != nil {
			d.Logger.Warn("failed to close redis client", zap.Error(err))
		}
	}
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			d.Logger.Warn("failed to close database", zap.Error(err))
		}
	}
}
