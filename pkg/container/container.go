package container

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/config"
	authHandler "storefront/internal/domains/auth/handler"
	authService "storefront/internal/domains/auth/service"
	cartHandler "storefront/internal/domains/cart/handler"
	cartService "storefront/internal/domains/cart/service"
	favoriteHandler "storefront/internal/domains/favorite/handler"
	favoriteService "storefront/internal/domains/favorite/service"
	notificationHandler "storefront/internal/domains/notification/handler"
	notificationService "storefront/internal/domains/notification/service"
	purchaseHandler "storefront/internal/domains/purchase/handler"
	purchaseService "storefront/internal/domains/purchase/service"
	sessionHandler "storefront/internal/domains/session/handler"
	sessionService "storefront/internal/domains/session/service"
	"storefront/internal/infrastructure/api"
	"storefront/internal/infrastructure/cache"
	"storefront/internal/infrastructure/database"
	"storefront/internal/preference"
	"storefront/pkg/eventbus"

	"github.com/rs/zerolog/log"
)

// HealthChecker is implemented by storage backends that can be pinged
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ========================================
// CONTAINER STRUCT
// ========================================

// Container chứa TẤT CẢ dependencies của application
type Container struct {
	// ========================================
	// INFRASTRUCTURE LAYER
	// ========================================
	Config  *config.Config
	Backend preference.Backend // memory, sqlite or redis
	Store   *preference.Store
	Bus     *eventbus.Bus
	API     *api.Client

	sqlite *database.SQLiteDB
	redis  *cache.RedisClient

	// ========================================
	// SERVICE LAYER
	// ========================================
	Tokens          *authService.TokenStore
	AuthService     *authService.Service
	SessionManager  *sessionService.Manager
	FavoriteService *favoriteService.Service
	PurchaseService *purchaseService.Service
	CartService     *cartService.CartService
	BadgeService    *notificationService.BadgeService

	// ========================================
	// HANDLER LAYER (HTTP)
	// ========================================
	AuthHandler     *authHandler.Handler
	SessionHandler  *sessionHandler.Handler
	FavoriteHandler *favoriteHandler.Handler
	PurchaseHandler *purchaseHandler.Handler
	CartHandler     *cartHandler.Handler
	BadgeHandler    *notificationHandler.BadgeHandler
	StreamHandler   *notificationHandler.StreamHandler
}

// ========================================
// CONSTRUCTOR: BUILD CONTAINER
// ========================================

// NewContainer loads config from the environment and builds the graph
func NewContainer() (*Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return New(cfg)
}

// New builds the dependency graph for cfg.
//
// Thứ tự initialization:
// 1. Storage backend (phụ thuộc Config)
// 2. Store, Bus, API client
// 3. Services
// 4. Handlers
func New(cfg *config.Config) (*Container, error) {
	log.Info().Str("env", cfg.App.Environment).Msg("Initializing DI Container...")

	c := &Container{Config: cfg}

	// ========================================
	// STEP 1: STORAGE BACKEND
	// ========================================
	if err := c.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	// ========================================
	// STEP 2: SHARED INFRASTRUCTURE
	// ========================================
	c.Store = preference.NewStore(c.Backend)
	c.Bus = eventbus.New()
	c.Tokens = authService.NewTokenStore(c.Store)
	c.API = api.NewClient(cfg.API.BaseURL, cfg.API.Timeout, c.Tokens)

	// ========================================
	// STEP 3: SERVICES
	// ========================================
	c.initServices()

	// ========================================
	// STEP 4: HANDLERS
	// ========================================
	c.initHandlers()

	log.Info().Str("storage", cfg.Storage.Driver).Str("api", cfg.API.BaseURL).Msg("DI Container initialized successfully")
	return c, nil
}

// ========================================
// PRIVATE INITIALIZATION METHODS
// ========================================

func (c *Container) initStorage() error {
	switch c.Config.Storage.Driver {
	case config.StorageMemory:
		c.Backend = preference.NewMemoryBackend()

	case config.StorageSQLite:
		db, err := database.NewSQLiteDB(c.Config.Storage.SQLitePath)
		if err != nil {
			return err
		}
		c.sqlite = db
		c.Backend = db

	case config.StorageRedis:
		rc := cache.NewRedisClient(
			c.Config.Redis.Host,
			c.Config.Redis.Password,
			c.Config.Redis.DB,
			c.Config.Redis.Prefix,
		)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// Redis failure không critical: the store degrades to defaults
		if err := rc.Connect(ctx); err != nil {
			log.Warn().Err(err).Msg("Redis connection failed (non-critical)")
		}
		c.redis = rc
		c.Backend = rc

	default:
		return fmt.Errorf("unknown storage driver %q", c.Config.Storage.Driver)
	}
	return nil
}

func (c *Container) initServices() {
	c.AuthService = authService.NewService(c.API, c.Tokens)
	c.SessionManager = sessionService.NewManager(c.Store)
	c.FavoriteService = favoriteService.NewService(c.Store, c.Bus)
	c.PurchaseService = purchaseService.NewService(c.API)

	// Cross-domain: cart reads stock from the catalog and invalidates history on checkout
	c.CartService = cartService.NewCartService(
		c.API,
		c.API,
		c.SessionManager,
		c.AuthService,
		c.PurchaseService,
		c.Bus,
	)

	c.BadgeService = notificationService.NewBadgeService(
		c.CartService,
		c.FavoriteService,
		c.Bus,
		c.Config.Badge.PollInterval,
	)
}

func (c *Container) initHandlers() {
	c.AuthHandler = authHandler.NewHandler(c.AuthService, c.Bus, c.CartService, c.PurchaseService)
	c.SessionHandler = sessionHandler.NewHandler(c.SessionManager, c.AuthService)
	c.FavoriteHandler = favoriteHandler.NewHandler(c.FavoriteService)
	c.PurchaseHandler = purchaseHandler.NewHandler(c.PurchaseService)
	c.CartHandler = cartHandler.NewHandler(c.CartService)
	c.BadgeHandler = notificationHandler.NewBadgeHandler(c.BadgeService)
	c.StreamHandler = notificationHandler.NewStreamHandler(c.Bus)
}

// ========================================
// HELPER METHODS
// ========================================

// StorageHealth pings the preference backend. The memory backend is always healthy.
func (c *Container) StorageHealth(ctx context.Context) error {
	if hc, ok := c.Backend.(HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

// Cleanup dọn dẹp resources khi shutdown
func (c *Container) Cleanup() {
	log.Info().Msg("Cleaning up container resources...")

	if c.sqlite != nil {
		if err := c.sqlite.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close SQLite")
		} else {
			log.Info().Msg("SQLite connection closed")
		}
	}

	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis")
		} else {
			log.Info().Msg("Redis connections closed")
		}
	}
}
