package container

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"novelstore-backend/internal/config"
	promotionHandler "novelstore-backend/internal/domains/promotion/handler"
	promotionRepo "novelstore-backend/internal/domains/promotion/repository"
	promotionService "novelstore-backend/internal/domains/promotion/service"
	infraCache "novelstore-backend/internal/infrastructure/cache"
	"novelstore-backend/internal/infrastructure/database"
	"novelstore-backend/pkg/cache"
	"novelstore-backend/pkg/jwt"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container chứa toàn bộ dependencies của application
//
// Thứ tự initialization:
// 1. Config
// 2. Infrastructure (DB, Redis, Asynq client) - phụ thuộc Config
// 3. Repositories - phụ thuộc Infrastructure
// 4. Services - phụ thuộc Repositories
// 5. Handlers - phụ thuộc Services
type Container struct {
	// INFRASTRUCTURE LAYER
	Config      *config.Config
	DB          *database.PostgresDB    // nil khi STORE_DRIVER=memory
	Redis       *infraCache.RedisClient // nil khi cache tắt
	Cache       cache.Cache             // nil = service không cache
	JWTManager  *jwt.Manager
	AsynqClient *asynq.Client

	// REPOSITORY LAYER
	PromotionRepo   promotionRepo.PromotionRepository
	PurchaseHistory promotionRepo.PurchaseHistory

	// SERVICE LAYER
	PromotionService promotionService.ServiceInterface

	// HANDLER LAYER
	PromotionPublicHandler *promotionHandler.PublicHandler
	PromotionAdminHandler  *promotionHandler.AdminHandler
}

// NewContainer load config từ env rồi build dependency graph
func NewContainer(ctx context.Context) (*Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return Build(ctx, cfg)
}

// Build tạo dependency graph từ config có sẵn
func Build(ctx context.Context, cfg *config.Config) (*Container, error) {
	log.Info().
		Str("env", cfg.App.Environment).
		Str("store", cfg.Promotion.StoreDriver).
		Msg("🔧 Initializing DI Container...")

	c := &Container{Config: cfg}

	// ----------------------------------------
	// STEP 1: STORE (memory | postgres)
	// ----------------------------------------
	if err := c.initStore(ctx); err != nil {
		c.Cleanup()
		return nil, err
	}

	// ----------------------------------------
	// STEP 2: CACHE (optional)
	// ----------------------------------------
	c.initCache(ctx)

	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer)

	// Asynq client không connect ngay, lỗi Redis chỉ lộ ra khi enqueue
	c.AsynqClient = asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// ----------------------------------------
	// STEP 3: SERVICES & HANDLERS
	// ----------------------------------------
	c.PromotionService = promotionService.NewPromotionService(
		c.PromotionRepo,
		c.PurchaseHistory,
		c.Cache,
		promotionService.Options{
			RoundingPlaces: cfg.Promotion.RoundingPlaces,
			CacheTTL:       cfg.Promotion.CacheTTL,
		},
	)

	c.PromotionPublicHandler = promotionHandler.NewPublicHandler(c.PromotionService)
	c.PromotionAdminHandler = promotionHandler.NewAdminHandler(c.PromotionService, c.AsynqClient)

	log.Info().Msg("🎉 DI Container initialized successfully")
	return c, nil
}

func (c *Container) initStore(ctx context.Context) error {
	cfg := c.Config

	if cfg.Promotion.StoreDriver == "memory" {
		repo := promotionRepo.NewMemoryRepository()
		var buyers []string
		if cfg.Promotion.SeedDemoData {
			if err := promotionRepo.SeedDemoData(ctx, repo, time.Now()); err != nil {
				return fmt.Errorf("failed to seed demo data: %w", err)
			}
			buyers = promotionRepo.DemoReturningBuyers
			log.Info().Strs("returning_buyers", buyers).Msg("✅ Demo promotions seeded")
		}
		c.PromotionRepo = repo
		c.PurchaseHistory = promotionRepo.NewMemoryPurchaseHistory(buyers...)
		return nil
	}

	dbConfig, err := config.LoadDatabaseConfig(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	db := database.NewPostgresDB(dbConfig)

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := db.Connect(connectCtx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DB = db

	c.PromotionRepo = promotionRepo.NewPostgresRepository(db.Pool)
	c.PurchaseHistory = promotionRepo.NewPostgresPurchaseHistory(db.Pool)
	return nil
}

// initCache: Redis là non-critical, connect fail thì chạy không cache
func (c *Container) initCache(ctx context.Context) {
	cfg := c.Config
	if !cfg.Promotion.CacheEnabled {
		return
	}

	rc := infraCache.NewRedisClient(cfg.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
	if err := rc.Connect(ctx); err != nil {
		log.Warn().Err(err).Msg("⚠️  Redis connection failed (non-critical), caching disabled")
		_ = rc.Close()
		return
	}

	c.Redis = rc
	c.Cache = infraCache.NewRedisCache(rc.Client, "novelstore:")
}

// HealthCheck ping các dependency đang bật
func (c *Container) HealthCheck(ctx context.Context) map[string]string {
	status := map[string]string{"store": c.Config.Promotion.StoreDriver}

	if c.DB != nil {
		status["database"] = "up"
		if err := c.DB.HealthCheck(ctx); err != nil {
			status["database"] = "down"
		}
	}
	if c.Redis != nil {
		status["redis"] = "up"
		if err := c.Redis.HealthCheck(ctx); err != nil {
			status["redis"] = "down"
		}
	}
	return status
}

// Cleanup dọn dẹp resources khi shutdown
func (c *Container) Cleanup() {
	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			log.Warn().Err(err).Msg("⚠️  Failed to close asynq client")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Warn().Err(err).Msg("⚠️  Failed to close Redis")
		}
	}

	if c.DB != nil {
		c.DB.Close()
	}

	log.Info().Msg("✅ Container cleanup completed")
}
