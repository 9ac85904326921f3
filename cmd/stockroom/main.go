package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/victorydiv/etsyapp/internal/config"
	"github.com/victorydiv/etsyapp/internal/event"
	"github.com/victorydiv/etsyapp/internal/marketplace"
	"github.com/victorydiv/etsyapp/internal/middleware"
	"github.com/victorydiv/etsyapp/internal/shop/entity"
	"github.com/victorydiv/etsyapp/internal/shop/handler"
	"github.com/victorydiv/etsyapp/internal/shop/repository"
	"github.com/victorydiv/etsyapp/internal/shop/service"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting stockroom service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := entity.AutoMigrate(db); err != nil {
		zapLogger.Fatal("Failed to auto-migrate tables", zap.Error(err))
	}
	zapLogger.Info("Database migration completed")

	// 事件发布，未启用 Redis 时退化为空实现
	var events service.EventPublisher = event.NoopPublisher{}
	if cfg.Redis.Enabled {
		rdb := initRedis(cfg.Redis)
		events = event.NewRedisPublisher(rdb, cfg.Redis.EventChannel, zapLogger)
		zapLogger.Info("Redis event publisher enabled",
			zap.String("channel", cfg.Redis.EventChannel))
	}

	// 初始化依赖
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, db, events, zapLogger)

	// 平台同步需要凭据才启用
	var syncer *marketplace.Syncer
	if cfg.Marketplace.APIKey != "" && cfg.Marketplace.ShopID != "" {
		client := marketplace.NewClient(cfg.Marketplace)
		syncer = marketplace.NewSyncer(client, services.Catalog, services.Fulfillment, zapLogger)
	}

	handlers := handler.NewHandlers(services, syncer, cfg)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())

	registerRoutes(router, handlers, cfg)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 周期性平台同步
	syncCtx, stopSync := context.WithCancel(context.Background())
	if syncer != nil && cfg.Marketplace.SyncInterval > 0 {
		go syncer.RunPeriodic(syncCtx, cfg.Marketplace.SyncInterval)
		zapLogger.Info("Periodic marketplace sync enabled",
			zap.Duration("interval", cfg.Marketplace.SyncInterval))
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")
	stopSync()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func registerRoutes(router *gin.Engine, handlers *handler.Handlers, cfg *config.Config) {
	// 健康检查
	router.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "stockroom"})
	})
	router.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "stockroom"})
	})

	// 版本信息
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":    "stockroom",
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	router.POST("/api/v1/auth/login", handlers.Auth.Login)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		// 商品主数据
		items := v1.Group("/items")
		{
			items.GET("", handlers.Item.List)
			items.POST("", handlers.Item.Create)
			items.GET("/sku/:sku", handlers.Item.GetBySKU)
			items.GET("/:id", handlers.Item.Get)
			items.PUT("/:id", handlers.Item.Update)
			items.DELETE("/:id", handlers.Item.Deactivate)
			items.GET("/:id/bom", handlers.Item.GetBOM)
			items.PUT("/:id/bom", handlers.Item.ReplaceBOM)
			items.POST("/:id/recalculate-cost", handlers.Item.RecalculateCost)
		}

		// 套件
		kits := v1.Group("/kits")
		{
			kits.POST("", handlers.Item.CreateKit)
			kits.GET("/:id/can-assemble", handlers.Inventory.CanAssemble)
			kits.POST("/:id/assemble", handlers.Inventory.Assemble)
		}

		// 库存
		inventory := v1.Group("/inventory")
		{
			inventory.GET("/reorder", handlers.Inventory.ReorderList)
			inventory.GET("/:item_id", handlers.Inventory.Get)
			inventory.POST("/:item_id/adjust", handlers.Inventory.Adjust)
			inventory.GET("/:item_id/transactions", handlers.Inventory.Transactions)
		}

		// 采购单
		inboundOrders := v1.Group("/inbound-orders")
		{
			inboundOrders.GET("", handlers.Inbound.List)
			inboundOrders.POST("", handlers.Inbound.Create)
			inboundOrders.GET("/po/:po_number", handlers.Inbound.GetByPONumber)
			inboundOrders.GET("/:id", handlers.Inbound.Get)
			inboundOrders.PUT("/:id", handlers.Inbound.Update)
			inboundOrders.GET("/:id/items", handlers.Inbound.GetItems)
			inboundOrders.PUT("/:id/items", handlers.Inbound.ReplaceItems)
			inboundOrders.POST("/:id/in-transit", handlers.Inbound.MarkInTransit)
			inboundOrders.POST("/:id/receive", handlers.Inbound.Receive)
			inboundOrders.POST("/:id/cancel", handlers.Inbound.Cancel)
		}

		// 销售订单
		orders := v1.Group("/orders")
		{
			orders.GET("", handlers.Order.List)
			orders.POST("", handlers.Order.Create)
			orders.GET("/:id", handlers.Order.Get)
			orders.GET("/:id/items", handlers.Order.GetItems)
			orders.POST("/:id/pack", handlers.Order.MarkPacked)
			orders.POST("/:id/unpack", handlers.Order.Unpack)
			orders.POST("/:id/cancel", handlers.Order.Cancel)
			orders.POST("/:id/tracking", handlers.Order.UpdateTracking)
		}

		// 报表
		reports := v1.Group("/reports")
		{
			reports.GET("/inventory", handlers.Report.Inventory)
			reports.GET("/reorder", handlers.Report.Reorder)
			reports.GET("/transactions/:item_id", handlers.Report.Transactions)
			reports.GET("/inbound-orders", handlers.Report.Inbound)
			reports.GET("/orders", handlers.Report.Sales)
		}

		// 平台同步
		sync := v1.Group("/sync")
		{
			sync.POST("", handlers.Sync.All)
			sync.POST("/listings", handlers.Sync.Listings)
			sync.POST("/orders", handlers.Sync.Orders)
		}
	}
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}
	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}
	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}
