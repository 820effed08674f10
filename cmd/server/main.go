package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zhenghe-fab/linescale/internal/config"
	"github.com/zhenghe-fab/linescale/internal/middleware"
	"github.com/zhenghe-fab/linescale/internal/weighing/entity"
	"github.com/zhenghe-fab/linescale/internal/weighing/handler"
	"github.com/zhenghe-fab/linescale/internal/weighing/repository"
	"github.com/zhenghe-fab/linescale/internal/weighing/service"
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

	zapLogger.Info("Starting linescale service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&entity.Product{},
		&entity.WorkOrder{},
		&entity.ProductionLog{},
	); err != nil {
		zapLogger.Fatal("AutoMigrate failed", zap.Error(err))
	}

	// 初始化Redis（不可用时派单服务自动降级为直查数据库）
	rdb := initRedis(cfg.Redis)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		zapLogger.Warn("Redis unavailable, dispatch cache disabled", zap.Error(err))
		rdb = nil
	}

	// 初始化MinIO（未配置时报表归档不可用）
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			zapLogger.Warn("MinIO init failed, report archiving disabled", zap.Error(err))
			minioClient = nil
		}
	}

	// 初始化仓储、服务、处理器
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, db, rdb, minioClient, cfg, zapLogger)
	handlers := handler.NewHandlers(services, zapLogger)

	// 空库时从镜像CSV回填历史数据
	bootstrap(repos, services, cfg, zapLogger)

	// 启动对账同步循环
	syncCtx, syncCancel := context.WithCancel(context.Background())
	defer syncCancel()
	go services.Sync.Run(syncCtx)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(router, handlers)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
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
	syncCancel()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

// bootstrap 数据库完全为空时从镜像CSV恢复流水和档案。只要任何一张权威表
// 有数据就不回灌流水：带着存活工单去回灌过期镜像会把历史事件掺进统计。
func bootstrap(repos *repository.Repositories, services *service.Services, cfg *config.Config, zapLogger *zap.Logger) {
	logCount, err := repos.ProductionLog.Count()
	if err != nil {
		zapLogger.Warn("Bootstrap: count logs failed", zap.Error(err))
		return
	}
	orderCount, err := repos.WorkOrder.Count()
	if err != nil {
		zapLogger.Warn("Bootstrap: count orders failed", zap.Error(err))
		return
	}
	productCount, err := repos.Product.Count()
	if err != nil {
		zapLogger.Warn("Bootstrap: count products failed", zap.Error(err))
		return
	}

	if logCount == 0 && orderCount == 0 && productCount == 0 {
		logs, err := services.Mirror.LoadLogs()
		if err != nil {
			if !os.IsNotExist(err) {
				zapLogger.Warn("Bootstrap: load mirror logs failed", zap.Error(err))
			}
		} else if len(logs) > 0 {
			if err := repos.ProductionLog.BatchCreate(logs); err != nil {
				zapLogger.Warn("Bootstrap: restore logs failed", zap.Error(err))
			} else {
				zapLogger.Info("Bootstrap: restored logs from mirror", zap.Int("count", len(logs)))
			}
		}
	}

	if productCount == 0 {
		path := filepath.Join(cfg.Weighing.MirrorDir, "db_products.csv")
		f, err := os.Open(path)
		if err != nil {
			if !os.IsNotExist(err) {
				zapLogger.Warn("Bootstrap: open products csv failed", zap.Error(err))
			}
			return
		}
		defer f.Close()

		result, err := services.Catalog.ImportCSV(f)
		if err != nil {
			zapLogger.Warn("Bootstrap: import products failed", zap.Error(err))
			return
		}
		zapLogger.Info("Bootstrap: imported products from csv",
			zap.Int("imported", result.Imported),
			zap.Int("skipped", result.Skipped),
		)
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

func registerRoutes(r *gin.Engine, h *handler.Handlers) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// 秤端接口：路径与返回格式固定，秤侧固件不可改
	r.POST("/upload", h.Scale.Upload)
	r.GET("/current_order/:line", h.Scale.CurrentOrder)

	// API v1（操作端）
	v1 := r.Group("/api/v1")
	{
		lines := v1.Group("/lines/:line")
		{
			lines.GET("/orders", h.Order.Queue)
			lines.POST("/orders", h.Order.Schedule)
			lines.POST("/orders/reorder", h.Order.Reorder)
			lines.POST("/orders/delete", h.Order.Delete)
			lines.POST("/undo", h.Order.Undo)
		}

		orders := v1.Group("/orders")
		{
			orders.POST("/:code/finish", h.Order.Finish)
			orders.POST("/:code/cancel", h.Order.Cancel)
		}

		products := v1.Group("/products")
		{
			products.GET("", h.Product.List)
			products.POST("", h.Product.Create)
			products.POST("/delete", h.Product.Delete)
			products.POST("/import", h.Product.Import)
		}
		v1.GET("/product-options", h.Product.Options)

		monitor := v1.Group("/monitor")
		{
			monitor.GET("/snapshot", h.Monitor.Snapshot)
		}

		reports := v1.Group("/reports")
		{
			reports.GET("/export", h.Report.Export)
			reports.POST("/archive", h.Report.Archive)
		}
	}
}
