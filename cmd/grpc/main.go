package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-pos-terminal/config"
	"github.com/fekuna/omnipos-pos-terminal/internal/auth"
	"github.com/fekuna/omnipos-pos-terminal/internal/backend"
	backendH "github.com/fekuna/omnipos-pos-terminal/internal/backend/handler"
	backendUCPkg "github.com/fekuna/omnipos-pos-terminal/internal/backend/usecase"
	orderRepoPkg "github.com/fekuna/omnipos-pos-terminal/internal/order/repository"
	prodRepoPkg "github.com/fekuna/omnipos-pos-terminal/internal/product/repository"
	syncv1 "github.com/fekuna/omnipos-pos-terminal/internal/transport/syncv1"
	"github.com/fekuna/omnipos-pos-terminal/pkg/broker"
	"github.com/fekuna/omnipos-pos-terminal/pkg/cache"
	"github.com/fekuna/omnipos-pos-terminal/pkg/database/postgres"
	"github.com/fekuna/omnipos-pos-terminal/pkg/logger"
	"github.com/fekuna/omnipos-pos-terminal/pkg/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     false,
		DisableStacktrace: false,
	}
	if cfg.IsDevelopment() {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Initialize Repositories
	prodRepo := prodRepoPkg.NewPGRepository(db)
	orderRepo := orderRepoPkg.NewPGRepository(db)

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := prodRepo.Migrate(migrateCtx); err != nil {
		appLogger.Fatal("Could not migrate products", zap.Error(err))
	}
	if err := orderRepo.Migrate(migrateCtx); err != nil {
		appLogger.Fatal("Could not migrate orders", zap.Error(err))
	}
	cancelMigrate()

	// 5. Initialize Redis
	var pageCache backend.PageCache
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Warn("Could not connect to Redis, page cache disabled", zap.Error(err))
	} else {
		defer redisClient.Close()
		pageCache = redisClient
		appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// 6. Initialize Kafka Producer
	var publisher backend.ChangePublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer := broker.NewProducer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.CatalogTopic,
		})
		defer producer.Close()
		publisher = producer
		appLogger.Info("Connected to Kafka Producer", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.CatalogTopic))
	} else {
		appLogger.Info("No Kafka brokers configured, catalog changes are not announced")
	}

	// 7. Initialize UseCases and Handlers
	syncUC := backendUCPkg.NewBackendUseCase(prodRepo, orderRepo, pageCache, publisher, cfg.Redis.CacheTTL, appLogger)
	syncHandler := backendH.NewSyncHandler(syncUC, appLogger)

	// 8. Start gRPC Server
	port := cfg.Server.GRPCPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	lis, err := net.Listen("tcp", port)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			middleware.RecoveryInterceptor(appLogger),
			auth.ContextInterceptor(),
			middleware.LoggingInterceptor(appLogger),
		),
	)
	syncv1.RegisterSyncServiceServer(grpcServer, syncHandler)

	appLogger.Info("Starting gRPC server", zap.String("port", port))

	// Graceful Shutdown
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	grpcServer.GracefulStop()
	appLogger.Info("Server stopped")
}
