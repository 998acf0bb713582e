package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/fekuna/omnipos-pos-terminal/config"
	"github.com/fekuna/omnipos-pos-terminal/internal/capture"
	"github.com/fekuna/omnipos-pos-terminal/internal/capture/device"
	orderRepoPkg "github.com/fekuna/omnipos-pos-terminal/internal/order/repository"
	"github.com/fekuna/omnipos-pos-terminal/internal/pos"
	posH "github.com/fekuna/omnipos-pos-terminal/internal/pos/handler"
	posUCPkg "github.com/fekuna/omnipos-pos-terminal/internal/pos/usecase"
	prodRepoPkg "github.com/fekuna/omnipos-pos-terminal/internal/product/repository"
	prodUCPkg "github.com/fekuna/omnipos-pos-terminal/internal/product/usecase"
	"github.com/fekuna/omnipos-pos-terminal/internal/replication"
	replListenerPkg "github.com/fekuna/omnipos-pos-terminal/internal/replication/listener"
	replRepoPkg "github.com/fekuna/omnipos-pos-terminal/internal/replication/repository"
	syncv1 "github.com/fekuna/omnipos-pos-terminal/internal/transport/syncv1"
	"github.com/fekuna/omnipos-pos-terminal/pkg/broker"
	"github.com/fekuna/omnipos-pos-terminal/pkg/database/sqlite"
	"github.com/fekuna/omnipos-pos-terminal/pkg/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.IsDevelopment() {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
	}

	appLogger := logger.NewZapLogger(logConfig).With(zap.String("terminal_id", cfg.Server.TerminalID))
	defer appLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open Local Store
	db, err := sqlite.NewSQLite(&sqlite.Config{
		Path:        cfg.SQLite.Path,
		BusyTimeout: cfg.SQLite.BusyTimeout,
	})
	if err != nil {
		appLogger.Fatal("Could not open local store", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Opened local store", zap.String("path", cfg.SQLite.Path))

	// 4. Initialize Repositories
	prodRepo, err := prodRepoPkg.NewSQLiteRepository(ctx, db)
	if err != nil {
		appLogger.Fatal("Could not migrate products", zap.Error(err))
	}
	orderRepo, err := orderRepoPkg.NewSQLiteRepository(ctx, db)
	if err != nil {
		appLogger.Fatal("Could not migrate orders", zap.Error(err))
	}
	checkpointRepo, err := replRepoPkg.NewSQLiteRepository(ctx, db)
	if err != nil {
		appLogger.Fatal("Could not migrate checkpoints", zap.Error(err))
	}

	// 5. Connect to Sync Backend
	syncClient, err := syncv1.Dial(cfg.Server.SyncGRPCAddr, cfg.Server.TerminalID)
	if err != nil {
		appLogger.Fatal("Could not create sync client", zap.Error(err))
	}
	defer syncClient.Close()

	// 6. Initialize Replication
	pull := replication.NewCatalogPull(syncClient, prodRepo, checkpointRepo, replication.Options{
		BatchSize:   cfg.Replication.BatchSize,
		Interval:    cfg.Replication.PullInterval,
		BackoffMax:  cfg.Replication.BackoffMax,
		CallTimeout: cfg.Replication.CallTimeout,
	}, appLogger)
	push := replication.NewOrderPush(syncClient, orderRepo, checkpointRepo, replication.Options{
		BatchSize:   cfg.Replication.BatchSize,
		Interval:    cfg.Replication.PushInterval,
		BackoffMax:  cfg.Replication.BackoffMax,
		CallTimeout: cfg.Replication.CallTimeout,
	}, appLogger)

	var runners []replication.Runner
	if len(cfg.Kafka.Brokers) > 0 {
		consumer := broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.CatalogTopic,
			GroupID: cfg.Kafka.GroupID + "-" + cfg.Server.TerminalID,
		})
		defer consumer.Close()
		runners = append(runners, replListenerPkg.NewCatalogListener(consumer, pull, appLogger))
		appLogger.Info("Subscribed to catalog changes", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.CatalogTopic))
	} else {
		appLogger.Info("No Kafka brokers configured, catalog pull is poll-only")
	}
	replEngine := replication.NewEngine(pull, push, orderRepo, runners...)

	// 7. Initialize UseCases
	prodUC := prodUCPkg.NewProductUseCase(prodRepo, appLogger)
	posUC := posUCPkg.NewPOSUseCase(prodUC, orderRepo, feedbackLogger(appLogger), appLogger,
		posUCPkg.WithNotifier(push),
	)

	// 8. Initialize Scanner
	var camera capture.Camera
	if cfg.Scanner.FramesDir != "" {
		camera = device.NewImageDir(cfg.Scanner.FramesDir, cfg.Scanner.FrameInterval)
	}
	scanner := capture.NewEngine(capture.Options{
		Camera:           camera,
		Fallback:         capture.NewZXingStrategy(cfg.Scanner.FallbackFPS),
		DebounceInterval: cfg.Scanner.DebounceInterval,
		RestartDelay:     cfg.Scanner.RestartDelay,
	}, func(ctx context.Context, code string) {
		if _, err := posUC.HandleScan(ctx, code); err != nil {
			appLogger.Error("Scan could not be processed", zap.String("code", code), zap.Error(err))
		}
	}, appLogger)

	if camera != nil {
		if err := scanner.Start(ctx, cfg.Scanner.DeviceID); err != nil {
			appLogger.Error("Scanner unavailable, manual entry only", zap.Error(err))
		}
	}
	defer scanner.Stop()

	// 9. Run
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return replEngine.Run(gctx)
	})

	console := posH.NewConsoleHandler(posUC, scanner, replEngine, os.Stdout, appLogger)
	go func() {
		if err := console.Run(gctx, os.Stdin); err != nil {
			appLogger.Error("Console stopped", zap.Error(err))
		}
		stop()
	}()

	appLogger.Info("Terminal ready", zap.String("sync_addr", cfg.Server.SyncGRPCAddr))
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error("Terminal stopped with error", zap.Error(err))
	}
	appLogger.Info("Terminal stopped")
}

func feedbackLogger(log logger.ZapLogger) pos.FeedbackSink {
	return pos.FeedbackFunc(func(_ context.Context, s pos.Signal) {
		switch s {
		case pos.SignalSuccess:
			log.Debug("feedback", zap.String("signal", string(s)))
		default:
			// Terminal bell for anything that needs the operator's attention.
			os.Stdout.WriteString("\a")
			log.Info("feedback", zap.String("signal", string(s)))
		}
	})
}
