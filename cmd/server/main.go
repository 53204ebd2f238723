package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	grpcHandler "github.com/wekeepgrowing/semo-enrollment/internal/adapter/handler/grpc"
	httpHandler "github.com/wekeepgrowing/semo-enrollment/internal/adapter/handler/http"
	"github.com/wekeepgrowing/semo-enrollment/internal/adapter/webhook"
	"github.com/wekeepgrowing/semo-enrollment/internal/config"
	"github.com/wekeepgrowing/semo-enrollment/internal/infrastructure/database"
	grpcServer "github.com/wekeepgrowing/semo-enrollment/internal/infrastructure/grpc"
	httpServer "github.com/wekeepgrowing/semo-enrollment/internal/infrastructure/http"
	"github.com/wekeepgrowing/semo-enrollment/internal/infrastructure/metrics"
	"github.com/wekeepgrowing/semo-enrollment/internal/infrastructure/notification"
	stripeProvider "github.com/wekeepgrowing/semo-enrollment/internal/infrastructure/provider/stripe"
	"github.com/wekeepgrowing/semo-enrollment/internal/infrastructure/sched"
	"github.com/wekeepgrowing/semo-enrollment/internal/usecase"
	"github.com/wekeepgrowing/semo-enrollment/pkg/logger"
	"github.com/wekeepgrowing/semo-enrollment/pkg/messaging"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// .env is optional; real deployments inject the environment directly
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to load .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.NewZapLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger = zapLogger.With(zap.String("service", cfg.Service.Name))

	repos, err := database.Open(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer func() {
		if err := repos.Close(zapLogger); err != nil {
			zapLogger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := metrics.New()

	var notifier usecase.Notifier = usecase.NoopNotifier()
	if cfg.Service.NotificationsEnabled {
		publisher, err := messaging.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		redisNotifier := notification.NewRedisNotifier(publisher, cfg.Service.NotificationChannel, cfg.Service.NotificationTimeout, zapLogger)
		defer func() {
			if err := redisNotifier.Close(); err != nil {
				zapLogger.Error("Failed to close Redis client", zap.Error(err))
			}
		}()
		notifier = redisNotifier
	}

	paymentProvider := stripeProvider.NewStripeProvider(cfg.Service.StripeSecretKey, nil, zapLogger)
	retries := cfg.Service.MaxTransitionRetries

	checkout := usecase.NewCheckoutService(repos.Course, repos.PayoutAccount, repos.Enrollment, paymentProvider,
		notifier, collector, usecase.CheckoutConfig{
			ClientURL:          cfg.Service.ClientURL,
			PlatformFeePercent: cfg.Service.PlatformFeePercent,
		}, retries, zapLogger)
	reconciler := usecase.NewReconcileService(repos.Purchase, repos.Enrollment, paymentProvider,
		notifier, collector, cfg.Service.PlatformFeePercent, retries, zapLogger)
	gate := usecase.NewAccessGate(repos.Enrollment, notifier, collector, retries, zapLogger)
	purchases := usecase.NewPurchaseService(repos.Purchase, zapLogger)

	processor := webhook.NewProcessor(repos.WebhookEvent, webhook.NewRouter(reconciler), collector, zapLogger)

	httpSrv := httpServer.NewServer(cfg, zapLogger, httpServer.Handlers{
		Webhook:  httpHandler.NewWebhookHandler(processor, cfg.Service.StripeWebhookSecret, cfg.Service.WebhookTimeout, zapLogger),
		Checkout: httpHandler.NewCheckoutHandler(checkout, zapLogger),
		Access:   httpHandler.NewAccessHandler(gate, zapLogger),
		Purchase: httpHandler.NewPurchaseHandler(purchases, zapLogger),
		Metrics:  collector.Handler(),
	})
	grpcSrv := grpcServer.NewServer(cfg, zapLogger, grpcHandler.NewAccessHandler(gate, zapLogger))

	sweeper := sched.NewCancellationSweeper(cfg.Workers.CancellationSweepInterval, repos.Enrollment, collector, zapLogger)
	replayer := sched.NewWebhookReplayer(sched.ReplayConfig{
		Interval:    cfg.Workers.WebhookReplayInterval,
		BatchSize:   cfg.Workers.WebhookReplayBatch,
		MaxAttempts: cfg.Workers.WebhookMaxAttempts,
	}, repos.WebhookEvent, processor, collector, zapLogger)

	var workers sync.WaitGroup
	workers.Add(2)
	go func() {
		defer workers.Done()
		_ = sweeper.Run(ctx)
	}()
	go func() {
		defer workers.Done()
		_ = replayer.Run(ctx)
	}()

	go func() {
		if err := grpcSrv.Start(); err != nil {
			zapLogger.Fatal("Failed to start gRPC server", zap.Error(err))
		}
	}()

	go func() {
		if err := httpSrv.Start(); err != nil {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("Shutting down servers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}
	if err := grpcSrv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Failed to shutdown gRPC server", zap.Error(err))
	}
	workers.Wait()

	zapLogger.Info("Servers shut down successfully")
}
