package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ebukadev08/notification-system/internal/channel"
	"github.com/ebukadev08/notification-system/internal/config"
	"github.com/ebukadev08/notification-system/internal/ops"
	"github.com/ebukadev08/notification-system/internal/repository"
	"github.com/ebukadev08/notification-system/internal/resolver"
	"github.com/ebukadev08/notification-system/internal/status"
	"github.com/ebukadev08/notification-system/internal/worker"
	"github.com/ebukadev08/notification-system/pkg/logger"
	"github.com/ebukadev08/notification-system/pkg/rabbitmq"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logr := logger.NewNamed(cfg.LogLevel, "push-worker")
	if cfg.FCMServerKey == "" {
		logr.Warn("FCM_SERVER_KEY not set, running in demo mode")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr: cfg.RedisURL,
		})
		defer redisClient.Close()
	}
	marks := repository.NewDeliveredMarks(redisClient, cfg.DeliveredMarkTTL)

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		db, err = gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
		if err != nil {
			logr.Warn("failed to connect to database, attempt log disabled", slog.Any("error", err))
			db = nil
		}
	}
	deliveryLog := repository.NewDeliveryLog(db)

	// Declare the full notification topology up front when the broker is
	// reachable. The consumer re-declares its own queue on every
	// (re)connect, so a failure here only delays setup; it must not stop
	// the worker.
	if mqManager, err := rabbitmq.NewManager(cfg.RabbitMQURL, logr); err != nil {
		logr.Warn("broker unreachable at startup, consumer will keep retrying", slog.Any("error", err))
	} else {
		if err := mqManager.DeclareNotificationTopology(
			"notifications.direct",
			map[string]string{
				"email.queue": "email",
				"push.queue":  "push",
			},
			"failed.queue",
		); err != nil {
			logr.Warn("failed to declare rabbitmq topology", slog.Any("error", err))
		}
		mqManager.Close()
	}

	pushChannel := channel.NewPush(cfg.FCMServerKey, logr)
	users := resolver.NewUserClient(cfg.UserServiceURL, 5*time.Second)
	templates := resolver.NewTemplateClient(cfg.TemplateServiceURL, 5*time.Second)
	reporter := status.NewReporter(cfg.GatewayURL, logr)

	processor := worker.NewProcessor(users, templates, pushChannel, logr)
	coordinator := worker.NewCoordinator(cfg.MaxRetries)

	metrics := ops.NewMetrics()
	opsServer := ops.NewServer("push-worker", cfg.Port, metrics, logr)
	opsServer.Start()

	consumer := worker.NewConsumer(
		worker.ConsumerConfig{
			URL:             cfg.RabbitMQURL,
			Exchange:        "notifications.direct",
			Queue:           "push.queue",
			RoutingKey:      "push",
			DeadLetterQueue: "failed.queue",
		},
		processor,
		coordinator,
		reporter,
		marks,
		deliveryLog,
		metrics,
		logr,
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		consumer.Run(ctx)
		close(done)
	}()

	// Wait for interrupt signal to shut down the worker
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logr.Info("shutting down push worker")

	cancel()
	<-done

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		logr.Error("ops server forced to shutdown", slog.Any("error", err))
	}

	logr.Info("push worker exiting")
}
