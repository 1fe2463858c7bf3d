package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/pharmalink/marketplace-api/internal/config"
	"github.com/pharmalink/marketplace-api/internal/repository/postgres"
	"github.com/pharmalink/marketplace-api/internal/service/notification"
	"github.com/pharmalink/marketplace-api/pkg/logger"
	"github.com/pharmalink/marketplace-api/pkg/messaging/redis"
	"github.com/pharmalink/marketplace-api/pkg/metrics"
	"github.com/pharmalink/marketplace-api/pkg/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	lg := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewBroker(redis.Config{URL: cfg.Redis.URL}, lg.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	outboxRepo := postgres.NewOutboxRepository(db)
	userRepo := postgres.NewUserRepository(db)
	notifSvc := notification.NewEmailService(cfg.SMTP)

	processor := worker.NewOutboxProcessor(
		outboxRepo,
		broker,
		worker.OutboxProcessorConfig{
			BatchSize:       cfg.Worker.BatchSize,
			PollInterval:    cfg.Worker.PollInterval,
			RetentionDays:   cfg.Worker.RetentionDays,
			CleanupInterval: cfg.Worker.CleanupInterval,
		},
		lg,
		metrics.New("outbox_worker"),
	)

	startOpsServer(cfg.Worker.MetricsPort, lg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		lg.Info("Shutting down...")
		cancel()
	}()

	notifier := worker.NewOrderNotifier(broker, userRepo, notifSvc, lg)
	go func() {
		if err := notifier.Start(ctx); err != nil {
			lg.Error(err, "Order notifier stopped")
		}
	}()

	processor.Start(ctx)
}

func startOpsServer(port int, lg *logger.Logger) {
	if port <= 0 {
		port = 9090
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux); err != nil {
			lg.Fatal(err, "Ops server failed")
		}
	}()
}
