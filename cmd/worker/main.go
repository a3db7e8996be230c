package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/aslima544/consultorio-api/internal/config"
	"github.com/aslima544/consultorio-api/internal/repository/postgres"
	cleanup "github.com/aslima544/consultorio-api/internal/worker"
	"github.com/aslima544/consultorio-api/pkg/logger"
	"github.com/aslima544/consultorio-api/pkg/mailer"
	"github.com/aslima544/consultorio-api/pkg/messaging/redis"
	"github.com/aslima544/consultorio-api/pkg/metrics"
	"github.com/aslima544/consultorio-api/pkg/worker"
)

const (
	healthAddr      = ":8081"
	cleanupInterval = time.Hour
)

func setupHealthCheck(db *sqlx.DB, lg *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: healthAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error(err, "health check server failed")
		}
	}()
	return srv
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	lg := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		Format:     cfg.Log.Format,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
	})
	log.Logger = lg.ZL

	// The outbox lives in the API's database, so the in-memory driver has
	// nothing to relay.
	if cfg.Database.Driver != "postgres" {
		lg.Fatal(errors.New("unsupported driver"), "worker requires database.driver=postgres")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		lg.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	client, err := redis.NewClient(ctx, redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Outbox.RetryAttempts,
		RetryBackoff: cfg.Outbox.RetryDelay,
		PoolSize:     cfg.Redis.PoolSize,
	})
	if err != nil {
		lg.Fatal(err, "failed to connect to redis")
	}
	broker := redis.NewRedisBroker(client, lg.ZL)
	defer broker.Close()

	m := metrics.NewMetrics("consultorio", "worker")
	repos := postgres.NewRepositories(db, cfg.Database.QueryTimeout, m)

	processor, err := worker.NewOutboxProcessor(
		repos.Outbox,
		broker,
		mailer.New(mailer.Config{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
		}),
		worker.OutboxProcessorConfig{
			BatchSize:     cfg.Outbox.BatchSize,
			PollInterval:  cfg.Outbox.PollInterval,
			RetryAttempts: cfg.Outbox.RetryAttempts,
			RetryDelay:    cfg.Outbox.RetryDelay,
			MaxRetries:    cfg.Outbox.MaxRetries,
			Channel:       cfg.Outbox.Channel,
		},
		lg,
		m,
	)
	if err != nil {
		lg.Fatal(err, "failed to create outbox processor")
	}

	janitor := cleanup.NewOutboxCleanupWorker(repos.Outbox, cfg.Outbox.Retention, cleanupInterval, lg)
	health := setupHealthCheck(db, lg)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		processor.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		janitor.Start(ctx)
	}()

	<-ctx.Done()
	lg.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = health.Shutdown(shutdownCtx)
	wg.Wait()
}
