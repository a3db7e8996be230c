package main

import (
	"context"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/aslima544/consultorio-api/internal/config"
	"github.com/aslima544/consultorio-api/internal/repository"
	"github.com/aslima544/consultorio-api/internal/repository/memory"
	"github.com/aslima544/consultorio-api/internal/repository/postgres"
	"github.com/aslima544/consultorio-api/pkg/logger"
	"github.com/aslima544/consultorio-api/pkg/messaging/redis"
	"github.com/aslima544/consultorio-api/pkg/metrics"
)

// runtime holds the process-wide resources shared by every subcommand.
type runtime struct {
	cfg     *config.Config
	log     *logger.Logger
	metrics *metrics.Metrics
	repos   *repository.Repositories
	db      *sqlx.DB
	redis   *goredis.Client
}

func newLogger(cfg config.LogConfig) *logger.Logger {
	lg := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Level),
		Format:     cfg.Format,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
	})
	log.Logger = lg.ZL
	return lg
}

// setup loads the configuration and opens the store. Redis is only dialed
// when withRedis is set; a failed dial is logged and the process continues
// without the distributed room lock.
func setup(ctx context.Context, withRedis bool) (*runtime, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	rt := &runtime{
		cfg:     cfg,
		log:     newLogger(cfg.Log),
		metrics: metrics.NewMetrics("consultorio", "api"),
	}

	switch cfg.Database.Driver {
	case "memory":
		rt.repos = memory.NewRepositories()
	default:
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		rt.db = db
		rt.repos = postgres.NewRepositories(db, cfg.Database.QueryTimeout, rt.metrics)
	}

	if withRedis && cfg.Redis.URL != "" {
		client, err := redis.NewClient(ctx, redis.Config{
			URL:      cfg.Redis.URL,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			rt.log.Error(err, "redis unavailable, room locks disabled")
		} else {
			rt.redis = client
		}
	}

	return rt, nil
}

func (rt *runtime) Close() {
	if rt.redis != nil {
		_ = rt.redis.Close()
	}
	if rt.db != nil {
		_ = rt.db.Close()
	}
}
