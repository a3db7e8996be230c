package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/aslima544/consultorio-api/internal/app"
	"github.com/aslima544/consultorio-api/internal/handler/health"
	"github.com/aslima544/consultorio-api/internal/lock"
	"github.com/aslima544/consultorio-api/internal/middleware"
	"github.com/aslima544/consultorio-api/internal/repository/postgres"
	"github.com/aslima544/consultorio-api/internal/router"
	authsvc "github.com/aslima544/consultorio-api/internal/service/auth"
	"github.com/aslima544/consultorio-api/internal/service/seed"
	"github.com/aslima544/consultorio-api/pkg/auth"
	"github.com/aslima544/consultorio-api/pkg/security"
)

const shutdownTimeout = 10 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:   "consultorio-api",
		Short: "Clinic room scheduling API",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			rt, err := setup(ctx, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			if rt.db == nil {
				return errors.New("migrate requires database.driver=postgres")
			}
			applied, err := postgres.Migrate(ctx, rt.db, rt.log.ZL)
			if err != nil {
				return err
			}
			rt.log.Info("migrations applied", "count", applied)
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var demo int

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert reference data and optionally fake patients and doctors",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			rt, err := setup(ctx, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			if rt.db == nil {
				rt.log.Warn("seeding the in-memory store, data is lost on exit")
			}
			seeder := seed.NewService(rt.repos, security.NewBcryptHasher(0), rt.log)
			res, err := seeder.Bootstrap(ctx, seed.Admin{
				Username: rt.cfg.Auth.AdminUsername,
				Password: rt.cfg.Auth.AdminPassword,
			})
			if err != nil {
				return err
			}
			rt.log.Info("reference data seeded",
				"rooms", res.Rooms,
				"specialties", res.Specialties,
				"schedule_entries", res.Schedule,
				"admin_created", res.Admin,
			)

			if demo > 0 {
				patients, doctors, err := seeder.Demo(ctx, demo)
				if err != nil {
					return err
				}
				rt.log.Info("demo data seeded", "patients", patients, "doctors", doctors)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&demo, "demo", 0, "number of fake patients to create")
	return cmd
}

func runServer() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := setup(ctx, true)
	if err != nil {
		return err
	}
	defer rt.Close()
	cfg := rt.cfg

	if rt.db != nil && cfg.Database.MigrateOnStart {
		if _, err := postgres.Migrate(ctx, rt.db, rt.log.ZL); err != nil {
			return err
		}
	}

	var (
		locker    = lock.NewNoopLocker()
		dbPing    health.Pinger
		redisPing health.Pinger
	)
	if rt.db != nil {
		dbPing = rt.db.PingContext
	}
	if rt.redis != nil {
		locker = lock.NewRedisLocker(rt.redis, cfg.Redis.LockTTL, cfg.Redis.LockWait, rt.log)
		redisPing = func(ctx context.Context) error { return rt.redis.Ping(ctx).Err() }
	}

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.Server.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	}

	a, err := app.New(app.Deps{
		Repos:   rt.repos,
		Locker:  locker,
		Metrics: rt.metrics,
		Logger:  rt.log,
		Hasher:  security.NewBcryptHasher(0),
		JWT:     auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiry()),
		Auth: authsvc.Options{
			MaxFailures:   cfg.Auth.MaxFailures,
			LockoutPeriod: cfg.Auth.LockoutPeriod,
		},
		DBPing:    dbPing,
		RedisPing: redisPing,
		Router: router.RouterConfig{
			Mode:           cfg.Server.Mode,
			RateLimit:      rate.Limit(cfg.Server.RateLimit),
			RateBurst:      cfg.Server.RateBurst,
			RequestTimeout: cfg.Server.RequestTimeout,
			MaxBodySize:    middleware.DefaultMaxBodySize,
			CORSConfig:     corsConfig,
		},
	})
	if err != nil {
		return err
	}

	if _, err := a.Seed.Bootstrap(ctx, seed.Admin{
		Username: cfg.Auth.AdminUsername,
		Password: cfg.Auth.AdminPassword,
	}); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("driver", cfg.Database.Driver).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server exited properly")
	return nil
}
