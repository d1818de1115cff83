package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/seecr/gmh-registration-service/internal/credential"
	"github.com/seecr/gmh-registration-service/internal/credential/lockout"
	credentialservice "github.com/seecr/gmh-registration-service/internal/credential/service"
	credentialstore "github.com/seecr/gmh-registration-service/internal/credential/store"
	"github.com/seecr/gmh-registration-service/internal/platform/config"
	"github.com/seecr/gmh-registration-service/internal/platform/database"
	"github.com/seecr/gmh-registration-service/internal/platform/httpserver"
	"github.com/seecr/gmh-registration-service/internal/platform/logger"
	platformmetrics "github.com/seecr/gmh-registration-service/internal/platform/metrics"
	"github.com/seecr/gmh-registration-service/internal/platform/redis"
	"github.com/seecr/gmh-registration-service/internal/platform/tracing"
	"github.com/seecr/gmh-registration-service/internal/registration"
	registrationmetrics "github.com/seecr/gmh-registration-service/internal/registration/metrics"
	registrationservice "github.com/seecr/gmh-registration-service/internal/registration/service"
	registrationstore "github.com/seecr/gmh-registration-service/internal/registration/store"
	httptransport "github.com/seecr/gmh-registration-service/internal/transport/http"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
}

// backends are the stores selected by configuration plus what is needed to
// check and release them.
type backends struct {
	registry    registrationservice.Repository
	credentials credentialservice.Store
	lockout     lockout.Store
	checks      map[string]httptransport.HealthCheck
	closers     []func() error
}

func (b *backends) close(log *slog.Logger) {
	for _, c := range b.closers {
		if err := c(); err != nil {
			log.Warn("failed to close backend", "error", err.Error())
		}
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.NewProvider(ctx, cfg.Tracing, os.Stdout)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}

	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.close(log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	lockouts := lockout.New(b.lockout,
		lockout.WithLogger(log),
		lockout.WithConfig(lockout.Config{
			AttemptsPerWindow: cfg.Lockout.AttemptsPerWindow,
			Window:            cfg.Lockout.Window,
		}),
	)
	credentials := credential.NewService(b.credentials,
		credentialservice.WithLogger(log),
		credentialservice.WithLockout(lockouts),
	)
	registry := registration.NewService(b.registry,
		registrationservice.WithLogger(log),
		registrationservice.WithMetrics(registrationmetrics.New(reg)),
		registrationservice.WithTracer(tp.Tracer()),
	)

	router := httptransport.NewRouter(httptransport.Dependencies{
		Logger:       log,
		Metrics:      platformmetrics.New(reg),
		Gatherer:     reg,
		Resolver:     credentials,
		Credential:   credential.NewHandler(credentials, log),
		Registration: registration.NewHandler(registry, log),
		HealthChecks: b.checks,
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting gmh-registration-service",
			"addr", cfg.Server.Addr,
			"store", cfg.Database.Store,
			"tracing", cfg.Tracing.Exporter,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return tp.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openBackends(ctx context.Context, cfg config.Config, log *slog.Logger) (*backends, error) {
	b := &backends{checks: make(map[string]httptransport.HealthCheck)}

	switch cfg.Database.Store {
	case config.StorePostgres:
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, db.Close)
		b.registry = registrationstore.NewPostgres(db, registrationstore.WithStatementTimeout(cfg.Database.TxTimeout))
		b.credentials = credentialstore.NewPostgres(db)
		b.checks["postgres"] = db.PingContext
	case config.StoreMemory:
		mem := registrationstore.NewInMemory(registrationstore.WithTxTimeout(cfg.Database.TxTimeout))
		creds := credentialstore.NewInMemory()
		if cfg.Bootstrap.Enabled() {
			registrant, err := credentialstore.SeedBootstrapRegistrant(ctx, creds, credentialstore.Bootstrap{
				GroupID:  cfg.Bootstrap.GroupID,
				Prefix:   cfg.Bootstrap.Prefix,
				IsLTP:    cfg.Bootstrap.IsLTP,
				Username: cfg.Bootstrap.Username,
				Password: cfg.Bootstrap.Password,
			})
			if err != nil {
				return nil, err
			}
			log.Info("seeded bootstrap registrant", "group_id", registrant.GroupID, "prefix", registrant.Prefix)
		} else {
			log.Warn("memory store has no registrants; set GMH_BOOTSTRAP_* to seed one")
		}
		b.registry = mem
		b.credentials = creds
		b.checks["store"] = mem.Ping
	}

	if cfg.Redis.URL == "" {
		b.lockout = lockout.NewInMemory()
		return b, nil
	}
	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		b.close(log)
		return nil, err
	}
	b.closers = append(b.closers, client.Close)
	b.lockout = lockout.NewRedis(client.Client)
	b.checks["redis"] = client.Health
	return b, nil
}

// openPostgres is used by the operator commands, which only make sense
// against a persistent store.
func openPostgres(ctx context.Context) (*sql.DB, config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if cfg.Database.Store != config.StorePostgres {
		return nil, cfg, fmt.Errorf("this command needs the postgres store, configured store is %q", cfg.Database.Store)
	}
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, cfg, err
	}
	return db, cfg, nil
}
