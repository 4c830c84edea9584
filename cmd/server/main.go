package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"registrar/internal/client/backend"
	clienthandler "registrar/internal/client/handler"
	clientmetrics "registrar/internal/client/metrics"
	"registrar/internal/client/models"
	"registrar/internal/client/service"
	"registrar/internal/client/store"
	"registrar/internal/platform/config"
	"registrar/internal/platform/environment"
	"registrar/internal/platform/httpserver"
	"registrar/internal/platform/logger"
	"registrar/internal/platform/metrics"
	"registrar/internal/platform/postgres"
	"registrar/internal/platform/redis"
	httptransport "registrar/internal/transport/http"
	id "registrar/pkg/domain"
	"registrar/pkg/platform/circuit"
)

// main wires high-level dependencies, validates the persisted client once at
// boot and serves the registry until interrupted.
func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("registrar stopped", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	health := map[string]httptransport.HealthCheck{}
	storeCfg := store.Config{
		Driver:     cfg.Store.Driver,
		SQLitePath: cfg.Store.SQLitePath,
		KeyPrefix:  cfg.Store.KeyPrefix,
	}
	switch cfg.Store.Driver {
	case config.DriverRedis:
		rc, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rc.Close()
		storeCfg.Redis = rc.Client
		health["redis"] = rc.Health
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := store.NewPostgres(pool).Migrate(ctx); err != nil {
			return err
		}
		storeCfg.Postgres = pool
		health["postgres"] = pool.Ping
	}

	local, err := store.New(storeCfg)
	if err != nil {
		return fmt.Errorf("open local store: %w", err)
	}
	if closer, ok := local.(io.Closer); ok {
		defer closer.Close()
	}

	remote, err := backend.New(backend.Config{
		BaseURL: cfg.Backend.URL,
		Token:   cfg.Backend.Token,
		Timeout: cfg.Backend.Timeout,
	})
	if err != nil {
		return err
	}
	authority := backend.NewGuarded(remote, circuit.New("backend",
		circuit.WithFailureThreshold(cfg.Backend.BreakerFailures),
		circuit.WithCooldown(cfg.Backend.BreakerCooldown),
	), log)

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(clientmetrics.NewWithRegisterer(reg)),
		service.WithEnvironment(hostEnvironment(cfg, log)),
	}
	if cfg.SelfUserID != "" {
		selfUserID, err := id.ParseUserID(cfg.SelfUserID)
		if err != nil {
			return err
		}
		opts = append(opts, service.WithSelfUserID(selfUserID))
	}
	svc, err := service.New(local, authority, opts...)
	if err != nil {
		return err
	}

	validateAtBoot(ctx, svc, log)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:     log,
		Metrics:    metrics.New(reg),
		Gatherer:   reg,
		AdminToken: cfg.AdminToken,
		Health:     health,
		Modules:    []httptransport.Registrar{clienthandler.New(svc, log)},
	})
	return httpserver.Run(ctx, httpserver.New(cfg.Addr, router), 10*time.Second, log)
}

// hostEnvironment combines the configured desktop flag with what the user
// agent says about the host.
func hostEnvironment(cfg config.Config, log *slog.Logger) environment.Environment {
	if cfg.UserAgent == "" {
		return environment.Static{Desktop: cfg.Desktop}
	}
	host := environment.DetectWithMarkers(cfg.UserAgent, cfg.DesktopMarkers)
	host.Desktop = host.Desktop || cfg.Desktop
	log.Info("host detected",
		"desktop", host.Desktop,
		"class", string(host.Class),
		"display_name", host.DisplayName,
	)
	return host
}

// validateAtBoot runs the local client validation once. Failures are logged
// and the process keeps serving; NoValidClient means registration is needed.
func validateAtBoot(ctx context.Context, svc *service.Service, log *slog.Logger) {
	client, err := svc.GetValidLocalClient(ctx)
	var ce *models.ClientError
	switch {
	case err == nil:
		log.Info("boot validation succeeded", "client_id", client.ID.String())
	case errors.As(err, &ce) && ce.Kind == models.KindNoValidClient:
		log.Warn("no valid local client, registration required")
	default:
		log.Error("boot validation failed, keeping local state", "error", err)
	}
}
