// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/dealwatch/internal/api"
	"github.com/tomtom215/dealwatch/internal/cache"
	"github.com/tomtom215/dealwatch/internal/config"
	"github.com/tomtom215/dealwatch/internal/escalation"
	"github.com/tomtom215/dealwatch/internal/events"
	"github.com/tomtom215/dealwatch/internal/gate"
	"github.com/tomtom215/dealwatch/internal/logging"
	"github.com/tomtom215/dealwatch/internal/pipedrive"
	"github.com/tomtom215/dealwatch/internal/registry"
	"github.com/tomtom215/dealwatch/internal/supervisor"
	"github.com/tomtom215/dealwatch/internal/supervisor/services"
	"github.com/tomtom215/dealwatch/internal/sweep"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Format = cfg.Logging.Format
	logCfg.Caller = cfg.Logging.Caller
	logging.Init(logCfg)

	logging.Info().
		Str("version", version).
		Str("addr", cfg.Server.Addr()).
		Bool("sweep_enabled", cfg.Sweep.Enabled).
		Bool("webhook_auth", cfg.Webhook.AuthEnabled()).
		Msg("Starting dealwatch")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		logging.Fatal().Err(err).Msg("dealwatch stopped")
	}
	logging.Info().Msg("Shutdown complete")
}

func run(ctx context.Context, cfg *config.Config) error {
	client := pipedrive.NewBreakerClient(pipedrive.NewClient(&cfg.Pipedrive))

	reg, err := registry.Open(cfg.Registry.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := reg.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close registry")
		}
	}()

	engine, err := escalation.NewEngine(client, cfg, nil, reg)
	if err != nil {
		return err
	}

	var bus *events.Bus
	if cfg.Events.Enabled {
		bus, err = events.NewBus(cfg.Events)
		if err != nil {
			return err
		}
		defer func() {
			if err := bus.Close(); err != nil {
				logging.Error().Err(err).Msg("Failed to close event bus")
			}
		}()
		engine.Factory.SetNotifier(bus)
	}

	var (
		gateOpts  []gate.Option
		gateStats api.GateStats
	)
	if cfg.Redis.Enabled {
		stats, err := gate.NewRedisStatsFromConfig(ctx, cfg.Redis)
		if err != nil {
			// Statistics are optional; the gate itself stays in memory.
			logging.Warn().Err(err).Msg("Redis unavailable, gate statistics disabled")
		} else {
			defer func() {
				if err := stats.Close(); err != nil {
					logging.Error().Err(err).Msg("Failed to close Redis client")
				}
			}()
			gateOpts = append(gateOpts, gate.WithStats(stats))
			gateStats = stats
		}
	}
	eventGate := gate.New(cfg.Gate, gateOpts...)

	router, err := api.NewRouter(api.Deps{
		Config:     cfg,
		Gate:       eventGate,
		GateStats:  gateStats,
		Dispatcher: engine.Dispatcher,
		Processor:  engine.Processor,
		Pipedrive:  client,
		Registry:   reg,
		Breaker:    client,
		Version:    version,
	})
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * time.Minute,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddDataService(services.NewPeriodicService("registry-gc", cfg.Registry.GCInterval, func(context.Context) error {
		return reg.RunGC()
	}))
	if cfg.Sweep.Enabled {
		tree.AddProcessingService(sweep.New(engine.Processor, reg, cfg.Sweep))
	}
	if bus != nil {
		tree.AddProcessingService(events.NewAuditLog(bus))
	}
	stores := append([]cache.Sweepable{eventGate}, engine.Reads.Stores()...)
	tree.AddProcessingService(cache.NewSweeper(cfg.Gate.SweepInterval, stores...))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Addr(), cfg.Server.ShutdownTimeout))

	err = tree.Serve(ctx)
	if report, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop in time")
		}
	}
	return err
}
