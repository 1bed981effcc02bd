// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/client"
	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/config"
	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/handler"
	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/metrics"
	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/prov"
	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/resources"
	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/tracing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

const (
	serviceName     = "vmprov"
	shutdownTimeout = 30 * time.Second
)

var (
	version = "dev"
	commit  = "none"
)

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	// The Functions host captures stdout line by line, so JSON there; a
	// terminal gets the console writer.
	if fi, err := os.Stderr.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(level).
			With().Timestamp().Str("service", serviceName).Logger()
	}
	return zerolog.New(os.Stdout).
		Level(level).
		With().Timestamp().Str("service", serviceName).Logger()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		zerolog.New(os.Stderr).Fatal().Err(err).Msg("failed to load configuration")
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, serviceName)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init tracer")
	}
	defer shutdownTracing(context.Background())

	azureClient, err := client.NewClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create Azure client")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	provisioner := prov.New(resources.NewAzure(azureClient, cfg), cfg, m)
	server := handler.NewServer(provisioner, m, reg, logger)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	logger.Info().
		Str("version", version).
		Str("commit", commit).
		Str("addr", cfg.ListenAddr).
		Bool("rollbackOnFailure", cfg.RollbackOnFailure).
		Int("retryMaxAttempts", cfg.Retry.MaxAttempts).
		Msg("starting")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited")
	}
	<-drained
}
