package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/healthfirst/portal/internal/portalapi"
	"github.com/healthfirst/portal/pkg/config"
	"github.com/healthfirst/portal/pkg/database"
	"github.com/healthfirst/portal/pkg/interfaces"
	"github.com/healthfirst/portal/pkg/logger"
	"github.com/healthfirst/portal/pkg/monitoring"
)

const serviceVersion = "2.0.1"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Monitoring.Tracing {
		tp, err := monitoring.InstallTracerProvider(ctx, monitoring.TracingConfig{
			ServiceName:    cfg.Monitoring.ServiceName,
			ServiceVersion: serviceVersion,
			Environment:    cfg.Monitoring.Environment,
			SamplingRate:   cfg.Monitoring.TraceSampleRatio,
		})
		if err != nil {
			logger.WithError(err).Fatal("Failed to set up tracing")
		}
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	metrics := monitoring.NewMetricsCollector(cfg.Monitoring.ServiceName)
	tracing := monitoring.NewTracingManager(cfg.Monitoring.ServiceName)
	health := monitoring.NewHealthManager(cfg.Monitoring.ServiceName, serviceVersion)

	// Pick the repository: Postgres when configured, memory otherwise
	var (
		accounts     interfaces.AccountRepository
		availability interfaces.AvailabilityRepository
	)
	if cfg.Database.Enabled() {
		db, err := database.NewConnection(ctx, &cfg.Database, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to database")
		}
		defer db.Close()

		if err := db.CreateSchema(ctx); err != nil {
			logger.WithError(err).Fatal("Failed to create database schema")
		}
		health.RegisterChecker("database", monitoring.NewDatabaseHealthChecker(db.DB))

		repo := portalapi.NewPostgresRepository(db, logger, metrics)
		accounts, availability = repo, repo
	} else {
		logger.Warn("No database configured; accounts are kept in memory")
		repo := portalapi.NewMemoryRepository()
		accounts, availability = repo, repo
	}

	tokens := portalapi.NewTokenIssuer(cfg.JWT)
	service := portalapi.NewService(accounts, availability, tokens, logger, portalapi.WithMetrics(metrics))

	if cfg.Server.SeedDemoAccounts {
		if err := service.SeedDemoAccounts(ctx); err != nil {
			logger.WithError(err).Fatal("Failed to seed demo accounts")
		}
	}

	opts := []portalapi.ServerOption{
		portalapi.WithHealth(health),
		portalapi.WithPaths(cfg.Monitoring),
	}
	if cfg.Monitoring.Enabled {
		opts = append(opts, portalapi.WithMonitoring(metrics, tracing))
	}
	if cfg.RateLimit.Enabled {
		limiter := portalapi.NewRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstSize)
		limiter.StartCleanup(ctx, time.Duration(cfg.RateLimit.CleanupInterval)*time.Second)
		opts = append(opts, portalapi.WithRateLimiter(limiter))
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      portalapi.NewServer(service, tokens, logger, opts...).Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.WithField("addr", server.Addr).Info("Starting Portal API")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start Portal API")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down Portal API...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Error during shutdown")
	}
	logger.Info("Portal API stopped")
}
