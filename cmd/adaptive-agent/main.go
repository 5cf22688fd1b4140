package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saaga0h/jeeves-adaptive/internal/adaptive"
	"github.com/saaga0h/jeeves-adaptive/internal/dispatch"
	"github.com/saaga0h/jeeves-adaptive/internal/history"
	"github.com/saaga0h/jeeves-adaptive/internal/sensors"
	"github.com/saaga0h/jeeves-adaptive/internal/sun"
	"github.com/saaga0h/jeeves-adaptive/internal/timer"
	"github.com/saaga0h/jeeves-adaptive/internal/wake"
	"github.com/saaga0h/jeeves-adaptive/internal/zones"
	"github.com/saaga0h/jeeves-adaptive/pkg/config"
	"github.com/saaga0h/jeeves-adaptive/pkg/health"
	"github.com/saaga0h/jeeves-adaptive/pkg/mqtt"
	"github.com/saaga0h/jeeves-adaptive/pkg/postgres"
	"github.com/saaga0h/jeeves-adaptive/pkg/redis"
)

func main() {
	// Load configuration with hierarchy: defaults → env → flags
	cfg := config.NewConfig()
	cfg.ServiceName = "adaptive-agent"
	cfg.LoadFromEnv()
	cfg.LoadFromFlags()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	zoneFile, err := zones.Load(cfg.ZonesFile)
	if err != nil {
		logger.Error("Failed to load zones", "file", cfg.ZonesFile, "error", err)
		os.Exit(1)
	}
	for _, issue := range zoneFile.RangeErrors() {
		logger.Warn("Zone has an invalid range and will be skipped", "zone", issue.ZoneID, "error", issue.Err)
	}

	logger.Info("Starting J.E.E.V.E.S. Adaptive Lighting Agent",
		"version", "1.0",
		"service_name", cfg.ServiceName,
		"mqtt_broker", cfg.MQTTAddress(),
		"redis_host", cfg.RedisAddress(),
		"zones", zoneFile.IDs(),
		"history", cfg.EnableHistory,
		"log_level", cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	mqttClient := mqtt.NewClient(cfg, logger)
	redisClient := redis.NewClient(cfg, logger)

	// Sensors: MQTT readings first, collector data in Redis as the lux fallback
	cache := sensors.NewCache(0)
	reader := sensors.Chain{
		cache,
		sensors.NewRedisIlluminance(redisClient, time.Duration(cfg.IlluminanceMaxAgeMin)*time.Minute, logger),
	}

	dispatcher := dispatch.New(time.Duration(cfg.NotifyTimeoutSec)*time.Second, logger)
	monitor := adaptive.NewTickMonitor()

	sinks := []adaptive.EventSink{monitor, adaptive.NewTickPublisher(mqttClient)}
	if cfg.BoundariesCacheSec > 0 {
		sinks = append(sinks, adaptive.NewBoundaryCache(redisClient, time.Duration(cfg.BoundariesCacheSec)*time.Second))
	}

	var pgClient *postgres.PostgresClient
	if cfg.EnableHistory {
		pgClient = postgres.NewClient(cfg, logger)
		recorder, err := setupHistory(ctx, pgClient, cfg, logger)
		if err != nil {
			logger.Error("Failed to set up tick history", "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, recorder)
	}

	controller := adaptive.NewController(adaptive.Deps{
		Zones:   zoneFile.Zones,
		Presets: zoneFile.PresetTable(),
		Sensors: reader,
		SensorIDs: adaptive.SensorIDs{
			Lux:           cfg.LuxSensorID,
			Weather:       cfg.WeatherSensorID,
			CloudCoverage: cfg.CloudCoverageSensorID,
		},
		Sun:         sun.NewCalculator(cfg.Latitude, cfg.Longitude),
		Wake:        wake.NewSequence(cfg.WakeTargetZone, cfg.WakeRamp(), cfg.WakeMaxBoost, logger),
		Store:       timer.NewRedisStore(redisClient),
		Driver:      adaptive.NewMQTTDriver(mqttClient, logger),
		Sinks:       sinks,
		Dispatcher:  dispatcher,
		BaseTimeout: cfg.BaseTimeout(),
	}, logger)

	agent := adaptive.NewAgent(mqttClient, redisClient, controller, cache, dispatcher, cfg, logger)

	healthChecker := health.NewChecker(mqttClient, redisClient, logger).
		WithLoop(monitor, 3*cfg.TickInterval())
	if pgClient != nil {
		healthChecker.WithPostgres(pgClient)
	}
	httpServer := startHealthServer(cfg.HealthPort, healthChecker, logger)

	agentErr := make(chan error, 1)
	go func() {
		if err := agent.Start(ctx); err != nil {
			logger.Error("Agent error", "error", err)
			agentErr <- err
		}
	}()

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received (SIGTERM/SIGINT)")
	case err := <-agentErr:
		logger.Error("Agent failed", "error", err)
	}

	logger.Info("Initiating graceful shutdown")
	cancel()

	if err := agent.Stop(); err != nil {
		logger.Error("Error stopping agent", "error", err)
	}

	if pgClient != nil {
		if err := pgClient.Disconnect(); err != nil {
			logger.Error("Error closing Postgres connection", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down health server", "error", err)
	}

	logger.Info("Adaptive agent shutdown complete")
}

// setupHistory connects Postgres, creates the events table and prunes old rows
func setupHistory(ctx context.Context, pg *postgres.PostgresClient, cfg *config.Config, logger *slog.Logger) (*history.Recorder, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := pg.Connect(connectCtx); err != nil {
		return nil, err
	}

	recorder := history.NewRecorder(pg, logger)
	if err := recorder.EnsureSchema(connectCtx); err != nil {
		return nil, err
	}

	retention := time.Duration(cfg.HistoryRetentionDays) * 24 * time.Hour
	if _, err := recorder.Prune(connectCtx, retention); err != nil {
		logger.Warn("Failed to prune tick history", "error", err)
	}

	return recorder, nil
}

func startHealthServer(port int, checker *health.Checker, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", checker.HandlerFunc())
	mux.HandleFunc("/health/detailed", checker.DetailedHandlerFunc())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		logger.Info("Starting health check server", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Health server error", "error", err)
		}
	}()

	return server
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
