// apiserver runs the MeasureLink extraction pipeline as an HTTP service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turtacn/MeasureLink/internal/application/extraction"
	"github.com/turtacn/MeasureLink/internal/config"
	"github.com/turtacn/MeasureLink/internal/engine/pattern"
	"github.com/turtacn/MeasureLink/internal/engine/relation"
	"github.com/turtacn/MeasureLink/internal/infrastructure/annotator"
	"github.com/turtacn/MeasureLink/internal/infrastructure/cache"
	"github.com/turtacn/MeasureLink/internal/infrastructure/detector"
	"github.com/turtacn/MeasureLink/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/MeasureLink/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MeasureLink/internal/infrastructure/monitoring/prometheus"
	httpserver "github.com/turtacn/MeasureLink/internal/interfaces/http"
)

// Version is injected at build time via ldflags.
var Version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:            cfg.Log.Level,
		Format:           cfg.Log.Format,
		OutputPaths:      cfg.Log.OutputPaths,
		ErrorOutputPaths: cfg.Log.ErrorOutputPaths,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)
	logger.Info("starting measurelink api server",
		logging.String("version", Version),
		logging.Int("port", cfg.Server.Port))

	// A malformed rule document is fatal: the engine cannot run partially.
	rules, err := pattern.Load(cfg.Patterns.Path)
	if err != nil {
		logger.Fatal("failed to load dependency patterns",
			logging.String("path", cfg.Patterns.Path), logging.Err(err))
	}

	metrics := prometheus.New(prometheus.Config{
		EnableGoMetrics: true,
		EnableProcStats: true,
	})

	var checkers []httpserver.HealthChecker

	var responseCache cache.Cache
	if cfg.Redis.Enabled {
		responseCache, err = cache.New(cfg.Redis, logger)
		if err != nil {
			logger.Fatal("failed to connect to redis", logging.Err(err))
		}
		defer responseCache.Close()
		checkers = append(checkers, cacheChecker{responseCache})
	}

	var publisher extraction.Publisher
	if cfg.Kafka.Enabled {
		kafkaPublisher := kafka.NewPublisher(cfg.Kafka, logger)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	service := extraction.NewService(extraction.Options{
		Annotator: annotator.NewHTTPClient(annotator.Config{
			Endpoint: cfg.Annotator.Endpoint,
			Timeout:  cfg.Annotator.Timeout,
		}, logger),
		Detector: detector.NewHTTPClient(detector.Config{
			Endpoint: cfg.Detector.Endpoint,
			Timeout:  cfg.Detector.Timeout,
		}, logger),
		Engine:      relation.New(rules, logger),
		Cache:       responseCache,
		Publisher:   publisher,
		Metrics:     metrics,
		Logger:      logger,
		Concurrency: cfg.Worker.Concurrency,
	})

	router := httpserver.NewRouter(httpserver.RouterConfig{
		Extractor: service,
		Metrics:   metrics,
		Logger:    logger,
		Checkers:  checkers,
		Version:   Version,
	})
	server := httpserver.NewServer(cfg.Server, router, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("http server failed", logging.Err(err))
		}
	case sig := <-quit:
		logger.Info("shutting down", logging.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		logger.Error("shutdown incomplete", logging.Err(err))
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}

// cacheChecker adapts the cache's ping to the readiness probe.
type cacheChecker struct {
	cache cache.Cache
}

func (c cacheChecker) Name() string                    { return "redis" }
func (c cacheChecker) Check(ctx context.Context) error { return c.cache.Ping(ctx) }
