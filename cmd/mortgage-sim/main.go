package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hipotecaperu/mortgage-sim/internal/calculator"
	"github.com/hipotecaperu/mortgage-sim/internal/catalog"
	"github.com/hipotecaperu/mortgage-sim/internal/config"
	"github.com/hipotecaperu/mortgage-sim/internal/form"
	"github.com/hipotecaperu/mortgage-sim/internal/metrics"
	"github.com/hipotecaperu/mortgage-sim/internal/rates"
	"github.com/hipotecaperu/mortgage-sim/internal/server"
	"github.com/hipotecaperu/mortgage-sim/internal/session"
	"github.com/hipotecaperu/mortgage-sim/pkg/constants"
)

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.Logging, logLevelOverride string) (*zap.Logger, error) {
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info"
	}

	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	format := loggingConfig.Format
	if format == "" {
		format = "json"
	}

	var zapConfig zap.Config
	switch format {
	case "console":
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	case "json":
		zapConfig = zap.NewProductionConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	return zapConfig.Build()
}

func main() {
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := initializeLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	collector := metrics.NewPrometheusCollector("mortgage_sim")
	cat := catalog.Default()

	fetcher := rates.NewClient(rates.ClientConfig{
		BaseURL: conf.RateFeed.URL,
		HTTPClient: &http.Client{
			Timeout: time.Duration(conf.RateFeed.TimeoutSeconds) * time.Second,
		},
	}, collector, logger.Named("rates"))

	resolver := rates.NewResolver(cat, collector, logger.Named("rates"))

	calc := calculator.NewClient(calculator.ClientConfig{
		BaseURL: conf.Calculator.URL,
		HTTPClient: &http.Client{
			Timeout: time.Duration(conf.Calculator.TimeoutSeconds) * time.Second,
		},
	}, collector, logger.Named("calculator"))

	sessions, err := session.NewManager(
		session.NewFileStore(conf.Session.FilePath), logger.Named("session"))
	if err != nil {
		logger.Fatal("failed to restore session store",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	srv := server.New(server.Config{Address: conf.Server.Address}, server.Deps{
		Catalog:    cat,
		Fetcher:    fetcher,
		Resolver:   resolver,
		Engine:     form.NewEngine(resolver, logger.Named("form")),
		Calculator: calc,
		Sessions:   sessions,
		Metrics:    collector.Handler(),
	}, logger.Named("server"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server failed",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	case sig := <-signals:
		logger.Info("shutting down",
			zap.String("op", "main"),
			zap.String("signal", sig.String()),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("shutdown failed",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}
}
