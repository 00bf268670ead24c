package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Brownie44l1/agrosathi-api/internal/config"
	"github.com/Brownie44l1/agrosathi-api/internal/enrichment"
	"github.com/Brownie44l1/agrosathi-api/internal/handlers"
	"github.com/Brownie44l1/agrosathi-api/internal/labels"
	"github.com/Brownie44l1/agrosathi-api/internal/logging"
	"github.com/Brownie44l1/agrosathi-api/internal/model"
	"github.com/Brownie44l1/agrosathi-api/internal/notify"
	"github.com/Brownie44l1/agrosathi-api/internal/service"
)

const appName = "agrosathi-api"

// Set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg, version, appName)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}

	slog.Info("shutting down")
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	root := projectRoot()
	modelPath := resolvePath(root, cfg.ModelPath)
	metadataPath := resolvePath(root, cfg.ModelMetadataPath)

	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"modelPath", modelPath,
		"metadataPath", metadataPath,
		"modelPoolSize", cfg.ModelPoolSize,
		"weatherBaseURL", cfg.WeatherBaseURL,
		"geocodeBaseURL", cfg.GeocodeBaseURL,
		"enrichmentTimeout", cfg.EnrichmentTimeout,
		"snsRegion", cfg.SNSRegion,
	)

	catalog := labels.Default()
	modelServer, err := model.NewServer(model.Options{
		ModelPath:    modelPath,
		MetadataPath: metadataPath,
		LibraryPath:  cfg.ONNXLibraryPath,
		PoolSize:     cfg.ModelPoolSize,
		NumClasses:   catalog.Size(),
	})
	if err != nil {
		return fmt.Errorf("initialize model server: %w", err)
	}
	defer modelServer.Close()

	enricher := enrichment.NewClient(enrichment.Options{
		WeatherBaseURL: cfg.WeatherBaseURL,
		GeocodeBaseURL: cfg.GeocodeBaseURL,
		UserAgent:      cfg.GeocodeUserAgent,
		Timeout:        cfg.EnrichmentTimeout,
		Logger:         logger,
	})

	svc := service.New(service.Options{
		Predictor: modelServer,
		Catalog:   catalog,
		Enricher:  enricher,
		Defaults: &enrichment.Coordinates{
			Latitude:  cfg.DefaultLatitude,
			Longitude: cfg.DefaultLongitude,
		},
		Logger: logger,
	})

	var sender notify.Sender = notify.NewLogSender(logger)
	if cfg.SNSRegion != "" {
		snsSender, err := notify.NewSNSSender(ctx, cfg.SNSRegion, logger)
		if err != nil {
			return fmt.Errorf("initialize sns sender: %w", err)
		}
		sender = snsSender
	}

	h := handlers.NewHandler(handlers.Options{
		Service:        svc,
		Sender:         sender,
		ModelVersion:   modelServer.Metadata.Version,
		Classes:        catalog.Size(),
		MaxUploadBytes: cfg.MaxUploadBytes,
		AllowedOrigin:  cfg.CORSAllowedOrigin,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr, "modelVersion", modelServer.Metadata.Version)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}

// projectRoot is the working directory, or the repo root when started from cmd/server.
func projectRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	if filepath.Base(wd) == "server" && filepath.Base(filepath.Dir(wd)) == "cmd" {
		return filepath.Join(wd, "..", "..")
	}
	return wd
}

func resolvePath(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
