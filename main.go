package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mrops-br/catalog-api/internal/app/service"
	"github.com/mrops-br/catalog-api/internal/infrastructure/config"
	"github.com/mrops-br/catalog-api/internal/infrastructure/http"
	"github.com/mrops-br/catalog-api/internal/infrastructure/http/handler"
	"github.com/mrops-br/catalog-api/internal/infrastructure/http/request"
	"github.com/mrops-br/catalog-api/internal/infrastructure/repository"
	"github.com/mrops-br/catalog-api/internal/infrastructure/telemetry"
	"golang.org/x/sync/errgroup"
)

const instrumentationName = "catalog-api"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := telemetry.NewLogger(os.Stdout, telemetry.ParseLevel(cfg.Log.Level), &cfg.OTLP)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Service exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	var telem *telemetry.Telemetry
	if cfg.OTLP.Enabled {
		var err error
		telem, err = telemetry.NewTelemetry(ctx, &cfg.OTLP, logger)
		if err != nil {
			return err
		}
	} else {
		telem = telemetry.NewNoOpTelemetry(logger)
	}

	// Flush telemetry last so shutdown spans and logs are exported
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telem.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error shutting down telemetry", slog.String("error", err.Error()))
		}
	}()

	tracer := telem.TracerProvider.Tracer(instrumentationName)
	meter := telem.MeterProvider.Meter(instrumentationName)

	logger.Info("Starting Catalog API")

	store, err := repository.Open(ctx, cfg, tracer, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	productService := service.NewProductService(store.Products, tracer, meter, logger)
	productHandler := handler.NewProductHandler(productService, request.NewValidator(), logger)
	server := http.NewServer(&cfg.Server, productHandler, logger, telem)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(server.Start)

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("Server stopped")
	return nil
}
