// cmd/server/main.go
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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/unclebandit/ad-scheduler/internal/app"
	"github.com/unclebandit/ad-scheduler/internal/config"
	"github.com/unclebandit/ad-scheduler/internal/controller"
	"github.com/unclebandit/ad-scheduler/internal/extract"
	"github.com/unclebandit/ad-scheduler/internal/handler"
	"github.com/unclebandit/ad-scheduler/internal/logging"
	"github.com/unclebandit/ad-scheduler/internal/service"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on OS environment variables")
	}

	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.App.LogLevel, cfg.App.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	store, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("error closing campaign store", zap.Error(err))
		}
	}()

	events, err := app.NewEvents(cfg, logger)
	if err != nil {
		return err
	}
	defer events.Close()

	generator, err := app.NewGenerator(cfg)
	if err != nil {
		return err
	}

	campaignService := service.NewCampaignService(store.Campaigns, events.Queue, logger)
	adCopyService := service.NewAdCopyService(generator, logger)

	campaignController := &controller.CampaignController{
		CampaignService: campaignService,
		Extractor:       extract.NewExtractor(generator, logger),
		MaxUploadBytes:  cfg.Upload.MaxBytes,
		Logger:          logger.Named("campaigns"),
	}
	generateHandler := handler.NewGenerateHandler(adCopyService, cfg.Generate.RatePerMinute, cfg.Generate.Burst, logger)
	healthHandler := &handler.HealthHandler{Store: store.Campaigns, Driver: store.Driver, Logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/campaigns", http.StatusFound)
	})

	// Campaign routes
	r.Get("/campaigns", campaignController.ListCampaigns)
	r.Post("/campaigns", campaignController.CreateCampaign)
	r.Post("/campaigns/upload", campaignController.UploadSchedule)
	r.Get("/campaigns/{id}", campaignController.GetCampaign)

	// Ad copy routes
	r.Post("/generate", generateHandler.Generate)
	r.Get("/models", generateHandler.ListModels)

	r.Get("/health", healthHandler.Health)
	r.Get("/health/db", healthHandler.Database)
	r.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:           cfg.Server.GetServerAddr(),
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
		// h2c serves HTTP/2 without TLS
		Handler: h2c.NewHandler(r, &http2.Server{}),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server running",
			zap.String("addr", server.Addr),
			zap.String("store", store.Driver),
			zap.String("llm_transport", cfg.LLM.Transport),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return err
	case sig := <-quit:
		logger.Info("shutting down server", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server exited gracefully")
	return nil
}
