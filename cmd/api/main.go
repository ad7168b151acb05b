package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"studio/internal/http/handlers"
	"studio/internal/http/httpapi"
	"studio/internal/infra"
	"studio/internal/infra/credentials"
	"studio/internal/infra/geoip"
	"studio/internal/middleware"
	"studio/internal/orchestrator"
	"studio/internal/poller"
	"studio/internal/providers/genai"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	// Credential source: database backed when a DB is configured so the UI
	// can rotate the key without a restart, environment backed otherwise.
	var (
		source credentials.Source
		admin  *credentials.Store
	)
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		admin = credentials.NewStore(infra.NewSQLRunner(pool, logger))
		source = admin
	} else {
		source = credentials.NewStatic(cfg.GeminiAPIKey)
		if cfg.GeminiAPIKey == "" {
			logger.Warn().Msg("no GEMINI_API_KEY and no database; generation calls will be rejected by the backend")
		}
	}

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	var lookup middleware.CountryLookup
	if resolver != nil {
		lookup = resolver.CountryCode
	}

	gen, err := genai.NewClient(genai.Options{
		BaseURL:     cfg.GeminiBaseURL,
		TextModel:   cfg.GeminiModel,
		ImageModel:  cfg.GeminiImageModel,
		VideoModel:  cfg.GeminiVideoModel,
		Credentials: source,
		HTTPClient:  &http.Client{Timeout: 120 * time.Second},
		Logger:      &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure generation client")
	}

	videoPoller := poller.New(gen, poller.Policy{
		Interval:    cfg.PollInterval,
		MaxAttempts: cfg.PollMaxAttempts,
	})
	batch := orchestrator.Batch{Window: cfg.BatchWindow, Logger: logger}

	app := handlers.NewApp(logger, gen, videoPoller, batch, source)
	app.CredentialAdmin = admin

	router := httpapi.NewRouter(app, cfg, lookup)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
