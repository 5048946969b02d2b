package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"photoanimator/internal/catalog"
	"photoanimator/internal/http/handlers"
	"photoanimator/internal/http/httpapi"
	"photoanimator/internal/infra"
	"photoanimator/internal/infra/geoip"
	"photoanimator/internal/middleware"
	"photoanimator/internal/providers/video"
	"photoanimator/internal/storage"
	"photoanimator/internal/studio"
)

const sweepInterval = time.Minute

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)
	if cfg.IsDevelopment() {
		logger.Debug().
			Str("pipeline", cfg.Pipeline).
			Dur("pipeline_latency", cfg.PipelineLatency).
			Str("storage", cfg.StorageDriver).
			Str("storage_path", cfg.StoragePath).
			Dur("session_ttl", cfg.SessionTTL).
			Msg("development configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open geoip database")
	}
	var lookup middleware.CountryLookup
	if fn := resolver.Lookup(); fn != nil {
		lookup = fn
		defer resolver.Close()
		logger.Info().Str("database", resolver.Describe()).Msg("geoip enabled")
	}

	pipelineOpts := video.Options{
		Kind:    video.Kind(cfg.Pipeline),
		Latency: cfg.PipelineLatency,
		BaseURL: cfg.PipelineBaseURL,
		APIKey:  cfg.PipelineAPIKey,
		Timeout: cfg.PipelineTimeout,
		FPS:     cfg.FFmpegFPS,
		Width:   cfg.FFmpegWidth,
		Height:  cfg.FFmpegHeight,
		Logger:  &logger,
	}
	pipeline, err := video.New(pipelineOpts)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build pipeline")
	}

	store, err := storage.Open(ctx, storage.Options{
		Driver: cfg.StorageDriver,
		Path:   cfg.StoragePath,
		S3: storage.S3Config{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			Profile:      cfg.S3Profile,
			UsePathStyle: cfg.S3PathStyle,
			Prefix:       cfg.S3Prefix,
		},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open artifact store")
	}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load catalog")
	}

	sessions, err := studio.NewRegistry(studio.RegistryOptions{
		TTL:    cfg.SessionTTL,
		Logger: &logger,
		Factory: func(locale string) (*studio.Controller, error) {
			return studio.NewController(studio.Options{
				Pipeline:        pipeline,
				Logger:          &logger,
				Locale:          locale,
				ExpectedLatency: video.ExpectedLatency(pipelineOpts),
			})
		},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build session registry")
	}

	app := handlers.NewApp(cfg, logger, sessions, cat, store)
	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(app, lookup))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().
			Str("addr", server.Addr()).
			Str("pipeline", cfg.Pipeline).
			Str("storage", cfg.StorageDriver).
			Msg("API listening")
		return server.Run(gctx)
	})
	g.Go(func() error {
		return sessions.Run(gctx, sweepInterval)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
	}
	sessions.Close()
	logger.Info().Msg("server stopped")
}
