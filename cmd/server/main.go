package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/audivox/whisperd/internal/api"
	"github.com/audivox/whisperd/internal/config"
	"github.com/audivox/whisperd/internal/scratch"
	"github.com/audivox/whisperd/internal/whisper"
)

func main() {
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	lvl := zerolog.InfoLevel
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if l, err := zerolog.ParseLevel(v); err == nil {
			lvl = l
		}
	}
	log.Logger = log.Level(lvl)

	cfg := config.Load()

	registry := whisper.NewRegistry(map[string]whisper.ModelSpec{
		api.ModelFast:     {Size: "base", Path: cfg.ModelBase},
		api.ModelAccurate: {Size: "large", Path: cfg.ModelLarge},
	}, loaderFor(cfg))
	defer registry.Close()

	store := scratch.NewStore(cfg.ScratchDir)
	router := api.NewRouter(registry, store, cfg)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router.Setup(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Str("backend", cfg.Backend).Msg("whisperd server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}

// loaderFor selects the engine backend. "local" loads ggml models in-process
// through whisper.cpp; "remote" talks to an OpenAI-compatible server.
func loaderFor(cfg config.Config) whisper.LoadFunc {
	if cfg.Backend == "remote" {
		return func(ctx context.Context, spec whisper.ModelSpec) (whisper.Engine, error) {
			return whisper.NewRemoteEngine(whisper.RemoteConfig{
				BaseURL: cfg.RemoteURL,
				APIKey:  cfg.RemoteAPIKey,
				Model:   cfg.RemoteModel,
			}), nil
		}
	}
	return func(ctx context.Context, spec whisper.ModelSpec) (whisper.Engine, error) {
		return whisper.NewLocalEngine(spec.Path)
	}
}
