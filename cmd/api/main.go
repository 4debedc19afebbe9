package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"videogen/internal/audio"
	"videogen/internal/http/handlers"
	httpapi "videogen/internal/http/httpapi"
	"videogen/internal/infra"
	"videogen/internal/pipeline"
	"videogen/internal/providers/gateway"
	"videogen/internal/providers/replicate"
	"videogen/internal/providers/script"
	"videogen/internal/providers/voice"
	"videogen/internal/storage"
)

const shutdownGrace = 30 * time.Second

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	store, err := storage.NewTempStore(cfg.UploadDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare upload directory")
	}

	runner := replicate.NewClient(replicate.Options{
		APIKey:         cfg.ReplicateAPIKey,
		BaseURL:        cfg.ReplicateBaseURL,
		PollInterval:   cfg.ReplicatePollInterval,
		RequestTimeout: cfg.ReplicateTimeout,
		Logger:         &logger,
	})
	if !runner.HasCredentials() {
		logger.Warn().Msg("REPLICATE_API_KEY is not set; generation requests will fail")
	}
	gw := gateway.New(gateway.Options{
		Runner:      runner,
		ScriptModel: cfg.ReplicateScriptModel,
		VideoModel:  cfg.ReplicateVideoModel,
		Logger:      &logger,
	})

	var scripts pipeline.ScriptGenerator = gw
	if cfg.ScriptProvider == infra.ScriptProviderOpenAI {
		writer, err := script.NewOpenAIWriter(script.OpenAIOptions{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
			Logger:  &logger,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure openai script writer")
		}
		scripts = writer
		logger.Info().Str("model", writer.Model()).Msg("scripts are written by openai")
	}

	app := &handlers.App{
		MusicVideo: pipeline.NewMusicVideo(pipeline.MusicVideoDeps{
			Store:   store,
			Decoder: audio.NewDecoder(audio.DecoderOptions{FFmpegPath: cfg.FFmpegPath, Logger: &logger}),
			Beats:   audio.NewBeatTracker(),
			Video:   gw,
			Logger:  &logger,
		}),
		TikTok: pipeline.NewTikTok(pipeline.TikTokDeps{
			Scripts: scripts,
			Video:   gw,
			Voice:   voice.NewUnimplemented(),
			Logger:  &logger,
		}),
		Logger:         &logger,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}

	router := httpapi.NewRouter(app, httpapi.RouterOptions{
		Logger:          &logger,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on %s", server.Addr())
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
