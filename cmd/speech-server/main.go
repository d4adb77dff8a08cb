package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SpeechSynthesis/internal/adapter/rest"
	"SpeechSynthesis/internal/app/backend"
	"SpeechSynthesis/internal/config"
	"SpeechSynthesis/internal/service/status"
	"SpeechSynthesis/internal/service/tts"

	"go.uber.org/zap"
)

// HTTP-сервер синтеза речи:
//
//	GET {base}/text_to_speech/{wavenet|google|mozilla|neural|openai}?text=...&prefix=...
//	GET {base}/speaking
//	GET {base}/status (websocket)
func main() {
	cfg := config.NewConfig()

	logger, err := newLogger(cfg.DebugMode)
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	board := status.New(64)
	factory := func(ctx context.Context, name string) (tts.Backend, error) {
		return backend.NewService(ctx, name, cfg, sugar, board)
	}
	srv := rest.NewSpeechServer(cfg.Server, factory, backend.Normalize, board, sugar)
	if err := srv.Start(ctx); err != nil {
		sugar.Fatalw("Failed to start speech server", "error", err)
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeoutCause(context.Background(), 5*time.Second, errors.New("shutdown timeout"))
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		sugar.Warnw("graceful shutdown error", "error", err)
	}
	for _, b := range srv.Backends() {
		if err := backend.Close(b); err != nil {
			sugar.Warnw("Failed to close TTS backend", "error", err)
		}
	}
	sugar.Infow("server stopped")
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
