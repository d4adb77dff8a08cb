package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"SpeechSynthesis/internal/app/backend"
	"SpeechSynthesis/internal/config"

	"go.uber.org/zap"
)

// Утилита: синтезирует одну фразу выбранным бэкендом, проигрывает и/или сохраняет wav.
// Бэкенд и флаги play/save берутся из internal/config (.env, ENV, флаги).
func main() {
	var (
		text   string
		prefix string
	)
	flag.StringVar(&text, "text", "Hi", "Текст для синтеза речи")
	flag.StringVar(&prefix, "prefix", "", "Префикс имени wav-файла (по умолчанию — время)")

	cfg := config.NewConfig()
	os.Exit(run(cfg, text, prefix))
}

func run(cfg *config.Config, text, prefix string) int {
	logger, err := newLogger(cfg.DebugMode)
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := backend.New(ctx, cfg, sugar, nil)
	if err != nil {
		sugar.Errorw("Failed to create TTS backend", "service", cfg.TTSService, "error", err)
		return 1
	}
	defer func() {
		if err := backend.Close(b); err != nil {
			sugar.Warnw("Failed to close TTS backend", "error", err)
		}
	}()

	path, ok := b.TextToSpeech(ctx, text, prefix)
	if ok {
		fmt.Println(path)
		return 0
	}
	// Без сохранения пустой результат — норма.
	if cfg.Synthesis.SaveAudio {
		sugar.Errorw("No audio produced", "service", cfg.TTSService)
		return 1
	}
	return 0
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
