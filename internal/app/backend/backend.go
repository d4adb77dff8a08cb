package backend

import (
	"context"
	"fmt"
	"io"
	"strings"

	"SpeechSynthesis/internal/config"
	"SpeechSynthesis/internal/service/tts"
	"SpeechSynthesis/internal/service/tts/google"
	"SpeechSynthesis/internal/service/tts/mozilla"
	"SpeechSynthesis/internal/service/tts/neural"
	"SpeechSynthesis/internal/service/tts/openai"
	"SpeechSynthesis/internal/service/tts/player"

	"go.uber.org/zap"
)

// Имена сервисов TTS
const (
	ServiceGoogle  = "google"
	ServiceMozilla = "mozilla"
	ServiceNeural  = "neural"
	ServiceOpenAI  = "openai"
)

// Services — все поддерживаемые бэкенды.
var Services = []string{ServiceGoogle, ServiceMozilla, ServiceNeural, ServiceOpenAI}

// Normalize приводит имя сервиса и его синонимы к каноническому. Неизвестное имя — "".
func Normalize(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "google", "wavenet", "google-cloud":
		return ServiceGoogle
	case "mozilla", "mozilla-tts", "local-http":
		return ServiceMozilla
	case "neural", "glow", "local-neural":
		return ServiceNeural
	case "openai":
		return ServiceOpenAI
	default:
		return ""
	}
}

// New создаёт бэкенд по cfg.TTSService. Ошибка создания фатальна: экземпляр не возвращается.
func New(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger, observer tts.Observer) (tts.Backend, error) {
	return NewService(ctx, cfg.TTSService, cfg, logger, observer)
}

// NewService создаёт конкретный бэкенд по имени, остальное берётся из cfg.
func NewService(ctx context.Context, name string, cfg *config.Config, logger *zap.SugaredLogger, observer tts.Observer) (tts.Backend, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	deps := tts.Deps{
		Player:   player.NewWithVolume(cfg.Synthesis.VolumeDB),
		Logger:   logger,
		Observer: observer,
	}

	service := Normalize(name)
	var (
		b   tts.Backend
		err error
	)
	switch service {
	case ServiceGoogle:
		var c *google.Client
		if c, err = google.New(ctx, cfg.Synthesis, cfg.GoogleTTS, deps); err == nil {
			b = c
		}
	case ServiceMozilla:
		var c *mozilla.Client
		if c, err = mozilla.New(cfg.Synthesis, cfg.MozillaTTS, deps); err == nil {
			b = c
		}
	case ServiceNeural:
		var p *neural.Pipeline
		if p, err = neural.New(cfg.Synthesis, cfg.NeuralTTS, deps); err == nil {
			b = p
		}
	case ServiceOpenAI:
		var c *openai.Client
		if c, err = openai.New(cfg.Synthesis, cfg.OpenAITTS, deps); err == nil {
			b = c
		}
	default:
		return nil, fmt.Errorf("%w: unknown tts service %q", tts.ErrBackendInit, name)
	}
	if err != nil {
		return nil, err
	}

	logger.Infow("TTS selected", "service", service, "language", b.Language())
	return b, nil
}

// Close освобождает ресурсы бэкенда, если они есть (SDK-клиент, воркер).
func Close(b tts.Backend) error {
	if c, ok := b.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
