package tts

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"SpeechSynthesis/internal/config"
	"SpeechSynthesis/internal/service/tts/player"
	"SpeechSynthesis/internal/service/tts/render"
	"SpeechSynthesis/internal/service/tts/retry"

	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// Deps — внешние зависимости компонента. Все поля опциональны.
type Deps struct {
	Player   player.Player
	Logger   *zap.SugaredLogger
	Observer Observer
}

// Component — общая часть всех бэкендов: конфигурация, флаг «говорит»,
// повторы вокруг Step и рендеринг результата. Бэкенды встраивают *Component.
type Component struct {
	tag       string
	language  string
	playAudio bool
	saveAudio bool

	step     Step
	retry    retry.Policy
	renderer *render.Renderer
	logger   *zap.SugaredLogger
	observer Observer

	talking atomic.Int32
}

// NewComponent проверяет языковой тег и готовит каталог для аудио.
// Любая ошибка здесь — ошибка создания бэкенда.
func NewComponent(cfg config.SynthesisConfig, tag string, step Step, deps Deps) (*Component, error) {
	if step == nil {
		return nil, InitError(tag, errors.New("nil synthesis step"))
	}
	if _, err := language.Parse(cfg.Language); err != nil {
		return nil, InitError(tag, err)
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	logger = logger.Named(tag)

	r, err := render.New(cfg.AudiosDir, tag, deps.Player, logger)
	if err != nil {
		return nil, InitError(tag, err)
	}

	pol := retry.New(cfg.RetryAttempts, cfg.RetryDelay, logger)
	pol.IsRetryable = IsRetryable

	return &Component{
		tag:       tag,
		language:  cfg.Language,
		playAudio: cfg.PlayAudio,
		saveAudio: cfg.SaveAudio,
		step:      step,
		retry:     pol,
		renderer:  r,
		logger:    logger,
		observer:  deps.Observer,
	}, nil
}

func (c *Component) Tag() string       { return c.tag }
func (c *Component) Language() string  { return c.language }
func (c *Component) IsSpeaking() bool  { return c.talking.Load() >= 1 }
func (c *Component) AudiosDir() string { return c.renderer.Dir() }

// SetAudiosDir меняет каталог для последующих вызовов.
func (c *Component) SetAudiosDir(dir string) error { return c.renderer.SetDir(dir) }

func (c *Component) Logger() *zap.SugaredLogger { return c.logger }

func (c *Component) TextToSpeech(ctx context.Context, text string, audioFilePrefix string) (string, bool) {
	res := c.Synthesize(ctx, Request{Text: text, AudioFilePrefix: audioFilePrefix})
	return res.Path, res.Present()
}

// Synthesize: повторы вокруг Step и записи файла, затем воспроизведение и удаление,
// если файл не нужно сохранять. Ошибки не возвращаются — только пустой результат.
func (c *Component) Synthesize(ctx context.Context, req Request) Result {
	c.begin()
	defer c.end()

	if req.Language == "" {
		req.Language = c.language
	}
	if _, err := language.Parse(req.Language); err != nil {
		c.logger.Errorw("Unsupported language tag", "language", req.Language, "error", err)
		return Result{}
	}

	started := time.Now()
	var path string
	err := c.retry.Do(ctx, "synthesize speech", func(ctx context.Context, _ int) error {
		audio, err := c.step(ctx, req)
		if err != nil {
			return err
		}
		// Ошибка записи уже залогирована рендерером и не повторяется.
		path = c.renderer.Store(audio, req.AudioFilePrefix)
		return nil
	})
	if err != nil {
		c.logger.Errorw("Speech synthesis failed", "error", err)
		return Result{}
	}
	if path == "" {
		return Result{}
	}
	c.logger.Infow("Speech synthesized", "path", path, "took", time.Since(started).String())

	if c.playAudio {
		c.renderer.Play(path)
	}
	if !c.saveAudio {
		c.renderer.Delete(path)
		return Result{}
	}
	return Result{Path: path}
}

func (c *Component) begin() {
	if c.talking.Add(1) == 1 && c.observer != nil {
		c.observer.SpeakingChanged(c.tag, true)
	}
}

func (c *Component) end() {
	if c.talking.Add(-1) == 0 && c.observer != nil {
		c.observer.SpeakingChanged(c.tag, false)
	}
}
