package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"SpeechSynthesis/internal/config"
	"SpeechSynthesis/internal/service/tts"
	"SpeechSynthesis/internal/service/tts/render"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	Tag = "OpenAITextToSpeech"

	// OpenAI отдаёт wav в 24 кГц моно.
	sampleRate = 24000
)

// Ответ больше этого считаем ошибкой, а не обрезаем.
var maxAudioBytes int64 = 64 << 20

// Client синтезирует речь через OpenAI /audio/speech с ответом в wav.
type Client struct {
	*tts.Component

	api   openai.Client
	model string
	voice string
	speed float64
}

// New не делает сетевых запросов; пустой ключ — ошибка создания.
func New(sc config.SynthesisConfig, oc config.OpenAITTSConfig, deps tts.Deps) (*Client, error) {
	if strings.TrimSpace(oc.APIKey) == "" {
		return nil, tts.InitError(Tag, errors.New("empty API key (set OPENAI_API_KEY in .env/ENV)"))
	}
	opts := []option.RequestOption{
		option.WithAPIKey(oc.APIKey),
		// Повторы делает наш retry, SDK не должен умножать попытки.
		option.WithMaxRetries(0),
	}
	if u := strings.TrimSpace(oc.BaseURL); u != "" {
		opts = append(opts, option.WithBaseURL(u))
	}

	c := &Client{
		api:   openai.NewClient(opts...),
		model: strings.TrimSpace(oc.Model),
		voice: strings.TrimSpace(oc.Voice),
		speed: oc.Speed,
	}
	var err error
	c.Component, err = tts.NewComponent(sc, Tag, c.synthesize, deps)
	if err != nil {
		return nil, err
	}
	c.Logger().Debugw("Booted (text -> speech)", "model", c.model, "voice", c.voice)
	return c, nil
}

func (c *Client) synthesize(ctx context.Context, req tts.Request) ([]byte, error) {
	if strings.TrimSpace(req.Text) == "" {
		return render.EncodePCM16(nil, sampleRate, 1)
	}

	params := openai.AudioSpeechNewParams{
		Input:          req.Text,
		Model:          openai.SpeechModel(c.model),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatWAV,
	}
	if c.speed > 0 {
		params.Speed = openai.Float(c.speed)
	}

	started := time.Now()
	// Голос передаём строкой: набор голосов у API меняется быстрее, чем константы SDK.
	resp, err := c.api.Audio.Speech.New(ctx, params, option.WithJSONSet("voice", c.voice))
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 && apiErr.StatusCode != http.StatusTooManyRequests {
			return nil, tts.Permanent(Tag, "rejected request", err)
		}
		return nil, tts.Transient(Tag, "request", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes+1))
	if err != nil {
		return nil, tts.Transient(Tag, "read response", err)
	}
	if int64(len(audio)) > maxAudioBytes {
		return nil, tts.Permanent(Tag, fmt.Sprintf("response exceeds %d bytes", maxAudioBytes), nil)
	}
	c.Logger().Infow("OpenAI TTS request completed", "status", resp.StatusCode, "took", time.Since(started).String())
	return audio, nil
}
