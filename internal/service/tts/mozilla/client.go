package mozilla

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"SpeechSynthesis/internal/config"
	"SpeechSynthesis/internal/service/tts"
	"SpeechSynthesis/internal/service/tts/render"
)

const (
	Tag = "MozillaTextToSpeech"

	ttsPath = "/api/tts"
	// Частота по умолчанию у моделей Mozilla TTS; используется только для пустого текста.
	sampleRate = 22050
)

// Ответ больше этого считаем ошибкой сервера, а не обрезаем.
var maxAudioBytes int64 = 64 << 20

// Client синтезирует речь через локальный Mozilla TTS сервер: GET /api/tts?text=...
type Client struct {
	*tts.Component

	http     *http.Client
	endpoint string
}

func New(sc config.SynthesisConfig, mc config.MozillaTTSConfig, deps tts.Deps) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(mc.BaseURL), "/")
	if base == "" {
		return nil, tts.InitError(Tag, fmt.Errorf("empty server url"))
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, tts.InitError(Tag, err)
	}

	c := &Client{
		http:     &http.Client{Timeout: mc.Timeout},
		endpoint: base + ttsPath,
	}
	var err error
	c.Component, err = tts.NewComponent(sc, Tag, c.synthesize, deps)
	if err != nil {
		return nil, err
	}
	c.Logger().Debugw("Booted (text -> speech)", "endpoint", c.endpoint)
	return c, nil
}

func (c *Client) synthesize(ctx context.Context, req tts.Request) ([]byte, error) {
	if strings.TrimSpace(req.Text) == "" {
		return render.EncodePCM16(nil, sampleRate, 1)
	}

	q := url.Values{}
	q.Set("text", req.Text)

	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, tts.Permanent(Tag, "build request", err)
	}

	resp, err := c.http.Do(hreq)
	if err != nil {
		return nil, tts.Transient(Tag, "request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if len(b) == 0 {
			b = []byte(resp.Status)
		}
		return nil, tts.Transient(Tag, fmt.Sprintf("status=%d, body=%s", resp.StatusCode, bytes.TrimSpace(b)), nil)
	}

	started := time.Now()
	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes+1))
	if err != nil {
		return nil, tts.Transient(Tag, "read response", err)
	}
	if int64(len(audio)) > maxAudioBytes {
		return nil, tts.Permanent(Tag, fmt.Sprintf("response exceeds %d bytes", maxAudioBytes), nil)
	}
	c.Logger().Debugw("Mozilla TTS response received", "bytes", len(audio), "took", time.Since(started).String())
	return audio, nil
}
