package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"SpeechSynthesis/internal/config"
	"SpeechSynthesis/internal/service/status"
	"SpeechSynthesis/internal/service/tts"
	"SpeechSynthesis/internal/service/tts/mozilla"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"":             ServiceGoogle,
		"Wavenet":      ServiceGoogle,
		"google":       ServiceGoogle,
		" mozilla ":    ServiceMozilla,
		"local-http":   ServiceMozilla,
		"neural":       ServiceNeural,
		"glow":         ServiceNeural,
		"OpenAI":       ServiceOpenAI,
		"festival":     "",
		"google-cloud": ServiceGoogle,
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), in)
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.Synthesis.PlayAudio = false
	cfg.Synthesis.AudiosDir = filepath.Join(t.TempDir(), "audios")
	return cfg
}

func TestNewServiceUnknown(t *testing.T) {
	_, err := NewService(context.Background(), "festival", testConfig(t), nil, nil)
	assert.ErrorIs(t, err, tts.ErrBackendInit)
}

func TestNewMozillaBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("RIFF"))
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.TTSService = "mozilla"
	cfg.MozillaTTS.BaseURL = srv.URL
	board := status.New(0)

	b, err := New(context.Background(), cfg, nil, board)
	require.NoError(t, err)
	defer Close(b)

	_, isMozilla := b.(*mozilla.Client)
	assert.True(t, isMozilla)
	assert.Equal(t, "en-GB", b.Language())

	path, ok := b.TextToSpeech(context.Background(), "Hi", "")
	require.True(t, ok)
	assert.FileExists(t, path)

	evs := board.Drain()
	require.Len(t, evs, 2)
	assert.Equal(t, mozilla.Tag, evs[0].Backend)
}

func TestNewOpenAIRequiresKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.OpenAITTS.APIKey = ""
	_, err := NewService(context.Background(), ServiceOpenAI, cfg, nil, nil)
	assert.ErrorIs(t, err, tts.ErrBackendInit)
}

func TestNewNeuralMissingHParams(t *testing.T) {
	cfg := testConfig(t)
	cfg.NeuralTTS.HParamsPath = filepath.Join(t.TempDir(), "missing.json")
	_, err := NewService(context.Background(), ServiceNeural, cfg, nil, nil)
	assert.ErrorIs(t, err, tts.ErrBackendInit)
}
