package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "google", cfg.TTSService)
	assert.Equal(t, "en-GB", cfg.Synthesis.Language)
	assert.True(t, cfg.Synthesis.PlayAudio)
	assert.True(t, cfg.Synthesis.SaveAudio)
	assert.Equal(t, 3, cfg.Synthesis.RetryAttempts)
	assert.Equal(t, "audios", cfg.Synthesis.AudiosDir)
	assert.Equal(t, "en-US-Wavenet-H", cfg.GoogleTTS.Voice)
	assert.Equal(t, "http://localhost:5002", cfg.MozillaTTS.BaseURL)
	assert.Equal(t, "/speech_synthesis/api", cfg.Server.BasePath)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TTS_SERVICE", " Mozilla ")
	t.Setenv("TTS_LANGUAGE", "nl-NL")
	t.Setenv("TTS_PLAY_AUDIO", "false")
	t.Setenv("TTS_RETRY_DELAY", "250ms")
	t.Setenv("MOZILLA_TTS_URL", "http://tts.local:5002")
	t.Setenv("GOOGLE_TTS_GENDER", "male")
	t.Setenv("NEURAL_TTS_ARGS", "-u;worker.py;--cpu")
	t.Setenv("SERVER_BASE_PATH", "api/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "mozilla", cfg.TTSService)
	assert.Equal(t, "nl-NL", cfg.Synthesis.Language)
	assert.False(t, cfg.Synthesis.PlayAudio)
	assert.True(t, cfg.Synthesis.SaveAudio)
	assert.Equal(t, 250*time.Millisecond, cfg.Synthesis.RetryDelay)
	assert.Equal(t, "http://tts.local:5002", cfg.MozillaTTS.BaseURL)
	assert.Equal(t, "MALE", cfg.GoogleTTS.Gender)
	assert.Equal(t, []string{"-u", "worker.py", "--cpu"}, cfg.NeuralTTS.Args)
	assert.Equal(t, "/api", cfg.Server.BasePath)
}

func TestLoadNormalizesEmptyValues(t *testing.T) {
	t.Setenv("TTS_SERVICE", "")
	t.Setenv("TTS_AUDIOS_DIR", " ")
	t.Setenv("TTS_RETRY_ATTEMPTS", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "google", cfg.TTSService)
	assert.Equal(t, "audios", cfg.Synthesis.AudiosDir)
	assert.Equal(t, 3, cfg.Synthesis.RetryAttempts)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("TTS_RETRY_ATTEMPTS", "three")
	_, err := Load()
	assert.Error(t, err)
}
