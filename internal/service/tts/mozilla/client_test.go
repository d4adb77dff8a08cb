package mozilla

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"SpeechSynthesis/internal/config"
	"SpeechSynthesis/internal/service/tts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) config.SynthesisConfig {
	t.Helper()
	return config.SynthesisConfig{
		Language:      "en-GB",
		SaveAudio:     true,
		AudiosDir:     filepath.Join(t.TempDir(), "audios"),
		RetryAttempts: 3,
	}
}

func TestSynthesizeCallsLocalServer(t *testing.T) {
	var gotPath, gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotText = r.URL.Query().Get("text")
		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write([]byte("RIFF-mozilla"))
	}))
	defer srv.Close()

	c, err := New(testConfig(t), config.MozillaTTSConfig{BaseURL: srv.URL + "/", Timeout: 5 * time.Second}, tts.Deps{})
	require.NoError(t, err)

	path, ok := c.TextToSpeech(context.Background(), "Hello, world & friends", "greet")
	require.True(t, ok)
	assert.Equal(t, "/api/tts", gotPath)
	assert.Equal(t, "Hello, world & friends", gotText)
	assert.Equal(t, "greet_MozillaTextToSpeech.wav", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF-mozilla"), data)
}

func TestServerErrorsAreRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := New(testConfig(t), config.MozillaTTSConfig{BaseURL: srv.URL}, tts.Deps{})
	require.NoError(t, err)

	path, ok := c.TextToSpeech(context.Background(), "Hi", "")
	assert.False(t, ok)
	assert.Empty(t, path)
	assert.EqualValues(t, 3, calls.Load())

	matches, err := filepath.Glob(filepath.Join(c.AudiosDir(), "*.wav"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestUnreachableServerYieldsAbsent(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(testConfig(t), config.MozillaTTSConfig{BaseURL: url, Timeout: time.Second}, tts.Deps{})
	require.NoError(t, err)

	_, ok := c.TextToSpeech(context.Background(), "Hi", "")
	assert.False(t, ok)
}

func TestEmptyTextSkipsServer(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { calls.Add(1) }))
	defer srv.Close()

	c, err := New(testConfig(t), config.MozillaTTSConfig{BaseURL: srv.URL}, tts.Deps{})
	require.NoError(t, err)

	path, ok := c.TextToSpeech(context.Background(), "   ", "")
	require.True(t, ok)
	assert.Zero(t, calls.Load())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data[:4]))
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New(testConfig(t), config.MozillaTTSConfig{BaseURL: ""}, tts.Deps{})
	assert.ErrorIs(t, err, tts.ErrBackendInit)

	_, err = New(testConfig(t), config.MozillaTTSConfig{BaseURL: "not a url"}, tts.Deps{})
	assert.ErrorIs(t, err, tts.ErrBackendInit)
}

func TestOversizedResponseIsRejected(t *testing.T) {
	prev := maxAudioBytes
	maxAudioBytes = 8
	t.Cleanup(func() { maxAudioBytes = prev })

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte("RIFF-longer-than-eight-bytes"))
	}))
	defer srv.Close()

	c, err := New(testConfig(t), config.MozillaTTSConfig{BaseURL: srv.URL}, tts.Deps{})
	require.NoError(t, err)

	path, ok := c.TextToSpeech(context.Background(), "Hi", "")
	assert.False(t, ok)
	assert.Empty(t, path)
	assert.EqualValues(t, 1, calls.Load())

	matches, err := filepath.Glob(filepath.Join(c.AudiosDir(), "*.wav"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestResponseAtLimitIsKept(t *testing.T) {
	prev := maxAudioBytes
	maxAudioBytes = 8
	t.Cleanup(func() { maxAudioBytes = prev })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("RIFF1234"))
	}))
	defer srv.Close()

	c, err := New(testConfig(t), config.MozillaTTSConfig{BaseURL: srv.URL}, tts.Deps{})
	require.NoError(t, err)

	path, ok := c.TextToSpeech(context.Background(), "Hi", "")
	require.True(t, ok)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF1234"), data)
}
