package render

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/faiface/beep/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakePlayer struct {
	format string
	data   []byte
	err    error
	calls  int
}

func (p *fakePlayer) Play(format string, r io.ReadCloser) error {
	p.calls++
	p.format = format
	p.data, _ = io.ReadAll(r)
	return p.err
}

func TestNewCreatesNestedDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "audios")
	r, err := New(dir, "Test", nil, nil)
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.True(t, filepath.IsAbs(r.Dir()))
}

func TestFilename(t *testing.T) {
	dir := t.TempDir()
	r, err := New(dir, "GoogleTextToSpeech", nil, nil)
	require.NoError(t, err)
	r.now = func() time.Time { return time.Date(2024, 3, 5, 7, 8, 9, 123_000_000, time.UTC) }

	assert.Equal(t, filepath.Join(dir, "greeting_GoogleTextToSpeech.wav"), r.Filename("greeting"))
	assert.Equal(t, filepath.Join(dir, "2024-03-05-07-08-09.123_GoogleTextToSpeech.wav"), r.Filename(""))
	assert.Equal(t, filepath.Join(dir, "2024-03-05-07-08-09.123_GoogleTextToSpeech.wav"), r.Filename("   "))
	assert.Equal(t, filepath.Join(dir, ".._x_GoogleTextToSpeech.wav"), r.Filename("../x"))
}

func TestStoreWritesBytesVerbatim(t *testing.T) {
	r, err := New(t.TempDir(), "Test", nil, nil)
	require.NoError(t, err)

	payload := []byte("RIFF....WAVE")
	path := r.Store(payload, "hello")
	require.NotEmpty(t, path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestStoreRecreatesRemovedDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "audios")
	r, err := New(dir, "Test", nil, nil)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))

	path := r.Store([]byte{1, 2, 3}, "again")
	require.NotEmpty(t, path)
	assert.FileExists(t, path)
}

func TestStoreFailureReturnsEmptyPath(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	base := t.TempDir()
	r, err := New(filepath.Join(base, "audios"), "Test", nil, zap.New(core).Sugar())
	require.NoError(t, err)

	// Каталог подменён обычным файлом: запись невозможна.
	require.NoError(t, os.RemoveAll(r.Dir()))
	require.NoError(t, os.WriteFile(r.Dir(), []byte("x"), 0o644))

	assert.Empty(t, r.Store([]byte{1}, "p"))
	assert.NotZero(t, logs.Len())
}

func TestSetDirSwitchesTarget(t *testing.T) {
	r, err := New(t.TempDir(), "Test", nil, nil)
	require.NoError(t, err)

	next := filepath.Join(t.TempDir(), "next")
	require.NoError(t, r.SetDir(next))
	path := r.Store([]byte{1}, "p")
	assert.True(t, strings.HasPrefix(path, next))
}

func TestPlayPassesWavToPlayer(t *testing.T) {
	p := &fakePlayer{}
	r, err := New(t.TempDir(), "Test", p, nil)
	require.NoError(t, err)

	path := r.Store([]byte("wav-bytes"), "p")
	r.Play(path)
	assert.Equal(t, 1, p.calls)
	assert.Equal(t, "wav", p.format)
	assert.Equal(t, []byte("wav-bytes"), p.data)
}

func TestPlayIgnoresEmptyPathAndLogsErrors(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	p := &fakePlayer{err: errors.New("no device")}
	r, err := New(t.TempDir(), "Test", p, zap.New(core).Sugar())
	require.NoError(t, err)

	r.Play("")
	assert.Zero(t, p.calls)

	r.Play(r.Store([]byte{1}, "p"))
	assert.Equal(t, 1, p.calls)
	assert.Equal(t, 1, logs.FilterMessage("Failed to play wav file").Len())

	r.Play(filepath.Join(r.Dir(), "missing.wav"))
	assert.Equal(t, 1, logs.FilterMessage("Failed to open wav file").Len())
}

func TestDelete(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	r, err := New(t.TempDir(), "Test", nil, zap.New(core).Sugar())
	require.NoError(t, err)

	path := r.Store([]byte{1}, "p")
	r.Delete(path)
	assert.NoFileExists(t, path)

	r.Delete(path)
	r.Delete("")
	assert.Zero(t, logs.Len())
}

func TestEncodePCM16Silence(t *testing.T) {
	data, err := EncodePCM16(make([]float64, 16000), 16000, 1)
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data[:4]))
	assert.Equal(t, "WAVE", string(data[8:12]))
	assert.Len(t, data, 44+16000*2)

	s, format, err := wav.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, 16000, int(format.SampleRate))
	assert.Equal(t, 1, format.NumChannels)
	assert.Equal(t, 2, format.Precision)
	assert.Equal(t, 16000, s.Len())
}

func TestEncodePCM16Empty(t *testing.T) {
	data, err := EncodePCM16(nil, 22050, 1)
	require.NoError(t, err)
	assert.Len(t, data, 44)
	assert.Equal(t, "RIFF", string(data[:4]))
}

func TestEncodeRejectsBadFormat(t *testing.T) {
	_, err := EncodePCM16([]float64{0}, 0, 1)
	assert.Error(t, err)
	_, err = EncodePCM16([]float64{0}, 16000, 3)
	assert.Error(t, err)
}

func TestSamplesClampAndStereo(t *testing.T) {
	s := Samples([]float64{2, -0.5, 0.25, -3}, 2)
	buf := make([][2]float64, 4)
	n, ok := s.Stream(buf)
	require.True(t, ok)
	require.Equal(t, 2, n)
	assert.Equal(t, [2]float64{1, -0.5}, buf[0])
	assert.Equal(t, [2]float64{0.25, -1}, buf[1])

	n, ok = s.Stream(buf)
	assert.Zero(t, n)
	assert.False(t, ok)
}

func TestStoreNeverOverwritesExistingFile(t *testing.T) {
	r, err := New(t.TempDir(), "Test", nil, nil)
	require.NoError(t, err)
	r.now = func() time.Time { return time.Date(2024, 3, 5, 7, 8, 9, 0, time.UTC) }

	first := r.Store([]byte{1}, "")
	second := r.Store([]byte{2}, "")
	third := r.Store([]byte{3}, "")
	require.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
	assert.NotEqual(t, second, third)
	assert.Equal(t, "2024-03-05-07-08-09.000-1_Test.wav", filepath.Base(second))

	for path, want := range map[string]byte{first: 1, second: 2, third: 3} {
		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, []byte{want}, got, path)
	}
}

func TestStoreSamePrefixConcurrently(t *testing.T) {
	r, err := New(t.TempDir(), "Test", nil, nil)
	require.NoError(t, err)

	const n = 16
	paths := make([]string, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			paths[i] = r.Store([]byte{byte(i)}, "same")
		}()
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for i, path := range paths {
		require.NotEmpty(t, path)
		assert.False(t, seen[path], path)
		seen[path] = true
		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, []byte{byte(i)}, got)
	}
}
