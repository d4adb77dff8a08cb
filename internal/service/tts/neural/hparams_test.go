package neural

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHParamsJSON(t *testing.T) {
	hp, err := ParseHParams([]byte(`{"train": {"epochs": 10}, "data": {"sampling_rate": 22050, "n_mel_channels": 80, "add_blank": true}}`))
	require.NoError(t, err)
	assert.Equal(t, 22050, hp.SamplingRate)
	assert.Equal(t, 80, hp.MelChannels)
	assert.True(t, hp.AddBlank)
	assert.Equal(t, []string{"english_cleaners"}, hp.TextCleaners)
	assert.Empty(t, hp.Languages)
}

func TestParseHParamsYAML(t *testing.T) {
	raw := `
data:
  sampling_rate: 16000
  n_mel_channels: 80
  add_blank: false
  text_cleaners: [basic_cleaners]
  languages: [en, nl]
`
	hp, err := ParseHParams([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, 16000, hp.SamplingRate)
	assert.False(t, hp.AddBlank)
	assert.Equal(t, []string{"basic_cleaners"}, hp.TextCleaners)
	assert.Equal(t, []string{"en", "nl"}, hp.Languages)
}

func TestParseHParamsRequiresSamplingRate(t *testing.T) {
	_, err := ParseHParams([]byte(`{"data": {"n_mel_channels": 80}}`))
	assert.Error(t, err)
}

func TestLoadHParams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "base_blank.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"data": {"sampling_rate": 22050}}`), 0o644))

	hp, err := LoadHParams(path)
	require.NoError(t, err)
	assert.Equal(t, 22050, hp.SamplingRate)

	_, err = LoadHParams(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
