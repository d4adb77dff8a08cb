package neural

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// HParams — часть гиперпараметров модели, нужная пайплайну вне воркера.
type HParams struct {
	SamplingRate int      `yaml:"sampling_rate"`
	MelChannels  int      `yaml:"n_mel_channels"`
	AddBlank     bool     `yaml:"add_blank"`
	TextCleaners []string `yaml:"text_cleaners"`
	Languages    []string `yaml:"languages"` // пусто — язык не проверяется
}

type hparamsFile struct {
	Data HParams `yaml:"data"`
}

// LoadHParams читает файл гиперпараметров. JSON тоже подходит: это подмножество YAML.
func LoadHParams(path string) (HParams, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return HParams{}, fmt.Errorf("neural: read hparams: %w", err)
	}
	return ParseHParams(raw)
}

func ParseHParams(raw []byte) (HParams, error) {
	var f hparamsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return HParams{}, fmt.Errorf("neural: parse hparams: %w", err)
	}
	hp := f.Data
	if hp.SamplingRate <= 0 {
		return HParams{}, errors.New("neural: hparams: data.sampling_rate must be positive")
	}
	if len(hp.TextCleaners) == 0 {
		hp.TextCleaners = []string{"english_cleaners"}
	}
	return hp, nil
}
