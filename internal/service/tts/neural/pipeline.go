package neural

import (
	"context"
	"errors"
	"slices"
	"time"

	"SpeechSynthesis/internal/config"
	"SpeechSynthesis/internal/service/tts"
	"SpeechSynthesis/internal/service/tts/render"

	"github.com/faiface/beep"
	"golang.org/x/text/language"
)

const (
	Tag = "NeuralTextToSpeech"

	// Качество beep.Resample: 4 — разумный компромисс для речи.
	resampleQuality = 4
)

// Pipeline — локальный синтез: текст -> символы -> акустическая модель -> вокодер -> PCM16 wav.
// Веса загружаются один раз при создании и дальше только читаются.
type Pipeline struct {
	*tts.Component

	hp          HParams
	frontend    *Frontend
	models      Models
	outRate     int
	noiseScale  float64
	lengthScale float64
}

// New читает гиперпараметры, запускает воркер и ждёт загрузки весов.
func New(sc config.SynthesisConfig, nc config.NeuralTTSConfig, deps tts.Deps) (*Pipeline, error) {
	hp, err := LoadHParams(nc.HParamsPath)
	if err != nil {
		return nil, tts.InitError(Tag, err)
	}
	w, err := StartWorker(nc)
	if err != nil {
		return nil, tts.InitError(Tag, err)
	}
	p, err := NewWithModels(sc, nc, hp, w.Models(), deps)
	if err != nil {
		_ = w.Close()
		return nil, err
	}
	return p, nil
}

// NewWithModels собирает пайплайн вокруг уже загруженных моделей.
func NewWithModels(sc config.SynthesisConfig, nc config.NeuralTTSConfig, hp HParams, models Models, deps tts.Deps) (*Pipeline, error) {
	if models.Acoustic == nil || models.Vocoder == nil {
		return nil, tts.InitError(Tag, errors.New("acoustic model and vocoder are required"))
	}
	frontend, err := NewFrontend(hp.TextCleaners, hp.AddBlank)
	if err != nil {
		return nil, tts.InitError(Tag, err)
	}

	p := &Pipeline{
		hp:          hp,
		frontend:    frontend,
		models:      models,
		outRate:     nc.OutputSampleRate,
		noiseScale:  nc.NoiseScale,
		lengthScale: nc.LengthScale,
	}
	if p.outRate <= 0 {
		p.outRate = hp.SamplingRate
	}
	if p.noiseScale <= 0 {
		p.noiseScale = 0.667
	}
	if p.lengthScale <= 0 {
		p.lengthScale = 1.0
	}

	p.Component, err = tts.NewComponent(sc, Tag, p.synthesize, deps)
	if err != nil {
		return nil, err
	}
	p.Logger().Debugw("Booted (text -> speech)", "sampling_rate", hp.SamplingRate, "output_rate", p.outRate, "add_blank", hp.AddBlank)
	return p, nil
}

func (p *Pipeline) synthesize(ctx context.Context, req tts.Request) ([]byte, error) {
	if err := p.supports(req.Language); err != nil {
		return nil, err
	}

	started := time.Now()
	seq := p.frontend.Sequence(req.Text)
	wave := Waveform{SampleRate: p.hp.SamplingRate}
	if len(seq) > 0 {
		mel, err := p.models.Acoustic.Infer(ctx, seq, p.noiseScale, p.lengthScale)
		if err != nil {
			return nil, tts.Transient(Tag, "acoustic model", err)
		}
		if wave, err = p.models.Vocoder.Vocode(ctx, mel); err != nil {
			return nil, tts.Transient(Tag, "vocoder", err)
		}
		if wave.SampleRate <= 0 {
			wave.SampleRate = p.hp.SamplingRate
		}
	}

	audio, err := p.encode(wave)
	if err != nil {
		return nil, tts.Transient(Tag, "encode", err)
	}
	p.Logger().Infow("Neural synthesis completed", "symbols", len(seq), "samples", len(wave.Samples), "took", time.Since(started).String())
	return audio, nil
}

// encode ресемплирует сигнал в частоту выхода и кодирует в 16-битный PCM.
func (p *Pipeline) encode(wave Waveform) ([]byte, error) {
	samples := make([]float64, len(wave.Samples))
	for i, s := range wave.Samples {
		samples[i] = float64(s)
	}
	var s beep.Streamer = render.Samples(samples, 1)
	if wave.SampleRate != p.outRate {
		s = beep.Resample(resampleQuality, beep.SampleRate(wave.SampleRate), beep.SampleRate(p.outRate), s)
	}
	return render.Encode(s, p.outRate, 1)
}

func (p *Pipeline) supports(lang string) error {
	if len(p.hp.Languages) == 0 {
		return nil
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return tts.Permanent(Tag, "unsupported language "+lang, err)
	}
	base, _ := tag.Base()
	if slices.Contains(p.hp.Languages, lang) || slices.Contains(p.hp.Languages, base.String()) {
		return nil
	}
	return tts.Permanent(Tag, "unsupported language "+lang, nil)
}

// Close освобождает модели (останавливает воркер).
func (p *Pipeline) Close() error {
	if p.models.Close == nil {
		return nil
	}
	return p.models.Close()
}
