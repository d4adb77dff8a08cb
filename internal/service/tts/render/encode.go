package render

import (
	"errors"
	"io"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
)

// EncodePCM16 кодирует interleaved-сэмплы в диапазоне [-1, 1] в 16-битный PCM wav.
func EncodePCM16(samples []float64, sampleRate, channels int) ([]byte, error) {
	return Encode(Samples(samples, channels), sampleRate, channels)
}

// Encode вычитывает стример целиком и возвращает wav-файл в памяти.
func Encode(s beep.Streamer, sampleRate, channels int) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, errors.New("render: sample rate must be positive")
	}
	if channels != 1 && channels != 2 {
		return nil, errors.New("render: only mono and stereo are supported")
	}
	format := beep.Format{
		SampleRate:  beep.SampleRate(sampleRate),
		NumChannels: channels,
		Precision:   2,
	}
	var buf seekBuffer
	if err := wav.Encode(&buf, s, format); err != nil {
		return nil, err
	}
	return buf.data, nil
}

// Samples превращает interleaved-сэмплы в beep.Streamer. Моно дублируется в оба канала.
func Samples(samples []float64, channels int) beep.Streamer {
	if channels < 1 {
		channels = 1
	}
	pos := 0
	return beep.StreamerFunc(func(out [][2]float64) (n int, ok bool) {
		for n < len(out) && pos+channels <= len(samples) {
			left := clamp(samples[pos])
			right := left
			if channels > 1 {
				right = clamp(samples[pos+1])
			}
			out[n] = [2]float64{left, right}
			pos += channels
			n++
		}
		return n, n > 0
	})
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// seekBuffer — минимальный io.WriteSeeker в памяти: wav.Encode дописывает размеры в заголовок через Seek.
type seekBuffer struct {
	data []byte
	pos  int
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	end := b.pos + len(p)
	if end > len(b.data) {
		if end > cap(b.data) {
			grown := make([]byte, end, 2*end)
			copy(grown, b.data)
			b.data = grown
		} else {
			b.data = b.data[:end]
		}
	}
	copy(b.data[b.pos:end], p)
	b.pos = end
	return len(p), nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(b.pos) + offset
	case io.SeekEnd:
		abs = int64(len(b.data)) + offset
	default:
		return 0, errors.New("render: invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("render: negative position")
	}
	b.pos = int(abs)
	return abs, nil
}
