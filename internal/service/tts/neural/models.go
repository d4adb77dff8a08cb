package neural

import "context"

// Mel — спектрограмма: MelChannels строк по T кадров.
type Mel [][]float32

// Frames — число кадров во времени.
func (m Mel) Frames() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// Waveform — сырой сигнал вокодера в [-1, 1].
type Waveform struct {
	Samples    []float32
	SampleRate int
}

// AcousticModel: последовательность символов -> спектрограмма.
type AcousticModel interface {
	Infer(ctx context.Context, seq []int, noiseScale, lengthScale float64) (Mel, error)
}

// Vocoder: спектрограмма -> сигнал.
type Vocoder interface {
	Vocode(ctx context.Context, mel Mel) (Waveform, error)
}

// Models — загруженные один раз веса. Только чтение после загрузки.
type Models struct {
	Acoustic AcousticModel
	Vocoder  Vocoder
	Close    func() error
}
