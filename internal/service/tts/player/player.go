package player

import (
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

// BufferFrames — размер порции кадров, которой пишем в устройство вывода.
const BufferFrames = 1024

// ErrUnsupportedFormat — плеер умеет только PCM wav.
var ErrUnsupportedFormat = errors.New("unsupported format for direct playback; use wav")

// Player воспроизводит аудио и блокируется до конца воспроизведения.
type Player interface {
	Play(format string, r io.ReadCloser) error
}

// speaker в beep глобальный на процесс, поэтому устройство занимаем по одному.
var device sync.Mutex

// Default реализует Player поверх beep/speaker.
type Default struct{ volumeDB float64 }

// New создаёт плеер без изменения громкости (0 dB).
func New() *Default { return &Default{volumeDB: 0} }

// NewWithVolume создаёт плеер с предустановленной громкостью в dB (отрицательные — тише).
func NewWithVolume(db float64) *Default { return &Default{volumeDB: db} }

func (d *Default) Play(format string, r io.ReadCloser) error {
	if !strings.EqualFold(format, "wav") {
		return ErrUnsupportedFormat
	}
	return playWAV(r, d.volumeDB)
}

// playWAV берёт ширину сэмпла, число каналов и частоту из заголовка,
// открывает устройство под этот формат, проигрывает до конца и закрывает устройство.
func playWAV(r io.ReadCloser, volDB float64) error {
	streamer, format, err := wav.Decode(r)
	if err != nil {
		return err
	}
	defer streamer.Close()

	device.Lock()
	defer device.Unlock()

	if err := speaker.Init(format.SampleRate, BufferFrames); err != nil {
		return err
	}
	defer speaker.Close()

	vol := &effects.Volume{
		Streamer: streamer,
		Base:     2,
		Volume:   volDB,
		Silent:   false,
	}
	done := make(chan struct{})
	speaker.Play(beep.Seq(vol, beep.Callback(func() { close(done) })))
	<-done
	return streamer.Err()
}
