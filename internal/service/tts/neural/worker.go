package neural

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"SpeechSynthesis/internal/config"

	"github.com/google/uuid"
	"github.com/valyala/fastjson"
)

const (
	// Максимальная длина строки ответа воркера: спектрограммы и сигналы бывают большими.
	maxResponseLine = 256 << 20
	// Сколько посторонних строк stdout пропускаем в ожидании ответа на запрос.
	maxSkippedLines = 256
)

var (
	errWorkerClosed     = errors.New("neural worker closed")
	errResponseTooLarge = errors.New("neural worker: response too large")
)

// Worker — долгоживущий процесс инференса. Протокол: одна JSON-строка запроса в stdin,
// одна JSON-строка ответа в stdout. Запросы строго по одному (mu).
type Worker struct {
	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	out    *bufio.Reader
	stderr *tailBuffer
	parser  fastjson.Parser
	maxLine int
	closed  atomic.Bool
}

type workerRequest struct {
	ID            string      `json:"id"`
	Op            string      `json:"op"`
	AcousticModel string      `json:"acoustic_model,omitempty"`
	Vocoder       string      `json:"vocoder,omitempty"`
	HParams       string      `json:"hparams,omitempty"`
	Sequence      []int       `json:"sequence,omitempty"`
	NoiseScale    float64     `json:"noise_scale,omitempty"`
	LengthScale   float64     `json:"length_scale,omitempty"`
	Mel           [][]float32 `json:"mel,omitempty"`
}

// StartWorker запускает процесс и ждёт, пока он загрузит веса обеих моделей.
// Ошибка здесь фатальна для бэкенда.
func StartWorker(nc config.NeuralTTSConfig) (*Worker, error) {
	for _, p := range []string{nc.AcousticModelPath, nc.VocoderPath} {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("neural: model weights not found: %w", err)
		}
	}

	cmd := exec.Command(nc.Command, nc.Args...)
	stderr := &tailBuffer{limit: 8 << 10}
	cmd.Stderr = stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("neural: start worker: %w", err)
	}

	w := &Worker{cmd: cmd, stdin: stdin, out: bufio.NewReaderSize(stdout, 1<<20), stderr: stderr, maxLine: maxResponseLine}

	timeout := nc.StartTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	loaded := make(chan error, 1)
	go func() {
		_, err := w.call(workerRequest{
			Op:            "load",
			AcousticModel: nc.AcousticModelPath,
			Vocoder:       nc.VocoderPath,
			HParams:       nc.HParamsPath,
		})
		loaded <- err
	}()

	select {
	case err = <-loaded:
	case <-time.After(timeout):
		err = fmt.Errorf("models were not loaded in %s", timeout)
	}
	if err != nil {
		_ = stdin.Close()
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("neural worker failed to start: %s", msg)
	}
	return w, nil
}

// Models отдаёт воркер как акустическую модель и вокодер.
func (w *Worker) Models() Models {
	return Models{Acoustic: w, Vocoder: w, Close: w.Close}
}

func (w *Worker) Infer(ctx context.Context, seq []int, noiseScale, lengthScale float64) (Mel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, err := w.call(workerRequest{Op: "acoustic", Sequence: seq, NoiseScale: noiseScale, LengthScale: lengthScale})
	if err != nil {
		return nil, err
	}
	melV := v.Get("mel")
	if melV == nil {
		return nil, errors.New("neural: mel: missing array")
	}
	rows, err := melV.Array()
	if err != nil {
		return nil, fmt.Errorf("neural: mel: %w", err)
	}
	mel := make(Mel, len(rows))
	for i, row := range rows {
		if mel[i], err = floats(row); err != nil {
			return nil, fmt.Errorf("neural: mel row %d: %w", i, err)
		}
	}
	return mel, nil
}

func (w *Worker) Vocode(ctx context.Context, mel Mel) (Waveform, error) {
	if err := ctx.Err(); err != nil {
		return Waveform{}, err
	}
	v, err := w.call(workerRequest{Op: "vocoder", Mel: mel})
	if err != nil {
		return Waveform{}, err
	}
	samples, err := floats(v.Get("audio"))
	if err != nil {
		return Waveform{}, fmt.Errorf("neural: audio: %w", err)
	}
	return Waveform{Samples: samples, SampleRate: v.GetInt("sample_rate")}, nil
}

// call пишет запрос и ждёт ответ с его id. Возвращённое значение живёт до следующего call.
func (w *Worker) call(req workerRequest) (*fastjson.Value, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed.Load() {
		return nil, errWorkerClosed
	}

	req.ID = uuid.NewString()
	b, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	b = append(b, '\n')
	if _, err := w.stdin.Write(b); err != nil {
		return nil, err
	}

	// Строки, которые не разбираются или несут чужой id (печать библиотек в stdout,
	// ответ на прерванный запрос), пропускаем, чтобы поток не сбился навсегда.
	for skipped := 0; skipped <= maxSkippedLines; skipped++ {
		line, err := w.readLine()
		if err != nil {
			return nil, err
		}
		v, err := w.parser.ParseBytes(line)
		if err != nil || v.Type() != fastjson.TypeObject {
			continue
		}
		if id := string(v.GetStringBytes("id")); id != req.ID {
			continue
		}
		if !v.GetBool("ok") {
			msg := strings.TrimSpace(string(v.GetStringBytes("error")))
			if msg == "" {
				msg = "unknown neural worker error"
			}
			return nil, errors.New(msg)
		}
		return v, nil
	}
	return nil, fmt.Errorf("neural worker: no response for %s after %d unrelated lines", req.ID, maxSkippedLines)
}

// readLine читает одну строку целиком. Слишком длинная строка дочитывается до конца
// и отбрасывается, следующий вызов начинается с новой строки.
func (w *Worker) readLine() ([]byte, error) {
	var line []byte
	tooLarge := false
	for {
		chunk, isPrefix, err := w.out.ReadLine()
		if err != nil {
			return nil, err
		}
		if !tooLarge {
			line = append(line, chunk...)
			if len(line) > w.maxLine {
				tooLarge = true
				line = nil
			}
		}
		if !isPrefix {
			if tooLarge {
				return nil, errResponseTooLarge
			}
			return line, nil
		}
	}
}

func floats(v *fastjson.Value) ([]float32, error) {
	if v == nil {
		return nil, errors.New("missing array")
	}
	arr, err := v.Array()
	if err != nil {
		return nil, err
	}
	out := make([]float32, len(arr))
	for i, x := range arr {
		f, err := x.Float64()
		if err != nil {
			return nil, err
		}
		out[i] = float32(f)
	}
	return out, nil
}

// Close закрывает stdin и даёт процессу немного времени завершиться, затем убивает.
// Не ждёт текущий запрос: его чтение прервётся вместе с процессом.
func (w *Worker) Close() error {
	if !w.closed.CompareAndSwap(false, true) {
		return nil
	}
	_ = w.stdin.Close()
	if w.cmd.Process == nil {
		return nil
	}

	_ = w.cmd.Process.Signal(os.Interrupt)
	done := make(chan error, 1)
	go func() { done <- w.cmd.Wait() }()

	select {
	case <-time.After(1200 * time.Millisecond):
		_ = w.cmd.Process.Kill()
		<-done
	case <-done:
	}
	return nil
}

// tailBuffer хранит последние limit байт stderr воркера для сообщений об ошибках.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
