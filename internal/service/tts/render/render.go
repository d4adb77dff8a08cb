package render

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"SpeechSynthesis/internal/service/tts/player"

	"go.uber.org/zap"
)

// timestampLayout используется как префикс файла, если вызывающий префикс не передал.
const timestampLayout = "2006-01-02-15-04-05.000"

// maxNameAttempts ограничивает перебор суффиксов для одного имени.
const maxNameAttempts = 1000

var prefixReplacer = strings.NewReplacer("/", "_", "\\", "_", string(filepath.Separator), "_")

// Renderer сохраняет синтезированный wav в каталог, проигрывает и удаляет его.
type Renderer struct {
	tag    string
	player player.Player
	logger *zap.SugaredLogger
	now    func() time.Time

	mu  sync.RWMutex
	dir string
}

// New создаёт рендерер. tag — метка бэкенда в имени файла. Каталог создаётся сразу.
func New(dir, tag string, p player.Player, logger *zap.SugaredLogger) (*Renderer, error) {
	r := &Renderer{tag: tag, player: p, logger: logger, now: time.Now}
	if err := r.SetDir(dir); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Renderer) Dir() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dir
}

// SetDir меняет каталог для новых файлов и создаёт его вместе с родителями.
func (r *Renderer) SetDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		dir = "audios"
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return err
	}
	r.mu.Lock()
	r.dir = abs
	r.mu.Unlock()
	if r.logger != nil {
		r.logger.Infow("Saving audios to path", "dir", abs)
	}
	return nil
}

// Filename строит путь <prefix-or-timestamp>_<tag>.wav внутри каталога.
func (r *Renderer) Filename(prefix string) string {
	return r.candidate(r.stem(prefix), 0)
}

func (r *Renderer) stem(prefix string) string {
	prefix = prefixReplacer.Replace(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = r.now().Format(timestampLayout)
	}
	return prefix
}

// candidate: n > 0 добавляет к основе суффикс -n, чтобы не перезаписать чужой файл.
func (r *Renderer) candidate(stem string, n int) string {
	if n > 0 {
		stem = fmt.Sprintf("%s-%d", stem, n)
	}
	return filepath.Join(r.Dir(), fmt.Sprintf("%s_%s.wav", stem, r.tag))
}

// Store пишет байты как есть в новый файл; занятое имя получает суффикс -1, -2, ...
// При ошибке записи логирует и возвращает пустой путь.
func (r *Renderer) Store(audio []byte, prefix string) string {
	stem := r.stem(prefix)
	if err := os.MkdirAll(r.Dir(), 0o755); err != nil {
		r.warn("Failed to create audios dir", r.Dir(), err)
		return ""
	}

	for n := 0; n < maxNameAttempts; n++ {
		path := r.candidate(stem, n)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			r.warn("Failed to create audio file", path, err)
			return ""
		}
		_, err = f.Write(audio)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			r.warn("Failed to write audio file", path, err)
			_ = os.Remove(path)
			return ""
		}
		if r.logger != nil {
			r.logger.Debugw("Audio content written to file", "path", path, "bytes", len(audio))
		}
		return path
	}
	r.warn("No free audio file name", r.candidate(stem, 0), fs.ErrExist)
	return ""
}

// Play открывает wav и блокируется до конца воспроизведения. Пустой путь — no-op.
// Ошибки открытия и устройства только логируются.
func (r *Renderer) Play(path string) {
	if path == "" || r.player == nil {
		return
	}
	f, err := os.Open(path)
	if err != nil {
		r.warn("Failed to open wav file", path, err)
		return
	}
	defer f.Close()

	started := time.Now()
	if err := r.player.Play("wav", f); err != nil {
		r.warn("Failed to play wav file", path, err)
		return
	}
	if r.logger != nil {
		r.logger.Debugw("Playback completed", "path", path, "took", time.Since(started).String())
	}
}

// Delete удаляет файл, если он есть.
func (r *Renderer) Delete(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		r.warn("Failed to delete audio file", path, err)
	}
}

func (r *Renderer) warn(msg, path string, err error) {
	if r.logger != nil {
		r.logger.Warnw(msg, "path", path, "error", err)
	}
}
