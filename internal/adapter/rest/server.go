package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"SpeechSynthesis/internal/config"
	"SpeechSynthesis/internal/service/status"
	"SpeechSynthesis/internal/service/tts"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Factory создаёт бэкенд по имени сервиса (google, mozilla, ...).
type Factory func(ctx context.Context, name string) (tts.Backend, error)

// Normalizer приводит имя из пути к каноническому; пустая строка — неизвестный бэкенд.
type Normalizer func(name string) string

// Output — тело ответа синтеза: путь к файлу или пустая строка.
type Output struct {
	Value string `json:"value"`
}

// SpeechServer — тонкий HTTP-адаптер над бэкендами TTS.
// Бэкенды создаются лениво и переиспользуются: загрузка моделей дорогая.
type SpeechServer struct {
	cfg       config.ServerConfig
	srv       *http.Server
	logger    *zap.SugaredLogger
	factory   Factory
	normalize Normalizer
	board     *status.Board
	upgrader  websocket.Upgrader
	running   atomic.Bool

	mu       sync.Mutex
	backends map[string]tts.Backend
	creating singleflight.Group

	subsMu sync.Mutex
	subs   map[chan status.Event]struct{}
}

func NewSpeechServer(cfg config.ServerConfig, factory Factory, normalize Normalizer, board *status.Board, logger *zap.SugaredLogger) *SpeechServer {
	if cfg.BindAddr == "" {
		cfg.BindAddr = "127.0.0.1:8000"
	}
	cfg.BasePath = "/" + strings.Trim(cfg.BasePath, "/")
	if cfg.BasePath == "/" {
		cfg.BasePath = ""
	}
	if board == nil {
		board = status.New(0)
	}
	s := &SpeechServer{
		cfg:       cfg,
		logger:    logger,
		factory:   factory,
		normalize: normalize,
		board:     board,
		backends:  make(map[string]tts.Backend),
		subs:      make(map[chan status.Event]struct{}),
	}

	s.srv = &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// WriteTimeout не задаём: синтез с воспроизведением и websocket живут дольше.
		IdleTimeout: 60 * time.Second,
	}
	return s
}

// Handler возвращает маршруты сервера.
func (s *SpeechServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+s.cfg.BasePath+"/text_to_speech/{backend}", s.handleTextToSpeech)
	mux.HandleFunc("GET "+s.cfg.BasePath+"/speaking", s.handleSpeaking)
	mux.HandleFunc("GET "+s.cfg.BasePath+"/status", s.handleStatus)
	return mux
}

func (s *SpeechServer) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}
	go s.broadcast(ctx)
	go func() {
		s.logger.Infow("SpeechServer listening", "addr", s.srv.Addr, "base", s.cfg.BasePath)
		if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) && err != nil {
			s.logger.Errorw("SpeechServer stopped with error", "error", err)
		} else {
			s.logger.Infow("SpeechServer stopped")
		}
	}()

	go func() {
		<-ctx.Done()
		_ = s.Stop(context.WithoutCancel(ctx))
	}()
	return nil
}

func (s *SpeechServer) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeoutCause(ctx, 5*time.Second, errors.New("speech-server shutdown timeout"))
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warnw("graceful shutdown error", "error", err)
		return s.srv.Close()
	}
	return nil
}

func (s *SpeechServer) Addr() string { return s.cfg.BindAddr }

// Backends возвращает уже созданные бэкенды для закрытия при остановке.
func (s *SpeechServer) Backends() []tts.Backend {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]tts.Backend, 0, len(s.backends))
	for _, b := range s.backends {
		out = append(out, b)
	}
	return out
}

// backend создаёт бэкенд вне s.mu: загрузка моделей долгая, а /speaking не должен ждать.
// Параллельные запросы к ещё не созданному бэкенду ждут одну и ту же сборку.
func (s *SpeechServer) backend(ctx context.Context, name string) (tts.Backend, error) {
	if b, ok := s.lookup(name); ok {
		return b, nil
	}
	v, err, _ := s.creating.Do(name, func() (any, error) {
		if b, ok := s.lookup(name); ok {
			return b, nil
		}
		b, err := s.factory(ctx, name)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.backends[name] = b
		s.mu.Unlock()
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(tts.Backend), nil
}

func (s *SpeechServer) lookup(name string) (tts.Backend, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.backends[name]
	return b, ok
}

func (s *SpeechServer) handleTextToSpeech(w http.ResponseWriter, r *http.Request) {
	name := s.normalize(r.PathValue("backend"))
	if name == "" {
		http.Error(w, "unknown tts backend", http.StatusNotFound)
		return
	}
	reqID := uuid.NewString()
	log := s.logger.With("request_id", reqID, "backend", name)

	b, err := s.backend(context.WithoutCancel(r.Context()), name)
	if err != nil {
		log.Errorw("Failed to create TTS backend", "error", err)
		http.Error(w, "tts backend unavailable", http.StatusServiceUnavailable)
		return
	}

	q := r.URL.Query()
	started := time.Now()
	path, _ := b.TextToSpeech(r.Context(), q.Get("text"), q.Get("prefix"))
	log.Infow("Text to speech request served", "path", path, "took", time.Since(started).String())

	writeJSON(w, Output{Value: path})
}

func (s *SpeechServer) handleSpeaking(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	snapshot := make(map[string]bool, len(s.backends))
	for name, b := range s.backends {
		snapshot[name] = b.IsSpeaking()
	}
	s.mu.Unlock()
	writeJSON(w, snapshot)
}

// handleStatus поднимает websocket и шлёт события «говорит / молчит» по мере появления.
func (s *SpeechServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ch := s.subscribe()
	defer s.unsubscribe(ch)

	// Читаем только ради обнаружения закрытия со стороны клиента.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case ev := <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(ev); err != nil {
				s.logger.Debugw("websocket write failed", "error", err)
				return
			}
		}
	}
}

// broadcast разливает события из Board всем подписчикам.
func (s *SpeechServer) broadcast(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.board.NotifyCh():
		}
		events := s.board.Drain()
		sort.SliceStable(events, func(i, j int) bool { return events[i].At.Before(events[j].At) })

		s.subsMu.Lock()
		for ch := range s.subs {
			for _, ev := range events {
				select {
				case ch <- ev:
				default: // медленный клиент теряет события
				}
			}
		}
		s.subsMu.Unlock()
	}
}

func (s *SpeechServer) subscribe() chan status.Event {
	ch := make(chan status.Event, 16)
	s.subsMu.Lock()
	s.subs[ch] = struct{}{}
	s.subsMu.Unlock()
	return ch
}

func (s *SpeechServer) unsubscribe(ch chan status.Event) {
	s.subsMu.Lock()
	delete(s.subs, ch)
	s.subsMu.Unlock()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
