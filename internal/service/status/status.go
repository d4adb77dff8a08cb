package status

import (
	"sync"
	"time"
)

// Event — переход бэкенда в состояние «говорит» или обратно.
type Event struct {
	Backend  string    `json:"backend"`
	Speaking bool      `json:"speaking"`
	At       time.Time `json:"at"`
}

// Board — потокобезопасный буфер фиксированной ёмкости для событий речи.
// Реализует tts.Observer.
type Board struct {
	cap    int
	events []Event
	mu     sync.Mutex
	notify chan struct{}
}

func New(capacity int) *Board {
	if capacity <= 0 {
		capacity = 20
	}
	return &Board{cap: capacity, events: make([]Event, 0, capacity), notify: make(chan struct{}, 1)}
}

// SpeakingChanged вызывается компонентом синтеза на каждом переходе.
func (b *Board) SpeakingChanged(tag string, speaking bool) {
	b.Add(Event{Backend: tag, Speaking: speaking, At: time.Now()})
}

// Add добавляет событие, при переполнении удаляет самое старое.
func (b *Board) Add(e Event) {
	b.mu.Lock()
	if len(b.events) == b.cap {
		copy(b.events, b.events[1:])
		b.events = b.events[:b.cap-1]
	}
	b.events = append(b.events, e)
	b.mu.Unlock()
	select {
	case b.notify <- struct{}{}:
	default:
	}
}

// Drain возвращает все события и очищает буфер.
func (b *Board) Drain() []Event {
	b.mu.Lock()
	evs := make([]Event, len(b.events))
	copy(evs, b.events)
	b.events = b.events[:0]
	b.mu.Unlock()
	return evs
}

func (b *Board) Len() int {
	b.mu.Lock()
	l := len(b.events)
	b.mu.Unlock()
	return l
}

func (b *Board) NotifyCh() <-chan struct{} { return b.notify }
