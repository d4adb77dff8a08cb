package tts

import "context"

// Backend — общий контракт всех реализаций синтеза речи.
// Все методы синхронные; IsSpeaking можно опрашивать из другой горутины без блокировок.
type Backend interface {
	// Language возвращает языковой тег, заданный при создании.
	Language() string
	// IsSpeaking истинно, пока идёт синтез или воспроизведение.
	IsSpeaking() bool
	// Synthesize блокируется до завершения синтеза (и воспроизведения) либо исчерпания попыток.
	Synthesize(ctx context.Context, req Request) Result
	// TextToSpeech — то же для вызывающего кода: путь к файлу или ok=false.
	TextToSpeech(ctx context.Context, text string, audioFilePrefix string) (string, bool)
}

// Request — неизменяемые параметры одного вызова. Пустой Language — язык бэкенда.
type Request struct {
	Text            string
	Language        string
	AudioFilePrefix string
}

// Result — путь к сохранённому wav. Пустой путь означает отсутствие результата.
type Result struct {
	Path string
}

func (r Result) Present() bool { return r.Path != "" }

// Step — единственный ненадёжный шаг бэкенда: текст в байты wav.
type Step func(ctx context.Context, req Request) ([]byte, error)

// Observer получает переходы состояния «говорит / молчит».
type Observer interface {
	SpeakingChanged(tag string, speaking bool)
}
