package tts

import (
	"context"
	"errors"
	"fmt"
)

// ErrBackendInit — ошибка создания бэкенда (модели, учётные данные, конфиг). Экземпляр не создаётся.
var ErrBackendInit = errors.New("tts: backend initialization failed")

// SynthesisError описывает ошибку шага синтеза. Retryable=false прерывает повторы.
type SynthesisError struct {
	Backend   string
	Message   string
	Cause     error
	Retryable bool
}

func (e *SynthesisError) Error() string {
	if e.Cause != nil {
		return e.Backend + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Backend + ": " + e.Message
}

func (e *SynthesisError) Unwrap() error { return e.Cause }

// Transient — ошибка, которую имеет смысл повторить (сеть, сбой модели).
func Transient(backend, message string, cause error) error {
	return &SynthesisError{Backend: backend, Message: message, Cause: cause, Retryable: true}
}

// Permanent — повтор не поможет (неподдерживаемый язык, неверный запрос).
func Permanent(backend, message string, cause error) error {
	return &SynthesisError{Backend: backend, Message: message, Cause: cause, Retryable: false}
}

// InitError оборачивает причину в ErrBackendInit.
func InitError(backend string, cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrBackendInit, backend, cause)
}

// IsRetryable: всё, что не помечено как постоянная ошибка и не отмена контекста, повторяем.
// Таймауты отдельных запросов остаются повторяемыми.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *SynthesisError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return true
}
