package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// DefaultAttempts — сколько раз повторяем синтез, прежде чем сдаться.
const DefaultAttempts = 3

// ErrExhausted возвращается, когда все попытки завершились ошибкой.
var ErrExhausted = errors.New("retry: attempts exhausted")

// Policy оборачивает один ненадёжный шаг (сетевой вызов или инференс модели).
// Ошибки каждой попытки логируются и не пробрасываются наружу по отдельности.
type Policy struct {
	Attempts    int
	Delay       time.Duration // между попытками; 0 — сразу следующая
	IsRetryable func(error) bool
	Logger      *zap.SugaredLogger
	Sleep       func(time.Duration)
}

func New(attempts int, delay time.Duration, logger *zap.SugaredLogger) Policy {
	return Policy{Attempts: attempts, Delay: delay, Logger: logger}
}

// Do выполняет fn не более Attempts раз. attempt передаётся начиная с 1.
// Неповторяемая ошибка прерывает цикл сразу. Возвращает nil при первой удаче,
// иначе ErrExhausted, обёрнутый вокруг последней ошибки.
func (p Policy) Do(ctx context.Context, op string, fn func(ctx context.Context, attempt int) error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		if err := ctx.Err(); err != nil {
			return errors.Join(ErrExhausted, err)
		}
		err := fn(ctx, i)
		if err == nil {
			return nil
		}
		lastErr = err
		if p.Logger != nil {
			p.Logger.Warnw("Couldn't complete "+op, "attempt", i, "of", attempts, "error", err)
		}
		if p.IsRetryable != nil && !p.IsRetryable(err) {
			break
		}
		if i < attempts && p.Delay > 0 {
			sleep(p.Delay)
		}
	}
	return errors.Join(ErrExhausted, lastErr)
}
