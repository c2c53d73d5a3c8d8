// Package retry выполняет ненадежные операции с ограниченным числом попыток
// и экспоненциальной задержкой между ними.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"
)

var (
	// ErrInvocationExhausted: все попытки исчерпаны, последняя ошибка обернута рядом
	ErrInvocationExhausted = errors.New("invocation exhausted")

	errMaxAttemptsInvalid = errors.New("max attempts must be greater than 0")
	errBaseDelayInvalid   = errors.New("base delay must be greater than 0")
	errMultiplierInvalid  = errors.New("multiplier must be >= 1.0")
)

// Policy: неизменяемые параметры повторов
type Policy struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	Multiplier  float64       `yaml:"multiplier" json:"multiplier"`
}

// DefaultPolicy: 3 попытки, задержки 1s и 2s
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: time.Second, Multiplier: 2}
}

// Validate проверяет корректность политики
func (p Policy) Validate() error {
	if p.MaxAttempts <= 0 {
		return fmt.Errorf("%w, got %d", errMaxAttemptsInvalid, p.MaxAttempts)
	}
	if p.BaseDelay <= 0 {
		return fmt.Errorf("%w, got %v", errBaseDelayInvalid, p.BaseDelay)
	}
	if p.Multiplier < 1.0 {
		return fmt.Errorf("%w, got %f", errMultiplierInvalid, p.Multiplier)
	}
	return nil
}

// Backoff возвращает паузу после неудачной попытки attempt (с нуля):
// BaseDelay * Multiplier^attempt.
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 0 {
		return 0
	}
	multiplier := p.Multiplier
	if multiplier < 1.0 {
		multiplier = 1.0
	}
	return time.Duration(float64(p.BaseDelay) * math.Pow(multiplier, float64(attempt)))
}

// Operation: одна попытка; вызывается заново на каждом повторе
type Operation[T any] func(ctx context.Context) (T, error)

// Sleeper приостанавливает вызывающего на d или до отмены контекста
type Sleeper func(ctx context.Context, d time.Duration) error

// Option настраивает отдельный вызов Do
type Option func(*options)

type options struct {
	sleep  Sleeper
	logger *slog.Logger
	name   string
}

// WithSleeper подменяет ожидание (используется в тестах)
func WithSleeper(s Sleeper) Option {
	return func(o *options) {
		if s != nil {
			o.sleep = s
		}
	}
}

// WithLogger задает логгер для сообщений о повторах
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithName добавляет имя операции в логи
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// Do выполняет op до policy.MaxAttempts раз и возвращает первый успех.
// Ошибки с IsRetryable() == false возвращаются сразу, без обертки.
// После последней неудачи возвращается ошибка, совпадающая и с
// ErrInvocationExhausted, и с последней ошибкой операции.
func Do[T any](ctx context.Context, policy Policy, op Operation[T], opts ...Option) (T, error) {
	var zero T
	if err := policy.Validate(); err != nil {
		return zero, fmt.Errorf("invalid retry policy: %w", err)
	}

	o := options{sleep: sleepContext, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.With("component", "retry")
	if o.name != "" {
		logger = logger.With("operation", o.name)
	}

	var lastErr error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := op(ctx)
		if err == nil {
			if attempt > 0 {
				logger.Info("operation succeeded after retry", "attempt", attempt+1)
			}
			return result, nil
		}

		if !IsRetryable(err) {
			logger.Debug("non-retryable error", "attempt", attempt+1, "error", err)
			return zero, err
		}
		lastErr = err

		if attempt == policy.MaxAttempts-1 {
			break
		}

		backoff := policy.Backoff(attempt)
		logger.Debug("retrying after backoff",
			"attempt", attempt+1,
			"backoff", backoff,
			"error", err)

		if err := o.sleep(ctx, backoff); err != nil {
			return zero, err
		}
	}

	logger.Warn("all attempts failed", "attempts", policy.MaxAttempts, "error", lastErr)
	return zero, fmt.Errorf("%w after %d attempts: %w", ErrInvocationExhausted, policy.MaxAttempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
