package retry

import (
	"context"
	"errors"
)

// Retryable реализуют ошибки, которые сами знают, стоит ли повторять запрос
type Retryable interface {
	IsRetryable() bool
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string     { return e.err.Error() }
func (e *permanentError) Unwrap() error     { return e.err }
func (e *permanentError) IsRetryable() bool { return false }

// Permanent помечает ошибку как неповторяемую. errors.Is/As продолжают
// видеть исходную ошибку.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsRetryable: отмена контекста и ошибки с IsRetryable() == false не повторяются,
// все остальное считается временным сбоем.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var r Retryable
	if errors.As(err, &r) {
		return r.IsRetryable()
	}
	return true
}
