package session

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientQuestionPool: в пуле меньше уникальных вопросов, чем раундов
	ErrInsufficientQuestionPool = errors.New("insufficient question pool")
	// ErrEmptyAnswer: текстовый ответ пуст после обрезки пробелов
	ErrEmptyAnswer = errors.New("answer is empty")
	// ErrInvalidTransition: действие недопустимо в текущем состоянии
	ErrInvalidTransition = errors.New("invalid transition")
)

func invalidTransition(action string, state State) error {
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, state)
}
