// Package capture получает ответ кандидата: запись с устройства или текст.
package capture

import (
	"context"
	"errors"
	"time"

	"mock-interview/internal/interview"
)

var (
	// ErrDeviceUnavailable: устройство записи занято, отсутствует или нет разрешения
	ErrDeviceUnavailable = errors.New("capture device unavailable")
	// ErrCaptureInProgress: предыдущая запись еще не закрыта
	ErrCaptureInProgress = errors.New("audio capture already in progress")
	// ErrUnknownHandle: хэндл не относится к текущей записи
	ErrUnknownHandle = errors.New("unknown capture handle")
	// ErrNoAudio: запись остановлена, но ни одного сэмпла не получено
	ErrNoAudio = errors.New("no audio captured")
)

// Handle: открытая запись. Одновременно открыт не более одного.
type Handle struct {
	ID        string
	StartedAt time.Time
}

// AnswerCapture: источник ответов для контроллера сессии
type AnswerCapture interface {
	// BeginAudioCapture захватывает устройство и начинает запись
	BeginAudioCapture(ctx context.Context) (Handle, error)
	// EndAudioCapture останавливает запись и освобождает устройство в любом случае
	EndAudioCapture(ctx context.Context, h Handle) (interview.AnswerPayload, error)
	// SubmitText оборачивает текстовый ответ; ресурсов не держит
	SubmitText(text string) interview.AnswerPayload
}
