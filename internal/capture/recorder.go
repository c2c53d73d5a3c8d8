package capture

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mock-interview/internal/audio"
	"mock-interview/internal/interview"
)

// Device: источник 16-битного моно PCM. Start вызывает onAudio из потока
// устройства, пока не будет вызван Stop.
type Device interface {
	Start(onAudio func(pcm []byte)) error
	Stop() error
}

var (
	_ AnswerCapture = (*Recorder)(nil)
	_ AnswerCapture = TextOnly{}
)

// Recorder пишет ответ с Device в память и отдает его как WAV
type Recorder struct {
	device     Device
	sampleRate int
	logger     *slog.Logger

	mu     sync.Mutex
	active *Handle

	bufMu sync.Mutex
	buf   bytes.Buffer
}

// NewRecorder создает Recorder; sampleRate <= 0 означает DefaultCaptureSampleRate
func NewRecorder(device Device, sampleRate int, logger *slog.Logger) *Recorder {
	if sampleRate <= 0 {
		sampleRate = audio.DefaultCaptureSampleRate
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		device:     device,
		sampleRate: sampleRate,
		logger:     logger.With("component", "capture"),
	}
}

func (r *Recorder) BeginAudioCapture(_ context.Context) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		return Handle{}, ErrCaptureInProgress
	}
	if r.device == nil {
		return Handle{}, ErrDeviceUnavailable
	}

	r.bufMu.Lock()
	r.buf.Reset()
	r.bufMu.Unlock()

	if err := r.device.Start(r.onAudio); err != nil {
		return Handle{}, fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}

	h := Handle{ID: uuid.New().String(), StartedAt: time.Now()}
	r.active = &h
	r.logger.Debug("capture started", "handle", h.ID)
	return h, nil
}

func (r *Recorder) onAudio(pcm []byte) {
	r.bufMu.Lock()
	r.buf.Write(pcm)
	r.bufMu.Unlock()
}

// EndAudioCapture останавливает устройство даже при ошибке и сбрасывает хэндл
func (r *Recorder) EndAudioCapture(_ context.Context, h Handle) (interview.AnswerPayload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active == nil || r.active.ID != h.ID {
		return interview.AnswerPayload{}, ErrUnknownHandle
	}
	r.active = nil

	stopErr := r.device.Stop()

	r.bufMu.Lock()
	pcm := bytes.Clone(r.buf.Bytes())
	r.buf.Reset()
	r.bufMu.Unlock()

	r.logger.Debug("capture stopped", "handle", h.ID, "bytes", len(pcm), "duration", time.Since(h.StartedAt))

	if stopErr != nil {
		return interview.AnswerPayload{}, fmt.Errorf("error stopping capture device: %w", stopErr)
	}
	if len(pcm) < 2 {
		return interview.AnswerPayload{}, ErrNoAudio
	}
	if len(pcm)%2 != 0 {
		pcm = pcm[:len(pcm)-1]
	}

	wav, err := audio.EncodeWAV(pcm, r.sampleRate)
	if err != nil {
		return interview.AnswerPayload{}, err
	}
	return interview.AudioAnswer(wav, audio.WAVMimeType), nil
}

func (r *Recorder) SubmitText(text string) interview.AnswerPayload {
	return interview.TextAnswer(text)
}

// TextOnly: AnswerCapture без устройства записи: любая попытка записи
// завершается ErrDeviceUnavailable.
type TextOnly struct{}

func (TextOnly) BeginAudioCapture(context.Context) (Handle, error) {
	return Handle{}, ErrDeviceUnavailable
}

func (TextOnly) EndAudioCapture(context.Context, Handle) (interview.AnswerPayload, error) {
	return interview.AnswerPayload{}, ErrUnknownHandle
}

func (TextOnly) SubmitText(text string) interview.AnswerPayload {
	return interview.TextAnswer(text)
}
