package gateway

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"mock-interview/internal/api"
	"mock-interview/internal/audio"
	"mock-interview/internal/retry"
)

// SynthesizeSpeech озвучивает текст и возвращает WAV. Запасного результата
// нет: после исчерпания попыток возвращается ErrSynthesisFailed.
func (g *Gateway) SynthesizeSpeech(ctx context.Context, text string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "synthesize speech")
	defer span.End()
	span.SetAttributes(
		attribute.String("speech.voice", g.voice),
		attribute.Int("speech.sample_rate", g.sampleRate),
	)

	if blank(text) {
		err := fmt.Errorf("%w: text is empty", ErrSynthesisFailed)
		recordError(span, err)
		return nil, err
	}

	pcm, err := retry.Do(ctx, g.policy, func(ctx context.Context) ([]byte, error) {
		data, err := g.newService().Speech(ctx, api.SpeechRequest{Text: text, Voice: g.voice})
		g.metrics.IncrementAPICall(err == nil)
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			return nil, errors.New("speech service returned no audio")
		}
		return data, nil
	}, g.retryOptions("speech")...)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
		recordError(span, err)
		return nil, err
	}

	// сервис может оборвать поток посреди сэмпла
	if len(pcm)%2 != 0 {
		pcm = pcm[:len(pcm)-1]
	}

	wav, err := audio.EncodeWAV(pcm, g.sampleRate)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("speech.bytes", len(wav)))
	return wav, nil
}
