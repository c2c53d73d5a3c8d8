package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"mock-interview/internal/api"
	"mock-interview/internal/interview"
	"mock-interview/internal/prompts"
	"mock-interview/internal/retry"
)

const (
	// FailureNotice: отзыв, который подставляется, если оценку получить не удалось
	FailureNotice = "Feedback is unavailable for this answer because the evaluation service could not be reached. Your answer has been saved."
	// UnprocessableAudio: расшифровка для аудиоответа, который не удалось обработать
	UnprocessableAudio = "[audio could not be processed]"
)

type evaluationResponse struct {
	Transcription string `json:"transcription"`
	Feedback      string `json:"feedback"`
}

// EvaluateAnswer оценивает ответ кандидата. Ошибок наружу не возвращает:
// при любом сбое отдает запасной результат с FailureNotice, чтобы одна
// неудачная оценка не обрывала сессию.
func (g *Gateway) EvaluateAnswer(ctx context.Context, answer interview.AnswerPayload, questionText string, secondary bool) interview.Evaluation {
	ctx, span := tracer.Start(ctx, "evaluate answer")
	defer span.End()
	span.SetAttributes(
		attribute.String("answer.kind", answer.Kind().String()),
		attribute.Bool("round.secondary_language", secondary),
	)

	eval, err := g.evaluate(ctx, answer, questionText, secondary)
	if err != nil {
		recordError(span, err)
		g.logger.Warn("evaluation failed, using fallback", "kind", answer.Kind().String(), "error", err)
		g.metrics.IncrementEvaluationFallbacks()
		return fallbackEvaluation(answer)
	}
	return eval
}

func (g *Gateway) evaluate(ctx context.Context, answer interview.AnswerPayload, questionText string, secondary bool) (interview.Evaluation, error) {
	input := prompts.EvaluationInput{QuestionText: questionText, SecondaryLanguage: secondary}
	var audioPart *api.Part

	switch answer.Kind() {
	case interview.AnswerAudio:
		data, mime, _ := answer.Audio()
		if len(data) == 0 {
			return interview.Evaluation{}, fmt.Errorf("empty audio answer")
		}
		input.AudioAnswer = true
		audioPart = &api.Part{Data: data, MimeType: mime}
	case interview.AnswerText:
		text, _ := answer.Text()
		input.AnswerText = text
	default:
		return interview.Evaluation{}, fmt.Errorf("answer payload is empty")
	}

	parts := []api.Part{api.TextPart(prompts.BuildEvaluationPrompt(input, g.languages))}
	if audioPart != nil {
		parts = append(parts, *audioPart)
	}

	req := api.Request{
		System:      prompts.BuildEvaluationSystemPrompt(g.languages),
		Parts:       parts,
		Schema:      reflectSchema(evaluationResponse{}),
		SchemaName:  "answer_evaluation",
		Temperature: 0.3,
	}

	resp, err := retry.Do(ctx, g.policy, func(ctx context.Context) (*evaluationResponse, error) {
		raw, err := g.complete(ctx, req)
		if err != nil {
			return nil, err
		}
		var parsed evaluationResponse
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			return nil, retry.Permanent(fmt.Errorf("%w: %v", ErrMalformedResponse, err))
		}
		if blank(parsed.Feedback) {
			return nil, retry.Permanent(fmt.Errorf("%w: feedback is empty", ErrMalformedResponse))
		}
		return &parsed, nil
	}, g.retryOptions("evaluation")...)
	if err != nil {
		return interview.Evaluation{}, err
	}

	eval := interview.Evaluation{Transcription: resp.Transcription, Feedback: resp.Feedback}
	if text, ok := answer.Text(); ok {
		eval.Transcription = text
	} else if blank(eval.Transcription) {
		eval.Transcription = UnprocessableAudio
	}
	return eval, nil
}

func fallbackEvaluation(answer interview.AnswerPayload) interview.Evaluation {
	transcription := UnprocessableAudio
	if text, ok := answer.Text(); ok && !blank(text) {
		transcription = text
	}
	return interview.Evaluation{
		Transcription: transcription,
		Feedback:      FailureNotice,
		Fallback:      true,
	}
}
