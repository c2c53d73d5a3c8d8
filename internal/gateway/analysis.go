package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"go.opentelemetry.io/otel/attribute"

	"mock-interview/internal/api"
	"mock-interview/internal/interview"
	"mock-interview/internal/prompts"
	"mock-interview/internal/retry"
)

// CompetencyLevel: оценка подготовки кандидата, четыре уровня
type CompetencyLevel string

const (
	CompetencyExcellent  CompetencyLevel = "excellent"
	CompetencyProficient CompetencyLevel = "proficient"
	CompetencyDeveloping CompetencyLevel = "developing"
	CompetencyBeginner   CompetencyLevel = "beginner"
)

// EvidenceCount: сколько подтверждающих фактов должен вернуть анализ
const EvidenceCount = 3

func (c CompetencyLevel) valid() bool {
	switch c {
	case CompetencyExcellent, CompetencyProficient, CompetencyDeveloping, CompetencyBeginner:
		return true
	}
	return false
}

// SelfIntroductions: три варианта самопрезентации разной длины
type SelfIntroductions struct {
	Concise  string `json:"concise"`
	Standard string `json:"standard"`
	Detailed string `json:"detailed"`
}

// AnalysisResult: разбор резюме
type AnalysisResult struct {
	Competency    CompetencyLevel   `json:"competency" jsonschema:"enum=excellent,enum=proficient,enum=developing,enum=beginner"`
	Evidence      []string          `json:"evidence" jsonschema:"minItems=3,maxItems=3"`
	Introductions SelfIntroductions `json:"introductions"`
}

// GeneratedQuestion: вопрос, предложенный судьей, с разбором
type GeneratedQuestion struct {
	Category  interview.Category `json:"category" jsonschema:"enum=personality,enum=motivation,enum=academic,enum=situational"`
	Question  string             `json:"question"`
	Intent    string             `json:"intent"`
	Structure string             `json:"structure"`
	Answer    string             `json:"answer"`
}

// QuestionSet: сгенерированные вопросы
type QuestionSet struct {
	Questions []GeneratedQuestion `json:"questions" jsonschema:"minItems=1"`
}

// Bank превращает сгенерированные вопросы в пул для тренировочной сессии
func (qs *QuestionSet) Bank() []interview.Question {
	bank := make([]interview.Question, 0, len(qs.Questions))
	for i, q := range qs.Questions {
		bank = append(bank, interview.Question{
			ID:                fmt.Sprintf("generated-%d", i+1),
			Category:          q.Category,
			Prompt:            q.Question,
			RecommendedAnswer: q.Answer,
		})
	}
	return bank
}

type analysisResponse struct {
	Analysis  AnalysisResult      `json:"analysis"`
	Questions []GeneratedQuestion `json:"questions" jsonschema:"minItems=1"`
}

// ResumeInput: резюме текстом или файлом (pdf, docx, ...)
type ResumeInput struct {
	Text     string
	Data     []byte
	MimeType string
	Filename string
}

func (r ResumeInput) validate() error {
	hasText := strings.TrimSpace(r.Text) != ""
	hasData := len(r.Data) > 0
	if hasText == hasData {
		return ErrInvalidResume
	}
	if hasData && r.MimeType == "" {
		return ErrInvalidResume
	}
	return nil
}

// RequestAnalysisAndQuestions анализирует резюме и генерирует вопросы.
// Ответ неверной формы возвращается сразу как ErrMalformedResponse, без повторов;
// сетевые сбои повторяются по политике шлюза.
func (g *Gateway) RequestAnalysisAndQuestions(ctx context.Context, resume ResumeInput, major, university string) (*AnalysisResult, *QuestionSet, error) {
	ctx, span := tracer.Start(ctx, "request analysis and questions")
	defer span.End()
	span.SetAttributes(
		attribute.String("target.major", major),
		attribute.String("target.university", university),
		attribute.Bool("resume.document", len(resume.Data) > 0),
	)

	if err := resume.validate(); err != nil {
		recordError(span, err)
		return nil, nil, err
	}

	target := prompts.AnalysisTarget{Major: major, University: university, ResumeIsDocument: len(resume.Data) > 0}
	parts := []api.Part{api.TextPart(prompts.BuildAnalysisPrompt(target, resume.Text))}
	if target.ResumeIsDocument {
		parts = append(parts, api.Part{Data: resume.Data, MimeType: resume.MimeType, Filename: resume.Filename})
	}

	req := api.Request{
		Model:       g.analysisModel,
		System:      prompts.BuildAnalysisSystemPrompt(g.languages),
		Parts:       parts,
		Schema:      reflectSchema(analysisResponse{}),
		SchemaName:  "resume_analysis",
		Temperature: 0.4,
	}

	resp, err := retry.Do(ctx, g.policy, func(ctx context.Context) (*analysisResponse, error) {
		raw, err := g.complete(ctx, req)
		if err != nil {
			return nil, err
		}
		parsed, err := decodeAnalysis(raw)
		if err != nil {
			return nil, retry.Permanent(err)
		}
		return parsed, nil
	}, g.retryOptions("analysis")...)
	if err != nil {
		recordError(span, err)
		g.logger.Warn("resume analysis failed", "error", err)
		return nil, nil, err
	}

	span.SetAttributes(attribute.Int("response.questions", len(resp.Questions)))
	return &resp.Analysis, &QuestionSet{Questions: resp.Questions}, nil
}

func decodeAnalysis(raw string) (*analysisResponse, error) {
	var resp analysisResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := resp.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &resp, nil
}

func (r *analysisResponse) validate() error {
	a := r.Analysis
	if !a.Competency.valid() {
		return fmt.Errorf("unknown competency %q", a.Competency)
	}
	if len(a.Evidence) != EvidenceCount {
		return fmt.Errorf("expected %d evidence items, got %d", EvidenceCount, len(a.Evidence))
	}
	for i, e := range a.Evidence {
		if strings.TrimSpace(e) == "" {
			return fmt.Errorf("evidence %d is empty", i)
		}
	}
	intro := a.Introductions
	if blank(intro.Concise) || blank(intro.Standard) || blank(intro.Detailed) {
		return fmt.Errorf("all three self-introductions are required")
	}
	if len(r.Questions) == 0 {
		return fmt.Errorf("no questions generated")
	}
	for i, q := range r.Questions {
		category, err := interview.ParseCategory(string(q.Category))
		if err != nil {
			return fmt.Errorf("question %d: %v", i, err)
		}
		r.Questions[i].Category = category
		if blank(q.Question) || blank(q.Intent) || blank(q.Structure) || blank(q.Answer) {
			return fmt.Errorf("question %d has empty fields", i)
		}
	}
	return nil
}

func reflectSchema(v any) *jsonschema.Schema {
	reflector := jsonschema.Reflector{DoNotReference: true}
	return reflector.Reflect(v)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
