package interview

import (
	"fmt"
	"strings"
	"time"
)

// Category: тематическая категория вопроса (закрытый набор)
type Category string

const (
	CategoryPersonality Category = "personality"
	CategoryMotivation  Category = "motivation"
	CategoryAcademic    Category = "academic"
	CategorySituational Category = "situational"
)

// Categories возвращает все допустимые категории в фиксированном порядке
func Categories() []Category {
	return []Category{CategoryPersonality, CategoryMotivation, CategoryAcademic, CategorySituational}
}

// ParseCategory проверяет, что значение входит в закрытый набор категорий
func ParseCategory(value string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range Categories() {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("неизвестная категория вопроса %q", value)
}

// Question представляет один вопрос из банка вопросов
type Question struct {
	ID                string   `json:"id" yaml:"id"`
	Category          Category `json:"category" yaml:"category"`
	Prompt            string   `json:"prompt" yaml:"prompt"`
	SecondaryPrompt   string   `json:"secondary_prompt,omitempty" yaml:"secondary_prompt,omitempty"`
	RecommendedAnswer string   `json:"recommended_answer,omitempty" yaml:"recommended_answer,omitempty"`
}

// DisplayText возвращает текст вопроса на языке раунда.
// Если перевода нет, показывается основной текст.
func (q Question) DisplayText(secondary bool) string {
	if secondary && strings.TrimSpace(q.SecondaryPrompt) != "" {
		return q.SecondaryPrompt
	}
	return q.Prompt
}

// Round: один элемент выборки раундов: вопрос и язык ответа
type Round struct {
	Question          Question `json:"question"`
	SecondaryLanguage bool     `json:"secondary_language"`
}

// Text возвращает текст вопроса так, как он показывается кандидату
func (r Round) Text() string {
	return r.Question.DisplayText(r.SecondaryLanguage)
}

// Evaluation: ответ судьи на один ответ кандидата
type Evaluation struct {
	Transcription string `json:"transcription"`
	Feedback      string `json:"feedback"`
	// Fallback выставлен, когда оценку получить не удалось и результат подставлен локально
	Fallback bool `json:"fallback,omitempty"`
}

// RoundResult: итог одного завершенного раунда
type RoundResult struct {
	Index             int    `json:"index"`
	QuestionID        string `json:"question_id"`
	QuestionText      string `json:"question_text"`
	SecondaryLanguage bool   `json:"secondary_language"`
	Transcription     string `json:"transcription"`
	Feedback          string `json:"feedback"`
	AudioArtifact     []byte `json:"audio_artifact,omitempty"`
	AudioMimeType     string `json:"audio_mime_type,omitempty"`
	TextArtifact      string `json:"text_artifact,omitempty"`
	Skipped           bool   `json:"skipped"`
	Fallback          bool   `json:"fallback,omitempty"`
}

// Session: завершенная (полностью или досрочно) тренировочная сессия
type Session struct {
	ID        string        `json:"id"`
	CreatedAt time.Time     `json:"created_at"`
	Rounds    []RoundResult `json:"rounds"`
}

// Completed сообщает, пройдены ли все раунды стандартной сессии
func (s *Session) Completed() bool {
	return len(s.Rounds) == RoundsPerSession
}

// Answered возвращает количество раундов, в которых был дан ответ
func (s *Session) Answered() int {
	count := 0
	for _, r := range s.Rounds {
		if !r.Skipped {
			count++
		}
	}
	return count
}

const (
	// RoundsPerSession: длина стандартной сессии
	RoundsPerSession = 3
	// SecondaryRoundIndex: раунд, который всегда проходит на втором языке
	SecondaryRoundIndex = RoundsPerSession - 1
)
