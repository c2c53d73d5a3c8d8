package prompts

import (
	"fmt"
	"strings"
)

// EvaluationInput: данные для оценки одного ответа
type EvaluationInput struct {
	QuestionText      string
	SecondaryLanguage bool
	// AudioAnswer выставлен, когда ответ приложен записью и его нужно расшифровать
	AudioAnswer bool
	// AnswerText: текстовый ответ; пуст для аудио
	AnswerText string
}

// BuildEvaluationSystemPrompt: роль судьи при оценке ответа
func BuildEvaluationSystemPrompt(lang Languages) string {
	var prompt strings.Builder

	prompt.WriteString("You are a supportive but demanding interview coach reviewing a practice answer.\n")
	prompt.WriteString(fmt.Sprintf("Write the feedback in %s.\n", lang.Primary))
	prompt.WriteString("Return ONLY JSON with the fields transcription and feedback.")

	return prompt.String()
}

// BuildEvaluationPrompt создает промпт для оценки ответа кандидата
func BuildEvaluationPrompt(in EvaluationInput, lang Languages) string {
	var prompt strings.Builder

	prompt.WriteString(fmt.Sprintf("QUESTION: %s\n\n", in.QuestionText))

	if in.AudioAnswer {
		prompt.WriteString("The answer is attached as audio.\n")
		prompt.WriteString("transcription: transcribe the audio verbatim, without corrections or summaries.\n")
	} else {
		prompt.WriteString("ANSWER:\n")
		prompt.WriteString(in.AnswerText)
		prompt.WriteString("\n\n")
		prompt.WriteString("transcription: repeat the answer text exactly as given.\n")
	}

	prompt.WriteString("feedback: cover strengths, weaknesses and one concrete improvement for the answer's content and structure.\n")

	if in.SecondaryLanguage {
		prompt.WriteString(fmt.Sprintf("\nThis round had to be answered in %s. ", lang.Secondary))
		prompt.WriteString(fmt.Sprintf("Add a proficiency note on the candidate's %s: grammar, vocabulary, fluency, ", lang.Secondary))
		prompt.WriteString("and suggest better phrasings where useful.\n")
	}

	return prompt.String()
}
