package prompts

import (
	"fmt"
	"strings"

	"mock-interview/internal/interview"
)

// Languages: основной и второй язык собеседования
type Languages struct {
	Primary   string `yaml:"primary"`
	Secondary string `yaml:"secondary"`
}

// DefaultLanguages используются, если в конфигурации языки не заданы
func DefaultLanguages() Languages {
	return Languages{Primary: "Korean", Secondary: "English"}
}

// AnalysisTarget: куда поступает кандидат
type AnalysisTarget struct {
	Major      string
	University string
	// ResumeIsDocument выставлен, если резюме приложено файлом, а не текстом
	ResumeIsDocument bool
}

// BuildAnalysisSystemPrompt: роль судьи для анализа резюме
func BuildAnalysisSystemPrompt(lang Languages) string {
	var prompt strings.Builder

	prompt.WriteString("You are an experienced admissions interviewer and interview coach.\n")
	prompt.WriteString(fmt.Sprintf("Write every free-text field in %s.\n", lang.Primary))
	prompt.WriteString("Return ONLY JSON that matches the provided schema. No markdown, no commentary.")

	return prompt.String()
}

// BuildAnalysisPrompt создает промпт для анализа резюме и генерации вопросов
func BuildAnalysisPrompt(target AnalysisTarget, resumeText string) string {
	var prompt strings.Builder

	prompt.WriteString("Analyse the candidate's resume for the interview described below.\n\n")
	prompt.WriteString(fmt.Sprintf("TARGET UNIVERSITY: %s\n", orUnknown(target.University)))
	prompt.WriteString(fmt.Sprintf("TARGET MAJOR: %s\n\n", orUnknown(target.Major)))

	prompt.WriteString("PRODUCE:\n")
	prompt.WriteString("- competency: one of excellent, proficient, developing, beginner\n")
	prompt.WriteString("- evidence: exactly 3 concrete facts from the resume that justify the competency\n")
	prompt.WriteString("- introductions: three self-introduction variants (concise ~30s, standard ~1min, detailed ~2min)\n")
	prompt.WriteString("- questions: likely interview questions, each with\n")
	prompt.WriteString(fmt.Sprintf("    category (one of %s), question, intent (what the interviewer checks),\n", categoryList()))
	prompt.WriteString("    structure (how to organise the answer) and answer (a model answer grounded in the resume)\n\n")

	if target.ResumeIsDocument {
		prompt.WriteString("The resume is attached as a document.")
		return prompt.String()
	}

	prompt.WriteString("RESUME:\n")
	prompt.WriteString(resumeText)
	return prompt.String()
}

func categoryList() string {
	names := make([]string, 0, len(interview.Categories()))
	for _, c := range interview.Categories() {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}

func orUnknown(value string) string {
	if strings.TrimSpace(value) == "" {
		return "not specified"
	}
	return value
}
