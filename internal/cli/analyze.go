package cli

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mock-interview/internal/config"
	"mock-interview/internal/gateway"
	"mock-interview/internal/interview"
)

var (
	analyzeResume     string
	analyzeMajor      string
	analyzeUniversity string
	analyzeOut        string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Разобрать резюме и сгенерировать вопросы",
	Long: `Отправляет резюме (текст или документ) ИИ-судье и получает оценку
подготовки, три подтверждающих факта, три варианта самопрезентации и
вероятные вопросы. С --out вопросы сохраняются как банк для practice --bank.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeResume, "resume", "", "Файл резюме (.txt, .md, .pdf, .docx, ...)")
	analyzeCmd.Flags().StringVar(&analyzeMajor, "major", "", "Специальность")
	analyzeCmd.Flags().StringVar(&analyzeUniversity, "university", "", "Университет")
	analyzeCmd.Flags().StringVarP(&analyzeOut, "out", "o", "", "Сохранить вопросы в YAML")
	_ = analyzeCmd.MarkFlagRequired("resume")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	resume, err := readResume(analyzeResume)
	if err != nil {
		return err
	}

	cfg, err := loadConfigOrDefault()
	if err != nil {
		return err
	}

	gw, err := newGateway(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "🧠 Анализируем резюме...")

	analysis, questions, err := gw.RequestAnalysisAndQuestions(cmd.Context(), resume, analyzeMajor, analyzeUniversity)
	logMetrics()
	if err != nil {
		return fmt.Errorf("ошибка анализа резюме: %w", err)
	}

	printAnalysis(out, analysis, questions)

	if analyzeOut == "" {
		return nil
	}
	bank := questions.Bank()
	if len(bank) < interview.RoundsPerSession {
		fmt.Fprintf(out, "\n⚠️ Вопросов меньше %d, для practice --bank их не хватит\n", interview.RoundsPerSession)
	}
	if err := config.SaveQuestions(analyzeOut, bank); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n💾 Вопросы сохранены в %s\n", analyzeOut)
	return nil
}

// readResume: текстовые файлы отправляются текстом, остальные документом
func readResume(path string) (gateway.ResumeInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return gateway.ResumeInput{}, fmt.Errorf("ошибка чтения файла %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".txt" || ext == ".md" || ext == "" {
		return gateway.ResumeInput{Text: string(data)}, nil
	}

	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return gateway.ResumeInput{Data: data, MimeType: mimeType, Filename: filepath.Base(path)}, nil
}

func printAnalysis(out io.Writer, analysis *gateway.AnalysisResult, questions *gateway.QuestionSet) {
	fmt.Fprintf(out, "\n📊 Уровень подготовки: %s\n", analysis.Competency)
	for i, e := range analysis.Evidence {
		fmt.Fprintf(out, "  %d. %s\n", i+1, e)
	}

	fmt.Fprintln(out, "\n🗣 Самопрезентация")
	fmt.Fprintf(out, "• Коротко:\n%s\n\n", analysis.Introductions.Concise)
	fmt.Fprintf(out, "• Стандартно:\n%s\n\n", analysis.Introductions.Standard)
	fmt.Fprintf(out, "• Подробно:\n%s\n", analysis.Introductions.Detailed)

	fmt.Fprintf(out, "\n❓ Вероятные вопросы (%d)\n", len(questions.Questions))
	for i, q := range questions.Questions {
		fmt.Fprintf(out, "\n%d. [%s] %s\n", i+1, q.Category, q.Question)
		fmt.Fprintf(out, "   Цель: %s\n", q.Intent)
		fmt.Fprintf(out, "   Структура: %s\n", q.Structure)
		fmt.Fprintf(out, "   Пример ответа: %s\n", q.Answer)
	}
}
