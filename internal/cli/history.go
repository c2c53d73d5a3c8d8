package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mock-interview/internal/interview"
	"mock-interview/internal/storage"
)

var historyCmd = &cobra.Command{
	Use:   "history [session-id]",
	Short: "Показать сохраненные сессии",
	Long:  `Без аргументов выводит список сессий, с ID — расшифровки и отзывы по раундам.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := storage.Open(appConfig.Storage.Driver, appConfig.Storage.Path)
	if err != nil {
		return fmt.Errorf("ошибка открытия истории: %w", err)
	}
	defer func() { _ = store.Close() }()

	out := cmd.OutOrStdout()

	if len(args) == 1 {
		s, err := store.Load(cmd.Context(), args[0])
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("сессия %s не найдена", args[0])
		}
		if err != nil {
			return err
		}
		printSession(out, s)
		return nil
	}

	summaries, err := store.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Fprintln(out, "История пуста. Начните с: mock-interview practice")
		return nil
	}
	for _, s := range summaries {
		fmt.Fprintf(out, "  %s  %s  раундов: %d, с ответом: %d\n",
			s.ID, s.CreatedAt.Local().Format("2006-01-02 15:04"), s.Rounds, s.Answered)
	}
	return nil
}

func printSession(out io.Writer, s *interview.Session) {
	fmt.Fprintf(out, "🆔 %s (%s)\n", s.ID, s.CreatedAt.Local().Format("2006-01-02 15:04"))
	for _, r := range s.Rounds {
		marker := ""
		if r.SecondaryLanguage {
			marker = " 🌐"
		}
		fmt.Fprintf(out, "\n%d.%s %s\n", r.Index+1, marker, r.QuestionText)
		if r.Skipped {
			fmt.Fprintln(out, "   ⏭ пропущен")
			continue
		}
		fmt.Fprintf(out, "   📝 %s\n", r.Transcription)
		fmt.Fprintf(out, "   💬 %s\n", r.Feedback)
		if r.Fallback {
			fmt.Fprintln(out, "   ⚠️ отзыв не получен от судьи")
		}
	}
}
