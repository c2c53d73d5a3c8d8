package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mock-interview/internal/capture"
	"mock-interview/internal/capture/miniaudio"
	"mock-interview/internal/session"
	"mock-interview/internal/storage"
)

var (
	practiceBank string
	practiceMic  bool
)

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Пройти тренировочную сессию",
	Long: `Выбирает три вопроса из банка и проводит сессию в терминале.
Последний вопрос задается на втором языке. Ответы оцениваются ИИ-судьей,
итог сохраняется в историю.`,
	RunE: runPractice,
}

func init() {
	practiceCmd.Flags().StringVar(&practiceBank, "bank", "", "YAML с банком вопросов (например, из analyze --out)")
	practiceCmd.Flags().BoolVar(&practiceMic, "mic", false, "Разрешить голосовые ответы через микрофон")
}

func runPractice(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadInterviewConfig(practiceBank)
	if err != nil {
		return err
	}

	gw, err := newGateway(cfg)
	if err != nil {
		return err
	}

	store, err := storage.Open(appConfig.Storage.Driver, appConfig.Storage.Path)
	if err != nil {
		return fmt.Errorf("ошибка открытия истории: %w", err)
	}
	defer func() { _ = store.Close() }()

	var answers capture.AnswerCapture = capture.TextOnly{}
	if practiceMic {
		device, err := miniaudio.Open(cfg.Capture.SampleRate)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠️ Микрофон недоступен (%v), будут только текстовые ответы\n", err)
		} else {
			defer device.Close()
			answers = capture.NewRecorder(device, cfg.Capture.SampleRate, slog.Default())
		}
	}

	ctrl := session.New(cfg.GetQuestionBank(), answers, gw, store,
		session.WithMetrics(appMetrics),
		session.WithLogger(slog.Default()),
	)

	_, err = newConsole(ctrl, os.Stdin, cmd.OutOrStdout()).Run(ctx)
	logMetrics()
	return err
}
