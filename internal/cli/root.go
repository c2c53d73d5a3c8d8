// Package cli содержит команды mock-interview на cobra.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mock-interview/internal/config"
	"mock-interview/internal/metrics"
)

var (
	verbose    bool
	configPath string
	version    = "dev"

	appConfig  *config.AppConfig
	appMetrics = metrics.NewMetrics()
)

var rootCmd = &cobra.Command{
	Use:   "mock-interview",
	Short: "Тренажер устного собеседования",
	Long: `mock-interview проводит тренировочное собеседование из трех вопросов:
ответы даются голосом или текстом, ИИ-судья расшифровывает их и дает отзыв,
итог сохраняется в историю.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		appConfig = config.LoadAppConfig()
		if configPath != "" {
			appConfig.ConfigPath = configPath
		}
		setupLogging(verbose || appConfig.Debug)
		return nil
	},
}

// Execute запускает корневую команду. Вызывается из main.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

func setupLogging(debug bool) {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Подробные логи в stderr")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML с вопросами и настройками (по умолчанию $INTERVIEW_CONFIG или "+config.DefaultConfigPath+")")

	rootCmd.AddCommand(practiceCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(speakCmd)
	rootCmd.AddCommand(historyCmd)
}
