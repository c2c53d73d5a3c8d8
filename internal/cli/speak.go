package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var speakOut string

var speakCmd = &cobra.Command{
	Use:   "speak <text>",
	Short: "Озвучить текст в WAV",
	Long:  `Синтезирует речь для текста (например, вопроса или образца ответа) и сохраняет WAV.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSpeak,
}

func init() {
	speakCmd.Flags().StringVarP(&speakOut, "out", "o", "speech.wav", "Файл для WAV")
}

func runSpeak(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigOrDefault()
	if err != nil {
		return err
	}

	gw, err := newGateway(cfg)
	if err != nil {
		return err
	}

	wav, err := gw.SynthesizeSpeech(cmd.Context(), strings.Join(args, " "))
	logMetrics()
	if err != nil {
		return err
	}

	if err := os.WriteFile(speakOut, wav, 0644); err != nil {
		return fmt.Errorf("ошибка записи файла %s: %w", speakOut, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "🔊 Сохранено: %s (%d байт)\n", speakOut, len(wav))
	return nil
}
