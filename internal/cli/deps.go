package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"mock-interview/internal/config"
	"mock-interview/internal/gateway"
)

// loadInterviewConfig читает YAML; bank, если задан, заменяет банк вопросов
func loadInterviewConfig(bank string) (*config.Config, error) {
	cfg, err := config.Load(appConfig.ConfigPath)
	if err != nil {
		return nil, err
	}
	if bank == "" {
		return cfg, nil
	}

	bankCfg, err := config.Load(bank)
	if err != nil {
		return nil, fmt.Errorf("банк вопросов: %w", err)
	}
	cfg.Questions = bankCfg.Questions
	return cfg, nil
}

// loadConfigOrDefault читает YAML; только отсутствие файла дает значения
// по умолчанию, ошибки разбора и валидации возвращаются
func loadConfigOrDefault() (*config.Config, error) {
	cfg, err := config.Load(appConfig.ConfigPath)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("interview config not found, using defaults", "path", appConfig.ConfigPath)
		def := config.Default()
		return &def, nil
	}
	return cfg, err
}

// newGateway собирает шлюз к ИИ-судье из окружения и YAML
func newGateway(cfg *config.Config) (*gateway.Gateway, error) {
	if err := appConfig.AI.ValidateConfig(); err != nil {
		return nil, err
	}

	voice := cfg.Speech.Voice
	if appConfig.AI.Voice != "" {
		voice = appConfig.AI.Voice
	}

	slog.Debug("AI service configured", "model", appConfig.AI.GetModelInfo())

	return gateway.New(
		gateway.ClientFactory(appConfig.AI.APIKey, appConfig.AI.ClientOptions()...),
		gateway.WithAnalysisModel(appConfig.AI.AnalysisModel),
		gateway.WithPolicy(cfg.GetRetryPolicy()),
		gateway.WithLanguages(cfg.GetLanguages()),
		gateway.WithVoice(voice),
		gateway.WithSampleRate(cfg.Speech.SampleRate),
		gateway.WithMetrics(appMetrics),
		gateway.WithLogger(slog.Default().With("component", "gateway")),
	), nil
}

func logMetrics() {
	s := appMetrics.GetSnapshot()
	slog.Debug("metrics",
		"sessions_started", s.SessionsStarted,
		"sessions_completed", s.SessionsCompleted,
		"sessions_ended_early", s.SessionsEndedEarly,
		"sessions_cancelled", s.SessionsCancelled,
		"rounds_evaluated", s.RoundsEvaluated,
		"rounds_skipped", s.RoundsSkipped,
		"evaluation_fallbacks", s.EvaluationFallbacks,
		"api_calls_total", s.APICallsTotal,
		"api_calls_successful", s.APICallsSuccessful,
	)
}
