package config

import (
	"fmt"
	"time"

	"mock-interview/internal/api"
)

// AIConfig: доступ к сервису ИИ-оценки
type AIConfig struct {
	APIKey        string
	BaseURL       string
	Model         string
	AnalysisModel string
	SpeechModel   string
	Voice         string
	Timeout       time.Duration
}

// LoadAIConfig загружает конфигурацию сервиса из переменных окружения
func LoadAIConfig() AIConfig {
	return AIConfig{
		APIKey:        getEnv("AI_API_KEY", ""),
		BaseURL:       getEnv("AI_BASE_URL", api.DefaultBaseURL),
		Model:         getEnv("AI_MODEL", api.DefaultModel),
		AnalysisModel: getEnv("AI_ANALYSIS_MODEL", api.DefaultAnalysisModel),
		SpeechModel:   getEnv("AI_SPEECH_MODEL", api.DefaultSpeechModel),
		Voice:         getEnv("AI_VOICE", ""),
		Timeout:       getEnvAsDuration("AI_TIMEOUT", api.DefaultTimeout),
	}
}

// ValidateConfig проверяет корректность конфигурации
func (c *AIConfig) ValidateConfig() error {
	if c.APIKey == "" {
		return fmt.Errorf("AI_API_KEY is required")
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("AI_TIMEOUT must be positive")
	}

	return nil
}

// ClientOptions переводит конфигурацию в опции api.Client
func (c *AIConfig) ClientOptions() []api.Option {
	return []api.Option{
		api.WithBaseURL(c.BaseURL),
		api.WithModel(c.Model),
		api.WithSpeechModel(c.SpeechModel),
		api.WithTimeout(c.Timeout),
	}
}

// GetModelInfo возвращает информацию о используемой модели
func (c *AIConfig) GetModelInfo() map[string]interface{} {
	return map[string]interface{}{
		"model":          c.Model,
		"analysis_model": c.AnalysisModel,
		"speech_model":   c.SpeechModel,
		"base_url":       c.BaseURL,
		"timeout":        c.Timeout.String(),
	}
}
