package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"mock-interview/internal/interview"
)

// Load загружает конфигурацию из YAML файла
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла %s: %w", filename, err)
	}
	return Parse(data)
}

// Parse разбирает YAML поверх значений по умолчанию и проверяет результат
func Parse(data []byte) (*Config, error) {
	config := Default()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("ошибка парсинга YAML: %w", err)
	}

	// Валидация конфигурации
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("ошибка валидации конфигурации: %w", err)
	}

	return &config, nil
}

// SaveQuestions сохраняет банк вопросов в YAML, пригодный для Load
func SaveQuestions(filename string, questions []interview.Question) error {
	config := Default()
	config.Questions = questions

	data, err := yaml.Marshal(&config)
	if err != nil {
		return fmt.Errorf("ошибка сериализации YAML: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("ошибка записи файла %s: %w", filename, err)
	}
	return nil
}

// validateConfig проверяет корректность конфигурации
func validateConfig(config *Config) error {
	if strings.TrimSpace(config.Languages.Primary) == "" || strings.TrimSpace(config.Languages.Secondary) == "" {
		return fmt.Errorf("languages.primary и languages.secondary обязательны")
	}

	if err := config.Retry.Validate(); err != nil {
		return fmt.Errorf("retry: %w", err)
	}

	if config.Speech.SampleRate <= 0 {
		return fmt.Errorf("speech.sample_rate должно быть больше 0")
	}

	if config.Capture.SampleRate <= 0 {
		return fmt.Errorf("capture.sample_rate должно быть больше 0")
	}

	if len(config.Questions) < interview.RoundsPerSession {
		return fmt.Errorf("нужно минимум %d вопроса, получено %d",
			interview.RoundsPerSession, len(config.Questions))
	}

	// Проверяем вопросы
	seen := make(map[string]bool, len(config.Questions))
	for i := range config.Questions {
		q := &config.Questions[i]

		if q.ID == "" {
			return fmt.Errorf("вопрос %d должен иметь id", i)
		}
		if seen[q.ID] {
			return fmt.Errorf("вопрос %q повторяется", q.ID)
		}
		seen[q.ID] = true

		category, err := interview.ParseCategory(string(q.Category))
		if err != nil {
			return fmt.Errorf("вопрос %q: %w", q.ID, err)
		}
		q.Category = category

		if strings.TrimSpace(q.Prompt) == "" {
			return fmt.Errorf("вопрос %q должен иметь prompt", q.ID)
		}
	}

	return nil
}
