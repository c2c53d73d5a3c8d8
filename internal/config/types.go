package config

import (
	"mock-interview/internal/audio"
	"mock-interview/internal/interview"
	"mock-interview/internal/prompts"
	"mock-interview/internal/retry"
)

// Config представляет конфигурацию тренировки
type Config struct {
	Languages prompts.Languages    `yaml:"languages"`
	Retry     retry.Policy         `yaml:"retry"`
	Speech    SpeechConfig         `yaml:"speech"`
	Capture   CaptureConfig        `yaml:"capture"`
	Questions []interview.Question `yaml:"questions"`
}

// SpeechConfig: параметры озвучки вопросов
type SpeechConfig struct {
	Voice      string `yaml:"voice"`
	SampleRate int    `yaml:"sample_rate"`
}

// CaptureConfig: параметры записи с микрофона
type CaptureConfig struct {
	SampleRate int `yaml:"sample_rate"`
}

// Default возвращает конфигурацию без вопросов; Load накладывает YAML поверх нее
func Default() Config {
	return Config{
		Languages: prompts.DefaultLanguages(),
		Retry:     retry.DefaultPolicy(),
		Speech:    SpeechConfig{SampleRate: audio.DefaultSpeechSampleRate},
		Capture:   CaptureConfig{SampleRate: audio.DefaultCaptureSampleRate},
	}
}

// Методы для удобного доступа к конфигурации
func (c *Config) GetRetryPolicy() retry.Policy {
	return c.Retry
}

func (c *Config) GetLanguages() prompts.Languages {
	return c.Languages
}

func (c *Config) GetQuestionBank() []interview.Question {
	return append([]interview.Question(nil), c.Questions...)
}
