package config

import (
	"os"
	"strconv"
	"time"
)

// DefaultConfigPath: YAML с вопросами и настройками тренировки
const DefaultConfigPath = "config/interview.yaml"

type AppConfig struct {
	AI         AIConfig
	Storage    StorageConfig
	ConfigPath string
	Debug      bool
}

type StorageConfig struct {
	Driver string
	Path   string
}

func LoadAppConfig() *AppConfig {
	return &AppConfig{
		AI: LoadAIConfig(),
		Storage: StorageConfig{
			Driver: getEnv("HISTORY_DRIVER", "file"),
			Path:   getEnv("HISTORY_PATH", "history"),
		},
		ConfigPath: getEnv("INTERVIEW_CONFIG", DefaultConfigPath),
		Debug:      getEnvAsBool("DEBUG", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
