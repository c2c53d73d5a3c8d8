package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ProviderError: ответ сервиса с кодом ошибки
type ProviderError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("AI service error (status %d, code %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("AI service error (status %d): %s", e.StatusCode, e.Message)
}

// IsRetryable: таймауты, лимиты и ошибки сервера временные, остальное нет
func (e *ProviderError) IsRetryable() bool {
	switch {
	case e.StatusCode == http.StatusRequestTimeout,
		e.StatusCode == http.StatusTooManyRequests,
		e.StatusCode >= http.StatusInternalServerError:
		return true
	default:
		return false
	}
}

func newProviderError(status int, body []byte) *ProviderError {
	var envelope struct {
		Error *apiError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		return &ProviderError{StatusCode: status, Message: envelope.Error.Message, Code: envelope.Error.Code}
	}
	return &ProviderError{StatusCode: status, Message: string(body)}
}
