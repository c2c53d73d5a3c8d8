package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-4o-audio-preview"
	DefaultSpeechModel = "gpt-4o-mini-tts"
	DefaultVoice       = "alloy"
	DefaultTimeout     = 120 * time.Second
)

// DefaultAnalysisModel принимает файлы и строгий json_schema,
// audio-preview модели этого не умеют
const DefaultAnalysisModel = "gpt-4o"

// ErrEmptyResponse: сервис ответил без вариантов
var ErrEmptyResponse = errors.New("no choices returned from AI service")

// Client: HTTP-клиент сервиса ИИ-оценки (OpenAI-совместимый API).
// Не хранит состояния между вызовами.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	speechModel string
	client      *http.Client
}

// Option настраивает Client
type Option func(*Client)

func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = strings.TrimRight(url, "/")
		}
	}
}

func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

func WithSpeechModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.speechModel = model
		}
	}
}

// WithHTTPClient заменяет HTTP-клиент целиком (в тестах это httptest)
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithTimeout задает таймаут одного HTTP-запроса
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			// клиент мог прийти из WithHTTPClient, его не меняем
			hc := *c.client
			hc.Timeout = d
			c.client = &hc
		}
	}
}

// NewClient создает клиента; запросы трассируются через otelhttp
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:      apiKey,
		baseURL:     DefaultBaseURL,
		model:       DefaultModel,
		speechModel: DefaultSpeechModel,
		client: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Part: фрагмент пользовательского сообщения: текст или бинарные данные
type Part struct {
	Text     string
	Data     []byte
	MimeType string
	Filename string
}

// TextPart создает текстовый фрагмент
func TextPart(text string) Part { return Part{Text: text} }

// DataPart создает бинарный фрагмент (аудио или документ)
func DataPart(data []byte, mimeType string) Part { return Part{Data: data, MimeType: mimeType} }

// Request: запрос на структурированный ответ
type Request struct {
	// Model заменяет модель клиента для этого запроса
	Model       string
	System      string
	Parts       []Part
	Schema      *jsonschema.Schema
	SchemaName  string
	Temperature float64
	MaxTokens   int
}

// SpeechRequest: запрос на синтез речи
type SpeechRequest struct {
	Text  string
	Voice string
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Modalities     []string        `json:"modalities,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type       string      `json:"type"`
	Text       string      `json:"text,omitempty"`
	InputAudio *inputAudio `json:"input_audio,omitempty"`
	File       *inputFile  `json:"file,omitempty"`
}

type inputAudio struct {
	Data   string `json:"data"`
	Format string `json:"format"`
}

type inputFile struct {
	Filename string `json:"filename"`
	FileData string `json:"file_data"`
}

type responseFormat struct {
	Type       string            `json:"type"`
	JSONSchema *jsonSchemaFormat `json:"json_schema,omitempty"`
}

type jsonSchemaFormat struct {
	Name   string             `json:"name"`
	Schema *jsonschema.Schema `json:"schema"`
	Strict bool               `json:"strict"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// Complete отправляет запрос и возвращает текст ответа, очищенный от markdown-обрамления
func (c *Client) Complete(ctx context.Context, r Request) (string, error) {
	model := c.model
	if r.Model != "" {
		model = r.Model
	}
	body := chatRequest{
		Model:       model,
		Temperature: r.Temperature,
		MaxTokens:   r.MaxTokens,
		Modalities:  []string{"text"},
	}
	if r.System != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: r.System})
	}
	parts, err := buildParts(r.Parts)
	if err != nil {
		return "", err
	}
	body.Messages = append(body.Messages, chatMessage{Role: "user", Content: parts})

	if r.Schema != nil {
		name := r.SchemaName
		if name == "" {
			name = "response"
		}
		body.ResponseFormat = &responseFormat{
			Type:       "json_schema",
			JSONSchema: &jsonSchemaFormat{Name: name, Schema: r.Schema, Strict: true},
		}
	}

	respBody, err := c.post(ctx, "/chat/completions", body)
	if err != nil {
		return "", err
	}

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("error unmarshaling response: %w", err)
	}
	if resp.Error != nil {
		return "", &ProviderError{StatusCode: http.StatusOK, Message: resp.Error.Message, Code: resp.Error.Code}
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	return cleanJSONResponse(resp.Choices[0].Message.Content), nil
}

// Speech синтезирует речь и возвращает сырой PCM (16 бит, моно, little-endian)
func (c *Client) Speech(ctx context.Context, r SpeechRequest) ([]byte, error) {
	voice := r.Voice
	if voice == "" {
		voice = DefaultVoice
	}
	return c.post(ctx, "/audio/speech", speechRequest{
		Model:          c.speechModel,
		Input:          r.Text,
		Voice:          voice,
		ResponseFormat: "pcm",
	})
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, newProviderError(resp.StatusCode, body)
	}
	return body, nil
}

func buildParts(parts []Part) ([]contentPart, error) {
	out := make([]contentPart, 0, len(parts))
	for i, p := range parts {
		if len(p.Data) == 0 {
			out = append(out, contentPart{Type: "text", Text: p.Text})
			continue
		}

		encoded := base64.StdEncoding.EncodeToString(p.Data)
		if strings.HasPrefix(p.MimeType, "audio/") {
			out = append(out, contentPart{
				Type:       "input_audio",
				InputAudio: &inputAudio{Data: encoded, Format: audioFormat(p.MimeType)},
			})
			continue
		}
		if p.MimeType == "" {
			return nil, fmt.Errorf("part %d: binary data without mime type", i)
		}
		filename := p.Filename
		if filename == "" {
			filename = "document"
		}
		out = append(out, contentPart{
			Type: "file",
			File: &inputFile{
				Filename: filename,
				FileData: fmt.Sprintf("data:%s;base64,%s", p.MimeType, encoded),
			},
		})
	}
	return out, nil
}

func audioFormat(mimeType string) string {
	switch mimeType {
	case "audio/mpeg", "audio/mp3":
		return "mp3"
	default:
		return "wav"
	}
}

// cleanJSONResponse удаляет markdown-обрамление из ответа
func cleanJSONResponse(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	return strings.TrimSpace(response)
}
