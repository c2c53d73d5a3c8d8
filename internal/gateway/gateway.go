// Package gateway обращается к внешнему ИИ-судье: анализ резюме и генерация
// вопросов, оценка ответов, синтез речи. Все вызовы идут через retry.Do.
package gateway

import (
	"context"
	"errors"
	"log/slog"

	"mock-interview/internal/api"
	"mock-interview/internal/audio"
	"mock-interview/internal/metrics"
	"mock-interview/internal/prompts"
	"mock-interview/internal/retry"
)

var (
	// ErrMalformedResponse: структурированный ответ не прошел проверку схемы
	ErrMalformedResponse = errors.New("malformed response")
	// ErrSynthesisFailed: синтез речи не удался после всех попыток
	ErrSynthesisFailed = errors.New("speech synthesis failed")
	// ErrInvalidResume: резюме должно быть либо текстом, либо файлом с mime-типом
	ErrInvalidResume = errors.New("resume must be either text or a document with a mime type")
)

// Service: сервис ИИ-судьи; *api.Client реализует этот интерфейс
type Service interface {
	Complete(ctx context.Context, r api.Request) (string, error)
	Speech(ctx context.Context, r api.SpeechRequest) ([]byte, error)
}

// ServiceFactory создает клиента на каждый вызов; общего изменяемого состояния нет
type ServiceFactory func() Service

// ClientFactory возвращает фабрику HTTP-клиентов с общими настройками
func ClientFactory(apiKey string, opts ...api.Option) ServiceFactory {
	return func() Service {
		return api.NewClient(apiKey, opts...)
	}
}

// Gateway: шлюз к ИИ-судье. Безопасен для одновременного использования
// несколькими сессиями: после New поля не меняются.
type Gateway struct {
	newService ServiceFactory
	policy     retry.Policy
	languages  prompts.Languages
	voice      string
	sampleRate int
	metrics    *metrics.Metrics
	sleeper    retry.Sleeper
	logger     *slog.Logger

	// модель для анализа резюме; пусто означает модель клиента
	analysisModel string
}

// Option настраивает Gateway
type Option func(*Gateway)

func WithPolicy(p retry.Policy) Option {
	return func(g *Gateway) { g.policy = p }
}

func WithLanguages(l prompts.Languages) Option {
	return func(g *Gateway) {
		if l.Primary != "" {
			g.languages.Primary = l.Primary
		}
		if l.Secondary != "" {
			g.languages.Secondary = l.Secondary
		}
	}
}

func WithVoice(voice string) Option {
	return func(g *Gateway) {
		if voice != "" {
			g.voice = voice
		}
	}
}

// WithSampleRate: частота PCM, который возвращает сервис синтеза
func WithSampleRate(rate int) Option {
	return func(g *Gateway) {
		if rate > 0 {
			g.sampleRate = rate
		}
	}
}

// WithAnalysisModel задает модель для RequestAnalysisAndQuestions: анализ
// отправляет документы и строгую схему, которые модель оценки может не принимать
func WithAnalysisModel(model string) Option {
	return func(g *Gateway) { g.analysisModel = model }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

func WithSleeper(s retry.Sleeper) Option {
	return func(g *Gateway) { g.sleeper = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// New создает шлюз
func New(factory ServiceFactory, opts ...Option) *Gateway {
	g := &Gateway{
		newService: factory,
		policy:     retry.DefaultPolicy(),
		languages:  prompts.DefaultLanguages(),
		voice:      api.DefaultVoice,
		sampleRate: audio.DefaultSpeechSampleRate,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) retryOptions(name string) []retry.Option {
	opts := []retry.Option{retry.WithName(name), retry.WithLogger(g.logger)}
	if g.sleeper != nil {
		opts = append(opts, retry.WithSleeper(g.sleeper))
	}
	return opts
}

// complete выполняет один вызов Complete и учитывает его в метриках
func (g *Gateway) complete(ctx context.Context, req api.Request) (string, error) {
	raw, err := g.newService().Complete(ctx, req)
	g.metrics.IncrementAPICall(err == nil)
	return raw, err
}
