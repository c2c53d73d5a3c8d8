package session

import (
	"log/slog"
	"math/rand/v2"
	"time"

	"mock-interview/internal/metrics"
)

// Option настраивает Controller
type Option func(*Controller)

// WithRand задает источник случайности для выбора вопросов
func WithRand(r *rand.Rand) Option {
	return func(c *Controller) {
		if r != nil {
			c.perm = r.Perm
		}
	}
}

// WithClock подменяет время создания сессии
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}
