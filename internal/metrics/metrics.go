package metrics

import (
	"sync"
	"time"
)

// Metrics: счетчики процесса; безопасны для параллельных сессий.
// Нулевой указатель допустим: все методы на nil ничего не делают.
type Metrics struct {
	mu                  sync.RWMutex
	SessionsStarted     int64
	SessionsCompleted   int64
	SessionsEndedEarly  int64
	SessionsCancelled   int64
	RoundsEvaluated     int64
	RoundsSkipped       int64
	EvaluationFallbacks int64
	APICallsTotal       int64
	APICallsSuccessful  int64
	LastUpdateTime      time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{
		LastUpdateTime: time.Now(),
	}
}

func (m *Metrics) update(fn func()) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	fn()
	m.LastUpdateTime = time.Now()
}

func (m *Metrics) IncrementSessionsStarted() {
	m.update(func() { m.SessionsStarted++ })
}

func (m *Metrics) IncrementSessionsCompleted() {
	m.update(func() { m.SessionsCompleted++ })
}

func (m *Metrics) IncrementSessionsEndedEarly() {
	m.update(func() { m.SessionsEndedEarly++ })
}

func (m *Metrics) IncrementSessionsCancelled() {
	m.update(func() { m.SessionsCancelled++ })
}

func (m *Metrics) IncrementRoundsEvaluated() {
	m.update(func() { m.RoundsEvaluated++ })
}

func (m *Metrics) IncrementRoundsSkipped() {
	m.update(func() { m.RoundsSkipped++ })
}

func (m *Metrics) IncrementEvaluationFallbacks() {
	m.update(func() { m.EvaluationFallbacks++ })
}

func (m *Metrics) IncrementAPICall(success bool) {
	m.update(func() {
		m.APICallsTotal++
		if success {
			m.APICallsSuccessful++
		}
	})
}

// Snapshot: копия счетчиков без мьютекса
type Snapshot struct {
	SessionsStarted     int64
	SessionsCompleted   int64
	SessionsEndedEarly  int64
	SessionsCancelled   int64
	RoundsEvaluated     int64
	RoundsSkipped       int64
	EvaluationFallbacks int64
	APICallsTotal       int64
	APICallsSuccessful  int64
	LastUpdateTime      time.Time
}

func (m *Metrics) GetSnapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		SessionsStarted:     m.SessionsStarted,
		SessionsCompleted:   m.SessionsCompleted,
		SessionsEndedEarly:  m.SessionsEndedEarly,
		SessionsCancelled:   m.SessionsCancelled,
		RoundsEvaluated:     m.RoundsEvaluated,
		RoundsSkipped:       m.RoundsSkipped,
		EvaluationFallbacks: m.EvaluationFallbacks,
		APICallsTotal:       m.APICallsTotal,
		APICallsSuccessful:  m.APICallsSuccessful,
		LastUpdateTime:      m.LastUpdateTime,
	}
}
