package storage

import (
	"context"
	"errors"
	"time"

	"mock-interview/internal/interview"
)

// ErrNotFound: сессии с таким ID нет в архиве
var ErrNotFound = errors.New("session not found")

// HistoryStore принимает завершенные сессии. Контроллеру сессии чтение не нужно.
type HistoryStore interface {
	Save(ctx context.Context, s *interview.Session) error
}

// Archive: HistoryStore с чтением, для команды history
type Archive interface {
	HistoryStore
	Load(ctx context.Context, id string) (*interview.Session, error)
	List(ctx context.Context) ([]Summary, error)
	Close() error
}

// Summary: краткая запись о сессии для списка
type Summary struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Rounds    int       `json:"rounds"`
	Answered  int       `json:"answered"`
}

func summarize(s *interview.Session) Summary {
	return Summary{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		Rounds:    len(s.Rounds),
		Answered:  s.Answered(),
	}
}
