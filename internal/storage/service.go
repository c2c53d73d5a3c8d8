package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"mock-interview/internal/interview"
)

const (
	// DriverFile: JSON-файл на каждую сессию
	DriverFile = "file"
	// DriverSQLite: одна база SQLite
	DriverSQLite = "sqlite"

	filePrefix = "session_"
	fileSuffix = ".json"
)

// Open открывает архив выбранного типа по пути path
func Open(driver, path string) (Archive, error) {
	switch strings.ToLower(driver) {
	case "", DriverFile:
		return NewFileStore(path)
	case DriverSQLite:
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("неизвестный тип хранилища %q", driver)
	}
}

// FileStore хранит каждую сессию в отдельном JSON файле
type FileStore struct {
	dir string
}

// NewFileStore создает директорию, если её нет
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, filePrefix+id+fileSuffix)
}

// Save сохраняет сессию в JSON файл
func (s *FileStore) Save(_ context.Context, session *interview.Session) error {
	if session == nil || session.ID == "" {
		return errors.New("сессия без идентификатора")
	}

	jsonData, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации сессии: %w", err)
	}

	// пишем во временный файл, чтобы не оставить обрезанный JSON
	target := s.path(session.ID)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, jsonData, 0644); err != nil {
		return fmt.Errorf("ошибка записи файла %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("ошибка записи файла %s: %w", target, err)
	}
	return nil
}

// Load загружает сессию из JSON файла
func (s *FileStore) Load(_ context.Context, id string) (*interview.Session, error) {
	data, err := os.ReadFile(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения сессии %s: %w", id, err)
	}

	var session interview.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("ошибка десериализации JSON: %w", err)
	}
	return &session, nil
}

// List возвращает сохраненные сессии, новые первыми
func (s *FileStore) List(ctx context.Context) ([]Summary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения директории %s: %w", s.dir, err)
	}

	var summaries []Summary
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
		session, err := s.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summarize(session))
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

func (s *FileStore) Close() error { return nil }
