package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pavelanni/quizrunner/internal/model"
)

// HistoryKey is the key the serialized history log is stored under.
const HistoryKey = "testResults"

// Load returns the stored history log. A missing key yields an empty log.
// A value that does not decode is logged and treated as empty, so the next
// Save replaces it.
func (s *Store) Load(ctx context.Context) (model.HistoryLog, error) {
	raw, ok, err := s.Get(ctx, HistoryKey)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", HistoryKey, err)
	}
	if !ok {
		return model.HistoryLog{}, nil
	}
	var log model.HistoryLog
	if err := json.Unmarshal([]byte(raw), &log); err != nil {
		slog.Warn("stored history is corrupt, starting empty", "key", HistoryKey, "error", err)
		return model.HistoryLog{}, nil
	}
	if log == nil {
		log = model.HistoryLog{}
	}
	return log, nil
}

// Save replaces the stored history log.
func (s *Store) Save(ctx context.Context, log model.HistoryLog) error {
	if log == nil {
		log = model.HistoryLog{}
	}
	data, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := s.Set(ctx, HistoryKey, string(data)); err != nil {
		return fmt.Errorf("write %s: %w", HistoryKey, err)
	}
	return nil
}

// Delete removes the stored history log.
func (s *Store) Delete(ctx context.Context) error {
	if err := s.Remove(ctx, HistoryKey); err != nil {
		return fmt.Errorf("delete %s: %w", HistoryKey, err)
	}
	return nil
}
