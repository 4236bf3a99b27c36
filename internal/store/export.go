package store

import (
	"context"
	"fmt"
	"time"

	"github.com/pavelanni/quizrunner/internal/model"
	"github.com/pavelanni/quizrunner/internal/quiz"
)

// Export builds an export-ready snapshot of the history log.
func (s *Store) Export(ctx context.Context) (model.HistoryExport, error) {
	log, err := s.Load(ctx)
	if err != nil {
		return model.HistoryExport{}, fmt.Errorf("load history: %w", err)
	}
	return model.HistoryExport{
		ExportedAt: time.Now().UTC(),
		Count:      len(log),
		Entries:    log,
		Rows:       quiz.SummarizeHistory(log),
	}, nil
}
