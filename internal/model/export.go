package model

import "time"

// HistoryExport is the top-level JSON structure written by the export command.
type HistoryExport struct {
	ExportedAt time.Time      `json:"exported_at"`
	Count      int            `json:"count"`
	Entries    []HistoryEntry `json:"entries"`
	Rows       []HistoryRow   `json:"rows"`
}
