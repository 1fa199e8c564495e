package domain

import (
	"context"
	"encoding/json"
)

// UnknownUser is the display name used when a record's author id has no user entry.
const UnknownUser = "UNKNOWN USER"

// RawRecord is a chat record as produced by an ingestion adapter, before classification.
// Each entry of Rolls is a roll object or a JSON string holding one.
type RawRecord struct {
	ID        string            `json:"id,omitempty"`
	User      string            `json:"user"`
	Rolls     []json.RawMessage `json:"rolls,omitempty"`
	Timestamp int64             `json:"timestamp"`
	Content   string            `json:"content"`
	Alias     *string           `json:"alias,omitempty"`
	Flags     json.RawMessage   `json:"flags,omitempty"`
	Deleted   bool              `json:"deleted,omitempty"`
}

// RecordSource yields the raw records of one export.
type RecordSource interface {
	Name() string
	Records(ctx context.Context) ([]RawRecord, error)
}
