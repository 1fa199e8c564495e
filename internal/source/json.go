package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/soyeahso/d20stats/internal/domain"
	"github.com/soyeahso/d20stats/internal/logging"
)

// JSONSource reads a file holding a JSON array of normalized records.
type JSONSource struct {
	path string
	log  *logging.Logger
}

func openJSON(opts Options, log *logging.Logger) (domain.RecordSource, error) {
	return &JSONSource{path: opts.Path, log: log}, nil
}

func (s *JSONSource) Name() string { return "json" }

func (s *JSONSource) Records(_ context.Context) ([]domain.RawRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	var recs []domain.RawRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("decoding records: %w", err)
	}
	s.log.Debug().Int("records", len(recs)).Msg("read json records")
	return recs, nil
}
