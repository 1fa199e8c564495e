package emit

import (
	"context"
	"fmt"

	"github.com/soyeahso/d20stats/internal/domain"
	"github.com/soyeahso/d20stats/internal/logging"
	"github.com/soyeahso/d20stats/internal/store"
)

// SQLiteEmitter appends the bundle to the run history.
type SQLiteEmitter struct {
	Runs *store.RunStore
	Meta store.RunMeta

	runID string
	log   *logging.Logger
}

func (e *SQLiteEmitter) Name() string { return "sqlite" }

func (e *SQLiteEmitter) Emit(ctx context.Context, b *domain.Bundle) error {
	id, err := e.Runs.SaveBundle(ctx, b, e.Meta)
	if err != nil {
		return fmt.Errorf("sqlite output: %w", err)
	}
	e.runID = id
	e.log.Info().Str("run", id).Msg("saved run")
	return nil
}

// Revert deletes the saved run.
func (e *SQLiteEmitter) Revert(ctx context.Context) error {
	if e.runID == "" {
		return nil
	}
	if err := e.Runs.DeleteRun(ctx, e.runID); err != nil {
		return fmt.Errorf("sqlite output: %w", err)
	}
	e.runID = ""
	return nil
}

// RunID returns the id of the saved run, empty before Emit succeeds.
func (e *SQLiteEmitter) RunID() string { return e.runID }
