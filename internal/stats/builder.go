package stats

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/soyeahso/d20stats/internal/domain"
	"github.com/soyeahso/d20stats/internal/filter"
	"github.com/soyeahso/d20stats/internal/logging"
)

// Builder computes the report bundle of one run.
type Builder struct {
	World       string
	Players     []string
	Labels      filter.Labels
	Concurrency int
	Now         func() time.Time

	log *logging.Logger
}

// NewBuilder creates a builder with default slice labels.
func NewBuilder(world string, players []string, log *logging.Logger) *Builder {
	return &Builder{
		World:   world,
		Players: players,
		Labels:  filter.DefaultLabels,
		Now:     time.Now,
		log:     log.Sub("stats"),
	}
}

// Build computes every slice over msgs, and over prev when it is non-nil,
// then copies each count metric of the previous session into the all-time
// report of the same slice as <metric>_prev.
func (b *Builder) Build(ctx context.Context, msgs []*domain.Message, prev *domain.Session) (*domain.Bundle, error) {
	reports, err := b.Window(ctx, msgs)
	if err != nil {
		return nil, err
	}

	bundle := &domain.Bundle{
		World:         b.World,
		Players:       append([]string{}, b.Players...),
		GeneratedAt:   b.Now().UTC(),
		Reports:       reports,
		FieldMetadata: FieldMetadata(),
	}

	if prev != nil {
		previous, err := b.Window(ctx, prev.Messages)
		if err != nil {
			return nil, fmt.Errorf("previous session: %w", err)
		}
		if err := MergePrevious(reports, previous); err != nil {
			return nil, err
		}
		bundle.Previous = previous
		bundle.Session = &domain.SessionWindow{Start: prev.Start, End: prev.End, Count: prev.Count}
	}

	b.log.Info().
		Int("slices", len(reports)).
		Int("messages", len(msgs)).
		Bool("previous_session", prev != nil).
		Msg("built reports")
	return bundle, nil
}

// Window computes one report per slice, in slice order. Slices are computed
// concurrently over the shared read-only message slice.
func (b *Builder) Window(ctx context.Context, msgs []*domain.Message) ([]domain.Report, error) {
	labels := filter.Slices(b.Labels, b.Players)
	reports := make([]domain.Report, len(labels))

	limit := b.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, label := range labels {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reports[i] = Compute(filter.Participant(msgs, label, b.Labels), label)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// MergePrevious adds <metric>_prev for every count metric, pairing reports by position.
func MergePrevious(all, prev []domain.Report) error {
	if len(all) != len(prev) {
		return fmt.Errorf("slice mismatch: %d reports, %d previous-session reports", len(all), len(prev))
	}
	for i := range all {
		if all[i].Label != prev[i].Label {
			return fmt.Errorf("slice %d: label %q does not match previous %q", i, all[i].Label, prev[i].Label)
		}
		for k, v := range prev[i].Metrics {
			if IsCount(k) {
				all[i].Metrics[k+PrevSuffix] = v
			}
		}
	}
	return nil
}
