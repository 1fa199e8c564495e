// Package pipeline runs a report end to end: read an export, classify its
// records, segment sessions, build the report bundle and emit it.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/d20stats/internal/classify"
	"github.com/soyeahso/d20stats/internal/config"
	"github.com/soyeahso/d20stats/internal/domain"
	"github.com/soyeahso/d20stats/internal/emit"
	"github.com/soyeahso/d20stats/internal/filter"
	"github.com/soyeahso/d20stats/internal/hooks"
	"github.com/soyeahso/d20stats/internal/logging"
	"github.com/soyeahso/d20stats/internal/session"
	"github.com/soyeahso/d20stats/internal/source"
	"github.com/soyeahso/d20stats/internal/stats"
	"github.com/soyeahso/d20stats/internal/store"
)

// Request describes one report run.
type Request struct {
	World   string
	Players []string

	Format string
	Source source.Options

	Labels          filter.Labels
	Markers         filter.Markers
	ExcludeDisabled bool

	Gap         time.Duration
	MinMessages int
	Concurrency int

	OutputDir string
	Formats   []string
	Out       io.Writer
}

// RequestFromConfig builds a request from a loaded config.
func RequestFromConfig(cfg *config.Config) (Request, error) {
	loc, err := cfg.Source.Location()
	if err != nil {
		return Request{}, err
	}
	return Request{
		World:   cfg.World,
		Players: cfg.Players,
		Format:  cfg.Source.Format,
		Source: source.Options{
			Path:     cfg.Source.Path,
			World:    cfg.Source.World,
			Location: loc,
		},
		Labels: filter.Labels{
			All:        cfg.Labels.All,
			Players:    cfg.Labels.Players,
			Gamemaster: cfg.Labels.Gamemaster,
		},
		Markers:         filter.Markers{Start: cfg.Exclude.Start, End: cfg.Exclude.End},
		ExcludeDisabled: cfg.Exclude.Disabled,
		Gap:             cfg.Session.Gap,
		MinMessages:     cfg.Session.MinMessages,
		Concurrency:     cfg.Stats.Concurrency,
		OutputDir:       cfg.Output.Dir,
		Formats:         cfg.Output.Formats,
	}, nil
}

// Loaded is the classified, filtered and segmented message history of a world.
type Loaded struct {
	Records  int
	Summary  classify.Summary
	Excluded int
	Messages []*domain.Message
	Sessions []*domain.Session
	Previous *domain.Session
}

// RunResult is the outcome of a report run.
type RunResult struct {
	RunID    string         `json:"runId"`
	StoredAs string         `json:"storedAs,omitempty"`
	Bundle   *domain.Bundle `json:"bundle"`
	Loaded   *Loaded        `json:"-"`
	Emitted  []string       `json:"emitted"`
	Duration time.Duration  `json:"duration"`
}

// Runner wires sources, statistics and emitters together.
type Runner struct {
	sources  *source.Registry
	emitters *emit.Registry
	hooks    *hooks.Manager
	runs     *store.RunStore
	now      func() time.Time
	log      *logging.Logger
}

// NewRunner creates a runner. hooks and runs may be nil.
func NewRunner(sources *source.Registry, emitters *emit.Registry, hm *hooks.Manager, runs *store.RunStore, log *logging.Logger) *Runner {
	return &Runner{
		sources:  sources,
		emitters: emitters,
		hooks:    hm,
		runs:     runs,
		now:      time.Now,
		log:      log.Sub("pipeline"),
	}
}

// Load reads, classifies, filters and segments the export named by req.
func (r *Runner) Load(ctx context.Context, req Request) (*Loaded, error) {
	return r.load(ctx, "", req)
}

func (r *Runner) load(ctx context.Context, runID string, req Request) (*Loaded, error) {
	src, err := r.sources.Open(req.Format, req.Source)
	if err != nil {
		return nil, err
	}
	recs, err := src.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", src.Name(), err)
	}
	r.log.Info().Str("source", src.Name()).Int("records", len(recs)).Msg("loaded records")
	r.emit(ctx, hooks.EventRecordsLoaded, runID, map[string]any{"source": src.Name(), "records": len(recs)})

	msgs, sum, err := classify.New(r.log).BuildAll(recs)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	loaded := &Loaded{Records: len(recs), Summary: sum}
	if !req.ExcludeDisabled {
		kept := filter.ExcludeSpans(msgs, req.Markers)
		loaded.Excluded = len(msgs) - len(kept)
		msgs = kept
	}
	loaded.Messages = msgs
	r.log.Info().
		Int("messages", len(msgs)).
		Int("skipped", sum.Skipped()).
		Int("excluded", loaded.Excluded).
		Msg("classified messages")
	r.emit(ctx, hooks.EventMessagesClassified, runID, map[string]any{
		"messages": len(msgs),
		"skipped":  sum.Skipped(),
		"excluded": loaded.Excluded,
	})

	gap := req.Gap
	if gap <= 0 {
		gap = session.DefaultGap
	}
	minCount := req.MinMessages
	if minCount <= 0 {
		minCount = session.DefaultMinMessages
	}
	loaded.Sessions = session.Segment(msgs, gap)
	if prev, ok := session.Previous(loaded.Sessions, minCount); ok {
		loaded.Previous = prev
	}

	data := map[string]any{"sessions": len(loaded.Sessions)}
	if loaded.Previous != nil {
		data["previous_start"] = loaded.Previous.Start
		data["previous_count"] = loaded.Previous.Count
	}
	r.log.Info().Int("sessions", len(loaded.Sessions)).Bool("previous", loaded.Previous != nil).Msg("segmented sessions")
	r.emit(ctx, hooks.EventSessionsSegmented, runID, data)
	return loaded, nil
}

// Run executes the whole pipeline. Nothing is emitted unless every stage before
// emission succeeds.
func (r *Runner) Run(ctx context.Context, req Request) (*RunResult, error) {
	start := r.now()
	runID := uuid.New().String()
	log := r.log.With("run", runID)

	res, err := r.run(ctx, runID, req)
	if err != nil {
		log.Error().Err(err).Msg("run failed")
		r.emit(ctx, hooks.EventRunFailed, runID, map[string]any{"error": err.Error()})
		return nil, err
	}
	res.Duration = r.now().Sub(start)
	log.Info().Dur("duration", res.Duration).Strs("outputs", res.Emitted).Msg("run complete")
	return res, nil
}

func (r *Runner) run(ctx context.Context, runID string, req Request) (*RunResult, error) {
	loaded, err := r.load(ctx, runID, req)
	if err != nil {
		return nil, err
	}

	meta := store.RunMeta{
		SourceFormat: req.Format,
		SourcePath:   req.Source.Path,
		Records:      loaded.Records,
		Messages:     len(loaded.Messages),
	}
	emitters, err := r.emitters.Build(req.Formats, emit.Options{
		Dir:  req.OutputDir,
		Out:  req.Out,
		Runs: r.runs,
		Meta: meta,
		Log:  r.log,
	})
	if err != nil {
		return nil, err
	}

	builder := stats.NewBuilder(req.World, req.Players, r.log)
	if req.Labels != (filter.Labels{}) {
		builder.Labels = req.Labels
	}
	builder.Concurrency = req.Concurrency
	builder.Now = r.now

	bundle, err := builder.Build(ctx, loaded.Messages, loaded.Previous)
	if err != nil {
		return nil, err
	}
	r.emit(ctx, hooks.EventReportBuilt, runID, map[string]any{
		"slices":   len(bundle.Reports),
		"previous": len(bundle.Previous) > 0,
	})

	res := &RunResult{RunID: runID, Bundle: bundle, Loaded: loaded}
	for i, e := range emitters {
		if err := e.Emit(ctx, bundle); err != nil {
			r.revert(emitters[:i])
			return nil, err
		}
		res.Emitted = append(res.Emitted, e.Name())
		if s, ok := e.(*emit.SQLiteEmitter); ok {
			res.StoredAs = s.RunID()
		}
	}
	r.emit(ctx, hooks.EventReportEmitted, runID, map[string]any{"outputs": res.Emitted})
	return res, nil
}

// revert takes back outputs already written by a failed run, newest first.
// It ignores cancellation of the run context.
func (r *Runner) revert(done []emit.Emitter) {
	ctx := context.Background()
	for i := len(done) - 1; i >= 0; i-- {
		rv, ok := done[i].(emit.Reverter)
		if !ok {
			continue
		}
		if err := rv.Revert(ctx); err != nil {
			r.log.Warn().Err(err).Str("output", done[i].Name()).Msg("failed to revert output")
		}
	}
}

func (r *Runner) emit(ctx context.Context, ev hooks.Event, runID string, data map[string]any) {
	if r.hooks == nil {
		return
	}
	r.hooks.Emit(ctx, hooks.Payload{Event: ev, RunID: runID, Data: data})
}
