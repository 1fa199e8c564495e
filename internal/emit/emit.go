// Package emit writes a finished report bundle to its output formats.
package emit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/soyeahso/d20stats/internal/domain"
	"github.com/soyeahso/d20stats/internal/logging"
	"github.com/soyeahso/d20stats/internal/store"
)

// ErrUnknownEmitter is returned for an output format with no registered emitter.
var ErrUnknownEmitter = errors.New("unknown output format")

// Emitter writes a bundle to one output.
type Emitter interface {
	Name() string
	Emit(ctx context.Context, b *domain.Bundle) error
}

// Reverter is implemented by emitters that can take back a successful Emit.
// The pipeline reverts earlier outputs when a later one fails.
type Reverter interface {
	Revert(ctx context.Context) error
}

// Options configures the emitters of one run.
type Options struct {
	// Dir receives file outputs.
	Dir string
	// Out receives terminal outputs. Defaults to stdout.
	Out io.Writer
	// Runs is the history store used by the sqlite emitter.
	Runs *store.RunStore
	// Meta describes the run for the history store.
	Meta store.RunMeta
	Log  *logging.Logger
}

// Factory creates an emitter from run options.
type Factory func(Options) (Emitter, error)

// Registry maps output format names to emitter factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Default returns a registry holding every built-in emitter.
func Default() *Registry {
	r := NewRegistry()
	r.Register("json", func(o Options) (Emitter, error) { return &JSONEmitter{Dir: o.Dir, log: o.logger()}, nil })
	r.Register("json-v2", func(o Options) (Emitter, error) { return &KeyedJSONEmitter{Dir: o.Dir, log: o.logger()}, nil })
	r.Register("xlsx", func(o Options) (Emitter, error) { return &XLSXEmitter{Dir: o.Dir, log: o.logger()}, nil })
	r.Register("table", func(o Options) (Emitter, error) { return NewTableEmitter(o.out()), nil })
	r.Register("sqlite", func(o Options) (Emitter, error) {
		if o.Runs == nil {
			return nil, errors.New("sqlite output requires a history store")
		}
		return &SQLiteEmitter{Runs: o.Runs, Meta: o.Meta, log: o.logger()}, nil
	})
	return r
}

// Register adds or replaces a factory.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Names returns the registered format names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Build creates the emitters for the named formats, in order.
func (r *Registry) Build(names []string, o Options) ([]Emitter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Emitter, 0, len(names))
	for _, n := range names {
		f, ok := r.factories[n]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownEmitter, n)
		}
		e, err := f(o)
		if err != nil {
			return nil, fmt.Errorf("output %s: %w", n, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (o Options) out() io.Writer {
	if o.Out == nil {
		return os.Stdout
	}
	return o.Out
}

func (o Options) logger() *logging.Logger {
	if o.Log == nil {
		return logging.Nop()
	}
	return o.Log.Sub("emit")
}

// FileName returns the output file name of a world, with path separators replaced.
func FileName(world, suffix string) string {
	safe := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, world)
	return safe + suffix
}

// writeFile writes data through a temp file and renames it into place,
// so readers never see a partial report.
func writeFile(dir, name string, write func(io.Writer) error) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}

	path := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("renaming into %s: %w", path, err)
	}
	return path, nil
}

// written records the file an emitter produced.
type written struct {
	path string
}

// Revert removes the written file. It is a no-op before a successful Emit.
func (w *written) Revert(context.Context) error {
	if w.path == "" {
		return nil
	}
	err := os.Remove(w.path)
	w.path = ""
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing output: %w", err)
	}
	return nil
}
