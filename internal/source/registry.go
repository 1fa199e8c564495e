// Package source reads tabletop chat exports into raw records.
package source

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/soyeahso/d20stats/internal/domain"
	"github.com/soyeahso/d20stats/internal/logging"
)

// ErrUnknownFormat is returned when no adapter is registered for a format name.
var ErrUnknownFormat = errors.New("unknown source format")

// Options locate one export.
type Options struct {
	// Path is the world directory, archive or file to read.
	Path string
	// World is the world folder name inside archives. Optional.
	World string
	// Location is the zone for formats without zone information. Defaults to UTC.
	Location *time.Location
}

// Format describes an adapter.
type Format struct {
	Name        string
	Description string
	Open        func(opts Options, log *logging.Logger) (domain.RecordSource, error)
}

// Registry maps format names to adapters.
type Registry struct {
	mu      sync.RWMutex
	formats map[string]Format
	order   []string
	log     *logging.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *logging.Logger) *Registry {
	return &Registry{
		formats: make(map[string]Format),
		log:     log.Sub("source"),
	}
}

// Default returns a registry holding every built-in adapter.
func Default(log *logging.Logger) *Registry {
	r := NewRegistry(log)
	for _, f := range []Format{
		{Name: "nedb", Description: "world directory with data/users.db and data/messages.db", Open: openNeDB},
		{Name: "zip", Description: "zipped world backup containing data/users.db and data/messages.db", Open: openZip},
		{Name: "leveldb", Description: "world directory with data/users and data/messages LevelDB stores", Open: openLevelDB},
		{Name: "transcript", Description: "plain text chat log export", Open: openTranscript},
		{Name: "json", Description: "JSON array of normalized records", Open: openJSON},
	} {
		_ = r.Register(f)
	}
	return r
}

// Register adds an adapter.
func (r *Registry) Register(f Format) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.formats[f.Name]; exists {
		return fmt.Errorf("source format already registered: %s", f.Name)
	}
	r.formats[f.Name] = f
	r.order = append(r.order, f.Name)
	return nil
}

// Get returns an adapter by name.
func (r *Registry) Get(name string) (Format, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.formats[name]
	return f, ok
}

// Formats returns the registered adapters in registration order.
func (r *Registry) Formats() []Format {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Format, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.formats[name])
	}
	return out
}

// Open creates a record source for the named format.
func (r *Registry) Open(name string, opts Options) (domain.RecordSource, error) {
	f, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	r.log.Debug().Str("format", name).Str("path", opts.Path).Msg("opening source")
	return f.Open(opts, r.log.With("format", name))
}
