package emit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/soyeahso/d20stats/internal/domain"
	"github.com/soyeahso/d20stats/internal/logging"
)

const jsonIndent = "    "

// JSONEmitter writes <world>_data.json: the slice reports as a list, in slice order.
type JSONEmitter struct {
	Dir string
	written
	log *logging.Logger
}

func (e *JSONEmitter) Name() string { return "json" }

func (e *JSONEmitter) Emit(ctx context.Context, b *domain.Bundle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := writeFile(e.Dir, FileName(b.World, "_data.json"), func(w io.Writer) error {
		return encodeJSON(w, b.Reports)
	})
	if err != nil {
		return fmt.Errorf("json output: %w", err)
	}
	e.path = path
	e.log.Info().Str("path", path).Msg("wrote report")
	return nil
}

// KeyedJSONEmitter writes <world>_data_v2.json, the structure the viewer reads.
type KeyedJSONEmitter struct {
	Dir string
	written
	log *logging.Logger
}

func (e *KeyedJSONEmitter) Name() string { return "json-v2" }

func (e *KeyedJSONEmitter) Emit(ctx context.Context, b *domain.Bundle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := writeFile(e.Dir, FileName(b.World, "_data_v2.json"), func(w io.Writer) error {
		return encodeJSON(w, Keyed(b))
	})
	if err != nil {
		return fmt.Errorf("json-v2 output: %w", err)
	}
	e.path = path
	e.log.Info().Str("path", path).Msg("wrote report")
	return nil
}

// Keyed returns the v2 structure of a bundle: world, players and field_metadata,
// then each slice report under its label.
func Keyed(b *domain.Bundle) map[string]any {
	players := b.Players
	if players == nil {
		players = []string{}
	}
	out := map[string]any{
		"world":          b.World,
		"players":        players,
		"field_metadata": b.FieldMetadata,
	}
	for _, r := range b.Reports {
		out[r.Label] = r
	}
	return out
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", jsonIndent)
	return enc.Encode(v)
}
