package domain

import (
	"encoding/json"
	"time"
)

// Report is the flat statistics mapping for one participant slice.
type Report struct {
	Label   string
	Metrics map[string]float64
}

// MarshalJSON flattens the metrics and adds the slice label under "player".
func (r Report) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Metrics)+1)
	for k, v := range r.Metrics {
		out[k] = v
	}
	out["player"] = r.Label
	return json.Marshal(out)
}

// UnmarshalJSON reverses MarshalJSON.
func (r *Report) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Metrics = make(map[string]float64, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			if k == "player" {
				r.Label = val
			}
		case float64:
			r.Metrics[k] = val
		}
	}
	return nil
}

// Get returns a metric value, zero when absent.
func (r Report) Get(name string) float64 { return r.Metrics[name] }

// FieldMeta describes how a metric is displayed.
type FieldMeta struct {
	Pretty      string `json:"pretty"`
	Explanation string `json:"explanation,omitempty"`
	IsPercent   bool   `json:"is_percent,omitempty"`
}

// SessionWindow identifies the session the previous-session reports cover.
type SessionWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Count int       `json:"count"`
}

// Bundle is everything one run produces.
type Bundle struct {
	World         string               `json:"world"`
	Players       []string             `json:"players"`
	GeneratedAt   time.Time            `json:"generated_at"`
	Reports       []Report             `json:"reports"`
	Previous      []Report             `json:"previous,omitempty"`
	Session       *SessionWindow       `json:"session,omitempty"`
	FieldMetadata map[string]FieldMeta `json:"field_metadata"`
}

// Labels returns the slice labels in report order.
func (b *Bundle) Labels() []string {
	out := make([]string, len(b.Reports))
	for i, r := range b.Reports {
		out[i] = r.Label
	}
	return out
}
