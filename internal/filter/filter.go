// Package filter narrows the classified message sequence.
package filter

import (
	"strings"

	"github.com/soyeahso/d20stats/internal/domain"
)

// Markers delimit a span of messages excluded from statistics.
type Markers struct {
	Start string
	End   string
}

// DefaultMarkers are the markers used when none are configured.
var DefaultMarkers = Markers{Start: "# April Fools Marker", End: "#End April Fools"}

// ExcludeSpans drops every message from a start marker through the next end
// marker, both marker messages included. Spans are not nested: a second start
// marker inside a span has no effect. An unterminated span runs to the end.
func ExcludeSpans(msgs []*domain.Message, m Markers) []*domain.Message {
	out := make([]*domain.Message, 0, len(msgs))
	excluding := false
	for _, msg := range msgs {
		if m.Start != "" && strings.Contains(msg.Content, m.Start) {
			excluding = true
		}
		if excluding {
			if m.End != "" && strings.Contains(msg.Content, m.End) {
				excluding = false
			}
			continue
		}
		out = append(out, msg)
	}
	return out
}

// Labels names the fixed participant slices.
type Labels struct {
	All        string
	Players    string
	Gamemaster string
}

// DefaultLabels are the slice labels used when none are configured.
var DefaultLabels = Labels{All: "All", Players: "All Players", Gamemaster: "Gamemaster"}

// Participant returns the messages belonging to a slice label. The whole-group
// label and the empty label select everything, the players label selects
// everyone but the gamemaster, any other label is an exact user match.
func Participant(msgs []*domain.Message, label string, l Labels) []*domain.Message {
	switch label {
	case "", l.All:
		return msgs
	case l.Players:
		return where(msgs, func(m *domain.Message) bool { return m.User != l.Gamemaster })
	default:
		return where(msgs, func(m *domain.Message) bool { return m.User == label })
	}
}

// Slices returns the slice labels in report order: the whole group, the
// players group, the gamemaster, then each named player.
func Slices(l Labels, players []string) []string {
	out := make([]string, 0, len(players)+3)
	out = append(out, l.All, l.Players, l.Gamemaster)
	return append(out, players...)
}

func where(msgs []*domain.Message, keep func(*domain.Message) bool) []*domain.Message {
	var out []*domain.Message
	for _, m := range msgs {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}
