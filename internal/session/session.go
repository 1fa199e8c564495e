// Package session groups chronological messages into play sessions.
package session

import (
	"time"

	"github.com/soyeahso/d20stats/internal/domain"
)

const (
	// DefaultGap is the largest silence that still counts as the same session.
	DefaultGap = 24 * time.Hour
	// DefaultMinMessages is the smallest session worth reporting on.
	DefaultMinMessages = 11
)

// Segment assigns each message to the first open session whose latest message
// is less than gap earlier, starting a new session when none accepts it.
// Sessions are returned in creation order.
func Segment(msgs []*domain.Message, gap time.Duration) []*domain.Session {
	var sessions []*domain.Session
	for _, m := range msgs {
		placed := false
		for _, s := range sessions {
			if s.Contains(m.Timestamp, gap) {
				s.Add(m)
				placed = true
				break
			}
		}
		if !placed {
			sessions = append(sessions, domain.NewSession(m))
		}
	}
	return sessions
}

// Qualifying keeps the sessions with at least minCount messages.
func Qualifying(sessions []*domain.Session, minCount int) []*domain.Session {
	var out []*domain.Session
	for _, s := range sessions {
		if s.Count >= minCount {
			out = append(out, s)
		}
	}
	return out
}

// Previous returns the most recently created qualifying session.
func Previous(sessions []*domain.Session, minCount int) (*domain.Session, bool) {
	q := Qualifying(sessions, minCount)
	if len(q) == 0 {
		return nil, false
	}
	return q[len(q)-1], true
}
