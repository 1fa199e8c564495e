package domain

import "time"

// Session is a run of messages with no gap longer than the segmenting threshold.
// Messages is a view into the classified message slice; sessions do not own them.
type Session struct {
	Start    time.Time  `json:"start"`
	End      time.Time  `json:"end"`
	Count    int        `json:"count"`
	Messages []*Message `json:"-"`
}

// NewSession starts a session from its first message.
func NewSession(m *Message) *Session {
	return &Session{
		Start:    m.Timestamp,
		End:      m.Timestamp,
		Count:    1,
		Messages: []*Message{m},
	}
}

// Contains reports whether t falls within gap of the session's latest message.
func (s *Session) Contains(t time.Time, gap time.Duration) bool {
	return t.Sub(s.End) < gap
}

// Add appends a message and extends the session bounds.
func (s *Session) Add(m *Message) {
	s.Messages = append(s.Messages, m)
	s.Count++
	if m.Timestamp.After(s.End) {
		s.End = m.Timestamp
	}
	if m.Timestamp.Before(s.Start) {
		s.Start = m.Timestamp
	}
}

// Duration is the time between the first and last message.
func (s *Session) Duration() time.Duration { return s.End.Sub(s.Start) }
