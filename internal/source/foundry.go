package source

import (
	"encoding/json"
	"fmt"

	"github.com/soyeahso/d20stats/internal/domain"
)

// foundryUser is the subset of a user document the adapters need.
type foundryUser struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// foundryMessage is a chat message document as stored by the tabletop.
// Older worlds store the author under "user" and a single "roll",
// newer ones use "author" and a "rolls" list.
type foundryMessage struct {
	ID        string  `json:"_id"`
	User      *string `json:"user"`
	Author    *string `json:"author"`
	Timestamp float64 `json:"timestamp"`
	Content   string  `json:"content"`
	Speaker   struct {
		Alias *string `json:"alias"`
	} `json:"speaker"`
	Flags   json.RawMessage   `json:"flags"`
	Roll    json.RawMessage   `json:"roll"`
	Rolls   []json.RawMessage `json:"rolls"`
	Deleted bool              `json:"$$deleted"`
}

// users resolves author ids to display names.
type users map[string]string

func (u users) add(raw []byte) error {
	var doc foundryUser
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decoding user: %w", err)
	}
	if doc.ID != "" {
		u[doc.ID] = doc.Name
	}
	return nil
}

// resolve returns the display name for an author id. A missing author yields
// the empty string; an id with no user entry yields domain.UnknownUser.
func (u users) resolve(id *string) string {
	if id == nil || *id == "" {
		return ""
	}
	if name, ok := u[*id]; ok {
		return name
	}
	return domain.UnknownUser
}

func decodeMessage(raw []byte) (foundryMessage, error) {
	var doc foundryMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("decoding message: %w", err)
	}
	return doc, nil
}

func (m foundryMessage) record(u users) domain.RawRecord {
	author := m.Author
	if author == nil {
		author = m.User
	}

	var rolls []json.RawMessage
	if len(m.Roll) > 0 && string(m.Roll) != "null" {
		rolls = append(rolls, m.Roll)
	}
	if m.Rolls != nil {
		rolls = m.Rolls
	}

	return domain.RawRecord{
		ID:        m.ID,
		User:      u.resolve(author),
		Rolls:     rolls,
		Timestamp: int64(m.Timestamp),
		Content:   m.Content,
		Alias:     m.Speaker.Alias,
		Flags:     m.Flags,
		Deleted:   m.Deleted,
	}
}
