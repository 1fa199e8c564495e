// Package classify turns raw chat records into classified messages.
package classify

import (
	"fmt"
	"sort"
	"time"

	"github.com/soyeahso/d20stats/internal/domain"
	"github.com/soyeahso/d20stats/internal/logging"
)

// MalformedRecordError reports a record whose nested roll data could not be decoded.
type MalformedRecordError struct {
	Index int
	ID    string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("record %d (%s): %v", e.Index, e.ID, e.Err)
	}
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

// Summary counts what happened to the records of one run.
type Summary struct {
	Records   int `json:"records"`
	Messages  int `json:"messages"`
	Deleted   int `json:"deleted"`
	Anonymous int `json:"anonymous"`
	Rolls     int `json:"rolls"`
}

// Skipped is the number of records that did not become messages.
func (s Summary) Skipped() int { return s.Deleted + s.Anonymous }

// Classifier builds messages from raw records.
type Classifier struct {
	log *logging.Logger
}

// New creates a classifier.
func New(log *logging.Logger) *Classifier {
	return &Classifier{log: log.Sub("classify")}
}

// Build converts one record. ok is false for records that are skipped:
// soft-deleted ones and those without an author.
func Build(rec domain.RawRecord) (msg *domain.Message, ok bool, err error) {
	if rec.Deleted || rec.User == "" {
		return nil, false, nil
	}

	rolls := make([]domain.Roll, 0, len(rec.Rolls))
	for i, raw := range rec.Rolls {
		roll, err := DecodeRoll(raw)
		if err != nil {
			return nil, false, fmt.Errorf("roll %d: %w", i, err)
		}
		rolls = append(rolls, roll)
	}

	msg = &domain.Message{
		User:      rec.User,
		Timestamp: time.Unix(rec.Timestamp/1000, 0).UTC(),
		Content:   rec.Content,
		Rolls:     rolls,
		Purpose:   Purpose(rec.Flags),
	}
	if rec.Alias != nil {
		msg.Alias = *rec.Alias
	}
	return msg, true, nil
}

// BuildAll converts every record and returns the messages in chronological order.
// Records with equal timestamps keep their input order. The first malformed record
// aborts the whole run.
func (c *Classifier) BuildAll(recs []domain.RawRecord) ([]*domain.Message, Summary, error) {
	sum := Summary{Records: len(recs)}
	msgs := make([]*domain.Message, 0, len(recs))

	for i, rec := range recs {
		msg, ok, err := Build(rec)
		if err != nil {
			return nil, sum, &MalformedRecordError{Index: i, ID: rec.ID, Err: err}
		}
		if !ok {
			if rec.Deleted {
				sum.Deleted++
			} else {
				sum.Anonymous++
			}
			continue
		}
		sum.Rolls += len(msg.Rolls)
		msgs = append(msgs, msg)
	}

	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
	sum.Messages = len(msgs)

	c.log.Debug().
		Int("records", sum.Records).
		Int("messages", sum.Messages).
		Int("deleted", sum.Deleted).
		Int("anonymous", sum.Anonymous).
		Int("rolls", sum.Rolls).
		Msg("classified records")
	return msgs, sum, nil
}
