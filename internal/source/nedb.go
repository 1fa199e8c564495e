package source

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"

	"github.com/soyeahso/d20stats/internal/domain"
	"github.com/soyeahso/d20stats/internal/logging"
)

const maxLineSize = 64 << 20

// NeDBSource reads an append-only line log world directory.
type NeDBSource struct {
	dir string
	log *logging.Logger
}

func openNeDB(opts Options, log *logging.Logger) (domain.RecordSource, error) {
	return &NeDBSource{dir: opts.Path, log: log}, nil
}

func (s *NeDBSource) Name() string { return "nedb" }

// Records reads data/users.db then data/messages.db.
func (s *NeDBSource) Records(ctx context.Context) ([]domain.RawRecord, error) {
	uf, err := os.Open(filepath.Join(s.dir, "data", "users.db"))
	if err != nil {
		return nil, fmt.Errorf("opening users: %w", err)
	}
	defer uf.Close()

	mf, err := os.Open(filepath.Join(s.dir, "data", "messages.db"))
	if err != nil {
		return nil, fmt.Errorf("opening messages: %w", err)
	}
	defer mf.Close()

	return readLineLogs(ctx, uf, mf, s.log)
}

// readLineLogs decodes a users log and a messages log. Each line is one
// document; a later line with the same _id replaces the earlier one.
func readLineLogs(ctx context.Context, usersLog, messagesLog io.Reader, log *logging.Logger) ([]domain.RawRecord, error) {
	u := users{}
	userDocs, err := readLog(ctx, usersLog)
	if err != nil {
		return nil, fmt.Errorf("reading users: %w", err)
	}
	for _, doc := range userDocs {
		if gjson.GetBytes(doc, "$$deleted").Bool() {
			continue
		}
		if err := u.add(doc); err != nil {
			return nil, err
		}
	}

	msgDocs, err := readLog(ctx, messagesLog)
	if err != nil {
		return nil, fmt.Errorf("reading messages: %w", err)
	}
	recs := make([]domain.RawRecord, 0, len(msgDocs))
	for i, doc := range msgDocs {
		m, err := decodeMessage(doc)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		recs = append(recs, m.record(u))
	}

	log.Debug().Int("users", len(u)).Int("records", len(recs)).Msg("read line logs")
	return recs, nil
}

// readLog returns the latest version of each document, in first-seen order.
// Lines without an _id, such as index definitions, are ignored.
func readLog(ctx context.Context, r io.Reader) ([][]byte, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var docs [][]byte
	index := map[string]int{}
	line := 0
	for sc.Scan() {
		line++
		if line%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		if !gjson.ValidBytes(raw) {
			return nil, fmt.Errorf("line %d: invalid JSON", line)
		}
		id := gjson.GetBytes(raw, "_id").String()
		if id == "" {
			continue
		}
		doc := bytes.Clone(raw)
		if i, seen := index[id]; seen {
			docs[i] = doc
			continue
		}
		index[id] = len(docs)
		docs = append(docs, doc)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}
