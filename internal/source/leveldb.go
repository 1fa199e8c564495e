package source

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/soyeahso/d20stats/internal/domain"
	"github.com/soyeahso/d20stats/internal/logging"
)

// LevelDBSource reads a world directory whose collections are LevelDB stores.
type LevelDBSource struct {
	dir string
	log *logging.Logger
}

func openLevelDB(opts Options, log *logging.Logger) (domain.RecordSource, error) {
	return &LevelDBSource{dir: opts.Path, log: log}, nil
}

func (s *LevelDBSource) Name() string { return "leveldb" }

// Records iterates data/users then data/messages in key order.
func (s *LevelDBSource) Records(ctx context.Context) ([]domain.RawRecord, error) {
	u := users{}
	err := scanLevelDB(ctx, filepath.Join(s.dir, "data", "users"), func(_, value []byte) error {
		return u.add(value)
	})
	if err != nil {
		return nil, fmt.Errorf("reading users: %w", err)
	}

	var recs []domain.RawRecord
	err = scanLevelDB(ctx, filepath.Join(s.dir, "data", "messages"), func(key, value []byte) error {
		m, err := decodeMessage(value)
		if err != nil {
			return fmt.Errorf("key %s: %w", key, err)
		}
		recs = append(recs, m.record(u))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading messages: %w", err)
	}

	s.log.Debug().Int("users", len(u)).Int("records", len(recs)).Msg("read leveldb stores")
	return recs, nil
}

func scanLevelDB(ctx context.Context, dir string, fn func(key, value []byte) error) error {
	db, err := leveldb.OpenFile(dir, &opt.Options{ReadOnly: true, ErrorIfMissing: true})
	if err != nil {
		return err
	}
	defer db.Close()

	it := db.NewIterator(nil, nil)
	defer it.Release()
	for it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(it.Key(), it.Value()); err != nil {
			return err
		}
	}
	return it.Error()
}
