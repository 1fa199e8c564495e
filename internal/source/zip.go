package source

import (
	"archive/zip"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/soyeahso/d20stats/internal/domain"
	"github.com/soyeahso/d20stats/internal/logging"
)

// ZipSource reads a zipped world backup holding the line log databases.
type ZipSource struct {
	path  string
	world string
	log   *logging.Logger
}

func openZip(opts Options, log *logging.Logger) (domain.RecordSource, error) {
	return &ZipSource{path: opts.Path, world: opts.World, log: log}, nil
}

func (s *ZipSource) Name() string { return "zip" }

// Records locates <world>/data/users.db and <world>/data/messages.db in the
// archive. Without a world name the first matching pair is used.
func (s *ZipSource) Records(ctx context.Context) ([]domain.RawRecord, error) {
	zr, err := zip.OpenReader(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer zr.Close()

	usersFile, err := s.find(zr.File, "users.db")
	if err != nil {
		return nil, err
	}
	messagesFile, err := s.find(zr.File, "messages.db")
	if err != nil {
		return nil, err
	}

	ur, err := usersFile.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", usersFile.Name, err)
	}
	defer ur.Close()

	mr, err := messagesFile.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", messagesFile.Name, err)
	}
	defer mr.Close()

	s.log.Debug().Str("users", usersFile.Name).Str("messages", messagesFile.Name).Msg("reading archive")
	return readLineLogs(ctx, ur, mr, s.log)
}

func (s *ZipSource) find(files []*zip.File, name string) (*zip.File, error) {
	want := path.Join("data", name)
	if s.world != "" {
		want = path.Join(s.world, want)
	}
	for _, f := range files {
		if f.Name == want || strings.HasSuffix(f.Name, "/"+want) {
			return f, nil
		}
	}
	return nil, fmt.Errorf("archive %s has no %s", s.path, want)
}
