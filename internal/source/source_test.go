package source

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/soyeahso/d20stats/internal/domain"
	"github.com/soyeahso/d20stats/internal/logging"
)

func testLogger() *logging.Logger {
	return logging.New(nil, "silent")
}

const usersLog = `{"_id":"u1","name":"Gamemaster"}
{"_id":"u2","name":"Alice"}
{"$$indexCreated":{"fieldName":"name","unique":true}}
`

const messagesLog = `{"_id":"m1","user":"u1","timestamp":1678820400000,"content":"Welcome back","speaker":{"alias":"Gamemaster"},"flags":{}}
{"_id":"m2","user":"u2","timestamp":1678820460000,"content":"draft","speaker":{},"flags":{}}
{"_id":"m3","user":"u9","timestamp":1678820470000,"content":"who?","speaker":{},"flags":{}}
{"_id":"m4","timestamp":1678820480000,"content":"system","speaker":{},"flags":{}}
{"_id":"m2","user":"u2","timestamp":1678820460000,"content":"Stealth","speaker":{"alias":"Thorn"},"flags":{"dnd5e":{"roll":{"type":"skill","skillId":"ste"}}},"roll":"{\"class\":\"D20Roll\",\"formula\":\"1d20 + 4\",\"total\":19,\"terms\":[{\"class\":\"Die\",\"number\":1,\"faces\":20,\"options\":{},\"results\":[{\"result\":15,\"active\":true}]}]}"}
{"$$deleted":true,"_id":"m1"}
`

func writeWorld(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "users.db"), []byte(usersLog), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "messages.db"), []byte(messagesLog), 0o644))
	return dir
}

func assertLineLogRecords(t *testing.T, recs []domain.RawRecord) {
	t.Helper()
	require.Len(t, recs, 4)

	assert.Equal(t, "m1", recs[0].ID)
	assert.True(t, recs[0].Deleted)

	assert.Equal(t, "m2", recs[1].ID)
	assert.Equal(t, "Alice", recs[1].User)
	assert.Equal(t, "Stealth", recs[1].Content)
	require.NotNil(t, recs[1].Alias)
	assert.Equal(t, "Thorn", *recs[1].Alias)
	assert.Len(t, recs[1].Rolls, 1)
	assert.Equal(t, int64(1678820460000), recs[1].Timestamp)

	assert.Equal(t, domain.UnknownUser, recs[2].User)
	assert.Empty(t, recs[3].User)
}

func TestNeDBSource(t *testing.T) {
	reg := Default(testLogger())
	src, err := reg.Open("nedb", Options{Path: writeWorld(t)})
	require.NoError(t, err)
	assert.Equal(t, "nedb", src.Name())

	recs, err := src.Records(context.Background())
	require.NoError(t, err)
	assertLineLogRecords(t, recs)
}

func TestNeDBSourceMissing(t *testing.T) {
	src, err := Default(testLogger()).Open("nedb", Options{Path: t.TempDir()})
	require.NoError(t, err)
	_, err = src.Records(context.Background())
	assert.Error(t, err)
}

func TestReadLogInvalidLine(t *testing.T) {
	_, err := readLog(context.Background(), strings.NewReader("{\"_id\":\"a\"}\n{broken\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func writeZip(t *testing.T, world string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "backup.zip")
	f, err := os.Create(p)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range map[string]string{
		world + "/data/users.db":    usersLog,
		world + "/data/messages.db": messagesLog,
		world + "/world.json":       `{"title":"Salocaia"}`,
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return p
}

func TestZipSource(t *testing.T) {
	p := writeZip(t, "salocaia")
	reg := Default(testLogger())

	t.Run("named world", func(t *testing.T) {
		src, err := reg.Open("zip", Options{Path: p, World: "salocaia"})
		require.NoError(t, err)
		recs, err := src.Records(context.Background())
		require.NoError(t, err)
		assertLineLogRecords(t, recs)
	})

	t.Run("any world", func(t *testing.T) {
		src, err := reg.Open("zip", Options{Path: p})
		require.NoError(t, err)
		recs, err := src.Records(context.Background())
		require.NoError(t, err)
		assert.Len(t, recs, 4)
	})

	t.Run("wrong world", func(t *testing.T) {
		src, err := reg.Open("zip", Options{Path: p, World: "other"})
		require.NoError(t, err)
		_, err = src.Records(context.Background())
		assert.Error(t, err)
	})
}

func writeLevelDB(t *testing.T, dir string, docs map[string]string) {
	t.Helper()
	db, err := leveldb.OpenFile(dir, nil)
	require.NoError(t, err)
	for k, v := range docs {
		require.NoError(t, db.Put([]byte(k), []byte(v), nil))
	}
	require.NoError(t, db.Close())
}

func TestLevelDBSource(t *testing.T) {
	world := t.TempDir()
	writeLevelDB(t, filepath.Join(world, "data", "users"), map[string]string{
		"!users!u1": `{"_id":"u1","name":"Gamemaster"}`,
		"!users!u2": `{"_id":"u2","name":"Alice"}`,
	})
	writeLevelDB(t, filepath.Join(world, "data", "messages"), map[string]string{
		"!messages!a": `{"_id":"a","author":"u2","timestamp":1000,"content":"hi","speaker":{},"flags":{},"rolls":[]}`,
		"!messages!b": `{"_id":"b","author":"u1","timestamp":2000,"content":"roll","speaker":{"alias":"Goblin"},"flags":{"core":{"initiativeRoll":true}},"rolls":["{\"formula\":\"1d20\",\"total\":7,\"terms\":[]}"]}`,
		"!messages!c": `{"_id":"c","timestamp":3000,"content":"no author","speaker":{},"flags":{}}`,
	})

	src, err := Default(testLogger()).Open("leveldb", Options{Path: world})
	require.NoError(t, err)
	recs, err := src.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, "Alice", recs[0].User)
	assert.Equal(t, "Gamemaster", recs[1].User)
	assert.Equal(t, "Goblin", *recs[1].Alias)
	assert.Len(t, recs[1].Rolls, 1)
	assert.Empty(t, recs[2].User)
}

func TestLevelDBSourceMissing(t *testing.T) {
	src, err := Default(testLogger()).Open("leveldb", Options{Path: t.TempDir()})
	require.NoError(t, err)
	_, err = src.Records(context.Background())
	assert.Error(t, err)
}

const transcript = `Session export
[3/14/2023, 8:01:22 PM] Thorn
17
1d20 + 5 = 12 + 5 = 17
Dexterity Saving Throw
[3/14/2023, 8:02:00 PM] Gamemaster
The goblin lunges.
[3/14/2023, 8:02:30 PM] Thorn
23
2d20kh + 3 = 20 + 3 = 23
Longbow Attack Roll
[3/14/2023, 8:03:10 PM] Mira
9
2d20kl + 2d6 = 4 + 5 = 9
`

func TestParseTranscript(t *testing.T) {
	recs, err := ParseTranscript(context.Background(), strings.NewReader(transcript), nil)
	require.NoError(t, err)
	require.Len(t, recs, 4)

	first := recs[0]
	assert.Equal(t, "Thorn", first.User)
	assert.Equal(t, time.Date(2023, 3, 14, 20, 1, 22, 0, time.UTC).UnixMilli(), first.Timestamp)
	require.Len(t, first.Rolls, 1)
	assert.JSONEq(t, `{"dnd5e":{"roll":{"type":"save","abilityId":"dex"}}}`, string(first.Flags))

	assert.Empty(t, recs[1].Rolls)
	assert.Nil(t, recs[1].Flags)

	var roll transcriptRoll
	require.NoError(t, json.Unmarshal(recs[2].Rolls[0], &roll))
	require.Len(t, roll.Terms, 1)
	assert.Equal(t, 20, roll.Terms[0].Faces)
	assert.True(t, roll.Terms[0].Options["advantage"])
	assert.Equal(t, 20, roll.Terms[0].Results[0].Result)
	assert.Equal(t, 23, roll.Total)

	var mixed transcriptRoll
	require.NoError(t, json.Unmarshal(recs[3].Rolls[0], &mixed))
	require.Len(t, mixed.Terms, 1)
	assert.True(t, mixed.Terms[0].Options["disadvantage"])
	assert.False(t, mixed.Terms[0].Options["advantage"])
}

func TestParseTranscriptMismatchedTotal(t *testing.T) {
	_, ok := parseTranscriptRoll([]string{"18", "1d20 = 12 = 17"})
	assert.False(t, ok)
}

func TestTranscriptFlags(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{"Death Saving Throw", `{"dnd5e":{"roll":{"type":"death"}}}`},
		{"Wisdom Saving Throw", `{"dnd5e":{"roll":{"type":"save","abilityId":"wis"}}}`},
		{"Sleight of Hand Skill Check", `{"dnd5e":{"roll":{"type":"skill","skillId":"slt"}}}`},
		{"Strength Ability Check", `{"dnd5e":{"roll":{"type":"ability","abilityId":"str"}}}`},
		{"Dagger Attack Roll", `{"dnd5e":{"roll":{"type":"attack"}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			assert.JSONEq(t, tt.want, string(transcriptFlags(tt.content)))
		})
	}
	assert.Nil(t, transcriptFlags("just chatting"))
}

func TestJSONSource(t *testing.T) {
	p := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(p, []byte(`[{"user":"Alice","timestamp":5000,"content":"hi","rolls":["{}"]}]`), 0o644))

	src, err := Default(testLogger()).Open("json", Options{Path: p})
	require.NoError(t, err)
	recs, err := src.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Alice", recs[0].User)
	assert.Len(t, recs[0].Rolls, 1)
}

func TestRegistry(t *testing.T) {
	reg := Default(testLogger())

	var names []string
	for _, f := range reg.Formats() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"nedb", "zip", "leveldb", "transcript", "json"}, names)

	err := reg.Register(Format{Name: "nedb"})
	assert.Error(t, err)

	_, err = reg.Open("roll20", Options{})
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}
