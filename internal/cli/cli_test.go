package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "silent"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeExport(t *testing.T) string {
	t.Helper()
	start := time.Date(2024, 5, 4, 18, 0, 0, 0, time.UTC)
	var recs []map[string]any
	for i := range 12 {
		user := "Alice"
		if i%3 == 0 {
			user = "Gamemaster"
		}
		roll := fmt.Sprintf(`{"class":"Roll","formula":"1d20","total":%d,"terms":[{"class":"Die","number":1,"faces":20,"results":[{"result":%d,"active":true}]}]}`, i+1, i+1)
		recs = append(recs, map[string]any{
			"user":      user,
			"timestamp": start.Add(time.Duration(i) * time.Minute).UnixMilli(),
			"content":   "",
			"rolls":     []json.RawMessage{json.RawMessage(roll)},
		})
	}
	data, err := json.Marshal(recs)
	require.NoError(t, err)
	p := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, os.WriteFile(p, data, 0o600))
	return p
}

func TestVersionCmd(t *testing.T) {
	t.Setenv("D20STATS_HOME", t.TempDir())
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "d20stats")
}

func TestReportAndHistory(t *testing.T) {
	home := t.TempDir()
	t.Setenv("D20STATS_HOME", home)
	export := writeExport(t)
	outDir := filepath.Join(home, "public")

	out, err := run(t, "report", "--world", "greyhawk", "--player", "Alice",
		"--source", "json", "--path", export, "--out", outDir,
		"--output", "json,json-v2,sqlite,table")
	require.NoError(t, err)
	assert.Contains(t, out, "Reported 4 slices from 12 messages (1 sessions)")
	assert.FileExists(t, filepath.Join(outDir, "greyhawk_data.json"))
	assert.FileExists(t, filepath.Join(outDir, "greyhawk_data_v2.json"))
	assert.Contains(t, out, "saved run")

	out, err = run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "greyhawk")

	out, err = run(t, "history", "show", "--world", "greyhawk")
	require.NoError(t, err)
	assert.Contains(t, out, "Alice")

	out, err = run(t, "history", "metric", "d20_roll_count", "--world", "greyhawk")
	require.NoError(t, err)
	assert.Contains(t, out, "12")
}

func TestReportRequiresPath(t *testing.T) {
	t.Setenv("D20STATS_HOME", t.TempDir())
	_, err := run(t, "report", "--world", "greyhawk")
	assert.ErrorContains(t, err, "no source path")
}

func TestSessionsCmd(t *testing.T) {
	t.Setenv("D20STATS_HOME", t.TempDir())
	export := writeExport(t)

	out, err := run(t, "sessions", "--source", "json", "--path", export, "--json")
	require.NoError(t, err)

	var rows []sessionRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, 12, rows[0].Messages)
	assert.True(t, rows[0].Qualifying)
	assert.True(t, rows[0].Previous)
}

func TestSourcesCmd(t *testing.T) {
	t.Setenv("D20STATS_HOME", t.TempDir())
	out, err := run(t, "sources")
	require.NoError(t, err)
	for _, name := range []string{"nedb", "zip", "leveldb", "transcript", "json", "xlsx", "sqlite"} {
		assert.Contains(t, out, name)
	}
}

func TestConfigCommands(t *testing.T) {
	home := t.TempDir()
	t.Setenv("D20STATS_HOME", home)

	out, err := run(t, "config", "path")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(home, "config.yaml"))

	_, err = run(t, "config", "init")
	require.NoError(t, err)
	_, err = run(t, "config", "init")
	assert.Error(t, err)

	_, err = run(t, "config", "set", "world", "greyhawk")
	require.NoError(t, err)
	_, err = run(t, "config", "set", "players", "Alice, Bob")
	require.NoError(t, err)

	out, err = run(t, "config", "get", "players")
	require.NoError(t, err)
	assert.Contains(t, out, "- Alice")
	assert.Contains(t, out, "- Bob")

	out, err = run(t, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Config is valid")

	out, err = run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "World:   greyhawk")

	_, err = run(t, "config", "unset", "world")
	require.NoError(t, err)
	_, err = run(t, "config", "get", "world")
	assert.Error(t, err)
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		key, in string
		want    any
	}{
		{"server.port", "8080", 8080},
		{"server.watch", "true", true},
		{"session.gap", "12h", "12h"},
		{"stats.ratio", "0.5", 0.5},
		{"players", "Alice,Bob", []any{"Alice", "Bob"}},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, parseValue(tt.key, tt.in))
		})
	}
}
