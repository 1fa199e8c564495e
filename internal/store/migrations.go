package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create runs and run metrics",
		SQL: `
			CREATE TABLE runs (
				id             TEXT PRIMARY KEY,
				world          TEXT NOT NULL,
				source_format  TEXT NOT NULL DEFAULT '',
				source_path    TEXT NOT NULL DEFAULT '',
				players        TEXT NOT NULL DEFAULT '[]',
				records        INTEGER NOT NULL DEFAULT 0,
				messages       INTEGER NOT NULL DEFAULT 0,
				created_at     TEXT NOT NULL
			);

			CREATE INDEX idx_runs_world ON runs (world, created_at);

			CREATE TABLE run_metrics (
				run_id    TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
				period    TEXT NOT NULL,
				position  INTEGER NOT NULL,
				slice     TEXT NOT NULL,
				metric    TEXT NOT NULL,
				value     REAL NOT NULL,
				PRIMARY KEY (run_id, period, slice, metric)
			);
		`,
	},
	{
		Version: 2,
		Name:    "previous session bounds and metric lookup",
		SQL: `
			ALTER TABLE runs ADD COLUMN session_start TEXT;
			ALTER TABLE runs ADD COLUMN session_end TEXT;
			ALTER TABLE runs ADD COLUMN session_count INTEGER NOT NULL DEFAULT 0;

			CREATE INDEX idx_run_metrics_metric ON run_metrics (metric, slice, period);
		`,
	},
}
