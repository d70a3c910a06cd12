package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/starfield-lab/astrobench/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS sweeps (
	id           TEXT PRIMARY KEY,
	status       TEXT NOT NULL DEFAULT 'running',
	scenes       TEXT NOT NULL,
	configs      TEXT NOT NULL,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at DATETIME
);

CREATE TABLE IF NOT EXISTS sweep_cells (
	id          TEXT PRIMARY KEY,
	sweep_id    TEXT NOT NULL REFERENCES sweeps(id),
	scene       TEXT NOT NULL,
	config      TEXT NOT NULL,
	failure     TEXT NOT NULL DEFAULT '',
	error       TEXT,
	stats       TEXT,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE(sweep_id, scene, config)
);

CREATE TABLE IF NOT EXISTS scene_cache (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	seed       TEXT NOT NULL,
	image_id   TEXT NOT NULL,
	pixels     BLOB,
	truth      TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at DATETIME NOT NULL,
	UNIQUE(name, seed)
);

CREATE INDEX IF NOT EXISTS idx_sweeps_status ON sweeps(status);
CREATE INDEX IF NOT EXISTS idx_sweep_cells_sweep_id ON sweep_cells(sweep_id);
CREATE INDEX IF NOT EXISTS idx_scene_cache_expires_at ON scene_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateSweep(ctx context.Context, scenes, configs []string) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	scenesJSON, err := json.Marshal(scenes)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal scenes")
	}
	configsJSON, err := json.Marshal(configs)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal configs")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sweeps (id, status, scenes, configs, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(SweepStatusRunning), string(scenesJSON), string(configsJSON), now,
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: insert sweep")
	}
	return id, nil
}

func (s *SQLiteStore) SaveCell(ctx context.Context, sweepID string, cell model.CellResult) error {
	var statsJSON sql.NullString
	if cell.Stats != nil {
		b, err := json.Marshal(cell.Stats)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal cell stats")
		}
		statsJSON = sql.NullString{String: string(b), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sweep_cells (id, sweep_id, scene, config, failure, error, stats, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(sweep_id, scene, config) DO UPDATE SET
			failure = excluded.failure,
			error = excluded.error,
			stats = excluded.stats,
			duration_ms = excluded.duration_ms`,
		uuid.New().String(), sweepID, cell.Key.Scene, cell.Key.Config,
		string(cell.Failure), cell.Error, statsJSON, cell.Duration.Milliseconds(),
	)
	return eris.Wrap(err, "sqlite: save cell")
}

func (s *SQLiteStore) CompleteSweep(ctx context.Context, sweepID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sweeps SET status = ?, completed_at = ? WHERE id = ?`,
		string(SweepStatusComplete), time.Now().UTC(), sweepID,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: complete sweep")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return eris.Errorf("sqlite: sweep %s not found", sweepID)
	}
	return nil
}

func (s *SQLiteStore) GetSweep(ctx context.Context, sweepID string) (*SweepRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, scenes, configs, created_at, completed_at FROM sweeps WHERE id = ?`,
		sweepID,
	)
	rec, err := scanSweep(row)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("sqlite: sweep %s not found", sweepID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get sweep")
	}
	return rec, nil
}

func (s *SQLiteStore) ListSweeps(ctx context.Context, filter SweepFilter) ([]SweepRecord, error) {
	query := `SELECT id, status, scenes, configs, created_at, completed_at FROM sweeps`
	var args []any
	if filter.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sweeps")
	}
	defer rows.Close()

	var records []SweepRecord
	for rows.Next() {
		rec, err := scanSweep(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan sweep")
		}
		records = append(records, *rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list sweeps rows")
}

func (s *SQLiteStore) ListCells(ctx context.Context, sweepID string) ([]model.CellResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT scene, config, failure, error, stats, duration_ms
		 FROM sweep_cells WHERE sweep_id = ? ORDER BY scene, config`,
		sweepID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list cells")
	}
	defer rows.Close()

	var cells []model.CellResult
	for rows.Next() {
		var (
			cell       model.CellResult
			failure    string
			errMsg     sql.NullString
			statsJSON  sql.NullString
			durationMs int64
		)
		if err := rows.Scan(&cell.Key.Scene, &cell.Key.Config, &failure, &errMsg, &statsJSON, &durationMs); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan cell")
		}
		cell.Failure = model.FailureKind(failure)
		cell.Error = errMsg.String
		cell.Duration = time.Duration(durationMs) * time.Millisecond
		if statsJSON.Valid {
			var stats model.ErrorStatistics
			if err := json.Unmarshal([]byte(statsJSON.String), &stats); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal cell stats")
			}
			cell.Stats = &stats
		}
		cells = append(cells, cell)
	}
	return cells, eris.Wrap(rows.Err(), "sqlite: list cells rows")
}

func (s *SQLiteStore) GetCachedScene(ctx context.Context, name string, seed uint64) (*model.Image, model.SourceTable, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT image_id, pixels, truth FROM scene_cache
		 WHERE name = ? AND seed = ? AND expires_at > ?`,
		name, strconv.FormatUint(seed, 10), time.Now().UTC(),
	)

	var (
		img       model.Image
		truthJSON string
	)
	err := row.Scan(&img.ID, &img.Data, &truthJSON)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, eris.Wrap(err, "sqlite: get cached scene")
	}

	var truth model.SourceTable
	if err := json.Unmarshal([]byte(truthJSON), &truth); err != nil {
		return nil, nil, eris.Wrap(err, "sqlite: unmarshal cached truth")
	}
	return &img, truth, nil
}

func (s *SQLiteStore) PutCachedScene(ctx context.Context, name string, seed uint64, img model.Image, truth model.SourceTable, ttl time.Duration) error {
	truthJSON, err := json.Marshal(truth)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal truth")
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scene_cache (id, name, seed, image_id, pixels, truth, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name, seed) DO UPDATE SET
			image_id = excluded.image_id,
			pixels = excluded.pixels,
			truth = excluded.truth,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at`,
		uuid.New().String(), name, strconv.FormatUint(seed, 10),
		img.ID, img.Data, string(truthJSON), now, now.Add(ttl),
	)
	return eris.Wrap(err, "sqlite: put cached scene")
}

func (s *SQLiteStore) DeleteExpiredScenes(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM scene_cache WHERE expires_at <= ?`, time.Now().UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired scenes")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: rows affected")
	}
	return int(n), nil
}

// scanner abstracts sql.Row and sql.Rows for scanSweep.
type scanner interface {
	Scan(dest ...any) error
}

func scanSweep(row scanner) (*SweepRecord, error) {
	var (
		rec         SweepRecord
		status      string
		scenesJSON  string
		configsJSON string
		completedAt sql.NullTime
	)
	if err := row.Scan(&rec.ID, &status, &scenesJSON, &configsJSON, &rec.CreatedAt, &completedAt); err != nil {
		return nil, err
	}
	rec.Status = SweepStatus(status)
	if err := json.Unmarshal([]byte(scenesJSON), &rec.Scenes); err != nil {
		return nil, eris.Wrap(err, "unmarshal scenes")
	}
	if err := json.Unmarshal([]byte(configsJSON), &rec.Configs); err != nil {
		return nil, eris.Wrap(err, "unmarshal configs")
	}
	if completedAt.Valid {
		t := completedAt.Time
		rec.CompletedAt = &t
	}
	return &rec, nil
}
