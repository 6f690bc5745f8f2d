// internal/state/sqlite.go
package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/tamzrod/bridge-vaults-exporter/internal/snapshot"
)

// SQLite keeps the last published snapshot on disk so a restarted
// process can serve it before its first cycle completes.
// Only the latest snapshot is kept; this is not a history store.
type SQLite struct {
	db  *sql.DB
	log *zap.Logger
}

// NewSQLite opens (or creates) the database at path and applies the schema.
// The caller must Close it on shutdown.
func NewSQLite(path string, log *zap.Logger) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("state: path required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("state: open %s: %w", path, err)
	}
	// one writer per process; avoids SQLITE_BUSY between pooled conns
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("state: ping %s: %w", path, err)
	}

	s := &SQLite{db: db, log: log}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	const stmt = `
CREATE TABLE IF NOT EXISTS snapshot_meta (
    id           INTEGER PRIMARY KEY CHECK (id = 1),
    generated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS snapshot_series (
    pos    INTEGER PRIMARY KEY,
    name   TEXT NOT NULL,
    labels TEXT NOT NULL,
    value  TEXT NOT NULL
);
`
	if _, err := s.db.Exec(stmt); err != nil {
		return fmt.Errorf("state: migrate: %w", err)
	}
	return nil
}

// Save replaces the stored snapshot in a single transaction.
// Values are stored as decimal text to keep full integer precision.
func (s *SQLite) Save(ctx context.Context, snap *snapshot.Snapshot) error {
	if snap == nil {
		return errors.New("state: nil snapshot")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("state: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_series`); err != nil {
		return fmt.Errorf("state: clear series: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshot_meta (id, generated_at) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET generated_at = excluded.generated_at`,
		snap.GeneratedAt.UnixNano(),
	); err != nil {
		return fmt.Errorf("state: write meta: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO snapshot_series (pos, name, labels, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("state: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, sv := range snap.Series {
		labels, err := json.Marshal(sv.Labels)
		if err != nil {
			return fmt.Errorf("state: encode labels of %s: %w", sv.Name, err)
		}
		value := "0"
		if sv.Value != nil {
			value = sv.Value.String()
		}
		if _, err := stmt.ExecContext(ctx, i, sv.Name, string(labels), value); err != nil {
			return fmt.Errorf("state: insert %s: %w", sv.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("state: commit: %w", err)
	}
	s.log.Debug("snapshot persisted",
		zap.Time("generated_at", snap.GeneratedAt),
		zap.Int("series", len(snap.Series)),
	)
	return nil
}

// Load returns the stored snapshot, or nil when nothing was saved yet.
func (s *SQLite) Load(ctx context.Context) (*snapshot.Snapshot, error) {
	var nanos int64
	err := s.db.QueryRowContext(ctx,
		`SELECT generated_at FROM snapshot_meta WHERE id = 1`).Scan(&nanos)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("state: read meta: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, labels, value FROM snapshot_series ORDER BY pos`)
	if err != nil {
		return nil, fmt.Errorf("state: query series: %w", err)
	}
	defer rows.Close()

	var series []snapshot.SeriesValue
	for rows.Next() {
		var name, labels, value string
		if err := rows.Scan(&name, &labels, &value); err != nil {
			return nil, fmt.Errorf("state: scan series: %w", err)
		}

		sv := snapshot.SeriesValue{Name: name}
		if err := json.Unmarshal([]byte(labels), &sv.Labels); err != nil {
			return nil, fmt.Errorf("state: decode labels of %s: %w", name, err)
		}
		v, ok := new(big.Int).SetString(value, 10)
		if !ok {
			return nil, fmt.Errorf("state: bad value %q for %s", value, name)
		}
		sv.Value = v
		series = append(series, sv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("state: iterate series: %w", err)
	}

	return snapshot.New(time.Unix(0, nanos), series), nil
}

// Close releases the database.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
