package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"depsweep/internal/deps"
	"depsweep/internal/report"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS artifact_symbols (
			coordinates TEXT PRIMARY KEY,
			symbols JSON,
			updated_at INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS scans (
			id TEXT PRIMARY KEY,
			root TEXT,
			started_at INTEGER,
			duration_ms INTEGER,
			modules INTEGER,
			unused INTEGER,
			unresolved INTEGER,
			unparsable INTEGER,
			warnings JSON
		);`,
		`CREATE TABLE IF NOT EXISTS unused_dependencies (
			scan_id TEXT,
			position INTEGER,
			project TEXT,
			dependency_type TEXT,
			group_id TEXT,
			artifact_id TEXT,
			PRIMARY KEY (scan_id, position)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_scans_started ON scans(started_at);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// --- SymbolStore Implementation ---

func (s *SQLiteStore) LoadSymbols(ctx context.Context, coordinates string) (deps.SymbolSet, bool, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, "SELECT symbols FROM artifact_symbols WHERE coordinates = ?", coordinates).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load symbols for %s: %w", coordinates, err)
	}

	var symbols []string
	if err := json.Unmarshal(raw, &symbols); err != nil {
		return nil, false, fmt.Errorf("failed to decode symbols for %s: %w", coordinates, err)
	}
	return deps.NewSymbolSet(symbols...), true, nil
}

func (s *SQLiteStore) SaveSymbols(ctx context.Context, coordinates string, symbols deps.SymbolSet) error {
	raw, err := json.Marshal(symbols.Sorted())
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO artifact_symbols (coordinates, symbols, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(coordinates) DO UPDATE SET symbols=excluded.symbols, updated_at=excluded.updated_at
	`, coordinates, raw, time.Now().Unix())
	return err
}

// --- ScanStore Implementation ---

// SaveScan stores the report of a finished scan. scan.ID must be set, usually from NewScanID.
func (s *SQLiteStore) SaveScan(ctx context.Context, scan Scan, r *report.Report) error {
	if scan.ID == "" {
		return errors.New("scan id is required")
	}
	warnings, err := json.Marshal(r.Warnings)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO scans (id, root, started_at, duration_ms, modules, unused, unresolved, unparsable, warnings)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, scan.ID, scan.Root, scan.StartedAt.UnixMilli(), scan.Duration.Milliseconds(), scan.Modules,
		len(r.Rows), r.CountKind(report.UnresolvedDependency), r.CountKind(report.UnparsableSource), warnings); err != nil {
		return fmt.Errorf("failed to insert scan: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO unused_dependencies (scan_id, position, project, dependency_type, group_id, artifact_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, row := range r.Rows {
		if _, err := stmt.ExecContext(ctx, scan.ID, i, row.Project, string(row.DependencyType), row.GroupID, row.ArtifactID); err != nil {
			return fmt.Errorf("failed to insert row: %w", err)
		}
	}

	return tx.Commit()
}

// NewScanID returns a fresh scan identifier.
func NewScanID() string {
	return uuid.NewString()
}

const scanColumns = "id, root, started_at, duration_ms, modules, unused, unresolved, unparsable"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(rs rowScanner) (Scan, error) {
	var sc Scan
	var started, duration int64
	if err := rs.Scan(&sc.ID, &sc.Root, &started, &duration, &sc.Modules, &sc.Unused, &sc.Unresolved, &sc.Unparsable); err != nil {
		return Scan{}, err
	}
	sc.StartedAt = time.UnixMilli(started).UTC()
	sc.Duration = time.Duration(duration) * time.Millisecond
	return sc, nil
}

// ListScans returns the most recent scans first. A non-positive limit returns all of them.
func (s *SQLiteStore) ListScans(ctx context.Context, limit int) ([]Scan, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, "SELECT "+scanColumns+" FROM scans ORDER BY started_at DESC, id LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scans: %w", err)
	}
	defer rows.Close()

	var scans []Scan
	for rows.Next() {
		sc, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		scans = append(scans, sc)
	}
	return scans, rows.Err()
}

func (s *SQLiteStore) LoadScan(ctx context.Context, id string) (Scan, *report.Report, error) {
	var warnings []byte
	row := s.db.QueryRowContext(ctx, "SELECT "+scanColumns+", warnings FROM scans WHERE id = ?", id)

	var sc Scan
	var started, duration int64
	err := row.Scan(&sc.ID, &sc.Root, &started, &duration, &sc.Modules, &sc.Unused, &sc.Unresolved, &sc.Unparsable, &warnings)
	if errors.Is(err, sql.ErrNoRows) {
		return Scan{}, nil, fmt.Errorf("%w: %s", ErrScanNotFound, id)
	}
	if err != nil {
		return Scan{}, nil, err
	}
	sc.StartedAt = time.UnixMilli(started).UTC()
	sc.Duration = time.Duration(duration) * time.Millisecond

	r := &report.Report{Rows: []report.Row{}, Warnings: []report.Warning{}}
	if len(warnings) > 0 {
		if err := json.Unmarshal(warnings, &r.Warnings); err != nil {
			return Scan{}, nil, fmt.Errorf("failed to decode warnings: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT project, dependency_type, group_id, artifact_id
		FROM unused_dependencies WHERE scan_id = ? ORDER BY position
	`, id)
	if err != nil {
		return Scan{}, nil, fmt.Errorf("failed to query rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rr report.Row
		var typ string
		if err := rows.Scan(&rr.Project, &typ, &rr.GroupID, &rr.ArtifactID); err != nil {
			return Scan{}, nil, err
		}
		rr.DependencyType = deps.DependencyType(typ)
		r.Rows = append(r.Rows, rr)
	}
	return sc, r, rows.Err()
}
