// Package local serves decay lines from a pre-built SQLite table.
package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"fisdef/internal/decay"
	"fisdef/internal/logging"
	"fisdef/internal/nuclide"
)

// Store is a decay.Provider backed by a SQLite database file.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex // serializes writers; readers go straight to the pool
}

// Row is one table entry.
type Row struct {
	Nuclide   nuclide.ID
	Code      string // radiation code: a, bp, bm, g, e, x
	EnergyKeV float64
	Intensity float64 // fraction
}

// Open creates or opens the table at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.Get(logging.CategoryDecay).Debugf("failed to set sqlite busy_timeout: %v", err)
	}

	store := &Store{db: db, dbPath: path}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// OpenExisting opens a table that an earlier import created. It never
// creates a file or a schema; a missing file is reported as an error
// wrapping fs.ErrNotExist.
func OpenExisting(path string) (*Store, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("decay table %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("decay table %s is a directory", path)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.Get(logging.CategoryDecay).Debugf("failed to set sqlite busy_timeout: %v", err)
	}
	return &Store{db: db, dbPath: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS decay_lines (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		z INTEGER NOT NULL,
		a INTEGER NOT NULL,
		state INTEGER NOT NULL,
		radiation TEXT NOT NULL,
		energy_kev REAL NOT NULL,
		intensity REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_decay_lines_key ON decay_lines(z, a, state, radiation);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Lookup implements decay.Provider. Lines come back in insertion order, x-ray
// lines after gamma lines when both are selected.
func (s *Store) Lookup(ctx context.Context, id nuclide.ID, rad decay.RadiationType) ([]decay.Line, error) {
	codes := rad.Codes()
	if len(codes) == 0 {
		return nil, fmt.Errorf("unsupported radiation type %v", rad)
	}

	query := fmt.Sprintf(`
		SELECT energy_kev, intensity FROM decay_lines
		WHERE z = ? AND a = ? AND state = ? AND radiation IN (%s)
		ORDER BY CASE radiation %s END, seq`,
		placeholders(len(codes)), orderCases(codes))

	args := []any{id.Z, id.A, id.State}
	for _, c := range codes {
		args = append(args, c)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &decay.DataUnavailableError{Nuclide: id, Radiation: rad, Err: err}
	}
	defer rows.Close()

	var lines []decay.Line
	for rows.Next() {
		var l decay.Line
		if err := rows.Scan(&l.EnergyKeV, &l.Intensity); err != nil {
			return nil, &decay.DataUnavailableError{Nuclide: id, Radiation: rad, Err: err}
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, &decay.DataUnavailableError{Nuclide: id, Radiation: rad, Err: err}
	}

	if len(lines) == 0 {
		return nil, fmt.Errorf("%s %s: %w", id, rad, decay.ErrNotFound)
	}
	return lines, nil
}

// Put appends rows in one transaction.
func (s *Store) Put(ctx context.Context, rows []Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO decay_lines (z, a, state, radiation, energy_kev, intensity)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if !validCode(r.Code) {
			return fmt.Errorf("invalid radiation code %q for %s", r.Code, r.Nuclide)
		}
		if _, err := stmt.ExecContext(ctx, r.Nuclide.Z, r.Nuclide.A, r.Nuclide.State, r.Code, r.EnergyKeV, r.Intensity); err != nil {
			return fmt.Errorf("failed to insert %s line: %w", r.Nuclide, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Count returns the number of stored lines.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM decay_lines").Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return n, err
}

func validCode(code string) bool {
	for _, r := range decay.RadiationTypes {
		for _, c := range r.Codes() {
			if c == code {
				return true
			}
		}
	}
	return false
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func orderCases(codes []string) string {
	var b strings.Builder
	for i, c := range codes {
		fmt.Fprintf(&b, "WHEN '%s' THEN %d ", c, i)
	}
	return b.String()
}
