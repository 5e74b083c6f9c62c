// Package history records finished captures in a local SQLite database so
// operators can see what was downloaded from which meter and when.
package history

import (
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/NotCoffee418/dbmigrator"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Capture is one recorded download.
type Capture struct {
	ID          int64
	CapturedAt  time.Time
	Device      string
	MeterSerial string
	FileVersion string
	Readings    int
	TotalBytes  int
	Path        string
}

// Store wraps the capture database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies pending
// migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open history db: %w", err)
	}

	dbmigrator.SetDatabaseType(dbmigrator.SQLite)
	<-dbmigrator.MigrateUpCh(db, migrationFS, "migrations")

	return &Store{db: db}, nil
}

// Record inserts one capture row.
func (s *Store) Record(c Capture) error {
	_, err := s.db.Exec(`
		INSERT INTO captures
			(captured_at, device, meter_serial, file_version, readings, total_bytes, path)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.CapturedAt.UTC().Format(time.RFC3339),
		c.Device, c.MeterSerial, c.FileVersion,
		c.Readings, c.TotalBytes, c.Path)
	if err != nil {
		return fmt.Errorf("record capture: %w", err)
	}
	return nil
}

// Recent returns up to limit captures, newest first.
func (s *Store) Recent(limit int) ([]Capture, error) {
	rows, err := s.db.Query(`
		SELECT id, captured_at, device, meter_serial, file_version, readings, total_bytes, path
		FROM captures
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query captures: %w", err)
	}
	defer rows.Close()

	var out []Capture
	for rows.Next() {
		var c Capture
		var ts string
		if err := rows.Scan(&c.ID, &ts, &c.Device, &c.MeterSerial,
			&c.FileVersion, &c.Readings, &c.TotalBytes, &c.Path); err != nil {
			return nil, fmt.Errorf("scan capture: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			c.CapturedAt = t
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
