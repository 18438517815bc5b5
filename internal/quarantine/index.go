package quarantine

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// Index mirrors quarantine record metadata into SQLite so records can
// be listed and filtered without walking the directory tree. The files
// on disk stay authoritative; the index is rebuildable.
type Index struct {
	db *sql.DB
}

// IndexEntry is one row of the quarantine index.
type IndexEntry struct {
	QuarantineID  string  `json:"quarantine_id"`
	ContentHash   string  `json:"content_hash"`
	CreatedAt     string  `json:"created_at"`
	SourceKind    string  `json:"source_kind"`
	RiskScore     float64 `json:"risk_score"`
	Reasons       string  `json:"reasons"`
	PolicyVersion string  `json:"policy_version"`
}

// OpenIndex opens or creates the index database at the given path.
func OpenIndex(dbPath string) (*Index, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open quarantine index: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	idx := &Index{db: db}
	if err := idx.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return idx, nil
}

func (i *Index) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS quarantine (
		quarantine_id TEXT PRIMARY KEY,
		content_hash TEXT NOT NULL,
		created_at TEXT NOT NULL,
		source_kind TEXT NOT NULL,
		risk_score REAL NOT NULL,
		reasons TEXT NOT NULL,
		policy_version TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_quarantine_created_at ON quarantine(created_at);
	CREATE INDEX IF NOT EXISTS idx_quarantine_source_kind ON quarantine(source_kind);
	`

	_, err := i.db.Exec(schema)
	return err
}

// Insert records one quarantine entry. Re-inserting the same id
// replaces the row, matching the store's idempotent Put.
func (i *Index) Insert(quarantineID string, rec Record) error {
	reasons, err := json.Marshal(rec.Reasons)
	if err != nil {
		reasons = []byte("[]")
	}
	_, err = i.db.Exec(`
		INSERT OR REPLACE INTO quarantine
		(quarantine_id, content_hash, created_at, source_kind, risk_score, reasons, policy_version)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		quarantineID,
		rec.ContentHash,
		rec.CreatedAt,
		string(rec.Source.Kind),
		rec.RiskScore,
		string(reasons),
		rec.PolicyVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to insert quarantine entry: %w", err)
	}
	return nil
}

// List returns entries newest first, optionally filtered by source
// kind, up to limit rows.
func (i *Index) List(sourceKind string, limit int) ([]IndexEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT quarantine_id, content_hash, created_at, source_kind, risk_score, reasons, policy_version
		FROM quarantine`
	args := []any{}
	if sourceKind != "" {
		query += " WHERE source_kind = ?"
		args = append(args, sourceKind)
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := i.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query quarantine index: %w", err)
	}
	defer rows.Close()

	var entries []IndexEntry
	for rows.Next() {
		var e IndexEntry
		if err := rows.Scan(
			&e.QuarantineID,
			&e.ContentHash,
			&e.CreatedAt,
			&e.SourceKind,
			&e.RiskScore,
			&e.Reasons,
			&e.PolicyVersion,
		); err != nil {
			return nil, fmt.Errorf("failed to scan quarantine entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of indexed entries.
func (i *Index) Count() (int, error) {
	var n int
	if err := i.db.QueryRow("SELECT COUNT(*) FROM quarantine").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count quarantine entries: %w", err)
	}
	return n, nil
}

// Close releases the underlying database handle.
func (i *Index) Close() error {
	return i.db.Close()
}
