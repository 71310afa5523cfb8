package download

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// completedLayout is fixed width so completed_utc sorts as text.
const completedLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Record is one completed download.
type Record struct {
	DocumentID string
	Name       string
	URL        string
	Path       string
	Size       int64
	MIME       string
	SHA256     string
	Completed  time.Time
}

// Ledger keeps the history of completed downloads in sqlite.
type Ledger struct {
	db *sql.DB
}

// OpenLedger opens (or creates) the ledger at dbPath.
func OpenLedger(dbPath string) (*Ledger, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// One writer keeps WAL simple for a single-user client.
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		db.Close()
		return nil, err
	}
	return &Ledger{db: db}, nil
}

func initSchema(db *sql.DB) error {
	ddl := `
CREATE TABLE IF NOT EXISTS downloads (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	document_id   TEXT NOT NULL,
	name          TEXT NOT NULL,
	url           TEXT NOT NULL,
	path          TEXT NOT NULL,
	size          INTEGER,
	mime          TEXT,
	sha256        TEXT,
	completed_utc TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_downloads_completed ON downloads(completed_utc);
`
	_, err := db.Exec(ddl)
	return err
}

// Add stores a completed download.
func (l *Ledger) Add(r Record) error {
	_, err := l.db.Exec(`
		INSERT INTO downloads(document_id, name, url, path, size, mime, sha256, completed_utc)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)
	`, r.DocumentID, r.Name, r.URL, r.Path, r.Size, r.MIME, r.SHA256, r.Completed.UTC().Format(completedLayout))
	return err
}

// Recent returns up to limit downloads, newest first.
func (l *Ledger) Recent(limit int) ([]Record, error) {
	rows, err := l.db.Query(`
		SELECT document_id, name, url, path, size, mime, sha256, completed_utc
		FROM downloads
		ORDER BY completed_utc DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r         Record
			mime, sum sql.NullString
			completed string
		)
		if err := rows.Scan(&r.DocumentID, &r.Name, &r.URL, &r.Path, &r.Size, &mime, &sum, &completed); err != nil {
			return nil, err
		}
		r.MIME = mime.String
		r.SHA256 = sum.String
		r.Completed, _ = time.Parse(time.RFC3339Nano, completed)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}
