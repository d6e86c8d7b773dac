package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/teamcutter/unarc/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS extractions (
    id          TEXT PRIMARY KEY,
    archive     TEXT NOT NULL,
    destination TEXT NOT NULL,
    format      TEXT NOT NULL DEFAULT '',
    strip_root  INTEGER NOT NULL DEFAULT 1,
    status      TEXT NOT NULL DEFAULT 'pending',
    bytes       INTEGER NOT NULL DEFAULT 0,
    entries     INTEGER NOT NULL DEFAULT 0,
    error       TEXT NOT NULL DEFAULT '',
    owner_pid   INTEGER NOT NULL DEFAULT 0,
    owner_host  TEXT NOT NULL DEFAULT '',
    started_at  TEXT NOT NULL,
    finished_at TEXT
);
CREATE INDEX IF NOT EXISTS extractions_started_at ON extractions (started_at);
`

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type SQLiteJournal struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
}

func NewSQLite(dbPath string) (*SQLiteJournal, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	j := &SQLiteJournal{
		db:     db,
		dbPath: dbPath,
	}

	if err := j.upgrade(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to upgrade schema: %w", err)
	}

	if err := j.migrate(legacyPath(dbPath)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	if err := j.recover(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to recover: %w", err)
	}

	return j, nil
}

// upgrade adds columns introduced after a database was created.
func (j *SQLiteJournal) upgrade() error {
	rows, err := j.db.Query("SELECT name FROM pragma_table_info('extractions')")
	if err != nil {
		return err
	}
	have := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return err
		}
		have[name] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, col := range []struct{ name, def string }{
		{"owner_pid", "INTEGER NOT NULL DEFAULT 0"},
		{"owner_host", "TEXT NOT NULL DEFAULT ''"},
	} {
		if have[col.name] {
			continue
		}
		if _, err := j.db.Exec("ALTER TABLE extractions ADD COLUMN " + col.name + " " + col.def); err != nil {
			return err
		}
	}
	return nil
}

// legacyPath is where a JSON journal for the same base name would live.
func legacyPath(dbPath string) string {
	return dbPath[:len(dbPath)-len(filepath.Ext(dbPath))] + ".json"
}

// migrate imports a JSON journal into an empty database once and keeps the
// file as a .bak.
func (j *SQLiteJournal) migrate(jsonPath string) error {
	var count int
	if err := j.db.QueryRow("SELECT COUNT(*) FROM extractions").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	data, err := os.ReadFile(jsonPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read json journal: %w", err)
	}

	var file journalFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse json journal: %w", err)
	}

	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i := range file.Records {
		if err := insertRecord(tx, &file.Records[i]); err != nil {
			return fmt.Errorf("failed to insert %s: %w", file.Records[i].ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return os.Rename(jsonPath, jsonPath+".bak")
}

func (j *SQLiteJournal) recover() error {
	rows, err := j.db.Query("SELECT id, destination, owner_pid, owner_host FROM extractions WHERE status = ?", string(domain.StatusPending))
	if err != nil {
		return err
	}

	var pending []domain.Record
	for rows.Next() {
		var rec domain.Record
		if err := rows.Scan(&rec.ID, &rec.Destination, &rec.OwnerPID, &rec.OwnerHost); err != nil {
			rows.Close()
			return err
		}
		if reclaimable(rec) {
			pending = append(pending, rec)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	now := formatTime(time.Now())
	for _, rec := range pending {
		cleanup(rec)

		if _, err := j.db.Exec(
			"UPDATE extractions SET status = ?, error = ?, finished_at = ? WHERE id = ?",
			string(domain.StatusAbandoned), interrupted, now, rec.ID); err != nil {
			return fmt.Errorf("failed to abandon extraction %s: %w", rec.ID, err)
		}
	}

	return nil
}

func insertRecord(tx *sql.Tx, rec *domain.Record) error {
	var finished sql.NullString
	if rec.FinishedAt != nil {
		finished = sql.NullString{String: formatTime(*rec.FinishedAt), Valid: true}
	}

	_, err := tx.Exec(`
		INSERT OR REPLACE INTO extractions
		(id, archive, destination, format, strip_root, status, bytes, entries, error, owner_pid, owner_host, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Archive, rec.Destination, rec.Format, boolToInt(rec.StripRoot),
		string(rec.Status), rec.Bytes, rec.Entries, rec.Error, rec.OwnerPID, rec.OwnerHost,
		formatTime(rec.StartedAt), finished)
	return err
}

func (j *SQLiteJournal) Begin(rec *domain.Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	prepare(rec)

	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertRecord(tx, rec); err != nil {
		return err
	}

	return tx.Commit()
}

func (j *SQLiteJournal) Complete(id string, bytes, entries int64) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.finish(id, "UPDATE extractions SET status = ?, bytes = ?, entries = ?, finished_at = ? WHERE id = ?",
		string(domain.StatusCommitted), bytes, entries, formatTime(time.Now()), id)
}

func (j *SQLiteJournal) Fail(id string, cause error) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return j.finish(id, "UPDATE extractions SET status = ?, error = ?, finished_at = ? WHERE id = ?",
		string(domain.StatusFailed), msg, formatTime(time.Now()), id)
}

func (j *SQLiteJournal) finish(id, query string, args ...any) error {
	res, err := j.db.Exec(query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("extraction %s not found", id)
	}
	return nil
}

func (j *SQLiteJournal) Get(id string) (*domain.Record, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	rec, err := scanRecord(j.db.QueryRow(selectRecords+" WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("extraction %s not found", id)
	}
	return rec, err
}

// List returns the newest records first. limit <= 0 returns all of them.
func (j *SQLiteJournal) List(limit int) ([]domain.Record, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}

	rows, err := j.db.Query(selectRecords+" ORDER BY started_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}

	return records, rows.Err()
}

const selectRecords = `
	SELECT id, archive, destination, format, strip_root, status, bytes, entries, error, owner_pid, owner_host, started_at, finished_at
	FROM extractions`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*domain.Record, error) {
	var rec domain.Record
	var status, startedAt string
	var finishedAt sql.NullString
	var strip int

	if err := row.Scan(&rec.ID, &rec.Archive, &rec.Destination, &rec.Format, &strip,
		&status, &rec.Bytes, &rec.Entries, &rec.Error, &rec.OwnerPID, &rec.OwnerHost,
		&startedAt, &finishedAt); err != nil {
		return nil, err
	}

	rec.StripRoot = strip == 1
	rec.Status = domain.Status(status)
	started, err := time.Parse(timeLayout, startedAt)
	if err != nil {
		return nil, fmt.Errorf("extraction %s: bad started_at: %w", rec.ID, err)
	}
	rec.StartedAt = started
	if finishedAt.Valid {
		t, err := time.Parse(timeLayout, finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("extraction %s: bad finished_at: %w", rec.ID, err)
		}
		rec.FinishedAt = &t
	}

	return &rec, nil
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
