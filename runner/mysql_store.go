package runner

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-sql-driver/mysql"

	"formprobe/evidence"
	"formprobe/metadata"
)

// MySQLStore persists runs, evidence metadata, and form descriptors in
// MySQL. Run payloads are stored as JSON next to the indexed columns, so the
// schema stays stable as the run model grows.
type MySQLStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewMySQLStore connects to MySQL and creates the schema if needed. The DSN
// is normalized to parse DATETIME columns into time.Time.
func NewMySQLStore(dsn string, logger *slog.Logger) (*MySQLStore, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql dsn: %w", err)
	}
	cfg.ParseTime = true

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping mysql server: %w", err)
	}

	s := &MySQLStore{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("connected to mysql store", "addr", cfg.Addr, "database", cfg.DBName)
	return s, nil
}

// Close releases the connection pool.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}

func (s *MySQLStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id CHAR(36) PRIMARY KEY,
			form_id VARCHAR(255) NOT NULL,
			status VARCHAR(16) NOT NULL,
			payload MEDIUMTEXT NOT NULL,
			created_at DATETIME(6) NOT NULL,
			INDEX idx_runs_form (form_id),
			INDEX idx_runs_created (created_at)
		)`,
		`CREATE TABLE IF NOT EXISTS run_evidence (
			id CHAR(36) PRIMARY KEY,
			run_id CHAR(36) NOT NULL,
			kind VARCHAR(16) NOT NULL,
			path TEXT NOT NULL,
			size BIGINT NOT NULL,
			captured_at DATETIME(6) NOT NULL,
			INDEX idx_evidence_run (run_id),
			INDEX idx_evidence_captured (captured_at)
		)`,
		`CREATE TABLE IF NOT EXISTS forms (
			id VARCHAR(255) PRIMARY KEY,
			page_url TEXT NOT NULL,
			fields MEDIUMTEXT NOT NULL,
			created_at DATETIME(6) NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// CreateRun persists a new run.
func (s *MySQLStore) CreateRun(run *Run) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to encode run: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO runs (id, form_id, status, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.FormID, string(run.Status), payload, run.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// Run returns the run with the given id.
func (s *MySQLStore) Run(id string) (*Run, error) {
	var payload []byte
	err := s.db.QueryRow(`SELECT payload FROM runs WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	return decodeRun(payload)
}

// Runs returns all runs, newest first.
func (s *MySQLStore) Runs() ([]*Run, error) {
	return s.queryRuns(`SELECT payload FROM runs ORDER BY created_at DESC`)
}

// RunsByForm returns the runs for one form, newest first.
func (s *MySQLStore) RunsByForm(formID string) ([]*Run, error) {
	return s.queryRuns(`SELECT payload FROM runs WHERE form_id = ? ORDER BY created_at DESC`, formID)
}

func (s *MySQLStore) queryRuns(query string, args ...any) ([]*Run, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var result []*Run
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		run, err := decodeRun(payload)
		if err != nil {
			return nil, err
		}
		result = append(result, run)
	}
	return result, rows.Err()
}

// UpdateRun replaces the stored record for run.ID.
func (s *MySQLStore) UpdateRun(run *Run) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to encode run: %w", err)
	}
	res, err := s.db.Exec(
		`UPDATE runs SET status = ?, payload = ? WHERE id = ?`,
		string(run.Status), payload, run.ID)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		// The payload may be byte-identical on repeated saves; distinguish
		// a missing row from an unchanged one.
		var exists bool
		if err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM runs WHERE id = ?)`, run.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check run existence: %w", err)
		}
		if !exists {
			return ErrRunNotFound
		}
	}
	return nil
}

// DeleteRun removes a terminal run and its evidence rows.
func (s *MySQLStore) DeleteRun(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRow(`SELECT status FROM runs WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRunNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to query run status: %w", err)
	}
	if !Status(status).Terminal() {
		return fmt.Errorf("%w: %s is %s", ErrRunActive, id, status)
	}

	if _, err := tx.Exec(`DELETE FROM run_evidence WHERE run_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete evidence rows: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM runs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return tx.Commit()
}

// AddEvidence records captured evidence metadata.
func (s *MySQLStore) AddEvidence(rec evidence.Record) error {
	_, err := s.db.Exec(
		`INSERT INTO run_evidence (id, run_id, kind, path, size, captured_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.RunID, string(rec.Kind), rec.Path, rec.Size, rec.CapturedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert evidence record: %w", err)
	}
	return nil
}

// EvidenceByRun returns the evidence records for a run, oldest first.
func (s *MySQLStore) EvidenceByRun(runID string) ([]evidence.Record, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, kind, path, size, captured_at FROM run_evidence
		 WHERE run_id = ? ORDER BY captured_at ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query evidence: %w", err)
	}
	defer rows.Close()
	return scanEvidence(rows)
}

// PruneEvidence removes evidence rows captured before the cutoff that belong
// to terminal runs, returning the removed records.
func (s *MySQLStore) PruneEvidence(cutoff time.Time) ([]evidence.Record, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(
		`SELECT e.id, e.run_id, e.kind, e.path, e.size, e.captured_at
		 FROM run_evidence e JOIN runs r ON r.id = e.run_id
		 WHERE e.captured_at < ? AND r.status IN ('completed', 'failed')`,
		cutoff.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query expired evidence: %w", err)
	}
	records, err := scanEvidence(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, tx.Commit()
	}

	for _, rec := range records {
		if _, err := tx.Exec(`DELETE FROM run_evidence WHERE id = ?`, rec.ID); err != nil {
			return nil, fmt.Errorf("failed to delete evidence row: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit prune: %w", err)
	}
	return records, nil
}

// CreateForm registers or replaces a form's descriptor document.
func (s *MySQLStore) CreateForm(doc *metadata.Document) error {
	fields, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("failed to encode fields: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO forms (id, page_url, fields, created_at) VALUES (?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE page_url = VALUES(page_url), fields = VALUES(fields)`,
		doc.FormID, doc.PageURL, fields, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert form: %w", err)
	}
	return nil
}

// Form returns the descriptor document for a form id.
func (s *MySQLStore) Form(id string) (*metadata.Document, error) {
	var pageURL string
	var fields []byte
	err := s.db.QueryRow(`SELECT page_url, fields FROM forms WHERE id = ?`, id).Scan(&pageURL, &fields)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFormNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query form: %w", err)
	}
	return decodeForm(id, pageURL, fields)
}

// Forms returns all registered forms.
func (s *MySQLStore) Forms() ([]*metadata.Document, error) {
	rows, err := s.db.Query(`SELECT id, page_url, fields FROM forms ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query forms: %w", err)
	}
	defer rows.Close()

	var result []*metadata.Document
	for rows.Next() {
		var id, pageURL string
		var fields []byte
		if err := rows.Scan(&id, &pageURL, &fields); err != nil {
			return nil, fmt.Errorf("failed to scan form row: %w", err)
		}
		doc, err := decodeForm(id, pageURL, fields)
		if err != nil {
			return nil, err
		}
		result = append(result, doc)
	}
	return result, rows.Err()
}

func decodeRun(payload []byte) (*Run, error) {
	var run Run
	if err := json.Unmarshal(payload, &run); err != nil {
		return nil, fmt.Errorf("failed to decode run payload: %w", err)
	}
	return &run, nil
}

func decodeForm(id, pageURL string, fields []byte) (*metadata.Document, error) {
	doc := &metadata.Document{FormID: id, PageURL: pageURL}
	if err := json.Unmarshal(fields, &doc.Fields); err != nil {
		return nil, fmt.Errorf("failed to decode form fields: %w", err)
	}
	return doc, nil
}

func scanEvidence(rows *sql.Rows) ([]evidence.Record, error) {
	var result []evidence.Record
	for rows.Next() {
		var rec evidence.Record
		var kind string
		if err := rows.Scan(&rec.ID, &rec.RunID, &kind, &rec.Path, &rec.Size, &rec.CapturedAt); err != nil {
			return nil, fmt.Errorf("failed to scan evidence row: %w", err)
		}
		rec.Kind = evidence.Kind(kind)
		result = append(result, rec)
	}
	return result, rows.Err()
}
