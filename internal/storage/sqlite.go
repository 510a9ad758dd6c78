package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/predicate/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS candidates (
		k_number TEXT PRIMARY KEY,
		product_code TEXT NOT NULL,
		device_name TEXT,
		applicant TEXT,
		clearance_date TEXT,
		decision_text TEXT,
		summary_text TEXT,
		recalls_total INTEGER NOT NULL DEFAULT 0,
		maude_classification TEXT,
		clinical_history TEXT,
		acceptability TEXT,
		api_validated INTEGER NOT NULL DEFAULT 0,
		special_controls INTEGER,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_candidates_product_code ON candidates(product_code);

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		product_code TEXT NOT NULL,
		result TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);

	CREATE TABLE IF NOT EXISTS imports (
		path TEXT PRIMARY KEY,
		fingerprint TEXT NOT NULL,
		kind TEXT NOT NULL,
		imported_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(schema)
	return err
}

const upsertCandidateSQL = `
	INSERT INTO candidates (k_number, product_code, device_name, applicant, clearance_date,
		decision_text, summary_text, recalls_total, maude_classification, clinical_history,
		acceptability, api_validated, special_controls, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(k_number) DO UPDATE SET
		product_code = excluded.product_code,
		device_name = excluded.device_name,
		applicant = excluded.applicant,
		clearance_date = excluded.clearance_date,
		decision_text = excluded.decision_text,
		summary_text = CASE WHEN excluded.summary_text = '' THEN candidates.summary_text ELSE excluded.summary_text END,
		recalls_total = excluded.recalls_total,
		maude_classification = excluded.maude_classification,
		clinical_history = excluded.clinical_history,
		acceptability = excluded.acceptability,
		api_validated = excluded.api_validated,
		special_controls = excluded.special_controls,
		updated_at = excluded.updated_at`

const candidateColumns = `k_number, product_code, device_name, applicant, clearance_date,
	decision_text, summary_text, recalls_total, maude_classification, clinical_history,
	acceptability, api_validated, special_controls`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertCandidate(ctx context.Context, db execer, c *models.CandidateDevice, now time.Time) error {
	var special sql.NullBool
	if c.SpecialControls != nil {
		special = sql.NullBool{Bool: *c.SpecialControls, Valid: true}
	}
	_, err := db.ExecContext(ctx, upsertCandidateSQL,
		strings.TrimSpace(c.KNumber), strings.ToUpper(strings.TrimSpace(c.ProductCode)),
		c.DeviceName, c.Applicant, c.ClearanceDate, c.DecisionText, c.SummaryText,
		c.RecallsTotal, string(c.MAUDEClassification), string(c.ClinicalHistory),
		string(c.Acceptability), c.APIValidated, special, now, now,
	)
	return err
}

// UpsertCandidate inserts or replaces a candidate. An existing summary is kept when the
// new record carries none.
func (s *SQLiteStorage) UpsertCandidate(ctx context.Context, c *models.CandidateDevice) error {
	if err := upsertCandidate(ctx, s.db, c, time.Now()); err != nil {
		return fmt.Errorf("failed to upsert candidate %s: %w", c.KNumber, err)
	}
	return nil
}

// UpsertCandidates stores a batch of candidates in one transaction and returns how many were written.
func (s *SQLiteStorage) UpsertCandidates(ctx context.Context, cs []models.CandidateDevice) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	now := time.Now()
	for i := range cs {
		if err := upsertCandidate(ctx, tx, &cs[i], now); err != nil {
			return 0, fmt.Errorf("failed to upsert candidate %s: %w", cs[i].KNumber, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(cs), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row scanner) (*models.CandidateDevice, error) {
	var (
		c                                        models.CandidateDevice
		name, applicant, date, decision, summary sql.NullString
		maude, clinical, acceptability           sql.NullString
		special                                  sql.NullBool
	)
	err := row.Scan(&c.KNumber, &c.ProductCode, &name, &applicant, &date, &decision, &summary,
		&c.RecallsTotal, &maude, &clinical, &acceptability, &c.APIValidated, &special)
	if err != nil {
		return nil, err
	}
	c.DeviceName = name.String
	c.Applicant = applicant.String
	c.ClearanceDate = date.String
	c.DecisionText = decision.String
	c.SummaryText = summary.String
	c.MAUDEClassification = models.MAUDEClassification(maude.String)
	c.ClinicalHistory = models.ClinicalHistory(clinical.String)
	c.Acceptability = models.Acceptability(acceptability.String)
	if special.Valid {
		v := special.Bool
		c.SpecialControls = &v
	}
	return &c, nil
}

// GetCandidate returns a candidate by clearance number.
func (s *SQLiteStorage) GetCandidate(ctx context.Context, kNumber string) (*models.CandidateDevice, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE k_number = ?`, kNumber)
	c, err := scanCandidate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("candidate %s: %w", kNumber, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCandidate removes a candidate by clearance number.
func (s *SQLiteStorage) DeleteCandidate(ctx context.Context, kNumber string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM candidates WHERE k_number = ?`, kNumber)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("candidate %s: %w", kNumber, ErrNotFound)
	}
	return nil
}

// SetSummaryText replaces the 510(k) summary text of an existing candidate.
func (s *SQLiteStorage) SetSummaryText(ctx context.Context, kNumber, text string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE candidates SET summary_text = ?, updated_at = ? WHERE k_number = ?`,
		text, time.Now(), kNumber,
	)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("candidate %s: %w", kNumber, ErrNotFound)
	}
	return nil
}

// ListCandidatesByProductCode returns all candidates with the product code, case-insensitively,
// ordered by clearance number.
func (s *SQLiteStorage) ListCandidatesByProductCode(ctx context.Context, productCode string) ([]models.CandidateDevice, error) {
	return s.queryCandidates(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE product_code = ? ORDER BY k_number`,
		strings.ToUpper(strings.TrimSpace(productCode)),
	)
}

// ListCandidates returns candidates ordered by clearance number with offset and limit.
func (s *SQLiteStorage) ListCandidates(ctx context.Context, offset, limit int) ([]models.CandidateDevice, error) {
	return s.queryCandidates(ctx,
		`SELECT `+candidateColumns+` FROM candidates ORDER BY k_number LIMIT ? OFFSET ?`,
		limit, offset,
	)
}

func (s *SQLiteStorage) queryCandidates(ctx context.Context, query string, args ...any) ([]models.CandidateDevice, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.CandidateDevice{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// SaveRun persists a recommendation result. A missing ID is assigned a new UUID and a
// zero CreatedAt is set to now.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run *models.Run) error {
	if run.Result == nil {
		return fmt.Errorf("run has no result")
	}
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(run.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, product_code, result, created_at) VALUES (?, ?, ?, ?)`,
		run.ID, strings.ToUpper(run.Result.Subject.ProductCode), string(data), run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRun returns a persisted run by ID.
func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (*models.Run, error) {
	var (
		run  models.Run
		data string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, result, created_at FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &data, &run.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	run.Result = &models.RecommendationResult{}
	if err := json.Unmarshal([]byte(data), run.Result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &run, nil
}

// ImportFingerprint returns the fingerprint recorded for path, or "" if the file was never imported.
func (s *SQLiteStorage) ImportFingerprint(ctx context.Context, path string) (string, error) {
	var fp string
	err := s.db.QueryRowContext(ctx, `SELECT fingerprint FROM imports WHERE path = ?`, path).Scan(&fp)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return fp, err
}

// RecordImport stores the fingerprint of a successfully imported file.
func (s *SQLiteStorage) RecordImport(ctx context.Context, path, fingerprint, kind string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO imports (path, fingerprint, kind, imported_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			kind = excluded.kind,
			imported_at = excluded.imported_at`,
		path, fingerprint, kind, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record import: %w", err)
	}
	return nil
}

// CountCandidates returns the total number of candidates.
func (s *SQLiteStorage) CountCandidates(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM candidates`).Scan(&count)
	return count, err
}

// CountRuns returns the total number of persisted runs.
func (s *SQLiteStorage) CountRuns(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
