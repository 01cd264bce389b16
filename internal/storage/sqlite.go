package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"samsonjenkins/internal/logger"
	"samsonjenkins/internal/storage/models"
)

const timestampFormat = "2006-01-02 15:04:05.000000"

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("job run not found")

// Store persists job-run records in SQLite
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (and creates if needed) the SQLite database at dbPath
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=ON")
	if err != nil {
		return nil, err
	}

	// SQLite doesn't support multiple writers, but we can optimize for concurrent reads
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db, now: time.Now}
	if err = s.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("Database initialized successfully", "path", dbPath)
	return s, nil
}

// createTables creates the necessary database tables
func (s *Store) createTables() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS jenkins_jobs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		deploy_id INTEGER NOT NULL,
		jenkins_job_id INTEGER,
		status TEXT,
		error TEXT,
		url TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS index_jenkins_jobs_on_deploy_id ON jenkins_jobs (deploy_id);
	CREATE INDEX IF NOT EXISTS index_jenkins_jobs_on_jenkins_job_id ON jenkins_jobs (jenkins_job_id);
	`)
	return err
}

// CreateJobRun inserts run and fills in its ID and timestamps. A run has
// either a Jenkins id or a status with an error message, never both.
func (s *Store) CreateJobRun(ctx context.Context, run *models.JobRun) error {
	if run.Name == "" {
		return fmt.Errorf("job run name is required")
	}
	if run.Started() == (run.Status != "") {
		return fmt.Errorf("job run %s needs exactly one of jenkins id or status", run.Name)
	}
	run.Error = models.TruncateError(run.Error)

	now := s.now().UTC()
	run.CreatedAt, run.UpdatedAt = now, now
	ts := now.Format(timestampFormat)

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO jenkins_jobs (name, deploy_id, jenkins_job_id, status, error, url, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Name,
		run.DeployID,
		run.JenkinsID,
		nullString(run.Status),
		nullString(run.Error),
		nullString(run.URL),
		ts,
		ts,
	)
	if err != nil {
		logger.Error("Failed to insert job run", "job", run.Name, "error", err)
		return err
	}

	run.ID, err = res.LastInsertId()
	return err
}

// GetJobRun returns the record with the given id
func (s *Store) GetJobRun(ctx context.Context, id int64) (*models.JobRun, error) {
	row := s.db.QueryRowContext(ctx, selectJobRuns+` WHERE id = ?`, id)
	run, err := scanJobRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return run, err
}

// ListJobRunsByDeploy returns the records of a deploy in creation order
func (s *Store) ListJobRunsByDeploy(ctx context.Context, deployID int64) ([]models.JobRun, error) {
	rows, err := s.db.QueryContext(ctx, selectJobRuns+` WHERE deploy_id = ? ORDER BY id ASC`, deployID)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// ListJobRuns retrieves records with pagination, newest first
func (s *Store) ListJobRuns(ctx context.Context, limit, offset int) ([]models.JobRun, error) {
	rows, err := s.db.QueryContext(ctx, selectJobRuns+` ORDER BY id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

const selectJobRuns = `SELECT id, name, deploy_id, jenkins_job_id, status, error, url, created_at, updated_at FROM jenkins_jobs`

type scanner interface {
	Scan(dest ...any) error
}

func scanJobRun(row scanner) (*models.JobRun, error) {
	var (
		run                  models.JobRun
		jenkinsID            sql.NullInt64
		status, errMsg, url  sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&run.ID, &run.Name, &run.DeployID, &jenkinsID, &status, &errMsg, &url, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if jenkinsID.Valid {
		id := int(jenkinsID.Int64)
		run.JenkinsID = &id
	}
	run.Status = status.String
	run.Error = errMsg.String
	run.URL = url.String
	run.CreatedAt = parseTimestamp(createdAt)
	run.UpdatedAt = parseTimestamp(updatedAt)
	return &run, nil
}

func collect(rows *sql.Rows) ([]models.JobRun, error) {
	defer rows.Close()

	var runs []models.JobRun
	for rows.Next() {
		run, err := scanJobRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// parseTimestamp accepts timestamps with and without microseconds
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{timestampFormat, "2006-01-02 15:04:05", time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
