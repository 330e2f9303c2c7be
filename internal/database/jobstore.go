package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/privacyscan/internal/model"
)

// fileName is the name of the database file inside the database directory.
const fileName = "privacyscan.db"

// JobStore provides SQLite-based storage for analysis jobs.
// It satisfies pipeline.JobStore.
type JobStore struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures JobStore behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a JobStore in dbDir.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*JobStore, error) {
	dbPath := filepath.Join(dbDir, fileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	store := &JobStore{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := store.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *JobStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *JobStore) Path() string {
	return s.dbPath
}

func (s *JobStore) createTables() error {
	schema := `
	-- One row per target URL; a forced scan overwrites it
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		status TEXT NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		attempts INTEGER NOT NULL DEFAULT 0,
		report_json TEXT,
		cookie_summary TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
	CREATE INDEX IF NOT EXISTS idx_jobs_updated ON jobs(updated_at);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// SaveJob inserts or replaces the job with the same ID.
// The report, when present, is stored as JSON alongside a cookie summary
// so that listings do not need to decode full reports.
func (s *JobStore) SaveJob(ctx context.Context, job *model.Job) error {
	var reportJSON, summaryJSON sql.NullString
	if job.Report != nil {
		data, err := json.Marshal(job.Report)
		if err != nil {
			return fmt.Errorf("failed to serialize report: %w", err)
		}
		reportJSON = sql.NullString{String: string(data), Valid: true}

		summary, _ := json.Marshal(job.Report.CookieCount) //nolint:errcheck,errchkjson // two ints; Marshal won't fail
		summaryJSON = sql.NullString{String: string(summary), Valid: true}
	}

	query := `
	INSERT INTO jobs (id, url, status, message, attempts, report_json, cookie_summary, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		url = excluded.url,
		status = excluded.status,
		message = excluded.message,
		attempts = excluded.attempts,
		report_json = excluded.report_json,
		cookie_summary = excluded.cookie_summary,
		updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		job.ID,
		job.URL,
		string(job.Status),
		job.Message,
		job.Attempts,
		reportJSON,
		summaryJSON,
		formatTimestamp(job.CreatedAt),
		formatTimestamp(job.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}

	return nil
}

// GetJob retrieves a job by ID. It returns nil and no error when the job
// does not exist.
func (s *JobStore) GetJob(ctx context.Context, id string) (*model.Job, error) {
	query := `
	SELECT id, url, status, message, attempts, report_json, created_at, updated_at
	FROM jobs
	WHERE id = ?
	`

	var (
		job        model.Job
		status     string
		reportJSON sql.NullString
		createdAt  string
		updatedAt  string
	)

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&job.ID,
		&job.URL,
		&status,
		&job.Message,
		&job.Attempts,
		&reportJSON,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	job.Status = model.JobStatus(status)
	job.CreatedAt = parseTimestamp(createdAt)
	job.UpdatedAt = parseTimestamp(updatedAt)
	job.Target = job.URL

	if reportJSON.Valid && reportJSON.String != "" {
		var report model.PrivacyReport
		if err := json.Unmarshal([]byte(reportJSON.String), &report); err != nil {
			return nil, fmt.Errorf("failed to parse report: %w", err)
		}
		job.Report = &report
	}

	return &job, nil
}

// GetJobByURL retrieves the job for a target URL.
func (s *JobStore) GetJobByURL(ctx context.Context, url string) (*model.Job, error) {
	return s.GetJob(ctx, model.JobID(url))
}

// HasRecentJob reports whether url has a done job updated within duration.
func (s *JobStore) HasRecentJob(ctx context.Context, url string, duration time.Duration) (bool, error) {
	query := `
	SELECT COUNT(*) FROM jobs
	WHERE id = ? AND status = ? AND updated_at > ?
	`

	since := formatTimestamp(time.Now().Add(-duration))

	var count int
	err := s.db.QueryRowContext(ctx, query, model.JobID(url), string(model.JobDone), since).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check recent job: %w", err)
	}

	return count > 0, nil
}

// JobMetadata contains summary information about a stored job.
// This is used for listing jobs without loading the full report.
type JobMetadata struct {
	// ID is the job identifier.
	ID string

	// URL is the target URL.
	URL string

	// Status is the job state.
	Status model.JobStatus

	// Message is the failure reason, if any.
	Message string

	// UpdatedAt is when the job last changed state.
	UpdatedAt time.Time

	// CookieCount is the first/third-party cookie summary of done jobs.
	CookieCount model.PartyCount
}

// ListJobs returns metadata for every stored job, most recently updated first.
// An empty status lists jobs in every state.
func (s *JobStore) ListJobs(ctx context.Context, status model.JobStatus) ([]JobMetadata, error) {
	query := `
	SELECT id, url, status, message, updated_at, cookie_summary
	FROM jobs
	WHERE 1=1
	`
	args := make([]any, 0, 1)

	if status != "" {
		query += " AND status = ?"
		args = append(args, string(status))
	}

	query += " ORDER BY updated_at DESC, url"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	results := make([]JobMetadata, 0)
	for rows.Next() {
		var (
			meta        JobMetadata
			jobStatus   string
			updatedAt   string
			summaryJSON sql.NullString
		)

		if err := rows.Scan(&meta.ID, &meta.URL, &jobStatus, &meta.Message, &updatedAt, &summaryJSON); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}

		meta.Status = model.JobStatus(jobStatus)
		meta.UpdatedAt = parseTimestamp(updatedAt)

		if summaryJSON.Valid && summaryJSON.String != "" {
			// a bad summary only loses the counts
			_ = json.Unmarshal([]byte(summaryJSON.String), &meta.CookieCount) //nolint:errcheck
		}

		results = append(results, meta)
	}

	return results, rows.Err()
}

// DeleteJob removes the job for id. Deleting a missing job is not an error.
func (s *JobStore) DeleteJob(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM jobs WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return nil
}

// storedTimestampFormat sorts lexically in time order.
const storedTimestampFormat = "2006-01-02T15:04:05.000000000Z"

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(storedTimestampFormat)
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	storedTimestampFormat,
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
