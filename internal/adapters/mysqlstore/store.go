package mysqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"titleboost/internal/core/domain"
)

const mysqlDuplicateEntry = 1062

// Store implements ports.JobStore on a MySQL table. The record is kept as
// a JSON document next to an integer version used for compare-and-set.
type Store struct {
	db    *sql.DB
	table string
}

// New wraps an open *sql.DB. table defaults to "jobs".
func New(db *sql.DB, table string) *Store {
	if table == "" {
		table = "jobs"
	}
	return &Store{db: db, table: table}
}

// Open connects with the go-sql-driver DSN and verifies the connection.
func Open(ctx context.Context, dsn, table string) (*Store, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql dsn: %w", err)
	}
	cfg.ParseTime = true

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach mysql: %w", err)
	}
	return New(db, table), nil
}

// EnsureSchema creates the jobs table if it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmt := `CREATE TABLE IF NOT EXISTS ` + s.table + ` (
		  job_id VARCHAR(64) NOT NULL PRIMARY KEY,
		  schema_version INT NOT NULL,
		  status VARCHAR(32) NOT NULL,
		  version BIGINT NOT NULL,
		  record JSON NOT NULL,
		  created_at DATETIME(6) NOT NULL,
		  updated_at DATETIME(6) NOT NULL
		)`
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create %s table: %w", s.table, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	query := `SELECT record, version FROM ` + s.table + ` WHERE job_id = ?`
	var record []byte
	var version int64
	err := s.db.QueryRowContext(ctx, query, jobID).Scan(&record, &version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrJobNotFound, jobID)
		}
		return nil, fmt.Errorf("failed to load job %s: %w", jobID, err)
	}

	var job domain.Job
	if err := json.Unmarshal(record, &job); err != nil {
		return nil, fmt.Errorf("failed to decode job %s: %w", jobID, err)
	}
	if job.SchemaVersion > domain.SchemaVersion {
		return nil, fmt.Errorf("%w %d for job %s", domain.ErrUnsupportedSchema, job.SchemaVersion, jobID)
	}
	job.Version = version
	return &job, nil
}

func (s *Store) Create(ctx context.Context, job *domain.Job) error {
	job.Version = 1
	record, err := json.Marshal(job)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Round(time.Microsecond)
	query := `INSERT INTO ` + s.table + ` (job_id, schema_version, status, version, record, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query, job.JobID, job.SchemaVersion, string(job.Status), job.Version, record, now, now)
	if err != nil {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
			return fmt.Errorf("%w: %s", domain.ErrJobExists, job.JobID)
		}
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

func (s *Store) Set(ctx context.Context, job *domain.Job) error {
	next := job.Clone()
	next.Version++
	next.UpdatedAt = time.Now().UTC().Round(time.Microsecond)
	record, err := json.Marshal(next)
	if err != nil {
		return err
	}

	query := `UPDATE ` + s.table + ` SET status = ?, version = ?, record = ?, updated_at = ? WHERE job_id = ? AND version = ?`
	res, err := s.db.ExecContext(ctx, query, string(next.Status), next.Version, record, next.UpdatedAt, job.JobID, job.Version)
	if err != nil {
		return fmt.Errorf("failed to update job %s: %w", job.JobID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		if _, getErr := s.Get(ctx, job.JobID); getErr != nil {
			return getErr
		}
		return fmt.Errorf("%w: %s (have v%d)", domain.ErrVersionConflict, job.JobID, job.Version)
	}

	job.Version = next.Version
	job.UpdatedAt = next.UpdatedAt
	return nil
}
