// Package db holds the job status persistence shared by the API server
// and the ingestion worker.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Job states, linear: queued → searching → scraping → extracting →
// completed | failed.
const (
	JobStatusQueued     = "queued"
	JobStatusSearching  = "searching"
	JobStatusScraping   = "scraping"
	JobStatusExtracting = "extracting"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// ErrJobNotFound is returned when no job exists for a public ID.
var ErrJobNotFound = errors.New("job not found")

// Job is one ingestion job row.
type Job struct {
	PublicID      string
	Query         string
	NumResults    int
	Status        string
	Progress      string
	Result        []byte
	FailureReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
}

// JobStore reads and writes job rows.
type JobStore struct {
	conn pgxIConn
}

// NewJobStore creates a JobStore over an existing connection or pool.
func NewJobStore(conn pgxIConn) *JobStore {
	return &JobStore{conn: conn}
}

// Insert creates a job in the queued state.
func (s *JobStore) Insert(ctx context.Context, publicID, query string, numResults int) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO jobs (public_id, query, num_results, status, progress)
		VALUES ($1, $2, $3, $4, '')`,
		publicID, query, numResults, JobStatusQueued,
	)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

// Get returns the job for a public ID.
func (s *JobStore) Get(ctx context.Context, publicID string) (*Job, error) {
	var job Job
	err := s.conn.QueryRow(ctx, `
		SELECT public_id, query, num_results, status, progress,
		       coalesce(result, ''), coalesce(failure_reason, ''),
		       created_at, updated_at
		FROM jobs
		WHERE public_id = $1`,
		publicID,
	).Scan(
		&job.PublicID, &job.Query, &job.NumResults, &job.Status, &job.Progress,
		&job.Result, &job.FailureReason, &job.CreatedAt, &job.UpdatedAt,
	)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// SetStatus advances the job state and progress text.
func (s *JobStore) SetStatus(ctx context.Context, publicID, status, progress string) error {
	tag, err := s.conn.Exec(ctx, `
		UPDATE jobs
		SET status = $2, progress = $3, updated_at = now()
		WHERE public_id = $1`,
		publicID, status, progress,
	)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

// Complete marks the job completed with its summary JSON.
func (s *JobStore) Complete(ctx context.Context, publicID string, result []byte) error {
	tag, err := s.conn.Exec(ctx, `
		UPDATE jobs
		SET status = $2, progress = '', result = $3, updated_at = now()
		WHERE public_id = $1`,
		publicID, JobStatusCompleted, result,
	)
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

// Fail marks the job failed with a human-readable reason.
func (s *JobStore) Fail(ctx context.Context, publicID, reason string) error {
	tag, err := s.conn.Exec(ctx, `
		UPDATE jobs
		SET status = $2, failure_reason = $3, updated_at = now()
		WHERE public_id = $1`,
		publicID, JobStatusFailed, reason,
	)
	if err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}
