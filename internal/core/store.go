package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrJobNotFound is returned when no job exists with the requested id.
var ErrJobNotFound = errors.New("job not found")

// Store persists jobs so queued work and history survive restarts.
type Store interface {
	// EnsureSchema creates the jobs table and indexes if they do not exist.
	EnsureSchema(ctx context.Context) error

	// CreateJob inserts a new queued job.
	CreateJob(ctx context.Context, job *Job) error

	// ClaimNextQueued atomically flips the oldest queued job to running and
	// returns it. Returns (nil, nil) when the queue is empty.
	ClaimNextQueued(ctx context.Context) (*Job, error)

	// UpdateProgress records the current progress percentage and step message.
	UpdateProgress(ctx context.Context, id string, progress int, message string) error

	// MarkSucceeded finalizes a job with its artifact location.
	MarkSucceeded(ctx context.Context, id, outputPath, outputName string) error

	// MarkFailed finalizes a job with an error message.
	MarkFailed(ctx context.Context, id, errMsg string) error

	// MarkCancelled finalizes a queued or running job as cancelled.
	MarkCancelled(ctx context.Context, id string) error

	// CancelIfQueued cancels a job only if it has not been claimed yet.
	// Reports whether the transition happened.
	CancelIfQueued(ctx context.Context, id string) (bool, error)

	// GetJob fetches one job. Returns ErrJobNotFound if the id is unknown.
	GetJob(ctx context.Context, id string) (*Job, error)

	// ListRecent returns the most recently created jobs, newest first.
	ListRecent(ctx context.Context, limit int) ([]Job, error)

	// CountActive returns the number of queued plus running jobs.
	CountActive(ctx context.Context) (int, error)

	// RequeueStale flips running jobs whose last update is older than
	// olderThan back to queued. Catches jobs stranded by a crash.
	RequeueStale(ctx context.Context, olderThan time.Duration) (int64, error)

	// PurgeOlderThan deletes terminal jobs past the retention window and
	// returns how many were removed.
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error)
}

// PgStore is the Postgres-backed Store implementation.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a store over an existing connection pool.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

const jobsSchema = `
CREATE TABLE IF NOT EXISTS jobs (
	id          uuid PRIMARY KEY,
	operation   text NOT NULL,
	status      text NOT NULL DEFAULT 'queued',
	progress    int NOT NULL DEFAULT 0,
	message     text NOT NULL DEFAULT '',
	params      jsonb NOT NULL DEFAULT '{}',
	inputs      jsonb NOT NULL DEFAULT '[]',
	output_path text NOT NULL DEFAULT '',
	output_name text NOT NULL DEFAULT '',
	error       text NOT NULL DEFAULT '',
	client_ip   text NOT NULL DEFAULT '',
	user_agent  text NOT NULL DEFAULT '',
	created_at  timestamptz NOT NULL DEFAULT now(),
	updated_at  timestamptz NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS jobs_status_created_idx ON jobs (status, created_at);
CREATE INDEX IF NOT EXISTS jobs_created_idx ON jobs (created_at DESC);
`

// EnsureSchema creates the jobs table and indexes if they do not exist.
func (s *PgStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, jobsSchema); err != nil {
		return fmt.Errorf("ensure jobs schema: %w", err)
	}
	return nil
}

const jobColumns = `id, operation, status, progress, message, params, inputs,
	output_path, output_name, error, client_ip, user_agent, created_at, updated_at`

// CreateJob inserts a new queued job.
func (s *PgStore) CreateJob(ctx context.Context, job *Job) error {
	id, err := uuidParam(job.ID)
	if err != nil {
		return err
	}

	params := job.Params
	if len(params) == 0 {
		params = json.RawMessage("{}")
	}

	inputs := job.Inputs
	if inputs == nil {
		inputs = []string{}
	}
	inputsJSON, err := json.Marshal(inputs)
	if err != nil {
		return fmt.Errorf("encode job inputs: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO jobs (id, operation, status, params, inputs, client_ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, job.Operation, string(StatusQueued), params, inputsJSON, job.ClientIP, job.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// ClaimNextQueued atomically flips the oldest queued job to running.
// SKIP LOCKED keeps concurrent workers from claiming the same row.
func (s *PgStore) ClaimNextQueued(ctx context.Context) (*Job, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE jobs SET status = 'running', updated_at = now()
		WHERE id = (
			SELECT id FROM jobs
			WHERE status = 'queued'
			ORDER BY created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+jobColumns)

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("claim queued job: %w", err)
	}
	return job, nil
}

// UpdateProgress records the current progress percentage and step message.
func (s *PgStore) UpdateProgress(ctx context.Context, id string, progress int, message string) error {
	pgID, err := uuidParam(id)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		UPDATE jobs SET progress = $2, message = $3, updated_at = now()
		WHERE id = $1 AND status = 'running'`,
		pgID, progress, message,
	)
	if err != nil {
		return fmt.Errorf("update job progress: %w", err)
	}
	return nil
}

// MarkSucceeded finalizes a job with its artifact location.
func (s *PgStore) MarkSucceeded(ctx context.Context, id, outputPath, outputName string) error {
	pgID, err := uuidParam(id)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		UPDATE jobs SET status = 'succeeded', progress = 100, message = '',
			output_path = $2, output_name = $3, error = '', updated_at = now()
		WHERE id = $1`,
		pgID, outputPath, outputName,
	)
	if err != nil {
		return fmt.Errorf("mark job succeeded: %w", err)
	}
	return nil
}

// MarkFailed finalizes a job with an error message.
func (s *PgStore) MarkFailed(ctx context.Context, id, errMsg string) error {
	pgID, err := uuidParam(id)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		UPDATE jobs SET status = 'failed', error = $2, updated_at = now()
		WHERE id = $1`,
		pgID, errMsg,
	)
	if err != nil {
		return fmt.Errorf("mark job failed: %w", err)
	}
	return nil
}

// MarkCancelled finalizes a queued or running job as cancelled.
func (s *PgStore) MarkCancelled(ctx context.Context, id string) error {
	pgID, err := uuidParam(id)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		UPDATE jobs SET status = 'cancelled', updated_at = now()
		WHERE id = $1 AND status IN ('queued', 'running')`,
		pgID,
	)
	if err != nil {
		return fmt.Errorf("mark job cancelled: %w", err)
	}
	return nil
}

// CancelIfQueued cancels a job only if it has not been claimed yet.
// Exactly one of CancelIfQueued and ClaimNextQueued wins for any given row.
func (s *PgStore) CancelIfQueued(ctx context.Context, id string) (bool, error) {
	pgID, err := uuidParam(id)
	if err != nil {
		return false, err
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE jobs SET status = 'cancelled', updated_at = now()
		WHERE id = $1 AND status = 'queued'`,
		pgID,
	)
	if err != nil {
		return false, fmt.Errorf("cancel queued job: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetJob fetches one job by id.
func (s *PgStore) GetJob(ctx context.Context, id string) (*Job, error) {
	pgID, err := uuidParam(id)
	if err != nil {
		return nil, err
	}

	row := s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1`, pgID)

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// ListRecent returns the most recently created jobs, newest first.
func (s *PgStore) ListRecent(ctx context.Context, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]Job, 0, limit)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job row: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("job rows: %w", err)
	}

	return jobs, nil
}

// CountActive returns the number of queued plus running jobs.
func (s *PgStore) CountActive(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM jobs WHERE status IN ('queued', 'running')`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active jobs: %w", err)
	}
	return count, nil
}

// RequeueStale flips running jobs whose last update is older than olderThan
// back to queued. A job only goes stale when its worker died without
// finalizing it, so requeueing is safe.
func (s *PgStore) RequeueStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	tag, err := s.pool.Exec(ctx, `
		UPDATE jobs SET status = 'queued', progress = 0, message = '', updated_at = now()
		WHERE status = 'running' AND updated_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("requeue stale jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PurgeOlderThan deletes terminal jobs past the retention window.
func (s *PgStore) PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM jobs
		WHERE status IN ('succeeded', 'failed', 'cancelled') AND updated_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("purge old jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// uuidParam converts a string job id to a pgtype.UUID parameter.
func uuidParam(id string) (pgtype.UUID, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return pgtype.UUID{}, fmt.Errorf("invalid job id %q: %w", id, err)
	}
	return pgtype.UUID{Bytes: u, Valid: true}, nil
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanJob reads one job row in jobColumns order.
func scanJob(row rowScanner) (*Job, error) {
	var (
		job       Job
		id        pgtype.UUID
		status    string
		paramsRaw []byte
		inputsRaw []byte
	)

	err := row.Scan(
		&id, &job.Operation, &status, &job.Progress, &job.Message,
		&paramsRaw, &inputsRaw,
		&job.OutputPath, &job.OutputName, &job.Error,
		&job.ClientIP, &job.UserAgent,
		&job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	job.ID = uuid.UUID(id.Bytes).String()
	job.Status = JobStatus(status)
	job.Params = json.RawMessage(paramsRaw)
	if len(inputsRaw) > 0 {
		if err := json.Unmarshal(inputsRaw, &job.Inputs); err != nil {
			return nil, fmt.Errorf("decode job inputs: %w", err)
		}
	}

	return &job, nil
}
