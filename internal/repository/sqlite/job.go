package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/presspool/presspool/pkg/models"
)

// Background job queue methods

// Enqueue inserts a job into the jobs table and returns the new ID
func (r *SQLiteRepo) Enqueue(ctx context.Context, j *models.BackgroundJob) (int64, error) {
	if j == nil {
		return 0, fmt.Errorf("job is nil")
	}
	if j.MaxAttempts == 0 {
		j.MaxAttempts = 5
	}
	if j.ScheduledAt.IsZero() {
		j.ScheduledAt = time.Now()
	}

	ts := now()
	res, err := r.conn.Exec(ctx,
		`INSERT INTO jobs (type, payload, status, attempts, max_attempts, priority, scheduled_at, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.Type, string(j.Payload), "queued", j.Attempts, j.MaxAttempts, j.Priority, j.ScheduledAt.UTC().Unix(), ts, ts)
	if err != nil {
		return 0, fmt.Errorf("enqueue failed: %w", err)
	}

	return res.LastInsertId()
}

// FetchNext fetches the next available job respecting priority and schedule
func (r *SQLiteRepo) FetchNext(ctx context.Context) (*models.BackgroundJob, error) {
	q := `SELECT id, type, payload, status, attempts, max_attempts, priority, scheduled_at, next_try_at, last_error, created, updated
	        FROM jobs
	       WHERE (status = 'queued' OR status = 'retry')
	         AND (next_try_at IS NULL OR next_try_at <= ?)
	         AND scheduled_at <= ?
	       ORDER BY priority ASC, scheduled_at ASC
	       LIMIT 1`
	nowTS := now()
	row := r.conn.QueryRow(ctx, q, nowTS, nowTS)

	var (
		j           models.BackgroundJob
		payload     sql.NullString
		scheduledAt int64
		nextTry     sql.NullInt64
		lastError   sql.NullString
		created     int64
		updated     int64
	)
	if err := row.Scan(&j.ID, &j.Type, &payload, &j.Status, &j.Attempts, &j.MaxAttempts, &j.Priority, &scheduledAt, &nextTry, &lastError, &created, &updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, fmt.Errorf("fetch next job: %w", err)
	}

	j.ScheduledAt = time.Unix(scheduledAt, 0)
	j.Created = time.Unix(created, 0)
	j.Updated = time.Unix(updated, 0)
	if payload.Valid {
		j.Payload = json.RawMessage(payload.String)
	}
	if nextTry.Valid {
		t := time.Unix(nextTry.Int64, 0)
		j.NextTryAt = &t
	}
	if lastError.Valid {
		j.LastError = lastError.String
	}

	// claim the job so other workers skip it
	res, err := r.conn.Exec(ctx, `UPDATE jobs SET status = 'running', updated = ? WHERE id = ? AND status = ?`, now(), j.ID, j.Status)
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// another worker got there first
		return nil, nil
	}
	j.Status = "running"

	return &j, nil
}

// UpdateJob updates attempts, status, next_try_at, last_error
func (r *SQLiteRepo) UpdateJob(ctx context.Context, j *models.BackgroundJob) error {
	if j == nil {
		return fmt.Errorf("job is nil")
	}

	var nextTry any
	if j.NextTryAt != nil {
		nextTry = j.NextTryAt.Unix()
	}
	_, err := r.conn.Exec(ctx,
		`UPDATE jobs SET status = ?, attempts = ?, next_try_at = ?, last_error = ?, updated = ? WHERE id = ?`,
		j.Status, j.Attempts, nextTry, j.LastError, now(), j.ID)
	return err
}

// MoveToDeadLetter moves a job to dead_letter_jobs and deletes the original
func (r *SQLiteRepo) MoveToDeadLetter(ctx context.Context, j *models.BackgroundJob) error {
	if j == nil {
		return fmt.Errorf("job is nil")
	}

	return r.conn.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO dead_letter_jobs (job_id, type, payload, attempts, last_error, failed_at) VALUES (?, ?, ?, ?, ?, ?)`,
			j.ID, j.Type, string(j.Payload), j.Attempts, j.LastError, now()); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, j.ID)
		return err
	})
}
