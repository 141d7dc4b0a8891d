// Package notify implements the engine's Notifier on top of the background
// job queue: sending a notification enqueues a delivery job, and the worker
// pool drives the actual delivery. A slow or failing channel therefore never
// blocks the engine, and failed deliveries retry with the queue's backoff
// policy until they land in the dead-letter table.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"log/slog"

	"github.com/presspool/presspool/internal/jobs"
	"github.com/presspool/presspool/pkg/models"
	"github.com/presspool/presspool/pkg/repository"
)

// JobTypeDeliver is the queue job type carrying one notification delivery.
const JobTypeDeliver = "notify.deliver"

// Delivery is the job payload: one notification for one recipient.
type Delivery struct {
	UserID       int64               `json:"user_id"`
	Notification models.Notification `json:"notification"`
}

// Queue enqueues notification deliveries. It satisfies engine.Notifier.
type Queue struct {
	repo        repository.JobRepo
	maxAttempts int
}

func NewQueue(repo repository.JobRepo) *Queue {
	return &Queue{repo: repo, maxAttempts: 5}
}

// Send persists a delivery job for the recipient. Enqueueing is the only
// failure mode the engine can observe; everything after that is the worker's
// problem.
func (q *Queue) Send(ctx context.Context, userID int64, n models.Notification) error {
	payload, err := json.Marshal(Delivery{UserID: userID, Notification: n})
	if err != nil {
		return fmt.Errorf("marshal delivery: %w", err)
	}

	j := &models.BackgroundJob{
		Type:        JobTypeDeliver,
		Payload:     payload,
		Priority:    100,
		MaxAttempts: q.maxAttempts,
		ScheduledAt: time.Now(),
	}
	if _, err := q.repo.Enqueue(ctx, j); err != nil {
		return fmt.Errorf("enqueue delivery: %w", err)
	}

	return nil
}

// Deliverer pushes one rendered notification to a contact handle. The
// deliverer owns its own timeout.
type Deliverer interface {
	Deliver(ctx context.Context, contact string, n models.Notification) error
}

// Handler returns the queue handler that resolves the recipient's contact
// through the directory and hands the notification to the deliverer.
func Handler(dir repository.DirectoryRepo, d Deliverer, logger *slog.Logger) jobs.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(ctx context.Context, j *models.BackgroundJob) error {
		var del Delivery
		if err := json.Unmarshal(j.Payload, &del); err != nil {
			return fmt.Errorf("unmarshal delivery payload: %w", err)
		}

		contact, err := dir.ContactOf(ctx, del.UserID)
		if err != nil {
			return fmt.Errorf("resolve contact for user %d: %w", del.UserID, err)
		}
		if contact == "" {
			// nothing to deliver to; dropping beats retrying forever
			logger.Warn("recipient has no contact handle, dropping notification",
				"user_id", del.UserID, "kind", string(del.Notification.Kind))
			return nil
		}

		if err := d.Deliver(ctx, contact, del.Notification); err != nil {
			return fmt.Errorf("deliver %s to user %d: %w", del.Notification.Kind, del.UserID, err)
		}

		return nil
	}
}
