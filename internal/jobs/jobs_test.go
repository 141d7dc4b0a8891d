package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"log/slog"

	"go.uber.org/goleak"

	"github.com/presspool/presspool/internal/jobs"
	"github.com/presspool/presspool/pkg/models"
	"github.com/presspool/presspool/pkg/repository/mock"
)

func TestEnqueueAndProcess(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	logger := slog.Default()

	queue := &mock.JobQueue{}
	handled := make(chan struct{}, 1)
	handlers := map[string]jobs.Handler{
		"test": func(ctx context.Context, j *models.BackgroundJob) error {
			handled <- struct{}{}
			return nil
		},
	}
	pool := jobs.NewWorkerPool(queue, handlers, logger, 1)
	pool.Start(ctx)
	defer pool.Stop()

	if _, err := pool.Enqueue(ctx, "test", map[string]string{"foo": "bar"}, 10, 3); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	select {
	case <-handled:
		// ok
	case <-time.After(3 * time.Second):
		t.Fatalf("handler was not called")
	}
}

func TestNoHandlerDeadLetters(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()

	queue := &mock.JobQueue{}
	pool := jobs.NewWorkerPool(queue, map[string]jobs.Handler{}, slog.Default(), 1)
	pool.Start(ctx)
	defer pool.Stop()

	if _, err := pool.Enqueue(ctx, "unknown", nil, 10, 3); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for {
		if len(queue.DeadLetters()) == 1 {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("job without handler never reached the dead letter queue")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestFailingJobDeadLettersAfterMaxAttempts(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()

	queue := &mock.JobQueue{}
	handlers := map[string]jobs.Handler{
		"flaky": func(ctx context.Context, j *models.BackgroundJob) error {
			return errors.New("downstream refused")
		},
	}
	pool := jobs.NewWorkerPool(queue, handlers, slog.Default(), 1)
	pool.Start(ctx)
	defer pool.Stop()

	// max attempts of one: the first failure is terminal
	if _, err := pool.Enqueue(ctx, "flaky", nil, 10, 1); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for {
		var dead *models.BackgroundJob
		if dls := queue.DeadLetters(); len(dls) > 0 {
			dead = dls[0]
		}
		if dead != nil {
			if dead.LastError != "downstream refused" || dead.Attempts != 1 {
				t.Fatalf("unexpected dead letter job: %#v", dead)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatalf("failing job never reached the dead letter queue")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestBackoffDuration(t *testing.T) {
	if d := jobs.BackoffDuration(0); d != time.Second {
		t.Fatalf("expected 1s floor got %v", d)
	}
	if d := jobs.BackoffDuration(3); d != 8*time.Second {
		t.Fatalf("expected 8s for attempt 3 got %v", d)
	}
	if d := jobs.BackoffDuration(20); d != 5*time.Minute {
		t.Fatalf("expected 5m cap got %v", d)
	}
}
