// Package queue holds the durable image job queue used between the admin API and the image workers.
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrClosed = errors.New("queue is shut down")

type State string

const (
	StateWaiting   State = "waiting"
	StateActive    State = "active"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Payload identifies the nominee image to process.
type Payload struct {
	NomineeID    uuid.UUID `json:"nomineeId"`
	QuestionID   uuid.UUID `json:"questionId"`
	TempFilePath string    `json:"tempFilePath"`
	OriginalName string    `json:"originalName"`
}

type Job struct {
	ID          uuid.UUID  `json:"id"`
	Payload     Payload    `json:"payload"`
	Priority    int        `json:"priority"`
	Attempts    int        `json:"attempts"`
	MaxAttempts int        `json:"maxAttempts"`
	State       State      `json:"state"`
	LastError   string     `json:"lastError,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	ReadyAt     time.Time  `json:"readyAt"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`
}

// FinalAttempt reports whether a failure of the current attempt is terminal.
func (j *Job) FinalAttempt() bool {
	return j.Attempts >= j.MaxAttempts
}

type EnqueueOptions struct {
	// JobID is used as the job's identity when set, otherwise a new one is generated.
	JobID    uuid.UUID
	Priority int
}

type Stats struct {
	Waiting   int64 `json:"waiting"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

// Policy controls retries and retention.
type Policy struct {
	Attempts        int
	Backoff         time.Duration
	KeepCompleted   int64
	KeepFailed      int64
	CompletedMaxAge time.Duration
	FailedMaxAge    time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		Attempts:        3,
		Backoff:         2 * time.Second,
		KeepCompleted:   100,
		KeepFailed:      50,
		CompletedMaxAge: 24 * time.Hour,
		FailedMaxAge:    7 * 24 * time.Hour,
	}
}

// BackoffFor returns the delay before retrying after the given failed attempt (1-based):
// Backoff, 2*Backoff, 4*Backoff, ...
func (p Policy) BackoffFor(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 31 {
		attempt = 31
	}
	return p.Backoff * time.Duration(1<<uint(attempt-1))
}

// Queue is a priority job queue with retries. Dequeue hands out each job to one consumer at a time;
// higher priority first and FIFO within a priority.
type Queue interface {
	Init(ctx context.Context) error
	Enqueue(ctx context.Context, payload Payload, opts EnqueueOptions) (*Job, error)
	// Dequeue blocks until a job is available, ctx is done or the queue is shut down.
	Dequeue(ctx context.Context) (*Job, error)
	Complete(ctx context.Context, job *Job) error
	// Fail records cause for job and reports whether it will be retried.
	Fail(ctx context.Context, job *Job, cause error) (bool, error)
	Stats(ctx context.Context) (Stats, error)
	Prune(ctx context.Context, now time.Time) error
	Shutdown(ctx context.Context) error
}
