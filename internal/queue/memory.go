package queue

import (
	"container/heap"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"employee-poll-backend/internal/models"

	"github.com/google/uuid"
)

type heapItem struct {
	id       uuid.UUID
	priority int
	seq      uint64
}

type jobHeap []heapItem

func (h jobHeap) Len() int { return len(h) }
func (h jobHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}
func (h jobHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *jobHeap) Push(x any)   { *h = append(*h, x.(heapItem)) }
func (h *jobHeap) Pop() any {
	old := *h
	item := old[len(old)-1]
	*h = old[:len(old)-1]
	return item
}

// MemoryQueue is an in-process Queue. Jobs are lost on restart.
type MemoryQueue struct {
	mu        sync.Mutex
	policy    Policy
	seq       uint64
	jobs      map[uuid.UUID]*Job
	seqs      map[uuid.UUID]uint64
	waiting   jobHeap
	delayed   []uuid.UUID
	active    map[uuid.UUID]struct{}
	completed []uuid.UUID
	failed    []uuid.UUID
	notify    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	now       func() time.Time
}

func NewMemoryQueue(policy Policy) *MemoryQueue {
	return &MemoryQueue{
		policy: policy,
		jobs:   make(map[uuid.UUID]*Job),
		seqs:   make(map[uuid.UUID]uint64),
		active: make(map[uuid.UUID]struct{}),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
		now:    time.Now,
	}
}

func (q *MemoryQueue) Init(ctx context.Context) error {
	return nil
}

func (q *MemoryQueue) Enqueue(ctx context.Context, payload Payload, opts EnqueueOptions) (*Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed() {
		return nil, fmt.Errorf("enqueue: %w: %w", models.ErrQueueUnavailable, ErrClosed)
	}
	id := opts.JobID
	if id == uuid.Nil {
		id = uuid.New()
	}
	if _, exists := q.jobs[id]; exists {
		return nil, fmt.Errorf("enqueue: job %s already exists", id)
	}

	now := q.now()
	job := &Job{
		ID:          id,
		Payload:     payload,
		Priority:    opts.Priority,
		MaxAttempts: q.policy.Attempts,
		State:       StateWaiting,
		CreatedAt:   now,
		ReadyAt:     now,
	}
	q.seq++
	q.jobs[id] = job
	q.seqs[id] = q.seq
	heap.Push(&q.waiting, heapItem{id: id, priority: job.Priority, seq: q.seq})
	q.signal()

	cp := *job
	return &cp, nil
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (*Job, error) {
	for {
		q.mu.Lock()
		if q.closed() {
			q.mu.Unlock()
			return nil, ErrClosed
		}
		now := q.now()
		q.promote(now)
		if q.waiting.Len() > 0 {
			item := heap.Pop(&q.waiting).(heapItem)
			job := q.jobs[item.id]
			job.Attempts++
			job.State = StateActive
			q.active[job.ID] = struct{}{}
			if q.waiting.Len() > 0 {
				q.signal()
			}
			cp := *job
			q.mu.Unlock()
			return &cp, nil
		}
		wait := time.Minute
		if len(q.delayed) > 0 {
			wait = q.jobs[q.delayed[0]].ReadyAt.Sub(now)
		}
		q.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-q.done:
			timer.Stop()
			return nil, ErrClosed
		case <-q.notify:
			timer.Stop()
		case <-timer.C:
		}
	}
}

func (q *MemoryQueue) Complete(ctx context.Context, job *Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	stored, err := q.takeActive(job.ID)
	if err != nil {
		return err
	}
	finished := q.now()
	stored.State = StateCompleted
	stored.FinishedAt = &finished
	q.completed = append(q.completed, stored.ID)
	q.completed = q.trim(q.completed, q.policy.KeepCompleted)
	return nil
}

func (q *MemoryQueue) Fail(ctx context.Context, job *Job, cause error) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	stored, err := q.takeActive(job.ID)
	if err != nil {
		return false, err
	}
	if cause != nil {
		stored.LastError = cause.Error()
	}

	now := q.now()
	if stored.Attempts < stored.MaxAttempts {
		stored.State = StateWaiting
		stored.ReadyAt = now.Add(q.policy.BackoffFor(stored.Attempts))
		q.delayed = append(q.delayed, stored.ID)
		sort.SliceStable(q.delayed, func(i, j int) bool {
			return q.jobs[q.delayed[i]].ReadyAt.Before(q.jobs[q.delayed[j]].ReadyAt)
		})
		q.signal()
		return true, nil
	}

	stored.State = StateFailed
	stored.FinishedAt = &now
	q.failed = append(q.failed, stored.ID)
	q.failed = q.trim(q.failed, q.policy.KeepFailed)
	return false, nil
}

func (q *MemoryQueue) Stats(ctx context.Context) (Stats, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	return Stats{
		Waiting:   int64(q.waiting.Len() + len(q.delayed)),
		Active:    int64(len(q.active)),
		Completed: int64(len(q.completed)),
		Failed:    int64(len(q.failed)),
	}, nil
}

func (q *MemoryQueue) Prune(ctx context.Context, now time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.completed = q.pruneOlder(q.completed, now.Add(-q.policy.CompletedMaxAge))
	q.failed = q.pruneOlder(q.failed, now.Add(-q.policy.FailedMaxAge))
	q.completed = q.trim(q.completed, q.policy.KeepCompleted)
	q.failed = q.trim(q.failed, q.policy.KeepFailed)
	return nil
}

func (q *MemoryQueue) Shutdown(ctx context.Context) error {
	q.closeOnce.Do(func() { close(q.done) })
	return nil
}

// Job returns a snapshot of a retained job.
func (q *MemoryQueue) Job(id uuid.UUID) (*Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return nil, false
	}
	cp := *job
	return &cp, true
}

func (q *MemoryQueue) closed() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}

func (q *MemoryQueue) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// promote moves due delayed jobs back to waiting. Caller holds q.mu.
func (q *MemoryQueue) promote(now time.Time) {
	n := 0
	for n < len(q.delayed) && !q.jobs[q.delayed[n]].ReadyAt.After(now) {
		id := q.delayed[n]
		heap.Push(&q.waiting, heapItem{id: id, priority: q.jobs[id].Priority, seq: q.seqs[id]})
		n++
	}
	q.delayed = q.delayed[n:]
}

func (q *MemoryQueue) takeActive(id uuid.UUID) (*Job, error) {
	if _, ok := q.active[id]; !ok {
		return nil, fmt.Errorf("job %s is not active", id)
	}
	delete(q.active, id)
	return q.jobs[id], nil
}

// trim keeps the newest keep ids of a finish-ordered list.
func (q *MemoryQueue) trim(ids []uuid.UUID, keep int64) []uuid.UUID {
	if keep < 0 || int64(len(ids)) <= keep {
		return ids
	}
	drop := len(ids) - int(keep)
	q.forget(ids[:drop])
	return append([]uuid.UUID{}, ids[drop:]...)
}

func (q *MemoryQueue) pruneOlder(ids []uuid.UUID, cutoff time.Time) []uuid.UUID {
	n := 0
	for n < len(ids) && q.jobs[ids[n]].FinishedAt.Before(cutoff) {
		n++
	}
	q.forget(ids[:n])
	return append([]uuid.UUID{}, ids[n:]...)
}

func (q *MemoryQueue) forget(ids []uuid.UUID) {
	for _, id := range ids {
		delete(q.jobs, id)
		delete(q.seqs, id)
	}
}
