package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"employee-poll-backend/internal/logging"
	"employee-poll-backend/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// waiting scores order by priority first, then by enqueue sequence.
const priorityWeight = 1e12

var popScript = redis.NewScript(`
local popped = redis.call('ZPOPMIN', KEYS[1])
if #popped == 0 then
  return false
end
redis.call('SADD', KEYS[2], popped[1])
return popped[1]
`)

var promoteScript = redis.NewScript(`
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
for _, id in ipairs(ids) do
  local score = redis.call('HGET', KEYS[3], id)
  if not score then
    score = '0'
  end
  redis.call('ZREM', KEYS[1], id)
  redis.call('ZADD', KEYS[2], score, id)
end
return #ids
`)

var requeueScript = redis.NewScript(`
local ids = redis.call('SMEMBERS', KEYS[1])
for _, id in ipairs(ids) do
  local score = redis.call('HGET', KEYS[3], id)
  if not score then
    score = '0'
  end
  redis.call('SREM', KEYS[1], id)
  redis.call('ZADD', KEYS[2], score, id)
end
return #ids
`)

type RedisOptions struct {
	Addr         string
	Password     string
	DB           int
	Prefix       string
	PollInterval time.Duration
	Policy       Policy
}

// RedisQueue keeps jobs in Redis so they survive restarts. Layout under Prefix:
//
//	job:<id>   job JSON
//	waiting    ZSET of ready ids scored by priority and sequence
//	delayed    ZSET of ids waiting for backoff, scored by ready time (ms)
//	active     SET of ids handed to a consumer
//	completed  ZSET scored by finish time (ms)
//	failed     ZSET scored by finish time (ms)
//	scores     HASH id -> waiting score
//	seq        enqueue counter
type RedisQueue struct {
	client       *redis.Client
	prefix       string
	pollInterval time.Duration
	policy       Policy
	done         chan struct{}
	closeOnce    sync.Once
}

func NewRedisQueue(opts RedisOptions) *RedisQueue {
	if opts.Prefix == "" {
		opts.Prefix = "imgq"
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 500 * time.Millisecond
	}
	return &RedisQueue{
		client: redis.NewClient(&redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		}),
		prefix:       opts.Prefix,
		pollInterval: opts.PollInterval,
		policy:       opts.Policy,
		done:         make(chan struct{}),
	}
}

// Init verifies the connection and returns jobs left active by a previous process to waiting.
// It assumes a single consuming process per prefix.
func (q *RedisQueue) Init(ctx context.Context) error {
	if err := q.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: redis ping: %w", models.ErrQueueUnavailable, err)
	}
	n, err := requeueScript.Run(ctx, q.client, []string{q.key("active"), q.key("waiting"), q.key("scores")}).Int()
	if err != nil {
		return fmt.Errorf("failed to requeue stalled jobs: %w", err)
	}
	if n > 0 {
		logging.Log.Warnf("Requeued %d stalled image jobs", n)
	}
	return nil
}

func (q *RedisQueue) Enqueue(ctx context.Context, payload Payload, opts EnqueueOptions) (*Job, error) {
	if q.closed() {
		return nil, fmt.Errorf("enqueue: %w: %w", models.ErrQueueUnavailable, ErrClosed)
	}
	id := opts.JobID
	if id == uuid.Nil {
		id = uuid.New()
	}

	now := time.Now()
	job := &Job{
		ID:          id,
		Payload:     payload,
		Priority:    opts.Priority,
		MaxAttempts: q.policy.Attempts,
		State:       StateWaiting,
		CreatedAt:   now,
		ReadyAt:     now,
	}
	data, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to encode job: %w", err)
	}

	created, err := q.client.SetNX(ctx, q.jobKey(id), data, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("enqueue: %w: %w", models.ErrQueueUnavailable, err)
	}
	if !created {
		return nil, fmt.Errorf("enqueue: job %s already exists", id)
	}

	seq, err := q.client.Incr(ctx, q.key("seq")).Result()
	if err != nil {
		return nil, fmt.Errorf("enqueue: %w: %w", models.ErrQueueUnavailable, err)
	}
	score := waitingScore(job.Priority, seq)
	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, q.key("scores"), id.String(), score)
		pipe.ZAdd(ctx, q.key("waiting"), redis.Z{Score: score, Member: id.String()})
		return nil
	})
	if err != nil {
		q.client.Del(ctx, q.jobKey(id))
		return nil, fmt.Errorf("enqueue: %w: %w", models.ErrQueueUnavailable, err)
	}
	return job, nil
}

func (q *RedisQueue) Dequeue(ctx context.Context) (*Job, error) {
	for {
		if q.closed() {
			return nil, ErrClosed
		}

		nowMs := time.Now().UnixMilli()
		if err := promoteScript.Run(ctx, q.client,
			[]string{q.key("delayed"), q.key("waiting"), q.key("scores")},
			nowMs,
		).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("failed to promote delayed jobs: %w", err)
		}

		id, err := popScript.Run(ctx, q.client, []string{q.key("waiting"), q.key("active")}).Text()
		switch {
		case err == nil:
			job, err := q.activate(ctx, id)
			if err != nil {
				return nil, err
			}
			if job != nil {
				return job, nil
			}
			continue
		case !errors.Is(err, redis.Nil):
			return nil, fmt.Errorf("failed to pop job: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.done:
			return nil, ErrClosed
		case <-time.After(q.pollInterval):
		}
	}
}

func (q *RedisQueue) Complete(ctx context.Context, job *Job) error {
	finished := time.Now()
	job.State = StateCompleted
	job.FinishedAt = &finished
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}

	id := job.ID.String()
	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SRem(ctx, q.key("active"), id)
		pipe.Set(ctx, q.jobKey(job.ID), data, 0)
		pipe.HDel(ctx, q.key("scores"), id)
		pipe.ZAdd(ctx, q.key("completed"), redis.Z{Score: float64(finished.UnixMilli()), Member: id})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to complete job %s: %w", id, err)
	}
	return q.trim(ctx, q.key("completed"), q.policy.KeepCompleted)
}

func (q *RedisQueue) Fail(ctx context.Context, job *Job, cause error) (bool, error) {
	now := time.Now()
	if cause != nil {
		job.LastError = cause.Error()
	}
	retrying := job.Attempts < job.MaxAttempts
	if retrying {
		job.State = StateWaiting
		job.ReadyAt = now.Add(q.policy.BackoffFor(job.Attempts))
	} else {
		job.State = StateFailed
		job.FinishedAt = &now
	}
	data, err := json.Marshal(job)
	if err != nil {
		return false, fmt.Errorf("failed to encode job: %w", err)
	}

	id := job.ID.String()
	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SRem(ctx, q.key("active"), id)
		pipe.Set(ctx, q.jobKey(job.ID), data, 0)
		if retrying {
			pipe.ZAdd(ctx, q.key("delayed"), redis.Z{Score: float64(job.ReadyAt.UnixMilli()), Member: id})
		} else {
			pipe.HDel(ctx, q.key("scores"), id)
			pipe.ZAdd(ctx, q.key("failed"), redis.Z{Score: float64(now.UnixMilli()), Member: id})
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to record failure of job %s: %w", id, err)
	}
	if retrying {
		return true, nil
	}
	return false, q.trim(ctx, q.key("failed"), q.policy.KeepFailed)
}

func (q *RedisQueue) Stats(ctx context.Context) (Stats, error) {
	var waiting, delayed, completed, failed *redis.IntCmd
	var active *redis.IntCmd
	_, err := q.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		waiting = pipe.ZCard(ctx, q.key("waiting"))
		delayed = pipe.ZCard(ctx, q.key("delayed"))
		active = pipe.SCard(ctx, q.key("active"))
		completed = pipe.ZCard(ctx, q.key("completed"))
		failed = pipe.ZCard(ctx, q.key("failed"))
		return nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("%w: %w", models.ErrQueueUnavailable, err)
	}
	return Stats{
		Waiting:   waiting.Val() + delayed.Val(),
		Active:    active.Val(),
		Completed: completed.Val(),
		Failed:    failed.Val(),
	}, nil
}

func (q *RedisQueue) Prune(ctx context.Context, now time.Time) error {
	if err := q.pruneOlder(ctx, q.key("completed"), now.Add(-q.policy.CompletedMaxAge)); err != nil {
		return err
	}
	if err := q.pruneOlder(ctx, q.key("failed"), now.Add(-q.policy.FailedMaxAge)); err != nil {
		return err
	}
	if err := q.trim(ctx, q.key("completed"), q.policy.KeepCompleted); err != nil {
		return err
	}
	return q.trim(ctx, q.key("failed"), q.policy.KeepFailed)
}

func (q *RedisQueue) Shutdown(ctx context.Context) error {
	var err error
	q.closeOnce.Do(func() {
		close(q.done)
		err = q.client.Close()
	})
	return err
}

// Job loads a job by id.
func (q *RedisQueue) Job(ctx context.Context, id uuid.UUID) (*Job, error) {
	data, err := q.client.Get(ctx, q.jobKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("job %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to decode job %s: %w", id, err)
	}
	return &job, nil
}

// activate marks a popped job as running. A nil job means the id had no payload and was dropped.
func (q *RedisQueue) activate(ctx context.Context, rawID string) (*Job, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		q.client.SRem(ctx, q.key("active"), rawID)
		logging.Log.Warnf("Dropping malformed job id %q", rawID)
		return nil, nil
	}
	job, err := q.Job(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		q.client.SRem(ctx, q.key("active"), rawID)
		q.client.HDel(ctx, q.key("scores"), rawID)
		logging.Log.Warnf("Dropping job %s without payload", rawID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	job.Attempts++
	job.State = StateActive
	data, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to encode job: %w", err)
	}
	if err := q.client.Set(ctx, q.jobKey(id), data, 0).Err(); err != nil {
		return nil, fmt.Errorf("failed to activate job %s: %w", id, err)
	}
	return job, nil
}

func (q *RedisQueue) pruneOlder(ctx context.Context, setKey string, cutoff time.Time) error {
	ids, err := q.client.ZRangeByScore(ctx, setKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(cutoff.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to list expired jobs: %w", err)
	}
	return q.remove(ctx, setKey, ids)
}

// trim keeps the newest keep members of a finish-time ZSET.
func (q *RedisQueue) trim(ctx context.Context, setKey string, keep int64) error {
	if keep < 0 {
		return nil
	}
	ids, err := q.client.ZRange(ctx, setKey, 0, -keep-1).Result()
	if err != nil {
		return fmt.Errorf("failed to list jobs to trim: %w", err)
	}
	return q.remove(ctx, setKey, ids)
}

func (q *RedisQueue) remove(ctx context.Context, setKey string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	members := make([]interface{}, len(ids))
	keys := make([]string, len(ids))
	for i, id := range ids {
		members[i] = id
		keys[i] = q.prefix + ":job:" + id
	}
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, setKey, members...)
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to remove jobs: %w", err)
	}
	return nil
}

func (q *RedisQueue) closed() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}

func (q *RedisQueue) key(name string) string {
	return q.prefix + ":" + name
}

func (q *RedisQueue) jobKey(id uuid.UUID) string {
	return q.prefix + ":job:" + id.String()
}

func waitingScore(priority int, seq int64) float64 {
	return -float64(priority)*priorityWeight + float64(seq)
}
