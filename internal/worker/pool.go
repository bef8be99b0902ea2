// Package worker runs the image job consumers.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"employee-poll-backend/internal/logging"
	"employee-poll-backend/internal/queue"

	"github.com/sirupsen/logrus"
)

// Processor handles one job. A returned error hands the job back to the queue for retry.
type Processor interface {
	Process(ctx context.Context, job *queue.Job) error
}

type ProcessorFunc func(ctx context.Context, job *queue.Job) error

func (f ProcessorFunc) Process(ctx context.Context, job *queue.Job) error {
	return f(ctx, job)
}

type Options struct {
	Concurrency   int
	PruneInterval time.Duration
	// ErrorDelay is the pause after a failed Dequeue before trying again.
	ErrorDelay time.Duration
}

// Pool consumes a queue with a fixed number of goroutines.
type Pool struct {
	queue     queue.Queue
	processor Processor
	opts      Options

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

func NewPool(q queue.Queue, processor Processor, opts Options) *Pool {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.ErrorDelay <= 0 {
		opts.ErrorDelay = time.Second
	}
	return &Pool{queue: q, processor: processor, opts: opts}
}

// Start launches the workers and the maintenance loop. Jobs keep running until Stop.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true

	ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.opts.Concurrency; i++ {
		p.wg.Add(1)
		go p.work(ctx, i)
	}
	if p.opts.PruneInterval > 0 {
		p.wg.Add(1)
		go p.maintain(ctx)
	}
	logging.Log.Infof("Image worker pool started with %d workers", p.opts.Concurrency)
}

// Stop stops taking new jobs and waits for in-flight ones until ctx is done.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.cancel()
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Log.Info("Image worker pool stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker pool did not stop in time: %w", ctx.Err())
	}
}

func (p *Pool) work(ctx context.Context, id int) {
	defer p.wg.Done()

	for ctx.Err() == nil {
		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, queue.ErrClosed) {
				return
			}
			logging.Log.WithError(err).WithField("worker", id).Error("Failed to dequeue image job")
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.opts.ErrorDelay):
			}
			continue
		}

		// in-flight jobs finish even when the pool is stopping
		p.handle(context.WithoutCancel(ctx), job)
	}
}

func (p *Pool) handle(ctx context.Context, job *queue.Job) {
	log := logging.Log.WithFields(logrus.Fields{
		"job_id":  job.ID,
		"attempt": job.Attempts,
	})

	start := time.Now()
	err := p.process(ctx, job)
	if err == nil {
		if err := p.queue.Complete(ctx, job); err != nil {
			log.WithError(err).Error("Failed to mark image job completed")
			return
		}
		log.WithField("duration", time.Since(start)).Info("Image job completed")
		return
	}

	retrying, failErr := p.queue.Fail(ctx, job, err)
	if failErr != nil {
		log.WithError(failErr).Error("Failed to record image job failure")
		return
	}
	if retrying {
		log.WithError(err).Warn("Image job failed, will retry")
	} else {
		log.WithError(err).Error("Image job failed permanently")
	}
}

func (p *Pool) process(ctx context.Context, job *queue.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.Log.Errorf("Image job %s panicked: %v\n%s", job.ID, r, debug.Stack())
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return p.processor.Process(ctx, job)
}

func (p *Pool) maintain(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.opts.PruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if err := p.queue.Prune(ctx, now); err != nil && ctx.Err() == nil {
				logging.Log.WithError(err).Warn("Failed to prune image queue")
			}
		}
	}
}
