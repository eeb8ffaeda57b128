package webhooks

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is one pending webhook delivery.
type Job struct {
	WebhookID string
	Event     EventPayload
}

// JobQueue accepts delivery jobs. A nil JobQueue on the Service means
// deliveries run inline on the caller's goroutine.
type JobQueue interface {
	Enqueue(job Job) bool
}

// Handler processes one job.
type Handler func(ctx context.Context, job Job)

// ChannelQueue is a bounded in-process delivery queue with a fixed
// worker pool. A full queue drops the job rather than blocking the
// request path.
type ChannelQueue struct {
	jobs    chan Job
	handler Handler
	timeout time.Duration
	logger  *zap.Logger

	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup
}

func NewChannelQueue(buffer, workers int, timeout time.Duration, handler Handler, logger *zap.Logger) *ChannelQueue {
	if buffer <= 0 {
		buffer = 256
	}
	if workers <= 0 {
		workers = 4
	}
	q := &ChannelQueue{
		jobs:    make(chan Job, buffer),
		handler: handler,
		timeout: timeout,
		logger:  logger,
		stop:    make(chan struct{}),
	}
	q.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go q.worker()
	}
	return q
}

// Enqueue queues a job, reporting false when the buffer is full.
func (q *ChannelQueue) Enqueue(job Job) bool {
	select {
	case q.jobs <- job:
		return true
	default:
		q.logger.Warn("webhook queue full, dropping delivery",
			zap.String("webhook_id", job.WebhookID),
			zap.String("event_type", job.Event.EventType))
		return false
	}
}

// Close stops the workers after draining queued jobs.
func (q *ChannelQueue) Close() {
	q.stopOnce.Do(func() {
		close(q.stop)
		close(q.jobs)
	})
	q.wg.Wait()
}

func (q *ChannelQueue) worker() {
	defer q.wg.Done()
	for job := range q.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		q.handler(ctx, job)
		cancel()
	}
}
