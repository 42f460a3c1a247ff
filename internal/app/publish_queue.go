package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"babymeasure/internal/domain"
)

// Enqueuer schedules a chart publish without waiting for it.
type Enqueuer interface {
	Enqueue(reason string) bool
}

// PublishStats reports what the publish worker has done so far.
type PublishStats struct {
	Enqueued  uint64
	Coalesced uint64
	Succeeded uint64
	Failed    uint64
	LastErr   error
	LastRun   time.Time
}

type publishTask struct {
	reason string
	queued time.Time
}

// PublishQueue runs publish tasks on a single worker goroutine. At most one
// task waits in the queue; enqueuing while one is pending coalesces into it.
type PublishQueue struct {
	pub     domain.Publisher
	tasks   chan publishTask
	timeout time.Duration
	logger  *zap.Logger
	metrics *Metrics

	mu    sync.Mutex
	stats PublishStats
}

// NewPublishQueue creates a queue publishing through pub. Each task gets
// timeout to finish; zero means no limit.
func NewPublishQueue(pub domain.Publisher, timeout time.Duration, logger *zap.Logger, metrics *Metrics) *PublishQueue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublishQueue{
		pub:     pub,
		tasks:   make(chan publishTask, 1),
		timeout: timeout,
		logger:  logger,
		metrics: metrics,
	}
}

// Enqueue schedules a publish and never blocks. It reports false when the
// request was folded into an already pending task.
func (q *PublishQueue) Enqueue(reason string) bool {
	select {
	case q.tasks <- publishTask{reason: reason, queued: time.Now()}:
		q.mu.Lock()
		q.stats.Enqueued++
		q.mu.Unlock()
		return true
	default:
		q.mu.Lock()
		q.stats.Coalesced++
		q.mu.Unlock()
		q.metrics.RecordPublish("coalesced")
		return false
	}
}

// Run processes tasks until ctx is cancelled.
func (q *PublishQueue) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-q.tasks:
			q.run(ctx, t)
		}
	}
}

// Stats returns a snapshot of the worker statistics.
func (q *PublishQueue) Stats() PublishStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stats
}

func (q *PublishQueue) run(ctx context.Context, t publishTask) {
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}

	start := time.Now()
	err := q.pub.Publish(ctx)

	q.mu.Lock()
	q.stats.LastRun = start
	if err != nil {
		q.stats.Failed++
		q.stats.LastErr = err
	} else {
		q.stats.Succeeded++
	}
	q.mu.Unlock()

	fields := []zap.Field{
		zap.String("reason", t.reason),
		zap.Duration("waited", start.Sub(t.queued)),
		zap.Duration("duration", time.Since(start)),
	}
	if err != nil {
		q.metrics.RecordPublish("error")
		q.logger.Error("publish failed", append(fields, zap.Error(err))...)
		return
	}
	q.metrics.RecordPublish("ok")
	q.logger.Info("published charts", fields...)
}
