package async

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/joseph-ayodele/receipts-monitor/internal/common"
	"github.com/joseph-ayodele/receipts-monitor/internal/entity"
	"github.com/joseph-ayodele/receipts-monitor/internal/pipeline"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = eris.New("queue closed")

// DocumentProcessor is what workers run for every job.
type DocumentProcessor interface {
	Process(ctx context.Context, doc entity.Document) (pipeline.Result, error)
}

// Pool is a fixed-size worker pool over a bounded job channel.
type Pool struct {
	proc     DocumentProcessor
	jobs     chan Job
	workers  int
	logger   *zap.Logger
	onResult func(Job, pipeline.Result, error)

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

func WithWorkers(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

func WithQueueSize(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.jobs = make(chan Job, n)
		}
	}
}

func WithLogger(l *zap.Logger) PoolOption {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithResultHandler is called from the worker goroutine after each job.
func WithResultHandler(fn func(Job, pipeline.Result, error)) PoolOption {
	return func(p *Pool) { p.onResult = fn }
}

// NewPool starts the workers. They run until Shutdown.
func NewPool(proc DocumentProcessor, opts ...PoolOption) *Pool {
	p := &Pool{
		proc:    proc,
		jobs:    make(chan Job, 64),
		workers: 2,
		logger:  zap.NewNop(),
	}
	for _, o := range opts {
		o(p)
	}
	p.ctx, p.cancel = context.WithCancel(context.Background())
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.work(i)
	}
	p.logger.Info("async.pool.started", zap.Int("workers", p.workers), zap.Int("queue_size", cap(p.jobs)))
	return p
}

var _ Queue = (*Pool)(nil)

// Enqueue blocks while the queue is full, until ctx is done.
func (p *Pool) Enqueue(ctx context.Context, job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrQueueClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	if job.TraceID == "" {
		job.TraceID = uuid.NewString()
	}
	select {
	case p.jobs <- job:
		return nil
	case <-ctx.Done():
		return eris.Wrap(ctx.Err(), "enqueue")
	}
}

// Shutdown stops intake and waits for queued jobs to drain. If ctx ends
// first, in-flight jobs are cancelled.
func (p *Pool) Shutdown(ctx context.Context) {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		p.cancel()
		<-done
	}
	p.cancel()
	p.logger.Info("async.pool.stopped")
}

func (p *Pool) work(id int) {
	defer p.wg.Done()
	for job := range p.jobs {
		if p.ctx.Err() != nil {
			return
		}
		ctx := common.WithRequestID(p.ctx, job.TraceID)
		res, err := p.proc.Process(ctx, job.Document)
		if err != nil {
			p.logger.Warn("async.job.failed",
				zap.Int("worker", id),
				zap.String("trace_id", job.TraceID),
				zap.String("document", job.Document.Name),
				zap.Error(err))
		} else {
			p.logger.Debug("async.job.done",
				zap.Int("worker", id),
				zap.String("trace_id", job.TraceID),
				zap.Duration("queued", time.Since(job.SubmittedAt)))
		}
		if p.onResult != nil {
			p.onResult(job, res, err)
		}
	}
}
