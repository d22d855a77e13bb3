package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/guffzilla/wartest-sub004/internal/logger"
)

// Job is a unit of background work.
type Job interface {
	Run(context.Context) error
	Name() string
}

// Pool runs jobs on a fixed set of workers fed from a bounded queue.
type Pool struct {
	jobs    chan Job
	wg      sync.WaitGroup
	workers int
	cancel  context.CancelFunc
	log     zerolog.Logger
}

func NewPool(workers, queueSize int, log zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = 2
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	plog := logger.Component(log, "worker-pool")
	plog.Debug().Int("workers", workers).Int("queue_size", queueSize).Msg("creating worker pool")
	return &Pool{
		jobs:    make(chan Job, queueSize),
		workers: workers,
		log:     plog,
	}
}

func (p *Pool) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.log.Info().Int("workers", p.workers).Msg("starting worker pool")

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			workerLog := p.log.With().Int("worker_id", id).Logger()
			workerLog.Debug().Msg("worker started")

			for {
				select {
				case <-ctx.Done():
					workerLog.Debug().Msg("worker shutting down (context cancelled)")
					return
				case job, ok := <-p.jobs:
					if !ok {
						workerLog.Debug().Msg("worker shutting down (queue drained)")
						return
					}

					jobLog := workerLog.With().Str("job", job.Name()).Logger()
					jobLog.Debug().Msg("starting job")
					start := time.Now()

					jobCtx := logger.NewContext(ctx, jobLog)

					if err := job.Run(jobCtx); err != nil {
						jobLog.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("job failed")
					} else {
						jobLog.Debug().Dur("elapsed", time.Since(start)).Msg("job completed")
					}
				}
			}
		}(i + 1)
	}
}

// Stop closes the queue, waits for the workers to drain it, then releases
// their context. Queued jobs always run before shutdown completes.
func (p *Pool) Stop() {
	p.log.Info().Msg("stopping worker pool")
	close(p.jobs)
	p.wg.Wait()
	if p.cancel != nil {
		p.cancel()
	}
	p.log.Info().Msg("worker pool stopped")
}

func (p *Pool) Submit(job Job) {
	p.log.Debug().Str("job", job.Name()).Msg("submitting job")
	p.jobs <- job
}

// QueueSize returns the current number of pending jobs.
func (p *Pool) QueueSize() int {
	return len(p.jobs)
}
