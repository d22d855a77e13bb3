package worker_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/guffzilla/wartest-sub004/internal/logger"
	"github.com/guffzilla/wartest-sub004/internal/worker"
)

type slowJob struct {
	ran   *atomic.Int64
	delay time.Duration
}

func (j *slowJob) Run(ctx context.Context) error {
	time.Sleep(j.delay)
	j.ran.Add(1)
	return nil
}

func (j *slowJob) Name() string { return "slow" }

func TestStopDrainsQueuedJobs(t *testing.T) {
	pool := worker.NewPool(1, 16, logger.New("error"))
	pool.Start(context.Background())

	var ran atomic.Int64
	for i := 0; i < 10; i++ {
		pool.Submit(&slowJob{ran: &ran, delay: time.Millisecond})
	}
	pool.Stop()

	assert.Equal(t, int64(10), ran.Load(), "every queued job runs before shutdown")
	assert.Zero(t, pool.QueueSize())
}
