package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"prompt-matrix/internal/metrics"
	"prompt-matrix/internal/models"
	"prompt-matrix/internal/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGenerator records every prompt it runs
type fakeGenerator struct {
	mu      sync.Mutex
	calls   []string
	fail    map[string]bool
	onCall  func(p models.Parameters)
	running func() (models.Job, bool)
	overlap bool
}

func (g *fakeGenerator) Generate(ctx context.Context, p models.Parameters) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, p.Prompt)
	g.mu.Unlock()

	if g.running != nil {
		if cur, ok := g.running(); !ok || cur.Params.Prompt != p.Prompt {
			g.overlap = true
		}
	}
	if g.onCall != nil {
		g.onCall(p)
	}
	if g.fail[p.Prompt] {
		return "", errors.New("generation failed")
	}
	return p.Prompt + ".png", nil
}

func (g *fakeGenerator) prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

type workerFixture struct {
	queue      *queue.Queue
	controller *queue.Controller
	history    *HistoryService
	metrics    *metrics.Metrics
	generator  *fakeGenerator
	worker     *WorkerService
}

func newWorkerFixture(t *testing.T, jobs ...string) *workerFixture {
	t.Helper()
	f := &workerFixture{
		queue:      queue.New(),
		controller: queue.NewController(),
		history:    newTestHistory(t, newMockStore()),
		metrics:    metrics.NewMetrics(),
		generator:  &fakeGenerator{fail: map[string]bool{}},
	}
	for _, p := range jobs {
		f.queue.Enqueue(models.Job{Params: models.Parameters{Prompt: p}})
	}
	f.worker = NewWorkerService(f.queue, f.controller, f.generator, f.history, f.metrics, nopLogger())
	return f
}

func TestWorkerService_DrainRunsPendingInOrder(t *testing.T) {
	f := newWorkerFixture(t, "a", "b", "c")
	f.generator.running = f.queue.Current

	require.NoError(t, f.worker.Drain(context.Background()))

	assert.Equal(t, []string{"a", "b", "c"}, f.generator.prompts())
	assert.False(t, f.generator.overlap, "exactly one job runs at a time")
	for _, j := range f.queue.List() {
		assert.Equal(t, models.StatusCompleted, j.Status)
		assert.Equal(t, j.Params.Prompt+".png", j.ImageName)
		assert.NotNil(t, j.Elapsed)
	}
	assert.Equal(t, int64(3), f.metrics.GetSnapshot().CompletedJobs)
	assert.Equal(t, 3, f.history.Len())
	assert.False(t, f.controller.Processing())
}

func TestWorkerService_DrainPassesOverSkipped(t *testing.T) {
	f := newWorkerFixture(t, "a", "b", "c")
	b := f.queue.List()[1]
	f.queue.ToggleSkip(b.ID)

	require.NoError(t, f.worker.Drain(context.Background()))

	assert.Equal(t, []string{"a", "c"}, f.generator.prompts())
	got, _ := f.queue.Get(b.ID)
	assert.Equal(t, models.StatusSkipped, got.Status)
}

func TestWorkerService_FailedJobIsNotRetried(t *testing.T) {
	f := newWorkerFixture(t, "a", "bad", "c")
	f.generator.fail["bad"] = true

	require.NoError(t, f.worker.Drain(context.Background()))
	require.NoError(t, f.worker.Drain(context.Background()))

	assert.Equal(t, []string{"a", "bad", "c"}, f.generator.prompts())
	assert.Equal(t, []models.JobStatus{models.StatusCompleted, models.StatusFailed, models.StatusCompleted},
		[]models.JobStatus{f.queue.List()[0].Status, f.queue.List()[1].Status, f.queue.List()[2].Status})
	assert.Equal(t, int64(1), f.metrics.GetSnapshot().FailedJobs)
	assert.Equal(t, 2, f.history.Len())
}

func TestWorkerService_StopBetweenJobs(t *testing.T) {
	f := newWorkerFixture(t, "a", "b", "c")
	f.generator.onCall = func(p models.Parameters) {
		if p.Prompt == "a" {
			f.controller.RequestStop()
		}
	}

	require.NoError(t, f.worker.Drain(context.Background()))

	assert.Equal(t, []string{"a"}, f.generator.prompts())
	jobs := f.queue.List()
	assert.Equal(t, models.StatusCompleted, jobs[0].Status, "the running job finishes")
	assert.Equal(t, models.StatusPending, jobs[1].Status)
	assert.Equal(t, models.StatusPending, jobs[2].Status)
	assert.False(t, f.controller.StopRequested())
}

func TestWorkerService_StaleStopIgnored(t *testing.T) {
	f := newWorkerFixture(t, "a", "b")
	f.controller.RequestStop()

	require.NoError(t, f.worker.Drain(context.Background()))

	assert.Equal(t, []string{"a", "b"}, f.generator.prompts())
}

func TestWorkerService_CancelledJobReturnsToPending(t *testing.T) {
	f := newWorkerFixture(t, "a", "b")
	ctx, cancel := context.WithCancel(context.Background())
	f.generator.onCall = func(models.Parameters) { cancel() }

	err := f.worker.Drain(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"a"}, f.generator.prompts())
	interrupted := f.queue.List()[0]
	assert.Equal(t, models.StatusPending, interrupted.Status)
	assert.Nil(t, interrupted.StartedAt)
	_, running := f.queue.Current()
	assert.False(t, running)
}

func TestWorkerService_ProcessJobsOnStart(t *testing.T) {
	f := newWorkerFixture(t, "a", "b")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- f.worker.ProcessJobs(ctx, time.Hour) }()

	// nothing runs until a start is requested
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, f.generator.prompts())

	f.controller.RequestStart()
	assert.Eventually(t, func() bool {
		return len(f.generator.prompts()) == 2 && !f.controller.Processing()
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("ProcessJobs did not return after cancel")
	}
}

func TestWorkerService_ProcessJobsWithoutPolling(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Second} {
		f := newWorkerFixture(t, "a")
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() { done <- f.worker.ProcessJobs(ctx, interval) }()

		f.controller.RequestStart()
		assert.Eventually(t, func() bool {
			return len(f.generator.prompts()) == 1 && !f.controller.Processing()
		}, time.Second, 5*time.Millisecond, "interval %v", interval)

		cancel()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(time.Second):
			t.Fatalf("ProcessJobs did not return after cancel with interval %v", interval)
		}
	}
}
