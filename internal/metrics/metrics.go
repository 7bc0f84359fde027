// Package metrics keeps in-process counters for the job queue.
package metrics

import (
	"sync"

	"prompt-matrix/internal/models"
)

// Snapshot is a point-in-time copy of the counters and queue gauges
type Snapshot struct {
	// Lifetime counters
	EnqueuedJobs  int64 `json:"enqueued_jobs"`
	CompletedJobs int64 `json:"completed_jobs"`
	FailedJobs    int64 `json:"failed_jobs"`
	SkippedJobs   int64 `json:"skipped_jobs"`

	// Gauges from the last observed queue state
	QueueLength int `json:"queue_length"`
	PendingJobs int `json:"pending_jobs"`
	RunningJobs int `json:"running_jobs"`
}

// Metrics tracks job throughput and the shape of the queue
type Metrics struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{}
}

// AddEnqueuedJobs counts n newly queued jobs
func (m *Metrics) AddEnqueuedJobs(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.EnqueuedJobs += int64(n)
}

// IncrementCompletedJobs counts a job the runner finished
func (m *Metrics) IncrementCompletedJobs() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.CompletedJobs++
}

// IncrementFailedJobs counts a job whose generation failed
func (m *Metrics) IncrementFailedJobs() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.FailedJobs++
}

// IncrementSkippedJobs counts a job marked Skipped
func (m *Metrics) IncrementSkippedJobs() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.SkippedJobs++
}

// ObserveQueue replaces the queue gauges with the counts in jobs
func (m *Metrics) ObserveQueue(jobs []models.Job) {
	var pending, running int
	for _, j := range jobs {
		switch j.Status {
		case models.StatusPending:
			pending++
		case models.StatusRunning:
			running++
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.QueueLength = len(jobs)
	m.snap.PendingJobs = pending
	m.snap.RunningJobs = running
}

// GetSnapshot returns a copy of every counter and gauge
func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap
}
