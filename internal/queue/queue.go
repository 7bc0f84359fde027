// Package queue holds the ordered job queue and the start/stop controller
// that a sequential runner observes.
package queue

import (
	"errors"
	"slices"
	"sync"
	"time"

	"prompt-matrix/internal/models"

	"github.com/google/uuid"
)

// ErrAlreadyRunning is returned when a second job is moved to Running
var ErrAlreadyRunning = errors.New("another job is already running")

// Queue is an ordered collection of jobs. Insertion order is execution order
// and status changes never reorder it.
type Queue struct {
	mu          sync.RWMutex
	jobs        []models.Job
	subscribers []func([]models.Job)
	now         func() time.Time
}

// New creates an empty queue
func New() *Queue {
	return &Queue{now: time.Now}
}

// Subscribe registers fn to receive a snapshot after every mutation.
// fn runs outside the queue lock.
func (q *Queue) Subscribe(fn func([]models.Job)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.subscribers = append(q.subscribers, fn)
}

// Restore replaces the contents with a persisted snapshot without notifying
// subscribers. Jobs left Running by a previous process are reset to Pending.
func (q *Queue) Restore(jobs []models.Job) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.jobs = make([]models.Job, 0, len(jobs))
	for _, j := range jobs {
		j = j.Clone()
		if j.Status == models.StatusRunning {
			q.apply(&j, models.StatusPending)
		}
		q.jobs = append(q.jobs, j)
	}
}

// Enqueue appends job as Pending and returns the stored copy
func (q *Queue) Enqueue(job models.Job) models.Job {
	return q.EnqueueAll([]models.Job{job})[0]
}

// EnqueueAll appends jobs in order as one mutation
func (q *Queue) EnqueueAll(jobs []models.Job) []models.Job {
	if len(jobs) == 0 {
		return []models.Job{}
	}

	added := make([]models.Job, len(jobs))
	for i, job := range jobs {
		job = job.Clone()
		if job.ID == "" {
			job.ID = uuid.New().String()
		}
		job.Status = models.StatusPending
		job.StartedAt = nil
		added[i] = job
	}

	q.mu.Lock()
	for _, job := range added {
		q.jobs = append(q.jobs, job.Clone())
	}
	q.mu.Unlock()

	q.notify()
	return added
}

// Remove deletes the job with the given id; unknown ids are ignored
func (q *Queue) Remove(id string) {
	q.mutate(id, func(ix int) bool {
		q.jobs = slices.Delete(q.jobs, ix, ix+1)
		return true
	})
}

// ToggleSkip flips a job between Pending and Skipped. Other statuses are left alone.
func (q *Queue) ToggleSkip(id string) {
	q.mutate(id, func(ix int) bool {
		switch q.jobs[ix].Status {
		case models.StatusPending:
			q.jobs[ix].Status = models.StatusSkipped
		case models.StatusSkipped:
			q.jobs[ix].Status = models.StatusPending
		default:
			return false
		}
		return true
	})
}

// UpdateStatus sets the status of a job. Moving a job to Running while a
// different job is Running fails with ErrAlreadyRunning; any other change is
// applied as given. Unknown ids are ignored.
func (q *Queue) UpdateStatus(id string, status models.JobStatus) error {
	return q.Finish(id, status, "")
}

// Finish is UpdateStatus that also records the produced artifact name.
func (q *Queue) Finish(id string, status models.JobStatus, imageName string) error {
	var err error
	q.mutate(id, func(ix int) bool {
		if status == models.StatusRunning {
			if cur := q.runningIndex(); cur > -1 && cur != ix {
				err = ErrAlreadyRunning
				return false
			}
		}
		q.apply(&q.jobs[ix], status)
		if imageName != "" {
			q.jobs[ix].ImageName = imageName
		}
		return true
	})
	return err
}

// apply stamps timing on the transition
func (q *Queue) apply(job *models.Job, status models.JobStatus) {
	now := q.now()
	switch {
	case status == models.StatusRunning && job.Status != models.StatusRunning:
		job.StartedAt = &now
		job.EndedAt = nil
		job.Elapsed = nil
	case status.Terminal() && job.StartedAt != nil:
		elapsed := now.Sub(*job.StartedAt)
		job.EndedAt = &now
		job.Elapsed = &elapsed
	case status == models.StatusPending:
		// a pending job has not run yet
		job.StartedAt = nil
		job.EndedAt = nil
		job.Elapsed = nil
	}
	job.Status = status
}

// ClearCompleted removes every Completed job, keeping the order of the rest
func (q *Queue) ClearCompleted() {
	q.mu.Lock()
	before := len(q.jobs)
	q.jobs = slices.DeleteFunc(q.jobs, func(j models.Job) bool {
		return j.Status == models.StatusCompleted
	})
	changed := len(q.jobs) != before
	q.mu.Unlock()

	if changed {
		q.notify()
	}
}

// Clear empties the queue
func (q *Queue) Clear() {
	q.mu.Lock()
	q.jobs = nil
	q.mu.Unlock()
	q.notify()
}

// List returns a copy of every job in queue order
func (q *Queue) List() []models.Job {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.snapshot(func(models.Job) bool { return true })
}

// Incomplete returns every job whose status is not Completed
func (q *Queue) Incomplete() []models.Job {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.snapshot(func(j models.Job) bool { return j.Status != models.StatusCompleted })
}

// Current returns the Running job, if any
func (q *Queue) Current() (models.Job, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if ix := q.runningIndex(); ix > -1 {
		return q.jobs[ix].Clone(), true
	}
	return models.Job{}, false
}

// NextPending returns the first Pending job in queue order
func (q *Queue) NextPending() (models.Job, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	ix := slices.IndexFunc(q.jobs, func(j models.Job) bool { return j.Status == models.StatusPending })
	if ix < 0 {
		return models.Job{}, false
	}
	return q.jobs[ix].Clone(), true
}

// Get returns a copy of the job with the given id
func (q *Queue) Get(id string) (models.Job, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if ix := q.index(id); ix > -1 {
		return q.jobs[ix].Clone(), true
	}
	return models.Job{}, false
}

// Len returns the number of jobs
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.jobs)
}

// mutate runs fn under the write lock when id exists; fn reports whether it changed anything
func (q *Queue) mutate(id string, fn func(ix int) bool) {
	q.mu.Lock()
	ix := q.index(id)
	changed := ix > -1 && fn(ix)
	q.mu.Unlock()

	if changed {
		q.notify()
	}
}

func (q *Queue) notify() {
	q.mu.RLock()
	subs := slices.Clone(q.subscribers)
	snap := q.snapshot(func(models.Job) bool { return true })
	q.mu.RUnlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func (q *Queue) snapshot(keep func(models.Job) bool) []models.Job {
	out := make([]models.Job, 0, len(q.jobs))
	for _, j := range q.jobs {
		if keep(j) {
			out = append(out, j.Clone())
		}
	}
	return out
}

func (q *Queue) index(id string) int {
	return slices.IndexFunc(q.jobs, func(j models.Job) bool { return j.ID == id })
}

func (q *Queue) runningIndex() int {
	return slices.IndexFunc(q.jobs, func(j models.Job) bool { return j.Status == models.StatusRunning })
}
