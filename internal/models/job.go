package models

import "time"

// JobStatus represents the state of a job
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusSkipped   JobStatus = "skipped"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Valid reports whether s is one of the known statuses
func (s JobStatus) Valid() bool {
	switch s {
	case StatusPending, StatusSkipped, StatusRunning, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether the status is Completed or Failed
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Parameters is the fixed set of txt2img generation parameters for one job
type Parameters struct {
	Prompt  string  `json:"prompt"`
	Steps   int     `json:"steps"`   // --ddim_steps
	Scale   float64 `json:"scale"`   // --scale
	Iter    int     `json:"iter"`    // --n_iter
	Samples int     `json:"samples"` // --n_samples
	Height  int     `json:"height"`  // --H
	Width   int     `json:"width"`   // --W
	Seed    int64   `json:"seed"`    // --seed
}

// Job is one queued generation request
type Job struct {
	ID        string         `json:"id"`
	Params    Parameters     `json:"run"`
	Status    JobStatus      `json:"status"`
	StartedAt *time.Time     `json:"started_at,omitempty"`
	EndedAt   *time.Time     `json:"ended_at,omitempty"`
	Elapsed   *time.Duration `json:"elapsed,omitempty"`
	ImageName string         `json:"image_name,omitempty"`
	Rating    Rating         `json:"rating,omitempty"`
}

// Clone returns a deep copy so queue snapshots never alias queue storage
func (j Job) Clone() Job {
	c := j
	if j.StartedAt != nil {
		t := *j.StartedAt
		c.StartedAt = &t
	}
	if j.EndedAt != nil {
		t := *j.EndedAt
		c.EndedAt = &t
	}
	if j.Elapsed != nil {
		d := *j.Elapsed
		c.Elapsed = &d
	}
	return c
}

// EnqueueRequest represents a request to queue a single parameter set
type EnqueueRequest struct {
	Params Parameters `json:"params"`
}

// EnqueueMatrixRequest queues every expansion of the working prompt
type EnqueueMatrixRequest struct {
	Params     *Parameters `json:"params,omitempty"`
	Force      bool        `json:"force,omitempty"`
	RandomSeed bool        `json:"random_seed,omitempty"`
}

// UpdateStatusRequest is the body of a status transition reported by a runner
type UpdateStatusRequest struct {
	Status JobStatus `json:"status"`
}
