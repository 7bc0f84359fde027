package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"prompt-matrix/internal/metrics"
	"prompt-matrix/internal/models"
	"prompt-matrix/internal/prompt"
	"prompt-matrix/internal/queue"
	"prompt-matrix/internal/repository"
	"prompt-matrix/internal/txt2img"

	"github.com/rs/zerolog"
)

var (
	ErrJobNotFound       = errors.New("job not found")
	ErrEmptyPrompt       = errors.New("prompt is required")
	ErrNotReady          = errors.New("prompt has unbound variables")
	ErrEmptyExpansion    = errors.New("prompt expands to no jobs")
	ErrExpansionTooLarge = errors.New("expansion exceeds the job limit")
	ErrInvalidStatus     = errors.New("invalid job status")
)

// JobService owns the working prompt, its variable bindings, the job queue
// and the queue controller. The queue is loaded from the store when the
// service is created and written back after every queue mutation.
type JobService struct {
	mu         sync.RWMutex
	promptText string
	bindings   *prompt.Bindings

	queue      *queue.Queue
	controller *queue.Controller

	store   repository.Store
	flushMu sync.Mutex

	guard   *ExpansionGuard
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewJobService creates a new job service and restores the persisted queue
func NewJobService(ctx context.Context, store repository.Store, guard *ExpansionGuard, metrics *metrics.Metrics, logger zerolog.Logger) (*JobService, error) {
	s := &JobService{
		bindings:   prompt.NewBindings(),
		queue:      queue.New(),
		controller: queue.NewController(),
		store:      store,
		guard:      guard,
		metrics:    metrics,
		logger:     logger,
	}

	var jobs []models.Job
	if _, err := repository.LoadJSON(ctx, store, repository.KeyQueue, &jobs); err != nil {
		if !errors.Is(err, repository.ErrCorruptSnapshot) {
			return nil, err
		}
		logger.Warn().Err(err).Msg("discarding unreadable queue snapshot")
		jobs = nil
	}
	s.queue.Restore(jobs)
	s.metrics.ObserveQueue(s.queue.List())
	s.queue.Subscribe(func(jobs []models.Job) {
		s.metrics.ObserveQueue(jobs)
		if err := s.Flush(context.Background()); err != nil {
			s.logger.Error().Err(err).Msg("failed to persist queue")
		}
	})

	logger.Info().Int("jobs", len(jobs)).Msg("queue restored")
	return s, nil
}

// Flush writes the current queue to the store
func (s *JobService) Flush(ctx context.Context) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()
	// Read under the flush lock so the last write always carries the latest state.
	return repository.SaveJSON(ctx, s.store, repository.KeyQueue, s.queue.List())
}

// SetPrompt replaces the working prompt
func (s *JobService) SetPrompt(p string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promptText = p
}

// Prompt returns the working prompt
func (s *JobService) Prompt() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.promptText
}

// Tokens returns every token occurrence in the working prompt
func (s *JobService) Tokens() []string {
	return prompt.ExtractTokens(s.Prompt())
}

// TokenNames returns the distinct token names in the working prompt
func (s *JobService) TokenNames() []string {
	return prompt.TokenNames(s.Prompt())
}

// UpsertVariable binds values to name
func (s *JobService) UpsertVariable(name string, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bindings.Upsert(prompt.Variable{Name: name, Values: values})
}

// RemoveVariable drops the binding for name
func (s *JobService) RemoveVariable(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bindings.Remove(name)
}

// ClearVariables drops every binding
func (s *JobService) ClearVariables() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bindings.Clear()
}

// Variables returns the bindings in insertion order
func (s *JobService) Variables() []prompt.Variable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bindings.List()
}

// Expand builds the prompt matrix for the working prompt
func (s *JobService) Expand() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return prompt.Build(s.promptText, s.bindings.List())
}

// ExpansionSize is the number of strings Expand would return
func (s *JobService) ExpansionSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.promptText == "" {
		return 0
	}
	return prompt.ExpansionSize(s.bindings.List())
}

// Ready reports whether every token in the working prompt is bound
func (s *JobService) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return prompt.IsReady(prompt.TokenNames(s.promptText), s.bindings.List())
}

// Enqueue queues a single parameter set
func (s *JobService) Enqueue(params models.Parameters) (models.Job, error) {
	if strings.TrimSpace(params.Prompt) == "" {
		return models.Job{}, ErrEmptyPrompt
	}

	job := s.queue.Enqueue(models.Job{Params: txt2img.WithDefaults(params)})
	s.metrics.AddEnqueuedJobs(1)
	s.logger.Info().Str("job_id", job.ID).Str("prompt", job.Params.Prompt).Msg("job queued")
	return job, nil
}

// EnqueueMatrix queues one job per expanded prompt, in expansion order.
// base supplies every parameter except the prompt; nil means form defaults.
func (s *JobService) EnqueueMatrix(req models.EnqueueMatrixRequest) ([]models.Job, error) {
	s.mu.RLock()
	text := s.promptText
	vars := s.bindings.List()
	s.mu.RUnlock()

	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyPrompt
	}

	if missing := prompt.Missing(prompt.TokenNames(text), vars); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotReady, strings.Join(missing, ", "))
	}

	size := prompt.ExpansionSize(vars)
	if size == 0 {
		return nil, ErrEmptyExpansion
	}

	warn, err := s.guard.Check(size, req.Force)
	if warn {
		s.logger.Warn().Int("jobs", size).Bool("force", req.Force).Msg("large prompt matrix")
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %d jobs", err, size)
	}

	base := txt2img.DefaultParameters("")
	if req.Params != nil {
		base = txt2img.WithDefaults(*req.Params)
	}

	expanded := prompt.Build(text, vars)
	jobs := make([]models.Job, len(expanded))
	for i, p := range expanded {
		params := base
		params.Prompt = p
		if req.RandomSeed {
			params.Seed = txt2img.RandomSeed(txt2img.MaxSeed)
		}
		jobs[i] = models.Job{Params: params}
	}

	added := s.queue.EnqueueAll(jobs)
	s.metrics.AddEnqueuedJobs(len(added))
	s.logger.Info().Int("jobs", len(added)).Str("prompt", text).Msg("prompt matrix queued")
	return added, nil
}

// Get returns the job with the given id
func (s *JobService) Get(id string) (models.Job, error) {
	job, ok := s.queue.Get(id)
	if !ok {
		return models.Job{}, ErrJobNotFound
	}
	return job, nil
}

// Remove drops a job from the queue
func (s *JobService) Remove(id string) {
	s.queue.Remove(id)
	s.logger.Debug().Str("job_id", id).Msg("job removed")
}

// ToggleSkip flips a job between Pending and Skipped
func (s *JobService) ToggleSkip(id string) {
	s.queue.ToggleSkip(id)
	if job, ok := s.queue.Get(id); ok && job.Status == models.StatusSkipped {
		s.metrics.IncrementSkippedJobs()
	}
}

// UpdateStatus applies a status reported by a runner
func (s *JobService) UpdateStatus(id string, status models.JobStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if err := s.queue.UpdateStatus(id, status); err != nil {
		return err
	}
	s.logger.Debug().Str("job_id", id).Str("status", string(status)).Msg("job status updated")
	return nil
}

// ClearCompleted removes finished jobs
func (s *JobService) ClearCompleted() {
	s.queue.ClearCompleted()
}

// Clear empties the queue
func (s *JobService) Clear() {
	s.queue.Clear()
	s.logger.Info().Msg("queue cleared")
}

// Jobs returns the queue in execution order
func (s *JobService) Jobs() []models.Job {
	return s.queue.List()
}

// Incomplete returns every job that is not Completed
func (s *JobService) Incomplete() []models.Job {
	return s.queue.Incomplete()
}

// Current returns the Running job, if any
func (s *JobService) Current() (models.Job, bool) {
	return s.queue.Current()
}

// Queue exposes the owned queue to the runner
func (s *JobService) Queue() *queue.Queue {
	return s.queue
}

// Controller exposes the start/stop signals
func (s *JobService) Controller() *queue.Controller {
	return s.controller
}
