package service

import (
	"context"
	"errors"
	"time"

	"prompt-matrix/internal/metrics"
	"prompt-matrix/internal/models"
	"prompt-matrix/internal/queue"

	"github.com/rs/zerolog"
)

// Generator runs one parameter set and returns a reference to the result
type Generator interface {
	Generate(ctx context.Context, p models.Parameters) (string, error)
}

// WorkerService drains the queue one job at a time
type WorkerService struct {
	queue      *queue.Queue
	controller *queue.Controller
	generator  Generator
	history    *HistoryService
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewWorkerService creates a new worker service
func NewWorkerService(q *queue.Queue, controller *queue.Controller, generator Generator, history *HistoryService, metrics *metrics.Metrics, logger zerolog.Logger) *WorkerService {
	return &WorkerService{
		queue:      q,
		controller: controller,
		generator:  generator,
		history:    history,
		metrics:    metrics,
		logger:     logger,
	}
}

// ProcessJobs waits for start requests and drains the queue for each one.
// A non-positive pollInterval disables polling so only wake-ups are seen.
// It returns when ctx is done.
func (s *WorkerService) ProcessJobs(ctx context.Context, pollInterval time.Duration) error {
	for {
		var poll <-chan time.Time
		if pollInterval > 0 {
			poll = time.After(pollInterval)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.controller.Wake():
		case <-poll:
		}

		if !s.controller.ConsumeStart() {
			continue
		}

		if err := s.Drain(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error().Err(err).Msg("queue drain stopped")
		}
	}
}

// Drain runs Pending jobs in queue order until none is left or a stop is
// requested. A stop is only observed between jobs.
func (s *WorkerService) Drain(ctx context.Context) error {
	s.controller.SetProcessing(true)
	defer s.controller.SetProcessing(false)

	// a stop that arrived while idle does not cancel this run
	s.controller.ConsumeStop()

	s.logger.Info().Int("jobs", len(s.queue.Incomplete())).Msg("queue started")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.controller.ConsumeStop() {
			s.logger.Info().Msg("queue stopped")
			return nil
		}

		job, ok := s.queue.NextPending()
		if !ok {
			s.logger.Info().Msg("queue drained")
			return nil
		}

		if err := s.processJob(ctx, job); err != nil {
			return err
		}
	}
}

// processJob runs a single job and records its outcome
func (s *WorkerService) processJob(ctx context.Context, job models.Job) error {
	if err := s.queue.UpdateStatus(job.ID, models.StatusRunning); err != nil {
		return err
	}
	s.logger.Info().Str("job_id", job.ID).Str("prompt", job.Params.Prompt).Msg("job started")

	imageName, err := s.generator.Generate(ctx, job.Params)
	if ctx.Err() != nil {
		// shutdown interrupted the job; it runs again on the next start
		_ = s.queue.UpdateStatus(job.ID, models.StatusPending)
		return ctx.Err()
	}

	if err != nil {
		if ferr := s.queue.UpdateStatus(job.ID, models.StatusFailed); ferr != nil {
			return errors.Join(err, ferr)
		}
		s.metrics.IncrementFailedJobs()
		s.logger.Error().Err(err).Str("job_id", job.ID).Msg("job failed")
		return nil
	}

	if err := s.queue.Finish(job.ID, models.StatusCompleted, imageName); err != nil {
		return err
	}
	s.metrics.IncrementCompletedJobs()

	done, ok := s.queue.Get(job.ID)
	if !ok {
		// removed while running
		return nil
	}
	s.logger.Info().Str("job_id", job.ID).Str("image", imageName).Msg("job completed")

	if s.history != nil {
		if _, err := s.history.Push(ctx, runFromJob(done)); err != nil {
			s.logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to record run")
		}
	}
	return nil
}

func runFromJob(job models.Job) models.Run {
	run := models.Run{
		ID:        job.ID,
		Params:    job.Params,
		ImageName: job.ImageName,
		Rating:    job.Rating,
	}
	if job.StartedAt != nil {
		run.StartedAt = *job.StartedAt
	}
	if job.EndedAt != nil {
		run.EndedAt = *job.EndedAt
	}
	if job.Elapsed != nil {
		run.Elapsed = *job.Elapsed
	}
	return run
}
