package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"prompt-matrix/internal/models"
	"prompt-matrix/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrRunNotFound   = errors.New("run not found")
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)

// Sort orders accepted by HistoryService.List. OrderAsc lists the newest run
// first and OrderDesc the oldest first.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// HistoryService keeps the finished runs
type HistoryService struct {
	mu     sync.RWMutex
	runs   []models.Run
	store  repository.Store
	logger zerolog.Logger
}

// NewHistoryService creates a history service and loads the persisted runs
func NewHistoryService(ctx context.Context, store repository.Store, logger zerolog.Logger) (*HistoryService, error) {
	s := &HistoryService{store: store, logger: logger}

	if _, err := repository.LoadJSON(ctx, store, repository.KeyRuns, &s.runs); err != nil {
		if !errors.Is(err, repository.ErrCorruptSnapshot) {
			return nil, err
		}
		logger.Warn().Err(err).Msg("discarding unreadable run history")
		s.runs = nil
	}

	return s, nil
}

// Push records a finished run and returns the stored copy
func (s *HistoryService) Push(ctx context.Context, run models.Run) (models.Run, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	return run, s.save(ctx)
}

// Remove deletes the run with the given id; unknown ids are ignored
func (s *HistoryService) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ix := s.index(id)
	if ix < 0 {
		return nil
	}
	s.runs = slices.Delete(s.runs, ix, ix+1)
	return s.save(ctx)
}

// Clear drops the whole history
func (s *HistoryService) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = nil
	return s.save(ctx)
}

// Rate sets the user rating of a run
func (s *HistoryService) Rate(ctx context.Context, id string, rating models.Rating) error {
	if !rating.Valid() {
		return ErrInvalidRating
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ix := s.index(id)
	if ix < 0 {
		return ErrRunNotFound
	}
	s.runs[ix].Rating = rating
	return s.save(ctx)
}

// Get returns the run with the given id
func (s *HistoryService) Get(id string) (models.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ix := s.index(id); ix > -1 {
		return s.runs[ix], nil
	}
	return models.Run{}, ErrRunNotFound
}

// List returns the runs whose prompt contains filter, ignoring case, sorted
// by end time. An unknown order is treated as OrderAsc.
func (s *HistoryService) List(filter, order string) []models.Run {
	s.mu.RLock()
	out := make([]models.Run, 0, len(s.runs))
	needle := strings.ToLower(filter)
	for _, r := range s.runs {
		if needle == "" || strings.Contains(strings.ToLower(r.Params.Prompt), needle) {
			out = append(out, r)
		}
	}
	s.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b models.Run) int {
		if order == OrderDesc {
			return a.EndedAt.Compare(b.EndedAt)
		}
		return b.EndedAt.Compare(a.EndedAt)
	})
	return out
}

// Len returns the number of runs
func (s *HistoryService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

func (s *HistoryService) save(ctx context.Context) error {
	if err := repository.SaveJSON(ctx, s.store, repository.KeyRuns, s.runs); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist run history")
		return err
	}
	return nil
}

func (s *HistoryService) index(id string) int {
	return slices.IndexFunc(s.runs, func(r models.Run) bool { return r.ID == id })
}
