package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"titleboost/internal/core/domain"
)

// Store implements ports.JobStore in memory.
type Store struct {
	mu   sync.Mutex
	jobs map[string]*domain.Job
}

// New creates an empty Store.
func New() *Store {
	return &Store{jobs: make(map[string]*domain.Job)}
}

func (s *Store) Get(_ context.Context, jobID string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrJobNotFound, jobID)
	}
	return job.Clone(), nil
}

func (s *Store) Create(_ context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.JobID]; ok {
		return fmt.Errorf("%w: %s", domain.ErrJobExists, job.JobID)
	}
	job.Version = 1
	s.jobs[job.JobID] = job.Clone()
	return nil
}

func (s *Store) Set(_ context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.jobs[job.JobID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrJobNotFound, job.JobID)
	}
	if current.Version != job.Version {
		return fmt.Errorf("%w: %s (have v%d, stored v%d)", domain.ErrVersionConflict, job.JobID, job.Version, current.Version)
	}
	job.Version++
	job.UpdatedAt = time.Now().UTC()
	s.jobs[job.JobID] = job.Clone()
	return nil
}

// Len returns the number of stored jobs.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}
