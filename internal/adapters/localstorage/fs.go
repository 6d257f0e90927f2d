package localstorage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"titleboost/internal/core/domain"
)

const (
	jobFileName   = "job.json"
	inputFileName = "input.json"
)

// LocalStorage implements ports.JobStore on the local filesystem, one
// directory per job. Writes go through a temp file and rename, and a
// process-wide mutex makes the version check and the write a single step.
type LocalStorage struct {
	BaseDir string

	mu sync.Mutex
}

// NewLocalStorage creates a new LocalStorage instance.
func NewLocalStorage(baseDir string) *LocalStorage {
	return &LocalStorage{BaseDir: baseDir}
}

// Get reads the job record.
func (s *LocalStorage) Get(_ context.Context, jobID string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(jobID)
}

// Create makes the job directory and writes the submission and the first record.
func (s *LocalStorage) Create(_ context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.GetJobPath(job.JobID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create jobs directory: %w", err)
	}
	if err := os.Mkdir(path, 0755); err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%w: %s", domain.ErrJobExists, job.JobID)
		}
		return fmt.Errorf("failed to create job directory %s: %w", path, err)
	}

	input := map[string]string{
		"job_id":     job.JobID,
		"channel":    job.Channel,
		"email":      job.Email,
		"created_at": job.CreatedAt.Format(time.RFC3339),
	}
	if err := saveJSON(filepath.Join(path, inputFileName), input); err != nil {
		_ = os.RemoveAll(path)
		return err
	}

	job.Version = 1
	if err := saveJSON(filepath.Join(path, jobFileName), job); err != nil {
		_ = os.RemoveAll(path)
		job.Version = 0
		return err
	}
	return nil
}

// Set replaces the record if job.Version still matches what is on disk.
func (s *LocalStorage) Set(_ context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read(job.JobID)
	if err != nil {
		return err
	}
	if current.Version != job.Version {
		return fmt.Errorf("%w: %s (have v%d, stored v%d)", domain.ErrVersionConflict, job.JobID, job.Version, current.Version)
	}

	next := job.Clone()
	next.Version++
	next.UpdatedAt = time.Now().UTC()
	if err := saveJSON(filepath.Join(s.GetJobPath(job.JobID), jobFileName), next); err != nil {
		return err
	}
	job.Version = next.Version
	job.UpdatedAt = next.UpdatedAt
	return nil
}

// GetJobPath returns the path for a job directory.
func (s *LocalStorage) GetJobPath(jobID string) string {
	return filepath.Join(s.BaseDir, "jobs", jobID)
}

func (s *LocalStorage) read(jobID string) (*domain.Job, error) {
	path := filepath.Join(s.GetJobPath(jobID), jobFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrJobNotFound, jobID)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var job domain.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if job.SchemaVersion > domain.SchemaVersion {
		return nil, fmt.Errorf("%w %d in %s", domain.ErrUnsupportedSchema, job.SchemaVersion, path)
	}
	return &job, nil
}

// saveJSON is swapped out in tests to simulate a failing disk.
var saveJSON = writeJSON

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), ".job-tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to save %s: %w", filepath.Base(path), err)
	}
	return nil
}
