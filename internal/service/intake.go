package service

import (
	"context"
	"fmt"
	"regexp"

	"github.com/google/uuid"

	"titleboost/internal/core/domain"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Submit validates a request, stores a queued job and emits the submitted event.
func (p *Pipeline) Submit(ctx context.Context, channel, email string) (string, error) {
	if channel == "" || email == "" {
		p.logger.Printf("Invalid request: missing channel or email")
		return "", &domain.ValidationError{Message: "Channel and email are required"}
	}
	if !emailPattern.MatchString(email) {
		p.logger.Printf("Invalid email format: %q", email)
		return "", &domain.ValidationError{Message: "Invalid email format"}
	}

	jobID := "job_" + uuid.New().String()
	job := domain.NewJob(jobID, channel, email, p.opts.Now())

	// Create refuses an existing id, so a collision surfaces as an error.
	if err := p.store.Create(ctx, job); err != nil {
		p.logger.Printf("[JOB %s] ERROR: failed to create job: %v", jobID, err)
		return "", fmt.Errorf("failed to create job: %w", err)
	}
	p.logger.Printf("[JOB %s] Job created for channel %q", jobID, channel)

	ev := domain.Submitted{
		Envelope: domain.Envelope{JobID: jobID, Email: email},
		Channel:  channel,
	}
	if err := p.bus.Publish(ctx, ev); err != nil {
		p.logger.Printf("[JOB %s] ERROR: failed to emit %s: %v", jobID, ev.Topic(), err)
		return "", fmt.Errorf("failed to queue job: %w", err)
	}
	return jobID, nil
}
