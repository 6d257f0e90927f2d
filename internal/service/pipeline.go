package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"titleboost/internal/core/domain"
	"titleboost/internal/core/ports"
)

const (
	defaultMaxVideos     = 5
	defaultRecipientName = "Creator"
	maxWriteAttempts     = 3
)

// Options tunes the pipeline. Zero values fall back to the defaults above.
type Options struct {
	MaxVideos     int
	RecipientName string
	Now           func() time.Time
}

// Pipeline holds the five stages of a title-suggestion job. Each stage is an
// event handler; stages only talk to each other through the bus and the store.
type Pipeline struct {
	store     ports.JobStore
	bus       ports.EventBus
	lookup    ports.ChannelLookup
	lister    ports.VideoLister
	generator ports.TextGenerator
	mailer    ports.Mailer
	logger    *log.Logger
	opts      Options
}

// NewPipeline creates a new Pipeline.
func NewPipeline(
	store ports.JobStore,
	bus ports.EventBus,
	lookup ports.ChannelLookup,
	lister ports.VideoLister,
	generator ports.TextGenerator,
	mailer ports.Mailer,
	logger *log.Logger,
	opts Options,
) *Pipeline {
	if opts.MaxVideos <= 0 {
		opts.MaxVideos = defaultMaxVideos
	}
	if opts.RecipientName == "" {
		opts.RecipientName = defaultRecipientName
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Pipeline{
		store:     store,
		bus:       bus,
		lookup:    lookup,
		lister:    lister,
		generator: generator,
		mailer:    mailer,
		logger:    logger,
		opts:      opts,
	}
}

// Register subscribes every stage to its predecessor's event.
func (p *Pipeline) Register() {
	p.bus.Subscribe(domain.TopicSubmitted, ports.On(p.HandleSubmitted))
	p.bus.Subscribe(domain.TopicResolved, ports.On(p.HandleResolved))
	p.bus.Subscribe(domain.TopicFetched, ports.On(p.HandleFetched))
	p.bus.Subscribe(domain.TopicReady, ports.On(p.HandleReady))

	for _, topic := range domain.FailureTopics {
		p.bus.Subscribe(topic, p.logFailure)
	}
	p.bus.Subscribe(domain.TopicSent, ports.On(func(_ context.Context, ev domain.Sent) error {
		p.logger.Printf("[JOB %s] Pipeline finished, email to %s: %q", ev.JobID, ev.Email, ev.Subject)
		return nil
	}))
}

func (p *Pipeline) logFailure(_ context.Context, ev domain.Event) error {
	env := domain.EnvelopeOf(ev)
	var msg string
	switch e := ev.(type) {
	case domain.ResolutionFailed:
		msg = e.Error
	case domain.FetchFailed:
		msg = e.Error
	case domain.GenerationFailed:
		msg = e.Error
	}
	p.logger.Printf("[JOB %s] %s: %s", env.JobID, ev.Topic(), msg)
	return nil
}

// advance performs one read-check-merge-write cycle on a job. The transition
// is re-validated against a fresh read whenever another writer won the race.
// A refused transition returns the record as read, next to the error.
func (p *Pipeline) advance(ctx context.Context, jobID string, to domain.Status, mutate func(*domain.Job)) (*domain.Job, error) {
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		job, err := p.store.Get(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if err := job.Transition(to); err != nil {
			return job, err
		}
		if mutate != nil {
			mutate(job)
		}
		err = p.store.Set(ctx, job)
		if err == nil {
			return job, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return nil, err
		}
		p.logger.Printf("[JOB %s] write conflict moving to %s (attempt %d)", jobID, to, attempt)
	}
	return nil, fmt.Errorf("%w: %s: gave up after %d attempts", domain.ErrVersionConflict, jobID, maxWriteAttempts)
}

// begin moves a job into a stage's working status. A false result means the
// event must not be processed: the job is gone, already past this stage or
// already terminal.
func (p *Pipeline) begin(ctx context.Context, env domain.Envelope, topic domain.Topic, to domain.Status) (bool, error) {
	if env.JobID == "" {
		p.logger.Printf("[BUS] dropping %s event without job id", topic)
		return false, fmt.Errorf("%w: %s: missing jobId", domain.ErrMalformedEvent, topic)
	}
	current, err := p.advance(ctx, env.JobID, to, nil)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			if current != nil && current.Status.Terminal() {
				p.logger.Printf("[JOB %s] ignoring %s: job already %s", env.JobID, topic, current.Status)
			} else {
				p.logger.Printf("[JOB %s] ignoring out-of-order %s: %v", env.JobID, topic, err)
			}
			return false, nil
		}
		p.logger.Printf("[JOB %s] ERROR: cannot start %s: %v", env.JobID, to, err)
		return false, err
	}
	return true, nil
}

// commit records a stage outcome and then emits the matching event, so the
// event is never seen before the state it describes.
func (p *Pipeline) commit(ctx context.Context, jobID string, to domain.Status, mutate func(*domain.Job), ev domain.Event) error {
	if _, err := p.advance(ctx, jobID, to, mutate); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			p.logger.Printf("[JOB %s] not emitting %s: %v", jobID, ev.Topic(), err)
			return nil
		}
		p.logger.Printf("[JOB %s] ERROR: failed to record %s: %v", jobID, to, err)
		return err
	}
	if err := p.bus.Publish(ctx, ev); err != nil {
		p.logger.Printf("[JOB %s] ERROR: failed to emit %s: %v", jobID, ev.Topic(), err)
		return err
	}
	return nil
}

// fail marks the job failed with reason and emits the stage's failure event.
func (p *Pipeline) fail(ctx context.Context, jobID string, reason string, ev domain.Event) error {
	p.logger.Printf("[JOB %s] ERROR: %s", jobID, reason)
	return p.commit(ctx, jobID, domain.StatusFailed, func(j *domain.Job) {
		j.Error = reason
	}, ev)
}
