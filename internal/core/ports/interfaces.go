package ports

import (
	"context"
	"fmt"

	"titleboost/internal/core/domain"
)

// ChannelMatch is one hit from a channel search, in the order the service returned it.
type ChannelMatch struct {
	ChannelID    string
	ChannelTitle string
}

// ChannelLookup defines the contract for turning a handle or name into channels.
type ChannelLookup interface {
	// SearchChannels runs a free-text channel search.
	SearchChannels(ctx context.Context, query string) ([]ChannelMatch, error)
}

// VideoEntry is a video as listed by the content service, before normalization.
type VideoEntry struct {
	VideoID     string
	Title       string
	PublishedAt string
	Thumbnail   string
}

// VideoLister defines the contract for listing a channel's uploads.
type VideoLister interface {
	// ListRecent returns up to max videos, newest first.
	ListRecent(ctx context.Context, channelID string, max int) ([]VideoEntry, error)
}

// CompletionRequest is a single chat-style prompt asking for a JSON object back.
type CompletionRequest struct {
	System string
	User   string
}

// TextGenerator defines the contract for the generative text service.
type TextGenerator interface {
	// Complete returns the raw message content produced for the request.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// EmailMessage is a plain-text email.
type EmailMessage struct {
	To      string
	Subject string
	Text    string
}

// Mailer defines the contract for email delivery.
type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// JobStore persists one record per job id.
type JobStore interface {
	// Get returns a copy of the stored job or domain.ErrJobNotFound.
	Get(ctx context.Context, jobID string) (*domain.Job, error)

	// Create stores a new job. It fails with domain.ErrJobExists if the id is taken.
	Create(ctx context.Context, job *domain.Job) error

	// Set replaces the whole record. It fails with domain.ErrVersionConflict
	// unless job.Version matches the stored version, and bumps job.Version on success.
	Set(ctx context.Context, job *domain.Job) error
}

// Handler consumes one delivered event.
type Handler func(ctx context.Context, ev domain.Event) error

// EventBus carries stage events between pipeline components.
type EventBus interface {
	// Publish hands the event off for asynchronous delivery. It never waits for handlers.
	Publish(ctx context.Context, ev domain.Event) error

	// Subscribe registers a handler for a topic.
	Subscribe(topic domain.Topic, h Handler)
}

// On adapts a handler for one concrete event type to Handler.
func On[E domain.Event](fn func(ctx context.Context, ev E) error) Handler {
	return func(ctx context.Context, ev domain.Event) error {
		typed, ok := ev.(E)
		if !ok {
			return fmt.Errorf("%w: %s delivered as %T", domain.ErrMalformedEvent, ev.Topic(), ev)
		}
		return fn(ctx, typed)
	}
}
