package domain

import "errors"

var (
	ErrJobNotFound       = errors.New("job not found")
	ErrJobExists         = errors.New("job already exists")
	ErrVersionConflict   = errors.New("job was modified concurrently")
	ErrInvalidTransition = errors.New("invalid job status transition")
	ErrMissingCredential = errors.New("missing credential")
	ErrUnsupportedSchema = errors.New("unsupported schema_version")
)

// ValidationError rejects a submission before any job exists.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConfigurationError means a stage cannot run because its settings are incomplete.
type ConfigurationError struct {
	Setting string
	Err     error
}

func (e *ConfigurationError) Error() string {
	return "Missing " + e.Setting + " in environment variables"
}

func (e *ConfigurationError) Unwrap() error {
	if e.Err == nil {
		return ErrMissingCredential
	}
	return e.Err
}

// ResolutionError means the channel lookup returned no match.
type ResolutionError struct {
	Channel string
}

func (e *ResolutionError) Error() string { return "Failed to resolve channel" }

// EmptyResultError means the channel exists but has nothing published.
type EmptyResultError struct {
	ChannelID string
}

func (e *EmptyResultError) Error() string { return "No videos found for the channel" }

// CollaboratorError wraps a failure reported by, or a response we could not
// understand from, an external service.
type CollaboratorError struct {
	Service string
	Message string
	Err     error
}

func (e *CollaboratorError) Error() string {
	msg := e.Service + " API error: " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// NotificationError is a failed email delivery. The notifier logs it and moves on.
type NotificationError struct {
	Recipient string
	Err       error
}

func (e *NotificationError) Error() string {
	return "failed to deliver email to " + e.Recipient + ": " + e.Err.Error()
}

func (e *NotificationError) Unwrap() error { return e.Err }
