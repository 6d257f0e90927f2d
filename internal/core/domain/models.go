package domain

import (
	"fmt"
	"time"
)

// SchemaVersion is stamped on every stored job record.
const SchemaVersion = 1

// Job represents a single title-suggestion request moving through the pipeline.
type Job struct {
	SchemaVersion int          `json:"schema_version"`
	JobID         string       `json:"job_id"`
	Channel       string       `json:"channel"`
	Email         string       `json:"email"`
	Status        Status       `json:"status"`
	ChannelID     string       `json:"channel_id,omitempty"`
	ChannelName   string       `json:"channel_name,omitempty"`
	Videos        []Video      `json:"items,omitempty"`
	Suggestions   []Suggestion `json:"suggestions,omitempty"`
	Error         string       `json:"error,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`

	// Version is owned by the job store and bumped on every successful Set.
	Version int64 `json:"version"`
}

// NewJob returns a queued job for a fresh submission.
func NewJob(jobID, channel, email string, now time.Time) *Job {
	return &Job{
		SchemaVersion: SchemaVersion,
		JobID:         jobID,
		Channel:       channel,
		Email:         email,
		Status:        StatusQueued,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Transition moves the job to the given status, refusing backward or
// post-terminal moves.
func (j *Job) Transition(to Status) error {
	if !CanTransition(j.Status, to) {
		return fmt.Errorf("%w: %q -> %q (job_id=%s)", ErrInvalidTransition, j.Status, to, j.JobID)
	}
	j.Status = to
	return nil
}

// Clone returns a deep copy so stores never share slices with callers.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	out := *j
	if j.Videos != nil {
		out.Videos = append([]Video(nil), j.Videos...)
	}
	if j.Suggestions != nil {
		out.Suggestions = append([]Suggestion(nil), j.Suggestions...)
	}
	return &out
}

// Video is one recently published upload of the resolved channel.
type Video struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
	Thumbnail   string `json:"thumbnail"`
}

// Suggestion pairs an original title with the generated improvement.
type Suggestion struct {
	OriginalTitle string `json:"originalTitle"`
	ImprovedTitle string `json:"improvedTitle"`
	Rationale     string `json:"rationale"`
	URL           string `json:"url"`
}

// WatchURL builds the public watch page for a video id.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
