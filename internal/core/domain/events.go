package domain

import "errors"

// Topic names are the wire contract between stages.
type Topic string

const (
	TopicSubmitted        Topic = "yt.submit"
	TopicResolved         Topic = "yt.channel.resolved"
	TopicResolutionFailed Topic = "yt.channel.error"
	TopicFetched          Topic = "yt.videos.fetched"
	TopicFetchFailed      Topic = "yt.videos.error"
	TopicReady            Topic = "yt.titles.ready"
	TopicGenerationFailed Topic = "yt.titles.error"
	TopicSent             Topic = "yt.email.send"
)

// FailureTopics are emitted when a stage ends a job early.
var FailureTopics = []Topic{TopicResolutionFailed, TopicFetchFailed, TopicGenerationFailed}

// ErrMalformedEvent is returned for events that cannot be correlated to a job.
var ErrMalformedEvent = errors.New("malformed event")

// Envelope is carried by every event so any stage can report on the job
// without reading it back from the store.
type Envelope struct {
	JobID string `json:"jobId"`
	Email string `json:"email"`
}

func (e Envelope) envelope() Envelope { return e }

// Event is one of the stage-transition messages declared in this file.
type Event interface {
	Topic() Topic
	envelope() Envelope
}

// EnvelopeOf returns the correlation fields of any event.
func EnvelopeOf(ev Event) Envelope {
	return ev.envelope()
}

type Submitted struct {
	Envelope
	Channel string `json:"channel"`
}

func (Submitted) Topic() Topic { return TopicSubmitted }

type Resolved struct {
	Envelope
	ChannelID   string `json:"channelId"`
	ChannelName string `json:"channelName"`
}

func (Resolved) Topic() Topic { return TopicResolved }

type ResolutionFailed struct {
	Envelope
	Error string `json:"error"`
}

func (ResolutionFailed) Topic() Topic { return TopicResolutionFailed }

type Fetched struct {
	Envelope
	ChannelName string  `json:"channelName"`
	Videos      []Video `json:"items"`
}

func (Fetched) Topic() Topic { return TopicFetched }

type FetchFailed struct {
	Envelope
	Error string `json:"error"`
}

func (FetchFailed) Topic() Topic { return TopicFetchFailed }

type Ready struct {
	Envelope
	ChannelName string       `json:"channelName"`
	Suggestions []Suggestion `json:"suggestions"`
}

func (Ready) Topic() Topic { return TopicReady }

type GenerationFailed struct {
	Envelope
	Error string `json:"error"`
}

func (GenerationFailed) Topic() Topic { return TopicGenerationFailed }

// Sent closes the pipeline. It is emitted whether or not delivery succeeded.
type Sent struct {
	Envelope
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (Sent) Topic() Topic { return TopicSent }
