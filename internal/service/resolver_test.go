package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"titleboost/internal/core/domain"
	"titleboost/internal/core/ports"
)

func TestHandleSubmitted_FirstMatchWins(t *testing.T) {
	h := newHarness(t)
	env := h.seed(t, "job_1", domain.StatusQueued)
	h.lookup.matches = []ports.ChannelMatch{
		{ChannelID: "UC1", ChannelTitle: "Example"},
		{ChannelID: "UC2", ChannelTitle: "Example Fan Club"},
	}

	require.NoError(t, h.pipeline.HandleSubmitted(context.Background(), domain.Submitted{Envelope: env, Channel: "@example"}))

	assert.Equal(t, []string{"example"}, h.lookup.queries)
	job := h.job(t, "job_1")
	assert.Equal(t, domain.StatusChannelResolved, job.Status)
	assert.Equal(t, "UC1", job.ChannelID)
	assert.Equal(t, "Example", job.ChannelName)

	events := h.bus.Events()
	require.Len(t, events, 1)
	assert.Equal(t, domain.Resolved{Envelope: env, ChannelID: "UC1", ChannelName: "Example"}, events[0])
}

func TestHandleSubmitted_NameUsesSameLookup(t *testing.T) {
	h := newHarness(t)
	env := h.seed(t, "job_1", domain.StatusQueued)
	h.lookup.matches = []ports.ChannelMatch{{ChannelID: "UC9", ChannelTitle: "Cooking With Sam"}}

	require.NoError(t, h.pipeline.HandleSubmitted(context.Background(), domain.Submitted{Envelope: env, Channel: "Cooking With Sam"}))

	assert.Equal(t, []string{"Cooking With Sam"}, h.lookup.queries)
	assert.Equal(t, domain.StatusChannelResolved, h.job(t, "job_1").Status)
}

func TestHandleSubmitted_NoMatchFailsJob(t *testing.T) {
	h := newHarness(t)
	env := h.seed(t, "job_1", domain.StatusQueued)

	require.NoError(t, h.pipeline.HandleSubmitted(context.Background(), domain.Submitted{Envelope: env, Channel: "@nobody"}))

	job := h.job(t, "job_1")
	assert.Equal(t, domain.StatusFailed, job.Status)
	assert.Equal(t, "Failed to resolve channel", job.Error)

	events := h.bus.Events()
	require.Len(t, events, 1)
	assert.Equal(t, domain.ResolutionFailed{Envelope: env, Error: "Failed to resolve channel"}, events[0])
}

func TestHandleSubmitted_MatchWithoutIDFailsJob(t *testing.T) {
	h := newHarness(t)
	env := h.seed(t, "job_1", domain.StatusQueued)
	h.lookup.matches = []ports.ChannelMatch{{ChannelID: "", ChannelTitle: "Ghost"}}

	require.NoError(t, h.pipeline.HandleSubmitted(context.Background(), domain.Submitted{Envelope: env, Channel: "@ghost"}))

	job := h.job(t, "job_1")
	assert.Equal(t, domain.StatusFailed, job.Status)
	assert.Empty(t, job.ChannelID)
	assert.Equal(t, "Failed to resolve channel", job.Error)

	events := h.bus.Events()
	require.Len(t, events, 1)
	assert.Equal(t, domain.ResolutionFailed{Envelope: env, Error: "Failed to resolve channel"}, events[0])
}

func TestHandleSubmitted_LookupErrorFailsJob(t *testing.T) {
	h := newHarness(t)
	env := h.seed(t, "job_1", domain.StatusQueued)
	h.lookup.err = &domain.ConfigurationError{Setting: "YOUTUBE_API_KEY"}

	require.NoError(t, h.pipeline.HandleSubmitted(context.Background(), domain.Submitted{Envelope: env, Channel: "@example"}))

	job := h.job(t, "job_1")
	assert.Equal(t, domain.StatusFailed, job.Status)
	assert.Equal(t, "Missing YOUTUBE_API_KEY in environment variables", job.Error)

	events := h.bus.Events()
	require.Len(t, events, 1)
	assert.Equal(t, domain.TopicResolutionFailed, events[0].Topic())
	assert.Equal(t, "Failed to resolve channel", events[0].(domain.ResolutionFailed).Error)
}

func TestHandleSubmitted_RedeliveryIsIgnored(t *testing.T) {
	h := newHarness(t)
	env := h.seed(t, "job_1", domain.StatusQueued)
	h.lookup.matches = []ports.ChannelMatch{{ChannelID: "UC1", ChannelTitle: "Example"}}
	ev := domain.Submitted{Envelope: env, Channel: "@example"}

	require.NoError(t, h.pipeline.HandleSubmitted(context.Background(), ev))
	before := h.job(t, "job_1")

	require.NoError(t, h.pipeline.HandleSubmitted(context.Background(), ev))

	after := h.job(t, "job_1")
	assert.Equal(t, before, after)
	assert.Len(t, h.lookup.queries, 1)
	assert.Len(t, h.bus.Events(), 1)
	assert.Contains(t, h.logs.String(), "ignoring out-of-order yt.submit")
}

func TestHandleSubmitted_SkipsFailedJob(t *testing.T) {
	h := newHarness(t)
	env := h.seed(t, "job_1", domain.StatusFailed)

	require.NoError(t, h.pipeline.HandleSubmitted(context.Background(), domain.Submitted{Envelope: env, Channel: "@example"}))

	assert.Empty(t, h.lookup.queries)
	assert.Empty(t, h.bus.Events())
	assert.Equal(t, domain.StatusFailed, h.job(t, "job_1").Status)
	assert.Contains(t, h.logs.String(), "ignoring yt.submit: job already failed")
}

func TestHandleSubmitted_DropsEventWithoutJobID(t *testing.T) {
	h := newHarness(t)

	err := h.pipeline.HandleSubmitted(context.Background(), domain.Submitted{Channel: "@example"})

	assert.True(t, errors.Is(err, domain.ErrMalformedEvent))
	assert.Empty(t, h.lookup.queries)
	assert.Empty(t, h.bus.Events())
}

func TestHandleSubmitted_UnknownJob(t *testing.T) {
	h := newHarness(t)

	err := h.pipeline.HandleSubmitted(context.Background(), domain.Submitted{
		Envelope: domain.Envelope{JobID: "job_missing", Email: "a@b.com"},
		Channel:  "@example",
	})

	assert.ErrorIs(t, err, domain.ErrJobNotFound)
	assert.Empty(t, h.bus.Events())
}
