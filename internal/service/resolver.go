package service

import (
	"context"
	"strings"

	"titleboost/internal/core/domain"
)

const resolveFailedMessage = "Failed to resolve channel"

// HandleSubmitted resolves the submitted handle or name to a channel id.
func (p *Pipeline) HandleSubmitted(ctx context.Context, ev domain.Submitted) error {
	ok, err := p.begin(ctx, ev.Envelope, ev.Topic(), domain.StatusResolvingChannel)
	if !ok {
		return err
	}
	p.logger.Printf("[JOB %s] Resolving youtube channel %q", ev.JobID, ev.Channel)

	failed := domain.ResolutionFailed{Envelope: ev.Envelope, Error: resolveFailedMessage}

	matches, err := p.lookup.SearchChannels(ctx, channelQuery(ev.Channel))
	if err != nil {
		return p.fail(ctx, ev.JobID, err.Error(), failed)
	}
	// The first hit is authoritative, and a hit without an id resolves nothing.
	if len(matches) == 0 || matches[0].ChannelID == "" {
		return p.fail(ctx, ev.JobID, (&domain.ResolutionError{Channel: ev.Channel}).Error(), failed)
	}

	match := matches[0]
	p.logger.Printf("[JOB %s] Channel resolved: %s (%s)", ev.JobID, match.ChannelID, match.ChannelTitle)

	return p.commit(ctx, ev.JobID, domain.StatusChannelResolved, func(j *domain.Job) {
		j.ChannelID = match.ChannelID
		j.ChannelName = match.ChannelTitle
	}, domain.Resolved{
		Envelope:    ev.Envelope,
		ChannelID:   match.ChannelID,
		ChannelName: match.ChannelTitle,
	})
}

// channelQuery strips the handle marker; handles and names share one search.
func channelQuery(channel string) string {
	return strings.TrimPrefix(channel, "@")
}
