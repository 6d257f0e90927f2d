package service

import (
	"context"
	"sort"
	"time"

	"titleboost/internal/core/domain"
	"titleboost/internal/core/ports"
)

const fetchFailedMessage = "Failed to fetch videos"

// HandleResolved lists the newest videos of the resolved channel.
func (p *Pipeline) HandleResolved(ctx context.Context, ev domain.Resolved) error {
	ok, err := p.begin(ctx, ev.Envelope, ev.Topic(), domain.StatusFetchingVideos)
	if !ok {
		return err
	}
	p.logger.Printf("[JOB %s] Fetching latest videos for %s", ev.JobID, ev.ChannelID)

	entries, err := p.lister.ListRecent(ctx, ev.ChannelID, p.opts.MaxVideos)
	if err != nil {
		return p.fail(ctx, ev.JobID, err.Error(), domain.FetchFailed{Envelope: ev.Envelope, Error: fetchFailedMessage})
	}

	if len(entries) == 0 {
		empty := &domain.EmptyResultError{ChannelID: ev.ChannelID}
		p.logger.Printf("[JOB %s] %s (%s)", ev.JobID, empty.Error(), ev.ChannelID)
		return p.commit(ctx, ev.JobID, domain.StatusNoVideosFound, nil,
			domain.FetchFailed{Envelope: ev.Envelope, Error: empty.Error()})
	}

	videos := normalizeVideos(entries, p.opts.MaxVideos)
	p.logger.Printf("[JOB %s] Fetched %d videos", ev.JobID, len(videos))

	return p.commit(ctx, ev.JobID, domain.StatusVideosFetched, func(j *domain.Job) {
		j.Videos = videos
	}, domain.Fetched{
		Envelope:    ev.Envelope,
		ChannelName: ev.ChannelName,
		Videos:      videos,
	})
}

// normalizeVideos orders entries newest first, keeps at most max of them and
// fills in the watch URL.
func normalizeVideos(entries []ports.VideoEntry, max int) []domain.Video {
	sorted := append([]ports.VideoEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return publishedAt(sorted[i]).After(publishedAt(sorted[j]))
	})
	if len(sorted) > max {
		sorted = sorted[:max]
	}

	videos := make([]domain.Video, 0, len(sorted))
	for _, e := range sorted {
		videos = append(videos, domain.Video{
			ID:          e.VideoID,
			Title:       e.Title,
			URL:         domain.WatchURL(e.VideoID),
			PublishedAt: e.PublishedAt,
			Thumbnail:   e.Thumbnail,
		})
	}
	return videos
}

// publishedAt parses the RFC 3339 timestamp; unparseable values sort last.
func publishedAt(e ports.VideoEntry) time.Time {
	t, err := time.Parse(time.RFC3339, e.PublishedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}
