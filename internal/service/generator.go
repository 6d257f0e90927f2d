package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"titleboost/internal/core/domain"
	"titleboost/internal/core/ports"
)

const titleSystemPrompt = `You are an expert YouTube content creator and SEO strategist.
Rewrite each video title so it is more engaging and easier to find in search, without misrepresenting the video.
Answer with a JSON object of the form {"improvedTitles":[{"improvedTitle":"...","rationale":"..."}]}.
Return exactly one entry per input title, in the same order as the input.`

type titleResponse struct {
	ImprovedTitles []struct {
		ImprovedTitle string `json:"improvedTitle"`
		Rationale     string `json:"rationale"`
		// Older prompts produced the misspelled key.
		Rational string `json:"rational"`
	} `json:"improvedTitles"`
}

// HandleFetched asks the generative text service for better titles.
func (p *Pipeline) HandleFetched(ctx context.Context, ev domain.Fetched) error {
	ok, err := p.begin(ctx, ev.Envelope, ev.Topic(), domain.StatusGeneratingTitles)
	if !ok {
		return err
	}
	p.logger.Printf("[JOB %s] Generating titles for %d videos of %s", ev.JobID, len(ev.Videos), ev.ChannelName)

	suggestions, err := p.suggestTitles(ctx, ev.ChannelName, ev.Videos)
	if err != nil {
		return p.fail(ctx, ev.JobID, err.Error(), domain.GenerationFailed{Envelope: ev.Envelope, Error: err.Error()})
	}
	p.logger.Printf("[JOB %s] Generated %d improved titles", ev.JobID, len(suggestions))

	return p.commit(ctx, ev.JobID, domain.StatusTitlesGenerated, func(j *domain.Job) {
		j.Suggestions = suggestions
	}, domain.Ready{
		Envelope:    ev.Envelope,
		ChannelName: ev.ChannelName,
		Suggestions: suggestions,
	})
}

func (p *Pipeline) suggestTitles(ctx context.Context, channelName string, videos []domain.Video) ([]domain.Suggestion, error) {
	content, err := p.generator.Complete(ctx, ports.CompletionRequest{
		System: titleSystemPrompt,
		User:   titlePrompt(channelName, videos),
	})
	if err != nil {
		return nil, err
	}

	var parsed titleResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, &domain.CollaboratorError{Service: "OpenAI", Message: "could not parse improved titles", Err: err}
	}
	if len(parsed.ImprovedTitles) < len(videos) {
		return nil, &domain.CollaboratorError{
			Service: "OpenAI",
			Message: fmt.Sprintf("expected %d improved titles, got %d", len(videos), len(parsed.ImprovedTitles)),
		}
	}

	// Suggestions are matched to videos by position.
	suggestions := make([]domain.Suggestion, 0, len(videos))
	for i, v := range videos {
		item := parsed.ImprovedTitles[i]
		rationale := item.Rationale
		if rationale == "" {
			rationale = item.Rational
		}
		suggestions = append(suggestions, domain.Suggestion{
			OriginalTitle: v.Title,
			ImprovedTitle: item.ImprovedTitle,
			Rationale:     rationale,
			URL:           v.URL,
		})
	}
	return suggestions, nil
}

func titlePrompt(channelName string, videos []domain.Video) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate improved and catchy titles for the following YouTube videos from the channel %s:\n\n", channelName)
	for i, v := range videos {
		fmt.Fprintf(&b, "%d. %s\n", i+1, v.Title)
	}
	return b.String()
}
