package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"titleboost/internal/core/domain"
	"titleboost/internal/core/ports"
)

const (
	// DefaultBaseURL is the YouTube Data API v3 root.
	DefaultBaseURL = "https://www.googleapis.com/youtube/v3"
	apiKeyEnv      = "YOUTUBE_API_KEY"
	serviceName    = "YouTube"
)

// Client implements ports.ChannelLookup and ports.VideoLister with the
// YouTube Data API search endpoint.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient creates a Client. An empty apiKey is accepted here and reported
// as a configuration error on the first call, so the stage fails instead of
// the process.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type searchResponse struct {
	Items []searchItem `json:"items"`
	Error *apiError    `json:"error"`
}

type searchItem struct {
	ID struct {
		VideoID   string `json:"videoId"`
		ChannelID string `json:"channelId"`
	} `json:"id"`
	Snippet struct {
		ChannelID    string `json:"channelId"`
		ChannelTitle string `json:"channelTitle"`
		Title        string `json:"title"`
		PublishedAt  string `json:"publishedAt"`
		Thumbnails   struct {
			Default *struct {
				URL string `json:"url"`
			} `json:"default"`
		} `json:"thumbnails"`
	} `json:"snippet"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// SearchChannels runs a channel-type search for query.
func (c *Client) SearchChannels(ctx context.Context, query string) ([]ports.ChannelMatch, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "channel")
	params.Set("q", query)

	resp, err := c.search(ctx, params)
	if err != nil {
		return nil, err
	}

	matches := make([]ports.ChannelMatch, 0, len(resp.Items))
	for _, item := range resp.Items {
		id := item.Snippet.ChannelID
		if id == "" {
			id = item.ID.ChannelID
		}
		matches = append(matches, ports.ChannelMatch{
			ChannelID:    id,
			ChannelTitle: item.Snippet.ChannelTitle,
		})
	}
	return matches, nil
}

// ListRecent returns the channel's newest videos ordered by date.
func (c *Client) ListRecent(ctx context.Context, channelID string, max int) ([]ports.VideoEntry, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("channelId", channelID)
	params.Set("maxResults", strconv.Itoa(max))
	params.Set("order", "date")
	params.Set("type", "video")

	resp, err := c.search(ctx, params)
	if err != nil {
		return nil, err
	}

	entries := make([]ports.VideoEntry, 0, len(resp.Items))
	for _, item := range resp.Items {
		entry := ports.VideoEntry{
			VideoID:     item.ID.VideoID,
			Title:       item.Snippet.Title,
			PublishedAt: item.Snippet.PublishedAt,
		}
		if item.Snippet.Thumbnails.Default != nil {
			entry.Thumbnail = item.Snippet.Thumbnails.Default.URL
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (c *Client) search(ctx context.Context, params url.Values) (*searchResponse, error) {
	if c.apiKey == "" {
		return nil, &domain.ConfigurationError{Setting: apiKeyEnv}
	}
	params.Set("key", c.apiKey)
	endpoint := c.baseURL + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &domain.CollaboratorError{Service: serviceName, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.CollaboratorError{Service: serviceName, Message: "failed to read response", Err: err}
	}

	var out searchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, &domain.CollaboratorError{Service: serviceName, Message: fmt.Sprintf("status %d, body: %s", resp.StatusCode, string(body))}
		}
		return nil, &domain.CollaboratorError{Service: serviceName, Message: "unparseable response", Err: err}
	}
	if resp.StatusCode != http.StatusOK || out.Error != nil {
		msg := fmt.Sprintf("status %d", resp.StatusCode)
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return nil, &domain.CollaboratorError{Service: serviceName, Message: msg}
	}
	return &out, nil
}
