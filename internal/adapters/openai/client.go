package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"titleboost/internal/core/domain"
	"titleboost/internal/core/ports"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	apiKeyEnv      = "OPENAI_API_KEY"
	serviceName    = "OpenAI"
)

// Client implements ports.TextGenerator with the chat completions endpoint.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	client      *http.Client
}

// NewClient creates a Client. Zero values fall back to the defaults above.
func NewClient(apiKey, baseURL, model string, temperature float64) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		apiKey:      apiKey,
		baseURL:     baseURL,
		model:       model,
		temperature: temperature,
		client: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends req as a system + user conversation in JSON-object mode and
// returns the assistant message content.
func (c *Client) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	if c.apiKey == "" {
		return "", &domain.ConfigurationError{Setting: apiKeyEnv}
	}

	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Temperature:    c.temperature,
		ResponseFormat: responseFormat{Type: "json_object"},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", &domain.CollaboratorError{Service: serviceName, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &domain.CollaboratorError{Service: serviceName, Message: "failed to read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr errorResponse
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error.Message != "" {
			return "", &domain.CollaboratorError{Service: serviceName, Message: apiErr.Error.Message}
		}
		return "", &domain.CollaboratorError{Service: serviceName, Message: fmt.Sprintf("status %d, body: %s", resp.StatusCode, string(respBody))}
	}

	var out chatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", &domain.CollaboratorError{Service: serviceName, Message: "unparseable response", Err: err}
	}
	if len(out.Choices) == 0 {
		return "", &domain.CollaboratorError{Service: serviceName, Message: "response contained no choices"}
	}
	return out.Choices[0].Message.Content, nil
}
