package resend

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
	DefaultBaseURL = "https://api.resend.com"
	apiKeyEnv      = "RESEND_API_KEY"
	serviceName    = "Resend"
)

// Client implements ports.Mailer with the Resend emails endpoint.
type Client struct {
	apiKey  string
	from    string
	baseURL string
	client  *http.Client
}

// NewClient creates a Client sending as from.
func NewClient(apiKey, from, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		from:    from,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

// Send delivers a plain-text email.
func (c *Client) Send(ctx context.Context, msg ports.EmailMessage) error {
	if c.apiKey == "" {
		return &domain.ConfigurationError{Setting: apiKeyEnv}
	}
	if c.from == "" {
		return &domain.ConfigurationError{Setting: "RESEND_FROM_EMAIL"}
	}

	body, err := json.Marshal(sendRequest{
		From:    c.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return &domain.CollaboratorError{Service: serviceName, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return &domain.CollaboratorError{Service: serviceName, Message: fmt.Sprintf("status %d, body: %s", resp.StatusCode, string(respBody))}
	}
	return nil
}
