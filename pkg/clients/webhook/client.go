package webhook

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Poster sends a plain-text message to an operations chat channel.
type Poster interface {
	PostMessage(ctx context.Context, text string) error
}

// Config locates the incoming webhook.
type Config struct {
	URL     string
	Token   string
	Channel string
	Timeout time.Duration
}

// Client is a resty-backed implementation of Poster for Slack-compatible
// incoming webhooks.
type Client struct {
	httpClient *resty.Client
	url        string
	channel    string
}

// NewClient builds a webhook client from cfg.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	restyClient := resty.New().
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	if cfg.Token != "" {
		restyClient.SetAuthToken(cfg.Token)
	}

	return &Client{httpClient: restyClient, url: cfg.URL, channel: cfg.Channel}
}

type messagePayload struct {
	Text    string `json:"text"`
	Channel string `json:"channel,omitempty"`
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// PostMessage implements Poster.
func (c *Client) PostMessage(ctx context.Context, text string) error {
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(messagePayload{Text: text, Channel: c.channel}).
		SetError(apiErr).
		Post(c.url)
	if err != nil {
		return fmt.Errorf("post webhook message: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		message := apiErr.Message
		if message == "" {
			message = apiErr.Error
		}
		if message == "" {
			message = resp.String()
		}
		return fmt.Errorf("webhook error: code=%d, message=%s", resp.StatusCode(), message)
	}
	return nil
}
