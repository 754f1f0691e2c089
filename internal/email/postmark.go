package email

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/go-resty/resty/v2"
)

// Message is a plain-text email. From overrides the client's sender when set.
type Message struct {
	From     string
	To       string
	Subject  string
	TextBody string
}

// Client delivers email through the Postmark HTTP API.
type Client struct {
	serverToken string
	fromEmail   string
	http        *resty.Client
}

type Option func(*Client)

// WithTimeout bounds each delivery request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.SetTimeout(d)
	}
}

// WithRetries retries transport failures and 5xx responses.
func WithRetries(count int) Option {
	return func(c *Client) {
		c.http.SetRetryCount(count).
			SetRetryWaitTime(500 * time.Millisecond).
			SetRetryMaxWaitTime(3 * time.Second)
	}
}

func NewClient(serverToken, fromEmail, apiURL string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		http: resty.New().
			SetBaseURL(apiURL).
			SetTimeout(15*time.Second).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	TextBody string `json:"TextBody"`
}

type postmarkResponse struct {
	ErrorCode int    `json:"ErrorCode"`
	Message   string `json:"Message"`
	MessageID string `json:"MessageID"`
}

// Send delivers msg and returns an error when the message was not accepted.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if !c.Configured() {
		return errors.New("email client not configured: missing server token")
	}
	if _, err := mail.ParseAddress(msg.To); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	from := msg.From
	if from == "" {
		from = c.fromEmail
	}

	var result postmarkResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-Postmark-Server-Token", c.serverToken).
		SetBody(postmarkEmail{
			From:     from,
			To:       msg.To,
			Subject:  msg.Subject,
			TextBody: msg.TextBody,
		}).
		SetResult(&result).
		SetError(&result).
		Post("/email")
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("postmark API error: status %d: %s", resp.StatusCode(), result.Message)
	}
	if result.ErrorCode != 0 {
		return fmt.Errorf("postmark API error: code %d: %s", result.ErrorCode, result.Message)
	}
	return nil
}
