package email

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"time"

	"github.com/mrz1836/postmark"
)

const defaultPostmarkTimeout = 10 * time.Second

// Postmark error codes that no retry can fix.
// https://postmarkapp.com/developer/api/overview#error-codes
const (
	postmarkInvalidEmail      = 300
	postmarkInactiveRecipient = 406
)

type postmarkClient struct {
	client *postmark.Client
	from   string
	config Config
}

// NewPostmarkClient creates a Postmark-backed email sender.
func NewPostmarkClient(cfg Config) (EmailSender, error) {
	return newPostmarkClient(cfg, "")
}

// newPostmarkClient points the client at baseURL when it is set.
func newPostmarkClient(cfg Config, baseURL string) (*postmarkClient, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
	}
	if !emailRegex.MatchString(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: SenderEmail must be a valid email address", ErrInvalidConfig)
	}
	if !emailRegex.MatchString(cfg.SupportEmail) {
		return nil, fmt.Errorf("%w: SupportEmail must be a valid email address", ErrInvalidConfig)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultPostmarkTimeout
	}
	client := postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken)
	client.HTTPClient = &http.Client{Timeout: timeout}
	if baseURL != "" {
		client.BaseURL = baseURL
	}

	from := cfg.SenderEmail
	if cfg.SenderName != "" {
		from = (&mail.Address{Name: cfg.SenderName, Address: cfg.SenderEmail}).String()
	}
	return &postmarkClient{client: client, from: from, config: cfg}, nil
}

// SendEmail posts one billing message on the configured stream. Link
// tracking stays off so the billing links reach the app unchanged.
func (c *postmarkClient) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	resp, err := c.client.SendEmail(ctx, postmark.Email{
		From:          c.from,
		ReplyTo:       c.config.SupportEmail,
		To:            params.SendTo,
		Subject:       params.Subject,
		Tag:           params.Tag,
		HTMLBody:      params.BodyHTML,
		Metadata:      params.Metadata,
		MessageStream: c.config.MessageStream,
		TrackOpens:    c.config.TrackOpens,
		TrackLinks:    "None",
	})
	var apiErr postmark.APIError
	switch {
	case errors.As(err, &apiErr):
		return postmarkError(apiErr.ErrorCode, apiErr.Message)
	case err != nil && resp.ErrorCode > 0:
		return postmarkError(resp.ErrorCode, resp.Message)
	case err != nil:
		return errors.Join(ErrFailedToSendEmail, err)
	}
	return nil
}

func postmarkError(code int64, msg string) error {
	err := fmt.Errorf("postmark error %d: %s", code, msg)
	if code == postmarkInvalidEmail || code == postmarkInactiveRecipient {
		return errors.Join(ErrFailedToSendEmail, ErrRecipientRejected, err)
	}
	return errors.Join(ErrFailedToSendEmail, err)
}
