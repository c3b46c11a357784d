package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// HTTPDispatcher posts notifications to the external notification service.
type HTTPDispatcher struct {
	client     *http.Client
	url        string
	token      string
	secret     string
	timeout    time.Duration
	maxRetries uint64
	retryBase  time.Duration
	now        func() time.Time
}

// HTTPOption configures an HTTPDispatcher.
type HTTPOption func(*HTTPDispatcher)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(d *HTTPDispatcher) {
		if c != nil {
			d.client = c
		}
	}
}

// NewHTTPDispatcher validates cfg and builds a dispatcher.
func NewHTTPDispatcher(cfg Config, opts ...HTTPOption) (*HTTPDispatcher, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: NOTIFY_URL must be an http(s) URL", ErrInvalidConfig)
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("%w: NOTIFY_TIMEOUT must be positive", ErrInvalidConfig)
	}

	d := &HTTPDispatcher{
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		url:        cfg.URL,
		token:      cfg.Token,
		secret:     cfg.SigningSecret,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		retryBase:  cfg.RetryBase,
		now:        time.Now,
	}
	if d.retryBase <= 0 {
		d.retryBase = 500 * time.Millisecond
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Dispatch POSTs n as JSON. Network errors, timeouts, 408, 425, 429 and 5xx
// are retried; other 4xx responses fail immediately.
func (d *HTTPDispatcher) Dispatch(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return errors.Join(ErrDispatchFailed, err)
	}

	backoff := retry.WithMaxRetries(d.maxRetries, retry.NewExponential(d.retryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		status, err := d.attempt(ctx, payload)
		if err == nil {
			return nil
		}
		if isPermanent(status) {
			return fmt.Errorf("%w: %w", ErrPermanentFailure, err)
		}
		return retry.RetryableError(err)
	})
	if err != nil {
		return errors.Join(ErrDispatchFailed, err)
	}
	return nil
}

func (d *HTTPDispatcher) attempt(ctx context.Context, payload []byte) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "qalam-billing/1.0")
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}
	if d.secret != "" {
		ts := d.now().Unix()
		req.Header.Set(headerTimestamp, strconv.FormatInt(ts, 10))
		req.Header.Set(headerSignature, Sign(d.secret, ts, payload))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	msg := strings.ReplaceAll(strings.TrimSpace(string(body)), "\n", " ")
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return resp.StatusCode, fmt.Errorf("notification service returned %d: %s", resp.StatusCode, msg)
}

func isPermanent(status int) bool {
	if status < 400 || status >= 500 {
		return false
	}
	switch status {
	case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
		return false
	}
	return true
}
