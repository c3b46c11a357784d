package billing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// maxWebhookBody bounds the payload read from a provider.
const maxWebhookBody = 1 << 20

// Provider turns a provider webhook request into normalized events. It
// returns ErrInvalidSignature when the request is not authentic and
// ErrInvalidPayload when the envelope cannot be decoded. A single item that
// cannot be normalized is returned with Event.DecodeErr set.
type Provider interface {
	Name() string
	ParseWebhook(r *http.Request) ([]Event, error)
}

// readBody reads the request body and puts it back for verifiers that read
// it again. A body over maxWebhookBody is rejected, never truncated.
func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, fmt.Errorf("%w: empty body", ErrInvalidPayload)
	}
	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: limit is %d bytes", ErrPayloadTooLarge, tooLarge.Limit)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}

// decodeBatch accepts a single JSON object or an array of them.
func decodeBatch[T any](body []byte) ([]T, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrInvalidPayload)
	}
	if body[0] == '[' {
		var items []T
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}
		return items, nil
	}
	var item T
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return []T{item}, nil
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// parseUserID returns uuid.Nil for anything that is not a uuid. The
// service rejects events it cannot attribute.
func parseUserID(candidates ...string) uuid.UUID {
	for _, c := range candidates {
		if id, err := uuid.Parse(c); err == nil {
			return id
		}
	}
	return uuid.Nil
}
