package billing

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
	"github.com/shopspring/decimal"
)

const ProviderPaddle = "paddle"

var paddleEventTypes = map[string]EventType{
	"subscription.activated":     EventSubscriptionActivated,
	"transaction.completed":      EventSaleCompleted,
	"transaction.payment_failed": EventPaymentFailed,
	"subscription.past_due":      EventPaymentFailed,
	"subscription.canceled":      EventSubscriptionCancelled,
	"subscription.paused":        EventSubscriptionSuspended,
}

// NewPaddleVerifier checks the Paddle-Signature header with the SDK.
func NewPaddleVerifier(cfg PaddleConfig) (WebhookVerifier, error) {
	if !cfg.Enabled() {
		return nil, ErrProviderDisabled
	}
	v := paddle.NewWebhookVerifier(cfg.WebhookSecret)
	return WebhookVerifierFunc(func(_ context.Context, r *http.Request) error {
		ok, err := v.Verify(r)
		if err != nil {
			return errors.Join(ErrInvalidSignature, err)
		}
		if !ok {
			return ErrInvalidSignature
		}
		return nil
	}), nil
}

// PaddleProvider parses Paddle Billing notifications.
type PaddleProvider struct {
	verifier WebhookVerifier
}

func NewPaddleProvider(verifier WebhookVerifier) *PaddleProvider {
	return &PaddleProvider{verifier: verifier}
}

func (p *PaddleProvider) Name() string { return ProviderPaddle }

type paddleWebhook struct {
	EventID    string     `json:"event_id"`
	EventType  string     `json:"event_type"`
	OccurredAt string     `json:"occurred_at"`
	Data       paddleData `json:"data"`
}

type paddlePeriod struct {
	StartsAt string `json:"starts_at"`
	EndsAt   string `json:"ends_at"`
}

type paddleData struct {
	ID             string `json:"id"`
	SubscriptionID string `json:"subscription_id"`
	CurrencyCode   string `json:"currency_code"`
	CustomData     struct {
		UserID     string `json:"user_id"`
		CustomerID string `json:"customer_id"`
	} `json:"custom_data"`
	Items []struct {
		PriceID string `json:"price_id"`
		Price   struct {
			ID string `json:"id"`
		} `json:"price"`
	} `json:"items"`
	CurrentBillingPeriod *paddlePeriod `json:"current_billing_period"`
	BillingPeriod        *paddlePeriod `json:"billing_period"`
	Details              struct {
		Totals struct {
			GrandTotal string `json:"grand_total"`
		} `json:"totals"`
	} `json:"details"`
}

func (p *PaddleProvider) ParseWebhook(r *http.Request) ([]Event, error) {
	body, err := readBody(r)
	if err != nil {
		return nil, err
	}
	if p.verifier == nil {
		return nil, ErrProviderDisabled
	}
	if err := p.verifier.Verify(r.Context(), r); err != nil {
		return nil, err
	}

	hooks, err := decodeBatch[paddleWebhook](body)
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(hooks))
	for _, h := range hooks {
		events = append(events, h.event())
	}
	return events, nil
}

// event maps one notification. A bad total is reported through DecodeErr.
func (h paddleWebhook) event() Event {
	typ, ok := paddleEventTypes[h.EventType]
	if !ok {
		typ = EventUnknown
	}
	d := h.Data
	e := Event{
		ID:            h.EventID,
		Provider:      ProviderPaddle,
		Type:          typ,
		ProviderEvent: h.EventType,
		UserID:        parseUserID(d.CustomData.UserID, d.CustomData.CustomerID),
		PlanID:        d.priceID(),
		OccurredAt:    parseTime(h.OccurredAt),
	}

	if period := d.period(); period != nil {
		e.PeriodStart = parseTime(period.StartsAt)
		e.PeriodEnd = parseTime(period.EndsAt)
	}

	switch h.EventType {
	case "transaction.completed", "transaction.payment_failed":
		e.SubscriptionID = d.SubscriptionID
		e.PaymentID = d.ID
		e.Currency = d.CurrencyCode
		if total := d.Details.Totals.GrandTotal; total != "" {
			// Paddle totals are in the currency's lowest denomination.
			minor, err := decimal.NewFromString(total)
			if err != nil {
				e.DecodeErr = errors.Join(ErrInvalidPayload, fmt.Errorf("transaction %s total: %w", d.ID, err))
				return e
			}
			e.Amount = minor.Shift(-2)
		}
	default:
		e.SubscriptionID = d.ID
	}
	return e
}

func (d paddleData) priceID() string {
	if len(d.Items) == 0 {
		return ""
	}
	if d.Items[0].Price.ID != "" {
		return d.Items[0].Price.ID
	}
	return d.Items[0].PriceID
}

func (d paddleData) period() *paddlePeriod {
	if d.CurrentBillingPeriod != nil {
		return d.CurrentBillingPeriod
	}
	return d.BillingPeriod
}
