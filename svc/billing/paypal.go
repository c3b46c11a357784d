package billing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/plutov/paypal/v4"
	"github.com/shopspring/decimal"
)

const ProviderPayPal = "paypal"

var paypalEventTypes = map[string]EventType{
	"BILLING.SUBSCRIPTION.ACTIVATED":      EventSubscriptionActivated,
	"PAYMENT.SALE.COMPLETED":              EventSaleCompleted,
	"PAYMENT.SALE.DENIED":                 EventPaymentDenied,
	"BILLING.SUBSCRIPTION.PAYMENT.FAILED": EventPaymentFailed,
	"BILLING.SUBSCRIPTION.CANCELLED":      EventSubscriptionCancelled,
	"BILLING.SUBSCRIPTION.SUSPENDED":      EventSubscriptionSuspended,
	"BILLING.SUBSCRIPTION.EXPIRED":        EventSubscriptionExpired,
}

// WebhookVerifier authenticates a webhook request. The body must still be
// readable afterwards.
type WebhookVerifier interface {
	Verify(ctx context.Context, r *http.Request) error
}

// WebhookVerifierFunc adapts a function to WebhookVerifier.
type WebhookVerifierFunc func(ctx context.Context, r *http.Request) error

func (f WebhookVerifierFunc) Verify(ctx context.Context, r *http.Request) error { return f(ctx, r) }

// PayPalVerifier asks PayPal to verify the transmission signature.
type PayPalVerifier struct {
	client    *paypal.Client
	webhookID string
	timeout   time.Duration
}

// NewPayPalVerifier creates a verifier for the configured webhook.
func NewPayPalVerifier(cfg PayPalConfig) (*PayPalVerifier, error) {
	if !cfg.Enabled() {
		return nil, ErrProviderDisabled
	}
	base := cfg.APIBase
	if base == "" {
		base = paypal.APIBaseLive
		if cfg.Sandbox {
			base = paypal.APIBaseSandBox
		}
	}
	client, err := paypal.NewClient(cfg.ClientID, cfg.ClientSecret, base)
	if err != nil {
		return nil, fmt.Errorf("paypal client: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultPayPalTimeout
	}
	// The SDK default client never times out.
	client.SetHTTPClient(&http.Client{Timeout: timeout})
	return &PayPalVerifier{client: client, webhookID: cfg.WebhookID, timeout: timeout}, nil
}

func (v *PayPalVerifier) Verify(ctx context.Context, r *http.Request) error {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	resp, err := v.client.VerifyWebhookSignature(ctx, r, v.webhookID)
	if err != nil {
		return fmt.Errorf("paypal verify webhook signature: %w", err)
	}
	if resp.VerificationStatus != "SUCCESS" {
		return fmt.Errorf("%w: paypal status %q", ErrInvalidSignature, resp.VerificationStatus)
	}
	return nil
}

// PayPalProvider parses PayPal subscription and sale webhooks.
type PayPalProvider struct {
	verifier WebhookVerifier
}

func NewPayPalProvider(verifier WebhookVerifier) *PayPalProvider {
	return &PayPalProvider{verifier: verifier}
}

func (p *PayPalProvider) Name() string { return ProviderPayPal }

type paypalWebhook struct {
	ID         string         `json:"id"`
	EventType  string         `json:"event_type"`
	CreateTime string         `json:"create_time"`
	Resource   paypalResource `json:"resource"`
}

type paypalResource struct {
	ID                 string `json:"id"`
	PlanID             string `json:"plan_id"`
	CustomID           string `json:"custom_id"`
	Custom             string `json:"custom"`
	BillingAgreementID string `json:"billing_agreement_id"`
	StartTime          string `json:"start_time"`
	CreateTime         string `json:"create_time"`
	BillingInfo        struct {
		NextBillingTime string `json:"next_billing_time"`
	} `json:"billing_info"`
	Amount struct {
		Total    string `json:"total"`
		Currency string `json:"currency"`
	} `json:"amount"`
}

func (p *PayPalProvider) ParseWebhook(r *http.Request) ([]Event, error) {
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

	hooks, err := decodeBatch[paypalWebhook](body)
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(hooks))
	for _, h := range hooks {
		events = append(events, h.event())
	}
	return events, nil
}

// event normalizes one item. A field that cannot be decoded sets DecodeErr
// instead of failing the batch.
func (h paypalWebhook) event() Event {
	typ, ok := paypalEventTypes[h.EventType]
	if !ok {
		typ = EventUnknown
	}
	res := h.Resource
	e := Event{
		ID:            h.ID,
		Provider:      ProviderPayPal,
		Type:          typ,
		ProviderEvent: h.EventType,
		UserID:        parseUserID(res.CustomID, res.Custom),
		OccurredAt:    parseTime(h.CreateTime),
	}

	switch typ {
	case EventSaleCompleted, EventPaymentDenied:
		e.SubscriptionID = res.BillingAgreementID
		e.PaymentID = res.ID
		e.Currency = res.Amount.Currency
		if res.Amount.Total != "" {
			amount, err := decimal.NewFromString(res.Amount.Total)
			if err != nil {
				e.DecodeErr = errors.Join(ErrInvalidPayload, fmt.Errorf("sale %s amount: %w", res.ID, err))
				return e
			}
			e.Amount = amount
		}
	default:
		e.SubscriptionID = res.ID
		e.PlanID = res.PlanID
		if typ == EventSubscriptionActivated {
			e.PeriodStart = parseTime(res.StartTime)
			e.PeriodEnd = parseTime(res.BillingInfo.NextBillingTime)
		}
	}
	return e
}
