package billing_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qalam-studio/qalam/svc/billing"
)

func webhookRequest(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/v1/webhooks/test", strings.NewReader(body))
}

var acceptAll = billing.WebhookVerifierFunc(func(context.Context, *http.Request) error { return nil })

func TestPayPalProvider_ParseWebhook(t *testing.T) {
	t.Parallel()

	user := uuid.New()

	t.Run("subscription activated", func(t *testing.T) {
		t.Parallel()
		body := fmt.Sprintf(`{
			"id": "WH-1",
			"event_type": "BILLING.SUBSCRIPTION.ACTIVATED",
			"create_time": "2026-03-01T09:00:00Z",
			"resource": {
				"id": "I-SUB1",
				"plan_id": "P-PRO-MONTHLY",
				"custom_id": %q,
				"start_time": "2026-03-01T08:59:00Z",
				"billing_info": {"next_billing_time": "2026-04-01T10:00:00Z"}
			}
		}`, user)

		events, err := billing.NewPayPalProvider(acceptAll).ParseWebhook(webhookRequest(body))
		require.NoError(t, err)
		require.Len(t, events, 1)

		e := events[0]
		assert.Equal(t, "WH-1", e.ID)
		assert.Equal(t, billing.ProviderPayPal, e.Provider)
		assert.Equal(t, billing.EventSubscriptionActivated, e.Type)
		assert.Equal(t, "I-SUB1", e.SubscriptionID)
		assert.Equal(t, "P-PRO-MONTHLY", e.PlanID)
		assert.Equal(t, user, e.UserID)
		assert.Equal(t, time.Date(2026, time.March, 1, 8, 59, 0, 0, time.UTC), e.PeriodStart)
		assert.Equal(t, time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC), e.PeriodEnd)
	})

	t.Run("sale batch", func(t *testing.T) {
		t.Parallel()
		body := fmt.Sprintf(`[
			{"id": "WH-2", "event_type": "PAYMENT.SALE.COMPLETED", "resource": {"id": "SALE-1", "billing_agreement_id": "I-SUB1", "custom": %q, "amount": {"total": "24.99", "currency": "USD"}}},
			{"id": "WH-3", "event_type": "PAYMENT.SALE.DENIED", "resource": {"id": "SALE-2", "billing_agreement_id": "I-SUB1"}},
			{"id": "WH-4", "event_type": "CUSTOMER.DISPUTE.CREATED", "resource": {"id": "PP-D-1"}}
		]`, user)

		events, err := billing.NewPayPalProvider(acceptAll).ParseWebhook(webhookRequest(body))
		require.NoError(t, err)
		require.Len(t, events, 3)

		assert.Equal(t, billing.EventSaleCompleted, events[0].Type)
		assert.Equal(t, "I-SUB1", events[0].SubscriptionID)
		assert.Equal(t, "SALE-1", events[0].PaymentID)
		assert.Equal(t, "24.99", events[0].Amount.String())
		assert.Equal(t, "USD", events[0].Currency)
		assert.Equal(t, user, events[0].UserID)

		assert.Equal(t, billing.EventPaymentDenied, events[1].Type)
		assert.Equal(t, uuid.Nil, events[1].UserID)

		assert.Equal(t, billing.EventUnknown, events[2].Type)
		assert.Equal(t, "CUSTOMER.DISPUTE.CREATED", events[2].ProviderEvent)
	})

	t.Run("rejected signature", func(t *testing.T) {
		t.Parallel()
		reject := billing.WebhookVerifierFunc(func(context.Context, *http.Request) error { return billing.ErrInvalidSignature })
		_, err := billing.NewPayPalProvider(reject).ParseWebhook(webhookRequest(`{}`))
		assert.ErrorIs(t, err, billing.ErrInvalidSignature)
	})

	t.Run("malformed payload", func(t *testing.T) {
		t.Parallel()
		_, err := billing.NewPayPalProvider(acceptAll).ParseWebhook(webhookRequest(`{"id": `))
		assert.ErrorIs(t, err, billing.ErrInvalidPayload)

		_, err = billing.NewPayPalProvider(acceptAll).ParseWebhook(webhookRequest(` `))
		assert.ErrorIs(t, err, billing.ErrInvalidPayload)
	})

	t.Run("bad item keeps the rest of the batch", func(t *testing.T) {
		t.Parallel()
		body := fmt.Sprintf(`[
			{"id": "WH-6", "event_type": "BILLING.SUBSCRIPTION.ACTIVATED", "resource": {"id": "I-SUB2", "plan_id": "P-PRO-MONTHLY", "custom_id": %q}},
			{"id": "WH-7", "event_type": "PAYMENT.SALE.COMPLETED", "resource": {"id": "SALE-3", "billing_agreement_id": "I-SUB2", "amount": {"total": "12,00", "currency": "EUR"}}}
		]`, user)

		events, err := billing.NewPayPalProvider(acceptAll).ParseWebhook(webhookRequest(body))
		require.NoError(t, err)
		require.Len(t, events, 2)

		assert.NoError(t, events[0].DecodeErr)
		assert.Equal(t, billing.EventSubscriptionActivated, events[0].Type)

		assert.ErrorIs(t, events[1].DecodeErr, billing.ErrInvalidPayload)
		assert.Equal(t, "WH-7", events[1].ID)
		assert.Equal(t, billing.EventSaleCompleted, events[1].Type)
		assert.Equal(t, "SALE-3", events[1].PaymentID)
	})

	t.Run("oversized body", func(t *testing.T) {
		t.Parallel()
		body := `{"id": "WH-8", "event_type": "BILLING.SUBSCRIPTION.CANCELLED", "resource": {"id": "` +
			strings.Repeat("x", 1<<20) + `"}}`
		_, err := billing.NewPayPalProvider(acceptAll).ParseWebhook(webhookRequest(body))
		assert.ErrorIs(t, err, billing.ErrPayloadTooLarge)
	})
}

func TestPayPalVerifier(t *testing.T) {
	t.Parallel()

	newPayPal := func(t *testing.T, status string) *httptest.Server {
		t.Helper()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			switch r.URL.Path {
			case "/v1/oauth2/token":
				_, _ = io.WriteString(w, `{"access_token": "token", "token_type": "Bearer", "expires_in": 3600}`)
			case "/v1/notifications/verify-webhook-signature":
				var req map[string]any
				_ = json.NewDecoder(r.Body).Decode(&req)
				if req["webhook_id"] != "WH-ENDPOINT" {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				_, _ = fmt.Fprintf(w, `{"verification_status": %q}`, status)
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		t.Cleanup(srv.Close)
		return srv
	}

	cfg := func(base string) billing.PayPalConfig {
		return billing.PayPalConfig{ClientID: "id", ClientSecret: "secret", WebhookID: "WH-ENDPOINT", APIBase: base}
	}
	body := `{"id": "WH-1", "event_type": "BILLING.SUBSCRIPTION.CANCELLED", "resource": {"id": "I-SUB1"}}`

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		v, err := billing.NewPayPalVerifier(cfg(newPayPal(t, "SUCCESS").URL))
		require.NoError(t, err)

		events, err := billing.NewPayPalProvider(v).ParseWebhook(webhookRequest(body))
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, billing.EventSubscriptionCancelled, events[0].Type)
	})

	t.Run("failure", func(t *testing.T) {
		t.Parallel()
		v, err := billing.NewPayPalVerifier(cfg(newPayPal(t, "FAILURE").URL))
		require.NoError(t, err)

		_, err = billing.NewPayPalProvider(v).ParseWebhook(webhookRequest(body))
		assert.ErrorIs(t, err, billing.ErrInvalidSignature)
	})

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()
		_, err := billing.NewPayPalVerifier(billing.PayPalConfig{})
		assert.ErrorIs(t, err, billing.ErrProviderDisabled)
	})

	t.Run("unresponsive api", func(t *testing.T) {
		t.Parallel()
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		t.Cleanup(func() {
			close(release)
			srv.Close()
		})

		c := cfg(srv.URL)
		c.Timeout = 50 * time.Millisecond
		v, err := billing.NewPayPalVerifier(c)
		require.NoError(t, err)

		start := time.Now()
		_, err = billing.NewPayPalProvider(v).ParseWebhook(webhookRequest(body))
		require.Error(t, err)
		assert.NotErrorIs(t, err, billing.ErrInvalidSignature)
		assert.Less(t, time.Since(start), 5*time.Second)
	})
}

func paddleSignature(secret, body string) string {
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + ":" + body))
	return "ts=" + ts + ";h1=" + hex.EncodeToString(mac.Sum(nil))
}

func TestPaddleProvider_ParseWebhook(t *testing.T) {
	t.Parallel()

	const secret = "pdl_ntfset_test"
	verifier, err := billing.NewPaddleVerifier(billing.PaddleConfig{WebhookSecret: secret})
	require.NoError(t, err)
	provider := billing.NewPaddleProvider(verifier)
	user := uuid.New()

	t.Run("subscription activated", func(t *testing.T) {
		t.Parallel()
		body := fmt.Sprintf(`{
			"event_id": "evt_01",
			"event_type": "subscription.activated",
			"occurred_at": "2026-03-01T09:00:00.123Z",
			"data": {
				"id": "sub_01",
				"custom_data": {"user_id": %q},
				"items": [{"price": {"id": "P-STUDIO-YEARLY"}}],
				"current_billing_period": {"starts_at": "2026-03-01T09:00:00Z", "ends_at": "2027-03-01T09:00:00Z"}
			}
		}`, user)
		req := webhookRequest(body)
		req.Header.Set("Paddle-Signature", paddleSignature(secret, body))

		events, err := provider.ParseWebhook(req)
		require.NoError(t, err)
		require.Len(t, events, 1)

		e := events[0]
		assert.Equal(t, billing.EventSubscriptionActivated, e.Type)
		assert.Equal(t, billing.ProviderPaddle, e.Provider)
		assert.Equal(t, "sub_01", e.SubscriptionID)
		assert.Equal(t, "P-STUDIO-YEARLY", e.PlanID)
		assert.Equal(t, user, e.UserID)
		assert.Equal(t, time.Date(2027, time.March, 1, 9, 0, 0, 0, time.UTC), e.PeriodEnd)
	})

	t.Run("transaction completed", func(t *testing.T) {
		t.Parallel()
		body := `{
			"event_id": "evt_02",
			"event_type": "transaction.completed",
			"data": {
				"id": "txn_01",
				"subscription_id": "sub_01",
				"currency_code": "USD",
				"items": [{"price_id": "P-PRO-MONTHLY"}],
				"details": {"totals": {"grand_total": "2499"}}
			}
		}`
		req := webhookRequest(body)
		req.Header.Set("Paddle-Signature", paddleSignature(secret, body))

		events, err := provider.ParseWebhook(req)
		require.NoError(t, err)
		require.Len(t, events, 1)

		e := events[0]
		assert.Equal(t, billing.EventSaleCompleted, e.Type)
		assert.Equal(t, "sub_01", e.SubscriptionID)
		assert.Equal(t, "txn_01", e.PaymentID)
		assert.Equal(t, "P-PRO-MONTHLY", e.PlanID)
		assert.Equal(t, "24.99", e.Amount.String())
	})

	t.Run("event mapping", func(t *testing.T) {
		t.Parallel()
		mapping := map[string]billing.EventType{
			"subscription.past_due":      billing.EventPaymentFailed,
			"transaction.payment_failed": billing.EventPaymentFailed,
			"subscription.canceled":      billing.EventSubscriptionCancelled,
			"subscription.paused":        billing.EventSubscriptionSuspended,
			"subscription.created":       billing.EventUnknown,
		}
		for providerEvent, want := range mapping {
			body := fmt.Sprintf(`{"event_id": "evt_%s", "event_type": %q, "data": {"id": "sub_01"}}`, providerEvent, providerEvent)
			req := webhookRequest(body)
			req.Header.Set("Paddle-Signature", paddleSignature(secret, body))

			events, err := provider.ParseWebhook(req)
			require.NoError(t, err, providerEvent)
			assert.Equal(t, want, events[0].Type, providerEvent)
		}
	})

	t.Run("bad total is isolated", func(t *testing.T) {
		t.Parallel()
		body := `[
			{"event_id": "evt_04", "event_type": "subscription.canceled", "data": {"id": "sub_01"}},
			{"event_id": "evt_05", "event_type": "transaction.completed", "data": {"id": "txn_02", "subscription_id": "sub_01", "details": {"totals": {"grand_total": "24.99 USD"}}}}
		]`
		req := webhookRequest(body)
		req.Header.Set("Paddle-Signature", paddleSignature(secret, body))

		events, err := provider.ParseWebhook(req)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.NoError(t, events[0].DecodeErr)
		assert.ErrorIs(t, events[1].DecodeErr, billing.ErrInvalidPayload)
		assert.Equal(t, "txn_02", events[1].PaymentID)
	})

	t.Run("tampered body", func(t *testing.T) {
		t.Parallel()
		body := `{"event_id": "evt_03", "event_type": "subscription.canceled", "data": {"id": "sub_01"}}`
		req := webhookRequest(strings.Replace(body, "sub_01", "sub_02", 1))
		req.Header.Set("Paddle-Signature", paddleSignature(secret, body))

		_, err := provider.ParseWebhook(req)
		assert.ErrorIs(t, err, billing.ErrInvalidSignature)
	})

	t.Run("missing signature", func(t *testing.T) {
		t.Parallel()
		_, err := provider.ParseWebhook(webhookRequest(`{}`))
		assert.ErrorIs(t, err, billing.ErrInvalidSignature)
	})
}

func TestEntitledPlanSlug(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	resolve := billing.EntitledPlanSlug(f.store, f.clock.Now)

	slug, err := resolve(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, slug)

	user := uuid.New()
	f.handle(t, activation(user, "I-1", "P-PRO-MONTHLY"))
	slug, err = resolve(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "pro", slug)

	f.handle(t, forSub(billing.EventSubscriptionSuspended, "I-1"))
	slug, err = resolve(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, slug)
}
