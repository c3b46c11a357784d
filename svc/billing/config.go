package billing

import "time"

// Config holds provider-independent billing settings.
type Config struct {
	GracePeriod time.Duration `env:"BILLING_GRACE_PERIOD" envDefault:"168h"`
	DedupeTTL   time.Duration `env:"BILLING_DEDUPE_TTL" envDefault:"72h"`
}

// PayPalConfig holds PayPal credentials. The webhook id is the one PayPal
// assigned to the endpoint; signature verification needs it.
type PayPalConfig struct {
	ClientID     string `env:"PAYPAL_CLIENT_ID"`
	ClientSecret string `env:"PAYPAL_CLIENT_SECRET"`
	WebhookID    string `env:"PAYPAL_WEBHOOK_ID"`
	Sandbox      bool   `env:"PAYPAL_SANDBOX" envDefault:"true"`
	APIBase      string `env:"PAYPAL_API_BASE"`

	// Timeout bounds one verification, token exchange included.
	Timeout time.Duration `env:"PAYPAL_TIMEOUT" envDefault:"10s"`
}

// DefaultPayPalTimeout applies when PayPalConfig.Timeout is not positive.
const DefaultPayPalTimeout = 10 * time.Second

// Enabled reports whether the PayPal receiver can be mounted.
func (c PayPalConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.WebhookID != ""
}

// PaddleConfig holds the Paddle notification secret.
type PaddleConfig struct {
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET"`
}

func (c PaddleConfig) Enabled() bool { return c.WebhookSecret != "" }
