package notify

import "time"

// Channel selects the dispatcher implementation.
type Channel string

const (
	ChannelHTTP  Channel = "http"
	ChannelEmail Channel = "email"
	ChannelNone  Channel = "none"
)

type Config struct {
	Channel         Channel       `env:"NOTIFY_CHANNEL" envDefault:"email"`             // Channel is http, email or none.
	URL             string        `env:"NOTIFY_URL"`                                    // URL of the notification service for the http channel.
	Token           string        `env:"NOTIFY_TOKEN"`                                  // Token is sent as a bearer credential.
	SigningSecret   string        `env:"NOTIFY_SIGNING_SECRET"`                         // SigningSecret enables HMAC request signatures.
	Timeout         time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"10s"`               // Timeout bounds each delivery attempt.
	MaxRetries      uint64        `env:"NOTIFY_MAX_RETRIES" envDefault:"3"`             // MaxRetries after the first attempt.
	RetryBase       time.Duration `env:"NOTIFY_RETRY_BASE" envDefault:"500ms"`          // RetryBase is the first backoff interval.
	DetachedTimeout time.Duration `env:"NOTIFY_DETACHED_TIMEOUT" envDefault:"1m"`       // DetachedTimeout bounds background deliveries.
	AppURL          string        `env:"APP_URL" envDefault:"https://app.qalam.local"` // AppURL is linked from emails.
}
