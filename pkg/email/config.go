package email

import "time"

// Config holds email service configuration.
// Postmark tokens are optional so development setups fall back to DevSender.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`

	// MessageStream keeps billing mail apart from broadcast streams.
	MessageStream string `env:"POSTMARK_MESSAGE_STREAM" envDefault:"outbound"`

	// TrackOpens is off by default since billing notices are transactional.
	TrackOpens bool          `env:"EMAIL_TRACK_OPENS" envDefault:"false"`
	Timeout    time.Duration `env:"POSTMARK_TIMEOUT" envDefault:"10s"`

	SenderName   string `env:"SENDER_NAME" envDefault:"Qalam"`
	SenderEmail  string `env:"SENDER_EMAIL" envDefault:"billing@qalam.local"`
	SupportEmail string `env:"SUPPORT_EMAIL" envDefault:"support@qalam.local"`
	DevOutputDir string `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"`
}
