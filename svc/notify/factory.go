package notify

import (
	"fmt"

	"github.com/qalam-studio/qalam/pkg/email"
)

// New builds the dispatcher selected by cfg.Channel.
func New(cfg Config, sender email.EmailSender, recipients RecipientResolver) (Dispatcher, error) {
	switch cfg.Channel {
	case ChannelHTTP:
		d, err := NewHTTPDispatcher(cfg)
		if err != nil {
			return nil, err
		}
		return d, nil
	case ChannelEmail, "":
		d, err := NewEmailDispatcher(sender, recipients, cfg.AppURL)
		if err != nil {
			return nil, err
		}
		return d, nil
	case ChannelNone:
		return Nop, nil
	default:
		return nil, fmt.Errorf("%w: unknown channel %q", ErrInvalidConfig, cfg.Channel)
	}
}
