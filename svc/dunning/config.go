package dunning

import "time"

type Config struct {
	SecondReminderAfter time.Duration `env:"DUNNING_SECOND_REMINDER_AFTER" envDefault:"72h"`
	FinalReminderWindow time.Duration `env:"DUNNING_FINAL_REMINDER_WINDOW" envDefault:"48h"`

	// Schedule is parsed with schedule.Parse. "off" disables the in-process runner.
	Schedule string `env:"DUNNING_SCHEDULE" envDefault:"daily@09:00"`
}

// DefaultConfig mirrors the env defaults.
func DefaultConfig() Config {
	return Config{
		SecondReminderAfter: 72 * time.Hour,
		FinalReminderWindow: 48 * time.Hour,
		Schedule:            "daily@09:00",
	}
}
