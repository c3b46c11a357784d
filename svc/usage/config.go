package usage

import (
	"fmt"
	"time"
)

type Config struct {
	Timezone string `env:"BILLING_TIMEZONE" envDefault:"UTC"` // Timezone defines where calendar months start.
}

// Location resolves the configured time zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("billing timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
