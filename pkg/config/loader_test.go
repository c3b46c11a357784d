package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qalam-studio/qalam/pkg/config"
)

type graceConfig struct {
	GracePeriod time.Duration `env:"TEST_GRACE_PERIOD" envDefault:"168h"`
	Secret      string        `env:"TEST_CRON_SECRET,required,notEmpty"`
}

type optionalConfig struct {
	Zone string `env:"TEST_BILLING_TZ" envDefault:"UTC"`
}

func TestLoad(t *testing.T) {
	t.Run("parses values and defaults", func(t *testing.T) {
		config.Reset()
		t.Setenv("TEST_CRON_SECRET", "s3cret")

		var cfg graceConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, 7*24*time.Hour, cfg.GracePeriod)
		assert.Equal(t, "s3cret", cfg.Secret)
	})

	t.Run("caches per type", func(t *testing.T) {
		config.Reset()
		t.Setenv("TEST_BILLING_TZ", "Asia/Riyadh")

		var first optionalConfig
		require.NoError(t, config.Load(&first))

		t.Setenv("TEST_BILLING_TZ", "Africa/Cairo")
		var second optionalConfig
		require.NoError(t, config.Load(&second))
		assert.Equal(t, "Asia/Riyadh", second.Zone)
	})

	t.Run("missing required variable", func(t *testing.T) {
		config.Reset()
		t.Setenv("TEST_CRON_SECRET", "")

		var cfg graceConfig
		err := config.Load(&cfg)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("nil pointer", func(t *testing.T) {
		assert.ErrorIs(t, config.Load[graceConfig](nil), config.ErrNilPointer)
	})

	t.Run("must load panics", func(t *testing.T) {
		config.Reset()
		t.Setenv("TEST_CRON_SECRET", "")
		assert.Panics(t, func() {
			var cfg graceConfig
			config.MustLoad(&cfg)
		})
	})
}
