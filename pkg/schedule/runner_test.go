package schedule_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qalam-studio/qalam/pkg/logger"
	"github.com/qalam-studio/qalam/pkg/schedule"
)

func TestRunner_RunsJobsUntilCancelled(t *testing.T) {
	t.Parallel()

	r := schedule.NewRunner(schedule.WithLogger(logger.Discard()))

	var ok, failing atomic.Int32
	require.NoError(t, r.Add("ok", schedule.Every(5*time.Millisecond), func(context.Context) error {
		ok.Add(1)
		return nil
	}))
	require.NoError(t, r.Add("failing", schedule.Every(5*time.Millisecond), func(context.Context) error {
		failing.Add(1)
		if failing.Load() == 1 {
			panic("first run explodes")
		}
		return errors.New("always fails")
	}))
	require.NoError(t, r.Add("never", schedule.Never(), func(context.Context) error {
		t.Error("never schedule must not run")
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Start(ctx) }()

	require.Eventually(t, func() bool {
		return ok.Load() >= 3 && failing.Load() >= 3
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("runner did not stop")
	}
}

func TestRunner_Validation(t *testing.T) {
	t.Parallel()

	r := schedule.NewRunner(schedule.WithLogger(logger.Discard()))
	assert.ErrorIs(t, r.Start(context.Background()), schedule.ErrNoJobs)
	assert.ErrorIs(t, r.Add("x", schedule.Every(time.Second), nil), schedule.ErrNilJob)

	noop := func(context.Context) error { return nil }
	require.NoError(t, r.Add("x", schedule.Every(time.Second), noop))
	assert.ErrorIs(t, r.Add("x", schedule.Every(time.Second), noop), schedule.ErrJobAlreadyRegistered)
}
