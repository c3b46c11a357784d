package notify_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qalam-studio/qalam/pkg/logger"
	"github.com/qalam-studio/qalam/svc/notify"
)

func TestDetached_ReturnsImmediatelyAndSurvivesCallerCancel(t *testing.T) {
	t.Parallel()

	var delivered atomic.Int32
	release := make(chan struct{})
	next := notify.DispatcherFunc(func(ctx context.Context, _ notify.Notification) error {
		<-release
		if ctx.Err() != nil {
			return ctx.Err()
		}
		delivered.Add(1)
		return nil
	})

	d := notify.NewDetached(next, time.Second, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, d.Dispatch(ctx, notify.Notification{UserID: uuid.New(), EventType: "x"}))
	cancel()
	close(release)

	require.NoError(t, d.Wait(context.Background()))
	assert.EqualValues(t, 1, delivered.Load())
}

func TestDetached_SwallowsErrorsAndPanics(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	next := notify.DispatcherFunc(func(context.Context, notify.Notification) error {
		if calls.Add(1) == 1 {
			panic("boom")
		}
		return errors.New("unreachable service")
	})

	d := notify.NewDetached(next, time.Second, logger.Discard())
	assert.NoError(t, d.Dispatch(context.Background(), notify.Notification{}))
	assert.NoError(t, d.Dispatch(context.Background(), notify.Notification{}))

	require.NoError(t, d.Wait(context.Background()))
	assert.EqualValues(t, 2, calls.Load())
}

func TestNew_Channels(t *testing.T) {
	t.Parallel()

	d, err := notify.New(notify.Config{Channel: notify.ChannelNone}, nil, nil)
	require.NoError(t, err)
	assert.NoError(t, d.Dispatch(context.Background(), notify.Notification{}))

	_, err = notify.New(notify.Config{Channel: "pigeon"}, nil, nil)
	assert.ErrorIs(t, err, notify.ErrInvalidConfig)

	_, err = notify.New(notify.Config{Channel: notify.ChannelEmail}, nil, nil)
	assert.ErrorIs(t, err, notify.ErrInvalidConfig)
}
