package poller

import (
	"context"
	"errors"
	"io"
	"log"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quiet() Option {
	return WithLogger(log.New(io.Discard, "", 0))
}

func TestNewValidates(t *testing.T) {
	_, err := New(0, func(context.Context) error { return nil })
	assert.Error(t, err)

	_, err = New(time.Second, nil)
	assert.Error(t, err)
}

func TestRunFetchesImmediatelyAndOnTicks(t *testing.T) {
	var calls atomic.Int32
	p, err := New(10*time.Millisecond, func(context.Context) error {
		calls.Add(1)
		return nil
	}, quiet())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	stopped := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, calls.Load(), "no fetches after cancel")
}

func TestFailuresDoNotStopTheLoop(t *testing.T) {
	var calls atomic.Int32
	var failures atomic.Int32
	p, err := New(5*time.Millisecond, func(context.Context) error {
		calls.Add(1)
		return errors.New("backend unavailable")
	}, quiet(), OnResult(func(err error) {
		if err != nil {
			failures.Add(1)
		}
	}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	assert.Eventually(t, func() bool { return failures.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestPauseSkipsTicks(t *testing.T) {
	var calls atomic.Int32
	p, err := New(5*time.Millisecond, func(context.Context) error {
		calls.Add(1)
		return nil
	}, quiet())
	require.NoError(t, err)

	p.Pause()
	assert.True(t, p.Paused())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	// only the initial fetch runs while paused
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	p.Resume()
	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestRunTwiceFails(t *testing.T) {
	started := make(chan struct{})
	var once atomic.Bool
	p, err := New(time.Hour, func(context.Context) error {
		if once.CompareAndSwap(false, true) {
			close(started)
		}
		return nil
	}, quiet())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)
	<-started

	assert.Error(t, p.Run(ctx))
}

func TestTrigger(t *testing.T) {
	var calls atomic.Int32
	p, err := New(time.Hour, func(context.Context) error {
		calls.Add(1)
		return nil
	}, quiet())
	require.NoError(t, err)

	require.NoError(t, p.Trigger(context.Background()))
	assert.Equal(t, int32(1), calls.Load())
}
