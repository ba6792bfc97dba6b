package util

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordingSleep(got *[]time.Duration) SleepFunc {
	return func(_ context.Context, d time.Duration) error {
		*got = append(*got, d)
		return nil
	}
}

func TestPacer_WaitStaysInsideWindow(t *testing.T) {
	var slept []time.Duration
	p := NewPacer(100*time.Millisecond, 250*time.Millisecond).WithSleep(recordingSleep(&slept))

	for i := 0; i < 50; i++ {
		require.NoError(t, p.Wait(context.Background()))
	}

	assert.Equal(t, 50, p.Waits())
	for _, d := range slept {
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.Less(t, d, 250*time.Millisecond)
	}
}

func TestPacer_Defaults(t *testing.T) {
	p := NewPacer(0, 0)
	min, max := p.Window()
	assert.Equal(t, DefaultMinDelay, min)
	assert.Equal(t, DefaultMaxDelay, max)
}

func TestPacer_FixedDelay(t *testing.T) {
	var slept []time.Duration
	p := NewPacer(time.Second, time.Second).WithSleep(recordingSleep(&slept))

	require.NoError(t, p.Wait(context.Background()))
	assert.Equal(t, []time.Duration{time.Second}, slept)
}

func TestPacer_BackoffAndReset(t *testing.T) {
	p := NewPacer(100*time.Millisecond, 200*time.Millisecond)

	assert.Equal(t, 300*time.Millisecond, p.Backoff())
	min, max := p.Window()
	assert.Equal(t, 150*time.Millisecond, min)
	assert.Equal(t, 300*time.Millisecond, max)

	for i := 0; i < 20; i++ {
		p.Backoff()
	}
	_, max = p.Window()
	assert.Equal(t, DefaultCeiling, max)

	p.Reset()
	min, max = p.Window()
	assert.Equal(t, 100*time.Millisecond, min)
	assert.Equal(t, 200*time.Millisecond, max)
}

func TestSleep_HonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}
