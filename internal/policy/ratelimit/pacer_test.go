package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPacer_FirstCallImmediate(t *testing.T) {
	t.Parallel()

	p := NewPacer(time.Second)
	start := time.Now()
	require.NoError(t, p.Wait(context.Background()))
	require.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestPacer_SpacesSubsequentCalls(t *testing.T) {
	t.Parallel()

	delay := 50 * time.Millisecond
	p := NewPacer(delay)
	require.NoError(t, p.Wait(context.Background()))

	start := time.Now()
	require.NoError(t, p.Wait(context.Background()))
	require.GreaterOrEqual(t, time.Since(start), delay-5*time.Millisecond)
}

func TestPacer_ZeroDelayNeverWaits(t *testing.T) {
	t.Parallel()

	p := NewPacer(0)
	start := time.Now()
	for i := 0; i < 100; i++ {
		require.NoError(t, p.Wait(context.Background()))
	}
	require.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestPacer_CanceledContext(t *testing.T) {
	t.Parallel()

	p := NewPacer(time.Hour)
	require.NoError(t, p.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, p.Wait(ctx))
}

func TestPacer_NilIsNoOp(t *testing.T) {
	t.Parallel()

	var p *Pacer
	require.NoError(t, p.Wait(context.Background()))
}
