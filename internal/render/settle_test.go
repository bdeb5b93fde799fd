package render

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kotae/internal/config"
)

func TestSettler_QuiescenceReturnsEarly(t *testing.T) {
	s := Settler{Mode: config.SettleModeQuiescence, Delay: 5 * time.Second, PollInterval: 5 * time.Millisecond, QuietPeriod: 20 * time.Millisecond}
	sizes := []int{10, 40, 80}
	calls := 0
	start := time.Now()
	err := s.Wait(context.Background(), func(context.Context) (int, error) {
		n := sizes[min(calls, len(sizes)-1)]
		calls++
		return n, nil
	})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.GreaterOrEqual(t, calls, 4)
}

func TestSettler_QuiescenceBoundedByDelay(t *testing.T) {
	s := Settler{Mode: config.SettleModeQuiescence, Delay: 60 * time.Millisecond, PollInterval: 5 * time.Millisecond, QuietPeriod: time.Second}
	n := 0
	start := time.Now()
	err := s.Wait(context.Background(), func(context.Context) (int, error) {
		n++
		return n, nil
	})
	require.NoError(t, err)
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 60*time.Millisecond)
	assert.Less(t, elapsed, time.Second)
}

func TestSettler_Fixed(t *testing.T) {
	s := Settler{Mode: config.SettleModeFixed, Delay: 30 * time.Millisecond, PollInterval: time.Millisecond}
	start := time.Now()
	err := s.Wait(context.Background(), func(context.Context) (int, error) {
		t.Fatal("fixed mode must not probe")
		return 0, nil
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestSettler_ProbeError(t *testing.T) {
	s := Settler{Mode: config.SettleModeQuiescence, Delay: time.Second, PollInterval: time.Millisecond, QuietPeriod: time.Second}
	boom := errors.New("target closed")
	err := s.Wait(context.Background(), func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
}

func TestSettler_Canceled(t *testing.T) {
	s := Settler{Mode: config.SettleModeFixed, Delay: time.Minute}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Wait(ctx, nil), context.Canceled)
}

func TestSettlerFromConfig(t *testing.T) {
	cfg := config.Default()
	s := SettlerFromConfig(&cfg.Render)
	assert.Equal(t, config.SettleModeQuiescence, s.Mode)
	assert.Equal(t, config.DefaultSettleDelay, s.Delay)
}
