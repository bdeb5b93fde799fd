package render

import (
	"context"
	"time"

	"github.com/hyperjump/kotae/internal/config"
)

// Settler waits for deferred scripts after navigation has completed.
type Settler struct {
	Mode         string
	Delay        time.Duration
	PollInterval time.Duration
	QuietPeriod  time.Duration
}

// SettlerFromConfig builds a Settler from render settings.
func SettlerFromConfig(cfg *config.RenderConfig) Settler {
	return Settler{
		Mode:         cfg.SettleMode,
		Delay:        cfg.SettleDelay,
		PollInterval: cfg.PollInterval,
		QuietPeriod:  cfg.QuietPeriod,
	}
}

// Wait blocks until the page settles. In fixed mode it sleeps Delay. In quiescence mode it calls
// probe every PollInterval and returns once the probed size has not changed for QuietPeriod,
// or when Delay has elapsed, whichever comes first.
func (s Settler) Wait(ctx context.Context, probe func(context.Context) (int, error)) error {
	if s.Mode == config.SettleModeFixed || s.PollInterval <= 0 {
		return sleep(ctx, s.Delay)
	}

	start := time.Now()
	ticker := time.NewTicker(s.PollInterval)
	defer ticker.Stop()

	last, stableSince := -1, start
	for {
		n, err := probe(ctx)
		if err != nil {
			return err
		}
		now := time.Now()
		if n != last {
			last, stableSince = n, now
		} else if now.Sub(stableSince) >= s.QuietPeriod {
			return nil
		}
		if now.Sub(start) >= s.Delay {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
