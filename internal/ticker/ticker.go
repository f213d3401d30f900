package ticker

import (
	"context"
	"time"
)

// AdvanceFunc - one step of the economy. Returning false tells the ticker the
// match is over or gone and the loop should stop.
type AdvanceFunc func(now time.Time) bool

// Ticker drives the resource economy at a fixed cadence.
type Ticker struct {
	interval time.Duration
}

func New(interval time.Duration) *Ticker {
	return &Ticker{interval: interval}
}

// Run - drives the fixed-rate loop until the context is canceled or advance
// reports the game is done. Blocks; callers run it on its own goroutine.
func (that *Ticker) Run(ctx context.Context, advance AdvanceFunc) {
	tick := time.NewTicker(that.interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-tick.C:
			if !advance(now) {
				return
			}
		}
	}
}
