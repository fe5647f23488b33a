package prices

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/benbjohnson/clock"
)

const DefaultTickInterval = 5 * time.Second

type TickerOptions struct {
	Clock    clock.Clock
	Interval time.Duration
	Rand     *rand.Rand
	Logger   *slog.Logger
	OnTick   func(Snapshot)
}

// Ticker periodically jitters a Table until its context is cancelled.
type Ticker struct {
	table    *Table
	clock    clock.Clock
	interval time.Duration
	rng      *rand.Rand
	logger   *slog.Logger
	onTick   func(Snapshot)
}

func NewTicker(table *Table, opts TickerOptions) *Ticker {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultTickInterval
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Ticker{
		table:    table,
		clock:    opts.Clock,
		interval: opts.Interval,
		rng:      opts.Rand,
		logger:   opts.Logger,
		onTick:   opts.OnTick,
	}
}

func (t *Ticker) Run(ctx context.Context) error {
	tick := t.clock.Ticker(t.interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			t.Step()
		}
	}
}

// Step applies one tick immediately.
func (t *Ticker) Step() Snapshot {
	snap := t.table.Jitter(t.rng)
	t.logger.Debug("price tick", slog.Int("tokens", len(snap.Prices)), slog.Float64("gas_price_gwei", snap.GasPriceGwei))
	if t.onTick != nil {
		t.onTick(snap)
	}
	return snap
}
