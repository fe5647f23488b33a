package prices

import (
	"math/big"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// Table is the shared mock USD price table plus the current gas price. All
// reads and the periodic jitter go through one lock so a reader always sees
// a whole tick, never half of one.
type Table struct {
	mu           sync.RWMutex
	prices       map[string]float64
	gasPriceGwei float64
	updatedAt    time.Time
	now          func() time.Time
}

type Snapshot struct {
	Prices       map[string]float64 `json:"prices"`
	GasPriceGwei float64            `json:"gas_price_gwei"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

func NewTable(initial map[string]float64, gasPriceGwei float64) *Table {
	prices := make(map[string]float64, len(initial))
	for k, v := range initial {
		prices[k] = v
	}
	return &Table{
		prices:       prices,
		gasPriceGwei: gasPriceGwei,
		updatedAt:    time.Now().UTC(),
		now:          time.Now,
	}
}

func (t *Table) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshotLocked()
}

func (t *Table) snapshotLocked() Snapshot {
	prices := make(map[string]float64, len(t.prices))
	for k, v := range t.prices {
		prices[k] = v
	}
	return Snapshot{Prices: prices, GasPriceGwei: t.gasPriceGwei, UpdatedAt: t.updatedAt}
}

func (t *Table) Price(symbol string) (float64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.prices[symbol]
	return v, ok
}

// Jitter moves every price by a random factor in [-1%, +1%).
func (t *Table) Jitter(rng *rand.Rand) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	symbols := make([]string, 0, len(t.prices))
	for symbol := range t.prices {
		symbols = append(symbols, symbol)
	}
	// Stable order keeps seeded runs reproducible.
	sort.Strings(symbols)
	for _, symbol := range symbols {
		change := (rng.Float64() - 0.5) * 0.02
		t.prices[symbol] *= 1 + change
	}
	t.updatedAt = t.now().UTC()
	return t.snapshotLocked()
}

// PriceOf returns the snapshot price of a symbol, zero when unknown.
func (s Snapshot) PriceOf(symbol string) float64 {
	return s.Prices[symbol]
}

// GasCostETH converts a gas amount at a gwei price into ETH.
func GasCostETH(gas int64, gasPriceGwei float64) float64 {
	return float64(gas) * gasPriceGwei / 1e9
}

// GasPriceWei renders a gwei price as an integer wei string.
func GasPriceWei(gasPriceGwei float64) string {
	wei := new(big.Float).SetPrec(128).SetFloat64(gasPriceGwei)
	wei.Mul(wei, big.NewFloat(1e9))
	out, _ := wei.Int(nil)
	return out.String()
}
