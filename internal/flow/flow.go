package flow

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ggonzalez94/defi-composer/internal/canvas"
)

const (
	BaseGas = 21000
	// FallbackGas covers any tile kind without a dedicated cost.
	FallbackGas = 50000
	// DefaultAmount is used for token tiles without a usable amount input.
	DefaultAmount = 1.0
)

var gasPerKind = map[canvas.Kind]int64{
	canvas.KindProtocol: 100000,
	canvas.KindToken:    50000,
	canvas.KindAction:   75000,
}

// PriceSource resolves a token symbol to a USD price, zero when unknown.
type PriceSource interface {
	PriceOf(symbol string) float64
}

type BlockRef struct {
	Kind canvas.Kind `json:"type"`
	Name string      `json:"name"`
}

// TransactionFlow is the immutable record built from a canvas snapshot.
type TransactionFlow struct {
	Protocols      []string           `json:"protocols"`
	Tokens         []string           `json:"tokens"`
	Actions        []string           `json:"actions"`
	TokenAmounts   map[string]float64 `json:"tokenAmounts"`
	EstimatedGas   int64              `json:"estimatedGas"`
	EstimatedValue float64            `json:"estimatedValue"`
	Timestamp      int64              `json:"timestamp"`
	WalletAddress  string             `json:"walletAddress,omitempty"`
	BlockOrder     []BlockRef         `json:"blockOrder"`
}

type BuildOptions struct {
	Now           time.Time
	WalletAddress string
}

// Build groups tiles by kind and derives amounts, gas and value. Callers are
// expected to check canvas.IsValid first; an invalid canvas still builds but
// the result has empty groups.
func Build(tiles []canvas.Tile, prices PriceSource, opts BuildOptions) TransactionFlow {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	f := TransactionFlow{
		Protocols:     []string{},
		Tokens:        []string{},
		Actions:       []string{},
		TokenAmounts:  map[string]float64{},
		Timestamp:     opts.Now.UnixMilli(),
		WalletAddress: opts.WalletAddress,
		BlockOrder:    make([]BlockRef, 0, len(tiles)),
	}
	for _, tile := range tiles {
		switch tile.Kind {
		case canvas.KindProtocol:
			f.Protocols = append(f.Protocols, tile.Name)
		case canvas.KindToken:
			f.Tokens = append(f.Tokens, tile.Name)
			f.TokenAmounts[tile.Name] = ResolveAmount(tile.Amount)
		case canvas.KindAction:
			f.Actions = append(f.Actions, tile.Name)
		}
		f.BlockOrder = append(f.BlockOrder, BlockRef{Kind: tile.Kind, Name: tile.Name})
	}
	f.EstimatedGas = EstimateGas(tiles)
	f.EstimatedValue = EstimateValue(tiles, prices)
	return f
}

// ResolveAmount parses a raw amount input. Anything that is not a finite
// positive number resolves to DefaultAmount.
func ResolveAmount(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return DefaultAmount
	}
	return v
}

func EstimateGas(tiles []canvas.Tile) int64 {
	total := int64(BaseGas)
	for _, tile := range tiles {
		gas, ok := gasPerKind[tile.Kind]
		if !ok {
			gas = FallbackGas
		}
		total += gas
	}
	return total
}

// EstimateValue sums amount times price over token tiles, each tile using
// its own amount input.
func EstimateValue(tiles []canvas.Tile, prices PriceSource) float64 {
	total := 0.0
	for _, tile := range tiles {
		if tile.Kind != canvas.KindToken {
			continue
		}
		price := 0.0
		if prices != nil {
			price = prices.PriceOf(tile.Name)
		}
		total += ResolveAmount(tile.Amount) * price
	}
	return total
}

// DisplayGasEstimate is the coarse per-tile estimate shown while composing.
func DisplayGasEstimate(tileCount int) int64 {
	return BaseGas + int64(tileCount)*FallbackGas
}
