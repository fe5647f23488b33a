package flow

import (
	"github.com/ggonzalez94/defi-composer/internal/canvas"
	"github.com/ggonzalez94/defi-composer/internal/prices"
)

// Preview is the read-only summary shown before execution.
type Preview struct {
	Flow         TransactionFlow  `json:"flow"`
	Breakdown    canvas.Breakdown `json:"breakdown"`
	GasPriceGwei float64          `json:"gas_price_gwei"`
	GasCostETH   float64          `json:"gas_cost_eth"`
	ValueUSD     float64          `json:"value_usd"`
}

func NewPreview(tiles []canvas.Tile, snap prices.Snapshot, opts BuildOptions) Preview {
	f := Build(tiles, snap, opts)
	return Preview{
		Flow:         f,
		Breakdown:    canvas.Analyze(tiles),
		GasPriceGwei: snap.GasPriceGwei,
		GasCostETH:   prices.GasCostETH(f.EstimatedGas, snap.GasPriceGwei),
		ValueUSD:     f.EstimatedValue,
	}
}
