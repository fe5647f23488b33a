package spell

import (
	"strconv"

	"github.com/ggonzalez94/defi-composer/internal/flow"
	"github.com/ggonzalez94/defi-composer/internal/prices"
)

const Origin = "defi-drag-drop-composer-v2"

type Metadata struct {
	Protocols      []string `json:"protocols"`
	Tokens         []string `json:"tokens"`
	Actions        []string `json:"actions"`
	EstimatedGas   int64    `json:"estimatedGas"`
	EstimatedValue float64  `json:"estimatedValue"`
	WalletAddress  string   `json:"walletAddress,omitempty"`
	Timestamp      int64    `json:"timestamp"`
}

// Envelope is the submission-ready form of a compiled spell.
type Envelope struct {
	Spells   []Step   `json:"spells"`
	Origin   string   `json:"origin"`
	Metadata Metadata `json:"metadata"`
	GasLimit string   `json:"gasLimit"`
	GasPrice string   `json:"gasPrice"`
	Calldata string   `json:"calldata,omitempty"`
}

func NewEnvelope(f flow.TransactionFlow, steps []Step, gasPriceGwei float64) Envelope {
	return Envelope{
		Spells: steps,
		Origin: Origin,
		Metadata: Metadata{
			Protocols:      f.Protocols,
			Tokens:         f.Tokens,
			Actions:        f.Actions,
			EstimatedGas:   f.EstimatedGas,
			EstimatedValue: f.EstimatedValue,
			WalletAddress:  f.WalletAddress,
			Timestamp:      f.Timestamp,
		},
		GasLimit: strconv.FormatInt(f.EstimatedGas, 10),
		GasPrice: prices.GasPriceWei(gasPriceGwei),
	}
}
