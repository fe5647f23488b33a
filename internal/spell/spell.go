package spell

import (
	"math"
	"strconv"
	"strings"

	clierr "github.com/ggonzalez94/defi-composer/internal/errors"
	"github.com/ggonzalez94/defi-composer/internal/flow"
	"github.com/ggonzalez94/defi-composer/internal/registry"
)

const (
	// AmountDecimals is the fixed-point scale applied to every step amount.
	AmountDecimals  = 18
	ConnectorSuffix = "_v2"
)

// Step is one connector call in a compiled spell.
type Step struct {
	Connector string   `json:"connector"`
	Method    string   `json:"method"`
	Args      []string `json:"args"`
}

// Compile turns a flow into one step per action. Each action is paired with
// protocols[i mod len] and tokens[i mod len]; no attempt is made to match an
// action with a semantically related protocol or token.
func Compile(f flow.TransactionFlow) ([]Step, error) {
	if len(f.Protocols) == 0 || len(f.Tokens) == 0 {
		return nil, clierr.New(clierr.CodeInvalidFlow, "spell requires at least one protocol and one token")
	}
	steps := make([]Step, 0, len(f.Actions))
	for i, action := range f.Actions {
		protocol := f.Protocols[i%len(f.Protocols)]
		token := f.Tokens[i%len(f.Tokens)]
		amount, ok := f.TokenAmounts[token]
		if !ok {
			amount = flow.DefaultAmount
		}
		steps = append(steps, Step{
			Connector: ConnectorName(protocol),
			Method:    registry.MethodFor(action),
			Args:      []string{token, ToFixedPointString(amount, AmountDecimals), "0", "0", "0"},
		})
	}
	return steps, nil
}

func ConnectorName(protocol string) string {
	return strings.ToLower(protocol) + ConnectorSuffix
}

// ToFixedPointString scales the shortest decimal form of amount by
// 10^decimals and truncates toward zero.
// Non-finite and non-positive amounts yield "0".
func ToFixedPointString(amount float64, decimals int) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 || decimals < 0 {
		return "0"
	}
	raw := strconv.FormatFloat(amount, 'f', -1, 64)
	intPart, fracPart, _ := strings.Cut(raw, ".")
	if len(fracPart) > decimals {
		fracPart = fracPart[:decimals]
	}
	fracPart += strings.Repeat("0", decimals-len(fracPart))
	combined := strings.TrimLeft(intPart+fracPart, "0")
	if combined == "" {
		return "0"
	}
	return combined
}
