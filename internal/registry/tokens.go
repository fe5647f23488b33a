package registry

import (
	"sort"
	"strings"
)

// NativeTokenAddress is the placeholder address DSA connectors use for ETH.
const NativeTokenAddress = "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"

type TokenInfo struct {
	Symbol   string  `json:"symbol"`
	Decimals int     `json:"decimals"`
	Address  string  `json:"address"`
	PriceUSD float64 `json:"price_usd"`
}

var tokensBySymbol = map[string]TokenInfo{
	"ETH":  {Symbol: "ETH", Decimals: 18, Address: NativeTokenAddress, PriceUSD: 2450},
	"DAI":  {Symbol: "DAI", Decimals: 18, Address: "0x6B175474E89094C44Da98b954EedeAC495271d0F", PriceUSD: 1.00},
	"USDC": {Symbol: "USDC", Decimals: 6, Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", PriceUSD: 1.00},
	"WBTC": {Symbol: "WBTC", Decimals: 8, Address: "0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599", PriceUSD: 42500},
	"LINK": {Symbol: "LINK", Decimals: 18, Address: "0x514910771AF9Ca656af840dff83E8264EcF986CA", PriceUSD: 15.20},
	"UNI":  {Symbol: "UNI", Decimals: 18, Address: "0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984", PriceUSD: 8.45},
}

func Token(symbol string) (TokenInfo, bool) {
	info, ok := tokensBySymbol[strings.TrimSpace(symbol)]
	return info, ok
}

func Tokens() []TokenInfo {
	out := make([]TokenInfo, 0, len(tokensBySymbol))
	for _, info := range tokensBySymbol {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// InitialPrices returns a fresh copy of the seed USD price table.
func InitialPrices() map[string]float64 {
	out := make(map[string]float64, len(tokensBySymbol))
	for symbol, info := range tokensBySymbol {
		out[symbol] = info.PriceUSD
	}
	return out
}
