package registry

import (
	"sort"
	"strings"
)

// ProtocolInfo is the static market card shown for a protocol tile.
type ProtocolInfo struct {
	Name string `json:"name"`
	APY  string `json:"apy"`
	TVL  string `json:"tvl"`
	Risk string `json:"risk"`
}

var protocolsByName = map[string]ProtocolInfo{
	"MakerDAO": {Name: "MakerDAO", APY: "5.2%", TVL: "$8.5B", Risk: "Low"},
	"Compound": {Name: "Compound", APY: "3.8%", TVL: "$2.1B", Risk: "Low"},
	"Aave":     {Name: "Aave", APY: "4.5%", TVL: "$12.3B", Risk: "Medium"},
	"Uniswap":  {Name: "Uniswap", APY: "Variable", TVL: "$5.8B", Risk: "High"},
	"Curve":    {Name: "Curve", APY: "12.5%", TVL: "$4.2B", Risk: "Medium"},
	"Yearn":    {Name: "Yearn", APY: "18.3%", TVL: "$890M", Risk: "High"},
}

// Protocol looks up a protocol by its exact tile name.
func Protocol(name string) (ProtocolInfo, bool) {
	info, ok := protocolsByName[strings.TrimSpace(name)]
	return info, ok
}

// Protocols returns every known protocol sorted by name.
func Protocols() []ProtocolInfo {
	out := make([]ProtocolInfo, 0, len(protocolsByName))
	for _, info := range protocolsByName {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
