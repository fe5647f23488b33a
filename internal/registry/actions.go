package registry

import "strings"

// Canonical action tile names mapped to DSA connector methods.
var actionMethods = map[string]string{
	"Deposit":  "deposit",
	"Borrow":   "borrow",
	"Swap":     "sell",
	"Repay":    "payback",
	"Withdraw": "withdraw",
	"Stake":    "stake",
}

var actionOrder = []string{"Deposit", "Borrow", "Swap", "Repay", "Withdraw", "Stake"}

type ActionInfo struct {
	Name   string `json:"name"`
	Method string `json:"method"`
}

// MethodFor resolves an action name to its connector method. Unknown actions
// fall back to the lowercased name. Lookup is case-sensitive.
func MethodFor(action string) string {
	if method, ok := actionMethods[action]; ok {
		return method
	}
	return strings.ToLower(action)
}

func Actions() []ActionInfo {
	out := make([]ActionInfo, 0, len(actionOrder))
	for _, name := range actionOrder {
		out = append(out, ActionInfo{Name: name, Method: actionMethods[name]})
	}
	return out
}
