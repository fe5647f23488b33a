package policy

import (
	"fmt"
	"strings"

	clierr "github.com/ggonzalez94/defi-composer/internal/errors"
)

func CheckCommandAllowed(allowlist []string, commandPath string) error {
	if len(allowlist) == 0 {
		return nil
	}
	normPath := normalize(commandPath)
	for _, allowed := range allowlist {
		if normalize(allowed) == normPath {
			return nil
		}
	}
	return clierr.New(clierr.CodeBlocked, "command blocked by --enable-commands policy")
}

// Limits caps what a single execution may carry. Zero disables a limit.
type Limits struct {
	MaxBlocks   int     `json:"max_blocks"`
	MaxValueUSD float64 `json:"max_value_usd"`
}

func CheckExecutionLimits(limits Limits, blocks int, valueUSD float64) error {
	if limits.MaxBlocks > 0 && blocks > limits.MaxBlocks {
		return clierr.New(clierr.CodeBlocked, fmt.Sprintf("execution blocked: %d blocks exceeds max_blocks %d", blocks, limits.MaxBlocks))
	}
	if limits.MaxValueUSD > 0 && valueUSD > limits.MaxValueUSD {
		return clierr.New(clierr.CodeBlocked, fmt.Sprintf("execution blocked: value $%.2f exceeds max_value_usd $%.2f", valueUSD, limits.MaxValueUSD))
	}
	return nil
}

func normalize(v string) string {
	parts := strings.Fields(strings.ToLower(strings.TrimSpace(v)))
	return strings.Join(parts, " ")
}
