package policy

import (
	"testing"

	clierr "github.com/ggonzalez94/defi-composer/internal/errors"
)

func TestCheckCommandAllowed(t *testing.T) {
	if err := CheckCommandAllowed(nil, "flow execute"); err != nil {
		t.Fatalf("unexpected error with empty allowlist: %v", err)
	}
	if err := CheckCommandAllowed([]string{"Flow  Preview"}, "flow preview"); err != nil {
		t.Fatalf("expected command to be allowed: %v", err)
	}
	if err := CheckCommandAllowed([]string{"flow preview"}, "flow execute"); !clierr.IsCode(err, clierr.CodeBlocked) {
		t.Fatalf("expected command to be blocked, got %v", err)
	}
}

func TestCheckExecutionLimits(t *testing.T) {
	tests := []struct {
		name    string
		limits  Limits
		blocks  int
		value   float64
		blocked bool
	}{
		{name: "unlimited", limits: Limits{}, blocks: 50, value: 1e9},
		{name: "within", limits: Limits{MaxBlocks: 3, MaxValueUSD: 100}, blocks: 3, value: 100},
		{name: "too many blocks", limits: Limits{MaxBlocks: 2}, blocks: 3, blocked: true},
		{name: "too much value", limits: Limits{MaxValueUSD: 50}, blocks: 1, value: 50.01, blocked: true},
	}
	for _, tc := range tests {
		err := CheckExecutionLimits(tc.limits, tc.blocks, tc.value)
		if tc.blocked != clierr.IsCode(err, clierr.CodeBlocked) {
			t.Fatalf("%s: unexpected result %v", tc.name, err)
		}
	}
}
