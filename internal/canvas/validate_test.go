package canvas

import (
	"math/rand"
	"testing"
)

func TestIsValidRequiresEveryKind(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for protocols := 0; protocols <= 3; protocols++ {
		for tokens := 0; tokens <= 3; tokens++ {
			for actions := 0; actions <= 3; actions++ {
				tiles := make([]Tile, 0, protocols+tokens+actions)
				for i := 0; i < protocols; i++ {
					tiles = append(tiles, Tile{Kind: KindProtocol, Name: "Aave"})
				}
				for i := 0; i < tokens; i++ {
					tiles = append(tiles, Tile{Kind: KindToken, Name: "DAI"})
				}
				for i := 0; i < actions; i++ {
					tiles = append(tiles, Tile{Kind: KindAction, Name: "Deposit"})
				}
				rng.Shuffle(len(tiles), func(i, j int) { tiles[i], tiles[j] = tiles[j], tiles[i] })

				want := protocols > 0 && tokens > 0 && actions > 0
				if got := IsValid(tiles); got != want {
					t.Fatalf("protocols=%d tokens=%d actions=%d: got %v want %v", protocols, tokens, actions, got, want)
				}
			}
		}
	}
}

func TestAnalyzeCountsAndStatusText(t *testing.T) {
	tiles := []Tile{
		{Kind: KindProtocol}, {Kind: KindProtocol}, {Kind: KindProtocol},
		{Kind: KindProtocol}, {Kind: KindProtocol},
	}
	b := Analyze(tiles)
	if b.Protocols != 5 || b.Valid {
		t.Fatalf("five protocols without token must be invalid: %+v", b)
	}
	cases := []struct {
		b         Breakdown
		connected bool
		want      string
	}{
		{Breakdown{}, false, "Connect wallet to continue"},
		{Breakdown{}, true, "Add blocks to build transaction"},
		{b, true, "Need Protocol + Action + Token"},
		{Breakdown{Protocols: 1, Tokens: 1, Actions: 1, Total: 3, Valid: true}, true, "Ready to execute with 3 blocks"},
	}
	for _, tc := range cases {
		if got := StatusText(tc.b, tc.connected); got != tc.want {
			t.Fatalf("StatusText(%+v, %v) = %q, want %q", tc.b, tc.connected, got, tc.want)
		}
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind(" Token "); err != nil || k != KindToken {
		t.Fatalf("unexpected parse result: %v %v", k, err)
	}
	if _, err := ParseKind("vault"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
