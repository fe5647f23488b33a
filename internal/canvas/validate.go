package canvas

import "fmt"

// Breakdown is the per-kind tile count of a canvas plus its validity verdict.
type Breakdown struct {
	Protocols int  `json:"protocols"`
	Tokens    int  `json:"tokens"`
	Actions   int  `json:"actions"`
	Total     int  `json:"total"`
	Valid     bool `json:"valid"`
}

// IsValid reports whether the tiles form an executable transaction: at least
// one protocol, one token and one action. Counts and ordering do not matter.
func IsValid(tiles []Tile) bool {
	return Analyze(tiles).Valid
}

func Analyze(tiles []Tile) Breakdown {
	var b Breakdown
	for _, tile := range tiles {
		switch tile.Kind {
		case KindProtocol:
			b.Protocols++
		case KindToken:
			b.Tokens++
		case KindAction:
			b.Actions++
		}
	}
	b.Total = len(tiles)
	b.Valid = b.Total > 0 && b.Protocols > 0 && b.Tokens > 0 && b.Actions > 0
	return b
}

const MissingKindsHint = "Need at least: 1 Protocol + 1 Action + 1 Token"

// Report renders the validation summary shown to the user.
func (b Breakdown) Report() string {
	verdict := "Valid Flow"
	if !b.Valid {
		verdict = "Invalid Flow"
	}
	msg := fmt.Sprintf("Flow Analysis: Protocols: %d | Actions: %d | Tokens: %d | Status: %s", b.Protocols, b.Actions, b.Tokens, verdict)
	if !b.Valid {
		msg += " | " + MissingKindsHint
	}
	return msg
}

// StatusText is the execute-gate status line for the current canvas.
func StatusText(b Breakdown, walletConnected bool) string {
	switch {
	case !walletConnected:
		return "Connect wallet to continue"
	case b.Total == 0:
		return "Add blocks to build transaction"
	case !b.Valid:
		return "Need Protocol + Action + Token"
	default:
		return fmt.Sprintf("Ready to execute with %d blocks", b.Total)
	}
}
