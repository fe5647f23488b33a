package canvas

import (
	"fmt"
	"strings"

	clierr "github.com/ggonzalez94/defi-composer/internal/errors"
)

type Kind string

const (
	KindProtocol Kind = "protocol"
	KindToken    Kind = "token"
	KindAction   Kind = "action"
)

// Kinds lists the closed kind set in display order.
var Kinds = []Kind{KindProtocol, KindToken, KindAction}

func ParseKind(v string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(v))) {
	case KindProtocol:
		return KindProtocol, nil
	case KindToken:
		return KindToken, nil
	case KindAction:
		return KindAction, nil
	default:
		return "", clierr.New(clierr.CodeUsage, fmt.Sprintf("unknown block type %q (protocol|token|action)", v))
	}
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Tile is a block placed on the canvas. Amount holds the raw amount input of
// a token tile exactly as entered; it is resolved when a flow is built.
type Tile struct {
	ID       string   `json:"id"`
	Kind     Kind     `json:"type"`
	Name     string   `json:"name"`
	Amount   string   `json:"amount,omitempty"`
	Order    int      `json:"order"`
	Position Position `json:"position"`
}

// TileInput describes a tile to place. A nil Position gets the default grid
// slot for its insertion order.
type TileInput struct {
	Kind     Kind
	Name     string
	Amount   string
	Position *Position
}

func defaultPosition(order int) Position {
	return Position{X: float64(order * 160), Y: float64((order / 5) * 80)}
}
