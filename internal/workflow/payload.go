package workflow

import (
	"encoding/json"
	"strings"

	"github.com/ggonzalez94/defi-composer/internal/canvas"
	clierr "github.com/ggonzalez94/defi-composer/internal/errors"
)

// Payload is the palette-to-canvas transfer record. Icon and price are
// display hints and are carried through untouched.
type Payload struct {
	Type  string          `json:"type"`
	Name  string          `json:"name"`
	Icon  string          `json:"icon,omitempty"`
	Price json.RawMessage `json:"price,omitempty"`
}

func EncodePayload(kind canvas.Kind, name string) []byte {
	data, _ := json.Marshal(Payload{Type: string(kind), Name: name})
	return data
}

// ParsePayload turns a dropped payload into a tile input. Any malformed
// payload is CodeMalformedPayload.
func ParsePayload(data []byte) (canvas.TileInput, error) {
	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return canvas.TileInput{}, clierr.Wrap(clierr.CodeMalformedPayload, "parse drag payload", err)
	}
	kind, err := canvas.ParseKind(payload.Type)
	if err != nil {
		return canvas.TileInput{}, clierr.Wrap(clierr.CodeMalformedPayload, "parse drag payload", err)
	}
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		return canvas.TileInput{}, clierr.New(clierr.CodeMalformedPayload, "drag payload has no name")
	}
	return canvas.TileInput{Kind: kind, Name: name}, nil
}
