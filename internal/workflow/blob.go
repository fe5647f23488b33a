// Package workflow persists and exchanges canvas compositions: the saved
// workflow blob, drag payloads, and exported flow files.
package workflow

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ggonzalez94/defi-composer/internal/canvas"
	clierr "github.com/ggonzalez94/defi-composer/internal/errors"
	"github.com/ggonzalez94/defi-composer/internal/kvstore"
)

const (
	StorageKey  = "defi-workflow-v2"
	BlobVersion = "2.0"
)

// KV is the persistence surface the blob needs.
type KV interface {
	Get(key string) (kvstore.Entry, bool, error)
	Put(key string, value []byte) error
}

type BlobBlock struct {
	Type     canvas.Kind      `json:"type"`
	Name     string           `json:"name"`
	Position *canvas.Position `json:"position,omitempty"`
}

type BlobMetadata struct {
	Version     string `json:"version"`
	CreatedAt   int64  `json:"createdAt"`
	TotalBlocks int    `json:"totalBlocks"`
	IsValid     bool   `json:"isValid"`
}

// Blob is the saved projection of a canvas. Token amounts are not part of it.
type Blob struct {
	Blocks   []BlobBlock  `json:"blocks"`
	Metadata BlobMetadata `json:"metadata"`
}

func NewBlob(tiles []canvas.Tile, now time.Time) Blob {
	blocks := make([]BlobBlock, 0, len(tiles))
	for _, tile := range tiles {
		pos := tile.Position
		blocks = append(blocks, BlobBlock{Type: tile.Kind, Name: tile.Name, Position: &pos})
	}
	return Blob{
		Blocks: blocks,
		Metadata: BlobMetadata{
			Version:     BlobVersion,
			CreatedAt:   now.UnixMilli(),
			TotalBlocks: len(tiles),
			IsValid:     canvas.IsValid(tiles),
		},
	}
}

// DecodeBlob parses and checks a saved blob, normalizing block types and
// names. Every failure is CodeBlobCorrupt.
func DecodeBlob(data []byte) (Blob, error) {
	var blob Blob
	if err := json.Unmarshal(data, &blob); err != nil {
		return Blob{}, clierr.Wrap(clierr.CodeBlobCorrupt, "decode saved workflow", err)
	}
	if blob.Blocks == nil {
		return Blob{}, clierr.New(clierr.CodeBlobCorrupt, "saved workflow has no blocks array")
	}
	for i, block := range blob.Blocks {
		kind, err := canvas.ParseKind(string(block.Type))
		if err != nil {
			return Blob{}, clierr.New(clierr.CodeBlobCorrupt, fmt.Sprintf("saved block %d has unknown type %q", i, block.Type))
		}
		name := strings.TrimSpace(block.Name)
		if name == "" {
			return Blob{}, clierr.New(clierr.CodeBlobCorrupt, fmt.Sprintf("saved block %d has no name", i))
		}
		blob.Blocks[i].Type = kind
		blob.Blocks[i].Name = name
	}
	return blob, nil
}

func Save(kv KV, tiles []canvas.Tile, now time.Time) (Blob, error) {
	blob := NewBlob(tiles, now)
	data, err := json.Marshal(blob)
	if err != nil {
		return Blob{}, clierr.Wrap(clierr.CodeInternal, "encode workflow", err)
	}
	if err := kv.Put(StorageKey, data); err != nil {
		return Blob{}, clierr.Wrap(clierr.CodeInternal, "save workflow", err)
	}
	return blob, nil
}

// Load reads the saved blob without touching any canvas.
func Load(kv KV) (Blob, error) {
	entry, ok, err := kv.Get(StorageKey)
	if err != nil {
		return Blob{}, clierr.Wrap(clierr.CodeInternal, "read saved workflow", err)
	}
	if !ok {
		return Blob{}, clierr.New(clierr.CodeNotFound, "no saved workflow found")
	}
	return DecodeBlob(entry.Value)
}

// Replay clears store and re-adds the blob's blocks in order. Blocks without
// a saved position are staggered from (100, 100).
func Replay(store *canvas.Store, blob Blob) []canvas.Tile {
	store.Clear()
	for i, block := range blob.Blocks {
		pos := canvas.Position{X: float64(100 + 10*i), Y: float64(100 + 10*i)}
		if block.Position != nil {
			pos = *block.Position
		}
		store.Place(canvas.TileInput{Kind: block.Type, Name: block.Name, Position: &pos})
	}
	return store.All()
}
