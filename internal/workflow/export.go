package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ggonzalez94/defi-composer/internal/canvas"
	clierr "github.com/ggonzalez94/defi-composer/internal/errors"
	"github.com/ggonzalez94/defi-composer/internal/flow"
)

func ExportFileName(now time.Time) string {
	return fmt.Sprintf("defi-workflow-%d.json", now.UnixMilli())
}

// Export writes the flow as indented JSON into dir and returns the path.
func Export(dir string, f flow.TransactionFlow, now time.Time) (string, error) {
	if dir == "" {
		dir = "."
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return "", clierr.Wrap(clierr.CodeInternal, "encode exported workflow", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", clierr.Wrap(clierr.CodeUsage, "create export directory", err)
	}
	path := filepath.Join(dir, ExportFileName(now))
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", clierr.Wrap(clierr.CodeUsage, "write exported workflow", err)
	}
	return path, nil
}

// Import reads a flow previously written by Export.
func Import(path string) (flow.TransactionFlow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return flow.TransactionFlow{}, clierr.Wrap(clierr.CodeNotFound, "read workflow file", err)
		}
		return flow.TransactionFlow{}, clierr.Wrap(clierr.CodeUsage, "read workflow file", err)
	}
	var f flow.TransactionFlow
	if err := json.Unmarshal(data, &f); err != nil {
		return flow.TransactionFlow{}, clierr.Wrap(clierr.CodeBlobCorrupt, "decode workflow file", err)
	}
	for i, ref := range f.BlockOrder {
		kind, err := canvas.ParseKind(string(ref.Kind))
		name := strings.TrimSpace(ref.Name)
		if err != nil || name == "" {
			return flow.TransactionFlow{}, clierr.New(clierr.CodeBlobCorrupt, fmt.Sprintf("workflow file block %d is invalid", i))
		}
		f.BlockOrder[i] = flow.BlockRef{Kind: kind, Name: name}
	}
	if len(f.TokenAmounts) > 0 {
		amounts := make(map[string]float64, len(f.TokenAmounts))
		for name, amount := range f.TokenAmounts {
			amounts[strings.TrimSpace(name)] = amount
		}
		f.TokenAmounts = amounts
	}
	return f, nil
}

// ReplayFlow rebuilds a canvas from an imported flow's block order, restoring
// token amounts.
func ReplayFlow(store *canvas.Store, f flow.TransactionFlow) []canvas.Tile {
	store.Clear()
	for _, ref := range f.BlockOrder {
		in := canvas.TileInput{Kind: ref.Kind, Name: ref.Name}
		if ref.Kind == canvas.KindToken {
			if amount, ok := f.TokenAmounts[ref.Name]; ok {
				in.Amount = strconv.FormatFloat(amount, 'f', -1, 64)
			}
		}
		store.Place(in)
	}
	return store.All()
}
