package workflow

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ggonzalez94/defi-composer/internal/canvas"
	clierr "github.com/ggonzalez94/defi-composer/internal/errors"
	"github.com/ggonzalez94/defi-composer/internal/flow"
	"github.com/ggonzalez94/defi-composer/internal/kvstore"
)

type memKV map[string][]byte

func (m memKV) Get(key string) (kvstore.Entry, bool, error) {
	v, ok := m[key]
	return kvstore.Entry{Key: key, Value: v}, ok, nil
}

func (m memKV) Put(key string, value []byte) error {
	m[key] = value
	return nil
}

func sampleStore() *canvas.Store {
	store := canvas.NewStore()
	store.Add(canvas.KindProtocol, "Aave", "")
	store.Add(canvas.KindToken, "DAI", "100")
	store.Add(canvas.KindAction, "Deposit", "")
	return store
}

func TestSaveLoadReplay(t *testing.T) {
	kv := memKV{}
	store := sampleStore()
	now := time.UnixMilli(1700000000123)

	blob, err := Save(kv, store.All(), now)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if blob.Metadata.Version != "2.0" || blob.Metadata.TotalBlocks != 3 || !blob.Metadata.IsValid || blob.Metadata.CreatedAt != 1700000000123 {
		t.Fatalf("unexpected metadata: %+v", blob.Metadata)
	}

	var raw map[string]any
	if err := json.Unmarshal(kv[StorageKey], &raw); err != nil {
		t.Fatalf("stored blob is not json: %v", err)
	}
	if _, ok := raw["blocks"]; !ok {
		t.Fatalf("stored blob missing blocks: %s", kv[StorageKey])
	}
	if strings.Contains(string(kv[StorageKey]), "amount") {
		t.Fatalf("stored blob should not carry amounts: %s", kv[StorageKey])
	}

	loaded, err := Load(kv)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	target := canvas.NewStore()
	target.Add(canvas.KindToken, "ETH", "1")
	tiles := Replay(target, loaded)
	if len(tiles) != 3 {
		t.Fatalf("expected replay to discard existing tiles, got %d", len(tiles))
	}
	for i, tile := range tiles {
		want := store.All()[i]
		if tile.Kind != want.Kind || tile.Name != want.Name || tile.Position != want.Position {
			t.Fatalf("replayed tile %d mismatch: %+v vs %+v", i, tile, want)
		}
		if tile.Amount != "" {
			t.Fatalf("replayed tile should have no amount: %+v", tile)
		}
	}
}

func TestLoadMissingAndCorrupt(t *testing.T) {
	kv := memKV{}
	if _, err := Load(kv); !clierr.IsCode(err, clierr.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	cases := map[string]string{
		"bad json":     `{"blocks":`,
		"no blocks":    `{"metadata":{"version":"2.0"}}`,
		"unknown type": `{"blocks":[{"type":"vault","name":"X"}]}`,
		"empty name":   `{"blocks":[{"type":"token","name":" "}]}`,
	}
	for name, payload := range cases {
		kv[StorageKey] = []byte(payload)
		if _, err := Load(kv); !clierr.IsCode(err, clierr.CodeBlobCorrupt) {
			t.Fatalf("%s: expected blob corrupt, got %v", name, err)
		}
	}
}

func TestReplayDefaultPositions(t *testing.T) {
	blob, err := DecodeBlob([]byte(`{"blocks":[{"type":"protocol","name":"Aave"},{"type":"token","name":"DAI","position":{"x":5,"y":7}},{"type":"action","name":"Swap"}]}`))
	if err != nil {
		t.Fatalf("DecodeBlob failed: %v", err)
	}
	tiles := Replay(canvas.NewStore(), blob)
	if tiles[0].Position != (canvas.Position{X: 100, Y: 100}) {
		t.Fatalf("unexpected default position: %+v", tiles[0].Position)
	}
	if tiles[1].Position != (canvas.Position{X: 5, Y: 7}) {
		t.Fatalf("expected saved position, got %+v", tiles[1].Position)
	}
	if tiles[2].Position != (canvas.Position{X: 120, Y: 120}) {
		t.Fatalf("unexpected staggered position: %+v", tiles[2].Position)
	}
}

func TestSaveLoadThroughSQLiteStore(t *testing.T) {
	tmp := t.TempDir()
	kv, err := kvstore.Open(filepath.Join(tmp, "workflow.db"), filepath.Join(tmp, "workflow.lock"))
	if err != nil {
		t.Fatalf("open kvstore: %v", err)
	}
	defer kv.Close()

	if _, err := Save(kv, sampleStore().All(), time.Now()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	blob, err := Load(kv)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(blob.Blocks) != 3 {
		t.Fatalf("unexpected blocks: %+v", blob.Blocks)
	}
}

func TestParsePayload(t *testing.T) {
	in, err := ParsePayload([]byte(`{"type":"token","name":"DAI","icon":"D","price":"$1.00"}`))
	if err != nil {
		t.Fatalf("ParsePayload failed: %v", err)
	}
	if in.Kind != canvas.KindToken || in.Name != "DAI" {
		t.Fatalf("unexpected input: %+v", in)
	}
	if _, err := ParsePayload(EncodePayload(canvas.KindAction, "Swap")); err != nil {
		t.Fatalf("round trip payload failed: %v", err)
	}

	for _, bad := range []string{`not json`, `{"type":"vault","name":"X"}`, `{"type":"token"}`, ``} {
		if _, err := ParsePayload([]byte(bad)); !clierr.IsCode(err, clierr.CodeMalformedPayload) {
			t.Fatalf("payload %q: expected malformed payload error, got %v", bad, err)
		}
	}
}

func TestExportImport(t *testing.T) {
	dir := t.TempDir()
	now := time.UnixMilli(1700000000999)
	f := flow.Build(sampleStore().All(), nil, flow.BuildOptions{Now: now})

	path, err := Export(dir, f, now)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if filepath.Base(path) != "defi-workflow-1700000000999.json" {
		t.Fatalf("unexpected export name: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), "\n  \"protocols\": [") {
		t.Fatalf("expected pretty printed json, got %s", data)
	}

	imported, err := Import(path)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if imported.EstimatedGas != f.EstimatedGas || len(imported.BlockOrder) != 3 {
		t.Fatalf("unexpected imported flow: %+v", imported)
	}

	tiles := ReplayFlow(canvas.NewStore(), imported)
	if len(tiles) != 3 || tiles[1].Amount != "100" {
		t.Fatalf("unexpected replayed tiles: %+v", tiles)
	}
}

func TestImportErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Import(filepath.Join(dir, "missing.json")); !clierr.IsCode(err, clierr.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{oops"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Import(bad); !clierr.IsCode(err, clierr.CodeBlobCorrupt) {
		t.Fatalf("expected corrupt error, got %v", err)
	}
}

func TestReplayNormalizesSavedKindsAndNames(t *testing.T) {
	kv := memKV{StorageKey: []byte(`{"blocks":[{"type":"Protocol","name":" Aave "},{"type":" token","name":"DAI"},{"type":"ACTION","name":"Deposit"}],"metadata":{"version":"2.0"}}`)}
	blob, err := Load(kv)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	tiles := Replay(canvas.NewStore(), blob)
	want := []canvas.Kind{canvas.KindProtocol, canvas.KindToken, canvas.KindAction}
	for i, tile := range tiles {
		if tile.Kind != want[i] {
			t.Fatalf("tile %d: expected kind %q, got %q", i, want[i], tile.Kind)
		}
	}
	if tiles[0].Name != "Aave" {
		t.Fatalf("expected trimmed name, got %q", tiles[0].Name)
	}
	if !canvas.IsValid(tiles) {
		t.Fatalf("expected replayed canvas to be valid: %+v", tiles)
	}
	if gas := flow.EstimateGas(tiles); gas != 246000 {
		t.Fatalf("expected per-kind gas 246000, got %d", gas)
	}
}

func TestImportNormalizesKindsAndNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mixed.json")
	data := `{"protocols":["Aave"],"tokens":["ETH"],"actions":["Deposit"],"tokenAmounts":{" ETH ":2.5},"blockOrder":[{"type":"PROTOCOL","name":"Aave"},{"type":"Token","name":" ETH "},{"type":"action","name":"Deposit"}]}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := Import(path)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	tiles := ReplayFlow(canvas.NewStore(), f)
	if !canvas.IsValid(tiles) {
		t.Fatalf("expected imported canvas to be valid: %+v", tiles)
	}
	if tiles[1].Kind != canvas.KindToken || tiles[1].Name != "ETH" || tiles[1].Amount != "2.5" {
		t.Fatalf("unexpected token tile: %+v", tiles[1])
	}
}
