package out

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/ggonzalez94/defi-composer/internal/config"
	"github.com/ggonzalez94/defi-composer/internal/model"
)

func TestRenderJSONSelectResultsOnly(t *testing.T) {
	env := model.Envelope{
		Version: model.EnvelopeVersion,
		Success: true,
		Data:    []map[string]any{{"name": "Aave", "apy": 4.2}},
		Meta:    model.EnvelopeMeta{Timestamp: time.Now()},
	}
	settings := config.Settings{OutputMode: "json", SelectFields: []string{"name"}, ResultsOnly: true}
	var buf bytes.Buffer
	if err := Render(&buf, env, settings); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	var out []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("json decode failed: %v", err)
	}
	if len(out) != 1 || out[0]["name"] != "Aave" {
		t.Fatalf("unexpected output: %s", buf.String())
	}
	if _, ok := out[0]["apy"]; ok {
		t.Fatalf("field projection failed: %s", buf.String())
	}
}

func TestRenderSelectNestedField(t *testing.T) {
	env := model.Envelope{
		Success: true,
		Data:    map[string]any{"flow": map[string]any{"estimatedGas": 246000, "tokens": []string{"DAI"}}},
	}
	settings := config.Settings{OutputMode: "json", SelectFields: []string{"flow.estimatedGas"}, ResultsOnly: true}
	var buf bytes.Buffer
	if err := Render(&buf, env, settings); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("json decode failed: %v", err)
	}
	if out["flow.estimatedGas"].(float64) != 246000 || len(out) != 1 {
		t.Fatalf("unexpected nested projection: %s", buf.String())
	}
}

func TestRenderPlainFlattensObjects(t *testing.T) {
	env := model.Envelope{
		Success: true,
		Data: map[string]any{
			"state":  "confirmed",
			"wallet": map[string]any{"connected": true, "address": "0xabc"},
			"tiles":  []string{"a", "b"},
		},
	}
	settings := config.Settings{OutputMode: "plain", ResultsOnly: true}
	var buf bytes.Buffer
	if err := Render(&buf, env, settings); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	got := strings.TrimSpace(buf.String())
	want := `state=confirmed tiles=["a","b"] wallet.address=0xabc wallet.connected=true`
	if got != want {
		t.Fatalf("unexpected plain output:\n got: %s\nwant: %s", got, want)
	}
}

func TestRenderPlainEnvelopeWithError(t *testing.T) {
	env := model.Envelope{
		Success: false,
		Error:   &model.ErrorBody{Code: 20, Type: "invalid_flow", Message: "Need at least: 1 Protocol + 1 Action + 1 Token"},
		Meta:    model.EnvelopeMeta{Command: "flow execute"},
	}
	var buf bytes.Buffer
	if err := Render(&buf, env, config.Settings{OutputMode: "plain"}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(buf.String(), "error.type=invalid_flow") || !strings.Contains(buf.String(), "meta.command=flow execute") {
		t.Fatalf("unexpected plain envelope: %s", buf.String())
	}
}
