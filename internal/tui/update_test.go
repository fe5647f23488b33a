package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ggonzalez94/defi-composer/internal/canvas"
	"github.com/ggonzalez94/defi-composer/internal/delay"
	"github.com/ggonzalez94/defi-composer/internal/execution"
	"github.com/ggonzalez94/defi-composer/internal/kvstore"
	"github.com/ggonzalez94/defi-composer/internal/prices"
	"github.com/ggonzalez94/defi-composer/internal/session"
	"github.com/ggonzalez94/defi-composer/internal/wallet"
)

func newTestModel(t *testing.T) *model {
	t.Helper()
	tmp := t.TempDir()
	kv, err := kvstore.Open(filepath.Join(tmp, "workflow.db"), filepath.Join(tmp, "workflow.lock"))
	if err != nil {
		t.Fatalf("open kvstore: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })

	rec := &delay.Recorder{}
	w, err := wallet.New(wallet.Options{Delayer: rec})
	if err != nil {
		t.Fatalf("wallet: %v", err)
	}
	sess, err := session.New(session.Options{
		Wallet:    w,
		Simulator: execution.NewSimulator(execution.Options{Delayer: rec}),
		KV:        kv,
	})
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	return newModel(context.Background(), sess)
}

func key(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

// drain runs cmd and feeds every resulting message back into the model,
// skipping spinner ticks.
func drain(m *model, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			drain(m, c)
		}
	case spinner.TickMsg, nil:
	default:
		_, next := m.Update(msg)
		drain(m, next)
	}
}

func addValidFlow(t *testing.T, m *model) {
	t.Helper()
	for _, b := range []struct {
		kind canvas.Kind
		name string
	}{{canvas.KindProtocol, "Aave"}, {canvas.KindToken, "ETH"}, {canvas.KindAction, "Deposit"}} {
		if _, err := m.sess.Add(b.kind, b.name, ""); err != nil {
			t.Fatalf("add %s: %v", b.name, err)
		}
	}
}

func TestEnterDropsHighlightedPaletteBlock(t *testing.T) {
	m := newTestModel(t)
	m.Update(key(tea.KeyEnter))
	m.Update(key(tea.KeyDown))
	m.Update(key(tea.KeyEnter))

	tiles := m.sess.Tiles()
	if len(tiles) != 2 {
		t.Fatalf("expected 2 tiles, got %d", len(tiles))
	}
	if tiles[0].Name != "Aave" || tiles[1].Name != "Compound" {
		t.Fatalf("unexpected tiles: %+v", tiles)
	}
	if tiles[0].Kind != canvas.KindProtocol {
		t.Fatalf("expected protocol tile, got %s", tiles[0].Kind)
	}
}

func TestEditAmountOnTokenTile(t *testing.T) {
	m := newTestModel(t)
	addValidFlow(t, m)
	m.Update(key(tea.KeyTab))
	m.Update(key(tea.KeyDown))
	m.Update(runes("a"))
	if m.editID == "" {
		t.Fatalf("expected amount editor to open on token tile")
	}
	m.Update(runes("2.5"))
	m.Update(key(tea.KeyEnter))

	if m.editID != "" {
		t.Fatalf("expected editor to close")
	}
	if got := m.sess.Tiles()[1].Amount; got != "2.5" {
		t.Fatalf("expected amount 2.5, got %q", got)
	}
}

func TestRemoveSelectedTile(t *testing.T) {
	m := newTestModel(t)
	addValidFlow(t, m)
	m.Update(key(tea.KeyTab))
	m.Update(key(tea.KeyDown))
	m.Update(key(tea.KeyDown))
	m.Update(runes("d"))

	tiles := m.sess.Tiles()
	if len(tiles) != 2 || tiles[1].Name != "ETH" {
		t.Fatalf("unexpected tiles after remove: %+v", tiles)
	}
	if m.selected != 1 {
		t.Fatalf("expected cursor clamped to 1, got %d", m.selected)
	}
}

func TestExecuteRequiresConnectedWallet(t *testing.T) {
	m := newTestModel(t)
	addValidFlow(t, m)
	_, cmd := m.Update(key(tea.KeyCtrlE))
	if cmd != nil || m.executing {
		t.Fatalf("expected execute to be refused")
	}
	if !m.statusErr || !strings.Contains(m.status, "Connect wallet") {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestConnectThenExecute(t *testing.T) {
	m := newTestModel(t)
	addValidFlow(t, m)

	_, cmd := m.Update(key(tea.KeyCtrlW))
	if !m.connecting {
		t.Fatalf("expected connecting state")
	}
	drain(m, cmd)
	if m.connecting || !m.sess.Wallet().Connected() {
		t.Fatalf("expected wallet connected")
	}

	_, cmd = m.Update(key(tea.KeyCtrlE))
	if !m.executing {
		t.Fatalf("expected executing state")
	}
	drain(m, cmd)
	if m.executing {
		t.Fatalf("expected execution to finish")
	}
	if m.statusErr || !strings.Contains(m.status, "Transaction executed successfully") {
		t.Fatalf("unexpected status %q", m.status)
	}
	if got := m.sess.Simulator().State(); got != execution.StateConfirmed {
		t.Fatalf("expected confirmed, got %s", got)
	}
	if len(m.sess.Tiles()) != 3 {
		t.Fatalf("expected tiles to stay on the canvas")
	}
}

func TestSaveClearLoad(t *testing.T) {
	m := newTestModel(t)
	m.Update(key(tea.KeyCtrlL))
	if !m.statusErr || m.status != "No saved workflow" {
		t.Fatalf("unexpected status %q", m.status)
	}

	addValidFlow(t, m)
	m.Update(key(tea.KeyCtrlS))
	m.Update(key(tea.KeyCtrlX))
	if len(m.sess.Tiles()) != 0 {
		t.Fatalf("expected cleared canvas")
	}
	m.Update(key(tea.KeyCtrlL))
	if got := len(m.sess.Tiles()); got != 3 {
		t.Fatalf("expected 3 tiles after load, got %d", got)
	}
}

func TestPriceTickAndView(t *testing.T) {
	m := newTestModel(t)
	m.Update(pricesMsg(prices.Snapshot{Prices: map[string]float64{"ETH": 2500}, GasPriceGwei: 30}))
	if m.snap.Prices["ETH"] != 2500 {
		t.Fatalf("expected price tick to apply")
	}
	addValidFlow(t, m)
	m.Update(key(tea.KeyCtrlR))
	view := m.View()
	for _, want := range []string{"DeFi Composer", "ETH $2500.00", "gas 30 gwei", "Aave"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q", want)
		}
	}
}
