package tui

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ggonzalez94/defi-composer/internal/canvas"
	clierr "github.com/ggonzalez94/defi-composer/internal/errors"
	"github.com/ggonzalez94/defi-composer/internal/prices"
	"github.com/ggonzalez94/defi-composer/internal/workflow"
)

func (m *model) Init() tea.Cmd { return nil }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		half := msg.Width / 2
		m.palette.SetSize(half-4, msg.Height-8)
		m.output.Width = msg.Width - half - 4
		m.output.Height = max(msg.Height/3, 5)
		return m, nil

	case pricesMsg:
		m.snap = prices.Snapshot(msg)
		return m, nil

	case walletMsg:
		m.connecting = false
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("Wallet connected: %s", msg.info.ShortAddress), false)
		return m, nil

	case executedMsg:
		m.executing = false
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("Transaction failed: %s", msg.result.Error), true)
			if msg.result.ExecutionID == "" {
				m.setStatus(msg.err.Error(), true)
			}
			return m, nil
		}
		m.setStatus(fmt.Sprintf("Transaction executed successfully! %s", msg.result.TxHash), false)
		m.showJSON(msg.result)
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.editID != "" {
			return m.updateAmount(msg)
		}
		return m.updateKey(msg)
	}
	return m, nil
}

func (m *model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc", "q":
		return m, tea.Quit
	case "tab":
		if m.focus == focusPalette {
			m.focus = focusCanvas
		} else {
			m.focus = focusPalette
		}
		return m, nil
	case "ctrl+s":
		m.save()
		return m, nil
	case "ctrl+l":
		m.load()
		return m, nil
	case "ctrl+delete", "ctrl+x":
		m.sess.Clear()
		m.selected = 0
		m.setStatus(m.sess.Status(), false)
		return m, nil
	case "ctrl+r":
		m.preview()
		return m, nil
	case "ctrl+e":
		return m, m.execute()
	case "ctrl+w":
		return m, m.toggleWallet()
	}

	if m.focus == focusCanvas {
		return m.updateCanvas(msg)
	}
	if msg.String() == "enter" {
		m.drop()
		return m, nil
	}
	var cmd tea.Cmd
	m.palette, cmd = m.palette.Update(msg)
	return m, cmd
}

func (m *model) updateCanvas(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	tiles := m.sess.Tiles()
	switch msg.String() {
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(tiles)-1 {
			m.selected++
		}
	case "d", "delete", "backspace":
		if len(tiles) == 0 {
			return m, nil
		}
		m.sess.Remove(tiles[m.selected].ID)
		m.clampSelection()
		m.setStatus(m.sess.Status(), false)
	case "a", "enter":
		if len(tiles) == 0 || tiles[m.selected].Kind != canvas.KindToken {
			return m, nil
		}
		tile := tiles[m.selected]
		m.editID = tile.ID
		m.amount.SetValue(tile.Amount)
		return m, m.amount.Focus()
	}
	return m, nil
}

func (m *model) updateAmount(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.sess.SetAmount(m.editID, m.amount.Value())
		m.editID = ""
		m.amount.Blur()
		return m, nil
	case "esc":
		m.editID = ""
		m.amount.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.amount, cmd = m.amount.Update(msg)
	return m, cmd
}

// drop places the highlighted palette block through the same payload path a
// drag would use.
func (m *model) drop() {
	item, ok := m.palette.SelectedItem().(paletteItem)
	if !ok {
		return
	}
	if _, err := m.sess.Drop(workflow.EncodePayload(item.kind, item.name)); err != nil {
		m.setStatus(err.Error(), true)
		return
	}
	m.selected = len(m.sess.Tiles()) - 1
	m.setStatus(m.sess.Status(), false)
}

func (m *model) save() {
	blob, err := m.sess.Save()
	if err != nil {
		m.setStatus(err.Error(), true)
		return
	}
	m.setStatus(fmt.Sprintf("Workflow saved (%d blocks)", blob.Metadata.TotalBlocks), false)
}

func (m *model) load() {
	tiles, err := m.sess.Load()
	if err != nil {
		if clierr.IsCode(err, clierr.CodeNotFound) {
			m.setStatus("No saved workflow", true)
			return
		}
		m.setStatus(err.Error(), true)
		return
	}
	m.selected = 0
	m.setStatus(fmt.Sprintf("Workflow loaded (%d blocks)", len(tiles)), false)
}

func (m *model) preview() {
	compiled, err := m.sess.Compile()
	if err != nil {
		m.setStatus(err.Error(), true)
		return
	}
	m.showJSON(compiled)
	m.setStatus(m.sess.Status(), false)
}

func (m *model) execute() tea.Cmd {
	if m.executing {
		m.setStatus("An execution is already in progress", true)
		return nil
	}
	if !canvas.IsValid(m.sess.Tiles()) {
		m.setStatus(m.sess.Status(), true)
		return nil
	}
	if !m.sess.Wallet().Connected() {
		m.setStatus("Connect wallet before executing (ctrl+w)", true)
		return nil
	}
	m.executing = true
	m.setStatus("Executing transaction...", false)
	ctx, sess := m.ctx, m.sess
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		res, _, err := sess.Execute(ctx)
		return executedMsg{result: res, err: err}
	})
}

func (m *model) toggleWallet() tea.Cmd {
	if m.connecting {
		return nil
	}
	if m.sess.Wallet().Connected() {
		m.sess.DisconnectWallet()
		m.setStatus("Wallet disconnected", false)
		return nil
	}
	m.connecting = true
	m.setStatus("Connecting wallet...", false)
	ctx, sess := m.ctx, m.sess
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		info, err := sess.ConnectWallet(ctx)
		return walletMsg{info: info, err: err}
	})
}

func (m *model) showJSON(v any) {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		m.setStatus(err.Error(), true)
		return
	}
	m.output.SetContent(string(buf))
	m.output.GotoTop()
}
