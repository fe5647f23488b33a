// Package tui is the interactive composer: a block palette, the canvas, live
// prices and the execution pipeline, all driven through a session.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/ggonzalez94/defi-composer/internal/canvas"
	"github.com/ggonzalez94/defi-composer/internal/execution"
	"github.com/ggonzalez94/defi-composer/internal/prices"
	"github.com/ggonzalez94/defi-composer/internal/registry"
	"github.com/ggonzalez94/defi-composer/internal/session"
	"github.com/ggonzalez94/defi-composer/internal/wallet"
)

type focus int

const (
	focusPalette focus = iota
	focusCanvas
)

type paletteItem struct {
	kind canvas.Kind
	name string
	desc string
}

func (p paletteItem) Title() string       { return fmt.Sprintf("[%s] %s", p.kind, p.name) }
func (p paletteItem) Description() string { return p.desc }
func (p paletteItem) FilterValue() string { return p.name }

type pricesMsg prices.Snapshot

type walletMsg struct {
	info wallet.Info
	err  error
}

type executedMsg struct {
	result execution.Result
	err    error
}

type model struct {
	ctx  context.Context
	sess *session.Session

	palette  list.Model
	amount   textinput.Model
	spinner  spinner.Model
	output   viewport.Model
	focus    focus
	selected int
	editID   string

	connecting bool
	executing  bool
	snap       prices.Snapshot
	status     string
	statusErr  bool
	width      int
	height     int
	style      styles
}

type styles struct {
	header   lipgloss.Style
	panel    lipgloss.Style
	active   lipgloss.Style
	tile     lipgloss.Style
	selected lipgloss.Style
	subtle   lipgloss.Style
	success  lipgloss.Style
	error    lipgloss.Style
	footer   lipgloss.Style
}

func defaultStyles() styles {
	border := lipgloss.RoundedBorder()
	return styles{
		header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).Padding(0, 1),
		panel:    lipgloss.NewStyle().Border(border).BorderForeground(lipgloss.Color("240")).Padding(0, 1),
		active:   lipgloss.NewStyle().Border(border).BorderForeground(lipgloss.Color("#7D56F4")).Padding(0, 1),
		tile:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575")),
		subtle:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		success:  lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")),
		error:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87")),
		footer:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1),
	}
}

func paletteItems() []list.Item {
	items := make([]list.Item, 0, 18)
	for _, p := range registry.Protocols() {
		items = append(items, paletteItem{kind: canvas.KindProtocol, name: p.Name, desc: fmt.Sprintf("APY %s · TVL %s · %s risk", p.APY, p.TVL, p.Risk)})
	}
	for _, t := range registry.Tokens() {
		items = append(items, paletteItem{kind: canvas.KindToken, name: t.Symbol, desc: fmt.Sprintf("$%.2f", t.PriceUSD)})
	}
	for _, a := range registry.Actions() {
		items = append(items, paletteItem{kind: canvas.KindAction, name: a.Name, desc: "connector method " + a.Method})
	}
	return items
}

func newModel(ctx context.Context, sess *session.Session) *model {
	palette := list.New(paletteItems(), list.NewDefaultDelegate(), 40, 20)
	palette.Title = "Blocks"
	palette.SetShowHelp(false)
	palette.SetShowStatusBar(false)
	palette.SetFilteringEnabled(false)

	amount := textinput.New()
	amount.Placeholder = "1.0"
	amount.CharLimit = 32
	amount.Prompt = "amount> "

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &model{
		ctx:     ctx,
		sess:    sess,
		palette: palette,
		amount:  amount,
		spinner: sp,
		output:  viewport.New(60, 10),
		focus:   focusPalette,
		snap:    sess.Prices().Snapshot(),
		status:  sess.Status(),
		style:   defaultStyles(),
	}
}

func (m *model) busy() bool { return m.connecting || m.executing }

func (m *model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

// clampSelection keeps the canvas cursor on an existing tile.
func (m *model) clampSelection() {
	n := len(m.sess.Tiles())
	if m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}
