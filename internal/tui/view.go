package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/ggonzalez94/defi-composer/internal/canvas"
)

func (m *model) View() string {
	header := m.style.header.Render("DeFi Composer") + "  " + m.walletLine()

	palette := m.style.panel
	board := m.style.panel
	if m.focus == focusPalette {
		palette = m.style.active
	} else {
		board = m.style.active
	}

	right := lipgloss.JoinVertical(lipgloss.Left,
		board.Render(m.canvasView()),
		m.style.panel.Render(m.output.View()),
	)
	body := lipgloss.JoinHorizontal(lipgloss.Top, palette.Render(m.palette.View()), right)

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.pricesLine(),
		body,
		m.statusLine(),
		m.style.footer.Render("enter add · tab focus · a amount · d remove · ctrl+w wallet · ctrl+r preview · ctrl+e execute · ctrl+s save · ctrl+l load · ctrl+x clear · q quit"),
	)
}

func (m *model) walletLine() string {
	info := m.sess.Wallet().Info()
	if m.connecting {
		return m.spinner.View() + " connecting"
	}
	if !info.Connected {
		return m.style.subtle.Render("wallet disconnected")
	}
	return m.style.success.Render(fmt.Sprintf("%s · %.2f ETH", info.ShortAddress, info.ETHBalance))
}

func (m *model) pricesLine() string {
	symbols := make([]string, 0, len(m.snap.Prices))
	for s := range m.snap.Prices {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	parts := make([]string, 0, len(symbols)+1)
	for _, s := range symbols {
		parts = append(parts, fmt.Sprintf("%s $%.2f", s, m.snap.Prices[s]))
	}
	parts = append(parts, fmt.Sprintf("gas %.0f gwei", m.snap.GasPriceGwei))
	return m.style.subtle.Render(" " + strings.Join(parts, "  "))
}

func (m *model) canvasView() string {
	tiles := m.sess.Tiles()
	var b strings.Builder
	b.WriteString("Canvas\n")
	if len(tiles) == 0 {
		b.WriteString(m.style.subtle.Render("Drop blocks here to build a transaction"))
		b.WriteString("\n")
	}
	for i, tile := range tiles {
		line := fmt.Sprintf("%d. [%s] %s", tile.Order, tile.Kind, tile.Name)
		if tile.Kind == canvas.KindToken {
			amount := tile.Amount
			if amount == "" {
				amount = "-"
			}
			line += "  amount " + amount
		}
		if i == m.selected && m.focus == focusCanvas {
			b.WriteString(m.style.selected.Render("> " + line))
		} else {
			b.WriteString(m.style.tile.Render("  " + line))
		}
		b.WriteString("\n")
	}
	if m.editID != "" {
		b.WriteString(m.amount.View())
		b.WriteString("\n")
	}

	breakdown := m.sess.Validate()
	gas, gasETH := m.sess.DisplayGas()
	b.WriteString(m.style.subtle.Render(fmt.Sprintf("%s · est. gas %d (%.4f ETH)", breakdown.Report(), gas, gasETH)))
	if m.executing {
		b.WriteString("\n")
		b.WriteString(m.spinner.View() + " " + string(m.sess.Simulator().State()))
	}
	return b.String()
}

func (m *model) statusLine() string {
	if m.statusErr {
		return m.style.error.Render(" " + m.status)
	}
	return m.style.success.Render(" " + m.status)
}
