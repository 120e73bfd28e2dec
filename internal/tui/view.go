package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight := 1
	footerHeight := 2
	contentHeight := max(4, m.height-headerHeight-footerHeight)
	contentWidth := max(20, m.width)

	header := titleStyle.Render(" basemap ─ pick a shapefile ")
	header = lipgloss.NewStyle().Width(contentWidth).Render(header)

	m.l.SetSize(sidebarWidth-2, contentHeight-2)
	sidebar := lipgloss.NewStyle().Width(sidebarWidth).Height(contentHeight).Render(m.l.View())

	paneWidth := max(10, contentWidth-sidebarWidth-1)
	var pane string
	switch {
	case m.entering:
		m.input.Width = paneWidth - 8
		box := boxStyle.Width(paneWidth - 4).Render(m.input.View())
		pane = lipgloss.Place(paneWidth, contentHeight, lipgloss.Center, lipgloss.Center, box)
	case m.showAttrs:
		colW := 0
		for _, c := range m.tbl.Columns() {
			colW += c.Width + 3
		}
		maxW := min(paneWidth, max(32, colW))
		m.tbl.SetWidth(maxW - 4)
		m.tbl.SetHeight(min(contentHeight-2, 20))
		box := boxStyle.Width(maxW).Render(m.tbl.View())
		pane = lipgloss.Place(paneWidth, contentHeight, lipgloss.Center, lipgloss.Center, box)
	case m.previewErr != nil:
		pane = lipgloss.Place(paneWidth, contentHeight, lipgloss.Center, lipgloss.Center,
			errStyle.Render(m.previewErr.Error()))
	default:
		art := renderPreview(m.preview, paneWidth, contentHeight)
		pane = lipgloss.NewStyle().Width(paneWidth).Height(contentHeight).Render(art)
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", pane)
	footer := lipgloss.NewStyle().Width(contentWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, dimStyle.Render(" "+m.status), m.renderHelp()))

	ui := lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
	return appStyle.Width(contentWidth).Height(m.height).Render(ui)
}

func (m Model) renderHelp() string {
	if !m.helpVisible {
		return ""
	}
	keys := []string{"↑↓ move", "/ filter", "enter pick", "p type path", "a attrs", "r rescan", "h help", "q quit"}
	if m.entering {
		keys = []string{"enter use path", "esc back", "ctrl+c quit"}
	}
	return dimStyle.Render("  " + strings.Join(keys, "  "))
}
