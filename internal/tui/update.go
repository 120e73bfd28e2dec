package tui

import (
	list "github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.l.SetSize(sidebarWidth-2, max(4, m.height-3-2))
		return m, nil
	case tea.KeyMsg:
		// filtering owns the keyboard until it is applied or cancelled
		if m.l.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.l, cmd = m.l.Update(msg)
			m.syncPreview()
			return m, cmd
		}
		if m.entering {
			return m.updateEntry(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.aborted = true
			return m, tea.Quit
		case "enter":
			if it, ok := m.l.SelectedItem().(fileItem); ok {
				m.picked = it.path
				return m, tea.Quit
			}
			m.status = "nothing to pick; press p to type a path"
			return m, nil
		case "p":
			m.entering = true
			m.input.SetValue("")
			m.status = "type a path, enter to use it, esc to go back"
			return m, m.input.Focus()
		case "a":
			m.showAttrs = !m.showAttrs
			if m.showAttrs {
				m.refreshAttrs()
			}
			return m, nil
		case "h":
			m.helpVisible = !m.helpVisible
			return m, nil
		case "r":
			m.refreshDir()
			m.syncPreview()
			return m, nil
		}
	}
	var cmd tea.Cmd
	if m.showAttrs {
		if k, ok := msg.(tea.KeyMsg); ok && (k.String() == "up" || k.String() == "down") {
			m.tbl, cmd = m.tbl.Update(msg)
			return m, cmd
		}
	}
	m.l, cmd = m.l.Update(msg)
	m.syncPreview()
	return m, cmd
}

func (m Model) updateEntry(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.aborted = true
		return m, tea.Quit
	case "esc":
		m.entering = false
		m.input.Blur()
		m.status = "pick a shapefile"
		return m, nil
	case "enter":
		p := CleanPath(m.input.Value())
		if p == "" {
			m.status = "path is empty"
			return m, nil
		}
		m.picked = p
		m.input.Blur()
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}
