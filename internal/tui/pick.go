// Package tui is the interactive shapefile picker shown when basemap is
// started on a terminal without an input path.
package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"basemap/internal/geom"
)

// Pick runs the picker over dir and returns the chosen path.
func Pick(dir string, fallback geom.CRS, opts ...tea.ProgramOption) (string, error) {
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	final, err := tea.NewProgram(New(dir, fallback), opts...).Run()
	if err != nil {
		return "", fmt.Errorf("picker: %w", err)
	}
	m, ok := final.(Model)
	if !ok || m.Aborted() || m.Picked() == "" {
		return "", ErrAborted
	}
	return m.Picked(), nil
}
