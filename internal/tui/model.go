package tui

import (
	"errors"

	list "github.com/charmbracelet/bubbles/list"
	table "github.com/charmbracelet/bubbles/table"
	textinput "github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"basemap/internal/geom"
)

// ErrAborted is returned when the user leaves the picker without a choice.
var ErrAborted = errors.New("no shapefile selected")

// sidebar width in cells, border included
const sidebarWidth = 32

type Model struct {
	width  int
	height int

	helpVisible bool
	status      string

	// file list
	dir      string
	l        list.Model
	fallback geom.CRS

	// preview of the highlighted file
	previewPath string
	preview     *geom.Dataset
	previewErr  error

	// path entry
	entering bool
	input    textinput.Model

	// attribute table
	showAttrs bool
	tbl       table.Model

	picked  string
	aborted bool
}

// New lists the shapefiles in dir. fallback is the CRS assumed for files
// without a .prj when previewing.
func New(dir string, fallback geom.CRS) Model {
	m := Model{
		helpVisible: true,
		status:      "pick a shapefile",
		dir:         dir,
		fallback:    fallback,
	}
	d := list.NewDefaultDelegate()
	d.ShowDescription = true
	m.l = list.New(nil, d, 0, 0)
	m.l.Title = "Shapefiles"
	m.l.SetShowHelp(false)
	m.l.SetShowStatusBar(false)
	m.l.SetFilteringEnabled(true)

	m.input = textinput.New()
	m.input.Placeholder = "path/to/data.shp"
	m.input.Prompt = "path: "
	m.input.CharLimit = 0

	m.tbl = table.New(table.WithFocused(true))
	m.tbl.SetHeight(12)

	m.refreshDir()
	m.syncPreview()
	return m
}

func (m Model) Init() tea.Cmd { return nil }

// Picked is the chosen path, empty until the user confirms one.
func (m Model) Picked() string { return m.picked }

// Aborted reports whether the user quit without picking.
func (m Model) Aborted() bool { return m.aborted }
