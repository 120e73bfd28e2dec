package tui

import (
	"strconv"

	table "github.com/charmbracelet/bubbles/table"

	"basemap/internal/geom"
)

// widest a column may grow, in cells
const maxColWidth = 24

// attrTable turns the dataset's attribute table into bubbles columns and
// rows, with a leading record number.
func attrTable(ds *geom.Dataset) ([]table.Column, []table.Row) {
	if ds == nil || len(ds.Fields) == 0 {
		return nil, nil
	}
	cols := make([]table.Column, 0, len(ds.Fields)+1)
	cols = append(cols, table.Column{Title: "#", Width: 4})
	widths := make([]int, len(ds.Fields))
	for i, f := range ds.Fields {
		widths[i] = len(f)
	}
	rows := make([]table.Row, 0, len(ds.Features))
	for n, ft := range ds.Features {
		row := make(table.Row, 0, len(ds.Fields)+1)
		row = append(row, strconv.Itoa(n+1))
		for i, f := range ds.Fields {
			v := ft.Properties[f]
			widths[i] = max(widths[i], len(v))
			row = append(row, v)
		}
		rows = append(rows, row)
	}
	for i, f := range ds.Fields {
		cols = append(cols, table.Column{Title: f, Width: min(maxColWidth, widths[i]+1)})
	}
	return cols, rows
}

func (m *Model) refreshAttrs() {
	cols, rows := attrTable(m.preview)
	if len(cols) == 0 || len(rows) == 0 {
		m.showAttrs = false
		m.status = "no attributes for current file"
		return
	}
	// clear rows first so column count never mismatches during the swap
	m.tbl.SetRows(nil)
	m.tbl.SetColumns(cols)
	m.tbl.SetRows(rows)
}
