package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	list "github.com/charmbracelet/bubbles/list"

	"basemap/internal/geom"
)

type fileItem struct {
	title, desc string
	path        string
}

func (f fileItem) Title() string       { return f.title }
func (f fileItem) Description() string { return f.desc }
func (f fileItem) FilterValue() string { return f.title }

// CleanPath trims whitespace and surrounding quotes from a typed or pasted
// path, as terminals add them when a file is dragged in.
func CleanPath(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'`)
}

func (m *Model) refreshDir() {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		m.status = "read dir error: " + err.Error()
		return
	}
	var items []list.Item
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".shp") {
			continue
		}
		desc := "shapefile"
		if info, err := e.Info(); err == nil {
			desc = humanSize(info.Size())
		}
		items = append(items, fileItem{title: e.Name(), desc: desc, path: filepath.Join(m.dir, e.Name())})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].(fileItem).title < items[j].(fileItem).title })
	m.l.SetItems(items)
	if len(items) == 0 {
		m.status = "no shapefiles in " + m.dir + "; press p to type a path"
	}
}

// syncPreview loads the highlighted file if it changed.
func (m *Model) syncPreview() {
	it, ok := m.l.SelectedItem().(fileItem)
	if !ok {
		m.previewPath, m.preview, m.previewErr = "", nil, nil
		return
	}
	if it.path == m.previewPath {
		return
	}
	m.previewPath = it.path
	m.preview, m.previewErr = geom.LoadShapefile(it.path, m.fallback)
	if m.previewErr != nil {
		m.status = "load error: " + m.previewErr.Error()
		return
	}
	c := m.preview.Counts()
	m.status = fmt.Sprintf("%s  %s  records=%d pts=%d ls=%d poly=%d",
		m.preview.Name, m.preview.CRS, m.preview.Len(), c.Points, c.Lines, c.Polygons)
	if m.showAttrs {
		m.refreshAttrs()
	}
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
