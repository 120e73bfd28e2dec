package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"basemap/internal/geom"
)

func newInspectCmd() *cobra.Command {
	var (
		rows      int
		sourceCRS string
	)
	cmd := &cobra.Command{
		Use:   "inspect <shapefile>",
		Short: "Show a shapefile's CRS, extent and attributes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fallback, err := geom.ParseCRS(sourceCRS)
			if err != nil {
				return err
			}
			ds, err := geom.LoadShapefile(args[0], fallback)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), describe(ds, rows))
			return nil
		},
	}
	cmd.Flags().IntVarP(&rows, "rows", "n", 10, "attribute rows to show, 0 for none, -1 for all")
	cmd.Flags().StringVar(&sourceCRS, "source-crs", "EPSG:4326", "CRS assumed when there is no .prj")
	return cmd
}

func describe(ds *geom.Dataset, rows int) string {
	b := ds.Bound()
	c := ds.Counts()
	crs := ds.CRS.String()
	if ds.CRS.Name != "" {
		crs += " (" + ds.CRS.Name + ")"
	}
	line := func(k, v string) string { return labelStyle.Render(k) + " " + v + "\n" }
	out := line("Name", ds.Name) +
		line("Path", ds.Path) +
		line("CRS", crs) +
		line("Bounds", fmt.Sprintf("[%.6f, %.6f, %.6f, %.6f]", b.Min[0], b.Min[1], b.Max[0], b.Max[1])) +
		line("Records", fmt.Sprint(ds.Len())) +
		line("Geometry", fmt.Sprintf("polygons=%d lines=%d points=%d empty=%d", c.Polygons, c.Lines, c.Points, c.Empty))

	if rows == 0 || len(ds.Fields) == 0 {
		return out
	}
	n := ds.Len()
	if rows > 0 {
		n = min(n, rows)
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(append([]string{"#"}, ds.Fields...)...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for i, f := range ds.Features[:n] {
		r := make([]string, 0, len(ds.Fields)+1)
		r = append(r, fmt.Sprint(i+1))
		for _, name := range ds.Fields {
			r = append(r, f.Properties[name])
		}
		t.Row(r...)
	}
	out += "\n" + t.String() + "\n"
	if n < ds.Len() {
		out += dimStyle.Render(fmt.Sprintf("… %d more", ds.Len()-n)) + "\n"
	}
	return out
}
