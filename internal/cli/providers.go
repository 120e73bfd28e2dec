package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"basemap/internal/tiles"
)

func newProvidersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List the built-in tile providers",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			t := table.New().
				Border(lipgloss.NormalBorder()).
				BorderStyle(borderStyle).
				Headers("PROVIDER", "MAX ZOOM", "ATTRIBUTION").
				StyleFunc(func(row, _ int) lipgloss.Style {
					if row == table.HeaderRow {
						return headerStyle
					}
					return cellStyle
				})
			for _, p := range tiles.Providers() {
				name := p.Name
				if name == tiles.DefaultProvider {
					name += " (default)"
				}
				t.Row(name, strconv.Itoa(p.MaxZoom), p.Attribution)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.String())
		},
	}
}
