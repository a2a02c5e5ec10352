package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"osmworld/internal/config"
	"osmworld/internal/services"
	"osmworld/internal/tilegrid"
)

func newTilesCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "tiles <areas.list>",
		Short:       "Decode a splitter tile index",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			tiles, err := tilegrid.ReadFile(path)
			if err != nil {
				return services.Wrap(services.ErrIndexUnreadable, "", "read index", path, err)
			}
			out := cmd.OutOrStdout()
			if len(tiles) == 0 {
				fmt.Fprintf(out, "%s lists no tiles\n", path)
				return nil
			}
			rows := make([][]string, 0, len(tiles))
			for _, tile := range tiles {
				rows = append(rows, []string{
					tile.Name,
					formatCoord(tile.South),
					formatCoord(tile.West),
					formatCoord(tile.North),
					formatCoord(tile.East),
					tile.Extent(),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Tile", "South", "West", "North", "East", "Extent"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
			))
			fmt.Fprintf(out, "%d tile(s), next map id %d\n", len(tiles), tilegrid.NextID(tiles))
			return nil
		},
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
