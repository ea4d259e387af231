package main

import (
	"fmt"
	"slices"
	"text/tabwriter"

	"restaurant-realtime/internal/changefeed"
	"restaurant-realtime/internal/domain"
	"restaurant-realtime/internal/realtime"

	"github.com/spf13/cobra"
)

func newTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tracked tables and whether they derive events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			handled := realtime.DefaultHandlers().HandledTables()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TABLE\tCHANNEL\tDERIVED EVENTS")
			for _, table := range domain.TrackedTables {
				derived := "no"
				if slices.Contains(handled, table) {
					derived = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", table, changefeed.ChannelName(table), derived)
			}
			return w.Flush()
		},
	}
}
