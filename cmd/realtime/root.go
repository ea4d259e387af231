package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "realtime",
		Short:         "Restaurant realtime change broadcaster",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newTablesCmd())
	root.AddCommand(newTriggerSQLCmd())
	root.AddCommand(newTokenCmd())
	return root
}
