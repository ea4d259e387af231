package main

import (
	"fmt"
	"strings"

	"restaurant-realtime/internal/changefeed"
	"restaurant-realtime/internal/config"
	"restaurant-realtime/internal/domain"
	"restaurant-realtime/pkg/database"
	realtime_errors "restaurant-realtime/pkg/errors"
	"restaurant-realtime/pkg/logger"

	"github.com/spf13/cobra"
)

func newTriggerSQLCmd() *cobra.Command {
	var (
		schema string
		apply  bool
	)

	cmd := &cobra.Command{
		Use:   "trigger-sql [table...]",
		Short: "Print (or apply) the notify triggers that feed the broadcaster",
		Long: "Prints the trigger function and one trigger per table. With no tables,\n" +
			"every tracked table is included. --apply runs the statements instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			tables := args
			if len(tables) == 0 {
				tables = domain.TrackedTables
			}
			for _, table := range tables {
				if !domain.IsTracked(table) {
					return fmt.Errorf("%w: %s", realtime_errors.ErrUnknownTable, table)
				}
			}

			cfg := config.LoadConfig()
			if schema == "" {
				schema = cfg.Database.Schema
			}

			statements := []string{changefeed.NotifyFunctionSQL(schema)}
			for _, table := range tables {
				statements = append(statements, changefeed.TriggerSQL(schema, table))
			}

			if !apply {
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(statements, "\n\n"))
				return nil
			}

			l := logger.New(cfg.LogMode)
			defer l.Sync()

			pool, err := database.Connect(cmd.Context(), cfg.Database, l)
			if err != nil {
				return err
			}
			defer pool.Close()

			for _, stmt := range statements {
				if _, err := pool.Exec(cmd.Context(), stmt); err != nil {
					return fmt.Errorf("apply trigger sql: %w", err)
				}
			}
			l.Infof("installed realtime triggers on %d tables in schema %s", len(tables), schema)
			return nil
		},
	}

	cmd.Flags().StringVar(&schema, "schema", "", "schema holding the tracked tables (default DB_SCHEMA)")
	cmd.Flags().BoolVar(&apply, "apply", false, "execute the statements against DB_* instead of printing them")
	return cmd
}
