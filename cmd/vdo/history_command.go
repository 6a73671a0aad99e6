package main

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limitFlag int
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past apply runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := db.ListRuns(cmd.Context(), limitFlag)
			if err != nil {
				return err
			}

			if jsonFlag {
				return writeJSON(cmd, runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}

			var rows []table.Row
			for _, run := range runs {
				rows = append(rows, table.Row{
					shortHash(run.ID),
					run.StartedAt.Local().Format(time.DateTime),
					string(run.Completion),
					fmt.Sprintf("%d/%d/%d", run.Succeeded, run.Failed, run.Skipped),
					run.BackupDir,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				table.Row{"Run", "Started", "Completion", "OK/Fail/Skip", "Backup"}, rows))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limitFlag, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit history as JSON")
	return cmd
}
