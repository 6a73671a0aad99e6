package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Fingerprint audio content and preview duplicate clusters",
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := ctx.loadDataset()
			if err != nil {
				return err
			}
			scan, err := ctx.runScan(cmd, ds, !jsonFlag)
			if err != nil {
				return err
			}

			if jsonFlag {
				failures := make([]string, 0, len(scan.failures))
				for _, failure := range scan.failures {
					failures = append(failures, failure.Error())
				}
				return writeJSON(cmd, map[string]any{
					"fingerprinted": len(scan.signatures),
					"failures":      failures,
					"clusters":      scan.clusters,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Fingerprinted %d of %d files\n", len(scan.signatures), ds.manifest.Len())
			for _, failure := range scan.failures {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", failure)
			}

			if len(scan.clusters) == 0 {
				fmt.Fprintln(out, "No duplicate content found.")
				return nil
			}

			var rows []table.Row
			for _, cluster := range scan.clusters {
				rows = append(rows, table.Row{
					cluster.Keep,
					strings.Join(cluster.Redundant, ", "),
					shortHash(cluster.Hash),
				})
			}
			fmt.Fprintln(out, renderTable(table.Row{"Keep", "Redundant", "Content"}, rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit scan results as JSON")
	return cmd
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
