package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/kenafu/voice-dataset-organizer/internal/classification"
	"github.com/kenafu/voice-dataset-organizer/internal/dedup"
	"github.com/kenafu/voice-dataset-organizer/internal/plan"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var reportFlag string
	var dedupFlag bool
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Preview dataset reorganization without changing anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			if reportFlag == "" && !dedupFlag {
				return fmt.Errorf("nothing to plan: pass --report, --dedup, or both")
			}

			ds, err := ctx.loadDataset()
			if err != nil {
				return err
			}

			var report *classification.Report
			if reportFlag != "" {
				report, err = classification.Load(reportFlag)
				if err != nil {
					return err
				}
			}

			var clusters []dedup.Cluster
			if dedupFlag {
				scan, err := ctx.runScan(cmd, ds, !jsonFlag)
				if err != nil {
					return err
				}
				clusters = scan.clusters
				for _, failure := range scan.failures {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", failure)
				}
			}

			p := buildPlan(ds, report, clusters)
			if jsonFlag {
				return writeJSON(cmd, p)
			}
			printPlanWarnings(cmd, ds)
			printPlan(cmd, p)
			return nil
		},
	}

	cmd.Flags().StringVarP(&reportFlag, "report", "r", "", "Classification report CSV path")
	cmd.Flags().BoolVar(&dedupFlag, "dedup", false, "Fingerprint audio and plan duplicate removal")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit the plan as JSON")
	return cmd
}

func printPlanWarnings(cmd *cobra.Command, ds *datasetState) {
	for _, warning := range ds.warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", warning)
	}
}

func printPlan(cmd *cobra.Command, p *plan.Plan) {
	out := cmd.OutOrStdout()

	var rows []table.Row
	for _, action := range p.Actions {
		if action.Kind == plan.KindNone {
			continue
		}
		rows = append(rows, table.Row{string(action.Kind), action.SampleID, action.FromPath, action.ToFolder, action.Reason})
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable(table.Row{"Action", "Sample", "From", "To", "Reason"}, rows))
	}

	if len(p.Inconsistencies) > 0 {
		var incRows []table.Row
		for _, inc := range p.Inconsistencies {
			incRows = append(incRows, table.Row{string(inc.Kind), inc.SampleID, inc.Detail})
		}
		fmt.Fprintln(out, renderTable(table.Row{"Issue", "Sample", "Detail"}, incRows))
	}

	counts := p.Counts()
	summary := []string{
		fmt.Sprintf("%d moves", counts.Moves),
		fmt.Sprintf("%d deletes", counts.Deletes),
		fmt.Sprintf("%d quarantines", counts.Quarantines),
		fmt.Sprintf("%d manifest updates", counts.ManifestUpdates),
		fmt.Sprintf("%d issues", counts.Inconsistencies),
	}
	fmt.Fprintf(out, "Plan: %s\n", strings.Join(summary, ", "))
	if p.IsNoop() {
		fmt.Fprintln(out, "Dataset already organized; nothing to do.")
	}
}
