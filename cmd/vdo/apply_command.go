package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kenafu/voice-dataset-organizer/internal/backup"
	"github.com/kenafu/voice-dataset-organizer/internal/classification"
	"github.com/kenafu/voice-dataset-organizer/internal/dedup"
	"github.com/kenafu/voice-dataset-organizer/internal/executor"
	"github.com/kenafu/voice-dataset-organizer/internal/logging"
)

func newApplyCommand(ctx *commandContext) *cobra.Command {
	var reportFlag string
	var dedupFlag bool
	var yesFlag bool
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Reorganize the dataset: backup, move, dedupe, rewrite manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			if reportFlag == "" && !dedupFlag {
				return fmt.Errorf("nothing to apply: pass --report, --dedup, or both")
			}

			// The lock spans planning and execution so the plan cannot go
			// stale under a concurrent vdo run.
			release, err := ctx.acquireLock()
			if err != nil {
				return err
			}
			defer release()

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
			}

			p := buildPlan(ds, report, clusters)
			if p.IsNoop() {
				if jsonFlag {
					return writeJSON(cmd, p)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Dataset already organized; nothing to do.")
				return nil
			}

			if !yesFlag {
				if !jsonFlag {
					printPlan(cmd, p)
				}
				confirmed, err := confirmApply(cmd, p.Counts().DestructiveTotal)
				if err != nil {
					return err
				}
				if !confirmed {
					return fmt.Errorf("apply cancelled")
				}
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			backups := backup.NewManager(ds.cfg.BackupRoot(), logger)
			runner := executor.New(ds.snap, ds.cfg.ManifestPath(), backups, logger)

			runReport, execErr := runner.Apply(cmd.Context(), ds.manifest, p)

			if db, storeErr := ctx.openStore(); storeErr == nil {
				if saveErr := db.SaveRun(cmd.Context(), runReport); saveErr != nil {
					logger.Warn("persist run history", logging.Error(saveErr))
				}
				_ = db.Close()
			} else {
				logger.Warn("open run history store", logging.Error(storeErr))
			}

			if jsonFlag {
				if err := writeJSON(cmd, runReport); err != nil {
					return err
				}
			} else {
				printRunReport(cmd, runReport)
			}
			return execErr
		},
	}

	cmd.Flags().StringVarP(&reportFlag, "report", "r", "", "Classification report CSV path")
	cmd.Flags().BoolVar(&dedupFlag, "dedup", false, "Fingerprint audio and remove duplicates")
	cmd.Flags().BoolVarP(&yesFlag, "yes", "y", false, "Apply without interactive confirmation")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit the run report as JSON")
	return cmd
}

// confirmApply prompts on a terminal. Without a terminal the caller must
// pass --yes; silently destroying data from a script is not an option.
func confirmApply(cmd *cobra.Command, destructive int) (bool, error) {
	if !stdoutIsTerminal() {
		return false, fmt.Errorf("refusing to apply %d destructive actions without --yes on non-interactive output", destructive)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Apply %d destructive actions? A backup is taken first. [y/N]: ", destructive)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func printRunReport(cmd *cobra.Command, report *executor.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s: %s\n", report.RunID, report.Completion)
	if report.BackupDir != "" {
		fmt.Fprintf(out, "Backup: %s\n", report.BackupDir)
	}
	fmt.Fprintf(out, "Actions: %d succeeded, %d failed, %d skipped\n",
		report.Succeeded, report.Failed, report.Skipped)
	for _, outcome := range report.Outcomes {
		if outcome.Status != executor.OutcomeFailed {
			continue
		}
		fmt.Fprintf(out, "  failed %s %s: %s\n", outcome.Action.Kind, outcome.Action.SampleID, outcome.Error)
	}
	if report.Error != "" {
		fmt.Fprintf(out, "Error: %s\n", report.Error)
	}
}
