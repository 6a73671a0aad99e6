package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newManifestCommand(ctx *commandContext) *cobra.Command {
	manifestCmd := &cobra.Command{
		Use:   "manifest",
		Short: "Manifest utilities",
	}
	manifestCmd.AddCommand(newManifestCheckCommand(ctx))
	return manifestCmd
}

func newManifestCheckCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Cross-check the manifest against the audio directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := ctx.loadDataset()
			if err != nil {
				return err
			}

			var missing []string
			for _, sample := range ds.manifest.Samples() {
				if _, ok := ds.snap.Lookup(sample.ID); !ok {
					missing = append(missing, sample.ID)
				}
			}
			var untracked []string
			for _, id := range ds.snap.IDs() {
				if _, ok := ds.manifest.Lookup(id); !ok {
					untracked = append(untracked, id)
				}
			}

			if jsonFlag {
				warnings := make([]string, 0, len(ds.warnings))
				for _, warning := range ds.warnings {
					warnings = append(warnings, warning.Error())
				}
				return writeJSON(cmd, map[string]any{
					"samples":        ds.manifest.Len(),
					"files":          ds.snap.Len(),
					"parse_warnings": warnings,
					"missing_files":  missing,
					"untracked":      untracked,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Manifest: %d samples, audio directory: %d files\n", ds.manifest.Len(), ds.snap.Len())
			for _, warning := range ds.warnings {
				fmt.Fprintf(out, "  parse warning: %v\n", warning)
			}
			for _, id := range missing {
				fmt.Fprintf(out, "  missing on disk: %s\n", id)
			}
			for _, id := range untracked {
				fmt.Fprintf(out, "  not in manifest: %s\n", id)
			}

			issues := len(ds.warnings) + len(missing) + len(untracked)
			if issues == 0 {
				fmt.Fprintln(out, "Manifest and audio directory are consistent.")
				return nil
			}
			return fmt.Errorf("manifest check found %d issue(s)", issues)
		},
	}

	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit check results as JSON")
	return cmd
}
