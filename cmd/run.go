package cmd

import (
	"github.com/spf13/cobra"
)

// runCmd represents the run command. The root command delegates here when
// invoked without a subcommand.
var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [paths...]",
		Short: "Scan, execute directives, and write artifacts",
		Long: `Run scans the given paths for #meta directives, executes their bodies
in dependency order, and writes the woven artifacts under the output
directory. Artifacts are only written when every directive succeeds.

With --watch, loom stays resident and reruns generation whenever one of
the scanned files changes. With --report, a machine-readable summary of
the run is saved under the output directory for "loom report".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), args)
		},
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
}
