package cmd

import (
	"github.com/spf13/cobra"
)

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [paths...]",
		Short: "List directives in execution order",
		Long: `List scans the given paths, resolves the dependency graph, and prints
the schedule without executing anything. Useful for checking what a run
would do and in which order.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := loadManifest()
			if err != nil {
				return err
			}

			planArgs, err := resolvePlanArgs(args, manifest)
			if err != nil {
				return err
			}

			plan, err := workflow.Plan(cmd.Context(), planArgs)
			if err != nil {
				return err
			}

			return ui.DisplayPlan(plan)
		},
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
}
