package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	m "github.com/mouse-blink/loom/internal/model"
)

// reportCmd represents the report command.
var reportCmd = newReportCmd()

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "View the report saved by the last run",
		Long:  "View the run report saved under the output directory by \"loom run --report\".",
		Args:  cobra.ExactArgs(0),
		RunE: func(_ *cobra.Command, _ []string) error {
			manifest, err := loadManifest()
			if err != nil {
				return err
			}

			root := outputFlag
			if root == "" {
				root = manifest.Output
			}

			if root == "" {
				root = defaultOutputDir
			}

			report, err := reportStore.LoadReport(m.Path(root))
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("no report found under %s, run \"loom run --report\" first", root)
			}

			if err != nil {
				return err
			}

			return ui.DisplayReport(report)
		},
	}
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
