// Package cmd provides the root command and CLI setup for loom.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mouse-blink/loom/internal/adapter"
	"github.com/mouse-blink/loom/internal/controller"
	"github.com/mouse-blink/loom/internal/domain"
	m "github.com/mouse-blink/loom/internal/model"
)

// defaultOutputDir receives artifacts when neither the --output flag nor the
// manifest names a directory.
const defaultOutputDir = "generated"

var fsAdapter adapter.SourceFSAdapter
var extractCache *adapter.ExtractCache
var evaluator adapter.Evaluator
var artifactWriter adapter.ArtifactWriter
var reportStore adapter.ReportStore
var fsWatcher adapter.Watcher
var ui controller.UI
var workflow domain.Workflow

func init() {
	fsAdapter = adapter.NewLocalSourceFSAdapter()
	extractCache, _ = adapter.NewExtractCache()
	evaluator = adapter.NewStarlarkEvaluator()
	artifactWriter = adapter.NewLocalArtifactWriter()
	reportStore = adapter.NewReportStore()
	fsWatcher = adapter.NewFSWatcher()
	ui = controller.NewUI(rootCmd, controller.IsTTY(os.Stdout), fsAdapter.ReadFile)
	workflow = domain.NewWorkflow(
		fsAdapter,
		extractCache,
		evaluator,
		artifactWriter,
		reportStore,
		fsWatcher,
		ui,
	)
}

var outputFlag string
var configFlag string
var defineFlags []string
var plainFlag bool
var reportFlag bool
var watchFlag bool

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loom [paths...]",
		Short: "Inline code generation from #meta directives",
		Long: `Loom scans source files for #meta directives, runs their scripted
bodies in dependency order, and weaves the generated text into output
files. Running loom with no subcommand is the same as "loom run".

Supports Go-style path patterns:
  - src/...        recursively scan the src directory
  - src include    scan multiple directories
  - src/main.c     scan a single file`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if !plainFlag {
				return
			}

			ui = controller.NewUI(rootCmd, false, fsAdapter.ReadFile)
			workflow = domain.NewWorkflow(
				fsAdapter,
				extractCache,
				evaluator,
				artifactWriter,
				reportStore,
				fsWatcher,
				ui,
			)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), args)
		},
	}
	cmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "", "directory artifacts are written under (default from manifest, else \"generated\")")
	cmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "run manifest to load (default loom.hcl when present)")
	cmd.PersistentFlags().StringArrayVarP(&defineFlags, "define", "D", nil, "define a constant as NAME=VALUE (can be repeated)")
	cmd.PersistentFlags().BoolVar(&plainFlag, "plain", false, "disable the interactive terminal UI")
	cmd.PersistentFlags().BoolVar(&reportFlag, "report", false, "persist a run report under the output directory")
	cmd.PersistentFlags().BoolVarP(&watchFlag, "watch", "w", false, "rerun generation whenever a scanned file changes")

	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var diags m.Diagnostics
		if !errors.As(err, &diags) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}

		os.Exit(1)
	}
}

// runGenerate resolves the run configuration and executes the pipeline, in
// watch mode when requested. Both the root command and "loom run" land here.
func runGenerate(ctx context.Context, args []string) error {
	genArgs, err := resolveGenerateArgs(args)
	if err != nil {
		return err
	}

	if watchFlag {
		return workflow.Watch(ctx, genArgs)
	}

	_, err = workflow.Generate(ctx, genArgs)

	return err
}

// resolveGenerateArgs layers the command line over the manifest: flags win,
// then the manifest, then defaults.
func resolveGenerateArgs(args []string) (domain.GenerateArgs, error) {
	manifest, err := loadManifest()
	if err != nil {
		return domain.GenerateArgs{}, err
	}

	planArgs, err := resolvePlanArgs(args, manifest)
	if err != nil {
		return domain.GenerateArgs{}, err
	}

	output := outputFlag
	if output == "" {
		output = manifest.Output
	}

	if output == "" {
		output = defaultOutputDir
	}

	return domain.GenerateArgs{
		PlanArgs: planArgs,
		Output:   m.Path(output),
		Report:   reportFlag,
	}, nil
}

func resolvePlanArgs(args []string, manifest *adapter.Manifest) (domain.PlanArgs, error) {
	paths := args
	if len(paths) == 0 {
		paths = manifest.Sources
	}

	if len(paths) == 0 {
		paths = []string{"."}
	}

	flagDefines := make([]m.Define, 0, len(defineFlags))

	for _, arg := range defineFlags {
		define, err := adapter.ParseDefineFlag(arg)
		if err != nil {
			return domain.PlanArgs{}, err
		}

		flagDefines = append(flagDefines, define)
	}

	return domain.PlanArgs{
		Paths:   paths,
		Defines: adapter.MergeDefines(manifest.Defines, flagDefines),
	}, nil
}

// loadManifest reads the manifest named by --config, or the default one when
// it exists. Without either, an empty manifest applies.
func loadManifest() (*adapter.Manifest, error) {
	path := configFlag

	if path == "" {
		if _, err := fsAdapter.FileInfo(m.Path(adapter.DefaultManifestName)); err != nil {
			return &adapter.Manifest{}, nil
		}

		path = adapter.DefaultManifestName
	}

	return adapter.LoadManifest(path)
}
