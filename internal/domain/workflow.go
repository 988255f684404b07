// Package domain contains the core code generation workflow and logic.
package domain

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mouse-blink/loom/internal/adapter"
	"github.com/mouse-blink/loom/internal/controller"
	m "github.com/mouse-blink/loom/internal/model"
)

// PlanArgs configures a scan: where to look and which constants to inject
// into every directive namespace.
type PlanArgs struct {
	Paths   []string
	Defines []m.Define
}

// GenerateArgs configures a full generation run.
type GenerateArgs struct {
	PlanArgs

	// Output is the directory artifact targets are resolved under.
	Output m.Path

	// Report persists a run report under Output when set.
	Report bool
}

// Workflow defines the top-level generation operations.
type Workflow interface {
	// Plan scans and resolves without executing any bodies. Diagnostics are
	// displayed and returned as the error.
	Plan(ctx context.Context, args PlanArgs) (*m.Plan, error)

	// Generate runs the full pipeline once: scan, resolve, schedule, execute,
	// write artifacts. No artifact is written when anything failed.
	Generate(ctx context.Context, args GenerateArgs) (m.Report, error)

	// Watch reruns Generate after every settled change to the scanned files.
	Watch(ctx context.Context, args GenerateArgs) error
}

type workflow struct {
	fs      adapter.SourceFSAdapter
	cache   *adapter.ExtractCache
	eval    adapter.Evaluator
	writer  adapter.ArtifactWriter
	reports adapter.ReportStore
	watcher adapter.Watcher
	ui      controller.UI
}

// NewWorkflow creates a new Workflow instance with the provided adapters.
func NewWorkflow(
	fs adapter.SourceFSAdapter,
	cache *adapter.ExtractCache,
	eval adapter.Evaluator,
	writer adapter.ArtifactWriter,
	reports adapter.ReportStore,
	watcher adapter.Watcher,
	ui controller.UI,
) Workflow {
	return &workflow{
		fs:      fs,
		cache:   cache,
		eval:    eval,
		writer:  writer,
		reports: reports,
		watcher: watcher,
		ui:      ui,
	}
}

// Plan scans, resolves, and schedules without executing.
func (w *workflow) Plan(ctx context.Context, args PlanArgs) (*m.Plan, error) {
	if err := w.ui.Start(controller.WithPlanMode()); err != nil {
		return nil, err
	}

	defer w.ui.Close()

	plan, diags, _, err := w.buildPlan(ctx, args)
	if err != nil {
		return nil, err
	}

	if len(diags) > 0 {
		diags.Sort()
		w.ui.DisplayDiagnostics(diags)

		return nil, diags
	}

	return plan, nil
}

// Generate runs the whole pipeline once.
func (w *workflow) Generate(ctx context.Context, args GenerateArgs) (m.Report, error) {
	started := time.Now()

	plan, diags, sources, err := w.buildPlan(ctx, args.PlanArgs)
	if err != nil {
		return m.Report{}, err
	}

	if len(diags) > 0 {
		diags.Sort()
		w.ui.DisplayDiagnostics(diags)

		report := buildReport(started, sources, plan, nil, nil, diags)
		w.persistReport(args, report)

		return report, diags
	}

	if err := w.ui.Start(controller.WithRunMode()); err != nil {
		return m.Report{}, err
	}

	result, runErr := ExecuteAll(ctx, ExecArgs{
		Order:    plan.Order,
		Eval:     w.eval,
		Defines:  args.Defines,
		Observer: w.ui,
		Print:    func(text string) { w.ui.Printf("%s\n", text) },
	})

	var artifacts []m.Artifact

	if runErr == nil && len(result.Diags) == 0 {
		artifacts = BuildArtifacts(plan.Order, result.Buffers)

		for _, artifact := range artifacts {
			if _, err := w.writer.WriteArtifact(args.Output, artifact); err != nil {
				result.Diags = append(result.Diags, m.Diagnostic{
					Category: m.CategoryOutputIO,
					Message:  err.Error(),
				})

				artifacts = nil

				break
			}
		}
	}

	if len(artifacts) > 0 {
		w.ui.ArtifactsWritten(args.Output, artifacts)
	}

	w.ui.Close()

	if len(result.Diags) > 0 {
		result.Diags.Sort()
		w.ui.DisplayDiagnostics(result.Diags)
	}

	report := buildReport(started, sources, plan, result, artifacts, result.Diags)
	w.persistReport(args, report)

	if runErr != nil {
		return report, runErr
	}

	return report, result.Diags.ErrOrNil()
}

// Watch runs Generate once, then again after every settled change. Watching
// covers the directories of the initially discovered files.
func (w *workflow) Watch(ctx context.Context, args GenerateArgs) error {
	if w.watcher == nil {
		return fmt.Errorf("watch mode is not available")
	}

	run := func() {
		if _, err := w.Generate(ctx, args); err != nil {
			var diags m.Diagnostics
			if !errors.As(err, &diags) && !errors.Is(err, context.Canceled) {
				w.ui.Printf("generation failed: %v\n", err)
			}
		}
	}

	run()

	paths, err := w.fs.Discover(args.Paths)
	if err != nil {
		return err
	}

	w.ui.WatchStarted(len(paths))

	err = w.watcher.Watch(ctx, paths, run)
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

// buildPlan discovers sources, extracts directives, and resolves them into a
// scheduled plan. The returned diagnostics aggregate every extraction,
// resolution, and cycle problem in the batch.
func (w *workflow) buildPlan(ctx context.Context, args PlanArgs) (*m.Plan, m.Diagnostics, int, error) {
	paths, err := w.fs.Discover(args.Paths)
	if err != nil {
		return nil, nil, 0, err
	}

	directives, diags, err := w.extractAll(ctx, paths)
	if err != nil {
		return nil, nil, 0, err
	}

	plan, resolveDiags := Resolve(directives, args.Defines)
	diags = append(diags, resolveDiags...)

	order, cycleDiags := Schedule(plan.Nodes)
	diags = append(diags, cycleDiags...)

	plan.Order = order

	return plan, diags, len(paths), nil
}

// extractAll reads and extracts every file, in parallel, preserving the
// discovery order of the results. Clean extractions come from and go into
// the cache; files with diagnostics are always re-extracted.
func (w *workflow) extractAll(ctx context.Context, paths []m.Path) ([]m.Directive, m.Diagnostics, error) {
	type fileResult struct {
		directives []m.Directive
		diags      m.Diagnostics
	}

	results := make([]fileResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			hash, err := w.fs.HashFile(path)
			if err != nil {
				return fmt.Errorf("hash error for %s: %w", path, err)
			}

			if cached, ok := w.cache.Get(path, hash); ok {
				results[i] = fileResult{directives: cached}

				return nil
			}

			content, err := w.fs.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read error for %s: %w", path, err)
			}

			directives, diags := ExtractFile(path, content)
			if len(diags) == 0 {
				w.cache.Put(path, hash, directives)
			}

			results[i] = fileResult{directives: directives, diags: diags}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var (
		all   []m.Directive
		diags m.Diagnostics
	)

	for _, r := range results {
		all = append(all, r.directives...)
		diags = append(diags, r.diags...)
	}

	return all, diags, nil
}

func (w *workflow) persistReport(args GenerateArgs, report m.Report) {
	if !args.Report || w.reports == nil {
		return
	}

	if err := w.reports.SaveReport(args.Output, report); err != nil {
		w.ui.Printf("could not save run report: %v\n", err)
	}
}

// buildReport snapshots one run for persistence and later display.
func buildReport(started time.Time, sources int, plan *m.Plan, result *RunResult, artifacts []m.Artifact, diags m.Diagnostics) m.Report {
	report := m.Report{
		StartedAt: started,
		Elapsed:   time.Since(started).Round(time.Millisecond).String(),
		Sources:   sources,
	}

	if plan != nil {
		for _, node := range plan.Order {
			record := m.DirectiveRecord{
				Ref:     node.Ref(),
				Exports: node.Exports,
				Imports: node.Imports,
				Bare:    node.Bare,
				Target:  string(node.Target),
			}

			if result != nil {
				_, record.Skipped = result.Skipped[node]
			}

			report.Directives = append(report.Directives, record)
		}
	}

	for _, artifact := range artifacts {
		sum := sha256.Sum256(artifact.Text)

		report.Artifacts = append(report.Artifacts, m.ArtifactRecord{
			Path:   string(artifact.Target),
			Bytes:  len(artifact.Text),
			Sha256: fmt.Sprintf("%x", sum),
			Chunks: artifact.Chunks,
		})
	}

	for _, d := range diags {
		report.Failures = append(report.Failures, m.FailureRecord{
			Category: string(d.Category),
			Where:    d.Span.String(),
			Message:  d.Message,
		})
	}

	return report
}
