package adapter

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	m "github.com/mouse-blink/loom/internal/model"
)

// reportFileName is where the latest run report lives under the output root.
const reportFileName = ".loom-report.yaml"

// ReportStore persists and retrieves run reports.
type ReportStore interface {
	SaveReport(root m.Path, report m.Report) error
	LoadReport(root m.Path) (m.Report, error)
}

type reportStore struct{}

// NewReportStore constructs a ReportStore backed by one YAML file under the
// output root.
func NewReportStore() ReportStore {
	return &reportStore{}
}

func (rs *reportStore) SaveReport(root m.Path, report m.Report) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	path := reportPath(root)

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	return nil
}

func (rs *reportStore) LoadReport(root m.Path) (m.Report, error) {
	data, err := os.ReadFile(reportPath(root))
	if err != nil {
		return m.Report{}, err
	}

	var report m.Report

	if err := yaml.Unmarshal(data, &report); err != nil {
		return m.Report{}, fmt.Errorf("decoding report: %w", err)
	}

	return report, nil
}

func reportPath(root m.Path) string {
	return filepath.Join(string(root), reportFileName)
}
