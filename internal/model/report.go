package model

import "time"

// Report summarizes one generation run in a form the report store can
// round-trip through YAML.
type Report struct {
	StartedAt  time.Time         `yaml:"started_at"`
	Elapsed    string            `yaml:"elapsed"`
	Sources    int               `yaml:"sources"`
	Directives []DirectiveRecord `yaml:"directives"`
	Artifacts  []ArtifactRecord  `yaml:"artifacts,omitempty"`
	Failures   []FailureRecord   `yaml:"failures,omitempty"`
}

// Succeeded reports whether the run produced its artifacts.
func (r *Report) Succeeded() bool {
	return len(r.Failures) == 0
}

// DirectiveRecord is the report view of a single directive.
type DirectiveRecord struct {
	Ref     string   `yaml:"ref"`
	Exports []string `yaml:"exports,omitempty"`
	Imports []string `yaml:"imports,omitempty"`
	Bare    bool     `yaml:"bare,omitempty"`
	Target  string   `yaml:"target,omitempty"`
	Skipped bool     `yaml:"skipped,omitempty"`
}

// ArtifactRecord is the report view of a written output file.
type ArtifactRecord struct {
	Path   string `yaml:"path"`
	Bytes  int    `yaml:"bytes"`
	Sha256 string `yaml:"sha256"`
	Chunks int    `yaml:"chunks"`
}

// FailureRecord is the report view of a diagnostic.
type FailureRecord struct {
	Category string `yaml:"category"`
	Where    string `yaml:"where,omitempty"`
	Message  string `yaml:"message"`
}
