package adapter

import (
	"fmt"
	"os"
	"path/filepath"

	m "github.com/mouse-blink/loom/internal/model"
)

// ArtifactWriter persists generated artifacts under an output root.
type ArtifactWriter interface {
	// WriteArtifact writes one artifact, creating parent directories as
	// needed, and returns the path it landed on.
	WriteArtifact(root m.Path, artifact m.Artifact) (m.Path, error)
}

// LocalArtifactWriter writes artifacts to the local filesystem.
type LocalArtifactWriter struct{}

// NewLocalArtifactWriter constructs a LocalArtifactWriter.
func NewLocalArtifactWriter() *LocalArtifactWriter {
	return &LocalArtifactWriter{}
}

// WriteArtifact writes the artifact text under root at its target path.
func (w *LocalArtifactWriter) WriteArtifact(root m.Path, artifact m.Artifact) (m.Path, error) {
	full := filepath.Join(string(root), string(artifact.Target))

	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return "", fmt.Errorf("creating output directory for %s: %w", artifact.Target, err)
	}

	if err := os.WriteFile(full, artifact.Text, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", artifact.Target, err)
	}

	return m.Path(full), nil
}
