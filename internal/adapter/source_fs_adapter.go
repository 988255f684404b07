package adapter

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	m "github.com/mouse-blink/loom/internal/model"
)

// SourceFSAdapter abstracts the filesystem operations the scan relies on. It
// hides direct `os` access so the workflow logic can be tested without
// touching the disk.
type SourceFSAdapter interface {
	// Discover expands files, directories, and `dir/...` patterns into a
	// sorted, deduplicated list of scan candidates.
	Discover(patterns []string) ([]m.Path, error)

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(path m.Path) ([]byte, error)

	// HashFile returns a stable fingerprint (SHA-256) for the file at path.
	HashFile(path m.Path) (string, error)

	// FileInfo returns metadata for a path so callers can check existence or
	// distinguish files from directories.
	FileInfo(path m.Path) (os.FileInfo, error)
}

// FilepathWalkFunc mirrors the callback shape used by filepath.Walk. It is
// defined here to avoid leaking the standard-library type into the domain.
type FilepathWalkFunc func(path string, info os.FileInfo, err error) error

// scanExts lists the extensions picked up when scanning a directory. A file
// named on the command line is scanned whatever its extension.
var scanExts = map[string]struct{}{
	".c":    {},
	".h":    {},
	".star": {},
}

// LocalSourceFSAdapter is the disk-backed implementation of SourceFSAdapter.
type LocalSourceFSAdapter struct{}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter ready to be wired
// into the workflow.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{}
}

// Discover resolves each pattern to scan candidates. Paths stay relative as
// given, so the origin comments in generated artifacts do not depend on where
// the tree is checked out.
func (a *LocalSourceFSAdapter) Discover(patterns []string) ([]m.Path, error) {
	seen := make(map[string]struct{})

	var found []m.Path

	add := func(path string) {
		clean := filepath.Clean(path)
		if _, exists := seen[clean]; exists {
			return
		}

		seen[clean] = struct{}{}
		found = append(found, m.Path(clean))
	}

	for _, pattern := range patterns {
		root, recursive, err := normalizeRootPath(pattern)
		if err != nil {
			return nil, err
		}

		info, err := a.FileInfo(m.Path(root))
		if err != nil {
			return nil, fmt.Errorf("cannot scan %s: %w", pattern, err)
		}

		if !info.IsDir() {
			add(root)

			continue
		}

		err = a.walk(root, recursive, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if info.IsDir() {
				return nil
			}

			if _, ok := scanExts[filepath.Ext(path)]; !ok {
				return nil
			}

			add(path)

			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(found, func(i, j int) bool { return found[i] < found[j] })

	return found, nil
}

// walk iterates over files under root, optionally descending into
// subdirectories. Version-control and dependency directories are skipped.
func (a *LocalSourceFSAdapter) walk(root string, recursive bool, fn FilepathWalkFunc) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fn(path, info, err)
		}

		if info.IsDir() && path != root {
			if !recursive {
				return filepath.SkipDir
			}

			base := filepath.Base(path)
			if base == ".git" || base == "vendor" || base == "node_modules" {
				return filepath.SkipDir
			}
		}

		return fn(path, info, nil)
	})
}

// ReadFile loads file contents from disk.
func (a *LocalSourceFSAdapter) ReadFile(path m.Path) ([]byte, error) {
	return os.ReadFile(string(path))
}

// HashFile returns the SHA-256 hash of the file at the provided path.
func (a *LocalSourceFSAdapter) HashFile(path m.Path) (string, error) {
	f, err := os.Open(string(path))
	if err != nil {
		return "", err
	}

	defer func() {
		_ = f.Close()
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// FileInfo returns os.FileInfo metadata for the given path.
func (a *LocalSourceFSAdapter) FileInfo(path m.Path) (os.FileInfo, error) {
	return os.Stat(string(path))
}

func normalizeRootPath(root string) (string, bool, error) {
	rootStr, recursive := parseRootPath(root)

	if strings.HasPrefix(rootStr, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", false, err
		}

		suffix := strings.TrimPrefix(rootStr, "~")
		suffix = strings.TrimPrefix(suffix, string(os.PathSeparator))
		rootStr = filepath.Join(home, suffix)
	}

	if rootStr == "" {
		rootStr = "."
	}

	return filepath.Clean(rootStr), recursive, nil
}

func parseRootPath(rootStr string) (path string, recursive bool) {
	if strings.HasSuffix(rootStr, "/...") {
		return strings.TrimSuffix(rootStr, "/..."), true
	}

	return rootStr, false
}
