package adapter

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/mouse-blink/loom/internal/model"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func mustMkdir(t *testing.T, path string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(path, 0o755))
}

func TestNewLocalSourceFSAdapter(t *testing.T) {
	assert.NotNil(t, NewLocalSourceFSAdapter())
}

func TestLocalSourceFSAdapter_Discover(t *testing.T) {
	fs := NewLocalSourceFSAdapter()

	t.Run("returns a file named explicitly whatever its extension", func(t *testing.T) {
		notes := filepath.Join(t.TempDir(), "notes.txt")
		writeTestFile(t, notes, "plain text\n")

		found, err := fs.Discover([]string{notes})

		require.NoError(t, err)
		assert.Equal(t, []m.Path{m.Path(notes)}, found)
	})

	t.Run("scans a directory without descending", func(t *testing.T) {
		dir := t.TempDir()
		writeTestFile(t, filepath.Join(dir, "main.c"), "int main;\n")
		writeTestFile(t, filepath.Join(dir, "nested", "deep.c"), "int deep;\n")

		found, err := fs.Discover([]string{dir})

		require.NoError(t, err)
		assert.Equal(t, []m.Path{m.Path(filepath.Join(dir, "main.c"))}, found)
	})

	t.Run("descends when the pattern ends in /...", func(t *testing.T) {
		dir := t.TempDir()
		writeTestFile(t, filepath.Join(dir, "main.c"), "int main;\n")
		writeTestFile(t, filepath.Join(dir, "nested", "deep.h"), "int deep;\n")
		writeTestFile(t, filepath.Join(dir, "nested", "tasks.star"), "# tasks\n")

		found, err := fs.Discover([]string{dir + "/..."})

		require.NoError(t, err)
		assert.Equal(t, []m.Path{
			m.Path(filepath.Join(dir, "main.c")),
			m.Path(filepath.Join(dir, "nested", "deep.h")),
			m.Path(filepath.Join(dir, "nested", "tasks.star")),
		}, found)
	})

	t.Run("ignores files with unrelated extensions", func(t *testing.T) {
		dir := t.TempDir()
		writeTestFile(t, filepath.Join(dir, "main.c"), "int main;\n")
		writeTestFile(t, filepath.Join(dir, "README.md"), "# readme\n")

		found, err := fs.Discover([]string{dir})

		require.NoError(t, err)
		assert.Equal(t, []m.Path{m.Path(filepath.Join(dir, "main.c"))}, found)
	})

	t.Run("skips version control and dependency directories", func(t *testing.T) {
		dir := t.TempDir()
		writeTestFile(t, filepath.Join(dir, ".git", "hook.c"), "int hook;\n")
		writeTestFile(t, filepath.Join(dir, "vendor", "lib.c"), "int lib;\n")
		writeTestFile(t, filepath.Join(dir, "node_modules", "pkg.c"), "int pkg;\n")
		writeTestFile(t, filepath.Join(dir, "src", "ok.c"), "int ok;\n")

		found, err := fs.Discover([]string{dir + "/..."})

		require.NoError(t, err)
		assert.Equal(t, []m.Path{m.Path(filepath.Join(dir, "src", "ok.c"))}, found)
	})

	t.Run("deduplicates overlapping patterns", func(t *testing.T) {
		dir := t.TempDir()
		main := filepath.Join(dir, "main.c")
		writeTestFile(t, main, "int main;\n")

		found, err := fs.Discover([]string{main, dir})

		require.NoError(t, err)
		assert.Equal(t, []m.Path{m.Path(main)}, found)
	})

	t.Run("sorts results across patterns", func(t *testing.T) {
		first := t.TempDir()
		second := t.TempDir()
		writeTestFile(t, filepath.Join(first, "zeta.c"), "int z;\n")
		writeTestFile(t, filepath.Join(second, "alpha.c"), "int a;\n")

		found, err := fs.Discover([]string{second, first})

		require.NoError(t, err)
		assert.Equal(t, []m.Path{
			m.Path(filepath.Join(first, "zeta.c")),
			m.Path(filepath.Join(second, "alpha.c")),
		}, found)
	})

	t.Run("keeps relative patterns relative", func(t *testing.T) {
		dir := t.TempDir()
		writeTestFile(t, filepath.Join(dir, "src", "main.c"), "int main;\n")
		t.Chdir(dir)

		found, err := fs.Discover([]string{"./src/..."})

		require.NoError(t, err)
		assert.Equal(t, []m.Path{m.Path(filepath.Join("src", "main.c"))}, found)
	})

	t.Run("expands a leading tilde", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		writeTestFile(t, filepath.Join(home, "src", "gen.c"), "int gen;\n")

		found, err := fs.Discover([]string{"~/src/..."})

		require.NoError(t, err)
		assert.Equal(t, []m.Path{m.Path(filepath.Join(home, "src", "gen.c"))}, found)
	})

	t.Run("fails when a root does not exist", func(t *testing.T) {
		found, err := fs.Discover([]string{filepath.Join(t.TempDir(), "missing")})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot scan")
		assert.Nil(t, found)
	})
}

func TestLocalSourceFSAdapter_ReadFile(t *testing.T) {
	fs := NewLocalSourceFSAdapter()

	t.Run("returns file contents", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "main.c")
		writeTestFile(t, path, "int main(void) { return 0; }\n")

		content, err := fs.ReadFile(m.Path(path))

		require.NoError(t, err)
		assert.Equal(t, "int main(void) { return 0; }\n", string(content))
	})

	t.Run("fails for a missing file", func(t *testing.T) {
		_, err := fs.ReadFile(m.Path(filepath.Join(t.TempDir(), "missing.c")))

		assert.Error(t, err)
	})
}

func TestLocalSourceFSAdapter_HashFile(t *testing.T) {
	fs := NewLocalSourceFSAdapter()

	t.Run("matches the content digest", func(t *testing.T) {
		content := []byte("#define WIDTH 16\n")
		path := filepath.Join(t.TempDir(), "defs.h")
		require.NoError(t, os.WriteFile(path, content, 0o644))

		hash, err := fs.HashFile(m.Path(path))

		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("%x", sha256.Sum256(content)), hash)
	})

	t.Run("changes when the content changes", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "defs.h")
		writeTestFile(t, path, "#define WIDTH 16\n")

		before, err := fs.HashFile(m.Path(path))
		require.NoError(t, err)

		writeTestFile(t, path, "#define WIDTH 32\n")

		after, err := fs.HashFile(m.Path(path))
		require.NoError(t, err)

		assert.NotEqual(t, before, after)
	})

	t.Run("fails for a missing file", func(t *testing.T) {
		_, err := fs.HashFile(m.Path(filepath.Join(t.TempDir(), "missing.h")))

		assert.Error(t, err)
	})
}

func TestLocalSourceFSAdapter_FileInfo(t *testing.T) {
	fs := NewLocalSourceFSAdapter()

	t.Run("reports a regular file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "main.c")
		writeTestFile(t, path, "int main;\n")

		info, err := fs.FileInfo(m.Path(path))

		require.NoError(t, err)
		assert.False(t, info.IsDir())
		assert.Equal(t, int64(len("int main;\n")), info.Size())
	})

	t.Run("reports a directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "sub")
		mustMkdir(t, dir)

		info, err := fs.FileInfo(m.Path(dir))

		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("fails for a missing path", func(t *testing.T) {
		_, err := fs.FileInfo(m.Path(filepath.Join(t.TempDir(), "missing")))

		assert.True(t, os.IsNotExist(err))
	})
}
