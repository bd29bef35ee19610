package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFilesByExtension(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	for _, name := range []string{"a.hcl", "b.txt", filepath.Join("nested", "c.hcl")} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	t.Run("walks directories recursively", func(t *testing.T) {
		files, err := FindFilesByExtension(dir, ".hcl")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{
			filepath.Join(dir, "a.hcl"),
			filepath.Join(dir, "nested", "c.hcl"),
		}, files)
	})

	t.Run("accepts multiple extensions", func(t *testing.T) {
		files, err := FindFilesByExtension(dir, ".hcl", ".txt")
		require.NoError(t, err)
		assert.Len(t, files, 3)
	})

	t.Run("matching file path is returned as-is", func(t *testing.T) {
		path := filepath.Join(dir, "a.hcl")
		files, err := FindFilesByExtension(path, ".hcl")
		require.NoError(t, err)
		assert.Equal(t, []string{path}, files)
	})

	t.Run("non-matching file path yields nothing", func(t *testing.T) {
		files, err := FindFilesByExtension(filepath.Join(dir, "b.txt"), ".hcl")
		require.NoError(t, err)
		assert.Empty(t, files)
	})

	t.Run("missing path errors", func(t *testing.T) {
		_, err := FindFilesByExtension(filepath.Join(dir, "absent"), ".hcl")
		assert.Error(t, err)
	})
}
