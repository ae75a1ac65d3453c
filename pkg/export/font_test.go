package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFont(t *testing.T) {
	dir := t.TempDir()
	font := filepath.Join(dir, "cjk.ttf")
	require.NoError(t, os.WriteFile(font, []byte("ttf"), 0o644))

	path, ok := ResolveFont(" /opt/fonts/custom.ttf ", font)
	assert.True(t, ok)
	assert.Equal(t, "/opt/fonts/custom.ttf", path, "configured font wins")

	path, ok = ResolveFont("", filepath.Join(dir, "missing.ttf"), dir, font)
	assert.True(t, ok)
	assert.Equal(t, font, path, "directories and missing files are skipped")

	_, ok = ResolveFont("", filepath.Join(dir, "missing.ttf"))
	assert.False(t, ok)
}
