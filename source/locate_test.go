package source_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evoscript-lang/evoscript/source"
)

func TestFindSearchesDirsInOrder(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dirB, "util.es"), []byte("let x = 1"), 0o644))

	loc := source.NewLocator([]string{dirA, dirB}, "")
	full, err := loc.Find("util")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dirB, "util.es"), full)
}

func TestFindFallsBackToStdlibDir(t *testing.T) {
	stdlib := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(stdlib, "core.es"), []byte("let y = 1"), 0o644))

	loc := source.NewLocator([]string{t.TempDir()}, stdlib)
	full, err := loc.Find("core")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(stdlib, "core.es"), full)
}

func TestFindMissingReturnsError(t *testing.T) {
	loc := source.NewLocator([]string{t.TempDir()}, "")
	_, err := loc.Find("missing")
	assert.Error(t, err)
}

func TestFindRecursesIntoSubdirectories(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "vendor", "math")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "trig.es"), []byte("let pi = 3"), 0o644))

	loc := source.NewLocator([]string{dir}, "")
	full, err := loc.Find("trig")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(nested, "trig.es"), full)
}

func TestFindAbsolutePathOpensDirectly(t *testing.T) {
	dir := t.TempDir()
	full := filepath.Join(dir, "script.es")
	require.NoError(t, os.WriteFile(full, []byte("let a = 1"), 0o644))

	loc := source.NewLocator(nil, "")
	got, err := loc.Find(full)
	require.NoError(t, err)
	assert.Equal(t, full, got)
}

func TestResolveReadsFileContent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib.es"), []byte("let z = 1"), 0o644))

	loc := source.NewLocator([]string{dir}, "")
	content, err := loc.Resolve("lib")
	require.NoError(t, err)
	assert.Equal(t, "let z = 1", content)
}
