package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evoscript-lang/evoscript/config"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := "debug: true\nstdlib_dir: mylib\nscript_dirs:\n  - a\n  - b\nuse_rle: true\nvm_exe: /bin/es_vm\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "mylib", cfg.StdlibDir)
	assert.Equal(t, []string{"a", "b"}, cfg.ScriptDirs)
	assert.True(t, cfg.UseRLE)
	assert.Equal(t, "/bin/es_vm", cfg.VMExe)
}
