// Package config loads evoscript's config.yml, the collaborator-facing
// settings surface named in spec §6: debug verbosity, library/script search
// roots, the default VM executable, and optional run-length output
// encoding.
//
// Grounded on original_source/main.py's `yaml.FullLoader` config load and
// the C_CONFIG key set (script_dirs, stdlib_dir, vm_exe, use_rle, debug);
// reworked into a typed struct the way the teacher's dependency graph
// already pulls in gopkg.in/yaml.v3 transitively through cobra.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the parsed shape of config.yml.
type Config struct {
	Debug      bool     `yaml:"debug"`
	ScriptDirs []string `yaml:"script_dirs"`
	StdlibDir  string   `yaml:"stdlib_dir"`
	VMExe      string   `yaml:"vm_exe"`
	UseRLE     bool     `yaml:"use_rle"`
}

// Default is used when no config.yml is found; it matches the reference
// compiler's built-in fallbacks.
func Default() Config {
	return Config{
		ScriptDirs: []string{"."},
		StdlibDir:  "stdlib",
		VMExe:      "es_vm",
	}
}

// Load reads and parses the YAML file at path. A missing file is not an
// error: it is treated the same as an empty config.yml, with Default's
// values left untouched for any key the file doesn't set.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
