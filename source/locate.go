// Package source resolves evoscript source file paths: the entry script
// given on the command line, and the `import "path"` statements spliced in
// by the parser. Both searches walk the same configured directory list, so
// a single Locator implements parser.Resolver and backs the CLI's input
// flag.
//
// Grounded on original_source/main.py's import resolution, which walks
// script_dirs and stdlib_dir looking for `<path>.es`; reworked into a Go
// type the way the teacher resolves paths in cmd/cmd.go.
package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Locator finds evoscript source files by searching an ordered list of
// directories, falling back to a dedicated standard-library directory.
type Locator struct {
	Dirs      []string
	StdlibDir string
}

// NewLocator builds a Locator from the configured script directories and
// standard library directory.
func NewLocator(dirs []string, stdlibDir string) *Locator {
	return &Locator{Dirs: dirs, StdlibDir: stdlibDir}
}

// Resolve implements parser.Resolver: it loads the contents of the
// evoscript source file that Find locates for path (so an extension-less
// path also matches "<path>.es").
func (l *Locator) Resolve(path string) (string, error) {
	full, err := l.Find(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// errFound stops an in-progress WalkDir once a match has been located.
var errFound = errors.New("source: found")

// Find resolves path per spec: an absolute path is opened directly;
// otherwise each configured directory (Dirs, then StdlibDir) is walked
// recursively, and the first file whose basename exactly matches (tried as
// given, and with a ".es" suffix appended) wins.
func (l *Locator) Find(path string) (string, error) {
	names := []string{path}
	if filepath.Ext(path) == "" {
		names = append(names, path+".es")
	}

	if filepath.IsAbs(path) {
		for _, name := range names {
			if info, err := os.Stat(name); err == nil && !info.IsDir() {
				return name, nil
			}
		}
		return "", fmt.Errorf("source: could not locate %q", path)
	}

	bases := make(map[string]bool, len(names))
	for _, n := range names {
		bases[filepath.Base(n)] = true
	}

	candidates := l.candidateDirs()
	for _, dir := range candidates {
		var found string
		err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // skip unreadable entries, keep walking
			}
			if !d.IsDir() && bases[d.Name()] {
				found = p
				return errFound
			}
			return nil
		})
		if err != nil && !errors.Is(err, errFound) {
			continue
		}
		if found != "" {
			return found, nil
		}
	}
	return "", fmt.Errorf("source: could not locate %q in %v", path, candidates)
}

func (l *Locator) candidateDirs() []string {
	dirs := append([]string(nil), l.Dirs...)
	if l.StdlibDir != "" {
		dirs = append(dirs, l.StdlibDir)
	}
	if len(dirs) == 0 {
		dirs = []string{"."}
	}
	return dirs
}
