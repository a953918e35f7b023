// Package cmd builds the evoscript compiler's CLI, grounded on the
// teacher's cmd/cmd.go: a cobra.Command with flags attached directly, a Run
// closure that configures logrus before delegating to appMain.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	easy "github.com/t-tomalak/logrus-easy-formatter"

	"github.com/evoscript-lang/evoscript/config"
	"github.com/evoscript-lang/evoscript/debug"
	"github.com/evoscript-lang/evoscript/emitter"
	e "github.com/evoscript-lang/evoscript/errors"
	"github.com/evoscript-lang/evoscript/parser"
	"github.com/evoscript-lang/evoscript/repl"
	"github.com/evoscript-lang/evoscript/runner"
	"github.com/evoscript-lang/evoscript/source"
)

// flags collects the CLI surface named in spec §6.
type flags struct {
	input     string
	output    string
	parseOnly bool
	execute   bool
	stdlib    string
	vmPath    string
	vmOutSize int
	config    string
	interact  bool
}

// App builds the evoscript cobra.Command.
func App() (app *cobra.Command) {
	f := &flags{}

	app = &cobra.Command{
		Use:   "evoscript",
		Short: "Compile evoscript source to fixed-width VM bytecode",
	}

	app.Flags().SortFlags = true
	app.Flags().StringVarP(&f.input, "input", "i", "", "input .es source file (required, unless --repl)")
	app.Flags().StringVarP(&f.output, "output", "o", "", "output file for hex-encoded bytecode")
	app.Flags().BoolVarP(&f.parseOnly, "parse", "p", false, "parse only, skip bytecode emission")
	app.Flags().BoolVarP(&f.execute, "execute", "e", false, "spawn the VM on the compiled bytecode")
	app.Flags().StringVarP(&f.stdlib, "stdlib", "l", "", "library search root (overrides config.yml)")
	app.Flags().StringVarP(&f.vmPath, "vm", "v", "", "VM executable path (overrides config.yml)")
	app.Flags().IntVar(&f.vmOutSize, "vmoutsize", 0, "refuse to launch the VM if output exceeds this many bytes")
	app.Flags().StringVarP(&f.config, "config", "c", "config.yml", "path to config.yml")
	app.Flags().BoolVar(&f.interact, "repl", false, "start an interactive compile session instead of compiling a file")

	app.Run = func(_ *cobra.Command, _ []string) {
		cfg, err := config.Load(f.config)
		if err != nil {
			logrus.Fatal(err)
		}

		level := logrus.InfoLevel
		if cfg.Debug {
			level = logrus.DebugLevel
		}
		debug.DEBUG = cfg.Debug
		logrus.SetLevel(level)
		logrus.SetFormatter(&easy.Formatter{LogFormat: "//DBG// %msg%\n"})

		if err := appMain(f, cfg); err != nil {
			logrus.Error(e.Aggregate(err))
			os.Exit(1)
		}
	}
	return
}

func appMain(f *flags, cfg config.Config) error {
	if f.stdlib != "" {
		cfg.StdlibDir = f.stdlib
	}
	if f.vmPath != "" {
		cfg.VMExe = f.vmPath
	}

	loc := source.NewLocator(cfg.ScriptDirs, cfg.StdlibDir)

	if f.interact {
		return repl.Run(emitter.New())
	}

	if f.input == "" {
		fmt.Fprintln(os.Stderr, "evoscript: missing required --input")
		os.Exit(-1)
	}

	src, err := readInput(loc, f.input)
	if err != nil {
		return err
	}

	stmts, err := parser.Parse(parser.Clean(src), loc)
	if err != nil {
		return err
	}
	if f.parseOnly {
		logrus.Debugf("evoscript: parsed %d top-level statement(s)", len(stmts))
		return nil
	}

	em := emitter.New()
	if err := em.Emit(stmts); err != nil {
		return err
	}
	chunk := em.Chunk()
	stats := em.Stats()
	logrus.Debugf(
		"** STATS: max_scope=%d max_symbols=%d max_arrays=%d max_strlen=%d **",
		stats.MaxScope, stats.MaxSymbols, stats.MaxArrays, stats.MaxStrlen,
	)

	if f.output != "" {
		out := chunk.HexString()
		if cfg.UseRLE {
			out = chunk.Finalize(true)
		}
		if err := os.WriteFile(f.output, []byte(out), 0o644); err != nil {
			return err
		}
	}

	if f.execute {
		if cfg.VMExe == "" {
			return fmt.Errorf("evoscript: -e given but no VM executable configured")
		}
		return runner.Run(context.Background(), runner.Options{
			VMPath:    cfg.VMExe,
			MaxOutput: f.vmOutSize,
		}, chunk.Code)
	}

	return nil
}

// readInput resolves path via loc (absolute paths and configured
// directories), falling back to treating it as a plain filesystem path
// relative to the working directory.
func readInput(loc *source.Locator, path string) (string, error) {
	if full, err := loc.Find(path); err == nil {
		path = full
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("evoscript: could not read %q: %w", path, err)
	}
	return string(data), nil
}
