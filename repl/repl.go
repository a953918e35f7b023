// Package repl implements an interactive, line-at-a-time evoscript
// compiler session: a feature the reference implementation never had, but
// one the teacher's dependency on github.com/chzyer/readline clearly
// anticipates (golox is driven interactively in its own REPL even though
// this compiler's CLI is normally file-driven). Each accepted line is
// parsed and emitted against a persistent Emitter so later lines can
// reference earlier declarations, then disassembled for display.
package repl

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/sirupsen/logrus"

	"github.com/evoscript-lang/evoscript/ast"
	"github.com/evoscript-lang/evoscript/bytecode"
	"github.com/evoscript-lang/evoscript/emitter"
	"github.com/evoscript-lang/evoscript/parser"
)

// nopResolver rejects `import` statements typed interactively; a REPL line
// has no file of its own to resolve relative imports against.
type nopResolver struct{}

func (nopResolver) Resolve(path string) (string, error) {
	return "", fmt.Errorf("repl: imports are not supported interactively (tried %q)", path)
}

// Run drives an interactive read-eval-print loop on the terminal, compiling
// one line at a time against a single Emitter so declarations accumulate
// across lines. It returns nil when the user exits (Ctrl-D, or an `exit` or
// `quit` line), and an error when readline fails to initialize or to read.
func Run(em *emitter.Emitter) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "evo> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		HistoryFile:     "", // in-memory history only; no home-dir assumption
	})
	if err != nil {
		return fmt.Errorf("repl: failed to start readline: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		if err := evalLine(em, rl.Stdout(), line); err != nil {
			fmt.Fprintln(rl.Stderr(), err)
		}
	}
}

func evalLine(em *emitter.Emitter, out io.Writer, line string) error {
	stmts, err := parser.Parse(parser.Clean(line), nopResolver{})
	if err != nil {
		return err
	}

	before := em.Chunk().Len()
	logrus.Debugf("repl: parsed %d statement(s)", len(stmts))
	if err := emitStmts(em, stmts); err != nil {
		return err
	}

	added := em.Chunk().Code[before:]
	for _, in := range bytecode.Decode(added) {
		fmt.Fprintln(out, bytecode.DisassembleInst(in))
	}
	return nil
}

func emitStmts(em *emitter.Emitter, stmts []ast.Stmt) error {
	return em.Emit(stmts)
}
