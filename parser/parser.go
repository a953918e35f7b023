// Package parser implements evoscript's recursive-descent parser: import
// splicing and input cleaning on entry, then a grammar matching spec §4.2,
// producing a flat top-level ast.Stmt sequence for the emitter.
//
// Grounded on original_source/esc/parser.py's exact grammar shape (including
// its right-recursive precedence chain and unary-literal folding) and on
// the teacher's Pratt-table/panic-mode idiom (rami3l/golox vm/compiler.go),
// adapted here to a plain recursive-descent error-return style since this
// grammar aborts at the first syntax error rather than recovering.
package parser

import (
	"fmt"
	"strings"

	"github.com/evoscript-lang/evoscript/ast"
	e "github.com/evoscript-lang/evoscript/errors"
	"github.com/evoscript-lang/evoscript/scanner"
	"github.com/evoscript-lang/evoscript/token"
)

// Resolver locates the contents of an `import "path"` target. Implementations
// typically walk a stdlib directory and a list of script directories,
// returning the first exact-basename match (spec §4.2, §6).
type Resolver interface {
	Resolve(path string) (string, error)
}

// Parse cleans src, splices any leading imports (recursively, since spliced
// content may itself import), and parses the result into a flat top-level
// statement sequence.
func Parse(src string, resolve Resolver) ([]ast.Stmt, error) {
	spliced, err := spliceImports(src, resolve)
	if err != nil {
		return nil, err
	}
	p := newParser(scanner.New(spliced))
	var stmts []ast.Stmt
	for {
		if err := p.errIfLexErr(); err != nil {
			return nil, err
		}
		if p.cur.Type == token.EOF {
			break
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

// Clean left-trims every line and drops empty lines, per spec §4.2's input
// cleaning pass. It has no semantic effect beyond diagnostic offsets.
func Clean(src string) string {
	lines := strings.Split(src, "\n")
	out := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t\r")
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return strings.Join(out, "\n")
}

// maxImportDepth bounds re-entry since cyclic imports are not detected
// (spec §4.2: "implementers should bound re-entry").
const maxImportDepth = 64

func spliceImports(src string, resolve Resolver) (string, error) {
	for depth := 0; depth < maxImportDepth; depth++ {
		cleaned := Clean(src)
		paths, rest := leadingImports(cleaned)
		if len(paths) == 0 {
			return cleaned, nil
		}
		var prefix strings.Builder
		for _, path := range paths {
			if resolve == nil {
				return "", e.NewSemantic(0, fmt.Sprintf("import %q: no resolver configured", path))
			}
			content, err := resolve.Resolve(path)
			if err != nil {
				return "", e.NewSemantic(0, fmt.Sprintf("import %q: %s", path, err))
			}
			prefix.WriteString(Clean(content))
			prefix.WriteByte('\n')
		}
		src = prefix.String() + rest
	}
	return "", e.NewSemantic(0, "import depth exceeded (possible cycle)")
}

// leadingImports scans cleaned for a run of `import "path"` lines starting
// at the very first line, returning the collected paths and the remaining
// source with those lines removed.
func leadingImports(cleaned string) (paths []string, rest string) {
	lines := strings.Split(cleaned, "\n")
	i := 0
	for i < len(lines) {
		path, ok := matchImportLine(lines[i])
		if !ok {
			break
		}
		paths = append(paths, path)
		i++
	}
	return paths, strings.Join(lines[i:], "\n")
}

func matchImportLine(line string) (string, bool) {
	const kw = "import"
	if !strings.HasPrefix(line, kw) || (len(line) > len(kw) && isIdentRune(rune(line[len(kw)]))) {
		return "", false
	}
	rest := strings.TrimSpace(line[len(kw):])
	if len(rest) < 2 || rest[0] != '"' || rest[len(rest)-1] != '"' {
		return "", false
	}
	return rest[1 : len(rest)-1], true
}

func isIdentRune(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}

type parser struct {
	sc        *scanner.Scanner
	cur       token.Token
	loopDepth int
	procStack []bool // true while inside a func body, false inside a sub
}

func newParser(sc *scanner.Scanner) *parser {
	p := &parser{sc: sc}
	p.advance()
	return p
}

func (p *parser) advance() { p.cur = p.sc.Next() }

func (p *parser) match(t token.Type) bool {
	if p.cur.Type == t {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expect(t token.Type, what string) error {
	if p.cur.Type != t {
		return e.NewSyntax(p.cur.Offset, fmt.Sprintf("expected %s, got %s", what, p.cur))
	}
	p.advance()
	return nil
}

func (p *parser) errIfLexErr() error {
	if p.cur.Type == token.Err {
		return e.NewLexical(p.cur.Offset, p.cur.Str)
	}
	return nil
}

func (p *parser) syntaxErrorf(format string, a ...any) error {
	return e.NewSyntax(p.cur.Offset, fmt.Sprintf(format, a...))
}
