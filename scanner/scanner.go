// Package scanner turns cleaned evoscript source text into a stream of
// tokens, adapted from the teacher's rune-cursor scanner
// (vm/scanner.go in rami3l/golox) to evoscript's token set, number/string
// rules, and single-token lookahead requirement (§4.1 of the spec).
package scanner

import (
	"strconv"
	"strings"

	e "github.com/evoscript-lang/evoscript/errors"
	"github.com/evoscript-lang/evoscript/token"
)

// Scanner produces tokens on demand from a rune slice. It supports one
// token of lookahead via Peek, which scans without advancing the cursor.
type Scanner struct {
	src    []rune
	curr   int
	peeked *token.Token
}

func New(src string) *Scanner {
	return &Scanner{src: []rune(src)}
}

// Next returns and consumes the next token.
func (s *Scanner) Next() token.Token {
	if s.peeked != nil {
		tok := *s.peeked
		s.peeked = nil
		return tok
	}
	return s.scan()
}

// Peek returns the next token without consuming it.
func (s *Scanner) Peek() token.Token {
	if s.peeked == nil {
		tok := s.scan()
		s.peeked = &tok
	}
	return *s.peeked
}

func (s *Scanner) isAtEnd() bool { return s.curr >= len(s.src) }

func (s *Scanner) advance() (r rune) {
	r = s.src[s.curr]
	s.curr++
	return
}

func (s *Scanner) peekRune() rune {
	if s.isAtEnd() {
		return 0
	}
	return s.src[s.curr]
}

func (s *Scanner) peekNextRune() rune {
	if s.curr+1 >= len(s.src) {
		return 0
	}
	return s.src[s.curr+1]
}

func (s *Scanner) match(expected rune) bool {
	if s.peekRune() != expected {
		return false
	}
	s.curr++
	return true
}

func (s *Scanner) skipWhitespaceAndComments() {
	for {
		switch c := s.peekRune(); {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			s.advance()
		case c == '#':
			for !s.isAtEnd() && s.peekRune() != '\n' {
				s.advance()
			}
		default:
			return
		}
	}
}

func isDigit(c rune) bool { return c >= '0' && c <= '9' }
func isHexDigit(c rune) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
func isAlpha(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func (s *Scanner) errToken(offset int, reason string) token.Token {
	return token.Token{Type: token.Err, Offset: offset, Str: reason}
}

func (s *Scanner) scan() token.Token {
	s.skipWhitespaceAndComments()
	start := s.curr
	if s.isAtEnd() {
		return token.Token{Type: token.EOF, Offset: start}
	}

	c := s.advance()

	switch {
	case c == '0' && (s.peekRune() == 'x' || s.peekRune() == 'X'):
		return s.scanHex(start)
	case isDigit(c) || c == '.':
		s.curr = start
		return s.scanNumber(start)
	case isAlpha(c):
		s.curr = start
		return s.scanIdentOrKeyword(start)
	case c == '"':
		s.curr = start
		return s.scanString(start)
	}

	switch c {
	case '(':
		return token.Token{Type: token.LParen, Offset: start}
	case ')':
		return token.Token{Type: token.RParen, Offset: start}
	case '[':
		return token.Token{Type: token.LBracket, Offset: start}
	case ']':
		return token.Token{Type: token.RBracket, Offset: start}
	case ',':
		return token.Token{Type: token.Comma, Offset: start}
	case '+':
		return token.Token{Type: token.Plus, Offset: start}
	case '-':
		return token.Token{Type: token.Minus, Offset: start}
	case '*':
		return token.Token{Type: token.Star, Offset: start}
	case '/':
		return token.Token{Type: token.Slash, Offset: start}
	case '%':
		return token.Token{Type: token.Percent, Offset: start}
	case '!':
		return token.Token{Type: token.Bang, Offset: start}
	case '=':
		return token.Token{Type: token.Equal, Offset: start}
	case '<':
		if s.match('=') {
			return token.Token{Type: token.LessEqual, Offset: start}
		}
		if s.match('>') {
			return token.Token{Type: token.NotEqual, Offset: start}
		}
		return token.Token{Type: token.Less, Offset: start}
	case '>':
		if s.match('=') {
			return token.Token{Type: token.GreaterEqual, Offset: start}
		}
		return token.Token{Type: token.Greater, Offset: start}
	}

	return s.errToken(start, "unexpected character '"+string(c)+"'")
}

// scanHex consumes a 0x-prefixed hex integer literal, folding it into the
// same Number token kind as decimal literals (spec §4.1: "the test suite
// also expects 0x-prefixed hex integer literals").
func (s *Scanner) scanHex(start int) token.Token {
	s.advance() // consume 'x'/'X'
	digitsStart := s.curr
	for isHexDigit(s.peekRune()) {
		s.advance()
	}
	if s.curr == digitsStart {
		return s.errToken(start, "malformed hex literal")
	}
	n, err := strconv.ParseUint(string(s.src[digitsStart:s.curr]), 16, 64)
	if err != nil {
		return s.errToken(start, "malformed hex literal")
	}
	return token.Token{Type: token.Number, Offset: start, Num: float64(n)}
}

func (s *Scanner) scanNumber(start int) token.Token {
	var b strings.Builder
	dotSeen := false
loop:
	for {
		switch c := s.peekRune(); {
		case isDigit(c):
			b.WriteRune(c)
			s.advance()
		case c == '.':
			if dotSeen {
				return s.errToken(start, "malformed number literal (multiple '.')")
			}
			dotSeen = true
			b.WriteRune(c)
			s.advance()
		default:
			break loop
		}
	}
	lit := b.String()
	if lit == "" || lit == "." {
		return s.errToken(start, "malformed number literal")
	}
	if lit[0] == '.' {
		lit = "0" + lit
	}
	if lit[len(lit)-1] == '.' {
		lit += "0"
	}
	val, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return s.errToken(start, "malformed number literal")
	}
	return token.Token{Type: token.Number, Offset: start, Num: val}
}

func (s *Scanner) scanString(start int) token.Token {
	s.advance() // consume opening quote
	var b strings.Builder
	for {
		if s.isAtEnd() {
			return s.errToken(start, "unterminated string")
		}
		c := s.advance()
		if c == '"' {
			return token.Token{Type: token.String, Offset: start, Str: b.String()}
		}
		b.WriteRune(c)
	}
}

func (s *Scanner) scanIdentOrKeyword(start int) token.Token {
	var b strings.Builder
	for {
		c := s.peekRune()
		if isAlpha(c) || isDigit(c) {
			b.WriteRune(c)
			s.advance()
			continue
		}
		break
	}
	name := b.String()
	ty := token.Lookup(name)
	if ty == token.Ident {
		return token.Token{Type: token.Ident, Offset: start, Str: name}
	}
	return token.Token{Type: ty, Offset: start}
}

// Offset reports the scanner's current cursor position, used for
// end-of-input diagnostics (mirroring the teacher's Scanner.Error helper).
func (s *Scanner) Offset() int { return s.curr }

// Error builds a CompilationError rooted at the scanner's current offset.
func (s *Scanner) Error(reason string) *e.CompilationError {
	return e.NewLexical(s.Offset(), reason)
}
