// Package token defines the lexical tokens of evoscript.
package token

import "fmt"

type Type int

const (
	EOF Type = iota
	Err

	Number
	String
	Ident

	Plus
	Minus
	Star
	Slash
	Percent
	Equal
	Bang

	LParen
	RParen
	LBracket
	RBracket
	Comma

	Less
	LessEqual
	Greater
	GreaterEqual
	NotEqual

	If
	Then
	Else
	ElseIf
	EndIf

	Let
	Const

	Repeat
	Forever
	Exit
	Until

	Not
	And
	Or

	Sub
	EndSub
	Return

	Func
	EndFunc

	Extern

	Import

	Mod
)

// keywords maps reserved words to their token kind, used by the scanner's
// identifier-or-keyword classification.
var keywords = map[string]Type{
	"if":      If,
	"then":    Then,
	"else":    Else,
	"elseif":  ElseIf,
	"endif":   EndIf,
	"let":     Let,
	"repeat":  Repeat,
	"forever": Forever,
	"until":   Until,
	"exit":    Exit,
	"and":     And,
	"or":      Or,
	"sub":     Sub,
	"endsub":  EndSub,
	"return":  Return,
	"func":    Func,
	"endfunc": EndFunc,
	"extern":  Extern,
	"import":  Import,
	"const":   Const,
	"mod":     Mod,
	"not":     Not,
}

// Lookup returns the keyword token type for name, or Ident if name is not a
// reserved word.
func Lookup(name string) Type {
	if ty, ok := keywords[name]; ok {
		return ty
	}
	return Ident
}

var typeNames = map[Type]string{
	EOF: "EOF", Err: "Err", Number: "Number", String: "String", Ident: "Ident",
	Plus: "+", Minus: "-", Star: "*", Slash: "/", Percent: "%", Equal: "=", Bang: "!",
	LParen: "(", RParen: ")", LBracket: "[", RBracket: "]", Comma: ",",
	Less: "<", LessEqual: "<=", Greater: ">", GreaterEqual: ">=", NotEqual: "<>",
	If: "if", Then: "then", Else: "else", ElseIf: "elseif", EndIf: "endif",
	Let: "let", Const: "const", Repeat: "repeat", Forever: "forever", Exit: "exit", Until: "until",
	Not: "not", And: "and", Or: "or", Sub: "sub", EndSub: "endsub", Return: "return",
	Func: "func", EndFunc: "endfunc", Extern: "extern", Import: "import", Mod: "mod",
}

// String implements fmt.Stringer; it is handwritten rather than
// go:generate'd so the package builds without running `stringer` first.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Token is a single lexical unit: a kind, an optional literal value, and the
// character offset at which it starts (used for diagnostics).
type Token struct {
	Type   Type
	Offset int
	// Num is populated when Type == Number.
	Num float64
	// Str is populated when Type == String or Ident (or Err, carrying the
	// error message).
	Str string
}

func (t Token) String() string {
	switch t.Type {
	case Number:
		return fmt.Sprintf("%g", t.Num)
	case String, Ident, Err:
		return t.Str
	default:
		return t.Type.String()
	}
}
