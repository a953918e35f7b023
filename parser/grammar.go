package parser

import (
	"golang.org/x/exp/slices"

	"github.com/evoscript-lang/evoscript/ast"
	e "github.com/evoscript-lang/evoscript/errors"
	"github.com/evoscript-lang/evoscript/token"
	"github.com/evoscript-lang/evoscript/utils"
)

func (p *parser) parseStatement() (ast.Stmt, error) {
	if err := p.errIfLexErr(); err != nil {
		return nil, err
	}
	switch p.cur.Type {
	case token.Import:
		return p.parseImport()
	case token.Let:
		return p.parseAssign()
	case token.If:
		return p.parseIf()
	case token.Repeat:
		return p.parseLoop()
	case token.Exit:
		return p.parseExit()
	case token.Sub:
		return p.parseProc(false)
	case token.Func:
		return p.parseProc(true)
	case token.Return:
		return p.parseReturn()
	case token.Extern:
		return p.parseExternApi()
	case token.Ident:
		return p.parseIdentStatement()
	default:
		return nil, p.syntaxErrorf("unexpected token %s", p.cur)
	}
}

// parseBlock parses statements until the current token is one of end, which
// is left unconsumed for the caller.
func (p *parser) parseBlock(end ...token.Type) ([]ast.Stmt, error) {
	var stmts []ast.Stmt
	for {
		if err := p.errIfLexErr(); err != nil {
			return nil, err
		}
		if p.cur.Type == token.EOF {
			return nil, p.syntaxErrorf("unexpected end of input, expected %s", end[0])
		}
		for _, t := range end {
			if p.cur.Type == t {
				return stmts, nil
			}
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
}

func (p *parser) parseImport() (ast.Stmt, error) {
	p.advance() // 'import'
	if p.cur.Type != token.String {
		return nil, p.syntaxErrorf("expected string path after 'import', got %s", p.cur)
	}
	path := p.cur.Str
	p.advance()
	return &ast.Import{Path: path}, nil
}

func (p *parser) parseAssign() (ast.Stmt, error) {
	p.advance() // 'let'
	if p.cur.Type != token.Ident {
		return nil, p.syntaxErrorf("expected identifier after 'let', got %s", p.cur)
	}
	nameTok := p.cur
	p.advance()
	if err := p.expect(token.Equal, "'='"); err != nil {
		return nil, err
	}

	var right ast.Expr
	var err error
	if p.cur.Type == token.LBracket {
		right, err = p.parseArray()
	} else {
		right, err = p.parseExpression()
	}
	if err != nil {
		return nil, err
	}

	isConst := p.match(token.Const)
	left := &ast.Value{Kind: ast.VIdent, Identifier: nameTok.Str, NameTok: nameTok}
	return &ast.Assignment{Left: left, Right: right, Modify: false, IsConst: isConst}, nil
}

// parseIdentStatement disambiguates call_stmt from reassign (both of which
// start with an identifier at statement position).
func (p *parser) parseIdentStatement() (ast.Stmt, error) {
	nameTok := p.cur
	p.advance()

	switch p.cur.Type {
	case token.LParen:
		args, err := p.parseCallArgs()
		if err != nil {
			return nil, err
		}
		return &ast.Call{Callee: nameTok, Args: args}, nil

	case token.LBracket:
		p.advance()
		idx, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.RBracket, "']'"); err != nil {
			return nil, err
		}
		if err := p.expect(token.Equal, "'='"); err != nil {
			return nil, err
		}
		right, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		left := &ast.Value{Kind: ast.VArrayElement, Identifier: nameTok.Str, Index: idx, NameTok: nameTok}
		return &ast.Assignment{Left: left, Right: right, Modify: true}, nil

	case token.Equal:
		p.advance()
		right, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		left := &ast.Value{Kind: ast.VIdent, Identifier: nameTok.Str, NameTok: nameTok}
		return &ast.Assignment{Left: left, Right: right, Modify: true}, nil

	default:
		return nil, p.syntaxErrorf("expected '(', '[' or '=' after identifier %q, got %s", nameTok.Str, p.cur)
	}
}

// parseCallArgs consumes "(" [expr {"," expr}] ")", having already seen the
// identifier; the opening paren is current on entry.
func (p *parser) parseCallArgs() ([]ast.Expr, error) {
	p.advance() // '('
	if p.match(token.RParen) {
		return nil, nil
	}
	var args []ast.Expr
	for {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.match(token.Comma) {
			continue
		}
		break
	}
	if err := p.expect(token.RParen, "')'"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *parser) parseIf() (ast.Stmt, error) {
	p.advance() // 'if'
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.Then, "'then'"); err != nil {
		return nil, err
	}
	thenBody, err := p.parseBlock(token.ElseIf, token.Else, token.EndIf)
	if err != nil {
		return nil, err
	}

	var elseIfs []ast.ElseIf
	for p.cur.Type == token.ElseIf {
		p.advance()
		c, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.Then, "'then'"); err != nil {
			return nil, err
		}
		body, err := p.parseBlock(token.ElseIf, token.Else, token.EndIf)
		if err != nil {
			return nil, err
		}
		elseIfs = append(elseIfs, ast.ElseIf{Cond: c, Body: body})
	}

	hasElse := false
	var elseBody []ast.Stmt
	if p.cur.Type == token.Else {
		p.advance()
		hasElse = true
		elseBody, err = p.parseBlock(token.EndIf)
		if err != nil {
			return nil, err
		}
	}

	if err := p.expect(token.EndIf, "'endif'"); err != nil {
		return nil, err
	}
	return &ast.If{Cond: cond, Then: thenBody, ElseIfs: elseIfs, Else: elseBody, HasElse: hasElse}, nil
}

// parseLoop parses `repeat {statement} (forever | until expr)`. Both arms
// are bottom-tested in this grammar — the condition always comes after the
// body — so CondPos is always Bottom here; Top exists in ast.Loop only for
// data-model fidelity with constructs this concrete grammar never produces.
func (p *parser) parseLoop() (ast.Stmt, error) {
	p.advance() // 'repeat'
	p.loopDepth++
	body, bodyErr := p.parseBlock(token.Forever, token.Until)
	if bodyErr != nil {
		p.loopDepth--
		return nil, bodyErr
	}

	var cond ast.Expr
	switch p.cur.Type {
	case token.Forever:
		p.advance()
		// Synthetic always-false condition: combined with the bottom-tested
		// "continue while false" rule this makes the loop run forever.
		one := &ast.Value{Kind: ast.VNumber, Num: 1}
		other := &ast.Value{Kind: ast.VNumber, Num: 1}
		cond = &ast.Expression{Left: one, Right: other, Op: ast.Neq}
	case token.Until:
		p.advance()
		c, err := p.parseExpression()
		if err != nil {
			p.loopDepth--
			return nil, err
		}
		cond = c
	default:
		p.loopDepth--
		return nil, p.syntaxErrorf("expected 'forever' or 'until', got %s", p.cur)
	}

	p.loopDepth--
	return &ast.Loop{Cond: cond, Body: body, CondPos: ast.Bottom}, nil
}

func (p *parser) parseExit() (ast.Stmt, error) {
	offset := p.cur.Offset
	p.advance() // 'exit'
	if p.loopDepth == 0 {
		return nil, e.NewSyntax(offset, "'exit' outside of a loop")
	}
	return &ast.Exit{}, nil
}

// parseProc parses `sub NAME [(args)] {statement} endsub` and, for isFunc,
// the identical `func ... endfunc` shape.
func (p *parser) parseProc(isFunc bool) (ast.Stmt, error) {
	p.advance() // 'sub' / 'func'
	if p.cur.Type != token.Ident {
		return nil, p.syntaxErrorf("expected identifier after procedure keyword, got %s", p.cur)
	}
	nameTok := utils.Box(p.cur)
	p.advance()

	args, err := p.parseProcArgs()
	if err != nil {
		return nil, err
	}

	p.procStack = append(p.procStack, isFunc)
	end := token.EndSub
	if isFunc {
		end = token.EndFunc
	}
	body, err := p.parseBlock(end)
	p.procStack = p.procStack[:len(p.procStack)-1]
	if err != nil {
		return nil, err
	}
	if err := p.expect(end, "'"+end.String()+"'"); err != nil {
		return nil, err
	}

	if isFunc {
		return &ast.ProcFunc{Name: nameTok, Args: args, Body: body}, nil
	}
	return &ast.ProcSub{Name: nameTok, Args: args, Body: body}, nil
}

// parseProcArgs parses an optional "(" [IDENT {"," IDENT}] ")"; omitted
// parens mean zero arguments.
func (p *parser) parseProcArgs() ([]token.Token, error) {
	if p.cur.Type != token.LParen {
		return nil, nil
	}
	p.advance()
	if p.match(token.RParen) {
		return nil, nil
	}
	var args []token.Token
	for {
		if p.cur.Type != token.Ident {
			return nil, p.syntaxErrorf("expected parameter name, got %s", p.cur)
		}
		args = append(args, p.cur)
		p.advance()
		if p.match(token.Comma) {
			continue
		}
		break
	}
	if err := p.expect(token.RParen, "')'"); err != nil {
		return nil, err
	}
	return args, nil
}

// parseReturn parses `return [expr]`. An expression following `return` is
// parsed in any context but kept only inside a func body; inside a sub (or
// at top level) it is dropped and a bare `return` is produced.
func (p *parser) parseReturn() (ast.Stmt, error) {
	p.advance() // 'return'
	inFunc := len(p.procStack) > 0 && p.procStack[len(p.procStack)-1]
	var ret ast.Expr
	if p.startsExpr() {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if inFunc {
			ret = expr
		}
	}
	return &ast.ProcSubReturn{RetArg: ret}, nil
}

// exprStartTokens are the token kinds that can open an expression; used to
// decide whether a func's bare `return` is followed by a value.
var exprStartTokens = []token.Type{
	token.Number, token.String, token.Ident, token.LParen, token.Plus, token.Minus, token.Bang,
}

func (p *parser) startsExpr() bool {
	return slices.Contains(exprStartTokens, p.cur.Type)
}

func (p *parser) parseExternApi() (ast.Stmt, error) {
	p.advance() // 'extern'
	if err := p.expect(token.Func, "'func'"); err != nil {
		return nil, err
	}
	if p.cur.Type != token.Ident {
		return nil, p.syntaxErrorf("expected identifier after 'extern func', got %s", p.cur)
	}
	nameTok := p.cur
	p.advance()
	return &ast.ExternApi{Name: nameTok}, nil
}

func (p *parser) parseArray() (ast.Expr, error) {
	p.advance() // '['
	if p.match(token.RBracket) {
		return &ast.Array{}, nil
	}
	var elems []ast.Expr
	for {
		el, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		elems = append(elems, el)
		if p.match(token.Comma) {
			continue
		}
		break
	}
	if err := p.expect(token.RBracket, "']'"); err != nil {
		return nil, err
	}
	return &ast.Array{Elements: elems}, nil
}

// Precedence chain (low to high): or, and, compare, add/sub, mod, mul/div,
// unary. Per spec §4.2 each combinator recurses into itself on the right
// rather than into the next tier, producing right-associative grouping;
// this mirrors original_source/esc/parser.py exactly.

func (p *parser) parseExpression() (ast.Expr, error) {
	left, err := p.parseAndExpr()
	if err != nil {
		return nil, err
	}
	if p.match(token.Or) {
		right, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &ast.Expression{Left: left, Right: right, Op: ast.LogOr}, nil
	}
	return left, nil
}

func (p *parser) parseAndExpr() (ast.Expr, error) {
	left, err := p.parseNotExpr()
	if err != nil {
		return nil, err
	}
	if p.match(token.And) {
		right, err := p.parseAndExpr()
		if err != nil {
			return nil, err
		}
		return &ast.Expression{Left: left, Right: right, Op: ast.LogAnd}, nil
	}
	return left, nil
}

// parseNotExpr has no dedicated production: `not` is reserved but unary
// negation is expressed with `!`, handled in parseNegateExpr (spec open
// question: both route to the same NOT opcode).
func (p *parser) parseNotExpr() (ast.Expr, error) {
	return p.parseCompareExpr()
}

func (p *parser) parseCompareExpr() (ast.Expr, error) {
	left, err := p.parseAddExpr()
	if err != nil {
		return nil, err
	}
	var op ast.CompareOp
	switch p.cur.Type {
	case token.Equal:
		op = ast.Eq
	case token.NotEqual:
		op = ast.Neq
	case token.Less:
		op = ast.Lt
	case token.LessEqual:
		op = ast.LtEq
	case token.Greater:
		op = ast.Gt
	case token.GreaterEqual:
		op = ast.GtEq
	default:
		return left, nil
	}
	p.advance()
	right, err := p.parseCompareExpr()
	if err != nil {
		return nil, err
	}
	return &ast.Expression{Left: left, Right: right, Op: op}, nil
}

func (p *parser) parseAddExpr() (ast.Expr, error) {
	left, err := p.parseModExpr()
	if err != nil {
		return nil, err
	}
	var op ast.TermOp
	switch p.cur.Type {
	case token.Plus:
		op = ast.Add
	case token.Minus:
		op = ast.Sub
	default:
		return left, nil
	}
	p.advance()
	right, err := p.parseAddExpr()
	if err != nil {
		return nil, err
	}
	return &ast.Term{Left: left, Right: right, Op: op}, nil
}

func (p *parser) parseModExpr() (ast.Expr, error) {
	left, err := p.parseMultExpr()
	if err != nil {
		return nil, err
	}
	if p.match(token.Percent) {
		right, err := p.parseModExpr()
		if err != nil {
			return nil, err
		}
		return &ast.Term{Left: left, Right: right, Op: ast.ModOp}, nil
	}
	return left, nil
}

func (p *parser) parseMultExpr() (ast.Expr, error) {
	left, err := p.parseNegateExpr()
	if err != nil {
		return nil, err
	}
	var op ast.TermOp
	switch p.cur.Type {
	case token.Star:
		op = ast.Mul
	case token.Slash:
		op = ast.Div
	default:
		return left, nil
	}
	p.advance()
	right, err := p.parseMultExpr()
	if err != nil {
		return nil, err
	}
	return &ast.Term{Left: left, Right: right, Op: op}, nil
}

// parseNegateExpr folds a `+` or `-` applied directly to a numeric literal
// into a single (negated) Value at parse time; `!`, or a sign applied to
// anything else, produces a Unary node.
func (p *parser) parseNegateExpr() (ast.Expr, error) {
	var sign ast.Sign
	hasSign := true
	switch p.cur.Type {
	case token.Plus:
		sign = ast.Plus
	case token.Minus:
		sign = ast.Neg
	case token.Bang:
		sign = ast.LogNot
	default:
		hasSign = false
	}
	if hasSign {
		p.advance()
	}

	if hasSign && sign != ast.LogNot && p.cur.Type == token.Number {
		n := p.cur.Num
		if sign == ast.Neg {
			n = -n
		}
		p.advance()
		return &ast.Value{Kind: ast.VNumber, Num: n}, nil
	}

	operand, err := p.parseSubExpr()
	if err != nil {
		return nil, err
	}
	if !hasSign {
		return operand, nil
	}
	return &ast.Unary{Operand: operand, Sign: sign}, nil
}

func (p *parser) parseSubExpr() (ast.Expr, error) {
	if p.match(token.LParen) {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.RParen, "')'"); err != nil {
			return nil, err
		}
		return expr, nil
	}
	return p.parseValue()
}

// parseValue parses a NUMBER, STRING, or IDENT leaf; an IDENT may be
// followed by a call's "(" or an array subscript's "[".
func (p *parser) parseValue() (ast.Expr, error) {
	if err := p.errIfLexErr(); err != nil {
		return nil, err
	}
	switch p.cur.Type {
	case token.Number:
		v := p.cur.Num
		p.advance()
		return &ast.Value{Kind: ast.VNumber, Num: v}, nil

	case token.String:
		s := p.cur.Str
		p.advance()
		return &ast.Value{Kind: ast.VString, Str: s}, nil

	case token.Ident:
		nameTok := p.cur
		p.advance()
		switch {
		case p.cur.Type == token.LParen:
			args, err := p.parseCallArgs()
			if err != nil {
				return nil, err
			}
			return &ast.Call{Callee: nameTok, Args: args}, nil
		case p.cur.Type == token.LBracket:
			p.advance()
			idx, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if err := p.expect(token.RBracket, "']'"); err != nil {
				return nil, err
			}
			return &ast.Value{Kind: ast.VArrayElement, Identifier: nameTok.Str, Index: idx, NameTok: nameTok}, nil
		default:
			return &ast.Value{Kind: ast.VIdent, Identifier: nameTok.Str, NameTok: nameTok}, nil
		}

	default:
		return nil, p.syntaxErrorf("expected an expression, got %s", p.cur)
	}
}
