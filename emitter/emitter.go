// Package emitter implements evoscript's single-pass bytecode emitter: it
// walks a flat top-level statement sequence, maintains scoped symbol tables
// and a flat output byte vector, and patches jump targets in place.
//
// Grounded on original_source/esc/codegen.py's CodeGenerator.visit_* methods
// for every lowering rule (opcode choice, backpatch timing, call-frame
// layout), and on the teacher's jump-emission idiom (emitJump/patchJump in
// rami3l/golox vm/compiler.go), adapted to evoscript's absolute 9-byte
// addressing instead of golox's 2-byte relative offsets.
package emitter

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/evoscript-lang/evoscript/ast"
	"github.com/evoscript-lang/evoscript/bytecode"
	e "github.com/evoscript-lang/evoscript/errors"
	"github.com/evoscript-lang/evoscript/symtab"
	"github.com/evoscript-lang/evoscript/token"
	"github.com/evoscript-lang/evoscript/utils"
)

// valType is the emitter's static (comptime-best-effort) inference of an
// expression's runtime type, used only to choose ADD vs CONCAT for `+`
// (spec §4.3.3, "TermNode lowering"). It is not a type system: evoscript
// has no compile-time type checking beyond this one decision.
type valType int

const (
	tUnknown valType = iota
	tNumber
	tString
)

// Stats summarizes a compilation for diagnostic logging, mirroring
// esc/codegen.py's CodeGenerator.finalize STATS line.
type Stats struct {
	MaxScope   int
	MaxSymbols int
	MaxArrays  int
	MaxStrlen  int
}

// Emitter lowers a statement sequence into a bytecode.Chunk. One Emitter
// serves exactly one compilation unit; nothing is shared across instances
// (spec §5).
type Emitter struct {
	chunk     bytecode.Chunk
	symbols   *symtab.Table
	loopExits [][]int // stack of pending `exit`-jump patch addresses, one frame per loop nesting level

	maxArrays int
	maxStrlen int
}

func New() *Emitter {
	return &Emitter{symbols: symtab.New()}
}

// Chunk returns the accumulated byte vector.
func (em *Emitter) Chunk() *bytecode.Chunk { return &em.chunk }

// Stats reports high-water marks gathered during emission.
func (em *Emitter) Stats() Stats {
	return Stats{
		MaxScope:   em.symbols.MaxScope,
		MaxSymbols: em.symbols.MaxSymbols,
		MaxArrays:  em.maxArrays,
		MaxStrlen:  em.maxStrlen,
	}
}

// Emit lowers stmts in order. Every JZ/JMP/JMPFUN sentinel written during
// emission is backpatched before the corresponding construct returns, so by
// the time Emit returns successfully none remain outstanding.
func (em *Emitter) Emit(stmts []ast.Stmt) error {
	for _, s := range stmts {
		if err := em.emitStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (em *Emitter) emitStmt(s ast.Stmt) error {
	switch n := s.(type) {
	case *ast.Assignment:
		return em.emitAssignment(n)
	case *ast.If:
		return em.emitIf(n)
	case *ast.Loop:
		return em.emitLoop(n)
	case *ast.Exit:
		return em.emitExit()
	case *ast.ProcSub:
		return em.emitProc(n.Name, n.Args, n.Body)
	case *ast.ProcFunc:
		return em.emitProc(n.Name, n.Args, n.Body)
	case *ast.ProcSubReturn:
		return em.emitReturn(n)
	case *ast.Call:
		_, err := em.emitCall(n)
		return err
	case *ast.ExternApi:
		logrus.Debugf("emitter: extern func %s", n.Name.Str)
		em.symbols.DeclareExternal(n.Name.Str)
		return nil
	case *ast.Import:
		// The parser splices leading imports away before parsing, so an
		// Import node here is one splicing did not take; it emits nothing.
		return nil
	default:
		return e.Unreachable
	}
}

func (em *Emitter) emitBlock(stmts []ast.Stmt) error {
	for _, s := range stmts {
		if err := em.emitStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (em *Emitter) emitStore(scope, slot int) {
	if scope == symtab.Global {
		em.chunk.Emit(bytecode.PUSHG, float64(slot))
		return
	}
	em.chunk.Emit(bytecode.PUSHL, float64(slot))
}

func (em *Emitter) emitLoad(scope, slot int) {
	if scope == symtab.Global {
		em.chunk.Emit(bytecode.POPG, float64(slot))
		return
	}
	em.chunk.Emit(bytecode.POPL, float64(slot))
}

func (em *Emitter) emitAssignment(n *ast.Assignment) error {
	rt, err := em.emitExpr(n.Right)
	if err != nil {
		return err
	}

	if n.Left.Kind == ast.VArrayElement {
		return em.emitArrayWriteTarget(n.Left)
	}

	if !n.Modify {
		scope := em.symbols.Scope()
		slot := em.symbols.Insert(scope, symtab.Entry{
			Kind: symtab.VariableKind, Name: n.Left.Identifier,
			IsConst: n.IsConst, ValueType: int(rt),
		})
		logrus.Debugf("emitter: declare %s scope=%d slot=%d const=%d", n.Left.Identifier, scope, slot, utils.BoolToInt[int](n.IsConst))
		em.emitStore(scope, slot)
		return nil
	}

	entry, slot, foundScope, ok := em.symbols.Find(n.Left.Identifier, em.symbols.Scope())
	if !ok {
		return e.NewSemantic(n.Left.NameTok.Offset, fmt.Sprintf("unknown symbol %q", n.Left.Identifier))
	}
	if entry.IsConst {
		return e.NewSemantic(n.Left.NameTok.Offset, fmt.Sprintf("cannot modify const %q", n.Left.Identifier))
	}
	em.emitStore(foundScope, slot)
	return nil
}

func (em *Emitter) emitExpr(expr ast.Expr) (valType, error) {
	switch n := expr.(type) {
	case *ast.Value:
		return em.emitValue(n)
	case *ast.Unary:
		return em.emitUnary(n)
	case *ast.Term:
		return em.emitTerm(n)
	case *ast.Expression:
		return em.emitCompare(n)
	case *ast.Array:
		return em.emitArray(n)
	case *ast.Call:
		return em.emitCall(n)
	default:
		return tUnknown, e.Unreachable
	}
}

func (em *Emitter) emitValue(v *ast.Value) (valType, error) {
	switch v.Kind {
	case ast.VNumber:
		em.chunk.Emit(bytecode.PUSH, v.Num)
		return tNumber, nil
	case ast.VString:
		em.chunk.EmitString(v.Str)
		if l := len(v.Str); l > em.maxStrlen {
			em.maxStrlen = l
		}
		return tString, nil
	case ast.VIdent:
		entry, slot, foundScope, ok := em.symbols.Find(v.Identifier, em.symbols.Scope())
		if !ok {
			return tUnknown, e.NewSemantic(v.NameTok.Offset, fmt.Sprintf("unknown symbol %q", v.Identifier))
		}
		em.emitLoad(foundScope, slot)
		return valType(entry.ValueType), nil
	case ast.VArrayElement:
		return em.emitArrayRead(v)
	default:
		return tUnknown, e.Unreachable
	}
}

// emitIndex lowers an array subscript expression: a bare numeric literal
// becomes PUSHA (spec's open-question resolution — never PUSHA for an
// arbitrary expression); a bare identifier loads normally and is followed
// by PUSHAS to mark a dynamic subscript; anything else lowers by ordinary
// expression rules.
func (em *Emitter) emitIndex(index ast.Expr) error {
	if lit, ok := index.(*ast.Value); ok && lit.Kind == ast.VNumber {
		em.chunk.Emit(bytecode.PUSHA, lit.Num)
		return nil
	}
	if ident, ok := index.(*ast.Value); ok && ident.Kind == ast.VIdent {
		if _, err := em.emitValue(ident); err != nil {
			return err
		}
		em.chunk.EmitNullary(bytecode.PUSHAS)
		return nil
	}
	_, err := em.emitExpr(index)
	return err
}

func (em *Emitter) emitArrayRead(v *ast.Value) (valType, error) {
	if err := em.emitIndex(v.Index); err != nil {
		return tUnknown, err
	}
	_, slot, foundScope, ok := em.symbols.Find(v.Identifier, em.symbols.Scope())
	if !ok {
		return tUnknown, e.NewSemantic(v.NameTok.Offset, fmt.Sprintf("unknown symbol %q", v.Identifier))
	}
	em.emitLoad(foundScope, slot)
	return tUnknown, nil
}

func (em *Emitter) emitArrayWriteTarget(v *ast.Value) error {
	if err := em.emitIndex(v.Index); err != nil {
		return err
	}
	_, slot, foundScope, ok := em.symbols.Find(v.Identifier, em.symbols.Scope())
	if !ok {
		return e.NewSemantic(v.NameTok.Offset, fmt.Sprintf("unknown symbol %q", v.Identifier))
	}
	em.emitStore(foundScope, slot)
	return nil
}

func (em *Emitter) emitUnary(n *ast.Unary) (valType, error) {
	t, err := em.emitExpr(n.Operand)
	if err != nil {
		return tUnknown, err
	}
	switch n.Sign {
	case ast.Neg:
		em.chunk.EmitNullary(bytecode.NEG)
		return tNumber, nil
	case ast.LogNot:
		em.chunk.EmitNullary(bytecode.NOT)
		return tNumber, nil
	default: // ast.Plus: identity, no opcode needed
		return t, nil
	}
}

func (em *Emitter) emitTerm(n *ast.Term) (valType, error) {
	lt, err := em.emitExpr(n.Left)
	if err != nil {
		return tUnknown, err
	}
	rt, err := em.emitExpr(n.Right)
	if err != nil {
		return tUnknown, err
	}
	switch n.Op {
	case ast.Add:
		if lt == tNumber && rt == tNumber {
			em.chunk.EmitNullary(bytecode.ADD)
			return tNumber, nil
		}
		em.chunk.Emit(bytecode.CONCAT, 0) // concat_mode: reserved, always 0
		return tString, nil
	case ast.Sub:
		em.chunk.EmitNullary(bytecode.SUB)
	case ast.Mul:
		em.chunk.EmitNullary(bytecode.MUL)
	case ast.Div:
		em.chunk.EmitNullary(bytecode.DIV)
	case ast.ModOp:
		em.chunk.EmitNullary(bytecode.MOD)
	default:
		return tUnknown, e.Unreachable
	}
	return tNumber, nil
}

func (em *Emitter) emitCompare(n *ast.Expression) (valType, error) {
	if _, err := em.emitExpr(n.Left); err != nil {
		return tUnknown, err
	}
	if _, err := em.emitExpr(n.Right); err != nil {
		return tUnknown, err
	}
	var op bytecode.Op
	switch n.Op {
	case ast.Eq:
		op = bytecode.EQ
	case ast.Neq:
		op = bytecode.NOTEQ
	case ast.Lt:
		op = bytecode.LT
	case ast.LtEq:
		op = bytecode.LTEQ
	case ast.Gt:
		op = bytecode.GT
	case ast.GtEq:
		op = bytecode.GTEQ
	case ast.LogAnd:
		op = bytecode.AND
	case ast.LogOr:
		op = bytecode.OR
	default:
		return tUnknown, e.Unreachable
	}
	em.chunk.EmitNullary(op)
	return tNumber, nil
}

func (em *Emitter) emitArray(n *ast.Array) (valType, error) {
	for _, el := range n.Elements {
		if _, err := em.emitExpr(el); err != nil {
			return tUnknown, err
		}
	}
	em.chunk.Emit(bytecode.DATA, float64(len(n.Elements)))
	if len(n.Elements) > em.maxArrays {
		em.maxArrays = len(n.Elements)
	}
	return tUnknown, nil
}

// returnAddrOverhead is the byte distance from the start of the PUSH
// emitting a call's return address to the instruction following the
// JMPFUN, where execution resumes once the callee returns: the PUSH itself
// (9 bytes) plus the JMPFUN (9 bytes).
const returnAddrOverhead = 18

func (em *Emitter) emitCall(n *ast.Call) (valType, error) {
	name := n.Callee.Str
	switch name {
	case "print":
		return em.emitBuiltin(n, bytecode.PRINT)
	case "argtype":
		return em.emitBuiltin(n, bytecode.ARGTYPE)
	case "len":
		return em.emitBuiltin(n, bytecode.LEN)
	}

	if entry, _, _, ok := em.symbols.Find(name, symtab.Global); ok && entry.Kind == symtab.ProcedureKind {
		if len(n.Args) != entry.Argc {
			return tUnknown, e.NewSemantic(n.Callee.Offset,
				fmt.Sprintf("%s expects %d argument(s), got %d", name, entry.Argc, len(n.Args)))
		}
		for _, a := range n.Args {
			if _, err := em.emitExpr(a); err != nil {
				return tUnknown, err
			}
		}
		retAddr := float64(em.chunk.Len() + returnAddrOverhead)
		em.chunk.Emit(bytecode.PUSH, retAddr)
		em.chunk.Emit(bytecode.JMPFUN, float64(entry.Addr))
		return tUnknown, nil
	}

	if em.symbols.IsExternal(name) {
		for _, a := range n.Args {
			if _, err := em.emitExpr(a); err != nil {
				return tUnknown, err
			}
		}
		em.chunk.EmitString(name)
		em.chunk.Emit(bytecode.CALL, float64(len(n.Args)))
		return tUnknown, nil
	}

	return tUnknown, e.NewSemantic(n.Callee.Offset, fmt.Sprintf("unknown call target %q", name))
}

func (em *Emitter) emitBuiltin(n *ast.Call, op bytecode.Op) (valType, error) {
	if len(n.Args) != 1 {
		return tUnknown, e.NewSemantic(n.Callee.Offset,
			fmt.Sprintf("%s expects exactly 1 argument, got %d", n.Callee.Str, len(n.Args)))
	}
	if _, err := em.emitExpr(n.Args[0]); err != nil {
		return tUnknown, err
	}
	em.chunk.EmitNullary(op)
	return tUnknown, nil
}

// emitIf implements the if/elseif/else backpatch algorithm of spec
// §4.3.3: the then-body's trailing JMP is only emitted when a further
// branch follows; every elseif unconditionally gets its own JZ-guard and
// trailing JMP; each JZ is patched to fall through to the next branch (or
// past the whole construct, if it's the last branch); the else body (if
// any) needs no trailing jump of its own since nothing follows it.
func (em *Emitter) emitIf(n *ast.If) error {
	if _, err := em.emitExpr(n.Cond); err != nil {
		return err
	}
	jzThen := em.chunk.EmitJump(bytecode.JZ)
	if err := em.emitScopedBlock(n.Then); err != nil {
		return err
	}

	var endJumps []int
	if len(n.ElseIfs) > 0 || n.HasElse {
		endJumps = append(endJumps, em.chunk.EmitJump(bytecode.JMP))
	}
	em.chunk.Backpatch(jzThen, float64(em.chunk.Len()))

	for _, ei := range n.ElseIfs {
		if _, err := em.emitExpr(ei.Cond); err != nil {
			return err
		}
		jzElif := em.chunk.EmitJump(bytecode.JZ)
		if err := em.emitScopedBlock(ei.Body); err != nil {
			return err
		}
		endJumps = append(endJumps, em.chunk.EmitJump(bytecode.JMP))
		em.chunk.Backpatch(jzElif, float64(em.chunk.Len()))
	}

	if n.HasElse {
		if err := em.emitScopedBlock(n.Else); err != nil {
			return err
		}
	}

	end := float64(em.chunk.Len())
	for _, addr := range endJumps {
		em.chunk.Backpatch(addr, end)
	}
	return nil
}

// emitScopedBlock opens a nested block scope around stmts (spec §3: "Opening
// a nested block scope copies the parent scope's entries"), mirroring
// codegen.py's visit_IfNode/visit_LoopNode, which unconditionally open and
// close a scope around each if/loop body.
func (em *Emitter) emitScopedBlock(stmts []ast.Stmt) error {
	em.symbols.OpenScope()
	err := em.emitBlock(stmts)
	em.symbols.CloseScope()
	return err
}

// emitLoop lowers `repeat ... forever/until`. Both arms of this grammar are
// bottom-tested: the body runs once unconditionally, the condition is
// tested afterward, and JZ jumps back to the top while the condition is
// false (exiting once it becomes true) — the design choice documented in
// spec §4.3.3. The synthetic `forever` condition is always false, so the
// loop never falls through on its own; only `exit` can leave it.
func (em *Emitter) emitLoop(n *ast.Loop) error {
	em.loopExits = append(em.loopExits, nil)
	loopHead := em.chunk.Len()

	if err := em.emitScopedBlock(n.Body); err != nil {
		em.popLoopFrame()
		return err
	}
	if _, err := em.emitExpr(n.Cond); err != nil {
		em.popLoopFrame()
		return err
	}
	em.chunk.Emit(bytecode.JZ, float64(loopHead))

	end := float64(em.chunk.Len())
	for _, addr := range em.popLoopFrame() {
		em.chunk.Backpatch(addr, end)
	}
	return nil
}

func (em *Emitter) popLoopFrame() []int {
	top := em.loopExits[len(em.loopExits)-1]
	em.loopExits = em.loopExits[:len(em.loopExits)-1]
	return top
}

func (em *Emitter) emitExit() error {
	if len(em.loopExits) == 0 {
		return e.Unreachable // parser guarantees exit only appears inside a loop
	}
	addr := em.chunk.EmitJump(bytecode.JMP)
	top := len(em.loopExits) - 1
	em.loopExits[top] = append(em.loopExits[top], addr)
	return nil
}

// emitProc lowers `sub`/`func` declarations identically (spec §4.3.3,
// "Subroutines and functions"): guard jump, Procedure symbol registered in
// scope 0 before the body is visited (enabling recursion and forward
// reference), a fresh disjoint procedure-local scope, arguments stored in
// reverse pop order, then the body, then an implicit trailing JFS.
func (em *Emitter) emitProc(name *token.Token, args []token.Token, body []ast.Stmt) error {
	if _, _, _, ok := em.symbols.Find(name.Str, symtab.Global); ok {
		return e.NewSemantic(name.Offset, fmt.Sprintf("%q already declared", name.Str))
	}

	guard := em.chunk.EmitJump(bytecode.JMP)
	addr := em.chunk.Len()

	em.symbols.Insert(symtab.Global, symtab.Entry{
		Kind: symtab.ProcedureKind, Name: name.Str, Argc: len(args), Addr: addr,
	})

	procScope := em.symbols.OpenProcScope()
	prevScope := em.symbols.EnterScope(procScope)
	logrus.Debugf("emitter: entering proc %s scope=%d addr=%d", name.Str, procScope, addr)

	for i, a := range args {
		em.symbols.Insert(procScope, symtab.Entry{Kind: symtab.VariableKind, Name: a.Str})
		em.chunk.Emit(bytecode.PUSHL, float64(len(args)-i-1))
	}

	bodyErr := em.emitBlock(body)
	em.chunk.Emit(bytecode.JFS, 0)
	em.symbols.EnterScope(prevScope)
	if bodyErr != nil {
		return bodyErr
	}

	em.chunk.Backpatch(guard, float64(em.chunk.Len()))
	return nil
}

// emitReturn lowers `return [expr]`. A func's trailing expression leaves
// one value on the stack for the caller (JFS 1); a sub's return is always
// bare, and any expression written after it in a sub context never reaches
// here — the parser drops it (spec §8: "return expr inside sub is
// ignored").
func (em *Emitter) emitReturn(n *ast.ProcSubReturn) error {
	if n.RetArg == nil {
		em.chunk.Emit(bytecode.JFS, 0)
		return nil
	}
	if _, err := em.emitExpr(n.RetArg); err != nil {
		return err
	}
	em.chunk.Emit(bytecode.JFS, 1)
	return nil
}
