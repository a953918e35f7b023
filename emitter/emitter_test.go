package emitter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evoscript-lang/evoscript/bytecode"
	"github.com/evoscript-lang/evoscript/emitter"
	"github.com/evoscript-lang/evoscript/parser"
)

type noImports struct{}

func (noImports) Resolve(path string) (string, error) { return "", nil }

func compile(t *testing.T, src string) []bytecode.Instr {
	t.Helper()
	stmts, err := parser.Parse(parser.Clean(src), noImports{})
	require.NoError(t, err)

	em := emitter.New()
	require.NoError(t, em.Emit(stmts))
	return bytecode.Decode(em.Chunk().Code)
}

func opSeq(instrs []bytecode.Instr) []bytecode.Op {
	ops := make([]bytecode.Op, len(instrs))
	for i, in := range instrs {
		ops[i] = in.Op
	}
	return ops
}

// Scenario 1 (spec §8): three successive `let` declarations chaining
// arithmetic and variable references.
func TestLetChainArithmetic(t *testing.T) {
	instrs := compile(t, "let a = 3 * 42\nlet b = 9 + a\nlet c = a + b")

	want := []bytecode.Op{
		bytecode.PUSH, bytecode.PUSH, bytecode.MUL, bytecode.PUSHG,
		bytecode.PUSH, bytecode.POPG, bytecode.ADD, bytecode.PUSHG,
		bytecode.POPG, bytecode.POPG, bytecode.ADD, bytecode.PUSHG,
	}
	require.Equal(t, want, opSeq(instrs))

	assert.Equal(t, float64(3), instrs[0].Arg)
	assert.Equal(t, float64(42), instrs[1].Arg)
	assert.Equal(t, float64(0), instrs[3].Arg) // PUSHG 0 (a)
	assert.Equal(t, float64(9), instrs[4].Arg)
	assert.Equal(t, float64(0), instrs[5].Arg) // POPG 0 (a)
	assert.Equal(t, float64(1), instrs[7].Arg) // PUSHG 1 (b)
	assert.Equal(t, float64(0), instrs[8].Arg) // POPG 0 (a)
	assert.Equal(t, float64(1), instrs[9].Arg) // POPG 1 (b)
	assert.Equal(t, float64(2), instrs[11].Arg) // PUSHG 2 (c)
}

// Scenario 6 (spec §8): calling a declared-external function.
func TestExternCallEmitsPushsAndCall(t *testing.T) {
	instrs := compile(t, "extern func foo\nfoo(1,2)")

	want := []bytecode.Op{bytecode.PUSH, bytecode.PUSH, bytecode.PUSHS, bytecode.CALL}
	require.Equal(t, want, opSeq(instrs))
	assert.Equal(t, float64(1), instrs[0].Arg)
	assert.Equal(t, float64(2), instrs[1].Arg)
	assert.Equal(t, "foo", instrs[2].Str)
	assert.Equal(t, float64(2), instrs[3].Arg)
}

func TestEmptySourceProducesEmptyOutput(t *testing.T) {
	instrs := compile(t, "")
	assert.Empty(t, instrs)
}

func TestStringAdditionEmitsConcat(t *testing.T) {
	instrs := compile(t, `let a = "x" + "y"`)
	ops := opSeq(instrs)
	assert.Contains(t, ops, bytecode.CONCAT)
	assert.NotContains(t, ops, bytecode.ADD)
}

func TestNumericAdditionEmitsAdd(t *testing.T) {
	instrs := compile(t, "let a = 1 + 2")
	ops := opSeq(instrs)
	assert.Contains(t, ops, bytecode.ADD)
	assert.NotContains(t, ops, bytecode.CONCAT)
}

func TestReassignConstIsRejected(t *testing.T) {
	_, err := compileErr(t, "let a = 1 const\na = 2")
	assert.Error(t, err)
}

func TestReassignUnknownSymbolIsRejected(t *testing.T) {
	_, err := compileErr(t, "a = 2")
	assert.Error(t, err)
}

func compileErr(t *testing.T, src string) ([]bytecode.Instr, error) {
	t.Helper()
	stmts, err := parser.Parse(parser.Clean(src), noImports{})
	require.NoError(t, err)
	em := emitter.New()
	err = em.Emit(stmts)
	return bytecode.Decode(em.Chunk().Code), err
}

// A recursive func call, tracing scenario 2's shape without depending on a
// VM: the call site emits a return-address PUSH immediately followed by
// JMPFUN, and the guard JMP at the top skips over the compiled body.
func TestRecursiveFuncCallFrame(t *testing.T) {
	instrs := compile(t, "func fact(n)\n\tif n <= 1 then\n\t\treturn 1\n\telse\n\t\treturn n * fact(n-1)\n\tendif\nendfunc\nfact(10)")

	require.NotEmpty(t, instrs)
	assert.Equal(t, bytecode.JMP, instrs[0].Op, "emitProc must start with a guard jump over the body")

	var sawPushThenJmpfun bool
	for i := 0; i+1 < len(instrs); i++ {
		if instrs[i].Op == bytecode.PUSH && instrs[i+1].Op == bytecode.JMPFUN {
			sawPushThenJmpfun = true
			break
		}
	}
	assert.True(t, sawPushThenJmpfun, "a call site must push its return address immediately before JMPFUN")
}

func TestArrayLiteralEmitsData(t *testing.T) {
	instrs := compile(t, "let i = [1, 1+1, 3, 42.69]")
	ops := opSeq(instrs)
	assert.Contains(t, ops, bytecode.DATA)
	last := instrs[len(instrs)-1]
	assert.Equal(t, bytecode.PUSHG, last.Op)
}

func TestIfElseIfElseBacktpatchesToEnd(t *testing.T) {
	instrs := compile(t, "let a = 42\nif a = 42 then\n\tprint(\"a is 42\")\nelseif a = 43 then\n\tprint(\"a is 43\")\nelse\n\tprint(\"else\")\nendif")
	ops := opSeq(instrs)
	assert.Contains(t, ops, bytecode.JZ)
	assert.Contains(t, ops, bytecode.JMP)
	assert.Contains(t, ops, bytecode.PRINT)

	// The then-branch and elseif-branch trailing JMPs both land just past the
	// else body's closing PRINT, i.e. at the end of the emitted code.
	last := instrs[len(instrs)-1]
	require.Equal(t, bytecode.PRINT, last.Op)
	end := float64(last.Addr + 1)
	var jmps int
	for _, in := range instrs {
		if in.Op == bytecode.JMP {
			jmps++
			assert.Equal(t, end, in.Arg)
		}
	}
	assert.Equal(t, 2, jmps)
}

func TestLoopWithExitBackpatchesToAfterLoop(t *testing.T) {
	instrs := compile(t, "let a = 0\nrepeat\n\ta = a + 1\n\tprint(\"a: \" + a)\n\tif a = 3 then\n\t\texit\n\tendif\nforever")
	ops := opSeq(instrs)
	assert.Contains(t, ops, bytecode.JMP) // the synthesized `exit`
	assert.Contains(t, ops, bytecode.JZ)  // the loop's own backward test

	// The closing JZ jumps back to the first body instruction (after the two
	// instructions of `let a = 0`), and the exit JMP lands just past that JZ.
	last := instrs[len(instrs)-1]
	require.Equal(t, bytecode.JZ, last.Op)
	assert.Equal(t, float64(instrs[2].Addr), last.Arg)
	end := float64(last.Addr + bytecode.InstrWidth)
	for _, in := range instrs {
		if in.Op == bytecode.JMP {
			assert.Equal(t, end, in.Arg)
		}
	}
}

// A `let` declared inside an if-body is block-scoped: it must land in a
// nested scope (PUSHL), never leak into Global (PUSHG).
func TestLetInsideIfBodyIsBlockScoped(t *testing.T) {
	instrs := compile(t, "if 1 then\n\tlet a = 5\nendif")
	ops := opSeq(instrs)
	assert.Contains(t, ops, bytecode.PUSHL)
	assert.NotContains(t, ops, bytecode.PUSHG)
}

// Likewise for a `let` declared inside a loop body.
func TestLetInsideLoopBodyIsBlockScoped(t *testing.T) {
	instrs := compile(t, "repeat\n\tlet a = 5\n\texit\nforever")
	ops := opSeq(instrs)
	assert.Contains(t, ops, bytecode.PUSHL)
	assert.NotContains(t, ops, bytecode.PUSHG)
}

func TestDuplicateProcDeclarationIsRejected(t *testing.T) {
	_, err := compileErr(t, "sub foo()\nendsub\nsub foo()\nendsub")
	assert.Error(t, err)
}
