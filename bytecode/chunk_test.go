package bytecode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evoscript-lang/evoscript/bytecode"
)

func TestEmitAndDecodeRoundTrip(t *testing.T) {
	var c bytecode.Chunk
	c.Emit(bytecode.PUSH, 3)
	c.Emit(bytecode.PUSH, 42)
	c.EmitNullary(bytecode.MUL)
	c.Emit(bytecode.PUSHG, 0)

	instrs := bytecode.Decode(c.Code)
	require.Len(t, instrs, 4)
	assert.Equal(t, bytecode.PUSH, instrs[0].Op)
	assert.Equal(t, float64(3), instrs[0].Arg)
	assert.Equal(t, bytecode.PUSH, instrs[1].Op)
	assert.Equal(t, float64(42), instrs[1].Arg)
	assert.Equal(t, bytecode.MUL, instrs[2].Op)
	assert.Equal(t, bytecode.PUSHG, instrs[3].Op)
	assert.Equal(t, float64(0), instrs[3].Arg)
}

func TestEmitStringVariableWidth(t *testing.T) {
	var c bytecode.Chunk
	c.EmitString("foo")

	instrs := bytecode.Decode(c.Code)
	require.Len(t, instrs, 1)
	assert.Equal(t, bytecode.PUSHS, instrs[0].Op)
	assert.Equal(t, "foo", instrs[0].Str)
	assert.Equal(t, float64(3), instrs[0].Arg)
}

func TestBackpatchOverwritesInPlace(t *testing.T) {
	var c bytecode.Chunk
	jmp := c.EmitJump(bytecode.JMP)
	before := c.Len()
	c.EmitNullary(bytecode.NOP)
	c.Backpatch(jmp, float64(c.Len()))

	instrs := bytecode.Decode(c.Code)
	require.Len(t, instrs, 2)
	assert.Equal(t, float64(c.Len()), instrs[0].Arg)
	assert.Equal(t, before+1, c.Len())
}

func TestBackpatchOutOfRangeIsIgnored(t *testing.T) {
	var c bytecode.Chunk
	c.EmitNullary(bytecode.NOP)
	assert.NotPanics(t, func() { c.Backpatch(1000, 0) })
}

func TestFinalizeDecimalAndRLE(t *testing.T) {
	var c bytecode.Chunk
	c.EmitNullary(bytecode.NOP)
	c.EmitNullary(bytecode.NOP)
	c.EmitNullary(bytecode.ADD)

	assert.Equal(t, "0,0,48", c.Finalize(false))
	assert.Equal(t, "2,0,1,48", c.Finalize(true))
}

func TestHexString(t *testing.T) {
	var c bytecode.Chunk
	c.EmitNullary(bytecode.NOP)
	c.EmitNullary(bytecode.ADD)
	assert.Equal(t, "0030", c.HexString())
}

func TestNullaryOpcodesAreOneByte(t *testing.T) {
	for _, op := range []bytecode.Op{
		bytecode.ADD, bytecode.SUB, bytecode.MUL, bytecode.DIV, bytecode.MOD,
		bytecode.NOT, bytecode.NEG, bytecode.PRINT, bytecode.ARGTYPE, bytecode.LEN,
		bytecode.EQ, bytecode.LT, bytecode.GT, bytecode.LTEQ, bytecode.GTEQ, bytecode.NOTEQ,
		bytecode.AND, bytecode.OR, bytecode.PUSHAS, bytecode.NOP,
	} {
		var c bytecode.Chunk
		c.EmitNullary(op)
		assert.Lenf(t, c.Code, 1, "opcode %s should encode as exactly one byte", op)
	}
}

func TestNonNullaryOpcodesCarryNineByteInstruction(t *testing.T) {
	for _, op := range []bytecode.Op{
		bytecode.PUSHG, bytecode.POPG, bytecode.PUSHL, bytecode.POPL, bytecode.PUSH,
		bytecode.DATA, bytecode.PUSHA, bytecode.JZ, bytecode.JMP, bytecode.JFS,
		bytecode.JMPFUN, bytecode.CALL, bytecode.CONCAT,
	} {
		var c bytecode.Chunk
		c.Emit(op, 0)
		assert.Lenf(t, c.Code, bytecode.InstrWidth, "opcode %s should encode as %d bytes", op, bytecode.InstrWidth)
	}
}
