package bytecode_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/evoscript-lang/evoscript/bytecode"
)

func TestDisassembleRendersAddressMnemonicOperand(t *testing.T) {
	var c bytecode.Chunk
	c.Emit(bytecode.PUSH, 3)
	c.EmitNullary(bytecode.ADD)
	c.EmitString("hi")

	out := bytecode.Disassemble(c.Code)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "PUSH")
	assert.Contains(t, lines[0], "3")
	assert.Contains(t, lines[1], "ADD")
	assert.Contains(t, lines[2], "PUSHS")
	assert.Contains(t, lines[2], `"hi"`)
}
