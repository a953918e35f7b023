package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble renders every instruction as "<addr> <mnemonic> <operand>",
// one per line, matching the address-mnemonic-operand layout of the
// teacher's Chunk.Disassemble (rami3l/golox vm/chunk.go) and
// esc/codegen.py's CodeGenerator.format.
func Disassemble(code []byte) string {
	var b strings.Builder
	for _, in := range Decode(code) {
		b.WriteString(DisassembleInst(in))
		b.WriteByte('\n')
	}
	return b.String()
}

// DisassembleInst renders a single decoded instruction.
func DisassembleInst(in Instr) string {
	if in.Op == PUSHS {
		return fmt.Sprintf("%04d %-8s %q", in.Addr, in.Op, in.Str)
	}
	if nullary[in.Op] {
		return fmt.Sprintf("%04d %-8s", in.Addr, in.Op)
	}
	return fmt.Sprintf("%04d %-8s %v", in.Addr, in.Op, in.Arg)
}
