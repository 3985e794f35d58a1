// Package alu implements the arithmetic/logic unit as a single pure
// function, grounded on the teacher's Exec switch (pkg/cpu/exec.go in the
// Z80 superoptimizer) and the reference SUPRAXCore.ExecuteALU in
// other_examples/: one function, one switch over the opcode, no shared
// state, so it is trivially referentially transparent.
package alu

import "fmt"

// Op identifies an ALU function, numerically equal to the R-type function
// code that selects it (pkg/inst.Func).
type Op uint16

// OpNone is the "no computation" opcode (spec.md §3): the control word a
// NOP decodes to carries ALUOpcode == 0, and EX still runs the ALU against
// it every cycle, so Exec must treat 0 as a deliberate no-op rather than an
// unknown opcode (original_source/cpu_model/cpu_model.c's instruction_exe,
// `case 0: /* NOP */ break;`).
const OpNone Op = 0x00

const (
	OpSLL  Op = 0x04
	OpSRL  Op = 0x06
	OpSRA  Op = 0x07
	OpADD  Op = 0x20
	OpADDU Op = 0x21
	OpSUB  Op = 0x22
	OpSUBU Op = 0x23
	OpAND  Op = 0x24
	OpOR   Op = 0x25
	OpXOR  Op = 0x26
	OpSEQ  Op = 0x28
	OpSNE  Op = 0x29
	OpSLT  Op = 0x2A
	OpSGT  Op = 0x2B
	OpSLE  Op = 0x2C
	OpSGE  Op = 0x2D
	OpSLTU Op = 0x3A
	OpSGTU Op = 0x3B
	OpSLEU Op = 0x3C
	OpSGEU Op = 0x3D
)

// UnknownOpError reports an ALU opcode that has no defined semantics.
// The core treats it as a fatal fault (spec §7): a programming error in
// the caller or the decoder, never recoverable locally.
type UnknownOpError struct {
	Op Op
}

func (e *UnknownOpError) Error() string {
	return fmt.Sprintf("alu: unknown opcode 0x%02x", uint16(e.Op))
}

// Exec computes the ALU result for operands a, b under opcode op. It is a
// pure function: the result depends only on its arguments.
func Exec(a, b uint32, op Op) (uint32, error) {
	switch op {
	case OpNone:
		return 0, nil
	case OpSLL:
		return a << (b & 0x1F), nil
	case OpSRL:
		return a >> (b & 0x1F), nil
	case OpSRA:
		return uint32(int32(a) >> (b & 0x1F)), nil
	case OpADD:
		return uint32(int32(a) + int32(b)), nil
	case OpADDU:
		return a + b, nil
	case OpSUB:
		return uint32(int32(a) - int32(b)), nil
	case OpSUBU:
		return a - b, nil
	case OpAND:
		return a & b, nil
	case OpOR:
		return a | b, nil
	case OpXOR:
		return a ^ b, nil
	case OpSEQ:
		return boolU32(int32(a) == int32(b)), nil
	case OpSNE:
		return boolU32(int32(a) != int32(b)), nil
	case OpSLT:
		return boolU32(int32(a) < int32(b)), nil
	case OpSGT:
		return boolU32(int32(a) > int32(b)), nil
	case OpSLE:
		return boolU32(int32(a) <= int32(b)), nil
	case OpSGE:
		return boolU32(int32(a) >= int32(b)), nil
	case OpSLTU:
		return boolU32(a < b), nil
	case OpSGTU:
		return boolU32(a > b), nil
	case OpSLEU:
		return boolU32(a <= b), nil
	case OpSGEU:
		return boolU32(a >= b), nil
	default:
		return 0, &UnknownOpError{Op: op}
	}
}

func boolU32(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}
