// Package control implements the pure instruction-word-to-control-word
// decoder. It is grounded on the reference model's instruction_decode
// (original_source/cpu_model/cpu_model.c), reshaped into a single pure
// function per spec §4.2 instead of the original's side-effecting,
// register-reading version — register reads belong to the decode *stage*
// in pkg/cpu, not to this pure control derivation.
package control

import (
	"github.com/oisee/dlxsim/pkg/alu"
	"github.com/oisee/dlxsim/pkg/inst"
)

// BranchKind enumerates the ways an instruction can redirect the PC.
type BranchKind uint8

const (
	BranchNone BranchKind = iota
	BranchJump
	BranchJumpLink
	BranchEqz
	BranchNeqz
)

// Word is the fixed control-signal tuple the decoder derives from a raw
// instruction word (spec §3 "Control word").
type Word struct {
	ALUOpcode         alu.Op
	BranchKind        BranchKind
	WriteRF           bool
	WriteMem          bool
	ReadMem           bool
	UseImm            bool
	UseRegisterToJump bool
	// Rd is the destination register for WB. For JAL/JALR it is hardwired
	// to 31 (the link register) regardless of the word's bit pattern.
	Rd uint8
}

// iTypeRule describes the ALU opcode and signals that a non-jump, non-NOP,
// non-R-type opcode maps to. Grounded on the per-opcode table in spec §4.2.
type iTypeRule struct {
	aluOp      alu.Op
	writeRF    bool
	readMem    bool
	writeMem   bool
	branchKind BranchKind
}

var iTypeRules = map[inst.Opcode]iTypeRule{
	inst.OpADDI:  {aluOp: alu.OpADD, writeRF: true},
	inst.OpADDUI: {aluOp: alu.OpADDU, writeRF: true},
	inst.OpSUBI:  {aluOp: alu.OpSUB, writeRF: true},
	inst.OpSUBUI: {aluOp: alu.OpSUBU, writeRF: true},
	inst.OpANDI:  {aluOp: alu.OpAND, writeRF: true},
	inst.OpORI:   {aluOp: alu.OpOR, writeRF: true},
	inst.OpXORI:  {aluOp: alu.OpXOR, writeRF: true},
	inst.OpSLLI:  {aluOp: alu.OpSLL, writeRF: true},
	inst.OpSRLI:  {aluOp: alu.OpSRL, writeRF: true},
	inst.OpSRAI:  {aluOp: alu.OpSRA, writeRF: true},
	inst.OpSEQI:  {aluOp: alu.OpSEQ, writeRF: true},
	inst.OpSNEI:  {aluOp: alu.OpSNE, writeRF: true},
	inst.OpSLTI:  {aluOp: alu.OpSLT, writeRF: true},
	inst.OpSGTI:  {aluOp: alu.OpSGT, writeRF: true},
	inst.OpSLEI:  {aluOp: alu.OpSLE, writeRF: true},
	inst.OpSGEI:  {aluOp: alu.OpSGE, writeRF: true},
	inst.OpSLTUI: {aluOp: alu.OpSLTU, writeRF: true},
	inst.OpSGTUI: {aluOp: alu.OpSGTU, writeRF: true},
	inst.OpSLEUI: {aluOp: alu.OpSLEU, writeRF: true},
	inst.OpSGEUI: {aluOp: alu.OpSGEU, writeRF: true},
	inst.OpLW:    {aluOp: alu.OpADDU, writeRF: true, readMem: true},
	inst.OpSW:    {aluOp: alu.OpADDU, writeMem: true},
	inst.OpBEQZ:  {aluOp: alu.OpADDU, branchKind: BranchEqz},
	inst.OpBNEZ:  {aluOp: alu.OpADDU, branchKind: BranchNeqz},
}

// Decode derives the control word for a raw 32-bit instruction word.
func Decode(word uint32) Word {
	f := inst.Decode(word)

	switch f.Opcode {
	case inst.OpNOP:
		return Word{}

	case inst.OpRType:
		return Word{
			ALUOpcode: alu.Op(f.Func),
			WriteRF:   true,
			Rd:        f.Rd,
		}

	case inst.OpJ, inst.OpJAL, inst.OpJR, inst.OpJALR:
		w := Word{
			ALUOpcode:         alu.OpADDU,
			UseImm:            true,
			UseRegisterToJump: f.Opcode == inst.OpJR || f.Opcode == inst.OpJALR,
		}
		switch f.Opcode {
		case inst.OpJ, inst.OpJR:
			w.BranchKind = BranchJump
		case inst.OpJAL, inst.OpJALR:
			w.BranchKind = BranchJumpLink
			w.WriteRF = true
			w.Rd = 31
		}
		return w

	default:
		rule, ok := iTypeRules[f.Opcode]
		if !ok {
			return Word{}
		}
		return Word{
			ALUOpcode:  rule.aluOp,
			BranchKind: rule.branchKind,
			WriteRF:    rule.writeRF,
			WriteMem:   rule.writeMem,
			ReadMem:    rule.readMem,
			UseImm:     true,
			Rd:         f.Rd,
		}
	}
}
