package cpu

import (
	"fmt"

	"github.com/oisee/dlxsim/pkg/alu"
	"github.com/oisee/dlxsim/pkg/control"
	"github.com/oisee/dlxsim/pkg/inst"
)

// Each stage below is grounded on the matching function in the reference
// model (instruction_fetch/_decode/_exe/_mem/_WB), reshaped per spec §4.4:
// a stage reads CPU state plus exactly one input latch and returns one
// output latch. The control word is derived once, in decodeStage — per
// spec §9 this resolves the reference model's suspected control-word
// re-derivation bug by making IF a pure memory read.

func diagLine(s string) string {
	if s == "" {
		return "NOP"
	}
	return s
}

// fetchStage reads IRAM[pc]. It never consumes an input latch and is
// never gated by warm-up: IF runs every cycle (spec §4.4). pc is passed in
// rather than read from the CPU because the cycle driver may have already
// resolved this cycle's redirect locally, before it is safe to commit
// (spec §7: no partial state).
func (c *CPU) fetchStage(pc int32) (FetchLatch, error) {
	if pc < 0 || int(pc) >= memWords {
		return FetchLatch{}, &Fault{Kind: FaultBadMemory, Index: pc}
	}
	word := c.iram[pc]
	disasm := inst.Disassemble(word)
	fmt.Fprintf(c.out, "[FETCH] %s\n", diagLine(disasm))
	return FetchLatch{
		Valid:  true,
		Word:   word,
		NextPC: uint32(pc+1) * 4,
		Disasm: disasm,
	}, nil
}

// decodeStage extracts fields, derives the control word, and reads the
// register file. When the input latch is empty it produces an empty
// output without touching state (spec §7: not an error).
func (c *CPU) decodeStage(in FetchLatch) DecodeLatch {
	if !in.Valid {
		return DecodeLatch{}
	}

	f := inst.Decode(in.Word)
	ctrl := control.Decode(in.Word)

	var rs1Val, rs2Val uint32
	switch {
	case f.Opcode == inst.OpRType:
		rs1Val, _ = c.readReg(f.Rs1)
		rs2Val, _ = c.readReg(f.Rs2)
	case f.Opcode == inst.OpSW:
		// The I-type "rd" field encodes the store's source register in
		// this ISA (spec §4.4 ID).
		rs1Val, _ = c.readReg(f.Rs1)
		rs2Val, _ = c.readReg(f.Rd)
	case f.Opcode == inst.OpJ || f.Opcode == inst.OpJAL:
		// No register operands.
	default:
		rs1Val, _ = c.readReg(f.Rs1)
	}

	var imm int32
	if ctrl.UseImm {
		switch f.Opcode {
		case inst.OpJ, inst.OpJAL, inst.OpJR, inst.OpJALR:
			imm = f.Imm26
		default:
			imm = f.Imm16
		}
	}

	fmt.Fprintf(c.out, "[DECODE] %s\n", diagLine(in.Disasm))

	return DecodeLatch{
		Valid:  true,
		Ctrl:   ctrl,
		Rs1Val: rs1Val,
		Rs2Val: rs2Val,
		Rd:     ctrl.Rd,
		Imm:    imm,
		NextPC: in.NextPC,
		Disasm: in.Disasm,
	}
}

// executeStage runs the ALU and resolves whether a branch or jump is
// taken (spec §4.4 EX). It does not itself redirect pc — that is the
// cycle driver's job, per the configured delay-slot depth (spec §4.6).
func (c *CPU) executeStage(in DecodeLatch) (ExecuteLatch, error) {
	if !in.Valid {
		return ExecuteLatch{}, nil
	}

	var operandA uint32
	if in.Ctrl.BranchKind != control.BranchNone {
		if c.cfg.RelativeJump {
			operandA = in.NextPC
		}
	} else {
		operandA = in.Rs1Val
	}

	operandB := in.Rs2Val
	if in.Ctrl.UseImm {
		operandB = uint32(in.Imm)
	}

	aluOut, err := alu.Exec(operandA, operandB, in.Ctrl.ALUOpcode)
	if err != nil {
		return ExecuteLatch{}, &Fault{Kind: FaultBadALUOp, Err: err}
	}

	var taken bool
	switch in.Ctrl.BranchKind {
	case control.BranchJump, control.BranchJumpLink:
		taken = true
	case control.BranchEqz:
		taken = in.Rs1Val == 0
	case control.BranchNeqz:
		taken = in.Rs1Val != 0
	}

	fmt.Fprintf(c.out, "[EXECUTE] %s\n", diagLine(in.Disasm))

	return ExecuteLatch{
		Valid:  true,
		Ctrl:   in.Ctrl,
		ALUOut: aluOut,
		Taken:  taken,
		Rs1Val: in.Rs1Val,
		Rs2Val: in.Rs2Val,
		Rd:     in.Rd,
		NextPC: in.NextPC,
		Disasm: in.Disasm,
	}, nil
}

// memoryCommit describes the DRAM write and/or last-access bookkeeping a
// memoryStage call wants to make. It is applied by the cycle driver only
// after every stage in the cycle has run without fault (spec §7).
type memoryCommit struct {
	recordAccess bool
	accessAddr   uint32
	accessData   uint32
	writeDRAM    bool
	writeAddr    uint32
	writeData    uint32
}

// memoryStage performs the load or store, if any. ALU_out is a word index
// into DRAM, never a byte address, and rs2_val is the word a store writes
// (spec §9's addressing discipline). It reads c.dram directly — reads never need to be
// deferred — but returns any write as a memoryCommit rather than applying
// it immediately, since a later stage in the same cycle might still fault.
func (c *CPU) memoryStage(in ExecuteLatch) (MemoryLatch, memoryCommit, error) {
	if !in.Valid {
		return MemoryLatch{}, memoryCommit{}, nil
	}

	var dramOut uint32
	var commit memoryCommit
	switch {
	case in.Ctrl.ReadMem:
		addr := in.ALUOut
		if addr >= memWords {
			return MemoryLatch{}, memoryCommit{}, &Fault{Kind: FaultBadMemory, Index: int32(addr)}
		}
		dramOut = c.dram[addr]
		commit = memoryCommit{recordAccess: true, accessAddr: addr}
	case in.Ctrl.WriteMem:
		addr := in.ALUOut
		if addr >= memWords {
			return MemoryLatch{}, memoryCommit{}, &Fault{Kind: FaultBadMemory, Index: int32(addr)}
		}
		commit = memoryCommit{
			recordAccess: true, accessAddr: addr, accessData: in.Rs2Val,
			writeDRAM: true, writeAddr: addr, writeData: in.Rs2Val,
		}
	}

	fmt.Fprintf(c.out, "[MEMORY] %s\n", diagLine(in.Disasm))

	return MemoryLatch{
		Valid:   true,
		Ctrl:    in.Ctrl,
		DRAMOut: dramOut,
		ALUOut:  in.ALUOut,
		Rs1Val:  in.Rs1Val,
		Rd:      in.Rd,
		NextPC:  in.NextPC,
		Taken:   in.Taken,
		Disasm:  in.Disasm,
	}, commit, nil
}

// registerCommit describes the single register-file write a writebackStage
// call wants to make. Applied by the cycle driver alongside memoryCommit,
// once the whole cycle is known to have succeeded.
type registerCommit struct {
	valid bool
	index uint8
	value uint32
}

// writebackStage computes the instruction's result for the register file
// (spec §4.4 WB) without writing it — the cycle driver commits it once the
// rest of the cycle has run without fault.
func (c *CPU) writebackStage(in MemoryLatch) (registerCommit, error) {
	if !in.Valid {
		return registerCommit{}, nil
	}

	var commit registerCommit
	if in.Ctrl.WriteRF {
		var val uint32
		switch {
		case in.Taken && in.Ctrl.BranchKind == control.BranchJumpLink:
			val = in.NextPC
		case in.Ctrl.ReadMem:
			val = in.DRAMOut
		default:
			val = in.ALUOut
		}
		if int(in.Rd) >= len(c.regs) {
			return registerCommit{}, &Fault{Kind: FaultBadRegister, Index: int32(in.Rd)}
		}
		if in.Rd != 0 {
			commit = registerCommit{valid: true, index: in.Rd, value: val}
		}
	}

	fmt.Fprintf(c.out, "[WRITEBACK] %s\n", diagLine(in.Disasm))
	return commit, nil
}
