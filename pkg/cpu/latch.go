package cpu

import "github.com/oisee/dlxsim/pkg/control"

// Each latch is a value type, not a pointer: per spec §9 the reference
// model's per-cycle malloc/free of latch structs is replaced by an
// explicit Valid field standing in for the "empty" variant. Latches are
// copied between stages, never shared, and never outlive the cycle that
// consumes them.

// FetchLatch is produced by IF and consumed by ID. The control word is
// derived in decodeStage, not here (spec §9: IF is a pure memory read).
type FetchLatch struct {
	Valid  bool
	Word   uint32
	NextPC uint32 // byte address of the instruction after this one
	Disasm string
}

// DecodeLatch is produced by ID and consumed by EX.
type DecodeLatch struct {
	Valid  bool
	Ctrl   control.Word
	Rs1Val uint32
	Rs2Val uint32
	Rd     uint8
	Imm    int32
	NextPC uint32
	Disasm string
}

// ExecuteLatch is produced by EX and consumed by MEM.
type ExecuteLatch struct {
	Valid  bool
	Ctrl   control.Word
	ALUOut uint32
	Taken  bool
	Rs1Val uint32
	Rs2Val uint32
	Rd     uint8
	NextPC uint32
	Disasm string
}

// MemoryLatch is produced by MEM and consumed by WB.
type MemoryLatch struct {
	Valid   bool
	Ctrl    control.Word
	DRAMOut uint32
	ALUOut  uint32
	Rs1Val  uint32
	Rd      uint8
	NextPC  uint32
	Taken   bool
	Disasm  string
}
