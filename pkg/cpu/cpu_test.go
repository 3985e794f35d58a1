package cpu

import (
	"bytes"
	"testing"

	"github.com/oisee/dlxsim/pkg/inst"
)

func loadProgram(t *testing.T, c *CPU, words []uint32) {
	t.Helper()
	for i, w := range words {
		if err := c.LoadInstruction(i, w); err != nil {
			t.Fatalf("LoadInstruction(%d): %v", i, err)
		}
	}
}

func stepN(t *testing.T, c *CPU, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := c.Step(); err != nil {
			t.Fatalf("Step() #%d returned error: %v", i, err)
		}
	}
}

func TestRegZeroAlwaysReadsZero(t *testing.T) {
	c := Create(Config{DelaySlotDepth: DelayWB, RelativeJump: true}, WithOutput(bytes.NewBuffer(nil)))
	loadProgram(t, c, []uint32{
		inst.Encode(inst.Fields{Opcode: inst.OpADDI, Rd: 0, Rs1: 0, Imm16: 99}),
	})
	stepN(t, c, 10)
	v, err := c.Reg(0)
	if err != nil || v != 0 {
		t.Errorf("regs[0] = %d, err=%v, want 0 (writes to R0 are discarded)", v, err)
	}
}

func TestResetClearsPCWarmupAndRegsButPreservesIRAM(t *testing.T) {
	c := Create(Config{DelaySlotDepth: DelayWB, RelativeJump: true}, WithOutput(bytes.NewBuffer(nil)))
	word := inst.Encode(inst.Fields{Opcode: inst.OpADDI, Rd: 1, Rs1: 0, Imm16: 7})
	loadProgram(t, c, []uint32{word})
	stepN(t, c, 6)

	if v, _ := c.Reg(1); v != 7 {
		t.Fatalf("setup failed: R1 = %d, want 7", v)
	}

	c.Reset()

	if c.pc != -1 {
		t.Errorf("pc after reset = %d, want -1", c.pc)
	}
	if c.warmup != 0 {
		t.Errorf("warmup after reset = %d, want 0", c.warmup)
	}
	if v, _ := c.Reg(1); v != 0 {
		t.Errorf("R1 after reset = %d, want 0", v)
	}
	if c.iram[0] != word {
		t.Errorf("IRAM[0] after reset = 0x%08X, want the preserved 0x%08X", c.iram[0], word)
	}
}

func TestResetPreservesDRAM(t *testing.T) {
	c := Create(Config{DelaySlotDepth: DelayWB, RelativeJump: true}, WithOutput(bytes.NewBuffer(nil)))
	if err := c.setReg(1, 0xDEADBEEF); err != nil {
		t.Fatalf("setReg: %v", err)
	}
	loadProgram(t, c, []uint32{
		inst.Encode(inst.Fields{Opcode: inst.OpSW, Rd: 1, Rs1: 0, Imm16: 4}),
	})
	stepN(t, c, 6)

	if v, _ := c.Mem(4); v != 0xDEADBEEF {
		t.Fatalf("setup failed: DRAM[4] = 0x%08X, want 0xDEADBEEF", v)
	}

	c.Reset()

	if v, _ := c.Mem(4); v != 0xDEADBEEF {
		t.Errorf("DRAM[4] after reset = 0x%08X, want 0xDEADBEEF (only g_iteration, pc, and regs reset)", v)
	}
}

func TestCreateFillsIRAMWithNOP(t *testing.T) {
	c := Create(Config{DelaySlotDepth: DelayWB, RelativeJump: true}, WithOutput(bytes.NewBuffer(nil)))
	if c.iram[0] != inst.NOPWord || c.iram[memWords-1] != inst.NOPWord {
		t.Errorf("fresh CPU's IRAM is not NOP-filled")
	}
}

func TestLoadInstructionZeroWordBecomesNOP(t *testing.T) {
	c := Create(Config{DelaySlotDepth: DelayWB, RelativeJump: true}, WithOutput(bytes.NewBuffer(nil)))
	if err := c.LoadInstruction(5, 0); err != nil {
		t.Fatalf("LoadInstruction: %v", err)
	}
	if c.iram[5] != inst.NOPWord {
		t.Errorf("IRAM[5] = 0x%08X, want NOP encoding after loading word 0", c.iram[5])
	}
}

// TestGoldenPCTraceSequentialCode verifies the invariant from spec §8:
// for control-flow-free code, pc after n Step calls is n-1 word indices
// past the entry, identically across all three delay-slot depths. This
// is the cycle-by-cycle golden test spec §9 calls for to pin down the
// single most fragile behavior: the warm-up PC sequence.
func TestGoldenPCTraceSequentialCode(t *testing.T) {
	for _, depth := range []DelaySlotDepth{DelayEX, DelayMEM, DelayWB} {
		c := Create(Config{DelaySlotDepth: depth, RelativeJump: true}, WithOutput(bytes.NewBuffer(nil)))
		for i := 0; i < 20; i++ {
			if err := c.Step(); err != nil {
				t.Fatalf("depth %d: Step() #%d: %v", depth, i, err)
			}
			if got := c.PC(); got != uint32(i) {
				t.Errorf("depth %d: after %d Step calls, pc = %d, want %d", depth, i+1, got, i)
			}
		}
	}
}

// TestScenarioRTypeAdd is spec §8 end-to-end scenario 1. The ISA has no
// forwarding or stall insertion (explicit Non-goals), so — exactly as on
// real unpipelined-hazard RISC cores — the program must space dependent
// instructions itself; two NOPs give ADD's operands time to reach the
// register file before ADD's own decode reads them.
func TestScenarioRTypeAdd(t *testing.T) {
	c := Create(Config{DelaySlotDepth: DelayWB, RelativeJump: true}, WithOutput(bytes.NewBuffer(nil)))
	loadProgram(t, c, []uint32{
		inst.Encode(inst.Fields{Opcode: inst.OpADDI, Rd: 1, Rs1: 0, Imm16: 1}),
		inst.Encode(inst.Fields{Opcode: inst.OpADDI, Rd: 2, Rs1: 0, Imm16: 2}),
		inst.NOPWord,
		inst.NOPWord,
		inst.Encode(inst.Fields{Opcode: inst.OpRType, Rd: 3, Rs1: 1, Rs2: 2, Func: inst.FnADD}),
	})
	stepN(t, c, 14)

	r0, _ := c.Reg(0)
	r1, _ := c.Reg(1)
	r2, _ := c.Reg(2)
	r3, _ := c.Reg(3)
	if r0 != 0 || r1 != 1 || r2 != 2 || r3 != 3 {
		t.Errorf("R0..R3 = %d,%d,%d,%d, want 0,1,2,3", r0, r1, r2, r3)
	}
}

// TestScenarioSignedWrap is spec §8 end-to-end scenario 2.
func TestScenarioSignedWrap(t *testing.T) {
	c := Create(Config{DelaySlotDepth: DelayWB, RelativeJump: true}, WithOutput(bytes.NewBuffer(nil)))
	loadProgram(t, c, []uint32{
		inst.Encode(inst.Fields{Opcode: inst.OpADDI, Rd: 1, Rs1: 0, Imm16: -1}),
	})
	stepN(t, c, 8)

	r1, _ := c.Reg(1)
	if r1 != 0xFFFFFFFF {
		t.Errorf("R1 = 0x%08X, want 0xFFFFFFFF", r1)
	}
}

// TestScenarioLoadStoreRoundTrip is spec §8 end-to-end scenario 3,
// checked cycle-by-cycle so that get_last_mem_access can be observed
// immediately after the store's MEM stage, before the load overwrites it.
func TestScenarioLoadStoreRoundTrip(t *testing.T) {
	c := Create(Config{DelaySlotDepth: DelayWB, RelativeJump: true}, WithOutput(bytes.NewBuffer(nil)))
	if err := c.setReg(1, 0xDEADBEEF); err != nil {
		t.Fatalf("setReg: %v", err)
	}
	loadProgram(t, c, []uint32{
		inst.Encode(inst.Fields{Opcode: inst.OpSW, Rd: 1, Rs1: 0, Imm16: 4}), // store R1 at DRAM[4]
		inst.Encode(inst.Fields{Opcode: inst.OpLW, Rd: 2, Rs1: 0, Imm16: 4}), // R2 = DRAM[4]
	})

	stepN(t, c, 4) // SW's MEM stage has just run
	addr, data := c.LastMemAccess()
	if addr != 4 || data != 0xDEADBEEF {
		t.Fatalf("after the store: LastMemAccess = (%d, 0x%08X), want (4, 0xDEADBEEF)", addr, data)
	}

	stepN(t, c, 2) // LW's MEM then WB stages run
	r2, _ := c.Reg(2)
	if r2 != 0xDEADBEEF {
		t.Errorf("R2 = 0x%08X, want 0xDEADBEEF", r2)
	}
}

// TestScenarioBranchNotTaken is spec §8 end-to-end scenario 4. BEQZ is
// spaced two NOPs after the ADDI that sets R1, for the same
// no-forwarding reason as TestScenarioRTypeAdd.
func TestScenarioBranchNotTaken(t *testing.T) {
	c := Create(Config{DelaySlotDepth: DelayWB, RelativeJump: true}, WithOutput(bytes.NewBuffer(nil)))
	loadProgram(t, c, []uint32{
		inst.Encode(inst.Fields{Opcode: inst.OpADDI, Rd: 1, Rs1: 0, Imm16: 1}),
		inst.NOPWord,
		inst.NOPWord,
		inst.Encode(inst.Fields{Opcode: inst.OpBEQZ, Rs1: 1, Imm16: 64}),
		inst.Encode(inst.Fields{Opcode: inst.OpADDI, Rd: 4, Rs1: 0, Imm16: 5}), // falls through to here
	})
	stepN(t, c, 14)

	r4, _ := c.Reg(4)
	if r4 != 5 {
		t.Errorf("R4 = %d, want 5 (the instruction after a not-taken BEQZ must still commit)", r4)
	}
}

// TestScenarioBranchTaken is spec §8 end-to-end scenario 5.
func TestScenarioBranchTaken(t *testing.T) {
	c := Create(Config{DelaySlotDepth: DelayWB, RelativeJump: true}, WithOutput(bytes.NewBuffer(nil)))
	// BEQZ is instruction index 3; nextPC = (3+1)*4 = 16; +8 targets byte
	// address 24, i.e. word index 6.
	loadProgram(t, c, []uint32{
		inst.Encode(inst.Fields{Opcode: inst.OpADDI, Rd: 1, Rs1: 0, Imm16: 0}),
		inst.NOPWord,
		inst.NOPWord,
		inst.Encode(inst.Fields{Opcode: inst.OpBEQZ, Rs1: 1, Imm16: 8}),
		inst.Encode(inst.Fields{Opcode: inst.OpADDI, Rd: 4, Rs1: 0, Imm16: 111}), // delay slot, still committed
		inst.Encode(inst.Fields{Opcode: inst.OpADDI, Rd: 5, Rs1: 0, Imm16: 222}), // delay slot, still committed
		inst.Encode(inst.Fields{Opcode: inst.OpADDI, Rd: 6, Rs1: 0, Imm16: 9}),   // branch target
	})
	stepN(t, c, 16)

	r6, _ := c.Reg(6)
	if r6 != 9 {
		t.Errorf("R6 = %d, want 9 (control must reach the branch target)", r6)
	}
}

// TestScenarioJALAndJR is spec §8 end-to-end scenario 6.
func TestScenarioJALAndJR(t *testing.T) {
	c := Create(Config{DelaySlotDepth: DelayWB, RelativeJump: false}, WithOutput(bytes.NewBuffer(nil)))
	loadProgram(t, c, []uint32{
		inst.Encode(inst.Fields{Opcode: inst.OpJAL, Imm26: 16}), // absolute target: byte 16 = word 4
		inst.Encode(inst.Fields{Opcode: inst.OpADDI, Rd: 7, Rs1: 0, Imm16: 42}), // return lands here
		0, 0,
		inst.Encode(inst.Fields{Opcode: inst.OpJR, Rs1: 31}), // sub: return via R31
	})
	stepN(t, c, 16)

	r31, _ := c.Reg(31)
	if r31 != 4 { // nextPC of JAL (word index 0) is byte address 4
		t.Errorf("R31 = %d, want 4 (the byte return address)", r31)
	}
	r7, _ := c.Reg(7)
	if r7 != 42 {
		t.Errorf("R7 = %d, want 42 (control must return past the JAL)", r7)
	}
}

func TestWarmupSaturatesAtFour(t *testing.T) {
	c := Create(Config{DelaySlotDepth: DelayWB, RelativeJump: true}, WithOutput(bytes.NewBuffer(nil)))
	stepN(t, c, 10)
	if c.warmup != 4 {
		t.Errorf("warmup = %d, want 4 after the pipeline fills", c.warmup)
	}
}

func TestRegOutOfRangeIsAFault(t *testing.T) {
	c := Create(Config{DelaySlotDepth: DelayWB, RelativeJump: true}, WithOutput(bytes.NewBuffer(nil)))
	if _, err := c.Reg(32); err == nil {
		t.Error("Reg(32) should fault: only 0..31 are valid")
	}
	if _, err := c.Reg(-1); err == nil {
		t.Error("Reg(-1) should fault")
	}
}

func TestMemOutOfRangeIsAFault(t *testing.T) {
	c := Create(Config{DelaySlotDepth: DelayWB, RelativeJump: true}, WithOutput(bytes.NewBuffer(nil)))
	if _, err := c.Mem(memWords); err == nil {
		t.Error("Mem(memWords) should fault: only 0..memWords-1 are valid")
	}
}

func TestLoadInstructionOutOfRangeIsAFault(t *testing.T) {
	c := Create(Config{DelaySlotDepth: DelayWB, RelativeJump: true}, WithOutput(bytes.NewBuffer(nil)))
	if err := c.LoadInstruction(memWords, 1); err == nil {
		t.Error("LoadInstruction(memWords, ...) should fault")
	}
}

func TestUnknownALUOpcodeIsAFault(t *testing.T) {
	c := Create(Config{DelaySlotDepth: DelayWB, RelativeJump: true}, WithOutput(bytes.NewBuffer(nil)))
	// func 0x7F is not a defined ALU opcode.
	loadProgram(t, c, []uint32{
		inst.Encode(inst.Fields{Opcode: inst.OpRType, Rd: 1, Rs1: 0, Rs2: 0, Func: 0x7F}),
	})
	var err error
	for i := 0; i < 10 && err == nil; i++ {
		err = c.Step()
	}
	if err == nil {
		t.Fatal("expected a fault for an unknown R-type function code")
	}
	var fault *Fault
	if e, ok := err.(*Fault); ok {
		fault = e
	}
	if fault == nil || fault.Kind != FaultBadALUOp {
		t.Errorf("got error %v, want a FaultBadALUOp", err)
	}
}

func TestDisassembleDelegatesToInstPackage(t *testing.T) {
	c := Create(Config{DelaySlotDepth: DelayWB, RelativeJump: true}, WithOutput(bytes.NewBuffer(nil)))
	if got := c.Disassemble(inst.NOPWord); got != "NOP" {
		t.Errorf("Disassemble(NOP) = %q, want NOP", got)
	}
}
