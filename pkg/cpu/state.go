package cpu

import (
	"io"
	"os"

	"github.com/oisee/dlxsim/pkg/inst"
)

// memWords is the size, in 32-bit words, of both IRAM and DRAM: valid
// indices are 0..1023, and an index outside that range is a Fault.
const memWords = 1024

// DelaySlotDepth selects which pipeline stage resolves a taken branch or
// jump and redirects pc (spec §4.6). Together with Config.RelativeJump it
// is one of the two settings that configure the core's behavior.
type DelaySlotDepth int

const (
	DelayEX  DelaySlotDepth = 1
	DelayMEM DelaySlotDepth = 2
	DelayWB  DelaySlotDepth = 3
)

// Config selects the two build-time options the reference model hardcoded
// as compile-time switches (spec §9): which stage performs the PC
// redirect, and whether branch targets are relative to nextPC or
// absolute from zero.
type Config struct {
	DelaySlotDepth DelaySlotDepth
	RelativeJump   bool
}

// CPU is the sole owner of all simulator state: registers, memories, the
// current latches, and the warm-up counter. Multiple CPU values coexist
// safely since nothing here is package-global (spec §9, §5).
type CPU struct {
	cfg Config
	out io.Writer

	pc   int32
	regs [32]uint32

	iram [memWords]uint32
	dram [memWords]uint32

	lastMemAddr uint32
	lastMemData uint32

	warmup int

	fetch   FetchLatch
	decode  DecodeLatch
	execute ExecuteLatch
	memory  MemoryLatch
}

// Option configures a CPU at construction time, following the pipeline
// package's functional-options pattern (other_examples timing-pipeline).
type Option func(*CPU)

// WithOutput redirects per-cycle stage diagnostics (spec §6 "Diagnostic
// output") away from os.Stdout, e.g. for tests or an embedding front-end.
func WithOutput(w io.Writer) Option {
	return func(c *CPU) { c.out = w }
}

// Create allocates a CPU, fills IRAM with the canonical NOP encoding,
// zeros DRAM and the register file, and sets pc so that the first fetch
// reads IRAM[0] (spec §6, §3: pc == -1 internally, observable as 0 after
// the implicit pre-increment of the first cycle).
func Create(cfg Config, opts ...Option) *CPU {
	c := &CPU{cfg: cfg, out: os.Stdout}
	for _, opt := range opts {
		opt(c)
	}
	c.resetMemory()
	c.pc = -1
	return c
}

// Reset restarts the CPU without reallocating it. Per the reference
// model's cpu_reset, only g_iteration (warmup), pc, the register file and
// the latches are cleared — IRAM, DRAM and the last-access record all
// survive Reset; only Create clears IRAM and DRAM.
func (c *CPU) Reset() {
	for i := range c.regs {
		c.regs[i] = 0
	}
	c.warmup = 0
	c.pc = -1
	c.fetch = FetchLatch{}
	c.decode = DecodeLatch{}
	c.execute = ExecuteLatch{}
	c.memory = MemoryLatch{}
}

func (c *CPU) resetMemory() {
	for i := range c.iram {
		c.iram[i] = inst.NOPWord
	}
	for i := range c.dram {
		c.dram[i] = 0
	}
	for i := range c.regs {
		c.regs[i] = 0
	}
}

// Destroy releases any resources held by the CPU. Go's garbage collector
// reclaims the struct itself; Destroy exists only to keep the façade
// complete against spec §6 and to discard latches deterministically.
func (c *CPU) Destroy() {
	c.fetch = FetchLatch{}
	c.decode = DecodeLatch{}
	c.execute = ExecuteLatch{}
	c.memory = MemoryLatch{}
}

// LoadInstruction stores word at IRAM[index]. A word of 0 is stored as
// the canonical NOP encoding, matching the reference assembler's
// convention that an all-zero word means "no instruction yet".
func (c *CPU) LoadInstruction(index int, word uint32) error {
	if index < 0 || index >= memWords {
		return &Fault{Kind: FaultBadMemory, Index: int32(index)}
	}
	if word == 0 {
		word = inst.NOPWord
	}
	c.iram[index] = word
	return nil
}

// PC returns the current program counter as a word index.
func (c *CPU) PC() uint32 {
	return uint32(c.pc)
}

// Reg reads general-purpose register i. regs[0] always reads as 0.
func (c *CPU) Reg(i int) (uint32, error) {
	if i < 0 || i >= len(c.regs) {
		return 0, &Fault{Kind: FaultBadRegister, Index: int32(i)}
	}
	if i == 0 {
		return 0, nil
	}
	return c.regs[i], nil
}

// Mem reads data memory word at addr.
func (c *CPU) Mem(addr int) (uint32, error) {
	if addr < 0 || addr >= memWords {
		return 0, &Fault{Kind: FaultBadMemory, Index: int32(addr)}
	}
	return c.dram[addr], nil
}

// LastMemAccess returns the address and data of the most recent load or
// store performed by MEM.
func (c *CPU) LastMemAccess() (addr, data uint32) {
	return c.lastMemAddr, c.lastMemData
}

// Disassemble is the pure helper exposed directly on CPU for convenience;
// it delegates to pkg/inst and touches no CPU state.
func (c *CPU) Disassemble(word uint32) string {
	return inst.Disassemble(word)
}

func (c *CPU) setReg(i uint8, v uint32) error {
	if int(i) >= len(c.regs) {
		return &Fault{Kind: FaultBadRegister, Index: int32(i)}
	}
	if i == 0 {
		return nil
	}
	c.regs[i] = v
	return nil
}

func (c *CPU) readReg(i uint8) (uint32, error) {
	if int(i) >= len(c.regs) {
		return 0, &Fault{Kind: FaultBadRegister, Index: int32(i)}
	}
	if i == 0 {
		return 0, nil
	}
	return c.regs[i], nil
}
