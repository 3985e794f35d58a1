// Package inst holds the fixed instruction-word layout for the DLX-style
// ISA: opcode/function-code constants, the per-opcode metadata catalog, and
// the pure disassembler. Nothing here touches CPU state.
package inst

// Opcode is the 6-bit instruction opcode occupying bits 31..26 of the word.
type Opcode uint8

// Func is the 11-bit R-type function code occupying bits 10..0 of the word,
// used to disambiguate R-type instructions (opcode is always OpRType).
type Func uint16

// Opcode constants, per the ISA glossary.
const (
	OpRType Opcode = 0x00 // R-type instructions; disambiguated by Func
	OpJ     Opcode = 0x02
	OpJAL   Opcode = 0x03
	OpBEQZ  Opcode = 0x04
	OpBNEZ  Opcode = 0x05
	OpADDI  Opcode = 0x08
	OpADDUI Opcode = 0x09
	OpSUBI  Opcode = 0x0A
	OpSUBUI Opcode = 0x0B
	OpANDI  Opcode = 0x0C
	OpORI   Opcode = 0x0D
	OpXORI  Opcode = 0x0E
	OpJR    Opcode = 0x12
	OpJALR  Opcode = 0x13
	OpSLLI  Opcode = 0x14
	OpNOP   Opcode = 0x15
	OpSRLI  Opcode = 0x16
	OpSRAI  Opcode = 0x17
	OpSEQI  Opcode = 0x18
	OpSNEI  Opcode = 0x19
	OpSLTI  Opcode = 0x1A
	OpSGTI  Opcode = 0x1B
	OpSLEI  Opcode = 0x1C
	OpSGEI  Opcode = 0x1D
	OpLW    Opcode = 0x23
	OpSW    Opcode = 0x2B
	OpSLTUI Opcode = 0x3A
	OpSGTUI Opcode = 0x3B
	OpSLEUI Opcode = 0x3C
	OpSGEUI Opcode = 0x3D
)

// Func constants for R-type instructions.
const (
	FnSLL  Func = 0x04
	FnSRL  Func = 0x06
	FnSRA  Func = 0x07
	FnADD  Func = 0x20
	FnADDU Func = 0x21
	FnSUB  Func = 0x22
	FnSUBU Func = 0x23
	FnAND  Func = 0x24
	FnOR   Func = 0x25
	FnXOR  Func = 0x26
	FnSEQ  Func = 0x28
	FnSNE  Func = 0x29
	FnSLT  Func = 0x2A
	FnSGT  Func = 0x2B
	FnSLE  Func = 0x2C
	FnSGE  Func = 0x2D
	FnSLTU Func = 0x3A
	FnSGTU Func = 0x3B
	FnSLEU Func = 0x3C
	FnSGEU Func = 0x3D
)

// NOPWord is the canonical NOP encoding: opcode 0x15, all other bits zero.
const NOPWord uint32 = 0x54000000

// Fields extracts the raw bit fields of a 32-bit instruction word. Every
// field is present regardless of instruction kind; callers interpret only
// the fields their format actually uses. Rd is the one format-dependent
// field: bits 15..11 for R-type words, bits 20..16 for every other opcode.
type Fields struct {
	Opcode Opcode
	Rs1    uint8
	Rs2    uint8
	Rd     uint8
	Func   Func
	Imm16  int32 // sign-extended 16-bit immediate (I-type)
	Imm26  int32 // sign-extended 26-bit immediate (J-type)
}

// Decode extracts the raw bit fields from a 32-bit instruction word. It does
// not interpret them — see pkg/control for the semantic decoder.
func Decode(word uint32) Fields {
	f := Fields{
		Opcode: Opcode(word >> 26 & 0x3F),
		Rs1:    uint8(word >> 21 & 0x1F),
		Rs2:    uint8(word >> 16 & 0x1F),
		Rd:     uint8(word >> 11 & 0x1F),
		Func:   Func(word & 0x7FF),
		Imm16:  signExtend(word&0xFFFF, 16),
		Imm26:  signExtend(word&0x3FFFFFF, 26),
	}
	if f.Opcode != OpRType {
		// I-type rd occupies bits 20..16, matching Encode.
		f.Rd = uint8(word >> 16 & 0x1F)
	}
	return f
}

// Encode assembles a 32-bit instruction word from its raw fields, using only
// the bits that belong to the given opcode's format. It is the left inverse
// Disassemble is checked against in tests.
func Encode(f Fields) uint32 {
	if f.Opcode == OpJ || f.Opcode == OpJAL {
		return uint32(f.Opcode)<<26 | uint32(f.Imm26)&0x3FFFFFF
	}
	if f.Opcode == OpRType {
		return uint32(f.Rs1)<<21 | uint32(f.Rs2)<<16 | uint32(f.Rd)<<11 | uint32(f.Func)&0x7FF
	}
	return uint32(f.Opcode)<<26 | uint32(f.Rs1)<<21 | uint32(f.Rd)<<16 | uint32(f.Imm16)&0xFFFF
}

func signExtend(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}
