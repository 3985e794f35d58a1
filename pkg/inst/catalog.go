package inst

// Format identifies which of the four textual disassembly shapes an
// instruction uses.
type Format uint8

const (
	FormatNone   Format = iota // unrecognized opcode, or NOP
	FormatR                    // "OP rd, rs1, rs2"
	FormatI                    // "OP rd, rs1, imm"
	FormatBranch               // "OP rs1, imm"
	FormatJ                    // "OP imm"
)

// Info holds static metadata for one opcode or R-type function code.
type Info struct {
	Mnemonic string
	Format   Format
}

// opcodeCatalog maps the top-level 6-bit opcode to its mnemonic and
// disassembly format. OpRType and OpNOP are handled specially by
// Disassemble and are not looked up here.
var opcodeCatalog = map[Opcode]Info{
	OpJ:     {"J", FormatJ},
	OpJAL:   {"JAL", FormatJ},
	OpBEQZ:  {"BEQZ", FormatBranch},
	OpBNEZ:  {"BNEZ", FormatBranch},
	OpJR:    {"JR", FormatJ},
	OpJALR:  {"JALR", FormatJ},
	OpADDI:  {"ADDI", FormatI},
	OpADDUI: {"ADDUI", FormatI},
	OpSUBI:  {"SUBI", FormatI},
	OpSUBUI: {"SUBUI", FormatI},
	OpANDI:  {"ANDI", FormatI},
	OpORI:   {"ORI", FormatI},
	OpXORI:  {"XORI", FormatI},
	OpSLLI:  {"SLLI", FormatI},
	OpSRLI:  {"SRLI", FormatI},
	OpSRAI:  {"SRAI", FormatI},
	OpSEQI:  {"SEQI", FormatI},
	OpSNEI:  {"SNEI", FormatI},
	OpSLTI:  {"SLTI", FormatI},
	OpSGTI:  {"SGTI", FormatI},
	OpSLEI:  {"SLEI", FormatI},
	OpSGEI:  {"SGEI", FormatI},
	OpLW:    {"LW", FormatI},
	OpSW:    {"SW", FormatI},
	OpSLTUI: {"SLTUI", FormatI},
	OpSGTUI: {"SGTUI", FormatI},
	OpSLEUI: {"SLEUI", FormatI},
	OpSGEUI: {"SGEUI", FormatI},
}

// jTypeImm returns the 26-bit immediate used by J-type disassembly text.
// JR/JALR are disassembled with this raw field even though their actual
// jump target at runtime comes from rs1 — matching the reference model's
// identify_instruction, which formats all four jump opcodes identically.
func jTypeImm(word uint32) int32 {
	return Decode(word).Imm26
}

// funcCatalog maps an R-type function code to its mnemonic.
var funcCatalog = map[Func]string{
	FnSLL:  "SLL",
	FnSRL:  "SRL",
	FnSRA:  "SRA",
	FnADD:  "ADD",
	FnADDU: "ADDU",
	FnSUB:  "SUB",
	FnSUBU: "SUBU",
	FnAND:  "AND",
	FnOR:   "OR",
	FnXOR:  "XOR",
	FnSEQ:  "SEQ",
	FnSNE:  "SNE",
	FnSLT:  "SLT",
	FnSGT:  "SGT",
	FnSLE:  "SLE",
	FnSGE:  "SGE",
	FnSLTU: "SLTU",
	FnSGTU: "SGTU",
	FnSLEU: "SLEU",
	FnSGEU: "SGEU",
}

// Disassemble renders a 32-bit instruction word as a printable mnemonic
// string. It returns "" for unrecognized opcodes, matching the reference
// model's identify_instruction behavior for opcodes it does not catalog.
func Disassemble(word uint32) string {
	f := Decode(word)

	if f.Opcode == OpNOP {
		return "NOP"
	}

	if f.Opcode == OpRType {
		mnemonic, ok := funcCatalog[f.Func]
		if !ok {
			return ""
		}
		return mnemonic + "  R" + itoa(f.Rd) + ", R" + itoa(f.Rs1) + ", R" + itoa(f.Rs2)
	}

	info, ok := opcodeCatalog[f.Opcode]
	if !ok {
		return ""
	}

	switch info.Format {
	case FormatJ:
		return info.Mnemonic + " " + hex32(jTypeImm(word))
	case FormatBranch:
		return info.Mnemonic + " R" + itoa(f.Rs1) + ", " + hex32(f.Imm16)
	case FormatI:
		return info.Mnemonic + " R" + itoa(f.Rd) + ", R" + itoa(f.Rs1) + ", " + hex32(f.Imm16)
	default:
		return ""
	}
}

func itoa(v uint8) string {
	if v >= 10 {
		return string([]byte{'0' + v/10, '0' + v%10})
	}
	return string([]byte{'0' + v})
}

func hex32(v int32) string {
	const digits = "0123456789ABCDEF"
	u := uint32(v)
	buf := make([]byte, 0, 10)
	buf = append(buf, '0', 'x')
	started := false
	for shift := 28; shift >= 0; shift -= 4 {
		d := byte(u>>uint(shift)) & 0xF
		if d != 0 || started || shift == 0 {
			buf = append(buf, digits[d])
			started = true
		}
	}
	return string(buf)
}
