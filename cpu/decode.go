package cpu

// Instruction tags. Grouped roughly by decode rule, matching the order
// decode() checks them in.
const (
	instrNone instr = iota

	// Loads/stores.
	instrLDA
	instrLDX
	instrLDY
	instrSTA
	instrSTX
	instrSTY

	// Register transfers.
	instrTAX
	instrTXA
	instrTAY
	instrTYA
	instrTSX
	instrTXS

	// Stack.
	instrPHA
	instrPHP
	instrPLA
	instrPLP

	// Arithmetic / logic (ALU group, read-operand).
	instrADC
	instrSBC
	instrAND
	instrORA
	instrEOR
	instrBIT
	instrCMP
	instrCPX
	instrCPY

	// Read-modify-write (memory or accumulator).
	instrASL
	instrLSR
	instrROL
	instrROR
	instrINC
	instrDEC

	// Register inc/dec.
	instrINX
	instrDEX
	instrINY
	instrDEY

	// Flags.
	instrCLC
	instrSEC
	instrCLI
	instrSEI
	instrCLV
	instrCLD
	instrSED

	// Control flow.
	instrJMP
	instrJSR
	instrRTS
	instrRTI
	instrBRK
	instrBranch
	instrNOP
)

// Addressing-mode tags.
const (
	addrNone addrMode = iota
	addrAccumulator
	addrImmediate
	addrZeroPage
	addrZeroPageIndexed
	addrAbsolute
	addrAbsoluteIndexed
	addrIndirectX
	addrIndirectY
)

// rmwClass distinguishes how the fused/final cycles of an instruction
// touch its operand, mirroring the load/rmw/store instruction-mode split
// the reference core's combinator helpers use.
type rmwClass int

const (
	classRead  rmwClass = iota // operand consumed, nothing written back
	classWrite                 // register value written to the effective address, no read
	classRMW                   // operand read, modified, written back
	classOther                 // control flow / stack / implied — doesn't fit the above
)

// decode examines ir (the opcode byte latched off the pins) and sets up
// c.in/c.mode/c.indexReg so the next Step calls can run the selected
// micro-sequencers. It never costs a bus cycle by itself — see Step's
// cascade.
func (c *Chip) decode(ir uint8) {
	c.ir = ir
	c.PC++ // opcode byte consumed; PC now names the next unread byte
	c.indexReg = nil

	cc := ir & 0x03
	aaa := (ir >> 5) & 0x07
	bbb := (ir >> 2) & 0x07

	switch {
	case ir == 0x00:
		c.in, c.mode = instrBRK, addrNone
		return
	case ir == 0x20:
		c.in, c.mode = instrJSR, addrNone
		return
	case ir == 0x40:
		c.in, c.mode = instrRTI, addrNone
		return
	case ir == 0x60:
		c.in, c.mode = instrRTS, addrNone
		return
	case ir&0x1F == 0x10:
		// xxx10000: conditional branches.
		c.in, c.mode = instrBranch, addrNone
		return
	case ir&0x0F == 0x08:
		// xxxx1000: single-byte stack/flag/inc-dec-register opcodes.
		c.decodeImpliedGroup(ir)
		return
	case ir&0x8F == 0x8A:
		// 1xxx1010: register-transfer/NOP group (TXA/TXS/TAX/TSX/DEX/NOP...
		// the canonical decode table intercepts these before the generic
		// (cc,aaa,bbb) lookup).
		c.decodeTransferGroup(ir)
		return
	}

	switch cc {
	case 0x01:
		c.decodeCC01(aaa, bbb)
	case 0x02:
		c.decodeCC10(aaa, bbb)
	case 0x00:
		c.decodeCC00(aaa, bbb)
	default:
		c.unimplemented(ir)
	}
}

// decodeImpliedGroup handles the xxxx1000 single-byte opcodes: PHP, PLP,
// PHA, PLA, DEY, TAY, INY, INX, CLC, SEC, CLI, SEI, TYA, CLV, CLD, SED.
func (c *Chip) decodeImpliedGroup(ir uint8) {
	c.mode = addrNone
	switch ir {
	case 0x08:
		c.in = instrPHP
	case 0x28:
		c.in = instrPLP
	case 0x48:
		c.in = instrPHA
	case 0x68:
		c.in = instrPLA
	case 0x88:
		c.in = instrDEY
	case 0xA8:
		c.in = instrTAY
	case 0xC8:
		c.in = instrINY
	case 0xE8:
		c.in = instrINX
	case 0x18:
		c.in = instrCLC
	case 0x38:
		c.in = instrSEC
	case 0x58:
		c.in = instrCLI
	case 0x78:
		c.in = instrSEI
	case 0x98:
		c.in = instrTYA
	case 0xB8:
		c.in = instrCLV
	case 0xD8:
		c.in = instrCLD
	case 0xF8:
		c.in = instrSED
	default:
		c.unimplemented(ir)
	}
}

// decodeTransferGroup handles the 1xxx1010 register-transfer/NOP opcodes:
// TXA, TXS, TAX, TSX, DEX, NOP.
func (c *Chip) decodeTransferGroup(ir uint8) {
	c.mode = addrNone
	switch ir {
	case 0x8A:
		c.in = instrTXA
	case 0x9A:
		c.in = instrTXS
	case 0xAA:
		c.in = instrTAX
	case 0xBA:
		c.in = instrTSX
	case 0xCA:
		c.in = instrDEX
	case 0xEA:
		c.in = instrNOP
	default:
		c.unimplemented(ir)
	}
}

// decodeCC01 handles the cc=01 group: ORA, AND, EOR, ADC, STA, LDA, CMP,
// SBC, addressed by bbb.
func (c *Chip) decodeCC01(aaa, bbb uint8) {
	if aaa == 4 && bbb == 2 {
		// STA has no immediate form; 0x89 is an undocumented opcode.
		c.unimplemented(c.ir)
		return
	}
	c.mode = cc01AddrModes[bbb]
	switch bbb {
	case 5:
		c.indexReg = &c.X // zp,X
	case 6:
		c.indexReg = &c.Y // abs,Y
	case 7:
		c.indexReg = &c.X // abs,X
	}
	switch aaa {
	case 0:
		c.in = instrORA
	case 1:
		c.in = instrAND
	case 2:
		c.in = instrEOR
	case 3:
		c.in = instrADC
	case 4:
		c.in = instrSTA
	case 5:
		c.in = instrLDA
	case 6:
		c.in = instrCMP
	case 7:
		c.in = instrSBC
	}
}

// cc01AddrModes maps bbb (cc=01 group) to addressing mode: (zp,X), zp, #,
// abs, (zp),Y, zp,X, abs,Y, abs,X.
var cc01AddrModes = [8]addrMode{
	addrIndirectX,
	addrZeroPage,
	addrImmediate,
	addrAbsolute,
	addrIndirectY,
	addrZeroPageIndexed,
	addrAbsoluteIndexed,
	addrAbsoluteIndexed,
}

// decodeCC10 handles the cc=10 group: ASL, ROL, LSR, ROR, STX, LDX, DEC,
// INC, addressed by bbb, with the LDX/STX zp,Y and LDX abs,Y override.
func (c *Chip) decodeCC10(aaa, bbb uint8) {
	ops := [8]instr{instrASL, instrROL, instrLSR, instrROR, instrSTX, instrLDX, instrDEC, instrINC}
	in := ops[aaa]
	isIndexReg := in == instrSTX || in == instrLDX

	switch bbb {
	case 0:
		// Immediate is only a legal slot for LDX; every other row's
		// bbb=0 byte is an undocumented opcode.
		if in != instrLDX {
			c.unimplemented(c.ir)
			return
		}
		c.mode = addrImmediate
	case 1:
		c.mode = addrZeroPage
	case 2:
		// Accumulator addressing is only legal for the shift/rotate
		// row; STX/LDX/DEC/INC have no accumulator form.
		if in != instrASL && in != instrROL && in != instrLSR && in != instrROR {
			c.unimplemented(c.ir)
			return
		}
		c.mode = addrAccumulator
	case 3:
		c.mode = addrAbsolute
	case 5:
		c.mode = addrZeroPageIndexed
		if isIndexReg {
			c.indexReg = &c.Y
		} else {
			c.indexReg = &c.X
		}
	case 7:
		// abs,X for every row except LDX, which takes abs,Y; STX has
		// no abs-indexed form at all on real silicon.
		if in == instrSTX {
			c.unimplemented(c.ir)
			return
		}
		c.mode = addrAbsoluteIndexed
		if in == instrLDX {
			c.indexReg = &c.Y
		} else {
			c.indexReg = &c.X
		}
	default:
		c.unimplemented(c.ir)
		return
	}
	c.in = in
}

// decodeCC00 handles the cc=00 group: BIT, JMP, JMP (abs) [handled above by
// literal opcode], STY, LDY, CPY, CPX.
func (c *Chip) decodeCC00(aaa, bbb uint8) {
	switch c.ir {
	case 0x4C:
		c.in, c.mode = instrJMP, addrNone
		return
	case 0x6C:
		c.in, c.mode = instrJMP, addrNone
		return
	}

	// aaa: 0 has no generic opcode (its only legal cc=00 byte, 0x00, is
	// BRK, decoded earlier), 2 and 3 are JMP's two forms (handled above as
	// literal opcodes).
	ops := [8]instr{instrNone, instrBIT, instrNone, instrNone, instrSTY, instrLDY, instrCPY, instrCPX}
	in := ops[aaa]
	if in == instrNone {
		c.unimplemented(c.ir)
		return
	}
	c.in = in

	// Immediate exists only for LDY/CPY/CPX, zp,X only for STY/LDY and
	// abs,X only for LDY; the other slots are undocumented opcodes.
	switch bbb {
	case 0:
		if in != instrLDY && in != instrCPY && in != instrCPX {
			c.unimplemented(c.ir)
			return
		}
		c.mode = addrImmediate
	case 1:
		c.mode = addrZeroPage
	case 3:
		c.mode = addrAbsolute
	case 5:
		if in != instrSTY && in != instrLDY {
			c.unimplemented(c.ir)
			return
		}
		c.mode = addrZeroPageIndexed
		c.indexReg = &c.X
	case 7:
		if in != instrLDY {
			c.unimplemented(c.ir)
			return
		}
		c.mode = addrAbsoluteIndexed
		c.indexReg = &c.X
	default:
		c.unimplemented(c.ir)
	}
}

// unimplemented records an undocumented/illegal opcode as a diagnostic
// and schedules a plain opcode fetch for the next cycle (rather than
// leaving the chip decoding the same stale byte forever), guaranteeing
// forward progress.
func (c *Chip) unimplemented(ir uint8) {
	c.in, c.mode = instrNone, addrNone
	c.LastUnimplemented = &UnimplementedOpcode{Opcode: ir, PC: c.PC - 1}
	c.awaitingFetch = true
}
