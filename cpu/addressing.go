package cpu

// instrClass reports how the active instruction touches its effective
// address, which the indexed addressing modes need to know whether to
// take the page-cross fixup cycle unconditionally (write/RMW) or only
// when a page was actually crossed (read).
func (c *Chip) instrClass() rmwClass {
	switch c.in {
	case instrSTA, instrSTX, instrSTY:
		return classWrite
	case instrASL, instrLSR, instrROL, instrROR, instrINC, instrDEC:
		return classRMW
	case instrLDA, instrLDX, instrLDY, instrADC, instrSBC, instrAND, instrORA,
		instrEOR, instrBIT, instrCMP, instrCPX, instrCPY:
		return classRead
	default:
		return classOther
	}
}

// stepAddrMode runs one micro-cycle of the active addressing-mode
// sequencer. It returns done=true on the cycle that places the final
// operand byte into c.aluB (for read/RMW instructions) or the effective
// address into c.addrBuf (for writes, which never read the operand) —
// this is always the same Step call that also runs the instruction's
// first micro-step, per the fused-cycle rule of §4.4.
func (c *Chip) stepAddrMode() (bool, error) {
	switch c.mode {
	case addrAccumulator:
		return c.stepAccumulator()
	case addrImmediate:
		return c.stepImmediate()
	case addrZeroPage:
		return c.stepZeroPage()
	case addrZeroPageIndexed:
		return c.stepZeroPageIndexed()
	case addrAbsolute:
		return c.stepAbsolute()
	case addrAbsoluteIndexed:
		return c.stepAbsoluteIndexed()
	case addrIndirectX:
		return c.stepIndirectX()
	case addrIndirectY:
		return c.stepIndirectY()
	default:
		return false, InvalidState{Reason: "stepAddrMode invoked with no active addressing mode"}
	}
}

func (c *Chip) stepAccumulator() (bool, error) {
	// One cycle, no bus access: the instruction reads/writes c.A itself.
	return true, nil
}

func (c *Chip) stepImmediate() (bool, error) {
	switch c.ipc {
	case 0:
		c.Pins.RW = Read
		c.Pins.Addr = c.PC
		c.PC++
		return false, nil
	case 1:
		c.aluB = c.Pins.Data
		return true, nil
	}
	return false, InvalidState{Reason: "immediate addressing ipc out of range"}
}

func (c *Chip) stepZeroPage() (bool, error) {
	switch c.ipc {
	case 0:
		c.Pins.RW = Read
		c.Pins.Addr = c.PC
		c.PC++
		return false, nil
	case 1:
		c.addrBuf = uint16(c.Pins.Data)
		if c.instrClass() == classWrite {
			return true, nil
		}
		c.Pins.RW = Read
		c.Pins.Addr = c.addrBuf
		return false, nil
	case 2:
		c.aluB = c.Pins.Data
		return true, nil
	}
	return false, InvalidState{Reason: "zero page addressing ipc out of range"}
}

func (c *Chip) stepZeroPageIndexed() (bool, error) {
	switch c.ipc {
	case 0:
		c.Pins.RW = Read
		c.Pins.Addr = c.PC
		c.PC++
		return false, nil
	case 1:
		c.scratchLo = c.Pins.Data
		// Dummy read of the unindexed address while the index is added;
		// real hardware performs this cycle even though the result is
		// discarded.
		c.Pins.RW = Read
		c.Pins.Addr = uint16(c.scratchLo)
		return false, nil
	case 2:
		c.addrBuf = uint16(uint8(c.scratchLo + *c.indexReg)) // wraps within zero page
		if c.instrClass() == classWrite {
			return true, nil
		}
		c.Pins.RW = Read
		c.Pins.Addr = c.addrBuf
		return false, nil
	case 3:
		c.aluB = c.Pins.Data
		return true, nil
	}
	return false, InvalidState{Reason: "zero page indexed addressing ipc out of range"}
}

func (c *Chip) stepAbsolute() (bool, error) {
	switch c.ipc {
	case 0:
		c.Pins.RW = Read
		c.Pins.Addr = c.PC
		c.PC++
		return false, nil
	case 1:
		c.scratchLo = c.Pins.Data
		c.Pins.RW = Read
		c.Pins.Addr = c.PC
		c.PC++
		return false, nil
	case 2:
		c.scratchHi = c.Pins.Data
		c.addrBuf = uint16(c.scratchHi)<<8 | uint16(c.scratchLo)
		if c.instrClass() == classWrite {
			return true, nil
		}
		c.Pins.RW = Read
		c.Pins.Addr = c.addrBuf
		return false, nil
	case 3:
		c.aluB = c.Pins.Data
		return true, nil
	}
	return false, InvalidState{Reason: "absolute addressing ipc out of range"}
}

func (c *Chip) stepAbsoluteIndexed() (bool, error) {
	switch c.ipc {
	case 0:
		c.Pins.RW = Read
		c.Pins.Addr = c.PC
		c.PC++
		return false, nil
	case 1:
		c.scratchLo = c.Pins.Data
		c.Pins.RW = Read
		c.Pins.Addr = c.PC
		c.PC++
		return false, nil
	case 2:
		c.scratchHi = c.Pins.Data
		idx := *c.indexReg
		sum := uint16(c.scratchLo) + uint16(idx)
		c.pageCrossed = sum > 0xFF
		// Optimistic address: correct low byte, but the high byte isn't
		// fixed up yet if a carry out of the low byte occurred.
		c.addrBuf = uint16(c.scratchHi)<<8 | (sum & 0xFF)
		c.Pins.RW = Read
		c.Pins.Addr = c.addrBuf
		return false, nil
	case 3:
		needsFixup := c.pageCrossed || c.instrClass() != classRead
		if !needsFixup {
			c.aluB = c.Pins.Data
			return true, nil
		}
		base := uint16(c.scratchHi)<<8 | uint16(c.scratchLo)
		c.addrBuf = base + uint16(*c.indexReg)
		c.Pins.RW = Read
		c.Pins.Addr = c.addrBuf
		if c.instrClass() == classWrite {
			return true, nil
		}
		return false, nil
	case 4:
		c.aluB = c.Pins.Data
		return true, nil
	}
	return false, InvalidState{Reason: "absolute indexed addressing ipc out of range"}
}

func (c *Chip) stepIndirectX() (bool, error) {
	switch c.ipc {
	case 0:
		c.Pins.RW = Read
		c.Pins.Addr = c.PC
		c.PC++
		return false, nil
	case 1:
		c.scratchLo = c.Pins.Data // zero-page base pointer
		c.Pins.RW = Read
		c.Pins.Addr = uint16(c.scratchLo) // dummy read before the index add
		return false, nil
	case 2:
		ptr := uint8(c.scratchLo + c.X)
		c.addrBuf = uint16(ptr)
		c.Pins.RW = Read
		c.Pins.Addr = c.addrBuf
		return false, nil
	case 3:
		c.scratchLo = c.Pins.Data // effective address low byte
		c.Pins.RW = Read
		c.Pins.Addr = (c.addrBuf + 1) & 0x00FF // pointer wraps within zero page
		return false, nil
	case 4:
		c.scratchHi = c.Pins.Data
		c.addrBuf = uint16(c.scratchHi)<<8 | uint16(c.scratchLo)
		if c.instrClass() == classWrite {
			return true, nil
		}
		c.Pins.RW = Read
		c.Pins.Addr = c.addrBuf
		return false, nil
	case 5:
		c.aluB = c.Pins.Data
		return true, nil
	}
	return false, InvalidState{Reason: "indirect,X addressing ipc out of range"}
}

func (c *Chip) stepIndirectY() (bool, error) {
	switch c.ipc {
	case 0:
		c.Pins.RW = Read
		c.Pins.Addr = c.PC
		c.PC++
		return false, nil
	case 1:
		c.addrBuf = uint16(c.Pins.Data) // zero-page pointer address
		c.Pins.RW = Read
		c.Pins.Addr = c.addrBuf
		return false, nil
	case 2:
		c.scratchLo = c.Pins.Data // base address low byte
		c.Pins.RW = Read
		c.Pins.Addr = (c.addrBuf + 1) & 0x00FF
		return false, nil
	case 3:
		c.scratchHi = c.Pins.Data // base address high byte
		sum := uint16(c.scratchLo) + uint16(c.Y)
		c.pageCrossed = sum > 0xFF
		c.addrBuf = uint16(c.scratchHi)<<8 | (sum & 0xFF)
		c.Pins.RW = Read
		c.Pins.Addr = c.addrBuf
		return false, nil
	case 4:
		needsFixup := c.pageCrossed || c.instrClass() != classRead
		if !needsFixup {
			c.aluB = c.Pins.Data
			return true, nil
		}
		base := uint16(c.scratchHi)<<8 | uint16(c.scratchLo)
		c.addrBuf = base + uint16(c.Y)
		c.Pins.RW = Read
		c.Pins.Addr = c.addrBuf
		if c.instrClass() == classWrite {
			return true, nil
		}
		return false, nil
	case 5:
		c.aluB = c.Pins.Data
		return true, nil
	}
	return false, InvalidState{Reason: "indirect,Y addressing ipc out of range"}
}
