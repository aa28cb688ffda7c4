package cpu

// stepInstr runs one micro-cycle of the active instruction sequencer. On
// the cycle where addressing-mode resolution completed (or didn't apply),
// it consumes c.aluB / c.addrBuf as appropriate for the opcode group.
func (c *Chip) stepInstr() (bool, error) {
	switch c.in {
	case instrLDA:
		c.A = c.aluB
		c.loadFlags(c.A)
		return true, nil
	case instrLDX:
		c.X = c.aluB
		c.loadFlags(c.X)
		return true, nil
	case instrLDY:
		c.Y = c.aluB
		c.loadFlags(c.Y)
		return true, nil
	case instrSTA:
		return c.stepStore(c.A)
	case instrSTX:
		return c.stepStore(c.X)
	case instrSTY:
		return c.stepStore(c.Y)

	case instrTAX:
		c.X = c.A
		c.loadFlags(c.X)
		return true, nil
	case instrTXA:
		c.A = c.X
		c.loadFlags(c.A)
		return true, nil
	case instrTAY:
		c.Y = c.A
		c.loadFlags(c.Y)
		return true, nil
	case instrTYA:
		c.A = c.Y
		c.loadFlags(c.A)
		return true, nil
	case instrTSX:
		c.X = c.S
		c.loadFlags(c.X)
		return true, nil
	case instrTXS:
		c.S = c.X // TXS alone touches no flags
		return true, nil

	case instrPHA:
		return c.stepPush(c.A)
	case instrPHP:
		// The byte pushed by PHP always has bits 4 and 5 set, regardless
		// of the live B flag (which only exists on the stack image).
		return c.stepPush(c.P | PBreak | PAlwaysOne)
	case instrPLA:
		return c.stepPull(func(v uint8) { c.A = v; c.loadFlags(c.A) })
	case instrPLP:
		return c.stepPull(func(v uint8) { c.P = (v &^ PBreak) | PAlwaysOne })

	case instrADC:
		c.doADC(c.aluB)
		return true, nil
	case instrSBC:
		c.doSBC(c.aluB)
		return true, nil
	case instrAND:
		c.A &= c.aluB
		c.loadFlags(c.A)
		return true, nil
	case instrORA:
		c.A |= c.aluB
		c.loadFlags(c.A)
		return true, nil
	case instrEOR:
		c.A ^= c.aluB
		c.loadFlags(c.A)
		return true, nil
	case instrBIT:
		c.setZero(c.A & c.aluB)
		c.P &^= (PNegative | POverflow)
		c.P |= c.aluB & (PNegative | POverflow)
		return true, nil
	case instrCMP:
		c.doCompare(c.A, c.aluB)
		return true, nil
	case instrCPX:
		c.doCompare(c.X, c.aluB)
		return true, nil
	case instrCPY:
		c.doCompare(c.Y, c.aluB)
		return true, nil

	case instrASL:
		return c.stepRMW(func(v uint8) uint8 {
			c.setCarry(v&0x80 != 0)
			return v << 1
		})
	case instrLSR:
		return c.stepRMW(func(v uint8) uint8 {
			c.setCarry(v&0x01 != 0)
			return v >> 1
		})
	case instrROL:
		return c.stepRMW(func(v uint8) uint8 {
			in := uint8(0)
			if c.P&PCarry != 0 {
				in = 1
			}
			c.setCarry(v&0x80 != 0)
			return v<<1 | in
		})
	case instrROR:
		return c.stepRMW(func(v uint8) uint8 {
			in := uint8(0)
			if c.P&PCarry != 0 {
				in = 0x80
			}
			c.setCarry(v&0x01 != 0)
			return v>>1 | in
		})
	case instrINC:
		return c.stepRMW(func(v uint8) uint8 { return v + 1 })
	case instrDEC:
		return c.stepRMW(func(v uint8) uint8 { return v - 1 })

	case instrINX:
		c.X++
		c.loadFlags(c.X)
		return true, nil
	case instrDEX:
		c.X--
		c.loadFlags(c.X)
		return true, nil
	case instrINY:
		c.Y++
		c.loadFlags(c.Y)
		return true, nil
	case instrDEY:
		c.Y--
		c.loadFlags(c.Y)
		return true, nil

	case instrCLC:
		c.P &^= PCarry
		return true, nil
	case instrSEC:
		c.P |= PCarry
		return true, nil
	case instrCLI:
		c.P &^= PInterrupt
		return true, nil
	case instrSEI:
		c.P |= PInterrupt
		return true, nil
	case instrCLV:
		c.P &^= POverflow
		return true, nil
	case instrCLD:
		c.P &^= PDecimal
		return true, nil
	case instrSED:
		c.P |= PDecimal
		return true, nil
	case instrNOP:
		return true, nil

	case instrJMP:
		return c.stepJMP()
	case instrJSR:
		return c.stepJSR()
	case instrRTS:
		return c.stepRTS()
	case instrRTI:
		return c.stepRTI()
	case instrBRK:
		return c.stepBRKSequence()
	case instrBranch:
		return c.stepBranch()
	}
	return false, InvalidState{Reason: "stepInstr invoked with no active instruction"}
}

// stepStore runs the single fused write cycle shared by STA/STX/STY.
func (c *Chip) stepStore(v uint8) (bool, error) {
	c.Pins.RW = Write
	c.Pins.Addr = c.addrBuf
	c.Pins.Data = v
	c.deferFetch = true
	return true, nil
}

// stepPush runs the single fused write cycle shared by PHA/PHP. The
// dummy read that precedes it (real hardware reads the about-to-be-
// fetched next byte while internally preparing the push) runs at ipc 0,
// fused with decode; this is ipc 1.
func (c *Chip) stepPush(v uint8) (bool, error) {
	switch c.ipc {
	case 0:
		c.Pins.RW = Read
		c.Pins.Addr = c.PC
		return false, nil
	case 1:
		c.pushStack(v)
		c.deferFetch = true
		return true, nil
	}
	return false, InvalidState{Reason: "push sequencer ipc out of range"}
}

// stepPull runs the dummy-read / stack-pointer-advance / pull sequence
// shared by PLA/PLP, invoking apply with the pulled byte on its last
// cycle.
func (c *Chip) stepPull(apply func(uint8)) (bool, error) {
	switch c.ipc {
	case 0:
		c.Pins.RW = Read
		c.Pins.Addr = c.PC
		return false, nil
	case 1:
		c.Pins.RW = Read
		c.Pins.Addr = 0x0100 | uint16(c.S)
		return false, nil
	case 2:
		c.Pins.RW = Read
		c.Pins.Addr = c.pullStackAddr()
		return false, nil
	case 3:
		apply(c.Pins.Data)
		return true, nil
	}
	return false, InvalidState{Reason: "pull sequencer ipc out of range"}
}

// stepRMW runs the read-modify-write tail shared by every ASL/LSR/ROL/
// ROR/INC/DEC opcode. For Accumulator addressing the whole thing is one
// cycle (no bus access at all); for a memory operand it is the canonical
// dummy-write-old-value-then-write-new-value pair.
func (c *Chip) stepRMW(op func(uint8) uint8) (bool, error) {
	// Step has already cleared c.mode by now, so the accumulator form is
	// recognised from the opcode itself (cc=10, bbb=010: 0A/2A/4A/6A).
	if c.ir&0x1F == 0x0A {
		c.A = op(c.A)
		c.loadFlags(c.A)
		return true, nil
	}

	switch c.ipc {
	case 0:
		result := op(c.aluB)
		c.aluC = result
		// Dummy write-back of the unmodified value, matching real
		// silicon's read-modify-write bus pattern.
		c.Pins.RW = Write
		c.Pins.Addr = c.addrBuf
		c.Pins.Data = c.aluB
		return false, nil
	case 1:
		c.Pins.RW = Write
		c.Pins.Addr = c.addrBuf
		c.Pins.Data = c.aluC
		c.loadFlags(c.aluC)
		c.deferFetch = true
		return true, nil
	}
	return false, InvalidState{Reason: "RMW sequencer ipc out of range"}
}

// doADC implements signed/unsigned add-with-carry. Decimal mode is
// acknowledged but not implemented: when D is set the operation still
// executes as pure binary arithmetic, and the attempt is counted rather
// than rejected.
func (c *Chip) doADC(operand uint8) {
	if c.P&PDecimal != 0 {
		c.DecimalModeEntries++
	}
	carryIn := uint16(0)
	if c.P&PCarry != 0 {
		carryIn = 1
	}
	sum := uint16(c.A) + uint16(operand) + carryIn
	result := uint8(sum)
	c.setOverflow(c.A, operand, result)
	c.setCarryFromWide(sum)
	c.A = result
	c.loadFlags(c.A)
}

// doSBC implements subtract-with-borrow via the standard ones'-complement
// trick: SBC operand is equivalent to ADC ^operand.
// doADC counts the decimal-mode entry, so it is not counted here as well.
func (c *Chip) doSBC(operand uint8) {
	c.doADC(operand ^ 0xFF)
}

// doCompare implements CMP/CPX/CPY: reg - operand, flags only.
func (c *Chip) doCompare(reg, operand uint8) {
	result := reg - operand
	c.setCarry(reg >= operand)
	c.loadFlags(result)
}

// stepJMP handles both JMP forms. Absolute JMP clears addressing entirely
// (per §4.5) and drives its own two-byte target fetch; JMP (indirect)
// adds the famous page-wrap bug: if the pointer's low byte is 0xFF, the
// high byte of the target is read from the start of the same page rather
// than the next one.
func (c *Chip) stepJMP() (bool, error) {
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
		if c.ir == 0x4C {
			return false, nil
		}
		return false, nil
	case 2:
		c.scratchHi = c.Pins.Data
		if c.ir == 0x4C {
			c.PC = uint16(c.scratchHi)<<8 | uint16(c.scratchLo)
			return true, nil
		}
		// Indirect: scratchLo/scratchHi now hold the pointer address.
		c.addrBuf = uint16(c.scratchHi)<<8 | uint16(c.scratchLo)
		c.Pins.RW = Read
		c.Pins.Addr = c.addrBuf
		return false, nil
	case 3:
		c.scratchLo = c.Pins.Data // target low byte
		hiAddr := (c.addrBuf & 0xFF00) | ((c.addrBuf + 1) & 0x00FF)
		c.Pins.RW = Read
		c.Pins.Addr = hiAddr
		return false, nil
	case 4:
		c.scratchHi = c.Pins.Data
		c.PC = uint16(c.scratchHi)<<8 | uint16(c.scratchLo)
		return true, nil
	}
	return false, InvalidState{Reason: "JMP sequencer ipc out of range"}
}

// stepJSR pushes PC-1 (the address of JSR's last byte) high then low, then
// loads PC from the two-byte target, matching the real 6-cycle sequence
// including its idiosyncratic ordering (target low byte is fetched before
// the stack pushes, high byte after).
func (c *Chip) stepJSR() (bool, error) {
	switch c.ipc {
	case 0:
		c.Pins.RW = Read
		c.Pins.Addr = c.PC
		c.PC++
		return false, nil
	case 1:
		c.scratchLo = c.Pins.Data
		// Internal delay cycle (real hardware reads the stack here).
		c.Pins.RW = Read
		c.Pins.Addr = 0x0100 | uint16(c.S)
		return false, nil
	case 2:
		retAddr := c.PC
		c.pushStack(uint8(retAddr >> 8))
		return false, nil
	case 3:
		retAddr := c.PC
		c.pushStack(uint8(retAddr))
		return false, nil
	case 4:
		c.Pins.RW = Read
		c.Pins.Addr = c.PC
		c.PC++
		return false, nil
	case 5:
		c.scratchHi = c.Pins.Data
		c.PC = uint16(c.scratchHi)<<8 | uint16(c.scratchLo)
		return true, nil
	}
	return false, InvalidState{Reason: "JSR sequencer ipc out of range"}
}

// stepRTS pulls the return address pushed by JSR and adds 1 (JSR pushes
// the address of its own last byte, not the following instruction).
func (c *Chip) stepRTS() (bool, error) {
	switch c.ipc {
	case 0:
		c.Pins.RW = Read
		c.Pins.Addr = c.PC
		return false, nil
	case 1:
		c.Pins.RW = Read
		c.Pins.Addr = 0x0100 | uint16(c.S)
		return false, nil
	case 2:
		c.Pins.RW = Read
		c.Pins.Addr = c.pullStackAddr()
		return false, nil
	case 3:
		c.scratchLo = c.Pins.Data
		c.Pins.RW = Read
		c.Pins.Addr = c.pullStackAddr()
		return false, nil
	case 4:
		c.scratchHi = c.Pins.Data
		c.PC = uint16(c.scratchHi)<<8 | uint16(c.scratchLo)
		// Final internal cycle increments PC past JSR's last byte.
		c.Pins.RW = Read
		c.Pins.Addr = c.PC
		return false, nil
	case 5:
		c.PC++
		return true, nil
	}
	return false, InvalidState{Reason: "RTS sequencer ipc out of range"}
}

// stepRTI pulls P then PC low then PC high, resuming execution with no
// extra PC adjustment (unlike RTS, since BRK/interrupts push the address
// of the next instruction to execute, not the last byte of one).
func (c *Chip) stepRTI() (bool, error) {
	switch c.ipc {
	case 0:
		c.Pins.RW = Read
		c.Pins.Addr = c.PC
		return false, nil
	case 1:
		c.Pins.RW = Read
		c.Pins.Addr = 0x0100 | uint16(c.S)
		return false, nil
	case 2:
		c.Pins.RW = Read
		c.Pins.Addr = c.pullStackAddr()
		return false, nil
	case 3:
		c.P = (c.Pins.Data &^ PBreak) | PAlwaysOne
		c.Pins.RW = Read
		c.Pins.Addr = c.pullStackAddr()
		return false, nil
	case 4:
		c.scratchLo = c.Pins.Data
		c.Pins.RW = Read
		c.Pins.Addr = c.pullStackAddr()
		return false, nil
	case 5:
		c.scratchHi = c.Pins.Data
		c.PC = uint16(c.scratchHi)<<8 | uint16(c.scratchLo)
		return true, nil
	}
	return false, InvalidState{Reason: "RTI sequencer ipc out of range"}
}

// branchCond evaluates the flag test encoded in a branch opcode: bits 7:6
// select N/V/C/Z, bit 5 is the expected polarity.
func (c *Chip) branchCond() bool {
	var flag uint8
	switch (c.ir >> 6) & 0x03 {
	case 0:
		flag = PNegative
	case 1:
		flag = POverflow
	case 2:
		flag = PCarry
	case 3:
		flag = PZero
	}
	want := (c.ir>>5)&0x01 != 0
	return (c.P&flag != 0) == want
}

// stepBranch runs BPL/BMI/BVC/BVS/BCC/BCS/BNE/BEQ: 2 cycles if not taken,
// 3 if taken within the same page, 4 if the branch crosses a page.
func (c *Chip) stepBranch() (bool, error) {
	switch c.ipc {
	case 0:
		c.Pins.RW = Read
		c.Pins.Addr = c.PC
		c.PC++
		return false, nil
	case 1:
		offset := int8(c.Pins.Data)
		if !c.branchCond() {
			return true, nil
		}
		base := c.PC
		target := uint16(int32(base) + int32(offset))
		c.addrBuf = target
		c.pageCrossed = (base & 0xFF00) != (target & 0xFF00)
		// Dummy read at the not-yet-page-corrected PC, matching real
		// hardware's speculative same-page increment.
		c.Pins.RW = Read
		c.Pins.Addr = uint16(base&0xFF00) | (target & 0x00FF)
		return false, nil
	case 2:
		if !c.pageCrossed {
			c.PC = c.addrBuf
			return true, nil
		}
		c.Pins.RW = Read
		c.Pins.Addr = c.addrBuf
		return false, nil
	case 3:
		c.PC = c.addrBuf
		return true, nil
	}
	return false, InvalidState{Reason: "branch sequencer ipc out of range"}
}
