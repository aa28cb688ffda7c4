package cpu

// intLatch holds the interrupt controller's state: which lines are
// currently asserted, plus the parameters of whichever entry sequence is
// running (RES/NMI/IRQ/software BRK all share one 7-cycle sequencer,
// differing only in vector, whether the stack writes are suppressed, and
// whether the pushed status byte has its B bit set).
type intLatch struct {
	resPending bool
	nmiPending bool
	irqLine    bool

	active     bool   // an entry sequence (hardware or BRK) is in flight
	vector     uint16
	suppressWr bool // RES doesn't actually drive the bus for its "pushes"
	setBreak   bool // only software BRK sets the pushed P's B bit
}

// RaiseReset asserts RES. It takes priority over every other pending
// source and is serviced at the next instruction boundary.
func (c *Chip) RaiseReset() { c.resPending = true }

// RaiseNMI asserts the (edge-triggered, by convention) NMI line.
func (c *Chip) RaiseNMI() { c.nmiPending = true }

// RaiseIRQ asserts the (level-triggered, by convention) IRQ line. Per
// real 6502 behavior, whether this is serviced depends on the I flag at
// the moment the line is checked (the next instruction boundary), not at
// the moment it's raised.
func (c *Chip) RaiseIRQ() { c.irqLine = true }

// ClearIRQ deasserts IRQ, e.g. once the device that raised it has been
// acknowledged.
func (c *Chip) ClearIRQ() { c.irqLine = false }

// pending reports whether any interrupt source should be serviced at the
// next instruction boundary: RES and NMI unconditionally, IRQ only if I
// is currently clear.
func (c *Chip) pending() bool {
	return c.resPending || c.nmiPending || (c.irqLine && c.P&PInterrupt == 0)
}

// enterInterrupt configures the shared BRK-style sequencer for whichever
// hardware source is pending, in RES > NMI > IRQ priority order, and
// starts it running in place of a freshly decoded opcode.
func (c *Chip) enterInterrupt() {
	c.in, c.mode = instrBRK, addrNone
	c.ipc = 0
	c.active = true
	c.setBreak = false

	switch {
	case c.resPending:
		c.resPending = false
		c.vector = ResetVector
		c.suppressWr = true
	case c.nmiPending:
		c.nmiPending = false
		c.vector = NMIVector
		c.suppressWr = false
	default:
		// IRQ: irqLine is left asserted; it stays set until ClearIRQ,
		// and the I flag this sequence sets masks it in the meantime.
		c.vector = IRQVector
		c.suppressWr = false
	}
}

// stepBRKSequence runs the shared 7-cycle entry sequence. Software BRK
// (opcode 0x00, decoded directly rather than through enterInterrupt) is
// distinguished by c.active being false on its first cycle, at which
// point it configures itself exactly like an IRQ but with setBreak set
// and a throwaway operand byte read first (BRK is technically a 2-byte
// instruction; the second byte is conventionally a signature/padding
// byte the handler can inspect via the return address).
func (c *Chip) stepBRKSequence() (bool, error) {
	if !c.active {
		// Fresh software BRK: configure like IRQ entry, but mark it.
		c.active = true
		c.vector = IRQVector
		c.suppressWr = false
		c.setBreak = true
	}

	switch c.ipc {
	case 0:
		c.Pins.RW = Read
		c.Pins.Addr = c.PC
		if c.setBreak {
			c.PC++ // consume BRK's padding byte
		}
		return false, nil
	case 1:
		return c.brkWrite(uint8(c.PC >> 8))
	case 2:
		return c.brkWrite(uint8(c.PC))
	case 3:
		p := c.P | PAlwaysOne
		if c.setBreak {
			p |= PBreak
		} else {
			p &^= PBreak
		}
		return c.brkWrite(p)
	case 4:
		c.P |= PInterrupt
		c.Pins.RW = Read
		c.Pins.Addr = c.vector
		return false, nil
	case 5:
		c.scratchLo = c.Pins.Data
		c.Pins.RW = Read
		c.Pins.Addr = c.vector + 1
		return false, nil
	case 6:
		c.scratchHi = c.Pins.Data
		c.PC = uint16(c.scratchHi)<<8 | uint16(c.scratchLo)
		c.active = false
		return true, nil
	}
	return false, InvalidState{Reason: "interrupt sequencer ipc out of range"}
}

// brkWrite pushes val to the stack unless the entry is a RESET, which
// walks through the same three cycles but never actually asserts a bus
// write (real hardware decrements S without driving /WE).
func (c *Chip) brkWrite(val uint8) (bool, error) {
	if c.suppressWr {
		c.S--
		return false, nil
	}
	c.pushStack(val)
	return false, nil
}
