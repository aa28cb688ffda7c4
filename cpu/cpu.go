// Package cpu implements a cycle-accurate MOS 6502 core. The chip advances
// exactly one bus cycle per call to Step and interacts with the outside
// world only through its pin latches (Addr/Data/RW) — it never reads or
// writes memory directly. An enclosing system is expected to service those
// pins between Step calls, the same way real memory sits on the bus.
package cpu

import "fmt"

// Status flag bit positions, packed N V - B D I Z C from bit 7 to bit 0.
const (
	PNegative  = uint8(0x80)
	POverflow  = uint8(0x40)
	PAlwaysOne = uint8(0x20) // bit 5; always reads as 1
	PBreak     = uint8(0x10) // only meaningful in the byte pushed by BRK
	PDecimal   = uint8(0x08)
	PInterrupt = uint8(0x04)
	PZero      = uint8(0x02)
	PCarry     = uint8(0x01)
)

// Interrupt vectors.
const (
	NMIVector   = uint16(0xFFFA)
	ResetVector = uint16(0xFFFC)
	IRQVector   = uint16(0xFFFE)
)

// InvalidState reports an internal precondition failure in the micro-step
// sequencers — an IPC value a sequencer wasn't built to handle, or a
// sequencer stepped with no active instruction or addressing mode. This
// should never happen from
// any sequence of public calls; seeing one indicates a bug in this package.
type InvalidState struct {
	Reason string
}

func (e InvalidState) Error() string {
	return fmt.Sprintf("invalid cpu state: %s", e.Reason)
}

// UnimplementedOpcode is raised as a diagnostic (not a halt — see
// DESIGN.md) whenever the decoder cannot identify an opcode, whether
// because it is a genuinely undocumented/illegal opcode (a Non-goal of
// this module) or because it decodes to a combination the 6502 never
// defines.
type UnimplementedOpcode struct {
	Opcode uint8
	PC     uint16
}

func (e UnimplementedOpcode) Error() string {
	return fmt.Sprintf("unimplemented opcode 0x%02X at PC=0x%04X", e.Opcode, e.PC)
}

// RW is the chip's read/write pin. Read (true) means the host should place
// a byte onto Data before the next Step call; Write (false) means the host
// should store Data at Addr.
type RW bool

const (
	Read  RW = true
	Write RW = false
)

// Pins is the chip's entire boundary with the outside world.
type Pins struct {
	Addr uint16
	Data uint8
	RW   RW
}

// instr tags the active instruction sequencer. The zero value, instrNone,
// means no instruction is in flight and the next cycle decodes a fresh
// opcode.
type instr int

// addrMode tags the active addressing-mode sequencer. The zero value,
// addrNone, means addressing either hasn't started, is already complete,
// or doesn't apply (instructions that manage their own cycles, like JSR
// or the branches, run with addrMode permanently addrNone).
type addrMode int

// Chip holds the full architectural and micro-architectural state of one
// 6502. The zero value is not valid; use New.
type Chip struct {
	// Architectural registers.
	A, X, Y, S, P uint8
	PC            uint16

	// Pins is the chip's external interface. The host reads/writes this
	// directly between Step calls; see package doc.
	Pins Pins

	// ALU scratch, named to match the spec this core follows: a and b are
	// operands staged across cycles, c is the staged result.
	aluA, aluB, aluC uint8

	// Micro-sequencer state.
	ir      uint8
	ipc     int
	addrBuf uint16
	in      instr
	mode    addrMode

	// indexReg records the decode-time addressing-mode substitution (LDX/
	// STX use zp,Y instead of zp,X, LDX uses abs,Y instead of abs,X; JMP manages its own
	// addressing and never sets mode) so the addressing-mode step
	// functions can stay mode-agnostic about which register is indexing.
	indexReg *uint8 // which register (X or Y) the active indexed mode uses

	// Addressing-mode scratch: low/high bytes of the address under
	// construction, and whether adding an index crossed a page (forcing
	// a fixup cycle on read instructions; write/RMW instructions always
	// take the fixup cycle regardless, matching real silicon).
	scratchLo, scratchHi uint8
	pageCrossed          bool

	// Interrupt latch: one pending request plus its configured entry
	// behavior. See interrupt.go.
	intLatch

	// deferFetch/awaitingFetch split the opcode-fetch-address-assert out
	// of an instruction's final cycle when that cycle is itself a write:
	// only one address can be on the bus per cycle, so a completing
	// write cannot also carry the next opcode fetch the way a completing
	// read can (see Step).
	deferFetch    bool
	awaitingFetch bool

	// Diagnostics, observable but not part of the architectural state.
	DecimalModeEntries uint64 // count of ADC/SBC ticks seen with D=1
	LastUnimplemented  *UnimplementedOpcode
}

// New returns a Chip in the documented reset-prelude state: S=0x00,
// P=0b00110110, PC=0, pins idle on a read of address 0. A RES signal must
// be asserted (RaiseReset + enough Step calls to run the reset sequence)
// before the chip executes anything meaningful; the reset sequence's
// three suppressed stack "pushes" then leave S at the conventional 0xFD.
func New() *Chip {
	c := &Chip{}
	c.Init()
	return c
}

// Init places c in the documented post-construction state. It is exported
// separately from New so a Chip can be reused/reset to this prelude
// without reallocating.
func (c *Chip) Init() {
	c.A, c.X, c.Y = 0, 0, 0
	c.S = 0x00
	c.P = 0b00110110
	c.PC = 0
	c.aluA, c.aluB, c.aluC = 0, 0, 0
	c.ir = 0
	c.ipc = 0
	c.addrBuf = 0
	c.in = instrNone
	c.mode = addrNone
	c.indexReg = nil
	c.intLatch = intLatch{}
	c.Pins = Pins{Addr: 0, Data: 0, RW: Read}
	c.deferFetch = false
	c.awaitingFetch = false
	c.DecimalModeEntries = 0
	c.LastUnimplemented = nil
}

// IR returns the latched opcode of the instruction currently executing (or
// most recently decoded).
func (c *Chip) IR() uint8 { return c.ir }

// IPC returns the intra-instruction program counter: the micro-cycle
// index within the current addressing-mode or instruction phase.
func (c *Chip) IPC() int { return c.ipc }

// AddrBuf returns the 16-bit scratch address accumulator used across
// multi-cycle addressing.
func (c *Chip) AddrBuf() uint16 { return c.addrBuf }

// InstructionActive reports whether an instruction is mid-flight (false
// means the next Step call will decode a fresh opcode).
func (c *Chip) InstructionActive() bool { return c.in != instrNone }

// AddressingActive reports whether the addressing-mode sequencer is
// mid-flight.
func (c *Chip) AddressingActive() bool { return c.mode != addrNone }

// Addr, Data, SetData and IsRead implement memory.Pins, letting a host bank
// service this chip's bus without either package importing the other.
func (c *Chip) Addr() uint16    { return c.Pins.Addr }
func (c *Chip) Data() uint8     { return c.Pins.Data }
func (c *Chip) SetData(v uint8) { c.Pins.Data = v }
func (c *Chip) IsRead() bool    { return c.Pins.RW == Read }

// Step advances the chip by exactly one bus cycle. See the package doc and
// SPEC_FULL.md §2 for the overall fetch/decode/execute cascade this
// implements.
func (c *Chip) Step() error {
	// Invariant: rw defaults to READ every cycle unless something below
	// explicitly drives a write.
	c.Pins.RW = Read

	// A completing write can't also carry the next opcode fetch address
	// (only one address fits on the bus per cycle) — that fetch was
	// deferred to its own cycle here, with nothing else to do.
	if c.awaitingFetch {
		c.awaitingFetch = false
		c.fetch()
		return nil
	}

	if c.in == instrNone {
		if err := c.startCycle(); err != nil {
			return err
		}
	}

	if c.mode != addrNone {
		done, err := c.stepAddrMode()
		if err != nil {
			return err
		}
		if done {
			c.mode = addrNone
			c.ipc = 0
		} else {
			c.ipc++
			return nil
		}
	}

	if c.mode == addrNone && c.in != instrNone {
		done, err := c.stepInstr()
		if err != nil {
			return err
		}
		if done {
			c.in = instrNone
			c.ipc = 0
			if c.deferFetch {
				c.deferFetch = false
				c.awaitingFetch = true
			} else {
				c.fetch()
			}
		} else {
			c.ipc++
		}
	}
	return nil
}

// startCycle runs the decode phase: either servicing a pending interrupt
// by injecting the BRK sequencer, or decoding whatever opcode byte is
// currently sitting on the data pins. This never costs a bus cycle of its
// own — it always falls through into the first micro-step of whatever it
// just selected, within the same Step call, matching real hardware's
// overlapped decode.
func (c *Chip) startCycle() error {
	if c.pending() {
		c.enterInterrupt()
		return nil
	}
	c.decode(c.Pins.Data)
	return nil
}

// fetch asserts an opcode-fetch cycle onto the pins: addr=PC, READ. PC
// itself is left untouched here — it still names the address of the byte
// being fetched, which is what an interrupt pending at this boundary (see
// pending/enterInterrupt) must push as the resume address. decode advances
// PC past the opcode once that byte is actually latched and consumed.
func (c *Chip) fetch() {
	c.Pins.RW = Read
	c.Pins.Addr = c.PC
}

// --- ALU / flag helpers -----------------------------------------------

func (c *Chip) setZero(v uint8) {
	c.P &^= PZero
	if v == 0 {
		c.P |= PZero
	}
}

func (c *Chip) setNegative(v uint8) {
	c.P &^= PNegative
	if v&PNegative != 0 {
		c.P |= PNegative
	}
}

// setCarryFromWide sets C based on a 9-bit-or-wider intermediate result:
// set if the value overflowed 8 bits (>= 0x100).
func (c *Chip) setCarryFromWide(res uint16) {
	c.P &^= PCarry
	if res >= 0x100 {
		c.P |= PCarry
	}
}

func (c *Chip) setCarry(set bool) {
	c.P &^= PCarry
	if set {
		c.P |= PCarry
	}
}

// setOverflow implements the canonical 6502 overflow test: set when the
// two operands share a sign that differs from the result's sign.
func (c *Chip) setOverflow(a, b, res uint8) {
	c.P &^= POverflow
	if (a^res)&(b^res)&PNegative != 0 {
		c.P |= POverflow
	}
}

// loadFlags updates N and Z from v, the common path for every
// load/transfer/logical/shift instruction.
func (c *Chip) loadFlags(v uint8) {
	c.setZero(v)
	c.setNegative(v)
}

// pushStack writes val to 0x0100|S and decrements S, wrapping modulo 256
// per invariant 1.
func (c *Chip) pushStack(val uint8) {
	c.Pins.RW = Write
	c.Pins.Addr = 0x0100 | uint16(c.S)
	c.Pins.Data = val
	c.S--
}

// pullStackAddr increments S and returns the address the next read should
// target; the caller still has to issue the read via the pins and consume
// the result on a later cycle (pulls take two cycles: bump S, then read).
func (c *Chip) pullStackAddr() uint16 {
	c.S++
	return 0x0100 | uint16(c.S)
}
