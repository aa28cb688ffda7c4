// Package memory defines the host side of the 6502 pin contract: a flat
// address space that answers the chip's addr/rw pins with a data byte on
// read, and accepts a data byte on write. The cpu package never imports
// this package — it only ever touches pins.Addr/pins.Data/pins.RW, and it
// is the caller's job to service those pins each cycle (see Drive).
package memory

import (
	"fmt"
	"math/rand"
	"time"
)

// Bank is a byte-addressable 64KB address space.
type Bank interface {
	// Read returns the data byte stored at addr.
	Read(addr uint16) uint8
	// Write updates addr with the new value. For ROM-backed regions this
	// is a no-op.
	Write(addr uint16, val uint8)
	// PowerOn resets the bank to its post-power-on contents.
	PowerOn()
}

// RAM implements Bank as flat, fully read/write 64KB storage.
type RAM struct {
	mem [1 << 16]uint8
}

// NewRAM returns a zeroed 64KB RAM bank.
func NewRAM() *RAM {
	return &RAM{}
}

// Read implements Bank.
func (r *RAM) Read(addr uint16) uint8 {
	return r.mem[addr]
}

// Write implements Bank.
func (r *RAM) Write(addr uint16, val uint8) {
	r.mem[addr] = val
}

// PowerOn implements Bank and randomizes contents, matching real SRAM
// power-on behavior (and the convention used throughout the reference
// emulators this module is patterned on).
func (r *RAM) PowerOn() {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := range r.mem {
		r.mem[i] = uint8(rnd.Intn(256))
	}
}

// LoadAt copies data into the bank starting at addr, for test/demo setup.
// Returns an error if the data would run past the top of the address space.
func (r *RAM) LoadAt(addr uint16, data []uint8) error {
	if int(addr)+len(data) > len(r.mem) {
		return fmt.Errorf("memory: load of %d bytes at 0x%04X overruns address space", len(data), addr)
	}
	copy(r.mem[addr:], data)
	return nil
}

// Pins is the subset of the chip's pin surface a Bank needs to service:
// Addr/Data/RW as described in the cpu package.
type Pins interface {
	Addr() uint16
	Data() uint8
	SetData(uint8)
	IsRead() bool
}

// Drive services one bus cycle of the pin contract against b: on a read
// cycle it places b's byte at the current address onto the pins; on a
// write cycle it stores the pins' data byte into b. Callers invoke this
// once between each call to (*cpu.Chip).Step, exactly mirroring how real
// memory sits on the bus.
func Drive(b Bank, p Pins) {
	if p.IsRead() {
		p.SetData(b.Read(p.Addr()))
		return
	}
	b.Write(p.Addr(), p.Data())
}
