package memory_test

import (
	"testing"

	"github.com/go6502/m6502/memory"
)

type fakePins struct {
	addr uint16
	data uint8
	read bool
}

func (p *fakePins) Addr() uint16    { return p.addr }
func (p *fakePins) Data() uint8     { return p.data }
func (p *fakePins) SetData(v uint8) { p.data = v }
func (p *fakePins) IsRead() bool    { return p.read }

func TestDriveRead(t *testing.T) {
	bank := memory.NewRAM()
	bank.Write(0x1234, 0xAB)
	p := &fakePins{addr: 0x1234, read: true}
	memory.Drive(bank, p)
	if p.data != 0xAB {
		t.Errorf("data = 0x%02X, want 0xAB", p.data)
	}
}

func TestDriveWrite(t *testing.T) {
	bank := memory.NewRAM()
	p := &fakePins{addr: 0x1234, data: 0xCD, read: false}
	memory.Drive(bank, p)
	if got := bank.Read(0x1234); got != 0xCD {
		t.Errorf("bank[0x1234] = 0x%02X, want 0xCD", got)
	}
}

func TestLoadAtOverrun(t *testing.T) {
	bank := memory.NewRAM()
	if err := bank.LoadAt(0xFFFE, []uint8{1, 2, 3}); err == nil {
		t.Error("expected an overrun error")
	}
}
