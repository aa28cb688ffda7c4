// Command m6502debug is an interactive single-step debug console for the
// core: a small bubbletea TUI that renders registers, flags, a memory
// page table and the chip's current micro-state, advancing one bus cycle
// per spacebar press. It sits entirely outside the core's pin boundary —
// exactly the kind of external "debug/trace console" collaborator the
// core itself never depends on.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"

	"github.com/go6502/m6502/cpu"
	"github.com/go6502/m6502/memory"
)

type model struct {
	chip *cpu.Chip
	mem  *memory.RAM

	offset uint16
	err    error
}

func (m model) Init() tea.Cmd {
	m.chip.RaiseReset()
	for i := 0; i < 7; i++ {
		_ = m.chip.Step()
		memory.Drive(m.mem, m.chip)
	}
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ", "n":
			if err := m.chip.Step(); err != nil {
				m.err = err
				return m, nil
			}
			memory.Drive(m.mem, m.chip)
		case "r":
			m.chip.Init()
			m.chip.RaiseReset()
			for i := 0; i < 7; i++ {
				_ = m.chip.Step()
				memory.Drive(m.mem, m.chip)
			}
		}
	}
	return m, nil
}

func (m model) renderPage(start uint16) string {
	s := fmt.Sprintf("%04x | ", start)
	for i := uint16(0); i < 16; i++ {
		addr := start + i
		val := m.mem.Read(addr)
		if addr == m.chip.PC {
			s += fmt.Sprintf("[%02x] ", val)
		} else {
			s += fmt.Sprintf(" %02x  ", val)
		}
	}
	return s
}

func (m model) pageTable() string {
	base := m.chip.PC &^ 0x00FF
	lines := []string{"addr |  0123456789abcdef"}
	for p := -1; p <= 1; p++ {
		start := base + uint16(p*16*5)
		lines = append(lines, m.renderPage(start))
	}
	return strings.Join(lines, "\n")
}

func (m model) status() string {
	flagNames := "NV-BDIZC"
	var flags strings.Builder
	for i := 0; i < 8; i++ {
		bit := uint8(1) << (7 - i)
		if m.chip.P&bit != 0 {
			flags.WriteByte(flagNames[i])
		} else {
			flags.WriteByte('.')
		}
	}
	return fmt.Sprintf(
		"PC: %04x  IR: %02x  IPC: %d\nA: %02x  X: %02x  Y: %02x  S: %02x\nP: %s (%08b)\ndecimal-mode entries: %d",
		m.chip.PC, m.chip.IR(), m.chip.IPC(),
		m.chip.A, m.chip.X, m.chip.Y, m.chip.S,
		flags.String(), m.chip.P,
		m.chip.DecimalModeEntries,
	)
}

func (m model) View() string {
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.pageTable(), "   ", m.status())
	footer := "space/n: step   r: re-run reset   q: quit"
	if m.err != nil {
		footer = fmt.Sprintf("error: %v\n%s", m.err, footer)
	}
	if m.chip.LastUnimplemented != nil {
		footer = fmt.Sprintf("last unimplemented: %v\n%s", m.chip.LastUnimplemented, footer)
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, "", footer, "", spew.Sdump(m.chip.Pins))
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: m6502debug <image-file> [load-addr-hex]")
		os.Exit(2)
	}
	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	loadAt := uint16(0x0200)
	if len(os.Args) > 2 {
		v, err := strconv.ParseUint(os.Args[2], 16, 16)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		loadAt = uint16(v)
	}
	mem := memory.NewRAM()
	if err := mem.LoadAt(loadAt, data); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := mem.LoadAt(cpu.ResetVector, []uint8{uint8(loadAt), uint8(loadAt >> 8)}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	m := model{chip: cpu.New(), mem: mem, offset: loadAt}
	if _, err := tea.NewProgram(m).Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
