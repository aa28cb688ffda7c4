// Command m6502demo loads a flat memory image, asserts RESET, and runs
// the chip either for a fixed number of cycles or until it hits an
// unimplemented opcode, printing register and cycle diagnostics as it
// goes.
package main

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"

	"gopkg.in/urfave/cli.v2"

	"github.com/go6502/m6502/cpu"
	"github.com/go6502/m6502/irq"
	"github.com/go6502/m6502/memory"
)

func main() {
	app := &cli.App{
		Name:    "m6502demo",
		Usage:   "run a flat memory image on the 6502 core",
		Version: "v0.0.1",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "image",
				Aliases: []string{"i"},
				Usage:   "path to a flat binary memory image",
			},
			&cli.IntFlag{
				Name:  "load-at",
				Usage: "address the image is loaded at",
				Value: 0x0200,
			},
			&cli.StringFlag{
				Name:  "reset-vector",
				Usage: "override the reset vector (hex), default: load-at",
			},
			&cli.IntFlag{
				Name:  "cycles",
				Usage: "number of bus cycles to run; 0 runs until an unimplemented opcode",
				Value: 1000,
			},
			&cli.BoolFlag{
				Name:  "trace",
				Usage: "log PC and opcode on every instruction boundary",
			},
			&cli.BoolFlag{
				Name:  "irq",
				Usage: "raise a single IRQ once the machine is running, to exercise the interrupt controller",
			},
		},
		Action: run,
	}

	sort.Sort(cli.FlagsByName(app.Flags))
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	imagePath := c.String("image")
	if imagePath == "" {
		return cli.Exit("missing --image", 86)
	}
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return cli.Exit(fmt.Sprintf("reading image: %v", err), 1)
	}

	mem := memory.NewRAM()
	mem.PowerOn()
	loadAt := uint16(c.Int("load-at"))
	if err := mem.LoadAt(loadAt, data); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	resetVector := loadAt
	if rv := c.String("reset-vector"); rv != "" {
		v, err := strconv.ParseUint(rv, 16, 16)
		if err != nil {
			return cli.Exit(fmt.Sprintf("invalid --reset-vector: %v", err), 1)
		}
		resetVector = uint16(v)
	}
	if err := mem.LoadAt(cpu.ResetVector, []uint8{uint8(resetVector), uint8(resetVector >> 8)}); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	chip := cpu.New()
	chip.RaiseReset()

	line := &irq.Line{}
	irqArmed := c.Bool("irq")

	trace := c.Bool("trace")
	maxCycles := c.Int("cycles")
	lastPC := chip.PC
	decimalWarned := false

	for i := 0; maxCycles == 0 || i < maxCycles; i++ {
		// The chip samples IRQ at the start of a Step that begins on an
		// instruction boundary; remember whether this Step can take it.
		irqDeliverable := line.Raised() && !chip.InstructionActive() && !chip.AddressingActive() && chip.P&cpu.PInterrupt == 0
		if err := chip.Step(); err != nil {
			return cli.Exit(fmt.Sprintf("cycle %d: %v", i, err), 1)
		}
		memory.Drive(mem, chip)

		if irqArmed && i == 10 {
			line.Raise()
			chip.RaiseIRQ()
			irqArmed = false
		}
		if irqDeliverable && chip.InstructionActive() {
			line.Clear()
			chip.ClearIRQ()
		}

		if trace && !chip.InstructionActive() && !chip.AddressingActive() && chip.PC != lastPC {
			log.Printf("PC=0x%04X IR=0x%02X A=0x%02X X=0x%02X Y=0x%02X S=0x%02X P=0x%02X",
				chip.PC, chip.IR(), chip.A, chip.X, chip.Y, chip.S, chip.P)
			lastPC = chip.PC
		}
		if chip.LastUnimplemented != nil {
			if maxCycles == 0 {
				log.Printf("halting on unimplemented opcode: %v", chip.LastUnimplemented)
				break
			}
		}
		if !decimalWarned && chip.DecimalModeEntries > 0 {
			// Decimal mode is acknowledged but not implemented (see
			// DESIGN.md); surface it once so a user knows results from
			// this run may not match real BCD hardware.
			log.Printf("warning: decimal-mode ADC/SBC executed as binary (%d time(s) so far)", chip.DecimalModeEntries)
			decimalWarned = true
		}
	}

	log.Printf("final state: PC=0x%04X A=0x%02X X=0x%02X Y=0x%02X S=0x%02X P=0b%08b", chip.PC, chip.A, chip.X, chip.Y, chip.S, chip.P)
	return nil
}
