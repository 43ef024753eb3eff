/*
Copyright (c) 2019-2020 Andreas T Jonsson

This software is provided 'as-is', without any express or implied
warranty. In no event will the authors be held liable for any damages
arising from the use of this software.

Permission is granted to anyone to use this software for any purpose,
including commercial applications, and to alter it and redistribute it
freely, subject to the following restrictions:

1. The origin of this software must not be misrepresented; you must not
   claim that you wrote the original software. If you use this software
   in a product, an acknowledgment in the product documentation would be
   appreciated but is not required.
2. Altered source versions must be plainly marked as such, and must not be
   misrepresented as being the original software.
3. This notice may not be removed or altered from any source distribution.
*/

package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/spf13/afero"

	"github.com/andreas-jonsson/i8086-core/emulator/machine"
	"github.com/andreas-jonsson/i8086-core/emulator/memory"
	"github.com/andreas-jonsson/i8086-core/emulator/peripheral"
	"github.com/andreas-jonsson/i8086-core/emulator/peripheral/monitor"
	"github.com/andreas-jonsson/i8086-core/emulator/peripheral/ram"
	"github.com/andreas-jonsson/i8086-core/emulator/peripheral/rom"
	"github.com/andreas-jonsson/i8086-core/emulator/processor"
	"github.com/andreas-jonsson/i8086-core/emulator/processor/cpu"
	"github.com/andreas-jonsson/i8086-core/version"
)

var (
	imageFile string
	imageBase uint
	maxSteps  uint

	trace,
	useMonitor,
	cleanRAM,
	ver bool
)

func init() {
	flag.StringVar(&imageFile, "image", "", "Path to program image")
	flag.UintVar(&imageBase, "base", 0xFFFF, "Load segment of the image. The default maps it over the reset vector.")
	flag.UintVar(&maxSteps, "max-steps", 0, "Stop after this many instructions. 0 means run until fault.")

	flag.BoolVar(&trace, "trace", false, "Log every executed instruction")
	flag.BoolVar(&useMonitor, "monitor", false, "Show the register file in the terminal while running")
	flag.BoolVar(&cleanRAM, "clean-ram", false, "Zero initialize memory instead of scrambling it")
	flag.BoolVar(&ver, "v", false, "Print version information")
}

// traceLogger logs one line per instruction through the trace hook.
type traceLogger struct {
}

func (traceLogger) Trace(opcode byte, r *processor.Registers) {
	log.Printf("%04X:%04X %02X  AX=%04X CX=%04X DX=%04X BX=%04X SP=%04X BP=%04X SI=%04X DI=%04X FLAGS=%04X",
		r.CS, r.IP, opcode, r.AX(), r.CX(), r.DX(), r.BX(), r.SP, r.BP, r.SI, r.DI, r.Flags.Load())
}

func main() {
	flag.Parse()

	if ver {
		fmt.Println(version.Current.FullString())
		return
	}

	if imageFile == "" {
		log.Fatal("No program image! Use -image.")
	}

	fp, err := afero.NewOsFs().Open(imageFile)
	if err != nil {
		log.Fatal(err)
	}
	defer fp.Close()

	peripherals := []peripheral.Peripheral{
		&ram.Device{Clear: cleanRAM}, // RAM needs to go first since it maps the full memory range.
		&rom.Device{
			RomName: "Program ROM",
			Base:    memory.NewPointer(uint16(imageBase), 0),
			Reader:  fp,
		},
	}

	var mon *monitor.Device
	if useMonitor {
		mon = &monitor.Device{}
		peripherals = append(peripherals, mon)
	}

	m, err := machine.New(peripherals...)
	if err != nil {
		log.Fatal(err)
	}

	p := cpu.NewCPU()
	if mon != nil {
		p.SetTracer(mon)
	} else if trace {
		p.SetTracer(traceLogger{})
	}

	for steps := uint(0); maxSteps == 0 || steps < maxSteps; steps++ {
		if err := p.Step(m); err != nil {
			m.Close()
			stats := p.GetStats()
			log.Printf("Executed %d instructions.", stats.NumInstructions)
			log.Fatal(err)
		}
		if err := m.Step(1); err != nil {
			m.Close()
			log.Fatal(err)
		}
	}

	m.Close()
	stats := p.GetStats()
	log.Printf("Executed %d instructions. Halting at %04X:%04X.", stats.NumInstructions, p.CS, p.IP)
}
