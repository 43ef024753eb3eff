/*
Copyright (C) 2019-2020 Andreas T Jonsson

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <http://www.gnu.org/licenses/>.
*/

package cpu

import (
	"github.com/andreas-jonsson/i8086-core/emulator/memory"
	"github.com/andreas-jonsson/i8086-core/emulator/processor"
)

// CPU is the fetch-decode-execute engine. Besides the register file it
// only keeps the last fetched opcode byte for diagnostics; everything
// else is per-step scratch.
type CPU struct {
	processor.Registers

	opcode   byte
	decodeAt uint16

	stats  processor.Stats
	tracer processor.Tracer
}

func NewCPU() *CPU {
	p := &CPU{}
	p.Reset()
	return p
}

func (p *CPU) Reset() {
	p.Registers.Reset()
	p.opcode = 0
}

// Opcode is the byte fetched by the most recent step.
func (p *CPU) Opcode() byte {
	return p.opcode
}

func (p *CPU) GetRegisters() *processor.Registers {
	return &p.Registers
}

func (p *CPU) GetStats() processor.Stats {
	s := p.stats
	p.stats = processor.Stats{}
	return s
}

func (p *CPU) SetTracer(t processor.Tracer) {
	p.tracer = t
}

func (p *CPU) readByte(bus processor.Bus, seg, offset uint16) byte {
	p.stats.RX++
	return bus.ReadByte(memory.NewPointer(seg, offset))
}

// readWord assembles a little-endian word from two byte reads. The
// second read wraps independently at the 20-bit boundary.
func (p *CPU) readWord(bus processor.Bus, seg, offset uint16) uint16 {
	p.stats.RX += 2
	addr := memory.NewPointer(seg, offset)
	lo := bus.ReadByte(addr)
	hi := bus.ReadByte(addr.Next())
	return uint16(lo) | uint16(hi)<<8
}

func (p *CPU) readOpcodeStream(bus processor.Bus) byte {
	v := p.readByte(bus, p.CS, p.IP)
	p.IP++
	return v
}

func (p *CPU) readOpcodeImm16(bus processor.Bus) uint16 {
	v := p.readWord(bus, p.CS, p.IP)
	p.IP += 2
	return v
}

func signExtend16(v byte) uint16 {
	return uint16(int16(int8(v)))
}

// Step executes exactly one instruction, fetch through flag update.
// The two fatal conditions are returned as errors with the register
// file rewound to its pre-fetch state.
func (p *CPU) Step(bus processor.Bus) error {
	p.decodeAt = p.IP
	p.opcode = p.readByte(bus, p.CS, p.IP)

	if p.tracer != nil {
		p.tracer.Trace(p.opcode, &p.Registers)
	}
	p.IP++

	handler := opcodeTable[p.opcode]
	if handler == nil {
		p.IP = p.decodeAt
		return &processor.UnimplementedOpcodeError{Opcode: p.opcode}
	}
	if err := handler(p, bus); err != nil {
		p.IP = p.decodeAt
		return err
	}

	p.stats.NumInstructions++
	return nil
}
