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

package processor

import (
	"fmt"

	"github.com/andreas-jonsson/i8086-core/emulator/memory"
)

// Bus is the capability the execution engine drives all memory and port
// access through. It is borrowed for the duration of a single step and
// never retained. Every call is trusted to return a value; device-side
// failure policy is the bus owner's concern.
type Bus interface {
	memory.Memory
	memory.IO
}

type Stats struct {
	NumInstructions uint64
	RX, TX          uint64
}

// Tracer observes each fetched instruction before it executes. It is a
// diagnostic side channel and never part of the functional contract.
type Tracer interface {
	Trace(opcode byte, regs *Registers)
}

// UnimplementedOpcodeError reports a fetched byte with no entry in the
// dispatch table. The register file is left untouched.
type UnimplementedOpcodeError struct {
	Opcode byte
}

func (e *UnimplementedOpcodeError) Error() string {
	return fmt.Sprintf("unimplemented opcode: 0x%02X", e.Opcode)
}

// UnsupportedOperandError reports a memory-form rm operand for an opcode
// that only implements register operands. The register file is left
// untouched.
type UnsupportedOperandError struct {
	Opcode, ModRM byte
}

func (e *UnsupportedOperandError) Error() string {
	return fmt.Sprintf("memory operands not supported: opcode 0x%02X, modrm 0x%02X", e.Opcode, e.ModRM)
}
