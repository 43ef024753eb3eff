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
	"github.com/andreas-jonsson/i8086-core/emulator/processor"
)

// ModRM addressing mode field values.
const (
	modeNoDisp   = 0 // memory operand, no displacement (rm=6 is a direct address)
	modeDisp8    = 1 // memory operand, 8-bit displacement follows
	modeDisp16   = 2 // memory operand, 16-bit displacement follows
	modeRegister = 3
)

type OperandKind byte

const (
	OperandRegister OperandKind = iota
	OperandMemory
)

// Operand is one decoded ModRM field: either a direct register
// reference or a memory reference that still needs address
// computation and bus access.
type Operand struct {
	Kind OperandKind

	// Reg is a register index 0-7. Whether it names a byte, word or
	// segment register depends on the opcode. Valid for OperandRegister.
	Reg byte

	// Mem is the address recipe. Valid for OperandMemory.
	Mem EffectiveAddress
}

// EffectiveAddress describes how a memory operand's offset is computed.
// The displacement bytes are still in the instruction stream; the
// consumer is responsible for reading DispBytes of them and advancing IP.
type EffectiveAddress struct {
	Base, Index       processor.Reg16
	HasBase, HasIndex bool

	// Seg is the default segment for this addressing form.
	Seg processor.SegReg

	// DispBytes is the number of trailing displacement bytes.
	DispBytes int

	// Direct marks the mode 0, rm 6 form: a bare 16-bit address with
	// no base or index register.
	Direct bool
}

type OperandPair struct {
	Reg, RM Operand
}

// Base forms for the eight rm values. BP-relative forms default to the
// stack segment, everything else to the data segment.
var effectiveAddressTable = [8]EffectiveAddress{
	{Base: processor.BX, Index: processor.SI, HasBase: true, HasIndex: true, Seg: processor.DS},
	{Base: processor.BX, Index: processor.DI, HasBase: true, HasIndex: true, Seg: processor.DS},
	{Base: processor.BP, Index: processor.SI, HasBase: true, HasIndex: true, Seg: processor.SS},
	{Base: processor.BP, Index: processor.DI, HasBase: true, HasIndex: true, Seg: processor.SS},
	{Index: processor.SI, HasIndex: true, Seg: processor.DS},
	{Index: processor.DI, HasIndex: true, Seg: processor.DS},
	{Base: processor.BP, HasBase: true, Seg: processor.SS},
	{Base: processor.BX, HasBase: true, Seg: processor.DS},
}

// DecodeModRegRM partitions one ModRM byte into its operand pair:
// bits 7-6 select the addressing mode, bits 5-3 the reg field and
// bits 2-0 the rm field. Total over all 256 bytes, touches no bus.
func DecodeModRegRM(b byte) OperandPair {
	mode, reg, rm := b>>6, (b>>3)&7, b&7

	pair := OperandPair{Reg: Operand{Kind: OperandRegister, Reg: reg}}
	if mode == modeRegister {
		pair.RM = Operand{Kind: OperandRegister, Reg: rm}
		return pair
	}

	ea := effectiveAddressTable[rm]
	switch mode {
	case modeNoDisp:
		if rm == 6 {
			ea = EffectiveAddress{Seg: processor.DS, Direct: true, DispBytes: 2}
		}
	case modeDisp8:
		ea.DispBytes = 1
	case modeDisp16:
		ea.DispBytes = 2
	}

	pair.RM = Operand{Kind: OperandMemory, Mem: ea}
	return pair
}

// registerOperand unwraps a register-form operand or reports the
// addressing-mode gap: no implemented opcode takes a memory rm.
func (p *CPU) registerOperand(o Operand, modRM byte) (byte, error) {
	switch o.Kind {
	case OperandRegister:
		return o.Reg, nil
	case OperandMemory:
		return 0, &processor.UnsupportedOperandError{Opcode: p.opcode, ModRM: modRM}
	}
	return 0, &processor.UnsupportedOperandError{Opcode: p.opcode, ModRM: modRM}
}
