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

type opcodeFunc func(p *CPU, bus processor.Bus) error

// opcodeTable is the closed dispatch surface: one entry per opcode
// byte, nil for every gap. A nil entry is an unconditional fault.
var opcodeTable [256]opcodeFunc

func init() {
	opcodeTable[0x32] = opXORRegRM8

	opcodeTable[0x70] = opJcc(processor.Overflow, true)  // JO
	opcodeTable[0x71] = opJcc(processor.Overflow, false) // JNO
	opcodeTable[0x72] = opJcc(processor.Carry, true)     // JC
	opcodeTable[0x73] = opJcc(processor.Carry, false)    // JNC
	opcodeTable[0x74] = opJcc(processor.Zero, true)      // JZ
	opcodeTable[0x75] = opJcc(processor.Zero, false)     // JNZ
	opcodeTable[0x78] = opJcc(processor.Sign, true)      // JS
	opcodeTable[0x79] = opJcc(processor.Sign, false)     // JNS
	opcodeTable[0x7A] = opJcc(processor.Parity, true)    // JP
	opcodeTable[0x7B] = opJcc(processor.Parity, false)   // JNP

	opcodeTable[0x8C] = opMOVRMSeg
	opcodeTable[0x8E] = opMOVSegRM

	opcodeTable[0x9E] = opSAHF
	opcodeTable[0x9F] = opLAHF

	for i := byte(0); i < 8; i++ { // MOV AL/CL/DL/BL/AH/CH/DH/BH,d8
		opcodeTable[0xB0+i] = opMOVReg8Imm(processor.Reg8FromNum(i))
	}
	for i := byte(0); i < 4; i++ { // MOV AX/CX/DX/BX,d16
		// The SP/BP/SI/DI forms (0xBC-0xBF) are not implemented.
		opcodeTable[0xB8+i] = opMOVReg16Imm(processor.Reg16FromNum(i))
	}

	opcodeTable[0xD0] = opShiftOne
	opcodeTable[0xD2] = opShiftCL

	opcodeTable[0xE9] = opJMPNear
	opcodeTable[0xEA] = opJMPFar

	opcodeTable[0xF8] = opSetFlag(processor.Carry, false)           // CLC
	opcodeTable[0xF9] = opSetFlag(processor.Carry, true)            // STC
	opcodeTable[0xFA] = opSetFlag(processor.InterruptEnable, false) // CLI
	opcodeTable[0xFB] = opSetFlag(processor.InterruptEnable, true)  // STI
	opcodeTable[0xFC] = opSetFlag(processor.Direction, false)       // CLD
	opcodeTable[0xFD] = opSetFlag(processor.Direction, true)        // STD
}

// XOR r8,rm8
func opXORRegRM8(p *CPU, bus processor.Bus) error {
	modRM := p.readOpcodeStream(bus)
	operands := DecodeModRegRM(modRM)

	rm, err := p.registerOperand(operands.RM, modRM)
	if err != nil {
		return err
	}
	reg := processor.Reg8FromNum(operands.Reg.Reg)

	p.Flags.Clear(processor.Overflow | processor.Carry)
	res := p.Get8(reg) ^ p.Get8(processor.Reg8FromNum(rm))
	p.Flags.SetBool(processor.Zero, res == 0)
	p.Flags.SetBool(processor.Sign, res&0x80 != 0)
	p.setParityFlag(uint16(res))
	p.Set8(reg, res)
	return nil
}

// Jcc rel8: taken iff the named flag matches want. The displacement is
// relative to the end of the 2-byte encoding.
func opJcc(flag processor.Flags, want bool) opcodeFunc {
	return func(p *CPU, bus processor.Bus) error {
		offset := signExtend16(p.readOpcodeStream(bus))
		if p.Flags.GetBool(flag) == want {
			p.IP += offset
		}
		return nil
	}
}

// MOV rm16,sr
func opMOVRMSeg(p *CPU, bus processor.Bus) error {
	modRM := p.readOpcodeStream(bus)
	operands := DecodeModRegRM(modRM)

	rm, err := p.registerOperand(operands.RM, modRM)
	if err != nil {
		return err
	}
	p.Set16(processor.Reg16FromNum(rm), p.GetSeg(processor.SegRegFromNum(operands.Reg.Reg)))
	return nil
}

// MOV sr,rm16
func opMOVSegRM(p *CPU, bus processor.Bus) error {
	modRM := p.readOpcodeStream(bus)
	operands := DecodeModRegRM(modRM)

	rm, err := p.registerOperand(operands.RM, modRM)
	if err != nil {
		return err
	}
	p.SetSeg(processor.SegRegFromNum(operands.Reg.Reg), p.Get16(processor.Reg16FromNum(rm)))
	return nil
}

// SAHF
func opSAHF(p *CPU, bus processor.Bus) error {
	p.Flags.StoreAH(p.AH())
	return nil
}

// LAHF
func opLAHF(p *CPU, bus processor.Bus) error {
	p.SetAH(p.Flags.LoadAH())
	return nil
}

// MOV r8,d8
func opMOVReg8Imm(reg processor.Reg8) opcodeFunc {
	return func(p *CPU, bus processor.Bus) error {
		p.Set8(reg, p.readOpcodeStream(bus))
		return nil
	}
}

// MOV r16,d16
func opMOVReg16Imm(reg processor.Reg16) opcodeFunc {
	return func(p *CPU, bus processor.Bus) error {
		p.Set16(reg, p.readOpcodeImm16(bus))
		return nil
	}
}

// JMP rel16. The displacement is relative to the address of the opcode
// byte itself, not to the end of the 3-byte encoding.
func opJMPNear(p *CPU, bus processor.Bus) error {
	offset := p.readOpcodeImm16(bus)
	p.IP = p.decodeAt + offset
	return nil
}

// JMP seg:a16
func opJMPFar(p *CPU, bus processor.Bus) error {
	ip := p.readOpcodeImm16(bus)
	p.CS = p.readOpcodeImm16(bus)
	p.IP = ip
	return nil
}

// CLC/STC, CLI/STI, CLD/STD
func opSetFlag(flag processor.Flags, b bool) opcodeFunc {
	return func(p *CPU, bus processor.Bus) error {
		p.Flags.SetBool(flag, b)
		return nil
	}
}
