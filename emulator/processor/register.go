/*
Copyright (c) 2019-2021 Andreas T Jonsson

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

package processor

import (
	"log"
)

type Flags uint16

const (
	Carry           Flags = 0x001
	Parity          Flags = 0x004
	Adjust          Flags = 0x010
	Zero            Flags = 0x040
	Sign            Flags = 0x080
	Trap            Flags = 0x100
	InterruptEnable Flags = 0x200
	Direction       Flags = 0x400
	Overflow        Flags = 0x800

	// Reserved bits always read back as set.
	Reserved Flags = 0xF002
)

const AllFlags = Carry | Parity | Adjust | Zero | Sign | Trap | InterruptEnable | Direction | Overflow

// AHFlags is the subset of flags transferred by the AH load/store
// instructions (LAHF/SAHF).
const AHFlags = Sign | Zero | Adjust | Parity | Carry

func (r *Flags) Get(f Flags) Flags {
	return *r & f
}

func (r *Flags) GetBool(f Flags) bool {
	return r.Get(f) != 0
}

func (r *Flags) Set(f Flags) {
	*r |= f
}

func (r *Flags) SetBool(f Flags, b bool) {
	if b {
		r.Set(f)
		return
	}
	r.Clear(f)
}

func (r *Flags) Clear(f Flags) {
	*r &= ^f
}

// Store replaces the whole register. Undefined bits are cleared and
// reserved bits are asserted.
func (r *Flags) Store(v uint16) {
	*r = (Flags(v) & AllFlags) | Reserved
}

func (r *Flags) Load() uint16 {
	return uint16((*r & AllFlags) | Reserved)
}

// StoreAH replaces the defined low-byte flags from an AH value,
// preserving the high byte. Used by SAHF.
func (r *Flags) StoreAH(v byte) {
	*r = (*r & 0xFF02) | (Flags(v) & AHFlags) | (Reserved & 0xFF)
}

// LoadAH returns the flag subset stored to AH by LAHF.
func (r *Flags) LoadAH() byte {
	return byte(*r & AHFlags)
}

// Reg8 selects one of the 8 aliased byte halves of the first four
// general registers.
type Reg8 byte

const (
	AL Reg8 = iota
	CL
	DL
	BL
	AH
	CH
	DH
	BH
)

// Reg16 selects one of the 16-bit register views. FLAGS is the ninth
// view used by the generic word accessors.
type Reg16 byte

const (
	AX Reg16 = iota
	CX
	DX
	BX
	SP
	BP
	SI
	DI
	FLAGS
)

// SegReg selects one of the segment registers.
type SegReg byte

const (
	ES SegReg = iota
	CS
	SS
	DS
)

// Reg8FromNum maps a 3-bit encoding field to a byte register.
func Reg8FromNum(num byte) Reg8 {
	return Reg8(num & 7)
}

// Reg16FromNum maps a 3-bit encoding field to a word register.
func Reg16FromNum(num byte) Reg16 {
	return Reg16(num & 7)
}

// SegRegFromNum maps an encoding field to a segment register. The field
// is masked to 2 bits so values 4-7 alias ES through DS.
func SegRegFromNum(num byte) SegReg {
	return SegReg(num & 3)
}

// Registers is the architectural register file. The first four general
// registers are kept private because their byte halves alias the same
// storage and all access has to go through the accessors.
type Registers struct {
	ax, cx, dx, bx uint16

	SP, BP, SI, DI uint16
	ES, CS, SS, DS uint16

	Flags

	IP uint16
}

// Reset restores the power-on state: everything zero except CS, which
// holds the boot vector segment, and the reserved flag bits.
func (r *Registers) Reset() {
	*r = Registers{CS: 0xFFFF}
	r.Flags.Store(0)
}

func (r *Registers) AL() byte {
	return byte(r.ax)
}

func (r *Registers) AH() byte {
	return byte(r.ax >> 8)
}

func (r *Registers) AX() uint16 {
	return r.ax
}

func (r *Registers) SetAL(v byte) {
	r.ax = r.ax&0xFF00 | uint16(v)
}

func (r *Registers) SetAH(v byte) {
	r.ax = r.ax&0xFF | uint16(v)<<8
}

func (r *Registers) SetAX(v uint16) {
	r.ax = v
}

func (r *Registers) CL() byte {
	return byte(r.cx)
}

func (r *Registers) CH() byte {
	return byte(r.cx >> 8)
}

func (r *Registers) CX() uint16 {
	return r.cx
}

func (r *Registers) SetCL(v byte) {
	r.cx = r.cx&0xFF00 | uint16(v)
}

func (r *Registers) SetCH(v byte) {
	r.cx = r.cx&0xFF | uint16(v)<<8
}

func (r *Registers) SetCX(v uint16) {
	r.cx = v
}

func (r *Registers) DL() byte {
	return byte(r.dx)
}

func (r *Registers) DH() byte {
	return byte(r.dx >> 8)
}

func (r *Registers) DX() uint16 {
	return r.dx
}

func (r *Registers) SetDL(v byte) {
	r.dx = r.dx&0xFF00 | uint16(v)
}

func (r *Registers) SetDH(v byte) {
	r.dx = r.dx&0xFF | uint16(v)<<8
}

func (r *Registers) SetDX(v uint16) {
	r.dx = v
}

func (r *Registers) BL() byte {
	return byte(r.bx)
}

func (r *Registers) BH() byte {
	return byte(r.bx >> 8)
}

func (r *Registers) BX() uint16 {
	return r.bx
}

func (r *Registers) SetBL(v byte) {
	r.bx = r.bx&0xFF00 | uint16(v)
}

func (r *Registers) SetBH(v byte) {
	r.bx = r.bx&0xFF | uint16(v)<<8
}

func (r *Registers) SetBX(v uint16) {
	r.bx = v
}

func (r *Registers) Get8(reg Reg8) byte {
	switch reg {
	case AL:
		return r.AL()
	case CL:
		return r.CL()
	case DL:
		return r.DL()
	case BL:
		return r.BL()
	case AH:
		return r.AH()
	case CH:
		return r.CH()
	case DH:
		return r.DH()
	case BH:
		return r.BH()
	}
	log.Panicf("invalid byte register: %d", reg)
	return 0
}

func (r *Registers) Set8(reg Reg8, v byte) {
	switch reg {
	case AL:
		r.SetAL(v)
	case CL:
		r.SetCL(v)
	case DL:
		r.SetDL(v)
	case BL:
		r.SetBL(v)
	case AH:
		r.SetAH(v)
	case CH:
		r.SetCH(v)
	case DH:
		r.SetDH(v)
	case BH:
		r.SetBH(v)
	default:
		log.Panicf("invalid byte register: %d", reg)
	}
}

func (r *Registers) Get16(reg Reg16) uint16 {
	switch reg {
	case AX:
		return r.ax
	case CX:
		return r.cx
	case DX:
		return r.dx
	case BX:
		return r.bx
	case SP:
		return r.SP
	case BP:
		return r.BP
	case SI:
		return r.SI
	case DI:
		return r.DI
	case FLAGS:
		return r.Flags.Load()
	}
	log.Panicf("invalid word register: %d", reg)
	return 0
}

func (r *Registers) Set16(reg Reg16, v uint16) {
	switch reg {
	case AX:
		r.ax = v
	case CX:
		r.cx = v
	case DX:
		r.dx = v
	case BX:
		r.bx = v
	case SP:
		r.SP = v
	case BP:
		r.BP = v
	case SI:
		r.SI = v
	case DI:
		r.DI = v
	case FLAGS:
		r.Flags.Store(v)
	default:
		log.Panicf("invalid word register: %d", reg)
	}
}

func (r *Registers) GetSeg(reg SegReg) uint16 {
	switch reg {
	case ES:
		return r.ES
	case CS:
		return r.CS
	case SS:
		return r.SS
	case DS:
		return r.DS
	}
	log.Panicf("invalid segment register: %d", reg)
	return 0
}

func (r *Registers) SetSeg(reg SegReg, v uint16) {
	switch reg {
	case ES:
		r.ES = v
	case CS:
		r.CS = v
	case SS:
		r.SS = v
	case DS:
		r.DS = v
	default:
		log.Panicf("invalid segment register: %d", reg)
	}
}

func (r *Registers) GetValues() [8]uint16 {
	return [8]uint16{
		r.ax, r.cx, r.dx, r.bx,
		r.SP, r.BP, r.SI, r.DI,
	}
}
