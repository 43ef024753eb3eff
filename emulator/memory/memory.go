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

package memory

import (
	"fmt"
	"log"
)

// Pointer is a linear address in the 20-bit physical space.
type Pointer uint32

// NewPointer translates a segment:offset pair to a linear address.
// The segment is shifted up by 4 bits, added to the offset and wrapped
// to the 1MB space. An offset near the top of a high segment wraps past
// 0xFFFFF back to low addresses, just like the real address lines.
// NOTE: addition, not OR. The carries out of the low nibbles matter:
// 0xFFFF:0x0010 is linear 0x00000.
func NewPointer(seg, offset uint16) Pointer {
	return (Pointer(seg)<<4 + Pointer(offset)) & 0xFFFFF
}

// Next is the successor address, wrapped to the 20-bit space.
func (p Pointer) Next() Pointer {
	return (p + 1) & 0xFFFFF
}

func (p Pointer) String() string {
	return fmt.Sprintf("0x%X", uint32(p))
}

type Memory interface {
	ReadByte(addr Pointer) byte
	WriteByte(addr Pointer, data byte)
}

type IO interface {
	In(port uint16) byte
	Out(port uint16, data byte)
}

type DummyIO struct{}

func (m *DummyIO) In(port uint16) byte {
	log.Printf("reading unmapped IO port: 0x%X", port)
	return 0xFF
}

func (m *DummyIO) Out(port uint16, data byte) {
	log.Printf("writing unmapped IO port: 0x%X", port)
}

type DummyMemory struct{}

func (m *DummyMemory) ReadByte(addr Pointer) byte {
	log.Printf("reading unmapped memory: %v", addr)
	return 0xFF
}

func (m *DummyMemory) WriteByte(addr Pointer, data byte) {
	log.Printf("writing unmapped memory: %v", addr)
}
