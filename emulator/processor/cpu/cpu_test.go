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

package cpu

import (
	"errors"
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreas-jonsson/i8086-core/emulator/memory"
	"github.com/andreas-jonsson/i8086-core/emulator/processor"
)

type testBus struct {
	mem   [0x100000]byte
	ports map[uint16]byte
}

func (b *testBus) ReadByte(addr memory.Pointer) byte {
	return b.mem[addr&0xFFFFF]
}

func (b *testBus) WriteByte(addr memory.Pointer, data byte) {
	b.mem[addr&0xFFFFF] = data
}

func (b *testBus) In(port uint16) byte {
	return b.ports[port]
}

func (b *testBus) Out(port uint16, data byte) {
	if b.ports == nil {
		b.ports = make(map[uint16]byte)
	}
	b.ports[port] = data
}

const (
	testCS = 0xF000
	testIP = 0x0100
)

func newTestCPU(program ...byte) (*CPU, *testBus) {
	p := NewCPU()
	p.CS = testCS
	p.IP = testIP

	bus := &testBus{}
	copy(bus.mem[memory.NewPointer(testCS, testIP):], program)
	return p, bus
}

func step(t *testing.T, p *CPU, bus *testBus) {
	t.Helper()
	require.NoError(t, p.Step(bus))
}

func TestXORSelfClears(t *testing.T) {
	assert := assert.New(t)

	// XOR AL,AL
	p, bus := newTestCPU(0x32, 0xC0)
	p.SetAL(0x55)
	step(t, p, bus)

	assert.Equal(byte(0), p.AL())
	assert.True(p.Flags.GetBool(processor.Zero))
	assert.False(p.Flags.GetBool(processor.Sign))
	assert.True(p.Flags.GetBool(processor.Parity))
	assert.False(p.Flags.GetBool(processor.Carry))
	assert.False(p.Flags.GetBool(processor.Overflow))
	assert.Equal(uint16(testIP+2), p.IP)
}

func TestXORFlags(t *testing.T) {
	assert := assert.New(t)

	// XOR AL,BL
	p, bus := newTestCPU(0x32, 0xC3)
	p.SetAL(0xF0)
	p.SetBL(0x0F)
	p.Flags.Set(processor.Carry | processor.Overflow)
	step(t, p, bus)

	assert.Equal(byte(0xFF), p.AL())
	assert.Equal(byte(0x0F), p.BL()) // source untouched
	assert.True(p.Flags.GetBool(processor.Sign))
	assert.True(p.Flags.GetBool(processor.Parity))
	assert.False(p.Flags.GetBool(processor.Zero))
	assert.False(p.Flags.GetBool(processor.Carry))
	assert.False(p.Flags.GetBool(processor.Overflow))
}

func TestConditionalJumps(t *testing.T) {
	table := []struct {
		name   string
		opcode byte
		flag   processor.Flags
		want   bool
	}{
		{"jo", 0x70, processor.Overflow, true},
		{"jno", 0x71, processor.Overflow, false},
		{"jc", 0x72, processor.Carry, true},
		{"jnc", 0x73, processor.Carry, false},
		{"jz", 0x74, processor.Zero, true},
		{"jnz", 0x75, processor.Zero, false},
		{"js", 0x78, processor.Sign, true},
		{"jns", 0x79, processor.Sign, false},
		{"jp", 0x7A, processor.Parity, true},
		{"jnp", 0x7B, processor.Parity, false},
	}

	for _, tc := range table {
		t.Run(tc.name, func(t *testing.T) {
			for _, set := range []bool{false, true} {
				p, bus := newTestCPU(tc.opcode, 0x05)
				p.Flags.SetBool(tc.flag, set)
				step(t, p, bus)

				want := uint16(testIP + 2) // past the encoding
				if set == tc.want {
					want += 5
				}
				assert.Equal(t, want, p.IP, "flag=%v", set)
			}
		})
	}
}

func TestConditionalJumpBackward(t *testing.T) {
	// JZ -4: the displacement is sign-extended.
	p, bus := newTestCPU(0x74, 0xFC)
	p.Flags.Set(processor.Zero)
	step(t, p, bus)
	assert.Equal(t, uint16(testIP+2-4), p.IP)
}

func TestMOVImmediateByte(t *testing.T) {
	for i := byte(0); i < 8; i++ {
		reg := processor.Reg8FromNum(i)
		p, bus := newTestCPU(0xB0+i, 0x42)
		step(t, p, bus)

		assert.Equal(t, byte(0x42), p.Get8(reg), "reg %d", i)
		assert.Equal(t, uint16(testIP+2), p.IP)
	}
}

func TestMOVImmediateByteKeepsSibling(t *testing.T) {
	// MOV AL,d8 must not disturb AH.
	p, bus := newTestCPU(0xB0, 0x34)
	p.SetAH(0x12)
	step(t, p, bus)
	assert.Equal(t, uint16(0x1234), p.AX())
}

func TestMOVImmediateWord(t *testing.T) {
	for i := byte(0); i < 4; i++ {
		reg := processor.Reg16FromNum(i)
		p, bus := newTestCPU(0xB8+i, 0x34, 0x12) // little-endian
		step(t, p, bus)

		assert.Equal(t, uint16(0x1234), p.Get16(reg), "reg %d", i)
		assert.Equal(t, uint16(testIP+3), p.IP)
	}
}

func TestMOVSegmentRoundTrip(t *testing.T) {
	assert := assert.New(t)

	// MOV AX,d16; MOV DS,AX; MOV BX,DS
	p, bus := newTestCPU(
		0xB8, 0x00, 0x80, // MOV AX,0x8000
		0x8E, 0xD8, // MOV DS,AX
		0x8C, 0xDB, // MOV BX,DS
	)
	step(t, p, bus)
	step(t, p, bus)
	step(t, p, bus)

	assert.Equal(uint16(0x8000), p.DS)
	assert.Equal(uint16(0x8000), p.BX())
}

func TestSAHFLAHF(t *testing.T) {
	assert := assert.New(t)

	// STC; LAHF; CLC; SAHF
	p, bus := newTestCPU(0xF9, 0x9F, 0xF8, 0x9E)

	step(t, p, bus)
	step(t, p, bus)
	assert.Equal(byte(1), p.AH()&1, "LAHF stores carry in bit 0")

	step(t, p, bus)
	assert.False(p.Flags.GetBool(processor.Carry))

	step(t, p, bus)
	assert.True(p.Flags.GetBool(processor.Carry), "SAHF restores carry")
}

func TestLAHFSubset(t *testing.T) {
	// LAHF
	p, bus := newTestCPU(0x9F)
	p.Flags.Store(0xFFFF)
	step(t, p, bus)
	assert.Equal(t, byte(0xD5), p.AH())
}

func TestSAHFPreservesHighByte(t *testing.T) {
	// SAHF
	p, bus := newTestCPU(0x9E)
	p.Flags.Set(processor.Overflow | processor.Direction)
	p.SetAH(0x00)
	step(t, p, bus)

	assert.True(t, p.Flags.GetBool(processor.Overflow))
	assert.True(t, p.Flags.GetBool(processor.Direction))
	assert.False(t, p.Flags.GetBool(processor.Carry))
}

func TestShiftLeftByOne(t *testing.T) {
	assert := assert.New(t)

	// SHL AL,1
	p, bus := newTestCPU(0xD0, 0xE0)
	p.SetAL(0x81)
	step(t, p, bus)

	assert.Equal(byte(0x02), p.AL())
	assert.True(p.Flags.GetBool(processor.Carry), "carry sampled from bit 0")
	assert.True(p.Flags.GetBool(processor.Overflow), "bit 7 xor bit 6")
}

func TestShiftRightByOne(t *testing.T) {
	assert := assert.New(t)

	// SHR BL,1
	p, bus := newTestCPU(0xD0, 0xEB)
	p.SetBL(0x81)
	step(t, p, bus)

	assert.Equal(byte(0x40), p.BL())
	assert.True(p.Flags.GetBool(processor.Carry))
	assert.True(p.Flags.GetBool(processor.Overflow))
}

func TestShiftLeftByCL(t *testing.T) {
	assert := assert.New(t)

	// SHL DL,CL
	p, bus := newTestCPU(0xD2, 0xE2)
	p.SetDL(0x41)
	p.SetCL(2)
	step(t, p, bus)

	assert.Equal(byte(0x04), p.DL())
	// Last bit shifted out was bit 7 of 0x82.
	assert.True(p.Flags.GetBool(processor.Carry))
}

func TestShiftRightByCL(t *testing.T) {
	assert := assert.New(t)

	// SHR DL,CL
	p, bus := newTestCPU(0xD2, 0xEA)
	p.SetDL(0x06)
	p.SetCL(2)
	step(t, p, bus)

	assert.Equal(byte(0x01), p.DL())
	// Last bit shifted out was bit 0 of 0x03.
	assert.True(p.Flags.GetBool(processor.Carry))
}

func TestShiftByZeroCountIsNoOp(t *testing.T) {
	assert := assert.New(t)

	// SHL BL,CL with CL=0
	p, bus := newTestCPU(0xD2, 0xE3)
	p.SetBL(0xAA)
	p.SetCL(0)
	p.Flags.Store(uint16(processor.Carry | processor.Sign))
	flags := p.Flags

	step(t, p, bus)

	assert.Equal(byte(0xAA), p.BL())
	assert.Equal(flags, p.Flags)
}

func TestJMPNear(t *testing.T) {
	// The near jump target is relative to the opcode address.
	p, bus := newTestCPU(0xE9, 0x10, 0x00)
	step(t, p, bus)
	assert.Equal(t, uint16(testIP+0x10), p.IP)
}

func TestJMPNearBackward(t *testing.T) {
	// JMP -2 loops back to the previous instruction slot.
	p, bus := newTestCPU(0xE9, 0xFE, 0xFF)
	step(t, p, bus)
	assert.Equal(t, uint16(testIP-2), p.IP)
}

func TestJMPFar(t *testing.T) {
	assert := assert.New(t)

	p, bus := newTestCPU(0xEA, 0x00, 0x01, 0x00, 0xA0)
	step(t, p, bus)

	assert.Equal(uint16(0xA000), p.CS)
	assert.Equal(uint16(0x0100), p.IP)
}

func TestFlagInstructions(t *testing.T) {
	table := []struct {
		name     string
		set, clr byte
		flag     processor.Flags
	}{
		{"carry", 0xF9, 0xF8, processor.Carry},
		{"interrupt", 0xFB, 0xFA, processor.InterruptEnable},
		{"direction", 0xFD, 0xFC, processor.Direction},
	}

	for _, tc := range table {
		t.Run(tc.name, func(t *testing.T) {
			p, bus := newTestCPU(tc.set, tc.clr)
			step(t, p, bus)
			assert.True(t, p.Flags.GetBool(tc.flag))
			step(t, p, bus)
			assert.False(t, p.Flags.GetBool(tc.flag))
		})
	}
}

func TestUnknownOpcodeIsFatal(t *testing.T) {
	assert := assert.New(t)

	p, bus := newTestCPU(0xF6)
	p.SetAX(0x1234)
	p.Flags.Set(processor.Carry)
	before := p.Registers

	err := p.Step(bus)
	require.Error(t, err)

	var opErr *processor.UnimplementedOpcodeError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(byte(0xF6), opErr.Opcode)
	assert.Equal(before, p.Registers, "no register state may change")
}

func TestDispatchTableIsClosed(t *testing.T) {
	implemented := map[byte]bool{
		0x32: true,
		0x8C: true, 0x8E: true,
		0x9E: true, 0x9F: true,
		0xD0: true, 0xD2: true,
		0xE9: true, 0xEA: true,
	}
	for op := 0x70; op <= 0x75; op++ {
		implemented[byte(op)] = true
	}
	for op := 0x78; op <= 0x7B; op++ {
		implemented[byte(op)] = true
	}
	for op := 0xB0; op <= 0xBB; op++ {
		implemented[byte(op)] = true
	}
	for op := 0xF8; op <= 0xFD; op++ {
		implemented[byte(op)] = true
	}

	for op := 0; op < 256; op++ {
		b := byte(op)
		if implemented[b] {
			assert.NotNil(t, opcodeTable[b], "opcode 0x%02X", b)
			continue
		}
		require.Nil(t, opcodeTable[b], "opcode 0x%02X", b)

		p, bus := newTestCPU(b)
		err := p.Step(bus)

		var opErr *processor.UnimplementedOpcodeError
		require.True(t, errors.As(err, &opErr), "opcode 0x%02X", b)
		assert.Equal(t, b, opErr.Opcode)
		assert.Equal(t, uint16(testIP), p.IP)
	}
}

func TestMemoryOperandIsFatal(t *testing.T) {
	table := []struct {
		name    string
		program []byte
	}{
		{"xor", []byte{0x32, 0x00}},
		{"mov rm,seg", []byte{0x8C, 0x18}},
		{"mov seg,rm", []byte{0x8E, 0x1E, 0x00, 0x10}},
		{"shift one", []byte{0xD0, 0x24}},
		{"shift cl", []byte{0xD2, 0x2C, 0x05}},
	}

	for _, tc := range table {
		t.Run(tc.name, func(t *testing.T) {
			p, bus := newTestCPU(tc.program...)
			before := p.Registers

			err := p.Step(bus)
			require.Error(t, err)

			var opErr *processor.UnsupportedOperandError
			require.True(t, errors.As(err, &opErr))
			assert.Equal(t, tc.program[0], opErr.Opcode)
			assert.Equal(t, tc.program[1], opErr.ModRM)
			assert.Equal(t, before, p.Registers)
		})
	}
}

func TestUnimplementedShiftGroupOp(t *testing.T) {
	// ROL AL,1: the rotate sub-ops of the shift group are not
	// implemented and must fault without touching state.
	p, bus := newTestCPU(0xD0, 0xC0)
	before := p.Registers

	err := p.Step(bus)
	var opErr *processor.UnimplementedOpcodeError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, byte(0xD0), opErr.Opcode)
	assert.Equal(t, before, p.Registers)
}

func TestWordFetchWrapsAt20BitBoundary(t *testing.T) {
	assert := assert.New(t)

	// MOV AX,d16 with the immediate spanning the top of the address
	// space: the low byte sits at 0xFFFFF and the high byte wraps to
	// linear 0x00000.
	p := NewCPU()
	bus := &testBus{}

	p.CS = 0xFFFF
	p.IP = 0x000E
	bus.mem[0xFFFFE] = 0xB8
	bus.mem[0xFFFFF] = 0x34
	bus.mem[0x00000] = 0x12

	step(t, p, bus)
	assert.Equal(uint16(0x1234), p.AX())
}

func TestBootFetchLocation(t *testing.T) {
	// After reset the first opcode comes from 0xFFFF:0.
	p := NewCPU()
	bus := &testBus{}
	bus.mem[0xFFFF0] = 0xF9 // STC

	step(t, p, bus)
	assert.True(t, p.Flags.GetBool(processor.Carry))
	assert.Equal(t, byte(0xF9), p.Opcode())
}

func TestParityTable(t *testing.T) {
	for v := 0; v < 256; v++ {
		want := bits.OnesCount8(uint8(v))%2 == 0
		if parityLookup[v] != want {
			t.Fatalf("parity of 0x%02X: got %v, want %v", v, parityLookup[v], want)
		}
	}
}

func TestSetParityFlagUsesLowByteOnly(t *testing.T) {
	p := NewCPU()
	p.setParityFlag(0xFF00) // low byte 0x00 has even parity
	assert.True(t, p.Flags.GetBool(processor.Parity))
	p.setParityFlag(0xFF01)
	assert.False(t, p.Flags.GetBool(processor.Parity))
}

type recordingTracer struct {
	opcodes []byte
	ips     []uint16
}

func (r *recordingTracer) Trace(opcode byte, regs *processor.Registers) {
	r.opcodes = append(r.opcodes, opcode)
	r.ips = append(r.ips, regs.IP)
}

func TestTracerObservesEachStep(t *testing.T) {
	assert := assert.New(t)

	p, bus := newTestCPU(0xF9, 0xF8)
	tracer := &recordingTracer{}
	p.SetTracer(tracer)

	step(t, p, bus)
	step(t, p, bus)

	assert.Equal([]byte{0xF9, 0xF8}, tracer.opcodes)
	// The tracer sees IP still pointing at the opcode.
	assert.Equal([]uint16{testIP, testIP + 1}, tracer.ips)
}

func TestStats(t *testing.T) {
	assert := assert.New(t)

	p, bus := newTestCPU(0xB8, 0x34, 0x12, 0xF9)
	step(t, p, bus)
	step(t, p, bus)

	s := p.GetStats()
	assert.Equal(uint64(2), s.NumInstructions)
	assert.Equal(uint64(4), s.RX)

	// Stats reset on read.
	assert.Equal(processor.Stats{}, p.GetStats())
}
