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

package machine

import (
	"errors"
	"log"

	"github.com/andreas-jonsson/i8086-core/emulator/memory"
	"github.com/andreas-jonsson/i8086-core/emulator/peripheral"
)

const MaxPeripherals = 32

// Machine is the system bus: it owns the peripherals and routes every
// memory and port access to the device mapped at that location.
// Index 0 in the device tables is reserved for the dummy fallbacks so
// an unmapped access never faults.
type Machine struct {
	peripherals []peripheral.Peripheral

	iomap     [0x10000]byte
	ioDevices [MaxPeripherals]memory.IO

	mmap       [0x100000]byte
	memDevices [MaxPeripherals]memory.Memory
}

func New(peripherals ...peripheral.Peripheral) (*Machine, error) {
	if len(peripherals) >= MaxPeripherals {
		return nil, errors.New("too many peripherals")
	}
	m := &Machine{peripherals: peripherals}

	dummyIO := &memory.DummyIO{}
	for i := range m.ioDevices[:] {
		m.ioDevices[i] = dummyIO
	}

	dummyMem := &memory.DummyMemory{}
	for i := range m.memDevices[:] {
		m.memDevices[i] = dummyMem
	}

	for i := 1; i <= len(peripherals); i++ {
		if dev, ok := peripherals[i-1].(memory.IO); ok {
			m.ioDevices[i] = dev
		}
		if dev, ok := peripherals[i-1].(memory.Memory); ok {
			m.memDevices[i] = dev
		}
	}

	for _, d := range peripherals {
		if err := d.Install(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Machine) Close() {
	for _, d := range m.peripherals {
		if cd, ok := d.(peripheral.PeripheralCloser); ok {
			if err := cd.Close(); err != nil {
				log.Print("Failed to close peripheral: ", err)
			}
		}
	}
}

func (m *Machine) Reset() {
	for _, d := range m.peripherals {
		d.Reset()
	}
}

// Step gives every peripheral a chance to run after the processor has
// executed the given number of instructions.
func (m *Machine) Step(cycles int) error {
	for _, d := range m.peripherals {
		if err := d.Step(cycles); err != nil {
			return err
		}
	}
	return nil
}

func (m *Machine) GetMappedMemoryDevice(addr memory.Pointer) memory.Memory {
	return m.memDevices[m.mmap[addr&0xFFFFF]]
}

func (m *Machine) GetMappedIODevice(port uint16) memory.IO {
	return m.ioDevices[m.iomap[port]]
}

func (m *Machine) InstallMemoryDevice(device memory.Memory, from, to memory.Pointer) error {
	for i, d := range m.memDevices[:] {
		if d == device {
			for from <= to {
				m.mmap[from&0xFFFFF] = byte(i)
				from++
			}
			return nil
		}
	}
	return errors.New("could not find peripheral")
}

func (m *Machine) InstallIODevice(device memory.IO, from, to uint16) error {
	for i, d := range m.ioDevices[:] {
		if d == device {
			for {
				m.iomap[from] = byte(i)
				if from == to {
					return nil
				}
				from++
			}
		}
	}
	return errors.New("could not find peripheral")
}

func (m *Machine) ReadByte(addr memory.Pointer) byte {
	addr &= 0xFFFFF
	return m.memDevices[m.mmap[addr]].ReadByte(addr)
}

func (m *Machine) WriteByte(addr memory.Pointer, data byte) {
	addr &= 0xFFFFF
	m.memDevices[m.mmap[addr]].WriteByte(addr, data)
}

func (m *Machine) In(port uint16) byte {
	return m.ioDevices[m.iomap[port]].In(port)
}

func (m *Machine) Out(port uint16, data byte) {
	m.ioDevices[m.iomap[port]].Out(port, data)
}
