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

package monitor

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/andreas-jonsson/i8086-core/emulator/peripheral"
	"github.com/andreas-jonsson/i8086-core/emulator/processor"
	"github.com/gdamore/tcell"
)

type (
	redrawEvent struct{}
	quitEvent   struct{}
)

// Device renders a live view of the register file in the terminal. It
// taps the instruction stream through the processor's trace hook and
// never touches the machine's memory or port space.
type Device struct {
	lock     sync.RWMutex
	quitChan chan struct{}

	dirty  bool
	opcode byte
	regs   processor.Registers

	screen tcell.Screen
}

func (m *Device) Install(peripheral.Installer) error {
	return m.startRenderLoop()
}

func (m *Device) Name() string {
	return "Machine state monitor"
}

func (m *Device) Reset() {
}

func (m *Device) Step(int) error {
	return nil
}

func (m *Device) Close() error {
	m.screen.PostEventWait(tcell.NewEventInterrupt(quitEvent{}))
	<-m.quitChan
	return nil
}

// Trace implements processor.Tracer. It is called with IP still
// pointing at the opcode so the snapshot shows the instruction about
// to execute.
func (m *Device) Trace(opcode byte, regs *processor.Registers) {
	m.lock.Lock()
	m.opcode = opcode
	m.regs = *regs
	m.dirty = true
	m.lock.Unlock()
}

func flagString(f processor.Flags) string {
	names := []struct {
		flag processor.Flags
		ch   byte
	}{
		{processor.Overflow, 'O'},
		{processor.Direction, 'D'},
		{processor.InterruptEnable, 'I'},
		{processor.Trap, 'T'},
		{processor.Sign, 'S'},
		{processor.Zero, 'Z'},
		{processor.Adjust, 'A'},
		{processor.Parity, 'P'},
		{processor.Carry, 'C'},
	}

	buf := make([]byte, len(names))
	for i, n := range names {
		buf[i] = '-'
		if f.GetBool(n.flag) {
			buf[i] = n.ch
		}
	}
	return string(buf)
}

func (m *Device) drawString(x, y int, style tcell.Style, text string) {
	for i, r := range text {
		m.screen.SetCell(x+i, y, style, r)
	}
}

func (m *Device) redraw() {
	m.lock.RLock()
	r := m.regs
	opcode := m.opcode
	m.dirty = false
	m.lock.RUnlock()

	header := tcell.StyleDefault.Reverse(true)
	style := tcell.StyleDefault

	m.drawString(0, 0, header, fmt.Sprintf(" CS:IP %04X:%04X  opcode %02X  F12 quit ", r.CS, r.IP, opcode))
	m.drawString(0, 2, style, fmt.Sprintf("AX %04X  CX %04X  DX %04X  BX %04X", r.AX(), r.CX(), r.DX(), r.BX()))
	m.drawString(0, 3, style, fmt.Sprintf("SP %04X  BP %04X  SI %04X  DI %04X", r.SP, r.BP, r.SI, r.DI))
	m.drawString(0, 4, style, fmt.Sprintf("ES %04X  CS %04X  SS %04X  DS %04X", r.ES, r.CS, r.SS, r.DS))
	m.drawString(0, 6, style, fmt.Sprintf("FLAGS %04X %s", r.Flags.Load(), flagString(r.Flags)))

	m.screen.Show()
}

func (m *Device) startRenderLoop() error {
	tcell.SetEncodingFallback(tcell.EncodingFallbackASCII)
	s, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err = s.Init(); err != nil {
		return err
	}

	s.HideCursor()
	s.DisableMouse()
	s.Clear()

	m.screen = s
	m.dirty = true
	m.quitChan = make(chan struct{})

	redrawTicker := time.NewTicker(time.Second / 30)
	go func() {
		for {
			ev := s.PollEvent()
			switch ev := ev.(type) {
			case *tcell.EventKey:
				switch ev.Key() {
				case tcell.KeyF12, tcell.KeyEscape, tcell.KeyCtrlC:
					go func() {
						m.Close()
						os.Exit(0)
					}()
				}
			case *tcell.EventResize:
				s.Sync()
				m.lock.Lock()
				m.dirty = true
				m.lock.Unlock()
			case *tcell.EventInterrupt:
				switch ev.Data().(type) {
				case quitEvent:
					s.Fini()
					redrawTicker.Stop()
					close(m.quitChan)
					return
				case redrawEvent:
					m.redraw()
				}
			}
		}
	}()

	go func() {
		for range redrawTicker.C {
			m.lock.RLock()
			dirty := m.dirty
			m.lock.RUnlock()
			if dirty {
				s.PostEvent(tcell.NewEventInterrupt(redrawEvent{}))
			}
		}
	}()

	return nil
}
