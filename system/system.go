// Package system composes the bus and CPU into the fixed-rate stepping
// loop: the single entry point a host drives to advance the emulated
// console by one instruction at a time.
package system

import (
	"github.com/station32/corebox/bus"
	"github.com/station32/corebox/cdrom"
	"github.com/station32/corebox/cpu"
	"github.com/station32/corebox/curated"
	"github.com/station32/corebox/gte"
)

// ReadCallback is forwarded to the CD-ROM drive; see cdrom.ReadCallback.
type ReadCallback func(linearByteOffset uint32, sector *[cdrom.SectorSize]byte)

// System is the composition root: bus + CPU + GTE, wired together and
// stepped in lockstep.
type System struct {
	Bus *bus.Bus
	CPU *cpu.CPU
	GTE *gte.GTE

	// FrameReady, TTY and SystemError are single-slot notification
	// channels; sends are non-blocking so a host that isn't listening
	// never stalls the step loop.
	FrameReady  chan []uint16
	TTY         chan byte
	SystemError chan error
}

// New allocates a System against the given BIOS image, which must outlive
// the System (it is borrowed, not copied).
func New(bios []byte) (*System, error) {
	if len(bios) == 0 {
		return nil, curated.Errorf("system: empty BIOS image")
	}

	g := gte.New()
	b := bus.New(bios)
	c := cpu.New(b, g)

	s := &System{
		Bus:         b,
		CPU:         c,
		GTE:         g,
		FrameReady:  make(chan []uint16, 1),
		TTY:         make(chan byte, 1),
		SystemError: make(chan error, 1),
	}
	return s, nil
}

// Reset re-zeros RAM/scratchpad/peripherals and the CPU register file,
// without touching the borrowed BIOS buffer.
func (s *System) Reset() {
	s.Bus.Reset()
	s.CPU.Reset()
	s.GTE.Reset()
}

// Step advances the bus twice (two hardware ticks per instruction),
// updates the pending-interrupt bit from i_mask & i_stat, and retires one
// CPU instruction. This ordering is fixed.
func (s *System) Step() {
	s.Bus.Step()
	s.Bus.Step()
	s.CPU.SetInterruptPending(s.Bus.IMask&s.Bus.IStat != 0)
	s.observeBIOSCall()
	s.CPU.Step()
}

// BIOS call vectors and function numbers observed for the TTY and
// system-error notifications. The function number is in $t1 and the first
// argument in $a0 at the moment control reaches the vector.
const (
	biosVectorA = 0xA0
	biosVectorB = 0xB0

	fnAPutchar             = 0x3C
	fnBPutchar             = 0x3D
	fnAUnresolvedException = 0x40
)

// observeBIOSCall watches the instruction about to execute: a jump into
// the BIOS A/B call vectors with a putchar function number produces a TTY
// byte, and the unresolvable-exception function raises the system-error
// notification. Both sends are non-blocking.
func (s *System) observeBIOSCall() {
	pc := s.CPU.NextPC & 0x1FFFFFFF
	if pc != biosVectorA && pc != biosVectorB {
		return
	}
	fn := s.CPU.GPR[9]

	switch {
	case pc == biosVectorA && fn == fnAPutchar,
		pc == biosVectorB && fn == fnBPutchar:
		select {
		case s.TTY <- byte(s.CPU.GPR[4]):
		default:
		}
	case pc == biosVectorA && fn == fnAUnresolvedException:
		select {
		case s.SystemError <- curated.Errorf("system: firmware reached the unresolvable-exception handler"):
		default:
		}
	}
}

// VBlank is called once per frame by the host; it sets i_stat.vblank and
// makes a best-effort, non-blocking FrameReady notification.
func (s *System) VBlank() {
	s.Bus.IStat |= bus.IRQVBlank
	select {
	case s.FrameReady <- nil:
	default:
	}
}

// SetCDROMReadCallback installs the host's sector-read callback.
func (s *System) SetCDROMReadCallback(cb ReadCallback) {
	if cb == nil {
		s.Bus.CDROM.SetReadCallback(nil)
		return
	}
	s.Bus.CDROM.SetReadCallback(cdrom.ReadCallback(cb))
}

// Close releases resources. RAM/scratchpad/VRAM are plain Go-managed
// buffers with nothing to release explicitly; Close exists to match the
// host lifecycle contract and to close the notification channels.
func (s *System) Close() {
	close(s.FrameReady)
	close(s.TTY)
	close(s.SystemError)
}
