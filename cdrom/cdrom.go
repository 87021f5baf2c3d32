// Package cdrom implements the optical drive's command queue,
// parameter/response FIFOs, chained-interrupt scheduler and sector-read
// timer. Only the line at the head of the chain is ever "in flight": arming
// a new line while another is pending appends it to the chain, and it starts
// counting down once the lines ahead of it have been acknowledged.
//
// The interrupt chain is modelled as four fixed slots (one per line,
// matching the real hardware's INT1/INT2/INT3/INT5 naming) linked by a
// lineID tag rather than by pointers: a self-chain (ReadN's repeating INT1)
// is simply a slot whose next field names itself.
package cdrom

import (
	"github.com/station32/corebox/curated"
	"github.com/station32/corebox/fifo"
	"github.com/station32/corebox/logger"
)

// SectorSize is the size in bytes of a raw CD-ROM sector.
const SectorSize = 2352

// systemClockHz is the PlayStation system clock, used to derive the
// per-sector read cadence from the drive's speed setting.
const systemClockHz = 33_868_800

// lineID names one of the drive's four interrupt lines.
type lineID uint8

// The drive's interrupt lines. The numeric values match the type byte that
// ends up in the low 3 bits of the Interrupt Flag register.
const (
	noLine lineID = 0
	Int1   lineID = 1
	Int2   lineID = 2
	Int3   lineID = 3
	Int5   lineID = 5
)

func lineIndex(l lineID) int {
	switch l {
	case Int1:
		return 0
	case Int2:
		return 1
	case Int3:
		return 2
	case Int5:
		return 3
	}
	return -1
}

type interruptLine struct {
	response *fifo.FIFO
	pending  bool
	cycles   int
	next     lineID
	hasNext  bool
}

// ReadCallback is invoked synchronously from Step whenever the drive
// delivers a sector, with the linear byte offset into the disc image and
// the sector buffer to fill.
type ReadCallback func(linearByteOffset uint32, sector *[SectorSize]byte)

// Position is a disc location in minutes/seconds/sectors (already decoded
// from BCD).
type Position struct {
	Minute, Second, Sector int
}

// Drive is the CD-ROM drive state machine.
type Drive struct {
	Parameter *fifo.FIFO
	Data      *fifo.FIFO

	lines            [4]interruptLine
	currentInterrupt lineID

	InterruptFlag   uint8
	InterruptEnable uint8

	statusIndex    uint8
	ResponseStatus uint8 // bit5=reading, bit6=seeking, bit1=standby
	Mode           uint8

	Position                Position
	SectorCount             int
	sectorReadCycleCount    int
	sectorReadCycleCountMax int

	// FireInterrupt is a one-shot raised when an interrupt line completes
	// its countdown; the bus clears it after latching i_stat.
	FireInterrupt bool

	reading bool

	sectorData [SectorSize]byte

	// DiscInserted controls whether GetID reports a disc present.
	DiscInserted bool

	readCB ReadCallback

	// UnknownIO is invoked (if set) when the host issues an unrecognised
	// command byte or indexed-register access, in place of the source's
	// debug-break: the kernel reports the fault and does not progress past
	// the offending access.
	UnknownIO func(err error)
}

// New creates a Drive with its FIFOs allocated and DiscInserted defaulted
// to true.
func New() *Drive {
	d := &Drive{
		Parameter:    fifo.New(16),
		Data:         fifo.New(4096),
		DiscInserted: true,
	}
	for i := range d.lines {
		d.lines[i].response = fifo.New(16)
	}
	d.Reset()
	return d
}

// Reset clears all drive state without reallocating the FIFOs.
func (d *Drive) Reset() {
	d.Parameter.Reset()
	d.Data.Reset()
	for i := range d.lines {
		d.lines[i].response.Reset()
		d.lines[i].pending = false
		d.lines[i].cycles = 0
		d.lines[i].hasNext = false
	}
	d.currentInterrupt = noLine
	d.InterruptFlag = 0
	d.InterruptEnable = 0
	d.statusIndex = 0
	d.ResponseStatus = 0
	d.Mode = 0
	d.Position = Position{}
	d.SectorCount = 0
	d.sectorReadCycleCount = 0
	d.setSpeed()
	d.FireInterrupt = false
	d.reading = false
}

// SetReadCallback installs (or clears, with nil) the sector-delivery
// callback.
func (d *Drive) SetReadCallback(cb ReadCallback) {
	d.readCB = cb
}

func (d *Drive) doubleSpeed() bool {
	return d.Mode&0x80 != 0
}

func (d *Drive) sectorSize2340() bool {
	return d.Mode&0x20 != 0
}

func (d *Drive) setSpeed() {
	sectorsPerSecond := 75
	if d.doubleSpeed() {
		sectorsPerSecond = 150
	}
	d.sectorReadCycleCountMax = systemClockHz / sectorsPerSecond
}

func (d *Drive) arm(line lineID, cycles int, response []uint8) {
	idx := lineIndex(line)
	l := &d.lines[idx]
	l.response.Reset()
	l.response.EnqueueBytes(response...)
	l.pending = true
	l.cycles = cycles
	l.hasNext = false

	if d.currentInterrupt == noLine {
		d.currentInterrupt = line
	} else {
		// chain onto whichever line is currently the tail of the chain
		// rooted at currentInterrupt. A self-loop (ReadN's repeating INT1)
		// counts as the tail: the new line replaces the loop, otherwise
		// the walk would never terminate.
		curID := d.currentInterrupt
		for {
			cur := &d.lines[lineIndex(curID)]
			if !cur.hasNext || cur.next == curID {
				cur.next = line
				cur.hasNext = true
				break
			}
			curID = cur.next
		}
	}
}

// selfChain makes line follow itself, used by ReadN's repeating INT1.
func (d *Drive) selfChain(line lineID) {
	d.lines[lineIndex(line)].next = line
	d.lines[lineIndex(line)].hasNext = true
}

// WriteCommand issues a new drive command. params must already have been
// pushed into the Parameter FIFO by the host.
func (d *Drive) WriteCommand(cmd uint8) {
	switch cmd {
	case 0x01: // Getstat
		d.arm(Int3, 20000, []uint8{d.ResponseStatus})

	case 0x02: // Setloc: BCD minute, second, sector
		min := decodeBCD(uint8(d.Parameter.Dequeue()))
		sec := decodeBCD(uint8(d.Parameter.Dequeue()))
		frm := decodeBCD(uint8(d.Parameter.Dequeue()))
		d.Position = Position{Minute: min, Second: sec, Sector: frm}
		d.arm(Int3, 20000, []uint8{d.ResponseStatus})

	case 0x06: // ReadN
		d.reading = true
		d.ResponseStatus |= 0x20
		d.arm(Int3, 20000, []uint8{d.ResponseStatus})

	case 0x09: // Pause
		d.reading = false
		d.ResponseStatus &^= 0x20
		d.arm(Int3, 20000, []uint8{d.ResponseStatus})
		d.arm(Int2, 25000, []uint8{d.ResponseStatus})

	case 0x0A: // Init
		d.arm(Int3, 20000, []uint8{d.ResponseStatus})
		d.Mode = 0x02
		d.setSpeed()
		d.arm(Int2, 25000, []uint8{d.ResponseStatus})

	case 0x0E: // Setmode
		d.Mode = uint8(d.Parameter.Dequeue())
		d.setSpeed()
		d.arm(Int3, 20000, []uint8{d.ResponseStatus})

	case 0x15: // SeekL
		d.ResponseStatus |= 0x40
		d.arm(Int3, 20000, []uint8{d.ResponseStatus})
		d.ResponseStatus &^= 0x40
		d.arm(Int2, 25000, []uint8{d.ResponseStatus})

	case 0x19, 0x20: // Get BIOS date
		d.arm(Int3, 20000, []uint8{0x94, 0x09, 0x19, 0xC0})

	case 0x1A: // GetID
		d.arm(Int3, 20000, []uint8{d.ResponseStatus})
		if d.DiscInserted {
			d.arm(Int2, 25000, []uint8{0x02, 0x00, 0x20, 0x00, 'S', 'C', 'E', 'A'})
		} else {
			d.arm(Int5, 25000, []uint8{0x08, 0x40, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00})
		}

	default:
		err := curated.Errorf("cdrom: unknown command %#02x", cmd)
		logger.Log("cdrom", err)
		if d.UnknownIO != nil {
			d.UnknownIO(err)
		}
		d.Parameter.Reset()
		return
	}

	d.Parameter.Reset()
}

func decodeBCD(v uint8) int {
	return int(v) - 6*int(v>>4)
}

// linearSectorAddress computes the byte offset passed to the read
// callback, per the CD-DA addressing convention (150 lead-in frames
// subtracted).
func (d *Drive) linearSectorAddress() uint32 {
	frames := (d.Position.Sector + d.SectorCount) +
		d.Position.Second*75 +
		d.Position.Minute*60*75 - 150
	return uint32(frames)*SectorSize + 24
}

// Step advances the drive's sector-read timer and interrupt chain by one
// bus tick.
func (d *Drive) Step() {
	if d.reading {
		d.sectorReadCycleCount++
		if d.sectorReadCycleCount >= d.sectorReadCycleCountMax {
			d.sectorReadCycleCount = 0

			if d.readCB != nil {
				d.readCB(d.linearSectorAddress(), &d.sectorData)
			}
			d.SectorCount++

			d.arm(Int1, 1, []uint8{d.ResponseStatus})
			d.selfChain(Int1)
		}
	}

	if d.currentInterrupt != noLine {
		l := &d.lines[lineIndex(d.currentInterrupt)]
		if l.pending {
			l.cycles--
			if l.cycles <= 0 {
				d.FireInterrupt = true
				l.pending = false
				d.InterruptFlag = (d.InterruptFlag &^ 0x07) | uint8(d.currentInterrupt)
			}
		}
	}
}

// currentResponse returns the response FIFO of the currently latched
// interrupt line, or nil if none.
func (d *Drive) currentResponse() *fifo.FIFO {
	if d.currentInterrupt == noLine {
		return nil
	}
	return d.lines[lineIndex(d.currentInterrupt)].response
}

// ReadResponseFIFO dequeues one byte from the currently latched
// interrupt's response FIFO.
func (d *Drive) ReadResponseFIFO() uint8 {
	r := d.currentResponse()
	if r == nil {
		return 0
	}
	return uint8(r.Dequeue())
}

// AckInterruptFlag is called when the host writes to the Interrupt Flag
// register: writing bits overlapping the current interrupt's type advances
// the chain (or clears it, if nothing follows). Writes also clear the
// acknowledged bits from InterruptFlag. Real drivers ack with a fixed
// mask (conventionally 0x07) rather than echoing back the exact type byte
// they read, so the match is a bitwise overlap, not equality; the
// invariant that at most one line is ever pending at a time means this
// can never ack the wrong line.
func (d *Drive) AckInterruptFlag(value uint8) {
	typeBits := value & 0x07
	if d.currentInterrupt != noLine && typeBits&uint8(d.currentInterrupt) != 0 {
		l := &d.lines[lineIndex(d.currentInterrupt)]
		if l.hasNext && l.next != d.currentInterrupt {
			d.currentInterrupt = l.next
		} else {
			// terminal line, or a self-loop whose re-arm comes from the
			// sector timer rather than from the chain itself
			l.response.Reset()
			l.pending = false
			l.cycles = 0
			l.hasNext = false
			d.currentInterrupt = noLine
		}
	}
	d.InterruptFlag &^= typeBits
}

// statusByte packs the index selector into the low two bits of the status
// register read at offset 0.
func (d *Drive) statusByte() uint8 {
	return (d.ResponseStatus &^ 0x03) | (d.statusIndex & 0x03)
}

// Read services a host read of one of the four indexed registers at
// 0x1F801800 + offset.
func (d *Drive) Read(offset uint8) uint8 {
	switch offset {
	case 0:
		return d.statusByte()
	case 1:
		if d.statusIndex == 1 {
			return d.ReadResponseFIFO()
		}
	case 2:
		return uint8(d.Data.Dequeue())
	case 3:
		switch d.statusIndex {
		case 0:
			return d.InterruptEnable
		case 1:
			return d.InterruptFlag | 0xE0
		}
	}

	err := curated.Errorf("cdrom: unknown register read offset=%d index=%d", offset, d.statusIndex)
	logger.Log("cdrom", err)
	if d.UnknownIO != nil {
		d.UnknownIO(err)
	}
	return 0
}

// Write services a host write of one of the four indexed registers at
// 0x1F801800 + offset.
func (d *Drive) Write(offset uint8, value uint8) {
	switch offset {
	case 0:
		d.statusIndex = value & 0x03
		return
	case 1:
		switch d.statusIndex {
		case 0:
			d.WriteCommand(value)
			return
		}
	case 2:
		switch d.statusIndex {
		case 0:
			d.Parameter.Enqueue(int32(value))
			return
		case 1:
			d.InterruptEnable = value
			return
		}
	case 3:
		switch d.statusIndex {
		case 0:
			if value&0x80 != 0 {
				d.refillDataFIFO()
			}
			return
		case 1:
			d.AckInterruptFlag(value)
			return
		}
	}

	err := curated.Errorf("cdrom: unknown register write offset=%d index=%d value=%#02x", offset, d.statusIndex, value)
	logger.Log("cdrom", err)
	if d.UnknownIO != nil {
		d.UnknownIO(err)
	}
}

func (d *Drive) refillDataFIFO() {
	d.Data.Reset()
	size := 2048
	if d.sectorSize2340() {
		size = 2340
	}
	for i := 0; i < size; i++ {
		d.Data.Enqueue(int32(d.sectorData[i]))
	}
}

// SectorData exposes the raw buffer of the most recently delivered sector,
// used by the CD-ROM DMA channel to copy bytes directly into RAM.
func (d *Drive) SectorData() *[SectorSize]byte {
	return &d.sectorData
}
