// Package bus implements the system bus: address decode across
// RAM/scratchpad/BIOS/I-O, the three DMA channel engines, and interrupt
// aggregation against the CD-ROM drive. It is the narrow interface the CPU
// interpreter loads and stores through: cpu never sees RAM directly, only
// this bus.
package bus

import (
	"encoding/binary"

	"github.com/station32/corebox/cdrom"
	"github.com/station32/corebox/curated"
	"github.com/station32/corebox/logger"
)

const (
	ramSize        = 2 * 1024 * 1024
	scratchpadSize = 1024
)

// GPU is the narrow interface the bus drives DMA channel 2 and the GP0/GP1
// memory-mapped ports through. The GPU itself is an opaque collaborator:
// this kernel never rasterizes a pixel.
type GPU interface {
	GP0(word uint32)
	GP1(word uint32)
	GPURead() uint32
	Status() uint32
}

// nopGPU satisfies GPU for hosts that have not yet attached a real one; it
// echoes writes back on GPURead, just enough for DMA engine tests to run
// against something.
type nopGPU struct {
	read   uint32
	status uint32
}

func (g *nopGPU) GP0(word uint32) { g.read = word }
func (g *nopGPU) GP1(word uint32) { g.status = word }
func (g *nopGPU) GPURead() uint32 { return g.read }
func (g *nopGPU) Status() uint32  { return g.status }

// dmaChannel is one of the three per-channel register blocks: base
// address, block count/size, and the channel control word (busy bit
// included).
type dmaChannel struct {
	Madr uint32
	Bcr  uint32
	Chcr uint32
}

func (c *dmaChannel) bcrLow() uint32  { return c.Bcr & 0xFFFF }
func (c *dmaChannel) bcrHigh() uint32 { return (c.Bcr >> 16) & 0xFFFF }

const dmaBusyBit = 1 << 24

func (c *dmaChannel) clearBusy() { c.Chcr &^= dmaBusyBit }

// Bus owns RAM, scratchpad, the borrowed BIOS image, the DMA channel
// blocks and the CD-ROM drive, and dispatches the CPU's loads/stores.
type Bus struct {
	ram        [ramSize]byte
	scratchpad [scratchpadSize]byte
	bios       []byte

	dma2 dmaChannel // GPU
	dma3 dmaChannel // CD-ROM
	dma6 dmaChannel // OTC
	Dpcr uint32
	Dicr uint32

	IStat uint32
	IMask uint32

	GPU   GPU
	CDROM *cdrom.Drive

	// UnknownIO mirrors the CD-ROM drive's debug-break hook for
	// out-of-range bus accesses and unrecognized DMA chcr words.
	UnknownIO func(err error)
}

// Interrupt line bits within i_stat/i_mask.
const (
	IRQVBlank = 1 << 0
	IRQCDROM  = 1 << 2
)

// New creates a Bus with RAM/scratchpad zeroed, the given BIOS image
// borrowed, not copied (its lifetime must outlive the Bus), a stub GPU,
// and a fresh CD-ROM drive.
func New(bios []byte) *Bus {
	b := &Bus{
		bios:  bios,
		GPU:   &nopGPU{},
		CDROM: cdrom.New(),
	}
	return b
}

// Reset re-zeros RAM/scratchpad and re-initializes the DMA/interrupt
// registers and the CD-ROM drive, without touching the borrowed BIOS
// buffer. Two consecutive resets are indistinguishable from one.
func (b *Bus) Reset() {
	b.ram = [ramSize]byte{}
	b.scratchpad = [scratchpadSize]byte{}

	b.dma2 = dmaChannel{}
	b.dma3 = dmaChannel{}
	b.dma6 = dmaChannel{}
	b.Dpcr = 0
	b.Dicr = 0
	b.IStat = 0
	b.IMask = 0
	b.CDROM.Reset()
}

func translate(vaddr uint32) uint32 {
	return vaddr & 0x1FFFFFFF
}

// region classifies a physical address into the top-level decode regions.
type region int

const (
	regionRAM region = iota
	regionScratchpad
	regionIO
	regionBIOS
	regionUnmapped
)

func classify(paddr uint32) region {
	top16 := paddr >> 16
	switch {
	case top16 <= 0x001F:
		return regionRAM
	case top16 == 0x1F80:
		switch (paddr >> 12) & 0xF {
		case 0x0:
			return regionScratchpad
		case 0x1:
			return regionIO
		}
	case top16 >= 0x1FC0 && top16 <= 0x1FC7:
		return regionBIOS
	}
	return regionUnmapped
}

func (b *Bus) unknown(format string, args ...any) {
	err := curated.Errorf(format, args...)
	logger.Log("bus", err)
	if b.UnknownIO != nil {
		b.UnknownIO(err)
	}
}

// ReadWord reads a 32-bit little-endian word at the given virtual address.
func (b *Bus) ReadWord(vaddr uint32) uint32 {
	paddr := translate(vaddr)
	switch classify(paddr) {
	case regionRAM:
		return binary.LittleEndian.Uint32(b.ram[paddr&(ramSize-1):])
	case regionScratchpad:
		return binary.LittleEndian.Uint32(b.scratchpad[paddr&(scratchpadSize-1):])
	case regionBIOS:
		off := paddr & 0x7FFFF
		if int(off)+4 > len(b.bios) {
			return 0
		}
		return binary.LittleEndian.Uint32(b.bios[off:])
	case regionIO:
		return b.readIO(paddr & 0xFFF)
	default:
		return 0
	}
}

// WriteWord writes a 32-bit little-endian word at the given virtual
// address.
func (b *Bus) WriteWord(vaddr uint32, value uint32) {
	paddr := translate(vaddr)
	switch classify(paddr) {
	case regionRAM:
		binary.LittleEndian.PutUint32(b.ram[paddr&(ramSize-1):], value)
	case regionScratchpad:
		binary.LittleEndian.PutUint32(b.scratchpad[paddr&(scratchpadSize-1):], value)
	case regionBIOS:
		// read-only
	case regionIO:
		b.writeIO(paddr&0xFFF, value)
	}
}

// ReadHalf reads a 16-bit little-endian halfword.
func (b *Bus) ReadHalf(vaddr uint32) uint16 {
	paddr := translate(vaddr)
	switch classify(paddr) {
	case regionRAM:
		return binary.LittleEndian.Uint16(b.ram[paddr&(ramSize-1):])
	case regionScratchpad:
		return binary.LittleEndian.Uint16(b.scratchpad[paddr&(scratchpadSize-1):])
	case regionBIOS:
		off := paddr & 0x7FFFF
		if int(off)+2 > len(b.bios) {
			return 0
		}
		return binary.LittleEndian.Uint16(b.bios[off:])
	case regionIO:
		return uint16(b.readIO(paddr & 0xFFF))
	default:
		return 0
	}
}

// WriteHalf writes a 16-bit little-endian halfword.
func (b *Bus) WriteHalf(vaddr uint32, value uint16) {
	paddr := translate(vaddr)
	switch classify(paddr) {
	case regionRAM:
		binary.LittleEndian.PutUint16(b.ram[paddr&(ramSize-1):], value)
	case regionScratchpad:
		binary.LittleEndian.PutUint16(b.scratchpad[paddr&(scratchpadSize-1):], value)
	case regionIO:
		b.writeIO(paddr&0xFFF, uint32(value))
	}
}

// ReadByte reads a single byte.
func (b *Bus) ReadByte(vaddr uint32) uint8 {
	paddr := translate(vaddr)
	switch classify(paddr) {
	case regionRAM:
		return b.ram[paddr&(ramSize-1)]
	case regionScratchpad:
		return b.scratchpad[paddr&(scratchpadSize-1)]
	case regionBIOS:
		off := paddr & 0x7FFFF
		if int(off) >= len(b.bios) {
			return 0
		}
		return b.bios[off]
	case regionIO:
		return uint8(b.readIO(paddr & 0xFFF))
	default:
		return 0
	}
}

// WriteByte writes a single byte.
func (b *Bus) WriteByte(vaddr uint32, value uint8) {
	paddr := translate(vaddr)
	switch classify(paddr) {
	case regionRAM:
		b.ram[paddr&(ramSize-1)] = value
	case regionScratchpad:
		b.scratchpad[paddr&(scratchpadSize-1)] = value
	case regionIO:
		b.writeIO(paddr&0xFFF, uint32(value))
	}
}

func (b *Bus) readIO(off uint32) uint32 {
	switch {
	case off == 0x070:
		return b.IStat
	case off == 0x074:
		return b.IMask
	case off >= 0x0A0 && off <= 0x0A8:
		return b.dmaRegRead(&b.dma2, off-0x0A0)
	case off >= 0x0B0 && off <= 0x0B8:
		return b.dmaRegRead(&b.dma3, off-0x0B0)
	case off >= 0x0E0 && off <= 0x0E8:
		return b.dmaRegRead(&b.dma6, off-0x0E0)
	case off == 0x0F0:
		return b.Dpcr
	case off == 0x0F4:
		return b.Dicr
	case off >= 0x800 && off <= 0x803:
		return uint32(b.CDROM.Read(uint8(off - 0x800)))
	case off == 0x810:
		return b.GPU.GPURead()
	case off == 0x814:
		return b.GPU.Status()
	}
	b.unknown("bus: unknown I/O read offset=%#03x", off)
	return 0
}

func (b *Bus) writeIO(off uint32, value uint32) {
	switch {
	case off == 0x070:
		b.IStat &= value
	case off == 0x074:
		b.IMask = value
	case off >= 0x0A0 && off <= 0x0A8:
		b.dmaRegWrite(&b.dma2, off-0x0A0, value)
	case off >= 0x0B0 && off <= 0x0B8:
		b.dmaRegWrite(&b.dma3, off-0x0B0, value)
	case off >= 0x0E0 && off <= 0x0E8:
		b.dmaRegWrite(&b.dma6, off-0x0E0, value)
	case off == 0x0F0:
		b.Dpcr = value
	case off == 0x0F4:
		b.Dicr = value
	case off >= 0x800 && off <= 0x803:
		b.CDROM.Write(uint8(off-0x800), uint8(value))
	case off == 0x810:
		b.GPU.GP0(value)
	case off == 0x814:
		b.GPU.GP1(value)
	default:
		b.unknown("bus: unknown I/O write offset=%#03x value=%#08x", off, value)
	}
}

func (b *Bus) dmaRegRead(c *dmaChannel, sub uint32) uint32 {
	switch sub {
	case 0x0:
		return c.Madr
	case 0x4:
		return c.Bcr
	case 0x8:
		return c.Chcr
	}
	return 0
}

func (b *Bus) dmaRegWrite(c *dmaChannel, sub uint32, value uint32) {
	switch sub {
	case 0x0:
		c.Madr = value
	case 0x4:
		c.Bcr = value
	case 0x8:
		c.Chcr = value
	}
}

// Step advances DMA, then the interrupt-aggregation, then the CD-ROM
// drive by one bus tick, per the system's fixed within-step ordering.
func (b *Bus) Step() {
	enable := b.Dpcr & 0x08888888
	if enable&(1<<(2*4+3)) != 0 {
		b.stepDMA2()
	}
	if enable&(1<<(3*4+3)) != 0 {
		b.stepDMA3()
	}
	if enable&(1<<(6*4+3)) != 0 {
		b.stepDMA6()
	}

	if b.CDROM.FireInterrupt {
		b.IStat |= IRQCDROM
		b.CDROM.FireInterrupt = false
	}
	b.CDROM.Step()
}

func (b *Bus) stepDMA2() {
	if b.dma2.Chcr&dmaBusyBit == 0 {
		return
	}
	defer b.dma2.clearBusy()
	switch b.dma2.Chcr {
	case 0x01000200: // VRAM -> CPU
		addr := b.dma2.Madr
		count := b.dma2.bcrHigh() * b.dma2.bcrLow()
		for i := uint32(0); i < count; i++ {
			b.WriteWord(addr, b.GPU.GPURead())
			addr += 4
		}
	case 0x01000201: // CPU -> VRAM
		addr := b.dma2.Madr
		count := b.dma2.bcrHigh() * b.dma2.bcrLow()
		for i := uint32(0); i < count; i++ {
			b.GPU.GP0(b.ReadWord(addr))
			addr += 4
		}
	case 0x01000401: // linked list
		addr := b.dma2.Madr
		for {
			header := b.ReadWord(addr)
			words := header >> 24
			next := addr
			for i := uint32(0); i < words; i++ {
				next += 4
				b.GPU.GP0(b.ReadWord(next))
			}
			if header&0x00800000 != 0 {
				break
			}
			addr = header & 0x001FFFFC
		}
	default:
		b.unknown("bus: unrecognized DMA2 chcr %#08x", b.dma2.Chcr)
	}
}

func (b *Bus) stepDMA3() {
	if b.dma3.Chcr&dmaBusyBit == 0 {
		return
	}
	defer b.dma3.clearBusy()
	switch b.dma3.Chcr {
	case 0x11000000:
		n := b.dma3.bcrLow() * 4
		sector := b.CDROM.SectorData()
		addr := b.dma3.Madr
		for i := uint32(0); i < n && i < uint32(len(sector)); i++ {
			b.WriteByte(addr+i, sector[i])
		}
	default:
		b.unknown("bus: unrecognized DMA3 chcr %#08x", b.dma3.Chcr)
	}
}

func (b *Bus) stepDMA6() {
	if b.dma6.Chcr&dmaBusyBit == 0 {
		return
	}
	defer b.dma6.clearBusy()
	switch b.dma6.Chcr {
	case 0x11000002:
		addr := b.dma6.Madr
		n := b.dma6.Bcr
		for i := uint32(0); i < n; i++ {
			addr -= 4
			if i == n-1 {
				b.WriteWord(addr, 0x00FFFFFF)
			} else {
				b.WriteWord(addr, (addr-4)&0x00FFFFFF)
			}
		}
	default:
		b.unknown("bus: unrecognized DMA6 chcr %#08x", b.dma6.Chcr)
	}
}
