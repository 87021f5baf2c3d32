// Package debugtools provides host-facing introspection aids that are not
// part of the emulation kernel's synchronous call surface. DumpTopology
// renders the bus's interrupt status/mask and DMA control registers (DPCR,
// DICR) and the CD-ROM drive's interrupt flag, interrupt enable and
// response-status bytes as a Graphviz graph. The per-channel DMA registers
// and the drive's interrupt chain are not included.
package debugtools

import (
	"io"

	"github.com/bradleyjkemp/memviz"

	"github.com/station32/corebox/bus"
)

// topologySnapshot is a plain value copied out of the live bus/CD-ROM
// state so memviz walks a stable struct rather than racing a running
// kernel (the kernel itself is single-threaded, but a snapshot keeps this
// tool decoupled from that guarantee).
type topologySnapshot struct {
	IStat, IMask uint32
	Dpcr, Dicr   uint32
	CDROM        cdromSnapshot
}

type cdromSnapshot struct {
	InterruptFlag, InterruptEnable uint8
	ResponseStatus                 uint8
}

// DumpTopology writes a Graphviz `.dot` rendering of b's DMA/interrupt
// state to w.
func DumpTopology(w io.Writer, b *bus.Bus) {
	snap := topologySnapshot{
		IStat: b.IStat,
		IMask: b.IMask,
		Dpcr:  b.Dpcr,
		Dicr:  b.Dicr,
		CDROM: cdromSnapshot{
			InterruptFlag:   b.CDROM.InterruptFlag,
			InterruptEnable: b.CDROM.InterruptEnable,
			ResponseStatus:  b.CDROM.ResponseStatus,
		},
	}
	memviz.Map(w, &snap)
}
