package cpu_test

import (
	"encoding/binary"
	"testing"

	"github.com/station32/corebox/cpu"
	"github.com/station32/corebox/gte"
	"github.com/station32/corebox/random"
	"github.com/station32/corebox/test"
)

// fakeMemory is a flat 512 MiB little-endian array indexed by the translated
// physical address, enough to cover BIOS (0x1FC00000) and low RAM (0x0).
type fakeMemory struct {
	mem [0x20000000]byte
}

func (m *fakeMemory) paddr(vaddr uint32) uint32 { return vaddr & 0x1FFFFFFF }

func (m *fakeMemory) ReadWord(vaddr uint32) uint32 {
	return binary.LittleEndian.Uint32(m.mem[m.paddr(vaddr):])
}
func (m *fakeMemory) WriteWord(vaddr uint32, value uint32) {
	binary.LittleEndian.PutUint32(m.mem[m.paddr(vaddr):], value)
}
func (m *fakeMemory) ReadHalf(vaddr uint32) uint16 {
	return binary.LittleEndian.Uint16(m.mem[m.paddr(vaddr):])
}
func (m *fakeMemory) WriteHalf(vaddr uint32, value uint16) {
	binary.LittleEndian.PutUint16(m.mem[m.paddr(vaddr):], value)
}
func (m *fakeMemory) ReadByte(vaddr uint32) uint8     { return m.mem[m.paddr(vaddr)] }
func (m *fakeMemory) WriteByte(vaddr uint32, v uint8) { m.mem[m.paddr(vaddr)] = v }

func (m *fakeMemory) putWord(addr uint32, v uint32) {
	binary.LittleEndian.PutUint32(m.mem[m.paddr(addr):], v)
}

func newCPU() (*cpu.CPU, *fakeMemory) {
	mem := &fakeMemory{}
	c := cpu.New(mem, gte.New())
	return c, mem
}

func TestResetFetchesBIOSWord(t *testing.T) {
	mem := &fakeMemory{}
	mem.putWord(0xBFC00000, 0xDEADBEEF)
	c := cpu.New(mem, gte.New())
	test.ExpectEquality(t, c.PC, uint32(0xBFC00000))
	test.ExpectEquality(t, c.Instruction, uint32(0xDEADBEEF))
}

func TestLuiOriComposesImmediate(t *testing.T) {
	c, mem := newCPU()
	// LUI $t0, 0x1234
	mem.putWord(0xBFC00000, 0x3C081234)
	// ORI $t0, $t0, 0x5678
	mem.putWord(0xBFC00004, 0x35085678)
	c.Reset()

	c.Step()
	c.Step()

	test.ExpectEquality(t, c.GPR[8], uint32(0x12345678))
}

func TestJalLinksAndRedirects(t *testing.T) {
	c, mem := newCPU()
	// JAL 0xBFC01000 -> target field = (0xBFC01000 & 0x0FFFFFFF) >> 2
	jalTarget := uint32(0xBFC01000&0x0FFFFFFF) >> 2
	mem.putWord(0xBFC00000, 0x0C000000|jalTarget)
	mem.putWord(0xBFC01000, 0x00000000) // NOP at target
	c.Reset()

	c.Step()

	test.ExpectEquality(t, c.GPR[31], uint32(0xBFC00008))
	test.ExpectEquality(t, c.NextPC, uint32(0xBFC01000))
}

func TestSwUnderCacheIsolationDoesNotWriteRAM(t *testing.T) {
	c, mem := newCPU()
	// ADDIU $t0, $zero, 0x1234
	mem.putWord(0xBFC00000, 0x24081234)
	// SW $t0, 0($zero)
	mem.putWord(0xBFC00004, 0xAC080000)
	c.Reset()
	c.COP0[12] = 1 << 16 // SR.IsC

	c.Step()
	c.Step()

	test.ExpectEquality(t, mem.ReadWord(0x00000000), uint32(0))
}

func TestSwWritesRAMWhenNotIsolated(t *testing.T) {
	c, mem := newCPU()
	mem.putWord(0xBFC00000, 0x24081234) // ADDIU $t0, $zero, 0x1234
	mem.putWord(0xBFC00004, 0xAC080000) // SW $t0, 0($zero)
	c.Reset()

	c.Step()
	c.Step()

	test.ExpectEquality(t, mem.ReadWord(0x00000000), uint32(0x1234))
}

func TestGpr0IsAlwaysZero(t *testing.T) {
	c, mem := newCPU()
	mem.putWord(0xBFC00000, 0x24001234) // ADDIU $zero, $zero, 0x1234
	c.Reset()

	c.Step()

	test.ExpectEquality(t, c.GPR[0], uint32(0))
}

func TestSyscallRaisesException(t *testing.T) {
	c, mem := newCPU()
	mem.putWord(0xBFC00000, 0x0000000C) // SYSCALL
	c.Reset()

	c.Step()

	test.ExpectEquality(t, c.COP0[14], uint32(0xBFC00004))
	test.ExpectEquality(t, c.NextPC, uint32(0x80000080))
}

func TestAddiuSignExtendsRandomImmediates(t *testing.T) {
	rnd := random.NewRandom(nil)
	c, mem := newCPU()

	for i := 0; i < 256; i++ {
		var b [2]byte
		rnd.Fill(b[:])
		imm := binary.LittleEndian.Uint16(b[:])

		// ADDIU $t0, $zero, imm
		mem.putWord(0xBFC00000, 0x24080000|uint32(imm))
		c.Reset()
		c.Step()

		test.ExpectEquality(t, c.GPR[8], uint32(int32(int16(imm))))
	}
}

func TestUnalignedStoreThenLoadReconstructsWord(t *testing.T) {
	rnd := random.NewRandom(nil)
	c, mem := newCPU()

	// SWR $t0, 0($t1) ; SWL $t0, 3($t1) ; LWL $t2, 3($t1) ; LWR $t2, 0($t1)
	mem.putWord(0xBFC00000, 0xB9280000)
	mem.putWord(0xBFC00004, 0xA9280003)
	mem.putWord(0xBFC00008, 0x892A0003)
	mem.putWord(0xBFC0000C, 0x992A0000)

	for i := 0; i < 64; i++ {
		var pb [4]byte
		rnd.Fill(pb[:])
		payload := binary.LittleEndian.Uint32(pb[:])

		var ab [2]byte
		rnd.Fill(ab[:])
		// a keeps its random low two bits, so all four alignments of the
		// store/load pairs are exercised across the iterations
		a := 0x1000 + uint32(binary.LittleEndian.Uint16(ab[:]))

		c.Reset()
		c.GPR[8] = payload
		c.GPR[9] = a
		c.Step()
		c.Step()
		c.Step()
		c.Step()

		test.ExpectEquality(t, c.GPR[10], payload)
	}
}

func TestLwlAllAlignments(t *testing.T) {
	// memory word 0x11223344, register preloaded with 0xAABBCCDD
	wants := [4]uint32{0x44BBCCDD, 0x3344CCDD, 0x223344DD, 0x11223344}
	for n := uint32(0); n < 4; n++ {
		c, mem := newCPU()
		mem.putWord(0x2000, 0x11223344)
		mem.putWord(0xBFC00000, 0x892A0000|n) // LWL $t2, n($t1)
		c.Reset()
		c.GPR[9] = 0x2000
		c.GPR[10] = 0xAABBCCDD
		c.Step()
		test.ExpectEquality(t, c.GPR[10], wants[n])
	}
}

func TestLwrAllAlignments(t *testing.T) {
	wants := [4]uint32{0x11223344, 0xAA112233, 0xAABB1122, 0xAABBCC11}
	for n := uint32(0); n < 4; n++ {
		c, mem := newCPU()
		mem.putWord(0x2000, 0x11223344)
		mem.putWord(0xBFC00000, 0x992A0000|n) // LWR $t2, n($t1)
		c.Reset()
		c.GPR[9] = 0x2000
		c.GPR[10] = 0xAABBCCDD
		c.Step()
		test.ExpectEquality(t, c.GPR[10], wants[n])
	}
}

func TestSwlAllAlignments(t *testing.T) {
	// register 0x11223344 stored over memory word 0xAABBCCDD
	wants := [4]uint32{0xAABBCC11, 0xAABB1122, 0xAA112233, 0x11223344}
	for n := uint32(0); n < 4; n++ {
		c, mem := newCPU()
		mem.putWord(0x2000, 0xAABBCCDD)
		mem.putWord(0xBFC00000, 0xA9280000|n) // SWL $t0, n($t1)
		c.Reset()
		c.GPR[8] = 0x11223344
		c.GPR[9] = 0x2000
		c.Step()
		test.ExpectEquality(t, mem.ReadWord(0x2000), wants[n])
	}
}

func TestSwrAllAlignments(t *testing.T) {
	wants := [4]uint32{0x11223344, 0x223344DD, 0x3344CCDD, 0x44BBCCDD}
	for n := uint32(0); n < 4; n++ {
		c, mem := newCPU()
		mem.putWord(0x2000, 0xAABBCCDD)
		mem.putWord(0xBFC00000, 0xB9280000|n) // SWR $t0, n($t1)
		c.Reset()
		c.GPR[8] = 0x11223344
		c.GPR[9] = 0x2000
		c.Step()
		test.ExpectEquality(t, mem.ReadWord(0x2000), wants[n])
	}
}

func TestSwlSwrStoreUnalignedWord(t *testing.T) {
	c, mem := newCPU()
	payload := uint32(0x11223344)

	// SWR $t0, 0($t1) ; SWL $t0, 3($t1) with $t1 = 0x2001, spanning the two
	// aligned words at 0x2000 and 0x2004
	mem.putWord(0xBFC00000, 0xB9280000)
	mem.putWord(0xBFC00004, 0xA9280003)
	c.Reset()
	c.GPR[8] = payload
	c.GPR[9] = 0x2001

	c.Step()
	c.Step()

	test.ExpectEquality(t, mem.ReadByte(0x2000), uint8(0))
	test.ExpectEquality(t, mem.ReadByte(0x2001), uint8(payload))
	test.ExpectEquality(t, mem.ReadByte(0x2002), uint8(payload>>8))
	test.ExpectEquality(t, mem.ReadByte(0x2003), uint8(payload>>16))
	test.ExpectEquality(t, mem.ReadByte(0x2004), uint8(payload>>24))
}

// runALU executes one R-type ALU instruction with $t0=a and $t1=b and
// returns the value left in $t2.
func runALU(t *testing.T, funct uint32, a, b uint32) uint32 {
	t.Helper()
	c, mem := newCPU()
	mem.putWord(0xBFC00000, 8<<21|9<<16|10<<11|funct)
	c.Reset()
	c.GPR[8], c.GPR[9] = a, b
	c.Step()
	return c.GPR[10]
}

func TestALURegisterOps(t *testing.T) {
	cases := []struct {
		funct uint32
		a, b  uint32
		want  uint32
	}{
		{0x20, 3, 4, 7},                            // ADD
		{0x21, 0xFFFFFFFF, 2, 1},                   // ADDU wraps
		{0x22, 10, 4, 6},                           // SUB
		{0x23, 2, 4, 0xFFFFFFFE},                   // SUBU wraps
		{0x24, 0xF0F0F0F0, 0xFF00FF00, 0xF000F000}, // AND
		{0x25, 0xF0F0F0F0, 0x0F0F0F0F, 0xFFFFFFFF}, // OR
		{0x26, 0xFF00FF00, 0x0F0F0F0F, 0xF00FF00F}, // XOR
		{0x27, 0xF0F0F0F0, 0x0F0F0000, 0x00000F0F}, // NOR
		{0x2A, 0xFFFFFFFF, 1, 1},                   // SLT: -1 < 1
		{0x2A, 1, 0xFFFFFFFF, 0},                   // SLT: 1 < -1 is false
		{0x2B, 1, 0xFFFFFFFF, 1},                   // SLTU: 1 < 0xFFFFFFFF
		{0x2B, 0xFFFFFFFF, 1, 0},                   // SLTU
	}
	for _, tc := range cases {
		test.ExpectEquality(t, runALU(t, tc.funct, tc.a, tc.b), tc.want)
	}
}

func TestShiftImmediates(t *testing.T) {
	cases := []struct {
		funct uint32
		v     uint32
		shamt uint32
		want  uint32
	}{
		{0x00, 0x00000001, 4, 0x00000010}, // SLL
		{0x00, 0x80000001, 0, 0x80000001}, // SLL by zero
		{0x02, 0x80000000, 4, 0x08000000}, // SRL
		{0x03, 0x80000000, 4, 0xF8000000}, // SRA sign-fills
		{0x03, 0x40000000, 4, 0x04000000}, // SRA of positive
	}
	for _, tc := range cases {
		c, mem := newCPU()
		mem.putWord(0xBFC00000, 8<<16|10<<11|tc.shamt<<6|tc.funct)
		c.Reset()
		c.GPR[8] = tc.v
		c.Step()
		test.ExpectEquality(t, c.GPR[10], tc.want)
	}
}

func TestShiftVariableMasksAmount(t *testing.T) {
	cases := []struct {
		funct  uint32
		v, amt uint32
		want   uint32
	}{
		{0x04, 0x00000001, 8, 0x00000100},    // SLLV
		{0x04, 0x00000001, 0x21, 0x00000002}, // SLLV: amount masked to 5 bits
		{0x06, 0x80000000, 8, 0x00800000},    // SRLV
		{0x06, 0x80000000, 0x21, 0x40000000}, // SRLV masked
		{0x07, 0x80000000, 8, 0xFF800000},    // SRAV
	}
	for _, tc := range cases {
		c, mem := newCPU()
		mem.putWord(0xBFC00000, 9<<21|8<<16|10<<11|tc.funct)
		c.Reset()
		c.GPR[8], c.GPR[9] = tc.v, tc.amt
		c.Step()
		test.ExpectEquality(t, c.GPR[10], tc.want)
	}
}

func TestImmediateOps(t *testing.T) {
	cases := []struct {
		op   uint32
		a    uint32
		imm  uint16
		want uint32
	}{
		{0x0A, 0xFFFFFFFB, 0xFFFC, 1},          // SLTI: -5 < -4
		{0x0A, 4, 0xFFFC, 0},                   // SLTI: 4 < -4 is false
		{0x0B, 1, 0xFFFF, 1},                   // SLTIU: immediate sign-extends then compares unsigned
		{0x0B, 0xFFFFFFFF, 0x0001, 0},          // SLTIU
		{0x0C, 0xFFFFFFFF, 0x00FF, 0x000000FF}, // ANDI zero-extends
		{0x0D, 0xF0000000, 0x00FF, 0xF00000FF}, // ORI
		{0x0E, 0x000000FF, 0x0F0F, 0x00000FF0}, // XORI
	}
	for _, tc := range cases {
		c, mem := newCPU()
		mem.putWord(0xBFC00000, tc.op<<26|8<<21|10<<16|uint32(tc.imm))
		c.Reset()
		c.GPR[8] = tc.a
		c.Step()
		test.ExpectEquality(t, c.GPR[10], tc.want)
	}
}

func TestMultiplyDivide(t *testing.T) {
	cases := []struct {
		funct  uint32
		a, b   uint32
		hi, lo uint32
	}{
		{0x18, 0xFFFFFFFD, 4, 0xFFFFFFFF, 0xFFFFFFF4}, // MULT: -3 * 4 = -12
		{0x18, 0x10000, 0x10000, 1, 0},                // MULT: 2^32
		{0x19, 0xFFFFFFFF, 2, 1, 0xFFFFFFFE},          // MULTU
		{0x1A, 0xFFFFFFF9, 2, 0xFFFFFFFF, 0xFFFFFFFD}, // DIV: -7/2 = -3 rem -1
		{0x1A, 7, 2, 1, 3},                            // DIV
		{0x1A, 5, 0, 5, 0xFFFFFFFF},                   // DIV by zero: rem = dividend
		{0x1B, 7, 2, 1, 3},                            // DIVU
		{0x1B, 5, 0, 5, 0xFFFFFFFF},                   // DIVU by zero
	}
	for _, tc := range cases {
		c, mem := newCPU()
		mem.putWord(0xBFC00000, 8<<21|9<<16|tc.funct)
		c.Reset()
		c.GPR[8], c.GPR[9] = tc.a, tc.b
		c.Step()
		test.ExpectEquality(t, c.HI, tc.hi)
		test.ExpectEquality(t, c.LO, tc.lo)
	}
}

func TestHiLoMoves(t *testing.T) {
	c, mem := newCPU()
	// MTHI $t0 ; MTLO $t1 ; MFHI $t2 ; MFLO $t3
	mem.putWord(0xBFC00000, 8<<21|0x11)
	mem.putWord(0xBFC00004, 9<<21|0x13)
	mem.putWord(0xBFC00008, 10<<11|0x10)
	mem.putWord(0xBFC0000C, 11<<11|0x12)
	c.Reset()
	c.GPR[8], c.GPR[9] = 0xCAFE0000, 0x0000BABE

	c.Step()
	c.Step()
	c.Step()
	c.Step()

	test.ExpectEquality(t, c.GPR[10], uint32(0xCAFE0000))
	test.ExpectEquality(t, c.GPR[11], uint32(0x0000BABE))
}

func TestBranchConditions(t *testing.T) {
	// each branch sits at the reset vector with offset +4 words
	const taken = uint32(0xBFC00010)
	const notTaken = uint32(0xBFC00004)

	cases := []struct {
		instr uint32
		a, b  uint32
		want  uint32
	}{
		{0x11090004, 7, 7, taken},             // BEQ equal
		{0x11090004, 7, 8, notTaken},          // BEQ unequal
		{0x15090004, 7, 8, taken},             // BNE
		{0x15090004, 7, 7, notTaken},          // BNE equal
		{0x19000004, 0, 0, taken},             // BLEZ zero
		{0x19000004, 0xFFFFFFFF, 0, taken},    // BLEZ negative
		{0x19000004, 1, 0, notTaken},          // BLEZ positive
		{0x1D000004, 1, 0, taken},             // BGTZ
		{0x1D000004, 0, 0, notTaken},          // BGTZ zero
		{0x05000004, 0xFFFFFFFF, 0, taken},    // BLTZ
		{0x05000004, 0, 0, notTaken},          // BLTZ zero
		{0x05010004, 0, 0, taken},             // BGEZ zero
		{0x05010004, 0xFFFFFFFF, 0, notTaken}, // BGEZ negative
	}
	for _, tc := range cases {
		c, mem := newCPU()
		mem.putWord(0xBFC00000, tc.instr)
		c.Reset()
		c.GPR[8], c.GPR[9] = tc.a, tc.b
		c.Step()
		test.ExpectEquality(t, c.NextPC, tc.want)
	}
}

func TestBranchBackwardOffset(t *testing.T) {
	c, mem := newCPU()
	mem.putWord(0xBFC00000, 0x1109FFFF) // BEQ $t0, $t1, -1
	c.Reset()
	c.GPR[8], c.GPR[9] = 1, 1
	c.Step()
	test.ExpectEquality(t, c.NextPC, uint32(0xBFBFFFFC))
}

func TestJumpRetainsPCSegment(t *testing.T) {
	c, mem := newCPU()
	target := uint32(0xBFC02000&0x0FFFFFFF) >> 2
	mem.putWord(0xBFC00000, 0x08000000|target) // J 0xBFC02000
	c.Reset()
	c.Step()
	test.ExpectEquality(t, c.NextPC, uint32(0xBFC02000))
}

func TestJrRedirectsToRegister(t *testing.T) {
	c, mem := newCPU()
	mem.putWord(0xBFC00000, 8<<21|0x08) // JR $t0
	c.Reset()
	c.GPR[8] = 0x80001230
	c.Step()
	test.ExpectEquality(t, c.NextPC, uint32(0x80001230))
}

func TestJalrLinksAndRedirects(t *testing.T) {
	c, mem := newCPU()
	mem.putWord(0xBFC00000, 8<<21|10<<11|0x09) // JALR $t2, $t0
	c.Reset()
	c.GPR[8] = 0x80001230
	c.Step()
	test.ExpectEquality(t, c.GPR[10], uint32(0xBFC00008))
	test.ExpectEquality(t, c.NextPC, uint32(0x80001230))
}

func TestByteAndHalfLoads(t *testing.T) {
	cases := []struct {
		instr uint32
		want  uint32
	}{
		{0x810A0000, 0xFFFFFF80}, // LB sign-extends
		{0x910A0000, 0x00000080}, // LBU
		{0x850A0000, 0xFFFF8680}, // LH sign-extends
		{0x950A0000, 0x00008680}, // LHU
	}
	for _, tc := range cases {
		c, mem := newCPU()
		mem.WriteHalf(0x2000, 0x8680)
		mem.putWord(0xBFC00000, tc.instr)
		c.Reset()
		c.GPR[8] = 0x2000
		c.Step()
		test.ExpectEquality(t, c.GPR[10], tc.want)
	}
}

func TestByteAndHalfStores(t *testing.T) {
	c, mem := newCPU()
	// SB $t2, 0($t0) ; SH $t3, 4($t0)
	mem.putWord(0xBFC00000, 0xA10A0000)
	mem.putWord(0xBFC00004, 0xA50B0004)
	c.Reset()
	c.GPR[8] = 0x2000
	c.GPR[10] = 0x11223399
	c.GPR[11] = 0xAABB5566

	c.Step()
	c.Step()

	test.ExpectEquality(t, mem.ReadByte(0x2000), uint8(0x99))
	test.ExpectEquality(t, mem.ReadByte(0x2001), uint8(0))
	test.ExpectEquality(t, mem.ReadHalf(0x2004), uint16(0x5566))
}

func TestCop0MoveRoundTrip(t *testing.T) {
	c, mem := newCPU()
	// MTC0 $t0, SR ; MFC0 $t2, SR
	mem.putWord(0xBFC00000, 0x40886000)
	mem.putWord(0xBFC00004, 0x400A6000)
	c.Reset()
	c.GPR[8] = 0x00010000

	c.Step()
	test.ExpectEquality(t, c.COP0[12], uint32(0x00010000))
	c.Step()
	test.ExpectEquality(t, c.GPR[10], uint32(0x00010000))
}

func TestRfeIsANoOp(t *testing.T) {
	c, mem := newCPU()
	mem.putWord(0xBFC00000, 0x42000010) // RFE
	c.Reset()
	c.Step()
	test.ExpectSuccess(t, c.Good)
	test.ExpectEquality(t, c.NextPC, uint32(0xBFC00004))
}

func TestCop2MoveRoundTrips(t *testing.T) {
	c, mem := newCPU()
	// MTC2 $t0, dr0 ; MFC2 $t2, dr0 ; CTC2 $t1, cr5 ; CFC2 $t3, cr5
	mem.putWord(0xBFC00000, 0x48880000)
	mem.putWord(0xBFC00004, 0x480A0000)
	mem.putWord(0xBFC00008, 0x48C92800)
	mem.putWord(0xBFC0000C, 0x484B2800)
	c.Reset()
	c.GPR[8] = 0x00200010
	c.GPR[9] = 0x00001234

	c.Step()
	c.Step()
	c.Step()
	c.Step()

	test.ExpectEquality(t, c.GPR[10], uint32(0x00200010))
	test.ExpectEquality(t, c.GPR[11], uint32(0x00001234))
}

func TestCop2DispatchesGTEOperation(t *testing.T) {
	c, mem := newCPU()
	// CTC2 $t0, cr29 (ZSF3) ; MTC2 into SZ1/SZ2/SZ3 ; AVSZ3 ; MFC2 $t2, dr24
	mem.putWord(0xBFC00000, 0x48C8E800)
	mem.putWord(0xBFC00004, 0x48898800)
	mem.putWord(0xBFC00008, 0x488B9000)
	mem.putWord(0xBFC0000C, 0x488C9800)
	mem.putWord(0xBFC00010, 0x4A00002D)
	mem.putWord(0xBFC00014, 0x480AC000)
	c.Reset()
	c.GPR[8] = 1
	c.GPR[9] = 10
	c.GPR[11] = 20
	c.GPR[12] = 30

	for i := 0; i < 6; i++ {
		c.Step()
	}

	test.ExpectEquality(t, c.GPR[10], uint32(60))
	test.ExpectSuccess(t, c.Good)
}

func TestUnalignedStoreLoadRoundTrip(t *testing.T) {
	c, mem := newCPU()
	payload := uint32(0x11223344)

	// Place payload's little-endian bytes starting at the unaligned
	// address 0x2001, spanning the two aligned words at 0x2000 and 0x2004.
	mem.WriteByte(0x2001, uint8(payload))
	mem.WriteByte(0x2002, uint8(payload>>8))
	mem.WriteByte(0x2003, uint8(payload>>16))
	mem.WriteByte(0x2004, uint8(payload>>24))

	// ADDIU $t0, $zero, 0x2001 (base = start of the unaligned word)
	mem.putWord(0xBFC00000, 0x24082001)
	// LWL $t1, 3($t0) ; LWR $t1, 0($t0)
	mem.putWord(0xBFC00004, 0x89090003)
	mem.putWord(0xBFC00008, 0x99090000)
	c.Reset()

	c.Step()
	c.Step()
	c.Step()

	test.ExpectEquality(t, c.GPR[9], payload)
}
