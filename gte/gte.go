// Package gte implements the Geometry Transformation Engine: the fixed-point
// 3D transform/lighting/perspective coprocessor (COP2). Every register write
// that can exceed its defined range passes through a saturating limiter that
// clamps the value and sets a sticky bit in FLAG; the bit assignments are
// fixed by the hardware this emulates and are reproduced verbatim in the
// limit* functions below.
package gte

// shiftFraction is the fixed-point scale applied to the rotation/light
// matrices (1.3.12 format: matrix entries are scaled by 2^12).
const shiftFraction = 12

// FLAG bit assignments, fixed by the hardware this emulates.
const (
	flagLimA1 = 24
	flagLimA2 = 23
	flagLimA3 = 22
	flagLimB1 = 21
	flagLimB2 = 20
	flagLimB3 = 19
	flagLimC  = 18
	flagLimD1 = 14
	flagLimD2 = 13
	flagLimE  = 12
)

// Vector is a triple of fixed-point components.
type Vector struct {
	X, Y, Z int32
}

// GTE holds the full COP2 register file.
type GTE struct {
	// rotation matrix
	R11, R12, R13 int16
	R21, R22, R23 int16
	R31, R32, R33 int16

	// translation vector
	TRX, TRY, TRZ int32

	// light matrix
	L11, L12, L13 int16
	L21, L22, L23 int16
	L31, L32, L33 int16

	// light-colour matrix
	LR1, LR2, LR3 int16
	LG1, LG2, LG3 int16
	LB1, LB2, LB3 int16

	// background colour
	RBK, GBK, BBK int32

	// far colour
	RFC, GFC, BFC int32

	// vertices (input)
	V [3]Vector

	// screen-space / depth / colour history
	SX  [3]int32
	SY  [3]int32
	SZ  [4]int32
	RGB [3]RGBC

	// scalars
	OFX, OFY               int32
	H                      uint16
	DQA                    int16
	DQB                    int32
	ZSF3, ZSF4             int16
	OTZ                    int16
	IR0, IR1, IR2, IR3     int16
	MAC0, MAC1, MAC2, MAC3 int32

	// colour register used as the multiplicand in lighting (set externally
	// by the caller before NCDS, matching the real RGBC register)
	RGBC RGBC

	FLAG uint32
}

// RGBC is a packed colour register (8-bit channels plus a code byte).
type RGBC struct {
	R, G, B, Code uint8
}

// New returns a zeroed GTE.
func New() *GTE {
	return &GTE{}
}

// Reset clears every register and the sticky flag.
func (g *GTE) Reset() {
	*g = GTE{}
}

func clampSigned(v int64, lo, hi int64) (int64, bool) {
	if v < lo {
		return lo, true
	}
	if v > hi {
		return hi, true
	}
	return v, false
}

func (g *GTE) setFlag(bit uint) {
	g.FLAG |= 1 << bit
}

// limA clamps a MAC accumulator down to the signed 16-bit IR range, or to
// [0, 0x7FFF] when signed is false.
func (g *GTE) limA(which int, v int64, signed bool) int16 {
	lo, hi := int64(-0x8000), int64(0x7FFF)
	if !signed {
		lo = 0
	}
	c, clamped := clampSigned(v, lo, hi)
	if clamped {
		switch which {
		case 1:
			g.setFlag(flagLimA1)
		case 2:
			g.setFlag(flagLimA2)
		case 3:
			g.setFlag(flagLimA3)
		}
	}
	return int16(c)
}

// limB clamps a 64-bit dot-product accumulation to the signed 32-bit MAC
// range before it is narrowed and stored.
func (g *GTE) limB(which int, v int64) int32 {
	c, clamped := clampSigned(v, int64(-0x80000000), int64(0x7FFFFFFF))
	if clamped {
		switch which {
		case 1:
			g.setFlag(flagLimB1)
		case 2:
			g.setFlag(flagLimB2)
		case 3:
			g.setFlag(flagLimB3)
		}
	}
	return int32(c)
}

// limC clamps a depth value (SZ history slots, OTZ) to unsigned 16-bit.
func (g *GTE) limC(v int64) int32 {
	c, clamped := clampSigned(v, 0, 0xFFFF)
	if clamped {
		g.setFlag(flagLimC)
	}
	return int32(c)
}

// limD1 clamps a screen X coordinate to signed 11-bit.
func (g *GTE) limD1(v int64) int32 {
	c, clamped := clampSigned(v, -0x400, 0x3FF)
	if clamped {
		g.setFlag(flagLimD1)
	}
	return int32(c)
}

// limD2 clamps a screen Y coordinate to signed 11-bit.
func (g *GTE) limD2(v int64) int32 {
	c, clamped := clampSigned(v, -0x400, 0x3FF)
	if clamped {
		g.setFlag(flagLimD2)
	}
	return int32(c)
}

// limE clamps IR0 (the depth-cue interpolation factor) to [0, 0x1000].
func (g *GTE) limE(v int64) int16 {
	c, clamped := clampSigned(v, 0, 0x1000)
	if clamped {
		g.setFlag(flagLimE)
	}
	return int16(c)
}

func dot3(r1, r2, r3 int16, x, y, z int32, t int32) int64 {
	return (int64(r1)*int64(x) + int64(r2)*int64(y) + int64(r3)*int64(z) + int64(t)<<shiftFraction) >> shiftFraction
}

// Rtp performs the per-vertex perspective transform for vertex index vi
// (0, 1 or 2). last indicates this is the final vertex of a triple (Rtpt's
// third call), which additionally updates IR1-3 and MAC0-3 from the raw,
// pre-clamp rotation result.
func (g *GTE) Rtp(vi int, last bool) {
	v := g.V[vi]

	ssx := dot3(g.R11, g.R12, g.R13, v.X, v.Y, v.Z, g.TRX)
	ssy := dot3(g.R21, g.R22, g.R23, v.X, v.Y, v.Z, g.TRY)
	ssz := dot3(g.R31, g.R32, g.R33, v.X, v.Y, v.Z, g.TRZ)

	g.SZ[0] = g.SZ[1]
	g.SZ[1] = g.SZ[2]
	g.SZ[2] = g.SZ[3]
	g.SZ[3] = g.limC(ssz)

	q := g.unrDivide(int32(g.H), g.SZ[3])

	sx := int64(g.OFX) + int64(g.IR1)*int64(q)
	sy := int64(g.OFY) + int64(g.IR2)*int64(q)
	p := int64(g.DQB) + int64(g.DQA)*int64(q)

	g.IR0 = g.limE(p)

	g.SX[0], g.SX[1] = g.SX[1], g.SX[2]
	g.SY[0], g.SY[1] = g.SY[1], g.SY[2]
	g.SX[2] = g.limD1(sx)
	g.SY[2] = g.limD2(sy)

	if last {
		g.MAC1 = g.limB(1, ssx)
		g.MAC2 = g.limB(2, ssy)
		g.MAC3 = g.limB(3, ssz)
		g.IR1 = g.limA(1, int64(g.MAC1), true)
		g.IR2 = g.limA(2, int64(g.MAC2), true)
		g.IR3 = g.limA(3, int64(g.MAC3), true)
		g.MAC0 = int32(p)
	}
}

// Rtpt applies Rtp to vertices 0, 1 and 2 in order; only the third call is
// flagged as "last".
func (g *GTE) Rtpt() {
	g.Rtp(0, false)
	g.Rtp(1, false)
	g.Rtp(2, true)
}

// unrDivide computes the UNR (Newton-Raphson reciprocal) division used by
// Rtp: q = (h * 0x10000) / sz3, valid only while the quotient fits in 17
// bits. When h >= 2*sz3 the quotient would overflow that range, so the
// result saturates to 0x1FFFF outright.
func (g *GTE) unrDivide(h int32, sz3 int32) int32 {
	if sz3 <= 0 || h >= 2*sz3 {
		return 0x1FFFF
	}

	// normalise sz3 so its top bit lands at bit 15, keeping the table
	// index within the 0x7FC0..0xFFFF window
	shift := leadingZeroCount16(uint16(sz3))
	n := uint64(h) << uint(shift)
	d := uint64(sz3) << uint(shift)

	u := uint64(unrTable[(d-0x7FC0)>>7]) + 0x101

	// two refinement iterations on the reciprocal seed, then the final
	// rounded multiply
	d = (0x2000080 - d*u) >> 8
	d = (0x0000080 + d*u) >> 8

	result := (n*d + 0x8000) >> 16
	if result > 0x1FFFF {
		return 0x1FFFF
	}
	return int32(result)
}

func leadingZeroCount16(v uint16) int {
	if v == 0 {
		return 16
	}
	n := 0
	for v&0x8000 == 0 {
		v <<= 1
		n++
	}
	return n
}

// unrTable is the 257-entry Newton-Raphson reciprocal seed table, generated
// from the hardware's documented formula: max(0, (0x40000/(i+0x100)+1)/2 - 0x101).
var unrTable = generateUNRTable()

func generateUNRTable() [257]uint8 {
	var t [257]uint8
	for i := 0; i <= 0x100; i++ {
		v := (0x40000/(i+0x100) + 1) / 2
		v -= 0x101
		if v < 0 {
			v = 0
		}
		t[i] = uint8(v)
	}
	return t
}

// Nclip computes the signed area of the triangle formed by the three most
// recent screen-space vertices, used by callers to determine winding/
// backface culling.
func (g *GTE) Nclip() {
	mac0 := int64(g.SX[0])*int64(g.SY[1]) + int64(g.SX[1])*int64(g.SY[2]) + int64(g.SX[2])*int64(g.SY[0]) -
		(int64(g.SX[0])*int64(g.SY[2]) + int64(g.SX[1])*int64(g.SY[0]) + int64(g.SX[2])*int64(g.SY[1]))
	g.MAC0 = int32(mac0)
}

// Avsz3 multiplies the sum of the three most recent SZ history slots by
// ZSF3 into MAC0 and stores that value, clamped by limC, in OTZ, the
// ordering-table depth index. No further scaling is applied.
func (g *GTE) Avsz3() {
	mac0 := int64(g.ZSF3) * int64(g.SZ[1]+g.SZ[2]+g.SZ[3])
	g.MAC0 = int32(mac0)
	g.OTZ = int16(g.limC(mac0))
}

// light3 computes a signed 1.19.12 dot product of a 3x3 matrix against a
// vector, used by both the light-direction and light-colour stages of NCDS.
func light3(m11, m12, m13, m21, m22, m23, m31, m32, m33 int16, v Vector) Vector {
	return Vector{
		X: int32(dot3(m11, m12, m13, v.X, v.Y, v.Z, 0)),
		Y: int32(dot3(m21, m22, m23, v.X, v.Y, v.Z, 0)),
		Z: int32(dot3(m31, m32, m33, v.X, v.Y, v.Z, 0)),
	}
}

// Ncds computes per-vertex lighting for vertex index vi: the light-matrix
// projection of the vertex normal, scaled by the light-colour matrix and
// the background colour, modulated by the RGBC colour register, and
// interpolated toward the far colour by IR0.
func (g *GTE) Ncds(vi int) {
	normal := g.V[vi]

	llm := light3(g.L11, g.L12, g.L13, g.L21, g.L22, g.L23, g.L31, g.L32, g.L33, normal)
	ir1 := g.limA(1, int64(llm.X), false)
	ir2 := g.limA(2, int64(llm.Y), false)
	ir3 := g.limA(3, int64(llm.Z), false)

	lv := Vector{X: int32(ir1), Y: int32(ir2), Z: int32(ir3)}
	col := light3(g.LR1, g.LR2, g.LR3, g.LG1, g.LG2, g.LG3, g.LB1, g.LB2, g.LB3, lv)

	col.X += g.RBK
	col.Y += g.GBK
	col.Z += g.BBK

	cr := g.limA(1, int64(col.X), false)
	cg := g.limA(2, int64(col.Y), false)
	cb := g.limA(3, int64(col.Z), false)

	rr := (int64(cr) * int64(g.RGBC.R)) >> 8
	rg := (int64(cg) * int64(g.RGBC.G)) >> 8
	rb := (int64(cb) * int64(g.RGBC.B)) >> 8

	// far-colour interpolation: col' = col + ir0 * limA{1..3}S(fc - col)
	dr := g.limA(1, int64(g.RFC)-rr, true)
	dg := g.limA(2, int64(g.GFC)-rg, true)
	db := g.limA(3, int64(g.BFC)-rb, true)

	fr := rr + (int64(g.IR0)*int64(dr))>>12
	fg := rg + (int64(g.IR0)*int64(dg))>>12
	fb := rb + (int64(g.IR0)*int64(db))>>12

	g.IR1 = g.limA(1, fr, true)
	g.IR2 = g.limA(2, fg, true)
	g.IR3 = g.limA(3, fb, true)

	g.RGB[0] = g.RGB[1]
	g.RGB[1] = g.RGB[2]
	g.RGB[2] = clampColour(fr, fg, fb, g.RGBC.Code)
}

func clampColour(r, g, b int64, code uint8) RGBC {
	clamp := func(v int64) uint8 {
		if v < 0 {
			return 0
		}
		if v > 0xFF {
			return 0xFF
		}
		return uint8(v)
	}
	return RGBC{R: clamp(r), G: clamp(g), B: clamp(b), Code: code}
}
