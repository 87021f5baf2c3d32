package gte

// DataReg and CtrlReg implement the MFC2/MTC2/CFC2/CTC2 register file
// views the CPU's COP2 dispatch addresses by a 5-bit index, following the
// hardware's packed-pair-of-int16-per-word layout for the matrix and
// vector registers.

func pack16(lo, hi int16) uint32 {
	return uint32(uint16(lo)) | uint32(uint16(hi))<<16
}

func unpack16(v uint32) (lo, hi int16) {
	return int16(uint16(v)), int16(uint16(v >> 16))
}

// DataReg reads one of the 32 COP2 data registers (MFC2).
func (g *GTE) DataReg(i int) uint32 {
	switch i {
	case 0:
		return pack16(int16(g.V[0].X), int16(g.V[0].Y))
	case 1:
		return uint32(g.V[0].Z)
	case 2:
		return pack16(int16(g.V[1].X), int16(g.V[1].Y))
	case 3:
		return uint32(g.V[1].Z)
	case 4:
		return pack16(int16(g.V[2].X), int16(g.V[2].Y))
	case 5:
		return uint32(g.V[2].Z)
	case 6:
		return uint32(g.RGBC.R) | uint32(g.RGBC.G)<<8 | uint32(g.RGBC.B)<<16 | uint32(g.RGBC.Code)<<24
	case 7:
		return uint32(g.OTZ)
	case 8:
		return uint32(int32(g.IR0))
	case 9:
		return uint32(int32(g.IR1))
	case 10:
		return uint32(int32(g.IR2))
	case 11:
		return uint32(int32(g.IR3))
	case 12:
		return pack16(int16(g.SX[0]), int16(g.SY[0]))
	case 13:
		return pack16(int16(g.SX[1]), int16(g.SY[1]))
	case 14, 15:
		return pack16(int16(g.SX[2]), int16(g.SY[2]))
	case 16:
		return uint32(g.SZ[0])
	case 17:
		return uint32(g.SZ[1])
	case 18:
		return uint32(g.SZ[2])
	case 19:
		return uint32(g.SZ[3])
	case 20:
		return rgbcWord(g.RGB[0])
	case 21:
		return rgbcWord(g.RGB[1])
	case 22:
		return rgbcWord(g.RGB[2])
	case 24:
		return uint32(g.MAC0)
	case 25:
		return uint32(g.MAC1)
	case 26:
		return uint32(g.MAC2)
	case 27:
		return uint32(g.MAC3)
	}
	return 0
}

func rgbcWord(c RGBC) uint32 {
	return uint32(c.R) | uint32(c.G)<<8 | uint32(c.B)<<16 | uint32(c.Code)<<24
}

// SetDataReg writes one of the 32 COP2 data registers (MTC2).
func (g *GTE) SetDataReg(i int, v uint32) {
	switch i {
	case 0:
		x, y := unpack16(v)
		g.V[0].X, g.V[0].Y = int32(x), int32(y)
	case 1:
		g.V[0].Z = int32(int16(v))
	case 2:
		x, y := unpack16(v)
		g.V[1].X, g.V[1].Y = int32(x), int32(y)
	case 3:
		g.V[1].Z = int32(int16(v))
	case 4:
		x, y := unpack16(v)
		g.V[2].X, g.V[2].Y = int32(x), int32(y)
	case 5:
		g.V[2].Z = int32(int16(v))
	case 6:
		g.RGBC = RGBC{R: uint8(v), G: uint8(v >> 8), B: uint8(v >> 16), Code: uint8(v >> 24)}
	case 7:
		g.OTZ = int16(uint16(v))
	case 8:
		g.IR0 = int16(v)
	case 9:
		g.IR1 = int16(v)
	case 10:
		g.IR2 = int16(v)
	case 11:
		g.IR3 = int16(v)
	case 16:
		g.SZ[0] = int32(uint16(v))
	case 17:
		g.SZ[1] = int32(uint16(v))
	case 18:
		g.SZ[2] = int32(uint16(v))
	case 19:
		g.SZ[3] = int32(uint16(v))
	case 24:
		g.MAC0 = int32(v)
	case 25:
		g.MAC1 = int32(v)
	case 26:
		g.MAC2 = int32(v)
	case 27:
		g.MAC3 = int32(v)
	}
}

// CtrlReg reads one of the 32 COP2 control registers (CFC2).
func (g *GTE) CtrlReg(i int) uint32 {
	switch i {
	case 0:
		return pack16(g.R11, g.R12)
	case 1:
		return pack16(g.R13, g.R21)
	case 2:
		return pack16(g.R22, g.R23)
	case 3:
		return pack16(g.R31, g.R32)
	case 4:
		return uint32(g.R33)
	case 5:
		return uint32(g.TRX)
	case 6:
		return uint32(g.TRY)
	case 7:
		return uint32(g.TRZ)
	case 8:
		return pack16(g.L11, g.L12)
	case 9:
		return pack16(g.L13, g.L21)
	case 10:
		return pack16(g.L22, g.L23)
	case 11:
		return pack16(g.L31, g.L32)
	case 12:
		return uint32(g.L33)
	case 13:
		return uint32(g.RBK)
	case 14:
		return uint32(g.GBK)
	case 15:
		return uint32(g.BBK)
	case 16:
		return pack16(g.LR1, g.LR2)
	case 17:
		return pack16(g.LR3, g.LG1)
	case 18:
		return pack16(g.LG2, g.LG3)
	case 19:
		return pack16(g.LB1, g.LB2)
	case 20:
		return uint32(g.LB3)
	case 21:
		return uint32(g.RFC)
	case 22:
		return uint32(g.GFC)
	case 23:
		return uint32(g.BFC)
	case 24:
		return uint32(g.OFX)
	case 25:
		return uint32(g.OFY)
	case 26:
		return uint32(int32(int16(g.H)))
	case 27:
		return uint32(g.DQA)
	case 28:
		return uint32(g.DQB)
	case 29:
		return uint32(g.ZSF3)
	case 30:
		return uint32(g.ZSF4)
	case 31:
		return g.FLAG
	}
	return 0
}

// SetCtrlReg writes one of the 32 COP2 control registers (CTC2).
func (g *GTE) SetCtrlReg(i int, v uint32) {
	switch i {
	case 0:
		g.R11, g.R12 = unpack16(v)
	case 1:
		g.R13, g.R21 = unpack16(v)
	case 2:
		g.R22, g.R23 = unpack16(v)
	case 3:
		g.R31, g.R32 = unpack16(v)
	case 4:
		g.R33 = int16(v)
	case 5:
		g.TRX = int32(v)
	case 6:
		g.TRY = int32(v)
	case 7:
		g.TRZ = int32(v)
	case 8:
		g.L11, g.L12 = unpack16(v)
	case 9:
		g.L13, g.L21 = unpack16(v)
	case 10:
		g.L22, g.L23 = unpack16(v)
	case 11:
		g.L31, g.L32 = unpack16(v)
	case 12:
		g.L33 = int16(v)
	case 13:
		g.RBK = int32(v)
	case 14:
		g.GBK = int32(v)
	case 15:
		g.BBK = int32(v)
	case 16:
		g.LR1, g.LR2 = unpack16(v)
	case 17:
		g.LR3, g.LG1 = unpack16(v)
	case 18:
		g.LG2, g.LG3 = unpack16(v)
	case 19:
		g.LB1, g.LB2 = unpack16(v)
	case 20:
		g.LB3 = int16(v)
	case 21:
		g.RFC = int32(v)
	case 22:
		g.GFC = int32(v)
	case 23:
		g.BFC = int32(v)
	case 24:
		g.OFX = int32(v)
	case 25:
		g.OFY = int32(v)
	case 26:
		g.H = uint16(v)
	case 27:
		g.DQA = int16(v)
	case 28:
		g.DQB = int32(v)
	case 29:
		g.ZSF3 = int16(v)
	case 30:
		g.ZSF4 = int16(v)
	case 31:
		g.FLAG = v
	}
}
