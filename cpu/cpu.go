// Package cpu implements the MIPS R3000-class interpreter: the general
// register file, COP0 system coprocessor, and COP2 dispatch to a GTE. The
// CPU never touches RAM directly; it holds a narrow Memory interface,
// following this codebase's convention of plumbing collaborators behind
// small interfaces rather than concrete pointers.
package cpu

import (
	"github.com/station32/corebox/gte"
	"github.com/station32/corebox/logger"
)

// Memory is the narrow load/store surface the CPU requires of its bus.
// bus.Bus satisfies this directly.
type Memory interface {
	ReadWord(vaddr uint32) uint32
	WriteWord(vaddr uint32, value uint32)
	ReadHalf(vaddr uint32) uint16
	WriteHalf(vaddr uint32, value uint16)
	ReadByte(vaddr uint32) uint8
	WriteByte(vaddr uint32, value uint8)
}

// COP0 register indices that carry semantics in this model.
const (
	cop0SR    = 12
	cop0Cause = 13
	cop0EPC   = 14
	cop0PRId  = 15
)

// Exception codes (cop0 Cause bits 6-2).
const (
	excSyscall = 8
	excBreak   = 9
)

const resetVector = 0xBFC00000
const exceptionVector = 0x80000080

func translate(vaddr uint32) uint32 {
	return vaddr & 0x1FFFFFFF
}

// CPU is the MIPS interpreter.
type CPU struct {
	GPR        [32]uint32
	PC, NextPC uint32
	HI, LO     uint32
	COP0       [32]uint32

	Instruction uint32
	Good        bool

	Bus Memory
	GTE *gte.GTE

	// UnknownIO is invoked when decode fails to recognize a primary opcode,
	// SPECIAL funct or BCOND rt field, mirroring the bus/cdrom debug hooks.
	// Unrecognized COP0/COP2 encodings clear Good without invoking it.
	UnknownIO func(pc uint32, instr uint32)
}

// New constructs a CPU wired to the given bus and GTE collaborators.
func New(bus Memory, g *gte.GTE) *CPU {
	c := &CPU{Bus: bus, GTE: g}
	c.Reset()
	return c
}

// Reset zeroes the register file and COP0, sets pc to the BIOS reset
// vector, and pre-fetches the first instruction.
func (c *CPU) Reset() {
	for i := range c.GPR {
		c.GPR[i] = 0
	}
	c.HI, c.LO = 0, 0
	for i := range c.COP0 {
		c.COP0[i] = 0
	}
	c.COP0[cop0PRId] = 0x00000002
	// NextPC deliberately equals PC here: the first Step's entry advance
	// (pc := next_pc, next_pc += 4) then lands on the reset vector, whose
	// word is the one prefetched below.
	c.PC = resetVector
	c.NextPC = c.PC
	c.Good = true
	c.Instruction = c.Bus.ReadWord(translate(c.PC))
}

func (c *CPU) isolated() bool {
	return c.COP0[cop0SR]&(1<<16) != 0
}

// SetInterruptPending sets or clears Cause bit 10, called by the owning
// System once per step from i_mask & i_stat.
func (c *CPU) SetInterruptPending(pending bool) {
	if pending {
		c.COP0[cop0Cause] |= 1 << 10
	} else {
		c.COP0[cop0Cause] &^= 1 << 10
	}
}

// Step executes exactly one instruction: the word pre-fetched at the end
// of the previous step (or at Reset), then pre-fetches the following
// instruction from the (possibly just-redirected) NextPC.
func (c *CPU) Step() {
	pc := c.NextPC
	c.PC = pc
	c.NextPC = pc + 4

	c.execute(c.Instruction, pc)

	c.GPR[0] = 0
	c.Instruction = c.Bus.ReadWord(translate(c.NextPC))
}

func signExtend16(v uint16) uint32 { return uint32(int32(int16(v))) }

func (c *CPU) raise(pc uint32, code uint32) {
	c.COP0[cop0EPC] = pc + 4
	c.COP0[cop0Cause] = (c.COP0[cop0Cause] &^ 0x3F) | (code << 2)
	c.NextPC = exceptionVector
}

func (c *CPU) unknown(pc uint32, instr uint32) {
	c.Good = false
	logger.Logf("cpu", "unknown instruction %#08x at pc=%#08x", instr, pc)
	if c.UnknownIO != nil {
		c.UnknownIO(pc, instr)
	}
}

func (c *CPU) execute(instr uint32, pc uint32) {
	primary := instr >> 26
	rs := (instr >> 21) & 0x1F
	rt := (instr >> 16) & 0x1F
	rd := (instr >> 11) & 0x1F
	shamt := (instr >> 6) & 0x1F
	funct := instr & 0x3F
	imm := uint16(instr)
	target := instr & 0x03FFFFFF

	switch primary {
	case 0x00: // SPECIAL
		c.execSpecial(funct, rs, rt, rd, shamt, pc)
	case 0x01: // BCOND
		c.execBcond(rt, rs, imm, pc)
	case 0x02: // J
		c.NextPC = (pc & 0xF0000000) | (target << 2)
	case 0x03: // JAL
		c.GPR[31] = pc + 8
		c.NextPC = (pc & 0xF0000000) | (target << 2)
	case 0x04: // BEQ
		if c.GPR[rs] == c.GPR[rt] {
			c.NextPC = pc + signExtend16(imm)<<2
		}
	case 0x05: // BNE
		if c.GPR[rs] != c.GPR[rt] {
			c.NextPC = pc + signExtend16(imm)<<2
		}
	case 0x06: // BLEZ
		if int32(c.GPR[rs]) <= 0 {
			c.NextPC = pc + signExtend16(imm)<<2
		}
	case 0x07: // BGTZ
		if int32(c.GPR[rs]) > 0 {
			c.NextPC = pc + signExtend16(imm)<<2
		}
	case 0x08: // ADDI
		c.GPR[rt] = c.GPR[rs] + signExtend16(imm)
	case 0x09: // ADDIU
		c.GPR[rt] = c.GPR[rs] + signExtend16(imm)
	case 0x0A: // SLTI
		c.GPR[rt] = b2u(int32(c.GPR[rs]) < int32(signExtend16(imm)))
	case 0x0B: // SLTIU
		c.GPR[rt] = b2u(c.GPR[rs] < signExtend16(imm))
	case 0x0C: // ANDI
		c.GPR[rt] = c.GPR[rs] & uint32(imm)
	case 0x0D: // ORI
		c.GPR[rt] = c.GPR[rs] | uint32(imm)
	case 0x0E: // XORI
		c.GPR[rt] = c.GPR[rs] ^ uint32(imm)
	case 0x0F: // LUI
		c.GPR[rt] = uint32(imm) << 16
	case 0x10: // COP0
		c.execCop0(rs, rt, rd, funct)
	case 0x12: // COP2
		c.execCop2(rs, rt, rd, funct)
	case 0x20: // LB
		c.GPR[rt] = uint32(int32(int8(c.Bus.ReadByte(translate(c.GPR[rs] + signExtend16(imm))))))
	case 0x21: // LH
		c.GPR[rt] = uint32(int32(int16(c.Bus.ReadHalf(translate(c.GPR[rs] + signExtend16(imm))))))
	case 0x22: // LWL
		c.execLWL(rs, rt, imm)
	case 0x23: // LW
		c.GPR[rt] = c.Bus.ReadWord(translate(c.GPR[rs] + signExtend16(imm)))
	case 0x24: // LBU
		c.GPR[rt] = uint32(c.Bus.ReadByte(translate(c.GPR[rs] + signExtend16(imm))))
	case 0x25: // LHU
		c.GPR[rt] = uint32(c.Bus.ReadHalf(translate(c.GPR[rs] + signExtend16(imm))))
	case 0x26: // LWR
		c.execLWR(rs, rt, imm)
	case 0x28: // SB
		c.Bus.WriteByte(translate(c.GPR[rs]+signExtend16(imm)), uint8(c.GPR[rt]))
	case 0x29: // SH
		c.Bus.WriteHalf(translate(c.GPR[rs]+signExtend16(imm)), uint16(c.GPR[rt]))
	case 0x2A: // SWL
		c.execSWL(rs, rt, imm)
	case 0x2B: // SW
		if !c.isolated() {
			c.Bus.WriteWord(translate(c.GPR[rs]+signExtend16(imm)), c.GPR[rt])
		}
	case 0x2E: // SWR
		c.execSWR(rs, rt, imm)
	default:
		c.unknown(pc, instr)
	}
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func (c *CPU) execSpecial(funct, rs, rt, rd, shamt uint32, pc uint32) {
	switch funct {
	case 0x00: // SLL
		c.GPR[rd] = c.GPR[rt] << shamt
	case 0x02: // SRL
		c.GPR[rd] = c.GPR[rt] >> shamt
	case 0x03: // SRA
		c.GPR[rd] = uint32(int32(c.GPR[rt]) >> shamt)
	case 0x04: // SLLV
		c.GPR[rd] = c.GPR[rt] << (c.GPR[rs] & 0x1F)
	case 0x06: // SRLV
		c.GPR[rd] = c.GPR[rt] >> (c.GPR[rs] & 0x1F)
	case 0x07: // SRAV
		c.GPR[rd] = uint32(int32(c.GPR[rt]) >> (c.GPR[rs] & 0x1F))
	case 0x08: // JR
		c.NextPC = c.GPR[rs]
	case 0x09: // JALR
		c.GPR[rd] = pc + 8
		c.NextPC = c.GPR[rs]
	case 0x0C: // SYSCALL
		c.raise(pc, excSyscall)
	case 0x0D: // BREAK
		c.raise(pc, excBreak)
	case 0x10: // MFHI
		c.GPR[rd] = c.HI
	case 0x11: // MTHI
		c.HI = c.GPR[rs]
	case 0x12: // MFLO
		c.GPR[rd] = c.LO
	case 0x13: // MTLO
		c.LO = c.GPR[rs]
	case 0x18: // MULT
		r := int64(int32(c.GPR[rs])) * int64(int32(c.GPR[rt]))
		c.LO, c.HI = uint32(r), uint32(r>>32)
	case 0x19: // MULTU
		r := uint64(c.GPR[rs]) * uint64(c.GPR[rt])
		c.LO, c.HI = uint32(r), uint32(r>>32)
	case 0x1A: // DIV
		n, d := int32(c.GPR[rs]), int32(c.GPR[rt])
		if d == 0 {
			c.HI, c.LO = uint32(n), 0xFFFFFFFF
		} else {
			c.LO, c.HI = uint32(n/d), uint32(n%d)
		}
	case 0x1B: // DIVU
		n, d := c.GPR[rs], c.GPR[rt]
		if d == 0 {
			c.HI, c.LO = n, 0xFFFFFFFF
		} else {
			c.LO, c.HI = n/d, n%d
		}
	case 0x20: // ADD
		c.GPR[rd] = c.GPR[rs] + c.GPR[rt]
	case 0x21: // ADDU
		c.GPR[rd] = c.GPR[rs] + c.GPR[rt]
	case 0x22: // SUB
		c.GPR[rd] = c.GPR[rs] - c.GPR[rt]
	case 0x23: // SUBU
		c.GPR[rd] = c.GPR[rs] - c.GPR[rt]
	case 0x24: // AND
		c.GPR[rd] = c.GPR[rs] & c.GPR[rt]
	case 0x25: // OR
		c.GPR[rd] = c.GPR[rs] | c.GPR[rt]
	case 0x26: // XOR
		c.GPR[rd] = c.GPR[rs] ^ c.GPR[rt]
	case 0x27: // NOR
		c.GPR[rd] = ^(c.GPR[rs] | c.GPR[rt])
	case 0x2A: // SLT
		c.GPR[rd] = b2u(int32(c.GPR[rs]) < int32(c.GPR[rt]))
	case 0x2B: // SLTU
		c.GPR[rd] = b2u(c.GPR[rs] < c.GPR[rt])
	default:
		c.unknown(pc, c.Instruction)
	}
}

func (c *CPU) execBcond(rt, rs uint32, imm uint16, pc uint32) {
	switch rt {
	case 0x00: // BLTZ
		if int32(c.GPR[rs]) < 0 {
			c.NextPC = pc + signExtend16(imm)<<2
		}
	case 0x01: // BGEZ
		if int32(c.GPR[rs]) >= 0 {
			c.NextPC = pc + signExtend16(imm)<<2
		}
	default:
		c.unknown(pc, c.Instruction)
	}
}

func (c *CPU) execCop0(rs, rt, rd, funct uint32) {
	switch rs {
	case 0x00: // MFC0
		c.GPR[rt] = c.COP0[rd]
	case 0x04: // MTC0
		c.COP0[rd] = c.GPR[rt]
	default:
		if funct == 0x10 {
			// RFE: no-op, this model has no user/kernel mode stack.
			return
		}
		c.Good = false
	}
}

func (c *CPU) execCop2(rs, rt, rd, funct uint32) {
	if rs&0x10 != 0 {
		c.execGTEOp(funct)
		return
	}
	switch rs {
	case 0x00: // MFC2
		c.GPR[rt] = c.GTE.DataReg(int(rd))
	case 0x02: // CFC2
		c.GPR[rt] = c.GTE.CtrlReg(int(rd))
	case 0x04: // MTC2
		c.GTE.SetDataReg(int(rd), c.GPR[rt])
	case 0x06: // CTC2
		c.GTE.SetCtrlReg(int(rd), c.GPR[rt])
	default:
		c.Good = false
	}
}

func (c *CPU) execGTEOp(funct uint32) {
	switch funct {
	case 0x01: // RTPS
		c.GTE.Rtp(0, true)
	case 0x06: // NCLIP
		c.GTE.Nclip()
	case 0x13: // NCDS
		c.GTE.Ncds(0)
	case 0x2D: // AVSZ3
		c.GTE.Avsz3()
	case 0x30: // RTPT
		c.GTE.Rtpt()
	default:
		c.Good = false
		logger.Logf("cpu", "unsupported GTE op funct=%#02x", funct)
	}
}

// lwlShift (used by LWL/SWL) and lwrShift (used by LWR/SWR) give, indexed
// by vaddr&3, the bit shift from which each instruction derives its
// little-endian byte-merge mask.
var lwlShift = [4]uint{24, 16, 8, 0}
var lwrShift = [4]uint{0, 8, 16, 24}

func (c *CPU) execLWL(rs, rt uint32, imm uint16) {
	vaddr := c.GPR[rs] + signExtend16(imm)
	aligned := vaddr &^ 3
	word := c.Bus.ReadWord(translate(aligned))
	sh := lwlShift[vaddr&3]
	mask := uint32(0xFFFFFFFF) << sh
	c.GPR[rt] = (c.GPR[rt] &^ mask) | ((word << sh) & mask)
}

func (c *CPU) execLWR(rs, rt uint32, imm uint16) {
	vaddr := c.GPR[rs] + signExtend16(imm)
	aligned := vaddr &^ 3
	word := c.Bus.ReadWord(translate(aligned))
	sh := lwrShift[vaddr&3]
	mask := uint32(0xFFFFFFFF) >> sh
	c.GPR[rt] = (c.GPR[rt] &^ mask) | ((word >> sh) & mask)
}

// execSWL and execSWR are not gated by cache isolation: only plain SW is
// suppressed when IsC is set.
func (c *CPU) execSWL(rs, rt uint32, imm uint16) {
	vaddr := c.GPR[rs] + signExtend16(imm)
	aligned := vaddr &^ 3
	sh := lwlShift[vaddr&3]
	mask := uint32(0xFFFFFFFF) << sh
	old := c.Bus.ReadWord(translate(aligned))
	merged := (old &^ (mask >> sh)) | ((c.GPR[rt] >> sh) & (mask >> sh))
	c.Bus.WriteWord(translate(aligned), merged)
}

func (c *CPU) execSWR(rs, rt uint32, imm uint16) {
	vaddr := c.GPR[rs] + signExtend16(imm)
	aligned := vaddr &^ 3
	sh := lwrShift[vaddr&3]
	mask := uint32(0xFFFFFFFF) >> sh
	old := c.Bus.ReadWord(translate(aligned))
	merged := (old &^ (mask << sh)) | ((c.GPR[rt] << sh) & (mask << sh))
	c.Bus.WriteWord(translate(aligned), merged)
}
