package cpu

import "retro6502/mask"

// An AddressingMode tells the Cpu where to find the operand byte for the
// current instruction. There are 13 modes.
type AddressingMode int

const (
	Implied     AddressingMode = iota // no operand
	Accumulator                       // operand is the Accumulator

	Immediate // operand is the byte following the opcode
	ZeroPage  // 0x0000-0x00ff
	ZeroPageX
	ZeroPageY // used by LDX/STX
	IndirectX // (zp,X)
	IndirectY // (zp),Y

	Relative // branches

	Absolute
	AbsoluteX
	AbsoluteY

	Indirect // JMP only
)

// decode resolves the operand address for mode, advancing PC past any
// operand bytes, and (except for Implied, Accumulator, Relative and
// Indirect) loads the byte at that address into M; Accumulator mode copies
// the accumulator into M instead. AbsAddress holds the resolved target address for every mode
// that has one, including Relative (the branch target) and Indirect (the
// JMP target) — instructions that need only the address, not a data fetch,
// read AbsAddress directly rather than M.
func (c *Cpu) decode(a AddressingMode) {
	switch a {

	case Implied:
		return

	case Accumulator:
		c.M = c.Accumulator
		return

	case Immediate:
		c.AbsAddress = c.PC
		c.PC++

	case ZeroPage:
		c.AbsAddress = uint16(c.Read(c.PC))
		c.PC++

	case ZeroPageX:
		c.AbsAddress = uint16(c.Read(c.PC) + c.X)
		c.PC++
		c.AbsAddress &= 0x00ff

	case ZeroPageY:
		c.AbsAddress = uint16(c.Read(c.PC) + c.Y)
		c.PC++
		c.AbsAddress &= 0x00ff

	case Relative:
		rel := c.Read(c.PC)
		c.PC++
		c.RelAddress = int8(rel)
		c.AbsAddress = uint16(int32(c.PC) + int32(c.RelAddress))
		return

	case Absolute:
		col := c.Read(c.PC)
		c.PC++
		page := c.Read(c.PC)
		c.PC++
		c.AbsAddress = mask.Word(page, col)

	case AbsoluteX:
		col := c.Read(c.PC)
		c.PC++
		page := c.Read(c.PC)
		c.PC++
		c.AbsAddress = mask.Word(page, col) + uint16(c.X)
		if c.AbsAddress&0xff00 != uint16(page)<<8 {
			c.PageCrossed = true
		}

	case AbsoluteY:
		col := c.Read(c.PC)
		c.PC++
		page := c.Read(c.PC)
		c.PC++
		c.AbsAddress = mask.Word(page, col) + uint16(c.Y)
		if c.AbsAddress&0xff00 != uint16(page)<<8 {
			c.PageCrossed = true
		}

	case IndirectX:
		ptr := c.Read(c.PC)
		c.PC++
		// indexed before indirection; both reads wrap within page 0
		page := c.Read(uint16(ptr+c.X+1) & 0x00ff)
		col := c.Read(uint16(ptr+c.X) & 0x00ff)
		c.AbsAddress = mask.Word(page, col)

	case IndirectY:
		ptr := c.Read(c.PC)
		c.PC++
		// indirection before indexing; pointer reads wrap within page 0,
		// but the +Y below may carry into the next page
		col := c.Read(uint16(ptr) & 0x00ff)
		page := c.Read(uint16(ptr+1) & 0x00ff)
		c.AbsAddress = mask.Word(page, col) + uint16(c.Y)
		if c.AbsAddress&0xff00 != uint16(page)<<8 {
			c.PageCrossed = true
		}

	case Indirect:
		col := c.Read(c.PC)
		c.PC++
		page := c.Read(c.PC)
		c.PC++
		ptr := mask.Word(page, col)

		// Deliberately does not model the classic 6502 JMP-indirect
		// page-wrap hardware bug; see the module's design notes.
		realCol := c.Read(ptr)
		realPage := c.Read(ptr + 1)
		c.AbsAddress = mask.Word(realPage, realCol)
		return
	}

	c.M = c.Read(c.AbsAddress)
}
