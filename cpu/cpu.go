// Package cpu implements the MOS Technology 6502 microprocessor: register
// file, the 13 addressing modes, the instruction set, interrupt dispatch,
// and a cycle pacer that runs the interpreter at roughly its native clock
// rate.
//
// The Cpu has no memory of its own beyond its registers. Every byte it reads
// or writes is routed through a mem.Bus.
package cpu

import (
	"fmt"
	"sync/atomic"
	"time"

	"retro6502/mask"
	"retro6502/mem"
)

// CycleDuration is the simulated duration of one clock cycle (~1 MHz, the
// Apple-1's native rate).
const CycleDuration = time.Microsecond

// Flags are the 8 bits that make up the processor status register (P).
//
// 7654 3210
// NV1B DIZC
//
// Unused (bit 5) is always 1; it is kept as an explicit field rather than
// hardcoded so Byte/SetByte stay symmetric, and so debugger output can show
// it like any other flag.
type Flags struct {
	Negative  bool // bit 7
	Overflow  bool // bit 6
	Unused    bool // bit 5; always 1
	B         bool // bit 4; reflects the source of the last flag push, not a latched bit
	Decimal   bool // bit 3
	Interrupt bool // bit 2; disables IRQ when set
	Zero      bool // bit 1
	Carry     bool // bit 0
}

// Byte packs the flags into their hardware bit layout. Bit 5 is always set
// regardless of the Unused field's value.
func (f Flags) Byte() byte {
	var b byte
	if f.Carry {
		b |= 1 << 0
	}
	if f.Zero {
		b |= 1 << 1
	}
	if f.Interrupt {
		b |= 1 << 2
	}
	if f.Decimal {
		b |= 1 << 3
	}
	if f.B {
		b |= 1 << 4
	}
	b |= 1 << 5
	if f.Overflow {
		b |= 1 << 6
	}
	if f.Negative {
		b |= 1 << 7
	}
	return b
}

// SetByte unpacks a status byte (as pulled from the stack or a PLP) into the
// flags. Unused is forced true, matching the bit-5-always-set invariant.
func (f *Flags) SetByte(b byte) {
	f.Carry = b&(1<<0) != 0
	f.Zero = b&(1<<1) != 0
	f.Interrupt = b&(1<<2) != 0
	f.Decimal = b&(1<<3) != 0
	f.B = b&(1<<4) != 0
	f.Unused = true
	f.Overflow = b&(1<<6) != 0
	f.Negative = b&(1<<7) != 0
}

// PendingInterrupt identifies the interrupt source awaiting dispatch at the
// next instruction boundary.
type PendingInterrupt int32

const (
	NoInterrupt PendingInterrupt = iota
	InterruptReset
	InterruptNMI
	InterruptIRQ
)

// Interrupt vector addresses.
const (
	vectorNMI   uint16 = 0xFFFA
	vectorReset uint16 = 0xFFFC
	vectorIRQ   uint16 = 0xFFFE // shared by IRQ and BRK
)

// Cpu is the 6502 register file plus interpreter state. It is safe to read
// its exported registers from a debugger goroutine while the CPU is stopped;
// while running, only pending and stopping are written from other threads.
type Cpu struct {
	Bus *mem.Bus

	Flags Flags

	Accumulator byte
	X           byte
	Y           byte

	// S is the stack pointer. Stack instructions always access page 1
	// (0x0100-0x01ff); S wraps mod 256.
	S byte

	PC uint16

	M           byte // operand fetched/stored by the current instruction
	AbsAddress  uint16
	RelAddress  int8
	PageCrossed bool

	pending  atomic.Int32
	stopping atomic.Bool

	baseline     time.Time
	haveBaseline bool
}

// New constructs a Cpu wired to bus and leaves it in its power-up state;
// callers normally call Reset() followed by a Step() to load the reset
// vector before running.
func New(bus *mem.Bus) *Cpu {
	return &Cpu{Bus: bus}
}

// Read reads one byte from the bus at addr.
func (c *Cpu) Read(addr uint16) byte {
	return c.Bus.ReadByte(addr)
}

// Write writes one byte to the bus at addr.
func (c *Cpu) Write(addr uint16, data byte) {
	c.Bus.WriteByte(addr, data)
}

// push stores v at the current stack address and decrements S.
func (c *Cpu) push(v byte) {
	c.Write(0x0100|uint16(c.S), v)
	c.S--
}

// pop increments S and returns the byte now at the stack address.
func (c *Cpu) pop() byte {
	c.S++
	return c.Read(0x0100 | uint16(c.S))
}

// LoadProgram copies program into the bus's RAM starting at addr. It is
// meant for tests and the debugger, not for the production boot path (use
// Bus.LoadRAM/LoadROM for that).
func (c *Cpu) LoadProgram(program []byte, addr uint16) {
	for i, b := range program {
		c.Write(addr+uint16(i), b)
	}
}

// Reset requests a RESET, honored at the next instruction boundary.
func (c *Cpu) Reset() {
	c.pending.Store(int32(InterruptReset))
}

// Irq requests an IRQ. It is ignored at dispatch time if P.I is set.
func (c *Cpu) Irq() {
	c.pending.Store(int32(InterruptIRQ))
}

// Nmi requests an NMI, which is edge-triggered and always honored.
func (c *Cpu) Nmi() {
	c.pending.Store(int32(InterruptNMI))
}

// Stop requests that Run's loop exit at the next instruction boundary.
func (c *Cpu) Stop() {
	c.stopping.Store(true)
}

// Run executes Step in a loop, pacing each instruction, until Stop is
// called. It is meant to be the body of the dedicated CPU goroutine.
func (c *Cpu) Run() {
	c.stopping.Store(false)
	for !c.stopping.Load() {
		c.Step()
	}
}

// dispatchInterrupt consumes a pending interrupt, if one is due, pushing the
// return address and flags (except on RESET, which only adjusts S) and
// loading PC from the appropriate vector. It reports whether it consumed
// this instruction boundary — per the instruction boundary protocol, a
// boundary is either an interrupt dispatch or a normal fetch/decode/execute,
// never both.
func (c *Cpu) dispatchInterrupt() bool {
	pending := PendingInterrupt(c.pending.Load())
	if pending == NoInterrupt {
		return false
	}
	if pending == InterruptIRQ && c.Flags.Interrupt {
		return false
	}
	c.pending.Store(int32(NoInterrupt))

	if pending == InterruptReset {
		// RESET skips the real pushes but still decrements S by 3, as if
		// they had occurred.
		c.S -= 3
		c.Flags.Interrupt = true
		lo := c.Read(vectorReset)
		hi := c.Read(vectorReset + 1)
		c.PC = mask.Word(hi, lo)
		c.pace(7)
		return true
	}

	c.push(byte(c.PC >> 8))
	c.push(byte(c.PC))
	c.Flags.B = false
	c.Flags.Unused = true
	c.push(c.Flags.Byte())
	c.Flags.Interrupt = true

	vector := vectorIRQ
	if pending == InterruptNMI {
		vector = vectorNMI
	}
	lo := c.Read(vector)
	hi := c.Read(vector + 1)
	c.PC = mask.Word(hi, lo)
	c.pace(7)
	return true
}

// pace sleeps until this Cpu's own baseline catches up to cycles worth of
// simulated time. The baseline is per-instance (a cross-instance static
// baseline would otherwise drift between emulator instances) and is rebased
// to "now" whenever the host falls behind, so a slow host never triggers a
// catch-up burst.
func (c *Cpu) pace(cycles byte) {
	if !c.haveBaseline {
		c.baseline = time.Now()
		c.haveBaseline = true
	}
	c.baseline = c.baseline.Add(time.Duration(cycles) * CycleDuration)

	now := time.Now()
	if now.Before(c.baseline) {
		time.Sleep(c.baseline.Sub(now))
		return
	}
	c.baseline = now
}

// Step executes exactly one instruction boundary: it either dispatches a
// due interrupt or fetches, decodes, and executes one opcode, writing back
// any read-modify-write result; either way it then paces the host clock.
func (c *Cpu) Step() error {
	if c.dispatchInterrupt() {
		return nil
	}

	opByte := c.Read(c.PC)
	c.PC++

	op, ok := Opcodes[opByte]
	if !ok {
		// Undocumented opcodes outside the KIL family are treated as
		// no-ops; the bus has no error channel (see mem.Bus).
		op = Opcode{Instruction: (*Cpu).NOP, Cycles: 2, Name: "NOP*", AddressingMode: Implied}
	}

	c.decode(op.AddressingMode)
	extra := op.Instruction(c)

	if op.WritesBack {
		if op.AddressingMode == Accumulator {
			c.Accumulator = c.M
		} else {
			c.Write(c.AbsAddress, c.M)
		}
	}

	cycles := op.Cycles + extra
	if c.PageCrossed {
		cycles++
		c.PageCrossed = false
	}
	c.pace(cycles)

	return nil
}

// Disassemble returns a short human-readable description of the opcode at
// addr, for the debugger.
func (c *Cpu) Disassemble(addr uint16) string {
	op, ok := Opcodes[c.Read(addr)]
	if !ok {
		return fmt.Sprintf("%04x: ???", addr)
	}
	return fmt.Sprintf("%04x: %s", addr, op.Name)
}
