package cpu

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retro6502/mem"
)

func newTestCpu(t *testing.T) *Cpu {
	t.Helper()
	bus, err := mem.NewBus(64, 0)
	require.NoError(t, err)
	return New(bus)
}

func setResetVector(c *Cpu, addr uint16) {
	c.Write(0xfffc, byte(addr))
	c.Write(0xfffd, byte(addr>>8))
}

// LDA #$42 ; BRK from reset vector 0xff00, IRQ/BRK vector at 0x1234.
func TestLdaBrk(t *testing.T) {
	c := newTestCpu(t)
	c.LoadProgram([]byte{0xa9, 0x42, 0x00}, 0xff00)
	setResetVector(c, 0xff00)
	c.Write(0xfffe, 0x34)
	c.Write(0xffff, 0x12)

	c.Reset()
	require.NoError(t, c.Step()) // services RESET
	require.NoError(t, c.Step()) // LDA
	assert.Equal(t, byte(0x42), c.Accumulator)
	assert.False(t, c.Flags.Zero)
	assert.False(t, c.Flags.Negative)

	startS := c.S
	require.NoError(t, c.Step()) // BRK
	assert.Equal(t, uint16(0x1234), c.PC)
	assert.Equal(t, startS-3, c.S)

	p := c.pop()
	lo := c.pop()
	hi := c.pop()
	assert.True(t, p&0x10 != 0, "B should be set on the pushed status")
	// BRK advances PC by 2 before pushing the return address (§4.2): the
	// fetch already moves PC past the BRK opcode byte to 0xff03, then
	// BRK's own PC++ advances it to 0xff04.
	assert.Equal(t, uint16(0xff04), (uint16(hi)<<8)|uint16(lo))
}

// Indirect-indexed wrap: pointer at 0x00/0x01 composes to 0x12FF.
func TestIndirectIndexedWrap(t *testing.T) {
	c := newTestCpu(t)
	c.Write(0x00, 0xff)
	c.Write(0x01, 0x12)
	c.Write(0x12ff, 0xaa)
	c.Write(0x1300, 0xbb)

	c.LoadProgram([]byte{0xb1, 0x00}, 0x8000) // LDA ($00),Y
	setResetVector(c, 0x8000)
	c.Reset()
	require.NoError(t, c.Step()) // services RESET
	require.NoError(t, c.Step())
	assert.Equal(t, byte(0xaa), c.Accumulator)

	c.PC = 0x8000
	c.Y = 1
	require.NoError(t, c.Step())
	assert.Equal(t, byte(0xbb), c.Accumulator)
}

// BEQ +4 at 0x80FC with Z set: target 0x8102, cycles = base(2)+taken(1)+page-cross(1).
func TestBranchPageCross(t *testing.T) {
	c := newTestCpu(t)
	c.Write(0x80fc, 0xf0)
	c.Write(0x80fd, 0x04)
	c.Flags.Zero = true
	c.PC = 0x80fc

	op := Opcodes[c.Read(c.PC)]
	c.PC++
	c.decode(op.AddressingMode)
	extra := op.Instruction(c)

	assert.Equal(t, uint16(0x8102), c.PC)
	assert.Equal(t, byte(2), extra)
}

// Reset pushes nothing: S decrements by 3, stack memory untouched.
func TestResetPushesNothing(t *testing.T) {
	c := newTestCpu(t)
	c.S = 0xbb
	c.Write(0x01b9, 0x11)
	c.Write(0x01ba, 0x22)
	c.Write(0x01bb, 0x33)
	setResetVector(c, 0x1000)

	c.Reset()
	require.NoError(t, c.Step())

	assert.Equal(t, uint16(0x1000), c.PC)
	assert.Equal(t, byte(0xb8), c.S)
	assert.Equal(t, byte(0x11), c.Read(0x01b9))
	assert.Equal(t, byte(0x22), c.Read(0x01ba))
	assert.Equal(t, byte(0x33), c.Read(0x01bb))
}

// ROM bank-out: a read of a ROM-covered address returns the ROM byte while
// banked in, and the underlying RAM byte once banked out.
func TestRomBankOut(t *testing.T) {
	bus, err := mem.NewBus(64, 0)
	require.NoError(t, err)
	bus.WriteByte(0xe123, 0x77)

	dir := t.TempDir()
	romPath := filepath.Join(dir, "rom.bin")
	data := make([]byte, 0x1000)
	data[0x123] = 0xab
	require.NoError(t, os.WriteFile(romPath, data, 0o644))

	rom, err := bus.LoadROM(0xe000, romPath)
	require.NoError(t, err)

	assert.Equal(t, byte(0xab), bus.ReadByte(0xe123))
	rom.BankOut()
	assert.Equal(t, byte(0x77), bus.ReadByte(0xe123))
	rom.BankIn()
	assert.Equal(t, byte(0xab), bus.ReadByte(0xe123))
}

// Stack wrap: pushing then popping N bytes restores S and reverses order.
func TestStackWrap(t *testing.T) {
	c := newTestCpu(t)
	c.S = 0x05 // near the bottom of page 1, to exercise wraparound
	pushed := []byte{0x10, 0x20, 0x30, 0x40, 0x50, 0x60, 0x70, 0x80}

	start := c.S
	for _, b := range pushed {
		c.push(b)
	}
	var popped []byte
	for range pushed {
		popped = append(popped, c.pop())
	}
	assert.Equal(t, start, c.S)
	for i := range pushed {
		assert.Equal(t, pushed[len(pushed)-1-i], popped[i])
	}
}

// BCD ADC round-trip: packed-BCD sum mod 100, carry reflects carry out of 99.
func TestBcdAdc(t *testing.T) {
	c := newTestCpu(t)
	c.Flags.Decimal = true
	c.Accumulator = 0x58 // 58
	c.M = 0x46           // 46
	c.Flags.Carry = false
	c.ADC()
	assert.Equal(t, byte(0x04), c.Accumulator) // 58+46=104 -> 04 packed, carry out
	assert.True(t, c.Flags.Carry)

	c.Flags.Decimal = true
	c.Accumulator = 0x12
	c.M = 0x34
	c.Flags.Carry = false
	c.ADC()
	assert.Equal(t, byte(0x46), c.Accumulator)
	assert.False(t, c.Flags.Carry)
}

// Bit 5 of P is always 1, regardless of what byte it was unpacked from.
func TestBit5AlwaysSet(t *testing.T) {
	var f Flags
	f.SetByte(0x00)
	assert.True(t, f.Unused)
	assert.Equal(t, byte(0x20), f.Byte())
}

// Modular PC: an offset of +4 read at 0xFFFE is added to the address after
// the operand (0xFFFF) and wraps to 0x0003.
func TestModularBranchWrap(t *testing.T) {
	c := newTestCpu(t)
	c.Write(0xfffe, 0x04)
	c.PC = 0xfffe
	c.decode(Relative)
	assert.Equal(t, uint16(0x0003), c.AbsAddress)
}

// JSR/RTS round-trip returns PC to the instruction after JSR.
func TestJsrRts(t *testing.T) {
	c := newTestCpu(t)
	c.LoadProgram([]byte{0x20, 0x00, 0x90}, 0x8000) // JSR $9000
	c.Write(0x9000, 0x60)                           // RTS
	setResetVector(c, 0x8000)
	c.Reset()
	require.NoError(t, c.Step()) // services RESET
	require.NoError(t, c.Step()) // JSR
	assert.Equal(t, uint16(0x9000), c.PC)

	require.NoError(t, c.Step()) // RTS
	assert.Equal(t, uint16(0x8003), c.PC)
}

// STA actually writes through to the bus (the read-modify-write write-back
// path), not just into the operand scratch register.
func TestStaWritesBack(t *testing.T) {
	c := newTestCpu(t)
	c.LoadProgram([]byte{0xa9, 0x99, 0x8d, 0x00, 0x02}, 0x8000) // LDA #$99 ; STA $0200
	setResetVector(c, 0x8000)
	c.Reset()
	require.NoError(t, c.Step()) // services RESET
	require.NoError(t, c.Step()) // LDA
	require.NoError(t, c.Step()) // STA
	assert.Equal(t, byte(0x99), c.Read(0x0200))
}

// ASL on a memory operand writes the shifted value back to memory.
func TestAslMemoryWritesBack(t *testing.T) {
	c := newTestCpu(t)
	c.Write(0x10, 0x41)
	c.LoadProgram([]byte{0x06, 0x10}, 0x8000) // ASL $10
	setResetVector(c, 0x8000)
	c.Reset()
	require.NoError(t, c.Step()) // services RESET
	require.NoError(t, c.Step()) // ASL
	assert.Equal(t, byte(0x82), c.Read(0x10))
	assert.False(t, c.Flags.Carry)
}
