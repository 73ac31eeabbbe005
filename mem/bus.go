// Package mem implements the memory bus: the single entry point the CPU
// uses to read and write the 16-bit address space, dispatching to
// memory-mapped devices, ROM overlays, and RAM in that priority order.
//
// In the source system there is one Bus, spanning the full 64 kB address
// space (0x0000-0xffff). Devices and ROMs claim sub-ranges of it; RAM
// backs whatever no overlay claims.
package mem

import (
	"fmt"
	"os"

	"retro6502/mask"
)

// A Device claims an address range and answers reads/writes for it. PIAs,
// video memory, and any other memory-mapped peripheral implement this.
type Device interface {
	InRange(addr uint16) bool
	ReadByte(addr uint16) byte
	WriteByte(addr uint16, value byte)
}

// BusAware is implemented by devices that need to originate their own bus
// accesses (e.g. a device that reads memory on behalf of a peripheral).
// RegisterDevice calls SetBus on any device implementing this, handing it
// a back-pointer.
type BusAware interface {
	SetBus(b *Bus)
}

// A Bus is the central object that connects the CPU to RAM, ROM overlays,
// and memory-mapped devices. Address arithmetic throughout is 16-bit
// modular: everything wraps at 0x10000.
//
// Read dispatch order: devices, then ROMs (unless banked out), then RAM.
// Write dispatch: RAM always, then every overlapping device is notified
// (write-through with side effects). ROM overlays never accept writes.
type Bus struct {
	ram     *RAM
	roms    []*ROM
	devices []Device
}

// NewBus constructs a Bus backed by ramKB kilobytes of RAM (must be a
// power of two), with an optional disjoint high memory window at himem
// (0 disables the window).
func NewBus(ramKB uint16, himem uint16) (*Bus, error) {
	ram, err := NewRAM(ramKB, himem)
	if err != nil {
		return nil, err
	}
	return &Bus{ram: ram}, nil
}

// ReadByte probes device overlays in registration order, then ROM
// overlays (skipping banked-out ones), then falls back to RAM.
func (b *Bus) ReadByte(addr uint16) byte {
	for _, d := range b.devices {
		if d.InRange(addr) {
			return d.ReadByte(addr)
		}
	}
	for _, r := range b.roms {
		if r.InRange(addr) && !r.IsBankedOut() {
			return r.ReadByte(addr)
		}
	}
	return b.ram.ReadByte(addr)
}

// ReadWord composes a little-endian word from two ReadByte calls. The
// high byte address wraps mod 0x10000; unlike real 6502 hardware, this
// does not reproduce the JMP-indirect page-wrap bug (see cpu package).
func (b *Bus) ReadWord(addr uint16) uint16 {
	lo := b.ReadByte(addr)
	hi := b.ReadByte(addr + 1)
	return mask.Word(hi, lo)
}

// WriteByte always writes RAM, then notifies every device overlay
// containing addr. ROM overlays silently ignore writes.
func (b *Bus) WriteByte(addr uint16, value byte) {
	b.ram.WriteByte(addr, value)
	for _, d := range b.devices {
		if d.InRange(addr) {
			d.WriteByte(addr, value)
		}
	}
}

// WriteWord splits value into two WriteByte calls, low byte at addr, high
// byte at addr+1.
func (b *Bus) WriteWord(addr uint16, value uint16) {
	hi, lo := mask.Split(value)
	b.WriteByte(addr, lo)
	b.WriteByte(addr+1, hi)
}

// LoadROM reads the named file and appends it as a ROM overlay starting
// at start, truncated so it fits within the 64 kB address space. Returns
// the created overlay so callers can bank it in/out later.
func (b *Bus) LoadROM(start uint16, path string) (*ROM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load rom %q: %w", path, err)
	}
	rom := NewROM(start, data)
	b.roms = append(b.roms, rom)
	return rom, nil
}

// LoadRAM reads the named file and copies its bytes into RAM starting at
// start.
func (b *Bus) LoadRAM(start uint16, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load ram %q: %w", path, err)
	}
	for i, v := range data {
		b.ram.WriteByte(start+uint16(i), v)
	}
	return nil
}

// RegisterDevice appends dev to the device overlay list. If dev
// implements BusAware, it is handed a back-pointer to this Bus.
func (b *Bus) RegisterDevice(dev Device) {
	if aware, ok := dev.(BusAware); ok {
		aware.SetBus(b)
	}
	b.devices = append(b.devices, dev)
}
