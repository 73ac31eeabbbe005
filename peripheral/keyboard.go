package peripheral

import "sync/atomic"

// Keyboard is an ASCII keyboard peripheral: external callers push host
// keystrokes via Keypress, and the PIA reads back whatever arrived most
// recently through Read. Grounded on VirtA's ASCIIKeyboard: translation
// rules and the single-register, last-key-wins behavior are unchanged.
type Keyboard struct {
	pdr  atomic.Uint32 // stores a byte; atomic.Uint32 has no 8-bit sibling
	irq1 latch
}

// NewKeyboard constructs an idle keyboard with no pending keystroke.
func NewKeyboard() *Keyboard {
	return &Keyboard{}
}

// Read returns the most recently translated keystroke. It does not consume
// anything; only the IRQ1 latch is consume-on-read, per the PIA's own
// clear-on-data-read rule (see pia package).
func (k *Keyboard) Read() byte {
	return byte(k.pdr.Load())
}

// Write is a no-op: the keyboard has no data direction to receive bytes
// from the CPU.
func (k *Keyboard) Write(value byte) {}

// Interrupt1 consumes and reports the IRQ1 latch.
func (k *Keyboard) Interrupt1() bool { return k.irq1.consume() }

// Interrupt2 is always false: the keyboard only drives Cx1.
func (k *Keyboard) Interrupt2() bool { return false }

// Keypress translates one raw byte per the Apple-1 keyboard's rules and
// stores it as the current data-register value, raising IRQ1. If several
// keystrokes arrive before the CPU reads the register, only the last
// survives — this matches the hardware's single-byte latch, not a queue.
func (k *Keyboard) Keypress(raw byte) {
	code := raw
	switch code {
	case 0x0a, 0x0d: // LF or CR
		code = 0x8d
	case 0x7f: // DEL
		code = 0xdf
	}
	if code&0x60 == 0x60 { // lowercase letters: bits 6-5 both set
		code &^= 0x20
	}
	code |= 0x80 // high bit set: character present

	k.pdr.Store(uint32(code))
	k.irq1.raise()
}

// TextInput feeds each byte of text through Keypress in order. As with a
// single Keypress, only the last byte is observable once it returns.
func (k *Keyboard) TextInput(text []byte) {
	for _, b := range text {
		k.Keypress(b)
	}
}
