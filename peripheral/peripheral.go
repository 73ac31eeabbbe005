// Package peripheral implements the devices a PIA port talks to: the ASCII
// keyboard, the video terminal, and the TCP listener that feeds both from a
// remote session.
package peripheral

import "sync/atomic"

// A Peripheral is anything a PIA port can be wired to. Read/Write are the
// port's data-register access; Interrupt1/Interrupt2 are consume-on-read
// latches polled by the PIA before every read and OR'd into that port's
// control register.
type Peripheral interface {
	Read() byte
	Write(value byte)
	Interrupt1() bool
	Interrupt2() bool
}

// latch is a consume-on-read boolean: reading it clears it. It backs the
// Keyboard's IRQ1 line; the Terminal drives no interrupt line.
type latch struct {
	set atomic.Bool
}

func (l *latch) raise() { l.set.Store(true) }

// consume reports the latch's value and clears it, matching the 6820's
// interrupt1()/interrupt2() semantics (Motorola6820.cpp).
func (l *latch) consume() bool { return l.set.Swap(false) }
