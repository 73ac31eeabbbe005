// Package pia implements a Motorola 6820/6520-class Peripheral Interface
// Adapter: two symmetric 8-bit ports, each with a data-direction register
// and a control register carrying a DDR-select bit and two consume-on-read
// interrupt-status bits. It is a mem.Device, occupying a 2 KB window of
// which only offsets 0x10-0x13 are meaningful.
//
// Grounded on VirtA's Motorola6820, with its port-A write dispatch bug
// (checking CRB's DDR bit instead of CRA's) corrected per the per-port
// symmetric semantics the specification mandates. The port-B-data-read
// clearing CRA's IRQ1 (rather than CRB's) is preserved as-is: it is called
// out directly rather than as a flagged bug, so it is kept faithfully.
package pia

import "retro6502/mem"

// Control register bits.
const (
	crFlagIRQ1 = 0x80
	crFlagIRQ2 = 0x40
	crFlagCx2  = 0x38
	crFlagDDR  = 0x04
	crFlagCx1  = 0x03
)

// A Port is anything a PIA port column can be wired to: a Peripheral
// interface, narrowed to just what pia needs so the package doesn't
// depend on the peripheral package's concrete types.
type Port interface {
	Read() byte
	Write(value byte)
	Interrupt1() bool
	Interrupt2() bool
}

// Pia is a 6820/6520-class adapter wired to a start address and up to two
// ports. Either port may be nil, matching VirtA's constructor accepting
// null peripherals.
type Pia struct {
	start uint16

	portA Port
	portB Port

	cra, crb   byte
	ddra, ddrb byte
}

// New constructs a Pia occupying [start, start+2048) with portA/portB
// wired to the registers whose low five address bits are 0x10/0x11 and
// 0x12/0x13 respectively, already reset.
func New(start uint16, portA, portB Port) *Pia {
	p := &Pia{start: start, portA: portA, portB: portB}
	p.Reset()
	return p
}

// InRange reports whether addr falls within this Pia's 2 KB window.
func (p *Pia) InRange(addr uint16) bool {
	return addr >= p.start && int(addr) < int(p.start)+2048
}

// pollInterrupts ORs each wired port's consume-on-read interrupt latches
// into its control register, per spec: this happens before every read.
func (p *Pia) pollInterrupts() {
	if p.portA != nil {
		if p.portA.Interrupt1() {
			p.cra |= crFlagIRQ1
		}
		if p.portA.Interrupt2() {
			p.cra |= crFlagIRQ2
		}
	}
	if p.portB != nil {
		if p.portB.Interrupt1() {
			p.crb |= crFlagIRQ1
		}
		if p.portB.Interrupt2() {
			p.crb |= crFlagIRQ2
		}
	}
}

// ReadByte implements mem.Device. Only the low 5 bits of addr are decoded;
// offsets other than 0x10-0x13 read as 0.
func (p *Pia) ReadByte(addr uint16) byte {
	p.pollInterrupts()

	switch addr & 0x1f {
	case 0x10:
		if p.cra&crFlagDDR == crFlagDDR {
			var v byte
			if p.portA != nil {
				v = p.portA.Read() &^ p.ddra
			}
			p.cra &^= crFlagIRQ1
			return v
		}
		return p.ddra
	case 0x11:
		return p.cra &^ crFlagCx1 // Cx1 is input-only
	case 0x12:
		if p.crb&crFlagDDR == crFlagDDR {
			var v byte
			if p.portB != nil {
				v = p.portB.Read() &^ p.ddrb
			}
			p.cra &^= crFlagIRQ1 // preserved as specified, not CRB
			return v
		}
		return p.ddrb
	case 0x13:
		return p.crb &^ crFlagCx1
	default:
		return 0
	}
}

// WriteByte implements mem.Device. Only the low 5 bits of addr are
// decoded; offsets other than 0x10-0x13 are ignored.
func (p *Pia) WriteByte(addr uint16, value byte) {
	switch addr & 0x1f {
	case 0x10:
		if p.cra&crFlagDDR == crFlagDDR {
			if p.portA != nil {
				p.portA.Write(value & p.ddra)
			}
		} else {
			p.ddra = value
		}
	case 0x11:
		p.cra = value
	case 0x12:
		if p.crb&crFlagDDR == crFlagDDR {
			if p.portB != nil {
				p.portB.Write(value & p.ddrb)
			}
		} else {
			p.ddrb = value
		}
	case 0x13:
		p.crb = value
	}
}

// Reset clears CRA, CRB, DDRA, and DDRB to 0.
func (p *Pia) Reset() {
	p.cra, p.crb, p.ddra, p.ddrb = 0, 0, 0, 0
}

var _ mem.Device = (*Pia)(nil)
