package peripheral

import (
	"log"
	"net"
	"sync"
	"time"
)

// RGB is a single display color component triple, carried purely as
// metadata for a host renderer; the terminal itself never paints a pixel.
type RGB struct {
	R, G, B byte
}

// Display describes the cosmetic profile of a host display: its character
// cell colors and its logical size in characters. Grounded on VirtA's
// Display/getDisplay, narrowed to the metadata a host renderer would
// actually consult (the Non-goal on host graphical rendering excludes the
// core drawing anything itself).
type Display struct {
	Color   RGB
	BGColor RGB
	Columns int
	Rows    int
}

// DisplayType selects one of the canned Display profiles, matching VirtA's
// DisplayType enum.
type DisplayType int

const (
	DisplayWhite DisplayType = iota
	DisplayGreen
	DisplayBlue
)

// GetDisplay returns the canned profile for t. Every profile uses the
// Apple-1's native 40x24 geometry; the profiles differ only in color, and
// DisplayBlue keeps the default background.
func GetDisplay(t DisplayType) Display {
	d := Display{
		Color:   RGB{R: 0xf8, G: 0xf8, B: 0xf8},
		BGColor: RGB{R: 0x16, G: 0x16, B: 0x16},
		Columns: 40,
		Rows:    24,
	}
	switch t {
	case DisplayGreen:
		d.Color = RGB{R: 0x00, G: 0xef, B: 0xae}
		d.BGColor = RGB{R: 0x00, G: 0x16, B: 0x0c}
	case DisplayBlue:
		d.Color = RGB{R: 0xb2, G: 0xef, B: 0xf8}
	}
	return d
}

// Terminal is the video terminal peripheral: a logical character grid fed
// one byte at a time by the CPU, with a tracked cursor position and an
// output fan-out to connected network clients. It keeps no cursor blink
// state. Grounded on VirtA's
// Apple1VideoTerminal (displayCharacters/outputCharacters/sockets fields
// map directly onto grid/capture/sockets below).
type Terminal struct {
	display Display

	mu        sync.Mutex
	grid      [][]byte
	cursorRow int
	cursorCol int
	capture   []byte
	busyUntil time.Time
	busyFor   time.Duration

	socketsMu sync.Mutex
	sockets   []net.Conn
}

// NewTerminal constructs a terminal with the given Display profile and a
// busyFor interval asserted after each write, modeling the original link's
// roughly 60 characters-per-second rate (~16.7ms/char).
func NewTerminal(display Display, busyFor time.Duration) *Terminal {
	grid := make([][]byte, display.Rows)
	for i := range grid {
		grid[i] = make([]byte, display.Columns)
		for j := range grid[i] {
			grid[i][j] = ' '
		}
	}
	return &Terminal{display: display, grid: grid, busyFor: busyFor}
}

// Read returns 0 when the terminal is ready to accept another byte, or
// 0x80 (the PIA's "not ready" convention) while rate-limit busy holds.
func (t *Terminal) Read() byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	if time.Now().Before(t.busyUntil) {
		return 0x80
	}
	return 0x00
}

// Write stores one character the CPU emitted. A high-bit-set byte whose
// low 7 bits are 0x0D is a carriage return: the cursor moves to column 0
// of the next row, scrolling the grid if it overflows. Any other byte is
// stored at the cursor and the cursor advances, wrapping (and scrolling)
// at the row's end. Every write then holds the data register busy for
// busyFor and is captured for the network fan-out.
func (t *Terminal) Write(value byte) {
	t.mu.Lock()

	if value&0x80 != 0 && value&0x7f == 0x0d {
		t.cursorCol = 0
		t.advanceRow()
	} else {
		t.grid[t.cursorRow][t.cursorCol] = value
		t.cursorCol++
		if t.cursorCol >= t.display.Columns {
			t.cursorCol = 0
			t.advanceRow()
		}
	}
	t.capture = append(t.capture, value)
	t.busyUntil = time.Now().Add(t.busyFor)

	t.mu.Unlock()

	t.writeSockets(value)
}

// advanceRow moves the cursor to the next row, scrolling the grid up by
// one and holding the cursor on the last row instead of ever letting it
// pass the bottom. Callers must hold t.mu.
func (t *Terminal) advanceRow() {
	if t.cursorRow+1 >= t.display.Rows {
		first := t.grid[0]
		copy(t.grid, t.grid[1:])
		t.grid[t.display.Rows-1] = first
		last := t.grid[t.display.Rows-1]
		for i := range last {
			last[i] = ' '
		}
		return
	}
	t.cursorRow++
}

// Interrupt1 and Interrupt2 are always false: the terminal never drives
// either control line, unlike the keyboard.
func (t *Terminal) Interrupt1() bool { return false }
func (t *Terminal) Interrupt2() bool { return false }

// Snapshot returns a copy of the character grid for host rendering. The
// caller owns the returned slices; mutating them has no effect on the
// terminal.
func (t *Terminal) Snapshot() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]byte, len(t.grid))
	for i, row := range t.grid {
		out[i] = append([]byte(nil), row...)
	}
	return out
}

// Display returns the terminal's cosmetic profile.
func (t *Terminal) Display() Display { return t.display }

// Characters returns everything emitted so far, for callers (tests, a
// network client replaying history) that want the full capture rather
// than the grid snapshot.
func (t *Terminal) Characters() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]byte(nil), t.capture...)
}

// AddSocket registers a connected network client to receive every
// subsequent emitted character. Grounded on VirtA's
// Apple1VideoTerminal::addSocket.
func (t *Terminal) AddSocket(conn net.Conn) {
	t.socketsMu.Lock()
	defer t.socketsMu.Unlock()
	t.sockets = append(t.sockets, conn)
}

// SocketsMutex exposes the socket-list lock so a network listener can
// safely iterate the same list while reading client input, matching
// VirtA's TelnetServer/Apple1VideoTerminal shared-mutex arrangement.
func (t *Terminal) SocketsMutex() *sync.Mutex { return &t.socketsMu }

// writeSockets fans value out to every connected client, logging, closing
// and dropping any socket that errors.
func (t *Terminal) writeSockets(value byte) {
	t.socketsMu.Lock()
	defer t.socketsMu.Unlock()

	live := t.sockets[:0]
	for _, conn := range t.sockets {
		if _, err := conn.Write([]byte{value}); err != nil {
			log.Printf("peripheral: dropping socket %v: %v", conn.RemoteAddr(), err)
			conn.Close()
			continue
		}
		live = append(live, conn)
	}
	t.sockets = live
}
