// Package debugger provides an interactive single-stepping terminal UI for
// a cpu.Cpu, built on bubbletea/lipgloss. It is a development tool, not a
// component of the running emulator: it never substitutes for the host
// video terminal that renders the emulated machine's own display.
package debugger

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"

	"retro6502/cpu"
)

type model struct {
	cpu    *cpu.Cpu
	offset uint16 // PC when Run started; pageTable anchors to the current PC instead
	prevPC uint16
	err    error
}

// Init satisfies tea.Model. The program is expected to already be loaded
// and the reset vector already serviced by the caller.
func (m model) Init() tea.Cmd { return nil }

// Update steps the CPU by one instruction on space or 'j', quits on 'q'.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case " ", "j":
			m.prevPC = m.cpu.PC
			if err := m.cpu.Step(); err != nil {
				m.err = err
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

func (m model) renderPage(start uint16) string {
	s := fmt.Sprintf("%04x | ", start)
	for i := uint16(0); i < 16; i++ {
		addr := start + i
		b := m.cpu.Bus.ReadByte(addr)
		if addr == m.cpu.PC {
			s += fmt.Sprintf("[%02x] ", b)
		} else {
			s += fmt.Sprintf(" %02x  ", b)
		}
	}
	return s
}

func (m model) status() string {
	var flags string
	for _, flag := range []bool{
		m.cpu.Flags.Negative,
		m.cpu.Flags.Overflow,
		m.cpu.Flags.Unused,
		m.cpu.Flags.B,
		m.cpu.Flags.Decimal,
		m.cpu.Flags.Interrupt,
		m.cpu.Flags.Zero,
		m.cpu.Flags.Carry,
	} {
		if flag {
			flags += "/ "
		} else {
			flags += "  "
		}
	}
	return fmt.Sprintf(`
PC: %04x (%04x)
 M: %02x
 A: %02x
 X: %02x
 Y: %02x
 S: %02x
N V _ B D I Z C
`,
		m.cpu.PC, m.prevPC,
		m.cpu.M,
		m.cpu.Accumulator,
		m.cpu.X,
		m.cpu.Y,
		m.cpu.S,
	) + flags
}

func (m model) pageTable() string {
	header := "page | "
	for b := range 16 {
		header += fmt.Sprintf("  %01x  ", b)
	}

	rows := []string{header}
	base := m.cpu.PC &^ 0x0f
	for i := -2; i <= 2; i++ {
		rows = append(rows, m.renderPage(uint16(int(base)+i*16)))
	}
	return strings.Join(rows, "\n")
}

// View renders the page table, register status, and the decoded opcode at
// PC. Rendering is pure string composition — no host graphics are touched.
func (m model) View() string {
	op, ok := cpu.Opcodes[m.cpu.Bus.ReadByte(m.cpu.PC)]
	if !ok {
		op.Name = "???"
	}
	return lipgloss.JoinVertical(
		lipgloss.Left,
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			m.pageTable(),
			m.status(),
		),
		"",
		spew.Sdump(op),
	)
}

// Run starts the interactive single-stepper against c, which must already
// have its bus populated and its reset vector serviced. It blocks until the
// user quits.
func Run(c *cpu.Cpu) error {
	finalModel, err := tea.NewProgram(model{cpu: c, offset: c.PC}).Run()
	if err != nil {
		return err
	}
	if m, ok := finalModel.(model); ok && m.err != nil {
		return m.err
	}
	return nil
}
