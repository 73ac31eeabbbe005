package peripheral

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTerminal() *Terminal {
	return NewTerminal(Display{Columns: 4, Rows: 3}, time.Millisecond)
}

func TestTerminalWritesAdvanceCursor(t *testing.T) {
	term := newTestTerminal()
	term.Write('A')
	term.Write('B')

	snap := term.Snapshot()
	assert.Equal(t, byte('A'), snap[0][0])
	assert.Equal(t, byte('B'), snap[0][1])
}

func TestTerminalCarriageReturnMovesToNextRow(t *testing.T) {
	term := newTestTerminal()
	term.Write('A')
	term.Write(0x8d) // high-bit CR
	term.Write('B')

	snap := term.Snapshot()
	assert.Equal(t, byte('A'), snap[0][0])
	assert.Equal(t, byte('B'), snap[1][0])
}

func TestTerminalWrapsAndScrollsAtRowEnd(t *testing.T) {
	term := newTestTerminal() // 4 columns, 3 rows
	for _, c := range []byte("ABCDEFGHIJK") {
		term.Write(c)
	}
	// 11 characters fill rows 0-1 and the first three columns of row 2,
	// with no scroll yet (the cursor hasn't had to wrap past the last row).
	snap := term.Snapshot()
	assert.Equal(t, byte('I'), snap[2][0])
	assert.Equal(t, byte('K'), snap[2][2])

	term.Write('L') // fills the last cell and wraps past the last row: scrolls
	term.Write('M')
	snap = term.Snapshot()
	assert.Equal(t, []byte("EFGH"), snap[0])
	assert.Equal(t, byte('M'), snap[2][0])
}

func TestTerminalBusyAfterWrite(t *testing.T) {
	term := NewTerminal(Display{Columns: 4, Rows: 3}, 50*time.Millisecond)
	term.Write('A')
	assert.Equal(t, byte(0x80), term.Read(), "busy immediately after a write")

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, byte(0x00), term.Read(), "ready once the busy interval elapses")
}

func TestTerminalCapturesEmittedCharacters(t *testing.T) {
	term := newTestTerminal()
	term.Write('A')
	term.Write('B')
	require.Equal(t, []byte("AB"), term.Characters())
}
