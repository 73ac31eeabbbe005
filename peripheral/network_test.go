package peripheral

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetworkListenerFeedsKeyboard(t *testing.T) {
	kb := NewKeyboard()
	term := newTestTerminal()
	nl := NewNetworkListener(kb, term, "127.0.0.1:0")
	require.NoError(t, nl.Start())
	defer nl.Stop()

	addr := nl.listener.Addr().String()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("q"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return kb.Read() == byte('Q')|0x80
	}, time.Second, 5*time.Millisecond)
}

func TestNetworkListenerSwallowsLF(t *testing.T) {
	kb := NewKeyboard()
	term := newTestTerminal()
	nl := NewNetworkListener(kb, term, "127.0.0.1:0")
	require.NoError(t, nl.Start())
	defer nl.Stop()

	conn, err := net.Dial("tcp", nl.listener.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	kb.Keypress('z') // known baseline value to detect whether LF altered it
	_, err = conn.Write([]byte{0x0a})
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, byte('Z')|0x80, kb.Read(), "a bare LF must not reach the keyboard")
}

func TestNetworkListenerFansTerminalOutputToClient(t *testing.T) {
	kb := NewKeyboard()
	term := newTestTerminal()
	nl := NewNetworkListener(kb, term, "127.0.0.1:0")
	require.NoError(t, nl.Start())
	defer nl.Stop()

	conn, err := net.Dial("tcp", nl.listener.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	// Give the listener a moment to register the new connection with the
	// terminal before it writes.
	time.Sleep(20 * time.Millisecond)
	term.Write('X')

	buf := make([]byte, 1)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, err = conn.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, byte('X'), buf[0])
}
