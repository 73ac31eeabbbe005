package peripheral

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyboardTranslatesControlBytes(t *testing.T) {
	k := NewKeyboard()

	k.Keypress(0x0a)
	assert.Equal(t, byte(0x8d), k.Read())

	k.Keypress(0x0d)
	assert.Equal(t, byte(0x8d), k.Read())

	k.Keypress(0x7f)
	assert.Equal(t, byte(0xdf), k.Read())
}

func TestKeyboardUppercases(t *testing.T) {
	k := NewKeyboard()
	k.Keypress('a')
	assert.Equal(t, byte('A')|0x80, k.Read())
}

func TestKeyboardHighBitAlwaysSet(t *testing.T) {
	k := NewKeyboard()
	for _, b := range []byte{0x00, 0x41, 0x7e, 0xff} {
		k.Keypress(b)
		assert.NotZero(t, k.Read()&0x80)
	}
}

func TestKeyboardLastKeyWins(t *testing.T) {
	k := NewKeyboard()
	k.TextInput([]byte("AB"))
	assert.Equal(t, byte('B')|0x80, k.Read())
	assert.True(t, k.Interrupt1())
	assert.False(t, k.Interrupt1(), "interrupt1 is consume-on-read")
}

func TestKeyboardWriteIsNoop(t *testing.T) {
	k := NewKeyboard()
	k.Keypress('x')
	before := k.Read()
	k.Write(0x00)
	assert.Equal(t, before, k.Read())
}
