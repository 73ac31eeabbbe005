package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retro6502/cpu"
	"retro6502/mem"
)

type fakePeripheral struct {
	startErr  error
	started   bool
	stopped   bool
	stopOrder *[]string
	name      string
}

func (f *fakePeripheral) Start() error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started = true
	return nil
}

func (f *fakePeripheral) Stop() {
	f.stopped = true
	if f.stopOrder != nil {
		*f.stopOrder = append(*f.stopOrder, f.name)
	}
}

func newTestCpu(t *testing.T) *cpu.Cpu {
	t.Helper()
	bus, err := mem.NewBus(64, 0)
	require.NoError(t, err)
	c := cpu.New(bus)
	c.Write(0xfffc, 0x00)
	c.Write(0xfffd, 0x00)
	return c
}

func TestSchedulerStartsPeripheralsThenCpu(t *testing.T) {
	c := newTestCpu(t)
	p := &fakePeripheral{}
	s := New(c, p)

	require.NoError(t, s.Start())
	assert.True(t, p.started)

	s.Stop()
	assert.True(t, p.stopped)
}

func TestSchedulerStartFailureTearsDownStarted(t *testing.T) {
	c := newTestCpu(t)
	ok := &fakePeripheral{}
	bad := &fakePeripheral{startErr: errors.New("bind failed")}
	s := New(c, ok, bad)

	err := s.Start()
	require.Error(t, err)
	assert.True(t, ok.started)
	assert.True(t, ok.stopped, "the already-started peripheral must be torn down")
}

func TestSchedulerStopOrderIsReversed(t *testing.T) {
	c := newTestCpu(t)
	var order []string
	first := &fakePeripheral{name: "first", stopOrder: &order}
	second := &fakePeripheral{name: "second", stopOrder: &order}
	s := New(c, first, second)

	require.NoError(t, s.Start())
	s.Stop()

	assert.Equal(t, []string{"second", "first"}, order)
}

func TestSchedulerResetRoutesToCpu(t *testing.T) {
	c := newTestCpu(t)
	c.LoadProgram([]byte{0x4c, 0x34, 0x12}, 0x1234) // JMP $1234: hold PC at the new vector
	s := New(c)
	require.NoError(t, s.Start())
	defer s.Stop()

	// Change the reset vector after the CPU is already running (from the
	// power-up PC=0) and confirm Reset() routes through to the CPU and
	// takes effect at the next instruction boundary.
	c.Write(0xfffc, 0x34)
	c.Write(0xfffd, 0x12)
	s.Reset()

	require.Eventually(t, func() bool {
		return c.PC == 0x1234
	}, time.Second, time.Millisecond)
}
