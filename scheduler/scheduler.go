// Package scheduler coordinates the lifecycle of the CPU and its
// background peripheral threads: the network listener and any host
// display timer. Grounded on spec.md §4.6; the panic-recovery diagnostic
// dump is grounded on VirtA's MOS6502::dumpState()/MemoryMap::dumpMonitor(),
// rebuilt on go-spew rather than hand-rolled register formatting.
package scheduler

import (
	"log"
	"sync"

	"github.com/davecgh/go-spew/spew"

	"retro6502/cpu"
)

// Peripheral is anything with a background thread the scheduler must
// start before the CPU and stop after it.
type Peripheral interface {
	Start() error
	Stop()
}

// Scheduler holds owning references to the CPU and the peripherals that
// must run alongside it, and sequences their startup/shutdown.
type Scheduler struct {
	Cpu         *cpu.Cpu
	Peripherals []Peripheral

	wg sync.WaitGroup
}

// New constructs a Scheduler over c and the given peripherals.
func New(c *cpu.Cpu, peripherals ...Peripheral) *Scheduler {
	return &Scheduler{Cpu: c, Peripherals: peripherals}
}

// Start brings up every peripheral's background thread, then starts the
// CPU on its own goroutine. If any peripheral fails to start, the ones
// already started are torn down and the error is returned.
func (s *Scheduler) Start() error {
	started := make([]Peripheral, 0, len(s.Peripherals))
	for _, p := range s.Peripherals {
		if err := p.Start(); err != nil {
			for _, up := range started {
				up.Stop()
			}
			return err
		}
		started = append(started, p)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.recoverPanic()
		s.Cpu.Run()
	}()
	return nil
}

// recoverPanic logs a structured dump of the CPU's state if the run loop
// panics, rather than letting the whole process go down silently.
func (s *Scheduler) recoverPanic() {
	if r := recover(); r != nil {
		log.Printf("scheduler: cpu goroutine panicked: %v\n%s", r, spew.Sdump(s.Cpu))
	}
}

// Stop signals the CPU to stop, waits for its goroutine to exit, then
// tears down every peripheral thread in the reverse of start order.
func (s *Scheduler) Stop() {
	s.Cpu.Stop()
	s.wg.Wait()

	for i := len(s.Peripherals) - 1; i >= 0; i-- {
		s.Peripherals[i].Stop()
	}
}

// Reset routes to the CPU's own Reset, honored at its next instruction
// boundary.
func (s *Scheduler) Reset() {
	s.Cpu.Reset()
}
