// Package ksys provides hosted, dependency-free reference
// implementations of the four external collaborators kernel.New needs
// (HardwareGate, Scheduler, TimerService, ObjectRegistry), plus System,
// which wires them together and drives the simulated tick clock. None of
// it touches real hardware: it is the "run this core under go test"
// substitute for what a board-support package would provide on a flashed
// target.
package ksys

import (
	"sync"

	"github.com/rt-go/kernel/src/kernel"
)

// Gate is a hosted HardwareGate: a single mutex stands in for global
// interrupt disable/enable (RT-Thread's rt_hw_interrupt_disable/enable),
// and one goroutine per thread, parked on a dedicated handoff channel,
// stands in for a real context switch (rt_hw_context_switch). The
// channel has a single buffered slot: a Resume issued before the matching
// Suspend is held there, so that Suspend returns at once, and a Resume
// issued while the slot is already full is dropped.
type Gate struct {
	mu      sync.Mutex
	handoff map[*kernel.Thread]chan struct{}
}

// NewGate constructs an empty Gate ready to be passed to kernel.New.
func NewGate() *Gate {
	return &Gate{handoff: make(map[*kernel.Thread]chan struct{})}
}

// Lock disables preemption. The returned token carries no information
// in this hosted implementation (there is no real interrupt mask
// register to save) but the signature matches the hardware-backed
// implementation this one stands in for.
func (g *Gate) Lock() uint32 {
	g.mu.Lock()
	return 0
}

// Unlock re-enables preemption.
func (g *Gate) Unlock(uint32) {
	g.mu.Unlock()
}

// Spawn creates the goroutine backing a newly initialized thread. It
// blocks immediately on its handoff channel until the scheduler's first
// Resume (via Startup), then runs the thread's body to completion.
func (g *Gate) Spawn(t *kernel.Thread) {
	ch := make(chan struct{}, 1)
	g.mu.Lock()
	g.handoff[t] = ch
	g.mu.Unlock()
	go func() {
		<-ch
		t.Run()
	}()
}

// Register creates the handoff channel for a thread without spawning a
// goroutine for it. Used only for the idle thread; see the HardwareGate
// doc comment on Register for why.
func (g *Gate) Register(t *kernel.Thread) {
	g.mu.Lock()
	g.handoff[t] = make(chan struct{}, 1)
	g.mu.Unlock()
}

// Resume signals a parked (or not-yet-started) context to become
// runnable. Non-blocking: the caller keeps executing until it reaches
// its own Suspend checkpoint.
func (g *Gate) Resume(t *kernel.Thread) {
	g.mu.Lock()
	ch := g.handoff[t]
	g.mu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Suspend parks the calling goroutine — which must be t's own backing
// goroutine — until a later Resume(t).
func (g *Gate) Suspend(t *kernel.Thread) {
	g.mu.Lock()
	ch := g.handoff[t]
	g.mu.Unlock()
	if ch == nil {
		return
	}
	<-ch
}

// Retire releases the bookkeeping for a thread whose backing goroutine
// has already returned (Run completed). It does not need to signal
// anything: an exited thread's goroutine unwinds on its own once Run
// returns, it is never parked waiting for a Resume that won't come.
func (g *Gate) Retire(t *kernel.Thread) {
	g.mu.Lock()
	delete(g.handoff, t)
	g.mu.Unlock()
}
