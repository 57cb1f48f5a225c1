package ksys

import "github.com/rt-go/kernel/src/kernel"

// System bundles a kernel.Kernel with this package's four hosted
// collaborator implementations, the Go equivalent of the single static
// image rt_system_scheduler_init/rt_system_timer_init/rt_application_init
// assemble on boot.
type System struct {
	*kernel.Kernel
	Gate     *Gate
	Sched    *Table
	Timers   *Wheel
	Registry *Registry
}

// New boots a System: wires a fresh Gate, Table, Wheel and Registry
// together behind a kernel.Kernel, which prepares its idle thread. New
// does not call Start, so the idle thread's body does not run.
func New(cfg kernel.Config) *System {
	gate := NewGate()
	sched := NewTable(cfg.MaxPriority)
	timers := NewWheel()
	registry := NewRegistry()
	k := kernel.New(cfg, gate, sched, timers, registry)
	return &System{Kernel: k, Gate: gate, Sched: sched, Timers: timers, Registry: registry}
}

// RunTicks advances the simulated clock by n kernel ticks, driving
// round-robin expiry and any armed timeouts. Tests and simple embedders
// use this in place of a real timer-interrupt source.
func (s *System) RunTicks(n int) {
	for i := 0; i < n; i++ {
		s.Tick()
	}
}
