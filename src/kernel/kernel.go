// Package kernel implements the thread and inter-thread synchronization
// core of a small preemptive, fixed-priority real-time kernel: typed
// kernel objects, threads with per-thread timers, and the sync
// primitives built on a shared wait-queue base (semaphore, mutex, event
// flags, mailbox, message queue). The low-level context switch,
// interrupt masking, ready-table and tick-timer machinery are external
// collaborators (HardwareGate, Scheduler, TimerService) so this package
// never touches a CPU register; see package ksys for a hosted reference
// implementation of all three plus the object registry.
package kernel

import "github.com/rt-go/kernel/src/kernelerr"

// Kernel is the shared state every thread and sync primitive operation
// needs: the current thread, the collaborators, and the defunct list.
// It is the Go stand-in for the file-scope globals thread.c/ipc.c use
// directly (rt_current_thread, rt_thread_defunct, the priority table).
type Kernel struct {
	cfg      Config
	gate     HardwareGate
	sched    Scheduler
	timers   TimerService
	registry ObjectRegistry

	current *Thread
	idle    *Thread
	defunct []*Thread
	started bool
}

// New wires a Kernel around the given collaborators and prepares (but
// does not yet run) the idle thread at the lowest priority, mirroring
// rt_system_scheduler_init's priority table setup. Call Start once every
// other boot-time thread has been created and started.
func New(cfg Config, gate HardwareGate, sched Scheduler, timers TimerService, registry ObjectRegistry) *Kernel {
	k := &Kernel{cfg: cfg, gate: gate, sched: sched, timers: timers, registry: registry}
	idle := &Thread{
		priority:     cfg.MaxPriority - 1,
		initPriority: cfg.MaxPriority - 1,
		state:        StateInit,
		tickInit:     10,
		k:            k,
	}
	idle.Object = Object{Name: "tidle", Kind: KindThread, Static: true}
	registry.Init(&idle.Object, idle, KindThread, "tidle")
	idle.entry = func(any) { k.idleLoop() }
	k.idle = idle
	// Register, not Spawn: the idle thread's body runs directly on
	// whatever goroutine calls Start, not on a separately spawned one.
	k.gate.Register(idle)
	return k
}

// Start hands control permanently to the kernel, the Go analogue of
// rt_system_scheduler_start: it readies the idle thread and runs its
// body on the calling goroutine, which is now the idle thread's
// execution context for the remaining life of the process. Start never
// returns. Call it once, after every boot-time thread has been created
// via InitThread/CreateThread and made ready via Startup.
func (k *Kernel) Start() {
	state := k.gate.Lock()
	if k.started {
		k.gate.Unlock(state)
		return
	}
	k.idle.state = StateReady
	k.idle.tickRemain = k.idle.tickInit
	k.readyInsert(k.idle)
	k.started = true
	next := k.sched.PickNext()
	if next == nil {
		next = k.idle
	}
	k.current = next
	k.gate.Unlock(state)
	// Hand off to whichever thread actually has the highest priority among
	// those already made ready before Start was called — idle is only the
	// fallback when none are. Either way the calling goroutine becomes
	// idle's own execution context from here on, competing for the CPU at
	// its reserved lowest priority exactly like any other thread.
	if next != k.idle {
		k.gate.Resume(next)
	}
	k.idle.Run()
}

// idleLoop is the body of the idle thread: it has nothing of its own to
// do but drain the defunct list, rt_thread_idle_excute's job in the
// original kernel.
func (k *Kernel) idleLoop() {
	for {
		k.sweepDefunct()
		k.gate.Suspend(k.idle)
	}
}

// sweepDefunct frees every heap-owned thread object queued for teardown
// by Exit, outside of any critical section, exactly as the idle thread's
// rt_thread_idle_excute does for rt_thread_defunct.
func (k *Kernel) sweepDefunct() {
	state := k.gate.Lock()
	pending := k.defunct
	k.defunct = nil
	k.gate.Unlock(state)

	for _, t := range pending {
		k.gate.Retire(t)
		if !t.Static {
			k.registry.Delete(&t.Object)
		}
	}
}

// Tick advances the kernel's notion of time by one tick, driving
// round-robin slice expiry and timeout wakeups. The embedder (ksys.System
// or a test) calls this from whatever drives the simulated clock.
//
// TimerService.Tick is deliberately called without the gate held: its
// fired callbacks (wakeTimeout) each take the gate lock themselves, and
// the gate's Lock is not reentrant, so holding it across Tick would
// deadlock the first timeout that fires.
func (k *Kernel) Tick() {
	k.timers.Tick()
	state := k.gate.Lock()
	cur := k.current
	if cur != nil && cur != k.idle {
		cur.tickRemain--
		if cur.tickRemain <= 0 {
			cur.tickRemain = cur.tickInit
			// Same priority round-robin: move to the tail of its
			// priority's ready queue, rt_thread_timer's quantum-expired
			// branch in schedule.go/thread.c. Tick is driven by whatever
			// goroutine calls it, not necessarily cur's own, so it can
			// only reorder the ready table here — it cannot safely
			// Suspend cur's goroutine from the outside. The new order
			// takes effect the next time cur's own goroutine reaches a
			// Checkpoint (any kernel call, including a plain Yield).
			k.readyRemove(cur)
			k.readyInsert(cur)
		}
	}
	k.gate.Unlock(state)
}

// Reschedule picks the next thread to run and, if it differs from the
// caller, switches to it and parks the caller. Every blocking operation
// in this package ends at a Reschedule call: this is the "Checkpoint"
// the GLOSSARY describes, the cooperative stand-in for a hardware timer
// interrupt. Must be called with the gate unlocked.
func (k *Kernel) Reschedule() {
	state := k.gate.Lock()
	next := k.sched.PickNext()
	if next == nil {
		next = k.idle
	}
	prev := k.current
	if next == prev {
		k.gate.Unlock(state)
		return
	}
	k.current = next
	k.gate.Unlock(state)
	k.gate.Resume(next)
	// A thread that just exited must not block here: its goroutine is
	// meant to return (Run is about to unwind), not park for a future
	// Resume that will never come.
	if prev != nil && prev.state != StateClose {
		k.gate.Suspend(prev)
	}
}

// wake is the non-suspending counterpart to Reschedule: it advances
// k.current to the highest-priority ready thread and resumes it if that
// differs from before, but never parks the caller. Startup, Resume and
// changePriority use this rather than Reschedule because the goroutine
// calling them is frequently not the preempted thread's own — boot code
// starting several threads before Start, a monitor thread resuming or
// reprioritizing another — and only a thread's own goroutine may Suspend
// on its behalf. The thread that loses the CPU here keeps running until
// its own next Checkpoint, exactly as a quantum expiry noticed by Tick
// does; see the GLOSSARY entry for Checkpoint.
func (k *Kernel) wake() {
	state := k.gate.Lock()
	next := k.sched.PickNext()
	if next == nil {
		next = k.idle
	}
	changed := next != k.current
	if changed {
		k.current = next
	}
	k.gate.Unlock(state)
	if changed {
		k.gate.Resume(next)
	}
}

// Self returns the thread currently running, rt_thread_self.
func (k *Kernel) Self() *Thread {
	state := k.gate.Lock()
	defer k.gate.Unlock(state)
	return k.current
}

// readyInsert links t into the ready table, asserting via listNode that
// it was not already linked into some other list — the REDESIGN
// invariant applied to the ready table as well as to wait queues.
func (k *Kernel) readyInsert(t *Thread) {
	t.link(inReadyTable)
	k.sched.InsertReady(t)
}

// readyRemove unlinks t from the ready table. A no-op on a thread that
// is not currently in it is a caller bug and panics via listNode.unlink.
func (k *Kernel) readyRemove(t *Thread) {
	t.unlink(inReadyTable)
	k.sched.RemoveReady(t)
}

// hooks exposes the configured observability callpoints to the sync
// primitive files without every one of them reaching into cfg directly.
func (k *Kernel) hooks() ObjectHooks {
	return k.cfg.Hooks
}

// setErr is a small helper that stashes a result on the calling thread
// before it potentially gets rescheduled, mirroring ipc.c's pattern of
// setting thread->error before rt_schedule(). Nothing in this package
// calls it; the IPC files set t.err directly.
func setErr(t *Thread, e kernelerr.Error) kernelerr.Error {
	if t != nil {
		t.err = e
	}
	return e
}
