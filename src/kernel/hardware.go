package kernel

// HardwareGate is the low-level context-switch and interrupt-mask
// primitive spec.md carves out as an external, interface-only
// collaborator (RT-Thread's rt_hw_interrupt_disable/enable and
// rt_hw_context_switch). The kernel core never touches a CPU register or
// a real interrupt controller directly; every place thread.c/ipc.c wraps
// a critical section in rt_hw_interrupt_disable/enable, this core wraps
// it in Lock/Unlock instead, and every place they call
// rt_hw_context_switch this core calls Suspend/Resume instead.
type HardwareGate interface {
	// Lock disables preemption and returns an opaque previous-state token,
	// mirroring rt_hw_interrupt_disable's saved CPSR/PRIMASK return value.
	Lock() uint32
	// Unlock restores the state token returned by a matching Lock.
	Unlock(state uint32)

	// Spawn creates the execution context backing a newly-initialized
	// thread as a new goroutine, parked until the scheduler first
	// Resumes it. Mirrors rt_thread_init's stack paint plus
	// rt_hw_stack_init.
	Spawn(t *Thread)

	// Register creates the handoff bookkeeping for a thread without
	// spawning a goroutine for it. Used exactly once, for the idle
	// thread: Kernel.Start runs the idle thread's body directly on the
	// caller's own goroutine (the Go analogue of rt_system_scheduler_
	// start never returning to main — main's stack becomes the first
	// thread's stack), so no separate goroutine should be spawned for it.
	Register(t *Thread)

	// Suspend parks the calling thread's own execution context until a
	// matching Resume is issued for it by some other thread's call into
	// the kernel. Called by a thread on itself at the end of Reschedule
	// when it was not the one picked to keep running: the Go analogue of
	// rt_hw_context_switch switching away from `from`.
	Suspend(t *Thread)

	// Resume signals a parked context to become runnable again. It does
	// not block: the resumed goroutine becomes runnable but the caller
	// keeps running until it, too, reaches its own Suspend checkpoint.
	Resume(t *Thread)

	// Retire tears down a thread's execution context permanently, called
	// once from the defunct sweep after rt_thread_exit's bookkeeping.
	Retire(t *Thread)
}
