package kernel

import (
	"github.com/rt-go/kernel/src/kernelerr"
	"github.com/rt-go/kernel/src/trust"
)

// ThreadState is the thread lifecycle state machine, rt_thread_init/
// rt_thread_startup/rt_thread_suspend/rt_thread_resume/rt_thread_exit's
// RT_THREAD_INIT/READY/SUSPEND/RUNNING/CLOSE states.
type ThreadState uint8

const (
	StateInit ThreadState = iota
	StateReady
	StateSuspend
	StateRunning
	StateClose
)

// Control commands for Thread.Control, rt_thread_control's cmd argument.
type ControlCmd uint8

const (
	ControlChangePriority ControlCmd = iota
	ControlStartup
	ControlClose
)

// Thread is a schedulable kernel object, the Go analogue of struct
// rt_thread. Its execution context (the backing goroutine) is owned by
// the HardwareGate implementation, not by Thread itself, so this struct
// only carries scheduling and synchronization state.
type Thread struct {
	Object
	listNode

	k *Kernel

	entry func(arg any)
	arg   any

	priority     uint8
	initPriority uint8
	state        ThreadState

	tickInit   int32
	tickRemain int32

	err kernelerr.Error

	waitQ    *waitQueue // non-nil while suspended on an IPC wait queue
	timedOut bool       // set by the timer callback when a wait times out

	// eventWanted/eventOption are the Go analogue of rt_thread's
	// event_set/event_info fields: scratch state an Event wait stashes on
	// the calling thread so Send's waiter scan (which runs on a different
	// goroutine than the waiter) can evaluate the match without a side
	// table keyed by thread. The matched value itself is never cached
	// here — RecvEvent re-reads the event's live flags after waking.
	eventWanted uint32
	eventOption EventOption

	cleanup func(*Thread)
}

// InitThread initializes a caller-allocated Thread (static lifecycle),
// rt_thread_init. The thread is left in StateInit; Startup makes it
// ready. tickInit is the round-robin time slice in kernel ticks.
func (k *Kernel) InitThread(t *Thread, name string, entry func(any), arg any, priority uint8, tickInit int32) kernelerr.Error {
	if priority >= k.cfg.MaxPriority {
		trust.Errorf("InitThread %q: priority %d exceeds configured maximum %d", name, priority, k.cfg.MaxPriority)
		return kernelerr.ERROR
	}
	*t = Thread{
		Object:       Object{Name: name, Kind: KindThread, Static: true},
		k:            k,
		entry:        entry,
		arg:          arg,
		priority:     priority,
		initPriority: priority,
		state:        StateInit,
		tickInit:     tickInit,
		tickRemain:   tickInit,
	}
	k.registry.Init(&t.Object, t, KindThread, name)
	k.gate.Spawn(t)
	return kernelerr.OK
}

// CreateThread allocates and initializes a heap-owned Thread (New/Delete
// lifecycle), rt_thread_create.
func (k *Kernel) CreateThread(name string, entry func(any), arg any, priority uint8, tickInit int32) *Thread {
	if !k.cfg.UseHeap {
		return nil
	}
	t := &Thread{}
	if k.InitThread(t, name, entry, arg, priority, tickInit) != kernelerr.OK {
		return nil
	}
	t.Static = false
	// InitThread registered the name on the static path; drop that entry so
	// the heap-owned registration below does not collide with it.
	k.registry.Detach(&t.Object)
	if !k.registry.Allocate(&t.Object, t, KindThread, name) {
		trust.Errorf("CreateThread: name %q already in use or heap objects disabled", name)
		return nil
	}
	return t
}

// Startup moves an initialized thread from StateInit to ready, rt_thread_startup.
func (k *Kernel) Startup(t *Thread) kernelerr.Error {
	if t.state != StateInit {
		return kernelerr.InvalidState
	}
	state := k.gate.Lock()
	t.state = StateReady
	t.tickRemain = t.tickInit
	k.readyInsert(t)
	k.gate.Unlock(state)
	k.wake()
	return kernelerr.OK
}

// Control dispatches rt_thread_control's command surface.
func (k *Kernel) Control(t *Thread, cmd ControlCmd, arg any) kernelerr.Error {
	switch cmd {
	case ControlChangePriority:
		newPrio, ok := arg.(uint8)
		if !ok || newPrio >= k.cfg.MaxPriority {
			return kernelerr.ERROR
		}
		return k.changePriority(t, newPrio)
	case ControlStartup:
		return k.Startup(t)
	case ControlClose:
		return k.Delete(t)
	default:
		return kernelerr.ERROR
	}
}

func (k *Kernel) changePriority(t *Thread, newPrio uint8) kernelerr.Error {
	state := k.gate.Lock()
	wasReady := t.state == StateReady
	if wasReady {
		k.readyRemove(t)
	}
	t.priority = newPrio
	if wasReady {
		k.readyInsert(t)
	}
	k.gate.Unlock(state)
	if wasReady {
		k.wake()
	}
	return kernelerr.OK
}

// Yield gives up the remainder of the calling thread's time slice to any
// other ready thread at the same priority, rt_thread_yield.
func (k *Kernel) Yield(t *Thread) {
	state := k.gate.Lock()
	t.tickRemain = t.tickInit
	k.readyRemove(t)
	k.readyInsert(t)
	k.gate.Unlock(state)
	k.Reschedule()
}

// Sleep suspends the calling thread for the given number of ticks and
// reschedules, rt_thread_sleep (rt_thread_delay is its public alias).
func (k *Kernel) Sleep(t *Thread, ticks int64) kernelerr.Error {
	if ticks <= 0 {
		return kernelerr.OK
	}
	state := k.gate.Lock()
	t.state = StateSuspend
	t.timedOut = false
	k.readyRemove(t)
	k.timers.Start(t, ticks, func() { k.wakeTimeout(t) })
	k.gate.Unlock(state)
	k.Reschedule()
	return kernelerr.OK
}

// Delay is rt_thread_delay, a plain alias of Sleep kept for readers
// translating directly from the original call sites.
func (k *Kernel) Delay(t *Thread, ticks int64) kernelerr.Error {
	return k.Sleep(t, ticks)
}

// wakeTimeout is the TimerService callback fired when a suspended
// thread's deadline elapses without the resource it waited on becoming
// available, rt_thread_timeout. It runs on whichever goroutine is
// driving the simulated clock (Kernel.Tick's caller), not necessarily
// t's own, so it only readies t and resumes its parked goroutine — it
// does not attempt to Suspend whatever thread is currently running,
// which only that thread's own goroutine may do at its next Checkpoint.
func (k *Kernel) wakeTimeout(t *Thread) {
	state := k.gate.Lock()
	if t.waitQ != nil {
		t.waitQ.remove(t)
		t.waitQ = nil
	}
	t.timedOut = true
	t.state = StateReady
	t.tickRemain = t.tickInit
	k.readyInsert(t)
	k.gate.Unlock(state)
	k.gate.Resume(t)
}

// suspendOn parks the calling thread on q, optionally arming a timeout,
// and reschedules. Returns TIMEOUT if the wait's deadline elapsed before
// the caller resumed, or the error a teardown's wakeAll stamped on the
// thread (ERROR), the shared mechanics behind every IPC Take/Recv.
//
// Callers must already hold the gate (state is the token from their own
// Lock call) and must not have dropped it since deciding to block: the
// decision (e.g. a semaphore's pre-suspend decrement, a mutex's priority
// boost) and this insertion have to happen in one continuous critical
// section, or a concurrent Release/Send between the two could see an
// empty wait queue and conclude there is no one to wake, permanently
// losing the wakeup this thread is about to start waiting for.
func (k *Kernel) suspendOn(state uint32, t *Thread, q *waitQueue, timeoutTicks int64) kernelerr.Error {
	t.state = StateSuspend
	t.timedOut = false
	t.err = kernelerr.OK
	t.waitQ = q
	k.readyRemove(t)
	q.insert(t)
	if timeoutTicks > 0 {
		k.timers.Start(t, timeoutTicks, func() { k.wakeTimeout(t) })
	}
	k.gate.Unlock(state)
	k.Reschedule()

	if t.timedOut {
		t.err = kernelerr.TIMEOUT
	}
	return t.err
}

// wakeOne pops and readies the head of q, the common "resume one waiter"
// step threaded through every IPC Release/Send, rt_ipc_list_resume.
func (k *Kernel) wakeOne(q *waitQueue) *Thread {
	t := q.popFront()
	if t == nil {
		return nil
	}
	k.timers.Stop(t)
	t.waitQ = nil
	t.state = StateReady
	t.tickRemain = t.tickInit
	k.readyInsert(t)
	return t
}

// wakeAll readies every waiter on q with the given error, used by object
// teardown (rt_ipc_list_resume_all, the ERROR-on-destroy path) and by
// fast-event broadcast sends.
func (k *Kernel) wakeAll(q *waitQueue, err kernelerr.Error) {
	woken := q.drain()
	if err != kernelerr.OK && len(woken) > 0 {
		trust.Warnf("wakeAll: tearing down object out from under %d waiting thread(s), err=%v", len(woken), err)
	}
	for _, t := range woken {
		k.timers.Stop(t)
		t.waitQ = nil
		t.err = err
		t.state = StateReady
		t.tickRemain = t.tickInit
		k.readyInsert(t)
	}
}

// Suspend forcibly suspends a ready thread, rt_thread_suspend. Distinct
// from suspendOn: there is no wait queue or timeout, a later Resume is
// the only way back to ready.
func (k *Kernel) Suspend(t *Thread) kernelerr.Error {
	if t.state != StateReady {
		return kernelerr.InvalidState
	}
	state := k.gate.Lock()
	t.state = StateSuspend
	k.readyRemove(t)
	k.gate.Unlock(state)
	if t == k.current {
		k.Reschedule()
	}
	return kernelerr.OK
}

// Resume moves a suspended thread back to ready, rt_thread_resume.
func (k *Kernel) Resume(t *Thread) kernelerr.Error {
	if t.state != StateSuspend {
		return kernelerr.InvalidState
	}
	state := k.gate.Lock()
	if t.waitQ != nil {
		t.waitQ.remove(t)
		t.waitQ = nil
	}
	k.timers.Stop(t)
	t.state = StateReady
	t.tickRemain = t.tickInit
	k.readyInsert(t)
	k.gate.Unlock(state)
	// wake, not Reschedule: Resume is typically called by a thread acting
	// on another (a watchdog, a cleanup routine), not by t's own goroutine,
	// which is exactly the case Reschedule's Suspend(prev) must not run in.
	k.wake()
	return kernelerr.OK
}

// Find looks a thread up by name via the registry, rt_thread_find. Only
// thread objects are returned; callers that need a differently-kinded
// object use the registry directly.
func (k *Kernel) Find(name string) (*Thread, bool) {
	handle, ok := k.registry.Find(name)
	if !ok {
		return nil, false
	}
	t, ok := handle.(*Thread)
	return t, ok
}

// Detach removes a statically allocated thread from the registry without
// freeing it (the caller owns the memory), rt_thread_detach. The thread
// must already be in StateClose (i.e. its entry function has returned).
func (k *Kernel) Detach(t *Thread) kernelerr.Error {
	if t.state != StateClose {
		return kernelerr.InvalidState
	}
	k.registry.Detach(&t.Object)
	return kernelerr.OK
}

// Delete queues a heap-owned thread for teardown by the defunct sweep,
// rt_thread_delete.
func (k *Kernel) Delete(t *Thread) kernelerr.Error {
	if t.Static {
		return kernelerr.ERROR
	}
	state := k.gate.Lock()
	if t.state == StateReady {
		k.readyRemove(t)
	}
	t.state = StateClose
	k.defunct = append(k.defunct, t)
	k.gate.Unlock(state)
	return kernelerr.OK
}

// exit is called by the goroutine backing t immediately after t.entry
// returns, rt_thread_exit: move to StateClose and hand off to the
// registry's static-detach path or the defunct list depending on
// ownership, then reschedule away permanently.
func (k *Kernel) exit(t *Thread) {
	state := k.gate.Lock()
	if t.state == StateReady {
		k.readyRemove(t)
	}
	t.state = StateClose
	if t.Static {
		k.registry.Detach(&t.Object)
	} else {
		k.defunct = append(k.defunct, t)
	}
	k.gate.Unlock(state)
	if t.cleanup != nil {
		t.cleanup(t)
	}
	k.Reschedule()
}

// Run executes the thread's entry function and then performs the exit
// bookkeeping rt_thread_exit does when a thread's body function returns
// control to its wrapping trampoline. A HardwareGate implementation
// calls this exactly once, in the goroutine it creates for the thread in
// Spawn, after that goroutine's first Resume.
func (t *Thread) Run() {
	t.entry(t.arg)
	t.k.exit(t)
}

// Priority returns the thread's current (possibly boosted) priority.
func (t *Thread) Priority() uint8 { return t.priority }

// State returns the thread's lifecycle state.
func (t *Thread) State() ThreadState { return t.state }

// Error returns the result of the thread's last blocking wait.
func (t *Thread) Error() kernelerr.Error { return t.err }
