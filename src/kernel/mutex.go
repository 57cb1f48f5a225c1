package kernel

import (
	"github.com/rt-go/kernel/src/kernelerr"
	"github.com/rt-go/kernel/src/trust"
)

// Mutex is a recursive, priority-inheriting mutual exclusion lock,
// rt_mutex/struct rt_mutex. Inheritance is single-level: taking a
// contended mutex may boost its owner's priority to the waiter's, but a
// boosted owner does not propagate that boost through any mutex it is in
// turn waiting on. This mirrors ipc.c's actual rt_mutex_take, which only
// ever touches thread->current_priority one hop away.
type Mutex struct {
	Object
	k         *Kernel
	owner     *Thread
	holdCount int32
	waitQ     waitQueue
}

// InitMutex initializes a caller-allocated Mutex, rt_mutex_init. Mutex
// wait queues are always priority ordered in RT-Thread.
func (k *Kernel) InitMutex(m *Mutex, name string) kernelerr.Error {
	*m = Mutex{
		Object: Object{Name: name, Kind: KindMutex, Static: true},
		k:      k,
		waitQ:  newWaitQueue(WaitPriority),
	}
	k.registry.Init(&m.Object, m, KindMutex, name)
	return kernelerr.OK
}

// DetachMutex removes a statically allocated mutex from the registry,
// rt_mutex_detach. Any waiters are woken with ERROR.
func (k *Kernel) DetachMutex(m *Mutex) kernelerr.Error {
	state := k.gate.Lock()
	k.wakeAll(&m.waitQ, kernelerr.ERROR)
	k.gate.Unlock(state)
	k.registry.Detach(&m.Object)
	return kernelerr.OK
}

// CreateMutex allocates a heap-owned mutex, rt_mutex_create.
func (k *Kernel) CreateMutex(name string) *Mutex {
	if !k.cfg.UseHeap {
		return nil
	}
	m := &Mutex{k: k, waitQ: newWaitQueue(WaitPriority)}
	m.Object = Object{Name: name, Kind: KindMutex, Static: false}
	if !k.registry.Allocate(&m.Object, m, KindMutex, name) {
		trust.Errorf("CreateMutex: name %q already in use or heap objects disabled", name)
		return nil
	}
	return m
}

// DeleteMutex wakes any waiters with ERROR and removes a heap-owned
// mutex from the registry, rt_mutex_delete.
func (k *Kernel) DeleteMutex(m *Mutex) kernelerr.Error {
	if m.Static {
		return kernelerr.ERROR
	}
	state := k.gate.Lock()
	k.wakeAll(&m.waitQ, kernelerr.ERROR)
	k.gate.Unlock(state)
	k.registry.Delete(&m.Object)
	return kernelerr.OK
}

// LockMutex acquires m, recursively if the caller already holds it, boosting
// the current owner's priority if the caller's priority is strictly
// higher (a lower numeric value), rt_mutex_take. Equal-priority waiters
// never boost the owner: open question (c), preserved as intended.
func (k *Kernel) LockMutex(m *Mutex, t *Thread, timeoutTicks int64) kernelerr.Error {
	state := k.gate.Lock()
	if m.owner == nil {
		m.owner = t
		m.holdCount = 1
		k.gate.Unlock(state)
		k.hooks().take(m.Object)
		return kernelerr.OK
	}
	if m.owner == t {
		m.holdCount++
		k.gate.Unlock(state)
		return kernelerr.OK
	}
	if timeoutTicks == 0 {
		k.gate.Unlock(state)
		return kernelerr.TIMEOUT
	}
	// Only a caller that is actually going to wait boosts the owner's
	// priority: a timeout==0 poll must never leave a side effect behind,
	// matching rt_mutex_take's order (the time==0 check precedes the
	// inheritance branch).
	if t.priority < m.owner.priority {
		k.boostPriority(m.owner, t.priority)
	}
	err := k.suspendOn(state, t, &m.waitQ, timeoutTicks)
	if err == kernelerr.OK {
		k.hooks().take(m.Object)
	}
	return err
}

// boostPriority raises owner's current priority to newPrio, moving it
// within the ready table if it is currently ready, rt_mutex_take's
// inheritance branch.
func (k *Kernel) boostPriority(owner *Thread, newPrio uint8) {
	wasReady := owner.state == StateReady
	if wasReady {
		k.readyRemove(owner)
	}
	owner.priority = newPrio
	if wasReady {
		k.readyInsert(owner)
	}
}

// UnlockMutex releases one hold on m, restoring the owner's original priority
// once the last recursive hold is released and handing ownership to the
// highest-priority waiter if any, rt_mutex_release.
func (k *Kernel) UnlockMutex(m *Mutex, t *Thread) kernelerr.Error {
	state := k.gate.Lock()
	if m.owner != t {
		k.gate.Unlock(state)
		trust.Errorf("UnlockMutex %q: releaser does not hold the mutex", m.Name)
		return kernelerr.ERROR
	}
	m.holdCount--
	if m.holdCount > 0 {
		k.gate.Unlock(state)
		return kernelerr.OK
	}
	if t.priority != t.initPriority {
		k.boostPriority(t, t.initPriority)
	}
	var woken *Thread
	if !m.waitQ.empty() {
		woken = k.wakeOne(&m.waitQ)
		m.owner = woken
		m.holdCount = 1
	} else {
		m.owner = nil
	}
	k.gate.Unlock(state)
	k.hooks().put(m.Object)
	if woken != nil {
		k.Reschedule()
	}
	return kernelerr.OK
}

// Owner returns the thread currently holding m, or nil if unlocked.
func (m *Mutex) Owner() *Thread { return m.owner }
