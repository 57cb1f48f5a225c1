package kernel

import (
	"github.com/rt-go/kernel/src/kernelerr"
	"github.com/rt-go/kernel/src/trust"
)

// Semaphore is a counting semaphore, rt_sem/struct rt_semaphore.
//
// value skew on timeout: Take decrements value before suspending and
// does not re-increment it if the wait times out, matching rt_sem_take's
// literal behavior. A semaphore that has ever timed a waiter out no
// longer has a value equal to its true available count; it still
// correctly gates at most value further concurrent takers. This is
// preserved deliberately, not a bug carried over by accident.
type Semaphore struct {
	Object
	k     *Kernel
	value int32
	waitQ waitQueue
}

// InitSemaphore initializes a caller-allocated Semaphore, rt_sem_init.
func (k *Kernel) InitSemaphore(s *Semaphore, name string, value int32, mode WaitMode) kernelerr.Error {
	*s = Semaphore{
		Object: Object{Name: name, Kind: KindSemaphore, Static: true},
		k:      k,
		value:  value,
		waitQ:  newWaitQueue(mode),
	}
	k.registry.Init(&s.Object, s, KindSemaphore, name)
	return kernelerr.OK
}

// DetachSemaphore removes a statically allocated semaphore from the
// registry and wakes every waiter with ERROR, rt_sem_detach.
func (k *Kernel) DetachSemaphore(s *Semaphore) kernelerr.Error {
	state := k.gate.Lock()
	k.wakeAll(&s.waitQ, kernelerr.ERROR)
	k.gate.Unlock(state)
	k.registry.Detach(&s.Object)
	return kernelerr.OK
}

// CreateSemaphore allocates a heap-owned semaphore, rt_sem_create.
func (k *Kernel) CreateSemaphore(name string, value int32, mode WaitMode) *Semaphore {
	if !k.cfg.UseHeap {
		return nil
	}
	s := &Semaphore{k: k, value: value, waitQ: newWaitQueue(mode)}
	s.Object = Object{Name: name, Kind: KindSemaphore, Static: false}
	if !k.registry.Allocate(&s.Object, s, KindSemaphore, name) {
		trust.Errorf("CreateSemaphore: name %q already in use or heap objects disabled", name)
		return nil
	}
	return s
}

// DeleteSemaphore wakes every waiter with ERROR and removes a heap-owned
// semaphore from the registry, rt_sem_delete.
func (k *Kernel) DeleteSemaphore(s *Semaphore) kernelerr.Error {
	if s.Static {
		return kernelerr.ERROR
	}
	state := k.gate.Lock()
	k.wakeAll(&s.waitQ, kernelerr.ERROR)
	k.gate.Unlock(state)
	k.registry.Delete(&s.Object)
	return kernelerr.OK
}

// TryTake is a non-blocking Take, rt_sem_trytake.
func (k *Kernel) TryTake(s *Semaphore) kernelerr.Error {
	k.hooks().tryTake(s.Object)
	state := k.gate.Lock()
	defer k.gate.Unlock(state)
	if s.value > 0 {
		s.value--
		return kernelerr.OK
	}
	return kernelerr.TIMEOUT
}

// Take acquires one count, blocking up to timeoutTicks kernel ticks (0
// means return immediately, negative means wait forever), rt_sem_take.
func (k *Kernel) Take(s *Semaphore, t *Thread, timeoutTicks int64) kernelerr.Error {
	state := k.gate.Lock()
	if s.value > 0 {
		s.value--
		k.gate.Unlock(state)
		k.hooks().take(s.Object)
		return kernelerr.OK
	}
	if timeoutTicks == 0 {
		k.gate.Unlock(state)
		return kernelerr.TIMEOUT
	}
	// Decrement before suspending, matching rt_sem_take's literal order;
	// this is the source of the documented value skew on timeout. The
	// decrement and the wait-queue insertion happen under the same gate
	// hold so a concurrent Release cannot observe an empty queue and skip
	// waking a waiter that has already committed to blocking.
	s.value--
	err := k.suspendOn(state, t, &s.waitQ, timeoutTicks)
	if err == kernelerr.OK {
		k.hooks().take(s.Object)
	}
	return err
}

// Release unconditionally increments value, then wakes the
// highest-priority (or longest waiting, under FIFO) waiter if value is
// still non-positive and someone is queued, rt_sem_release. value can be
// negative (Take decrements it before suspending, see the type comment
// above), so a release does not always need to wake anyone: a semaphore
// with several waiters queued needs several releases to work through them.
func (k *Kernel) Release(s *Semaphore) kernelerr.Error {
	state := k.gate.Lock()
	s.value++
	woke := false
	if s.value <= 0 && !s.waitQ.empty() {
		k.wakeOne(&s.waitQ)
		woke = true
	}
	k.gate.Unlock(state)
	k.hooks().put(s.Object)
	if woke {
		k.Reschedule()
	}
	return kernelerr.OK
}

// Value returns the semaphore's raw counter, including any timeout skew;
// rt_sem_control's RT_IPC_CMD_GET_STATE equivalent for tests/diagnostics.
func (s *Semaphore) Value() int32 { return s.value }
