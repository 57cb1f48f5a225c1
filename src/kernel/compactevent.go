package kernel

import (
	"github.com/rt-go/kernel/src/kernelerr"
	"github.com/rt-go/kernel/src/trust"
)

// compactEventBits is the fixed number of independent binary flags a
// CompactEvent carries, rt_fast_event's wait_list[32].
const compactEventBits = 32

// CompactEvent is the "fast event" variant: 32 independent binary flags,
// each with its own wait list, rt_fast_event/struct rt_fast_event. Unlike
// Event there is no AND/OR predicate across bits — a bit is either set
// or not, so Send unconditionally wakes every waiter on a bit it just
// set. §9's REDESIGN note about the PRIO-mode insertion bug applies here:
// this port's insertion uses the same shared, correct waitQueue.insert
// every other IPC kind uses (Open Question b), not the teacher's bug.
type CompactEvent struct {
	Object
	k         *Kernel
	set       uint32
	waitLists [compactEventBits]waitQueue
}

// InitCompactEvent initializes a caller-allocated CompactEvent,
// rt_fast_event_init.
func (k *Kernel) InitCompactEvent(ce *CompactEvent, name string, mode WaitMode) kernelerr.Error {
	ce.Object = Object{Name: name, Kind: KindCompactEvent, Static: true}
	ce.k = k
	ce.set = 0
	for i := range ce.waitLists {
		ce.waitLists[i] = newWaitQueue(mode)
	}
	k.registry.Init(&ce.Object, ce, KindCompactEvent, name)
	return kernelerr.OK
}

// DetachCompactEvent removes a statically allocated fast event from the
// registry, waking every waiter on every bit with ERROR.
func (k *Kernel) DetachCompactEvent(ce *CompactEvent) kernelerr.Error {
	state := k.gate.Lock()
	for i := range ce.waitLists {
		k.wakeAll(&ce.waitLists[i], kernelerr.ERROR)
	}
	k.gate.Unlock(state)
	k.registry.Detach(&ce.Object)
	return kernelerr.OK
}

// CreateCompactEvent allocates a heap-owned fast event, rt_fast_event_create.
func (k *Kernel) CreateCompactEvent(name string, mode WaitMode) *CompactEvent {
	if !k.cfg.UseHeap {
		return nil
	}
	ce := &CompactEvent{k: k}
	ce.Object = Object{Name: name, Kind: KindCompactEvent, Static: false}
	for i := range ce.waitLists {
		ce.waitLists[i] = newWaitQueue(mode)
	}
	if !k.registry.Allocate(&ce.Object, ce, KindCompactEvent, name) {
		trust.Errorf("CreateCompactEvent: name %q already in use or heap objects disabled", name)
		return nil
	}
	return ce
}

// DeleteCompactEvent wakes every waiter with ERROR and removes a
// heap-owned fast event from the registry, rt_fast_event_delete.
func (k *Kernel) DeleteCompactEvent(ce *CompactEvent) kernelerr.Error {
	if ce.Static {
		return kernelerr.ERROR
	}
	state := k.gate.Lock()
	for i := range ce.waitLists {
		k.wakeAll(&ce.waitLists[i], kernelerr.ERROR)
	}
	k.gate.Unlock(state)
	k.registry.Delete(&ce.Object)
	return kernelerr.OK
}

// SendCompactEvent sets every bit in set and unconditionally wakes every
// thread waiting on any of those bits, rt_fast_event_send.
func (k *Kernel) SendCompactEvent(ce *CompactEvent, set uint32) kernelerr.Error {
	state := k.gate.Lock()
	ce.set |= set
	anyWoke := false
	for bit := 0; bit < compactEventBits; bit++ {
		if set&(1<<uint(bit)) == 0 {
			continue
		}
		if !ce.waitLists[bit].empty() {
			k.wakeAll(&ce.waitLists[bit], kernelerr.OK)
			anyWoke = true
		}
	}
	k.gate.Unlock(state)
	k.hooks().put(ce.Object)
	if anyWoke {
		k.Reschedule()
	}
	return kernelerr.OK
}

// RecvCompactEvent waits for a single bit to be set, optionally clearing
// it once observed, rt_fast_event_recv.
func (k *Kernel) RecvCompactEvent(ce *CompactEvent, t *Thread, bit uint8, clear bool, timeoutTicks int64) kernelerr.Error {
	mask := uint32(1) << bit
	state := k.gate.Lock()
	if ce.set&mask != 0 {
		if clear {
			ce.set &^= mask
		}
		k.gate.Unlock(state)
		k.hooks().take(ce.Object)
		return kernelerr.OK
	}
	if timeoutTicks == 0 {
		k.gate.Unlock(state)
		return kernelerr.TIMEOUT
	}
	err := k.suspendOn(state, t, &ce.waitLists[bit], timeoutTicks)
	if err != kernelerr.OK {
		return err
	}
	if clear {
		state = k.gate.Lock()
		ce.set &^= mask
		k.gate.Unlock(state)
	}
	k.hooks().take(ce.Object)
	return kernelerr.OK
}

// Flags returns the fast event's raw current bit set.
func (ce *CompactEvent) Flags() uint32 { return ce.set }
