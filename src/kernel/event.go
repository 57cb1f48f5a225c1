package kernel

import (
	"github.com/rt-go/kernel/src/kernelerr"
	"github.com/rt-go/kernel/src/trust"
)

// EventOption selects how Recv matches its wanted bits against an
// Event's current flag set, RT-Thread's RT_EVENT_FLAG_AND/OR/CLEAR.
type EventOption uint8

const (
	EventAnd   EventOption = 0x01
	EventOr    EventOption = 0x02
	EventClear EventOption = 0x04
)

// Event is the general event-flags object: 32 flags with AND/OR
// predicate matching and optional auto-clear on a satisfied wait,
// rt_event/struct rt_event. See CompactEvent for the "fast event"
// variant (one independent wait list per bit, unconditional wake).
type Event struct {
	Object
	k     *Kernel
	set   uint32
	waitQ waitQueue
}

// InitEvent initializes a caller-allocated Event, rt_event_init. Event
// wait queues are always priority ordered, matching ipc.c.
func (k *Kernel) InitEvent(e *Event, name string) kernelerr.Error {
	*e = Event{
		Object: Object{Name: name, Kind: KindEvent, Static: true},
		k:      k,
		waitQ:  newWaitQueue(WaitPriority),
	}
	k.registry.Init(&e.Object, e, KindEvent, name)
	return kernelerr.OK
}

// DetachEvent removes a statically allocated event from the registry,
// waking any waiters with ERROR, rt_event_detach.
func (k *Kernel) DetachEvent(e *Event) kernelerr.Error {
	state := k.gate.Lock()
	k.wakeAll(&e.waitQ, kernelerr.ERROR)
	k.gate.Unlock(state)
	k.registry.Detach(&e.Object)
	return kernelerr.OK
}

// CreateEvent allocates a heap-owned event, rt_event_create.
func (k *Kernel) CreateEvent(name string) *Event {
	if !k.cfg.UseHeap {
		return nil
	}
	e := &Event{k: k, waitQ: newWaitQueue(WaitPriority)}
	e.Object = Object{Name: name, Kind: KindEvent, Static: false}
	if !k.registry.Allocate(&e.Object, e, KindEvent, name) {
		trust.Errorf("CreateEvent: name %q already in use or heap objects disabled", name)
		return nil
	}
	return e
}

// DeleteEvent wakes any waiters with ERROR and removes a heap-owned
// event from the registry, rt_event_delete.
func (k *Kernel) DeleteEvent(e *Event) kernelerr.Error {
	if e.Static {
		return kernelerr.ERROR
	}
	state := k.gate.Lock()
	k.wakeAll(&e.waitQ, kernelerr.ERROR)
	k.gate.Unlock(state)
	k.registry.Delete(&e.Object)
	return kernelerr.OK
}

func eventSatisfied(set, wanted uint32, opt EventOption) bool {
	if opt&EventAnd != 0 {
		return set&wanted == wanted
	}
	return set&wanted != 0
}

// SendEvent ORs set into the event's flags and wakes every waiter whose
// AND/OR condition is now satisfied, in priority-queue order so earlier,
// higher-priority waiters see (and may CLEAR) the flags before later
// ones are evaluated, rt_event_send.
func (k *Kernel) SendEvent(e *Event, set uint32) kernelerr.Error {
	state := k.gate.Lock()
	e.set |= set
	var woke []*Thread
	keep := e.waitQ.items[:0]
	for _, w := range e.waitQ.items {
		if eventSatisfied(e.set, w.eventWanted, w.eventOption) {
			if w.eventOption&EventClear != 0 {
				e.set &^= w.eventWanted
			}
			w.unlink(inWaitQueue)
			woke = append(woke, w)
		} else {
			keep = append(keep, w)
		}
	}
	e.waitQ.items = keep
	for _, w := range woke {
		k.timers.Stop(w)
		w.waitQ = nil
		w.state = StateReady
		w.tickRemain = w.tickInit
		k.readyInsert(w)
	}
	k.gate.Unlock(state)
	k.hooks().put(e.Object)
	if len(woke) > 0 {
		k.Reschedule()
	}
	return kernelerr.OK
}

// RecvEvent waits for wanted's bits to satisfy opt against the event's
// current flags, rt_event_recv. When the flags already match it returns
// the matched bits (flags & wanted); after a wait it returns the event's
// whole flag set as read on waking, after any clear Send applied.
func (k *Kernel) RecvEvent(e *Event, t *Thread, wanted uint32, opt EventOption, timeoutTicks int64) (uint32, kernelerr.Error) {
	state := k.gate.Lock()
	if eventSatisfied(e.set, wanted, opt) {
		result := e.set & wanted
		if opt&EventClear != 0 {
			e.set &^= wanted
		}
		k.gate.Unlock(state)
		k.hooks().take(e.Object)
		return result, kernelerr.OK
	}
	if timeoutTicks == 0 {
		k.gate.Unlock(state)
		return 0, kernelerr.TIMEOUT
	}
	t.eventWanted = wanted
	t.eventOption = opt
	err := k.suspendOn(state, t, &e.waitQ, timeoutTicks)
	if err != kernelerr.OK {
		return 0, err
	}
	// Read the live flags after waking, not a value stashed at the moment
	// Send decided to wake this thread: a second Send can land between that
	// decision and this goroutine actually resuming, and its bits must be
	// visible here too, rt_event_recv's post-schedule "get received event"
	// re-read under a freshly re-acquired interrupt-disable section.
	state = k.gate.Lock()
	result := e.set
	k.gate.Unlock(state)
	k.hooks().take(e.Object)
	return result, kernelerr.OK
}

// Flags returns the event's raw current flag set, for tests/diagnostics.
func (e *Event) Flags() uint32 { return e.set }
