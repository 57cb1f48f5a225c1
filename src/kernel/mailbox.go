package kernel

import (
	"github.com/rt-go/kernel/src/kernelerr"
	"github.com/rt-go/kernel/src/trust"
)

// Mailbox is a fixed-capacity ring buffer of single values, rt_mailbox/
// struct rt_mailbox. Unlike MsgQueue, every entry is a single word-sized
// value (msg_pool in ipc.c is an array of rt_ubase_t); this port carries
// an `any` instead of a machine word since the payload size constraint
// the original has no meaning in Go. Send never blocks — rt_mb_send has
// no wait path at all, just an immediate FULL — so there is only one wait
// queue, for receivers.
type Mailbox struct {
	Object
	k          *Kernel
	buf        []any
	head, tail int
	count      int
	recvWaitQ  waitQueue
}

// InitMailbox initializes a caller-allocated Mailbox of the given
// capacity, rt_mb_init.
func (k *Kernel) InitMailbox(mb *Mailbox, name string, capacity int, mode WaitMode) kernelerr.Error {
	*mb = Mailbox{
		Object:    Object{Name: name, Kind: KindMailbox, Static: true},
		k:         k,
		buf:       make([]any, capacity),
		recvWaitQ: newWaitQueue(mode),
	}
	k.registry.Init(&mb.Object, mb, KindMailbox, name)
	return kernelerr.OK
}

// DetachMailbox removes a statically allocated mailbox from the
// registry, waking every receiver with ERROR, rt_mb_detach.
func (k *Kernel) DetachMailbox(mb *Mailbox) kernelerr.Error {
	state := k.gate.Lock()
	k.wakeAll(&mb.recvWaitQ, kernelerr.ERROR)
	k.gate.Unlock(state)
	k.registry.Detach(&mb.Object)
	return kernelerr.OK
}

// CreateMailbox allocates a heap-owned mailbox, rt_mb_create.
func (k *Kernel) CreateMailbox(name string, capacity int, mode WaitMode) *Mailbox {
	if !k.cfg.UseHeap {
		return nil
	}
	mb := &Mailbox{k: k, buf: make([]any, capacity), recvWaitQ: newWaitQueue(mode)}
	mb.Object = Object{Name: name, Kind: KindMailbox, Static: false}
	if !k.registry.Allocate(&mb.Object, mb, KindMailbox, name) {
		trust.Errorf("CreateMailbox: name %q already in use or heap objects disabled", name)
		return nil
	}
	return mb
}

// DeleteMailbox wakes every receiver with ERROR and removes a heap-owned
// mailbox from the registry, rt_mb_delete.
func (k *Kernel) DeleteMailbox(mb *Mailbox) kernelerr.Error {
	if mb.Static {
		return kernelerr.ERROR
	}
	state := k.gate.Lock()
	k.wakeAll(&mb.recvWaitQ, kernelerr.ERROR)
	k.gate.Unlock(state)
	k.registry.Delete(&mb.Object)
	return kernelerr.OK
}

// SendMailbox pushes value to the tail of the ring buffer, rt_mb_send: a
// full mailbox fails immediately with FULL, it never blocks the sender —
// rt_mb_send takes no timeout for exactly that reason, and neither does
// this.
func (k *Kernel) SendMailbox(mb *Mailbox, value any) kernelerr.Error {
	return k.sendMailbox(mb, value, false)
}

// SendUrgentMailbox pushes value to the head of the ring buffer so it is
// the next value received, rt_mb_urgent. Also non-blocking.
func (k *Kernel) SendUrgentMailbox(mb *Mailbox, value any) kernelerr.Error {
	return k.sendMailbox(mb, value, true)
}

func (k *Kernel) sendMailbox(mb *Mailbox, value any, urgent bool) kernelerr.Error {
	state := k.gate.Lock()
	if mb.count == len(mb.buf) {
		k.gate.Unlock(state)
		return kernelerr.FULL
	}
	if urgent {
		mb.head = (mb.head - 1 + len(mb.buf)) % len(mb.buf)
		mb.buf[mb.head] = value
	} else {
		mb.buf[mb.tail] = value
		mb.tail = (mb.tail + 1) % len(mb.buf)
	}
	mb.count++
	woke := k.wakeOne(&mb.recvWaitQ) != nil
	k.gate.Unlock(state)
	k.hooks().put(mb.Object)
	if woke {
		k.Reschedule()
	}
	return kernelerr.OK
}

// RecvMailbox pops the head of the ring buffer, blocking up to
// timeoutTicks while the mailbox is empty, rt_mb_recv.
func (k *Kernel) RecvMailbox(mb *Mailbox, t *Thread, timeoutTicks int64) (any, kernelerr.Error) {
	state := k.gate.Lock()
	for mb.count == 0 {
		if timeoutTicks == 0 {
			k.gate.Unlock(state)
			return nil, kernelerr.EMPTY
		}
		if err := k.suspendOn(state, t, &mb.recvWaitQ, timeoutTicks); err != kernelerr.OK {
			return nil, err
		}
		state = k.gate.Lock()
	}
	value := mb.buf[mb.head]
	mb.buf[mb.head] = nil
	mb.head = (mb.head + 1) % len(mb.buf)
	mb.count--
	k.gate.Unlock(state)
	k.hooks().take(mb.Object)
	return value, kernelerr.OK
}

// Len returns the number of pending entries, for tests/diagnostics.
func (mb *Mailbox) Len() int { return mb.count }
