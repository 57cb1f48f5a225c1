package kernel

import (
	"github.com/rt-go/kernel/src/kernelerr"
	"github.com/rt-go/kernel/src/trust"
)

// msgCell is one fixed-size slot in a MsgQueue's preallocated pool,
// ipc.c's struct rt_mq_message linked either into the free list or the
// queued-message list via its own `next` pointer (never both).
type msgCell struct {
	data []byte
	next *msgCell
}

// MsgQueue is a bounded queue of variable-length (up to a fixed maximum)
// byte messages, backed by a preallocated pool of fixed cells threaded
// onto either a free list or the live message list, rt_mq/struct
// rt_messagequeue. This is the free-list design ipc.c uses (msg_pool,
// msg_queue_free, msg_queue_head/msg_queue_tail) rather than a slice
// ring buffer, because a real RT-Thread message queue never allocates
// once it is created. Send never blocks — rt_mq_send has no wait path,
// just an immediate -RT_EFULL — so there is only one wait queue, for
// receivers.
type MsgQueue struct {
	Object
	k          *Kernel
	maxMsgSize int

	pool     []msgCell
	freeList *msgCell
	head     *msgCell
	tail     *msgCell
	count    int

	recvWaitQ waitQueue
}

// InitMsgQueue initializes a caller-allocated MsgQueue with room for
// maxMsgs messages of at most maxMsgSize bytes each, rt_mq_init.
func (k *Kernel) InitMsgQueue(mq *MsgQueue, name string, maxMsgSize, maxMsgs int, mode WaitMode) kernelerr.Error {
	*mq = MsgQueue{
		Object:     Object{Name: name, Kind: KindMsgQueue, Static: true},
		k:          k,
		maxMsgSize: maxMsgSize,
		pool:       make([]msgCell, maxMsgs),
		recvWaitQ:  newWaitQueue(mode),
	}
	mq.rebuildFreeList()
	k.registry.Init(&mq.Object, mq, KindMsgQueue, name)
	return kernelerr.OK
}

func (mq *MsgQueue) rebuildFreeList() {
	mq.freeList = nil
	for i := len(mq.pool) - 1; i >= 0; i-- {
		mq.pool[i].next = mq.freeList
		mq.pool[i].data = nil
		mq.freeList = &mq.pool[i]
	}
	mq.head, mq.tail, mq.count = nil, nil, 0
}

// DetachMsgQueue removes a statically allocated queue from the registry,
// waking every receiver with ERROR, rt_mq_detach.
func (k *Kernel) DetachMsgQueue(mq *MsgQueue) kernelerr.Error {
	state := k.gate.Lock()
	k.wakeAll(&mq.recvWaitQ, kernelerr.ERROR)
	k.gate.Unlock(state)
	k.registry.Detach(&mq.Object)
	return kernelerr.OK
}

// CreateMsgQueue allocates a heap-owned queue, rt_mq_create.
func (k *Kernel) CreateMsgQueue(name string, maxMsgSize, maxMsgs int, mode WaitMode) *MsgQueue {
	if !k.cfg.UseHeap {
		return nil
	}
	mq := &MsgQueue{k: k, maxMsgSize: maxMsgSize, pool: make([]msgCell, maxMsgs), recvWaitQ: newWaitQueue(mode)}
	mq.Object = Object{Name: name, Kind: KindMsgQueue, Static: false}
	mq.rebuildFreeList()
	if !k.registry.Allocate(&mq.Object, mq, KindMsgQueue, name) {
		trust.Errorf("CreateMsgQueue: name %q already in use or heap objects disabled", name)
		return nil
	}
	return mq
}

// DeleteMsgQueue wakes every receiver with ERROR and removes a
// heap-owned queue from the registry, rt_mq_delete.
func (k *Kernel) DeleteMsgQueue(mq *MsgQueue) kernelerr.Error {
	if mq.Static {
		return kernelerr.ERROR
	}
	state := k.gate.Lock()
	k.wakeAll(&mq.recvWaitQ, kernelerr.ERROR)
	k.gate.Unlock(state)
	k.registry.Delete(&mq.Object)
	return kernelerr.OK
}

// SendMsgQueue enqueues data at the tail, rt_mq_send: a queue with no
// free cells fails immediately with FULL, it never blocks the sender —
// rt_mq_send takes no timeout for exactly that reason, and neither does
// this.
func (k *Kernel) SendMsgQueue(mq *MsgQueue, data []byte) kernelerr.Error {
	return k.sendMsgQueue(mq, data, false)
}

// SendUrgentMsgQueue enqueues data at the head, ahead of everything
// already queued, rt_mq_urgent. Also non-blocking.
func (k *Kernel) SendUrgentMsgQueue(mq *MsgQueue, data []byte) kernelerr.Error {
	return k.sendMsgQueue(mq, data, true)
}

func (k *Kernel) sendMsgQueue(mq *MsgQueue, data []byte, urgent bool) kernelerr.Error {
	if len(data) > mq.maxMsgSize {
		return kernelerr.ERROR
	}
	state := k.gate.Lock()
	if mq.freeList == nil {
		k.gate.Unlock(state)
		return kernelerr.FULL
	}
	cell := mq.freeList
	mq.freeList = cell.next
	cell.data = append(cell.data[:0], data...)
	cell.next = nil
	if urgent {
		cell.next = mq.head
		mq.head = cell
		if mq.tail == nil {
			mq.tail = cell
		}
	} else {
		if mq.tail == nil {
			mq.head, mq.tail = cell, cell
		} else {
			mq.tail.next = cell
			mq.tail = cell
		}
	}
	mq.count++
	woke := k.wakeOne(&mq.recvWaitQ) != nil
	k.gate.Unlock(state)
	k.hooks().put(mq.Object)
	if woke {
		k.Reschedule()
	}
	return kernelerr.OK
}

// RecvMsgQueue dequeues the head message, blocking up to timeoutTicks while the
// queue is empty, rt_mq_recv.
func (k *Kernel) RecvMsgQueue(mq *MsgQueue, t *Thread, timeoutTicks int64) ([]byte, kernelerr.Error) {
	state := k.gate.Lock()
	for mq.count == 0 {
		if timeoutTicks == 0 {
			k.gate.Unlock(state)
			return nil, kernelerr.EMPTY
		}
		if err := k.suspendOn(state, t, &mq.recvWaitQ, timeoutTicks); err != kernelerr.OK {
			return nil, err
		}
		state = k.gate.Lock()
	}
	cell := mq.head
	mq.head = cell.next
	if mq.head == nil {
		mq.tail = nil
	}
	data := cell.data
	cell.data = nil
	cell.next = mq.freeList
	mq.freeList = cell
	mq.count--
	k.gate.Unlock(state)
	k.hooks().take(mq.Object)
	return data, kernelerr.OK
}

// Len returns the number of pending messages, for tests/diagnostics.
func (mq *MsgQueue) Len() int { return mq.count }
