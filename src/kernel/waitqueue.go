package kernel

// WaitMode selects FIFO or priority ordering for a wait queue, RT-Thread's
// RT_IPC_FLAG_FIFO / RT_IPC_FLAG_PRIO.
type WaitMode uint8

const (
	WaitFIFO WaitMode = iota
	WaitPriority
)

// waitQueue holds the threads suspended on one IPC object. ipc.c links
// rt_list_t nodes directly into the object's suspend_thread list; this
// port keeps the same two insertion disciplines (append for FIFO,
// priority-scan-then-insert for PRIO) over a slice, and uses listNode to
// assert a thread is never linked into two wait queues at once.
type waitQueue struct {
	mode  WaitMode
	items []*Thread
}

func newWaitQueue(mode WaitMode) waitQueue {
	return waitQueue{mode: mode}
}

// insert adds t to the queue per q.mode. FIFO appends to the tail,
// rt_list_insert_before(&object->suspend_thread, ...). PRIO scans for the
// first entry with a strictly higher priority value (= lower priority)
// and inserts before it, so equal-priority waiters still queue FIFO among
// themselves — the correct rt_list_insert_before(n, ...) behavior the
// REDESIGN note restores uniformly for every IPC kind, including the
// compact event flags that historically got this wrong.
func (q *waitQueue) insert(t *Thread) {
	t.link(inWaitQueue)
	if q.mode == WaitFIFO {
		q.items = append(q.items, t)
		return
	}
	i := 0
	for i < len(q.items) && q.items[i].priority <= t.priority {
		i++
	}
	q.items = append(q.items, nil)
	copy(q.items[i+1:], q.items[i:])
	q.items[i] = t
}

// remove unlinks t from the queue out of order, used by a timeout firing
// or by an object teardown that must evict every waiter regardless of
// position, rt_list_remove(&(thread->tlist)).
func (q *waitQueue) remove(t *Thread) bool {
	for i, w := range q.items {
		if w == t {
			q.items = append(q.items[:i], q.items[i+1:]...)
			t.unlink(inWaitQueue)
			return true
		}
	}
	return false
}

// popFront removes and returns the head of the queue, or nil if empty,
// the common step of every IPC "resume one waiter" path.
func (q *waitQueue) popFront() *Thread {
	if len(q.items) == 0 {
		return nil
	}
	t := q.items[0]
	q.items = q.items[1:]
	t.unlink(inWaitQueue)
	return t
}

// drain removes and returns every waiter, used by object teardown
// (detach/delete) to wake everyone with ERROR at once.
func (q *waitQueue) drain() []*Thread {
	all := q.items
	q.items = nil
	for _, t := range all {
		t.unlink(inWaitQueue)
	}
	return all
}

func (q *waitQueue) empty() bool {
	return len(q.items) == 0
}

func (q *waitQueue) len() int {
	return len(q.items)
}
