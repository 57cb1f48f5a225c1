package ksys

import "github.com/rt-go/kernel/src/kernel"

// Table is a hosted kernel.Scheduler: one FIFO queue per priority level,
// rt_thread_priority_table. The currently running thread stays at the
// head of its queue (rt_schedule never removes it just for running);
// Kernel.Tick moves it to the tail of its own queue on quantum expiry to
// get round-robin among equal-priority threads.
type Table struct {
	queues [][]*kernel.Thread
}

// NewTable allocates an empty ready table for maxPriority levels.
func NewTable(maxPriority uint8) *Table {
	return &Table{queues: make([][]*kernel.Thread, maxPriority)}
}

// InsertReady appends t to the tail of its priority's queue.
func (s *Table) InsertReady(t *kernel.Thread) {
	p := t.Priority()
	s.queues[p] = append(s.queues[p], t)
}

// RemoveReady removes t from its priority's queue, wherever it sits.
func (s *Table) RemoveReady(t *kernel.Thread) {
	p := t.Priority()
	q := s.queues[p]
	for i, w := range q {
		if w == t {
			s.queues[p] = append(q[:i], q[i+1:]...)
			return
		}
	}
}

// PickNext returns the head of the lowest-numbered (highest-priority)
// non-empty queue, or nil if every queue is empty.
func (s *Table) PickNext() *kernel.Thread {
	for _, q := range s.queues {
		if len(q) > 0 {
			return q[0]
		}
	}
	return nil
}
