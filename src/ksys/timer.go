package ksys

import (
	"sync"

	"github.com/rt-go/kernel/src/kernel"
)

type timerEntry struct {
	deadline int64
	fire     func()
}

// Wheel is a hosted kernel.TimerService: a tick counter plus a flat map
// of one-shot deadlines, rt_timer_* as driven by the OS tick ISR
// (rt_tick_increase calling rt_timer_check). A real rt_timer is a
// sorted list bucketed for O(1) amortized insertion; this reference
// implementation scans the whole map on every tick, which is simpler and
// plenty fast for the thread counts this core is ever tested with.
type Wheel struct {
	mu      sync.Mutex
	now     int64
	entries map[*kernel.Thread]*timerEntry
}

// NewWheel constructs an empty Wheel.
func NewWheel() *Wheel {
	return &Wheel{entries: make(map[*kernel.Thread]*timerEntry)}
}

// Start arms t's one-shot timer, replacing any timer already running
// for it, rt_timer_start.
func (w *Wheel) Start(t *kernel.Thread, ticks int64, onTimeout func()) {
	w.mu.Lock()
	w.entries[t] = &timerEntry{deadline: w.now + ticks, fire: onTimeout}
	w.mu.Unlock()
}

// Stop disarms t's timer if one is running, rt_timer_stop.
func (w *Wheel) Stop(t *kernel.Thread) {
	w.mu.Lock()
	delete(w.entries, t)
	w.mu.Unlock()
}

// Tick advances the clock by one and fires every timer whose deadline
// has arrived, rt_timer_check. Firing happens after the internal lock is
// released: each callback (kernel's wakeTimeout) takes the kernel's own
// gate lock, and Tick must not be holding any lock a callback could
// re-enter.
func (w *Wheel) Tick() {
	w.mu.Lock()
	w.now++
	var due []func()
	for t, e := range w.entries {
		if e.deadline <= w.now {
			due = append(due, e.fire)
			delete(w.entries, t)
		}
	}
	w.mu.Unlock()

	for _, fire := range due {
		fire()
	}
}
