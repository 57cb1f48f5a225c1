package kernel

// Scheduler is the external collaborator that owns the priority-indexed
// ready table, RT-Thread's rt_thread_priority_table and rt_schedule.
// The kernel core calls it every place thread.c/ipc.c manipulate that
// table directly.
type Scheduler interface {
	// InsertReady adds t to the ready table at its current priority,
	// rt_schedule_insert_thread. Round-robin ordering within a priority
	// is the scheduler's concern, not the core's.
	InsertReady(t *Thread)
	// RemoveReady removes t from the ready table, rt_schedule_remove_thread.
	// A no-op if t is not currently in the table.
	RemoveReady(t *Thread)
	// PickNext returns the highest-priority ready thread, or nil if none
	// is ready (the core always keeps an idle thread ready so this should
	// not happen in practice once the system has booted).
	PickNext() *Thread
}
