package kernel

// Config carries the build-time toggles RT-Thread expresses as rtconfig.h
// macros (RT_THREAD_PRIORITY_MAX, RT_USING_HEAP, RT_USING_HOOK) as runtime
// fields instead, since this core is assembled with go test rather than
// cross-compiled per target.
type Config struct {
	// MaxPriority is the number of distinct priority levels, RT_THREAD_PRIORITY_MAX.
	// Priority 0 is highest, MaxPriority-1 is the idle thread's priority.
	MaxPriority uint8

	// UseHeap enables the New/Delete (kernel-owned) lifecycle for threads and
	// IPC objects, RT_USING_HEAP. When false only Init/Detach (caller-owned
	// memory) is available.
	UseHeap bool

	// Hooks fires TryTake/Take/Put callpoints on every IPC operation when
	// non-nil fields are set, RT_USING_HOOK.
	Hooks ObjectHooks
}

// DefaultConfig mirrors RT-Thread's common defconfig: 32 priority levels,
// heap-backed objects enabled, no hooks installed.
func DefaultConfig() Config {
	return Config{
		MaxPriority: 32,
		UseHeap:     true,
	}
}

// ObjectHooks are the RT_USING_HOOK callpoints. A nil field is a no-op,
// matching the teacher's `if (hook != RT_NULL)` guard around every call.
type ObjectHooks struct {
	TryTake func(obj Object)
	Take    func(obj Object)
	Put     func(obj Object)
}

func (h ObjectHooks) tryTake(obj Object) {
	if h.TryTake != nil {
		h.TryTake(obj)
	}
}

func (h ObjectHooks) take(obj Object) {
	if h.Take != nil {
		h.Take(obj)
	}
}

func (h ObjectHooks) put(obj Object) {
	if h.Put != nil {
		h.Put(obj)
	}
}
