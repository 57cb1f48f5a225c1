package kernel

// TimerService is the external collaborator driving per-thread one-shot
// timeouts off a tick counter, RT-Thread's rt_timer_* family as used by
// rt_thread_sleep/rt_thread_delay and every IPC suspend-with-timeout path.
type TimerService interface {
	// Start arms a one-shot timer that fires onTimeout after ticks kernel
	// ticks, rt_timer_control(RT_TIMER_CTRL_SET_TIME) + rt_timer_start.
	// Starting a timer already running for t replaces it.
	Start(t *Thread, ticks int64, onTimeout func())
	// Stop disarms t's timer if one is running, rt_timer_stop. Called on
	// every wake path that isn't the timeout itself, so a thread that woke
	// up because a resource became available doesn't also time out later.
	Stop(t *Thread)
	// Tick advances the tick counter by one and fires any timer whose
	// deadline has arrived, rt_timer_check as invoked from the OS tick ISR.
	Tick()
}
