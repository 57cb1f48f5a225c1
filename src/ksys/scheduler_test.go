package ksys_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rt-go/kernel/src/kernel"
	"github.com/rt-go/kernel/src/kernelerr"
	"github.com/rt-go/kernel/src/ksys"
)

// newFixtureThreads builds n initialized-but-never-started threads at the
// given priorities, purely to drive Table in isolation: InsertReady only
// needs a *kernel.Thread with a priority and a stable identity.
func newFixtureThreads(t *testing.T, k *kernel.Kernel, priorities ...uint8) []*kernel.Thread {
	t.Helper()
	threads := make([]*kernel.Thread, len(priorities))
	for i, p := range priorities {
		th := &kernel.Thread{}
		require.Equal(t, kernelerr.OK, k.InitThread(th, "fixture", func(any) {}, nil, p, 5))
		threads[i] = th
	}
	return threads
}

func TestTablePicksLowestNumberedPriorityFirst(t *testing.T) {
	tbl := ksys.NewTable(8)
	k := kernel.New(kernel.DefaultConfig(), ksys.NewGate(), tbl, ksys.NewWheel(), ksys.NewRegistry())
	threads := newFixtureThreads(t, k, 5, 1, 3)

	for _, th := range threads {
		tbl.InsertReady(th)
	}
	require.Same(t, threads[1], tbl.PickNext())
}

func TestTableFIFOWithinAPriorityLevel(t *testing.T) {
	tbl := ksys.NewTable(8)
	k := kernel.New(kernel.DefaultConfig(), ksys.NewGate(), tbl, ksys.NewWheel(), ksys.NewRegistry())
	threads := newFixtureThreads(t, k, 4, 4, 4)

	for _, th := range threads {
		tbl.InsertReady(th)
	}
	require.Same(t, threads[0], tbl.PickNext())

	// Round robin: move the head to the tail of its own queue, as
	// Kernel.Tick does on quantum expiry.
	tbl.RemoveReady(threads[0])
	tbl.InsertReady(threads[0])
	require.Same(t, threads[1], tbl.PickNext())

	tbl.RemoveReady(threads[1])
	tbl.InsertReady(threads[1])
	require.Same(t, threads[2], tbl.PickNext())
}

func TestTableRemoveReadyThenPickNextSkipsEmptyLevels(t *testing.T) {
	tbl := ksys.NewTable(8)
	k := kernel.New(kernel.DefaultConfig(), ksys.NewGate(), tbl, ksys.NewWheel(), ksys.NewRegistry())
	threads := newFixtureThreads(t, k, 2, 6)

	tbl.InsertReady(threads[0])
	tbl.InsertReady(threads[1])
	require.Same(t, threads[0], tbl.PickNext())

	tbl.RemoveReady(threads[0])
	require.Same(t, threads[1], tbl.PickNext())

	tbl.RemoveReady(threads[1])
	require.Nil(t, tbl.PickNext())
}
