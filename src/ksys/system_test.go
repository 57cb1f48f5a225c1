package ksys_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rt-go/kernel/src/kernel"
	"github.com/rt-go/kernel/src/kernelerr"
	"github.com/rt-go/kernel/src/ksys"
)

// TestRoundRobinYieldLetsBothEqualPriorityThreadsMakeProgress starts two
// same-priority threads that each record their name and Yield three times.
// Startup resumes a newly-ready thread without suspending whichever
// goroutine called it (see Kernel.wake's doc comment), so the very first
// couple of turns race against the test goroutine's own remaining setup
// code; only the counts, not the exact interleaving, are asserted here. The
// strict ordering guarantee round-robin promises is checked deterministically
// against ksys.Table itself in scheduler_test.go.
func TestRoundRobinYieldLetsBothEqualPriorityThreadsMakeProgress(t *testing.T) {
	sys := ksys.New(kernel.DefaultConfig())

	var mu sync.Mutex
	var order []string
	done := make(chan string, 2)

	var a, b kernel.Thread
	require.Equal(t, kernelerr.OK, sys.InitThread(&a, "worker-a", func(any) {
		for i := 0; i < 3; i++ {
			mu.Lock()
			order = append(order, "A")
			mu.Unlock()
			sys.Yield(&a)
		}
		done <- "A"
	}, nil, 10, 5))
	require.Equal(t, kernelerr.OK, sys.InitThread(&b, "worker-b", func(any) {
		for i := 0; i < 3; i++ {
			mu.Lock()
			order = append(order, "B")
			mu.Unlock()
			sys.Yield(&b)
		}
		done <- "B"
	}, nil, 10, 5))

	require.Equal(t, kernelerr.OK, sys.Startup(&a))
	require.Equal(t, kernelerr.OK, sys.Startup(&b))

	<-done
	<-done

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, 6)
	var countA, countB int
	for _, name := range order {
		if name == "A" {
			countA++
		} else {
			countB++
		}
	}
	require.Equal(t, 3, countA)
	require.Equal(t, 3, countB)
}

func TestSemaphoreTakeBlocksUntilRelease(t *testing.T) {
	sys := ksys.New(kernel.DefaultConfig())
	var sem kernel.Semaphore
	require.Equal(t, kernelerr.OK, sys.InitSemaphore(&sem, "sem0", 0, kernel.WaitFIFO))

	gotIt := make(chan struct{})
	var waiter kernel.Thread
	require.Equal(t, kernelerr.OK, sys.InitThread(&waiter, "waiter", func(any) {
		require.Equal(t, kernelerr.OK, sys.Take(&sem, &waiter, -1))
		close(gotIt)
	}, nil, 10, 5))
	require.Equal(t, kernelerr.OK, sys.Startup(&waiter))

	select {
	case <-gotIt:
		t.Fatal("waiter should still be blocked before Release")
	default:
	}

	require.Equal(t, kernelerr.OK, sys.Release(&sem))
	<-gotIt
}

func TestSemaphoreTimeoutLeavesValueSkewed(t *testing.T) {
	sys := ksys.New(kernel.DefaultConfig())
	var sem kernel.Semaphore
	require.Equal(t, kernelerr.OK, sys.InitSemaphore(&sem, "sem-timeout", 0, kernel.WaitFIFO))

	timedOut := make(chan kernelerr.Error, 1)
	var waiter kernel.Thread
	require.Equal(t, kernelerr.OK, sys.InitThread(&waiter, "waiter-timeout", func(any) {
		timedOut <- sys.Take(&sem, &waiter, 2)
	}, nil, 10, 5))
	require.Equal(t, kernelerr.OK, sys.Startup(&waiter))

	require.Eventually(t, func() bool { return sem.Value() == -1 }, time.Second, time.Millisecond,
		"Take decrements before suspending, per rt_sem_take")

	sys.RunTicks(3)
	require.Equal(t, kernelerr.TIMEOUT, <-timedOut)
	require.Equal(t, int32(-1), sem.Value(), "a timed-out Take does not restore the count it sampled")
}

func TestSemaphoreTryTakeNonBlocking(t *testing.T) {
	sys := ksys.New(kernel.DefaultConfig())
	var sem kernel.Semaphore
	require.Equal(t, kernelerr.OK, sys.InitSemaphore(&sem, "sem1", 1, kernel.WaitFIFO))

	require.Equal(t, kernelerr.OK, sys.TryTake(&sem))
	require.Equal(t, kernelerr.TIMEOUT, sys.TryTake(&sem))
	require.Equal(t, int32(0), sem.Value())
}

func TestMutexPriorityInheritanceBoostsAndRestoresOwner(t *testing.T) {
	sys := ksys.New(kernel.DefaultConfig())
	var mtx kernel.Mutex
	require.Equal(t, kernelerr.OK, sys.InitMutex(&mtx, "mtx0"))

	ownerHasLock := make(chan struct{})
	releaseOwner := make(chan struct{})
	ownerDone := make(chan struct{})

	var owner kernel.Thread
	require.Equal(t, kernelerr.OK, sys.InitThread(&owner, "owner", func(any) {
		require.Equal(t, kernelerr.OK, sys.LockMutex(&mtx, &owner, -1))
		close(ownerHasLock)
		<-releaseOwner
		require.Equal(t, kernelerr.OK, sys.UnlockMutex(&mtx, &owner))
		close(ownerDone)
	}, nil, 20, 5))
	require.Equal(t, kernelerr.OK, sys.Startup(&owner))
	<-ownerHasLock
	require.Equal(t, uint8(20), owner.Priority())

	waiterDone := make(chan struct{})
	var waiter kernel.Thread
	require.Equal(t, kernelerr.OK, sys.InitThread(&waiter, "waiter", func(any) {
		require.Equal(t, kernelerr.OK, sys.LockMutex(&mtx, &waiter, -1))
		require.Equal(t, kernelerr.OK, sys.UnlockMutex(&mtx, &waiter))
		close(waiterDone)
	}, nil, 3, 5))
	require.Equal(t, kernelerr.OK, sys.Startup(&waiter))

	require.Eventually(t, func() bool { return owner.Priority() == 3 }, time.Second, time.Millisecond,
		"owner priority should be boosted to the waiter's once it blocks")

	close(releaseOwner)
	<-ownerDone
	<-waiterDone
	require.Equal(t, uint8(20), owner.Priority())
}

func TestMailboxFullAndEmptyGateSendAndRecv(t *testing.T) {
	sys := ksys.New(kernel.DefaultConfig())
	var mb kernel.Mailbox
	require.Equal(t, kernelerr.OK, sys.InitMailbox(&mb, "mb0", 1, kernel.WaitFIFO))

	require.Equal(t, kernelerr.OK, sys.SendMailbox(&mb, 1))
	require.Equal(t, kernelerr.FULL, sys.SendMailbox(&mb, 2))

	v, err := sys.RecvMailbox(&mb, nil, 0)
	require.Equal(t, kernelerr.OK, err)
	require.Equal(t, 1, v)

	_, err = sys.RecvMailbox(&mb, nil, 0)
	require.Equal(t, kernelerr.EMPTY, err)
}

func TestMailboxRecvBlocksUntilSend(t *testing.T) {
	sys := ksys.New(kernel.DefaultConfig())
	var mb kernel.Mailbox
	require.Equal(t, kernelerr.OK, sys.InitMailbox(&mb, "mb1", 1, kernel.WaitFIFO))

	got := make(chan any, 1)
	var recv kernel.Thread
	require.Equal(t, kernelerr.OK, sys.InitThread(&recv, "recv", func(any) {
		v, err := sys.RecvMailbox(&mb, &recv, -1)
		require.Equal(t, kernelerr.OK, err)
		got <- v
	}, nil, 10, 5))
	require.Equal(t, kernelerr.OK, sys.Startup(&recv))

	select {
	case <-got:
		t.Fatal("recv should still be blocked on an empty mailbox")
	default:
	}

	require.Equal(t, kernelerr.OK, sys.SendMailbox(&mb, 7))
	require.Equal(t, 7, <-got)
}

func TestObjectDestroyWakesWaitersWithError(t *testing.T) {
	sys := ksys.New(kernel.DefaultConfig())
	var sem kernel.Semaphore
	require.Equal(t, kernelerr.OK, sys.InitSemaphore(&sem, "sem-destroy", 0, kernel.WaitFIFO))

	result := make(chan kernelerr.Error, 1)
	var waiter kernel.Thread
	require.Equal(t, kernelerr.OK, sys.InitThread(&waiter, "waiter-destroy", func(any) {
		result <- sys.Take(&sem, &waiter, -1)
	}, nil, 10, 5))
	require.Equal(t, kernelerr.OK, sys.Startup(&waiter))

	require.Eventually(t, func() bool { return waiter.State() == kernel.StateSuspend }, time.Second, time.Millisecond,
		"waiter must actually be parked on the semaphore before it is destroyed")

	require.Equal(t, kernelerr.OK, sys.DetachSemaphore(&sem))
	require.Equal(t, kernelerr.ERROR, <-result)
}
