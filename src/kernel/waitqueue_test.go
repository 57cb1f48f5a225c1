package kernel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWaitQueueFIFOAppendsInArrivalOrder(t *testing.T) {
	q := newWaitQueue(WaitFIFO)
	a, b, c := &Thread{priority: 5}, &Thread{priority: 1}, &Thread{priority: 9}
	q.insert(a)
	q.insert(b)
	q.insert(c)
	require.Equal(t, []*Thread{a, b, c}, q.items)
}

func TestWaitQueuePriorityOrdersByPriorityThenArrival(t *testing.T) {
	q := newWaitQueue(WaitPriority)
	low, high, mid, mid2 := &Thread{priority: 10}, &Thread{priority: 1}, &Thread{priority: 5}, &Thread{priority: 5}
	q.insert(low)
	q.insert(high)
	q.insert(mid)
	q.insert(mid2)
	require.Equal(t, []*Thread{high, mid, mid2, low}, q.items)
}

func TestWaitQueueRemoveUnlinksOutOfOrder(t *testing.T) {
	q := newWaitQueue(WaitFIFO)
	a, b, c := &Thread{}, &Thread{}, &Thread{}
	q.insert(a)
	q.insert(b)
	q.insert(c)

	require.True(t, q.remove(b))
	require.Equal(t, []*Thread{a, c}, q.items)
	require.False(t, b.linked())
	require.False(t, q.remove(b))
}

func TestWaitQueuePopFrontDrainsHead(t *testing.T) {
	q := newWaitQueue(WaitFIFO)
	a, b := &Thread{}, &Thread{}
	q.insert(a)
	q.insert(b)

	require.Same(t, a, q.popFront())
	require.Same(t, b, q.popFront())
	require.Nil(t, q.popFront())
}

func TestWaitQueueDrainEmptiesAndUnlinksAll(t *testing.T) {
	q := newWaitQueue(WaitPriority)
	a, b := &Thread{priority: 3}, &Thread{priority: 1}
	q.insert(a)
	q.insert(b)

	all := q.drain()
	require.ElementsMatch(t, []*Thread{a, b}, all)
	require.True(t, q.empty())
	require.False(t, a.linked())
	require.False(t, b.linked())
}

func TestListNodePanicsOnDoubleLink(t *testing.T) {
	th := &Thread{}
	th.link(inWaitQueue)
	require.Panics(t, func() { th.link(inReadyTable) })
}

func TestListNodePanicsOnWrongUnlink(t *testing.T) {
	th := &Thread{}
	th.link(inWaitQueue)
	require.Panics(t, func() { th.unlink(inReadyTable) })
}
