package sharedptr

import (
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPairedCounterArithmetic(t *testing.T) {
	a := NewPairedCounter(3, 7)
	b := NewPairedCounter(-2, 5)

	assert.Equal(t, a, a.Add(b).Sub(b))
	assert.Equal(t, a.Add(b), b.Add(a))
	assert.Equal(t, NewPairedCounter(1, 12), a.Add(b))

	assert.Equal(t, int32(3), a.Cnt1())
	assert.Equal(t, uint32(7), a.Cnt2())
	assert.Equal(t, NewPairedCounter(9, 7), a.SetCnt1(9))
	assert.Equal(t, NewPairedCounter(3, 9), a.SetCnt2(9))
}

func TestPairedCounterWraparound(t *testing.T) {
	a := NewPairedCounter(math.MaxInt32, ^uint32(0))
	sum := a.Add(NewPairedCounter(1, 1))
	assert.Equal(t, NewPairedCounter(math.MinInt32, 0), sum)

	// lanes stay independent: the cnt2 carry must not leak into cnt1
	b := NewPairedCounter(0, ^uint32(0)).Add(NewPairedCounter(0, 1))
	assert.Equal(t, int32(0), b.Cnt1())
	assert.Equal(t, uint32(0), b.Cnt2())
}

func TestPairedCounterOrder(t *testing.T) {
	a := NewPairedCounter(1, 1)

	// strict and irreflexive
	assert.False(t, a.Gt(a))
	assert.False(t, a.Lt(a))
	assert.True(t, a.Ge(a))
	assert.True(t, a.Le(a))

	assert.True(t, NewPairedCounter(2, 2).Gt(a))
	assert.True(t, a.Lt(NewPairedCounter(2, 2)))

	// not total: mixed components compare no way at all
	c := NewPairedCounter(1, 0)
	d := NewPairedCounter(0, 1)
	assert.False(t, c.Gt(d))
	assert.False(t, c.Lt(d))
	assert.False(t, c == d)
}

func TestAtomicPairedCounterFetch(t *testing.T) {
	var counter AtomicPairedCounter

	old := counter.FetchAdd(NewPairedCounter(2, 3))
	assert.Equal(t, NewPairedCounter(0, 0), old)
	assert.Equal(t, NewPairedCounter(2, 3), counter.Load())

	old = counter.FetchSub(NewPairedCounter(1, 1))
	assert.Equal(t, NewPairedCounter(2, 3), old)
	assert.Equal(t, NewPairedCounter(1, 2), counter.Load())

	old = counter.Swap(NewPairedCounter(0, 9))
	assert.Equal(t, NewPairedCounter(1, 2), old)
	assert.Equal(t, NewPairedCounter(0, 9), counter.Load())
}

func TestAtomicPairedCounterTransfer(t *testing.T) {
	var counter AtomicPairedCounter
	counter.Store(NewPairedCounter(10, 1))

	old := counter.FetchTransfer(3)
	assert.Equal(t, NewPairedCounter(10, 1), old)
	assert.Equal(t, NewPairedCounter(7, 4), counter.Load())

	old = counter.FetchTransfer(-4)
	assert.Equal(t, NewPairedCounter(7, 4), old)
	assert.Equal(t, NewPairedCounter(11, 0), counter.Load())
}

func TestAtomicPairedCounterTransferAtomicity(t *testing.T) {
	var (
		counter AtomicPairedCounter
		done    uint32
		wg      sync.WaitGroup
	)
	const total = int32(1 << 16)
	counter.Store(NewPairedCounter(total, 0))

	wg.Add(4)
	for i := 0; i < 4; i++ {
		go func() {
			defer wg.Done()
			for n := int32(0); n < total/4; n++ {
				counter.FetchTransfer(1)
			}
		}()
	}

	// every observation must sit on the transfer line cnt1+cnt2 == total
	observerDone := make(chan struct{})
	var offLine int64
	go func() {
		defer close(observerDone)
		for atomic.LoadUint32(&done) == 0 {
			cur := counter.Load()
			if cur.Cnt1()+int32(cur.Cnt2()) != total {
				atomic.AddInt64(&offLine, 1)
			}
		}
	}()

	wg.Wait()
	atomic.StoreUint32(&done, 1)
	<-observerDone
	assert.Equal(t, int64(0), atomic.LoadInt64(&offLine))
	assert.Equal(t, NewPairedCounter(0, uint32(total)), counter.Load())
}

func TestAtomicPairedCounterComponentCAS(t *testing.T) {
	var counter AtomicPairedCounter
	counter.Store(NewPairedCounter(5, 8))

	c1 := int32(4)
	assert.False(t, counter.CompareAndSwapWeakC1(&c1, 0))
	assert.Equal(t, int32(5), c1)
	assert.True(t, counter.CompareAndSwapWeakC1(&c1, 6))
	assert.Equal(t, NewPairedCounter(6, 8), counter.Load())

	c2 := uint32(8)
	assert.True(t, counter.CompareAndSwapStrongC2(&c2, 9))
	assert.Equal(t, NewPairedCounter(6, 9), counter.Load())

	c2 = 1
	assert.False(t, counter.CompareAndSwapStrongC2(&c2, 0))
	assert.Equal(t, uint32(9), c2)

	c1 = 6
	assert.True(t, counter.CompareAndSwapStrongC1(&c1, -1))
	assert.Equal(t, NewPairedCounter(-1, 9), counter.Load())
}
