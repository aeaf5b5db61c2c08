package sharedptr

import (
	"sync/atomic"
)

// AtomicPairedCounter wraps a PairedCounter in a single 64-bit atomic.
// Fetch arithmetic operates on the whole word, so lane additions stay
// inside their 32-bit lane as long as cnt2 does not overflow.
type AtomicPairedCounter struct {
	word uint64
}

func (p *AtomicPairedCounter) IsLockFree() bool {
	return true
}

func (p *AtomicPairedCounter) Load() PairedCounter {
	return PairedCounter(atomic.LoadUint64(&p.word))
}

func (p *AtomicPairedCounter) Store(desired PairedCounter) {
	atomic.StoreUint64(&p.word, desired.Word())
}

func (p *AtomicPairedCounter) Swap(desired PairedCounter) PairedCounter {
	return PairedCounter(atomic.SwapUint64(&p.word, desired.Word()))
}

// CompareAndSwap attempts the full-word CAS. On failure expected is
// refreshed with a current load.
func (p *AtomicPairedCounter) CompareAndSwap(expected *PairedCounter, desired PairedCounter) bool {
	if atomic.CompareAndSwapUint64(&p.word, expected.Word(), desired.Word()) {
		return true
	}
	*expected = p.Load()
	return false
}

// CompareAndSwapWeakC1 CASes only the cnt1 component. The observed
// cnt1 is published in expected when the component differs.
func (p *AtomicPairedCounter) CompareAndSwapWeakC1(expected *int32, desired int32) bool {
	cur := p.Load()
	if cur.Cnt1() != *expected {
		*expected = cur.Cnt1()
		return false
	}

	for {
		if p.CompareAndSwap(&cur, cur.SetCnt1(desired)) {
			return true
		}
		if cur.Cnt1() != *expected {
			*expected = cur.Cnt1()
			return false
		}
	}
}

func (p *AtomicPairedCounter) CompareAndSwapWeakC2(expected *uint32, desired uint32) bool {
	cur := p.Load()
	if cur.Cnt2() != *expected {
		*expected = cur.Cnt2()
		return false
	}

	for {
		if p.CompareAndSwap(&cur, cur.SetCnt2(desired)) {
			return true
		}
		if cur.Cnt2() != *expected {
			*expected = cur.Cnt2()
			return false
		}
	}
}

// CompareAndSwapStrongC1 retries while only the other component moved,
// so it fails solely because cnt1 itself changed.
func (p *AtomicPairedCounter) CompareAndSwapStrongC1(expected *int32, desired int32) bool {
	cur := p.Load()
	for {
		if cur.Cnt1() != *expected {
			*expected = cur.Cnt1()
			return false
		}
		if p.CompareAndSwap(&cur, cur.SetCnt1(desired)) {
			return true
		}
	}
}

func (p *AtomicPairedCounter) CompareAndSwapStrongC2(expected *uint32, desired uint32) bool {
	cur := p.Load()
	for {
		if cur.Cnt2() != *expected {
			*expected = cur.Cnt2()
			return false
		}
		if p.CompareAndSwap(&cur, cur.SetCnt2(desired)) {
			return true
		}
	}
}

// FetchAdd returns the pre-add value.
func (p *AtomicPairedCounter) FetchAdd(arg PairedCounter) PairedCounter {
	return PairedCounter(atomic.AddUint64(&p.word, arg.Word()) - arg.Word())
}

// FetchSub returns the pre-sub value.
func (p *AtomicPairedCounter) FetchSub(arg PairedCounter) PairedCounter {
	return PairedCounter(atomic.AddUint64(&p.word, -arg.Word()) + arg.Word())
}

// FetchTransfer atomically moves arg from cnt1 to cnt2: the new pair is
// { cnt1-arg, cnt2+arg }. Returns the pre-transfer value. A negative
// arg goes through FetchSub to cope with underflow in the cnt2 lane.
func (p *AtomicPairedCounter) FetchTransfer(arg int32) PairedCounter {
	if arg >= 0 {
		return p.FetchAdd(NewPairedCounter(-arg, uint32(arg)))
	}
	return p.FetchSub(NewPairedCounter(arg, uint32(-arg)))
}
