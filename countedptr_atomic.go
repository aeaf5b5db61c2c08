package sharedptr

import (
	"sync/atomic"
)

// AtomicCountedPtr is the 64-bit atomic over a CountedPtr word. Fetch
// arithmetic touches only the counter lane because the counter sits in
// the high 16 bits.
type AtomicCountedPtr struct {
	word uint64
}

func (p *AtomicCountedPtr) IsLockFree() bool {
	return true
}

func (p *AtomicCountedPtr) Load() CountedPtr {
	return CountedPtr(atomic.LoadUint64(&p.word))
}

func (p *AtomicCountedPtr) Store(desired CountedPtr) {
	atomic.StoreUint64(&p.word, desired.Word())
}

func (p *AtomicCountedPtr) Swap(desired CountedPtr) CountedPtr {
	return CountedPtr(atomic.SwapUint64(&p.word, desired.Word()))
}

// CompareAndSwap attempts the full-word CAS. On failure expected is
// refreshed with a current load.
func (p *AtomicCountedPtr) CompareAndSwap(expected *CountedPtr, desired CountedPtr) bool {
	if atomic.CompareAndSwapUint64(&p.word, expected.Word(), desired.Word()) {
		return true
	}
	*expected = p.Load()
	return false
}

// FetchAdd adds arg to the counter lane and returns the pre-add value.
// The pointer lane is untouched.
func (p *AtomicCountedPtr) FetchAdd(arg int16) CountedPtr {
	delta := makeCtrWord(arg)
	return CountedPtr(atomic.AddUint64(&p.word, delta) - delta)
}

func (p *AtomicCountedPtr) FetchSub(arg int16) CountedPtr {
	return p.FetchAdd(-arg)
}

// Inc returns the new counter value.
func (p *AtomicCountedPtr) Inc() int16 {
	return p.FetchAdd(1).Ctr() + 1
}

func (p *AtomicCountedPtr) Dec() int16 {
	return p.FetchSub(1).Ctr() - 1
}
