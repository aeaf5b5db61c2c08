package sharedptr

// AtomicSharedPtr is a shared-memory cell holding a counted pointer to
// a control block. Readers take their reference by bumping the cell's
// own 16-bit counter (one fetch-add on the cell), not the block's
// counter, so loads of unrelated cells pointing at one block never
// contend on the block. The counter represents observer credits the
// block owes the cell: a writer that swaps the pointer out carries the
// accumulated counter to the old block in its settlement, and a
// straggling reader that finds the pointer changed on its way out
// returns its credit to the block directly.
//
// The zero value is the empty cell. A cell that goes out of use must
// be Reset to settle the reference it holds. The struct is padded to a
// cache line; keep cells at the start of their allocation to avoid
// false sharing.
type AtomicSharedPtr[T any] struct {
	cptr AtomicCountedPtr
	_    [CacheCoherencyLineSize - 8]byte
}

// NewAtomicSharedPtr builds a cell holding desired's reference; the
// caller hands the reference over and must not Release it.
func NewAtomicSharedPtr[T any](desired SharedPtr[T]) *AtomicSharedPtr[T] {
	p := new(AtomicSharedPtr[T])
	p.cptr.Store(desired.cp)
	return p
}

func (p *AtomicSharedPtr[T]) IsLockFree() bool {
	return p.cptr.IsLockFree()
}

// enter takes one observer slot in the cell and returns the observed
// counted pointer including the caller's share. Above the threshold
// the caller opportunistically normalizes: the cell counter collapses
// to zero and the block absorbs the difference through unhold.
func (p *AtomicSharedPtr[T]) enter() CountedPtr {
	cur := p.cptr.FetchAdd(1)
	cur = cur.WithCtr(cur.Ctr() + 1)

	if cur.Ctr() >= normalizeThreshold && cur.UPtr() != 0 {
		taken := cur.Ctr()
		if p.tryLeave(cur, taken) {
			cur = cur.WithCtr(0)
			headerUPtr(cur.UPtr()).Ptr().unhold(taken)
		}
	}

	return cur
}

// leave gives the observer slot back. If a writer replaced the pointer
// since enter, the writer's settlement already debited this slot from
// the old block, so the unit is repaid straight to the block: a
// release of cnt1 -1 credits it back and performs the zero check in
// case this straggler is the last one out.
func (p *AtomicSharedPtr[T]) leave(cur CountedPtr) {
	for {
		desired := MakeCountedPtr(cur.Ctr()-1, cur.UPtr())
		if p.cptr.CompareAndSwap(&cur, desired) {
			return
		}
		if cur.UPtr() != desired.UPtr() {
			releaseHeaderUPtr(desired.UPtr(), NewPairedCounter(-1, 0))
			return
		}
	}
}

func (p *AtomicSharedPtr[T]) tryLeave(cur CountedPtr, count int16) bool {
	desired := MakeCountedPtr(cur.Ctr()-count, cur.UPtr())
	return p.cptr.CompareAndSwap(&cur, desired)
}

func (p *AtomicSharedPtr[T]) reenter(old CountedPtr) CountedPtr {
	cur := p.cptr.Load()
	if cur.UPtr() == old.UPtr() {
		return cur
	}

	releaseHeaderUPtr(old.UPtr(), NewPairedCounter(-1, 0))
	return p.enter()
}

// Load returns an owning handle over the cell's current block. The
// acquire adds one owning reference for the handle and one observer
// credit pre-paying for the cell slot the caller keeps occupied.
func (p *AtomicSharedPtr[T]) Load() SharedPtr[T] {
	cur := p.enter()
	if cur.UPtr() == 0 {
		return SharedPtr[T]{}
	}

	headerUPtr(cur.UPtr()).Ptr().acquire(NewPairedCounter(1, 1))
	return SharedPtr[T]{cp: MakeCountedPtr(0, cur.UPtr())}
}

// Store installs desired's reference in the cell; the caller hands the
// reference over and must not Release desired afterwards. The old
// pointer leaves with the cell's accumulated counter, which settles
// against the old block.
func (p *AtomicSharedPtr[T]) Store(desired SharedPtr[T]) {
	old := p.cptr.Swap(desired.cp)
	releaseHeaderUPtr(old.UPtr(), NewPairedCounter(int32(old.Ctr()), 1))
}

// StoreShared is Store with the caller keeping its reference.
func (p *AtomicSharedPtr[T]) StoreShared(desired SharedPtr[T]) {
	p.Store(desired.Clone())
}

// Swap installs desired's reference and returns the extracted handle;
// the returned handle carries the cell's counter and settles it on
// Release.
func (p *AtomicSharedPtr[T]) Swap(desired SharedPtr[T]) SharedPtr[T] {
	old := p.cptr.Swap(desired.cp)
	return SharedPtr[T]{cp: old}
}

// SwapShared is Swap with the caller keeping its reference.
func (p *AtomicSharedPtr[T]) SwapShared(desired SharedPtr[T]) SharedPtr[T] {
	return p.Swap(desired.Clone())
}

// Reset settles the cell's reference and empties it. The resting
// counter may be negative after ABA traffic; the settlement carries
// the sign through.
func (p *AtomicSharedPtr[T]) Reset() {
	old := p.cptr.Swap(0)
	releaseHeaderUPtr(old.UPtr(), NewPairedCounter(int32(old.Ctr()), 1))
}

// CompareAndSwapStrong replaces the cell with desired's block iff the
// cell still holds expected's block. desired stays owned by the
// caller; the cell takes its own reference. On failure expected is
// re-seated over the block actually observed and the call reports
// false — never spuriously.
//
// Every call enters the cell before its first CAS; no CAS is attempted
// without holding a cell slot. When the entered pointer is expected's
// block, the enter is compensated through expected's local counter and
// the CAS runs; after a CAS failure that changed the pointer the cell
// is entered again, and if the pointer is back at expected's block the
// new enter is compensated the same way and the CAS retried.
func (p *AtomicSharedPtr[T]) CompareAndSwapStrong(expected *SharedPtr[T], desired SharedPtr[T]) bool {
	desiredCP := MakeCountedPtr(0, desired.cp.UPtr())
	expectedPtr := expected.cp.UPtr()

	var exp CountedPtr
	needEnter := true
	acquiredDes := false

	for {
		if needEnter {
			exp = p.enter()
			if expectedPtr != exp.UPtr() {
				if acquiredDes {
					releaseHeaderUPtr(desiredCP.UPtr(), NewPairedCounter(0, 1))
				}
				if exp.UPtr() != 0 {
					headerUPtr(exp.UPtr()).Ptr().acquire(NewPairedCounter(1, 1))
				}
				expected.Release()
				expected.cp = MakeCountedPtr(0, exp.UPtr())
				return false
			}

			// compensate the enter through expected's local counter
			expected.cp = expected.cp.WithCtr(expected.cp.Ctr() - 1)

			// take the cell's reference on desired before the cas can
			// succeed
			if !acquiredDes {
				if desiredCP.UPtr() != 0 {
					headerUPtr(desiredCP.UPtr()).Ptr().acquire(NewPairedCounter(0, 1))
				}
				acquiredDes = true
			}
			needEnter = false
		}

		if p.cptr.CompareAndSwap(&exp, desiredCP) {
			releaseHeaderUPtr(expectedPtr, NewPairedCounter(int32(exp.Ctr()), 1))
			return true
		}
		if expectedPtr != exp.UPtr() {
			needEnter = true
		}
	}
}

// CompareAndSwapWeak has the strong contract on this platform: the
// underlying 64-bit CAS never fails spuriously.
func (p *AtomicSharedPtr[T]) CompareAndSwapWeak(expected *SharedPtr[T], desired SharedPtr[T]) bool {
	return p.CompareAndSwapStrong(expected, desired)
}

// CompareAndSwapStrongTake is CompareAndSwapStrong with move-in
// semantics for desired: on success the cell takes desired's reference
// and the caller must not Release it; on failure the caller keeps it.
func (p *AtomicSharedPtr[T]) CompareAndSwapStrongTake(expected *SharedPtr[T], desired SharedPtr[T]) bool {
	expectedPtr := expected.cp.UPtr()

	var exp CountedPtr
	needEnter := true

	for {
		if needEnter {
			exp = p.enter()
			if expectedPtr != exp.UPtr() {
				if exp.UPtr() != 0 {
					headerUPtr(exp.UPtr()).Ptr().acquire(NewPairedCounter(1, 1))
				}
				expected.Release()
				expected.cp = MakeCountedPtr(0, exp.UPtr())
				return false
			}

			expected.cp = expected.cp.WithCtr(expected.cp.Ctr() - 1)
			needEnter = false
		}

		if p.cptr.CompareAndSwap(&exp, desired.cp) {
			releaseHeaderUPtr(exp.UPtr(), NewPairedCounter(int32(exp.Ctr()), 1))
			return true
		}
		if expectedPtr != exp.UPtr() {
			needEnter = true
		}
	}
}

func (p *AtomicSharedPtr[T]) CompareAndSwapWeakTake(expected *SharedPtr[T], desired SharedPtr[T]) bool {
	return p.CompareAndSwapStrongTake(expected, desired)
}

// Wait blocks while the cell holds the same block as old. Wakeups are
// driven by NotifyOne and NotifyAll; the wait reevaluates through a
// fresh observation after every wake.
func (p *AtomicSharedPtr[T]) Wait(old SharedPtr[T]) {
	cur := p.enter()
	for {
		if cur.UPtr() != old.cp.UPtr() {
			p.leave(cur)
			return
		}
		waitWord(&p.cptr, cur.Word())
		cur = p.reenter(cur)
	}
}

func (p *AtomicSharedPtr[T]) NotifyOne() {
	notifyWord(&p.cptr)
}

func (p *AtomicSharedPtr[T]) NotifyAll() {
	notifyWord(&p.cptr)
}
