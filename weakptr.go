package sharedptr

// WeakPtr is the non-owning handle: it keeps the control block alive
// but not the object, and can be promoted back to a SharedPtr while
// owners remain. Like SharedPtr, references are explicit: Clone takes
// one, Release returns one.
type WeakPtr[T any] struct {
	cp CountedPtr
}

// MakeWeak takes a weak reference on r's block.
func MakeWeak[T any](r SharedPtr[T]) WeakPtr[T] {
	hdr := r.header()
	if hdr == nil {
		return WeakPtr[T]{}
	}
	hdr.acquireWeak()
	return WeakPtr[T]{cp: MakeCountedPtr(0, r.cp.UPtr())}
}

func (p WeakPtr[T]) header() *header {
	uptr := p.cp.UPtr()
	if uptr == 0 {
		return nil
	}
	return headerUPtr(uptr).Ptr()
}

func (p WeakPtr[T]) Clone() WeakPtr[T] {
	hdr := p.header()
	if hdr == nil {
		return WeakPtr[T]{}
	}
	hdr.acquireWeak()
	return WeakPtr[T]{cp: MakeCountedPtr(0, p.cp.UPtr())}
}

func (p *WeakPtr[T]) Release() {
	if hdr := p.header(); hdr != nil {
		hdr.releaseWeak(NewPairedCounter(int32(p.cp.Ctr()), 1))
	}
	p.cp = 0
}

func (p *WeakPtr[T]) Reset() {
	p.Release()
}

func (p *WeakPtr[T]) Swap(r *WeakPtr[T]) {
	p.cp, r.cp = r.cp, p.cp
}

func (p WeakPtr[T]) UseCount() uint32 {
	hdr := p.header()
	if hdr == nil {
		return 0
	}
	return hdr.useCount()
}

func (p WeakPtr[T]) WeakCount() uint32 {
	hdr := p.header()
	if hdr == nil {
		return 0
	}
	return hdr.weakCount()
}

func (p WeakPtr[T]) Expired() bool {
	return p.UseCount() == 0
}

// Lock promotes to an owning handle, or returns the empty handle if
// the object is already gone. The promotion is atomic against the
// release of the last owner.
func (p WeakPtr[T]) Lock() SharedPtr[T] {
	hdr := p.header()
	if hdr == nil || !hdr.weakLock() {
		return SharedPtr[T]{}
	}
	return SharedPtr[T]{cp: MakeCountedPtr(0, p.cp.UPtr())}
}

// OwnerBefore orders by control block identity, giving weak handles a
// strict weak order usable as a map key discipline.
func (p WeakPtr[T]) OwnerBefore(r WeakPtr[T]) bool {
	return p.cp.UPtr() < r.cp.UPtr()
}

func (p WeakPtr[T]) OwnerBeforeShared(r SharedPtr[T]) bool {
	return p.cp.UPtr() < r.cp.UPtr()
}
