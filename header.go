package sharedptr

import (
	"sync/atomic"
	"unsafe"
)

// Allocator supplies raw storage for control blocks and objects placed
// outside the Go heap. The allocator must outlive every block carved
// from it. offheap.Arena satisfies this interface.
type Allocator interface {
	Alloc(size uintptr) (unsafe.Pointer, error)
	Free(ptr unsafe.Pointer, size uintptr)
}

// Control block variants. The dispatch for destroying the object and
// destroying the block is a closed set, so a kind tag replaces a
// vtable; a function or interface field would also hide heap pointers
// from the collector when the block lives in arena memory.
const (
	headerKindExtern = uint8(iota + 1)
	headerKindExternDeleter
	headerKindExternAllocator
	headerKindInplace
	headerKindShareable
)

// headerImplicitWeak is the weak credit the strong side holds as a
// whole, parked in cnt1 so it never shows up in weakCount.
var headerImplicitWeak = NewPairedCounter(1, 0)

type headerUPtr uintptr

func (u headerUPtr) Ptr() *header {
	return (*header)(unsafe.Pointer(u))
}

// header is the control block: one per object lifetime. strong packs
// the transient observer count (cnt1) next to the owning reference
// count (cnt2); weak counts weak handles in cnt2. The block survives
// until both pairs reach zero.
type header struct {
	strong AtomicPairedCounter
	weak   AtomicPairedCounter

	object     unsafe.Pointer
	objectSize uintptr
	blockSize  uintptr
	dtor       func(unsafe.Pointer)
	alloc      Allocator
	kind       uint8
	state      uint32
}

func (p *header) uptr() uintptr {
	return uintptr(unsafe.Pointer(p))
}

// acquire adds owning and/or observer credit in one step.
func (p *header) acquire(count PairedCounter) {
	p.strong.FetchAdd(count)
}

// hold registers count transient observer credits.
func (p *header) hold(count int16) {
	p.strong.FetchAdd(NewPairedCounter(int32(count), 0))
}

func (p *header) unhold(count int16) {
	p.strong.FetchSub(NewPairedCounter(int32(count), 0))
}

// release subtracts count from the strong pair. The caller that takes
// the pair to exactly zero destroys the object and then drops the
// implicit weak credit, which tears the block down once the weak
// handles drain. Routing header destruction through the implicit
// credit serializes it strictly after object destruction.
func (p *header) release(count PairedCounter) {
	old := p.strong.FetchSub(count)
	if old == count {
		p.destroyObject()
		p.releaseWeak(headerImplicitWeak)
	}
}

// weakLock bumps the use count only if it is still above zero. This is
// the promotion step of WeakPtr.Lock and must be atomic against the
// release that drops the last owner.
func (p *header) weakLock() bool {
	cur := p.strong.Load()
	for {
		if cur.Cnt2() == 0 {
			return false
		}
		if p.strong.CompareAndSwap(&cur, NewPairedCounter(cur.Cnt1(), cur.Cnt2()+1)) {
			return true
		}
	}
}

func (p *header) acquireWeak() {
	p.weak.FetchAdd(NewPairedCounter(0, 1))
}

// releaseWeak destroys the block when the pair reaches zero. The
// implicit credit sits in cnt1 so weakCount keeps reporting the handle
// count alone.
func (p *header) releaseWeak(count PairedCounter) {
	old := p.weak.FetchSub(count)
	if old == count {
		p.destroyHeader()
	}
}

func (p *header) useCount() uint32 {
	return p.strong.Load().Cnt2()
}

func (p *header) weakCount() uint32 {
	return p.weak.Load().Cnt2()
}

func (p *header) destroyObject() {
	if p.kind == headerKindShareable {
		p.shareableDestroyObject()
		return
	}

	obj := p.object
	if obj == nil {
		return
	}
	if p.dtor != nil {
		p.dtor(obj)
	}
	if p.kind == headerKindExternAllocator {
		p.alloc.Free(obj, p.objectSize)
	}
	p.object = nil
}

func (p *header) destroyHeader() {
	if p.kind == headerKindShareable {
		p.shareableDestroyHeader()
		return
	}

	if p.alloc != nil && p.kind == headerKindInplace {
		p.alloc.Free(unsafe.Pointer(p), p.blockSize)
		return
	}
	unregisterHeader(p.uptr())
}

// Shareable destruction states. Destroying the object and destroying
// the block may race when the block is user-visible, so the two steps
// hand off through this tiny state machine.
const (
	shareableDestroyingObject = uint32(1)
	shareableObjectDestroyed  = uint32(2)
	shareableDestroyHeader    = uint32(4)
)

func atomicOrUint32(addr *uint32, mask uint32) uint32 {
	for {
		old := atomic.LoadUint32(addr)
		if atomic.CompareAndSwapUint32(addr, old, old|mask) {
			return old
		}
	}
}

func (p *header) shareableDestroyObject() {
	old := atomicOrUint32(&p.state, shareableDestroyingObject)
	if old&(shareableDestroyingObject|shareableObjectDestroyed) != 0 {
		panic("sharedptr: shareable object destroyed twice")
	}

	if p.dtor != nil {
		p.dtor(p.object)
	}

	// flip DESTROYING_OBJECT -> OBJECT_DESTROYED, keeping any
	// DESTROY_HEADER bit a racing thread set meanwhile
	for {
		cur := atomic.LoadUint32(&p.state)
		next := cur&^shareableDestroyingObject | shareableObjectDestroyed
		if atomic.CompareAndSwapUint32(&p.state, cur, next) {
			old = cur
			break
		}
	}

	// a racing header destroyer bailed out while we ran the
	// destructor; finishing the block is now our burden
	if old&shareableDestroyHeader != 0 {
		p.shareableDestroyHeader()
	}
}

func (p *header) shareableDestroyHeader() {
	old := atomicOrUint32(&p.state, shareableDestroyHeader)

	// the object destroyer is still running and will come back for the
	// block once it sees our bit
	if old&shareableDestroyingObject != 0 {
		return
	}

	unregisterHeader(p.uptr())
}

func newExternHeader(obj unsafe.Pointer) *header {
	p := &header{
		kind:   headerKindExtern,
		object: obj,
	}
	p.strong.Store(NewPairedCounter(0, 1))
	p.weak.Store(headerImplicitWeak)
	registerHeader(p.uptr(), p)
	return p
}

func newExternHeaderWithDeleter(obj unsafe.Pointer, dtor func(unsafe.Pointer)) *header {
	p := &header{
		kind:   headerKindExternDeleter,
		object: obj,
		dtor:   dtor,
	}
	p.strong.Store(NewPairedCounter(0, 1))
	p.weak.Store(headerImplicitWeak)
	registerHeader(p.uptr(), p)
	return p
}

func newExternHeaderWithAllocator(alloc Allocator, obj unsafe.Pointer,
	objectSize uintptr, dtor func(unsafe.Pointer)) *header {
	p := &header{
		kind:       headerKindExternAllocator,
		object:     obj,
		objectSize: objectSize,
		dtor:       dtor,
		alloc:      alloc,
	}
	p.strong.Store(NewPairedCounter(0, 1))
	p.weak.Store(headerImplicitWeak)
	registerHeader(p.uptr(), p)
	return p
}

// releaseHeaderUPtr is the null-safe release over a packed address.
func releaseHeaderUPtr(uptr uintptr, count PairedCounter) {
	if uptr != 0 {
		headerUPtr(uptr).Ptr().release(count)
	}
}
