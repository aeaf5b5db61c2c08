package sharedptr

import (
	"unsafe"
)

// SharedPtr is the non-atomic owning handle over a control block. A
// non-nil handle contributes exactly one owning reference; Go has no
// copy or destruction hooks, so references are taken with Clone and
// returned with Release, and every handle must be released exactly
// once. The packed local counter is zero except on handles freshly
// extracted from an atomic cell and on the expected handle of a
// compare-and-swap, which carries the compensation for its enters; the
// Release of such a handle settles that counter together with the
// owning reference.
type SharedPtr[T any] struct {
	cp CountedPtr
}

// inplaceBlock lays the object immediately behind its control block in
// one allocation. The header must stay the first field.
type inplaceBlock[T any] struct {
	hdr    header
	object T
}

// scrubObject is the in-place destructor: overwriting the storage with
// the zero value drops any references the object held and leaves a
// detectable canary behind for use-after-free checks.
func scrubObject[T any](obj unsafe.Pointer) {
	var zero T
	*(*T)(obj) = zero
}

// MakeShared constructs the object in place, control block and object
// in a single Go allocation.
func MakeShared[T any](v T) SharedPtr[T] {
	blk := &inplaceBlock[T]{object: v}
	blk.hdr.kind = headerKindInplace
	blk.hdr.object = unsafe.Pointer(&blk.object)
	blk.hdr.objectSize = unsafe.Sizeof(blk.object)
	blk.hdr.dtor = scrubObject[T]
	blk.hdr.strong.Store(NewPairedCounter(0, 1))
	blk.hdr.weak.Store(headerImplicitWeak)
	registerHeader(blk.hdr.uptr(), blk)
	return SharedPtr[T]{cp: MakeCountedPtr(0, blk.hdr.uptr())}
}

// AllocateShared is MakeShared with the block carved from alloc
// instead of the Go heap. The object type must not contain Go heap
// pointers: the collector never scans arena memory. The only failure
// is allocation failure.
func AllocateShared[T any](alloc Allocator, v T) (SharedPtr[T], error) {
	size := unsafe.Sizeof(inplaceBlock[T]{})
	mem, err := alloc.Alloc(size)
	if err != nil {
		return SharedPtr[T]{}, err
	}

	blk := (*inplaceBlock[T])(mem)
	*blk = inplaceBlock[T]{object: v}
	blk.hdr.kind = headerKindInplace
	blk.hdr.object = unsafe.Pointer(&blk.object)
	blk.hdr.objectSize = unsafe.Sizeof(blk.object)
	blk.hdr.blockSize = size
	blk.hdr.dtor = scrubObject[T]
	blk.hdr.alloc = alloc
	blk.hdr.strong.Store(NewPairedCounter(0, 1))
	blk.hdr.weak.Store(headerImplicitWeak)
	return SharedPtr[T]{cp: MakeCountedPtr(0, blk.hdr.uptr())}, nil
}

// NewShared adopts an externally-owned object. A nil object yields the
// empty handle.
func NewShared[T any](obj *T) SharedPtr[T] {
	if obj == nil {
		return SharedPtr[T]{}
	}
	hdr := newExternHeader(unsafe.Pointer(obj))
	return SharedPtr[T]{cp: MakeCountedPtr(0, hdr.uptr())}
}

// NewSharedWithDeleter adopts obj and runs deleter when the last owner
// releases.
func NewSharedWithDeleter[T any](obj *T, deleter func(*T)) SharedPtr[T] {
	if obj == nil {
		return SharedPtr[T]{}
	}
	hdr := newExternHeaderWithDeleter(unsafe.Pointer(obj), func(o unsafe.Pointer) {
		deleter((*T)(o))
	})
	return SharedPtr[T]{cp: MakeCountedPtr(0, hdr.uptr())}
}

// NewSharedWithAllocator adopts obj whose storage belongs to alloc; the
// object is scrubbed and its storage returned to alloc on the last
// release.
func NewSharedWithAllocator[T any](alloc Allocator, obj *T) SharedPtr[T] {
	if obj == nil {
		return SharedPtr[T]{}
	}
	hdr := newExternHeaderWithAllocator(alloc, unsafe.Pointer(obj),
		unsafe.Sizeof(*obj), scrubObject[T])
	return SharedPtr[T]{cp: MakeCountedPtr(0, hdr.uptr())}
}

func (p SharedPtr[T]) header() *header {
	uptr := p.cp.UPtr()
	if uptr == 0 {
		return nil
	}
	return headerUPtr(uptr).Ptr()
}

// Clone takes one more owning reference and returns an independent
// handle for it.
func (p SharedPtr[T]) Clone() SharedPtr[T] {
	hdr := p.header()
	if hdr == nil {
		return SharedPtr[T]{}
	}
	hdr.acquire(NewPairedCounter(0, 1))
	return SharedPtr[T]{cp: MakeCountedPtr(0, p.cp.UPtr())}
}

// Release returns the handle's reference, along with any local counter
// it carried out of an atomic cell, and empties the handle.
func (p *SharedPtr[T]) Release() {
	if hdr := p.header(); hdr != nil {
		hdr.release(NewPairedCounter(int32(p.cp.Ctr()), 1))
	}
	p.cp = 0
}

func (p *SharedPtr[T]) Reset() {
	p.Release()
}

// ResetPtr releases the current reference and adopts obj.
func (p *SharedPtr[T]) ResetPtr(obj *T) {
	p.Release()
	*p = NewShared(obj)
}

func (p *SharedPtr[T]) Swap(r *SharedPtr[T]) {
	p.cp, r.cp = r.cp, p.cp
}

func (p SharedPtr[T]) Get() *T {
	hdr := p.header()
	if hdr == nil {
		return nil
	}
	return (*T)(hdr.object)
}

// Deref is the counterpart of pointer dereference: calling it on an
// empty handle faults like a nil pointer would.
func (p SharedPtr[T]) Deref() T {
	return *p.Get()
}

func (p SharedPtr[T]) UseCount() uint32 {
	hdr := p.header()
	if hdr == nil {
		return 0
	}
	return hdr.useCount()
}

func (p SharedPtr[T]) WeakCount() uint32 {
	hdr := p.header()
	if hdr == nil {
		return 0
	}
	return hdr.weakCount()
}

func (p SharedPtr[T]) Unique() bool {
	return p.UseCount() == 1
}

func (p SharedPtr[T]) IsNil() bool {
	return p.cp.UPtr() == 0
}

// Equal compares by object identity, like raw pointer equality.
func (p SharedPtr[T]) Equal(r SharedPtr[T]) bool {
	return p.Get() == r.Get()
}
