package sharedptr

import (
	"unsafe"
)

// Shareable is an in-place control block that user code also holds as
// a plain object, so the block may outlive its last handle. Object and
// block destruction therefore run through the split state machine in
// header rather than back to back.
//
// The creating call owns one reference and must Release it.
type Shareable[T any] struct {
	hdr    header
	object T
}

func NewShareable[T any](v T) *Shareable[T] {
	p := &Shareable[T]{object: v}
	p.hdr.kind = headerKindShareable
	p.hdr.object = unsafe.Pointer(&p.object)
	p.hdr.objectSize = unsafe.Sizeof(p.object)
	p.hdr.dtor = scrubObject[T]
	p.hdr.strong.Store(NewPairedCounter(0, 1))
	p.hdr.weak.Store(headerImplicitWeak)
	registerHeader(p.hdr.uptr(), p)
	return p
}

func (p *Shareable[T]) Ptr() *T {
	return &p.object
}

// Shared takes a new owning reference over the block.
func (p *Shareable[T]) Shared() SharedPtr[T] {
	p.hdr.acquire(NewPairedCounter(0, 1))
	return SharedPtr[T]{cp: MakeCountedPtr(0, p.hdr.uptr())}
}

// Release returns the creator's reference.
func (p *Shareable[T]) Release() {
	p.hdr.release(NewPairedCounter(0, 1))
}

func (p *Shareable[T]) UseCount() uint32 {
	return p.hdr.useCount()
}
