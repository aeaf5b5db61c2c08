package sharedptr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountedPtrPack(t *testing.T) {
	uptr := uintptr(0x7f00dead_bee0)

	cp := MakeCountedPtr(-3, uptr)
	assert.Equal(t, int16(-3), cp.Ctr())
	assert.Equal(t, uptr, cp.UPtr())

	cp = cp.WithCtr(12)
	assert.Equal(t, int16(12), cp.Ctr())
	assert.Equal(t, uptr, cp.UPtr())

	cp = cp.WithUPtr(0)
	assert.Equal(t, int16(12), cp.Ctr())
	assert.Equal(t, uintptr(0), cp.UPtr())

	var zero CountedPtr
	assert.Equal(t, int16(0), zero.Ctr())
	assert.Equal(t, uintptr(0), zero.UPtr())
}

func TestCountedPtrRejectsWidePointer(t *testing.T) {
	assert.Panics(t, func() {
		MakeCountedPtr(0, ^uintptr(0))
	})
}

func TestAtomicCountedPtrCounterLane(t *testing.T) {
	uptr := uintptr(0xbeef00)
	var acp AtomicCountedPtr
	acp.Store(MakeCountedPtr(0, uptr))

	old := acp.FetchAdd(5)
	assert.Equal(t, int16(0), old.Ctr())
	assert.Equal(t, uptr, old.UPtr())
	assert.Equal(t, int16(5), acp.Load().Ctr())
	assert.Equal(t, uptr, acp.Load().UPtr())

	// the counter lane may run negative without disturbing the pointer
	old = acp.FetchSub(7)
	assert.Equal(t, int16(-2), acp.Load().Ctr())
	assert.Equal(t, uptr, acp.Load().UPtr())

	assert.Equal(t, int16(-1), acp.Inc())
	assert.Equal(t, int16(-2), acp.Dec())
	assert.Equal(t, uptr, acp.Load().UPtr())
}

func TestAtomicCountedPtrCAS(t *testing.T) {
	var acp AtomicCountedPtr
	acp.Store(MakeCountedPtr(1, 0x40))

	expected := MakeCountedPtr(0, 0x40)
	assert.False(t, acp.CompareAndSwap(&expected, MakeCountedPtr(0, 0x80)))
	assert.Equal(t, MakeCountedPtr(1, 0x40), expected)

	assert.True(t, acp.CompareAndSwap(&expected, MakeCountedPtr(0, 0x80)))
	assert.Equal(t, MakeCountedPtr(0, 0x80), acp.Load())
}
