package sharedptr

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeakPtrLock(t *testing.T) {
	s := MakeShared(11)
	w := MakeWeak(s)

	assert.Equal(t, uint32(1), w.UseCount())
	assert.Equal(t, uint32(1), w.WeakCount())
	assert.False(t, w.Expired())

	locked := w.Lock()
	assert.Equal(t, 11, *locked.Get())
	assert.Equal(t, uint32(2), s.UseCount())
	locked.Release()

	s.Release()
	assert.True(t, w.Expired())
	assert.True(t, w.Lock().IsNil())

	w.Release()
}

func TestWeakPtrHeaderOutlivesObject(t *testing.T) {
	before := registeredHeaders()

	s := MakeShared(5)
	w := MakeWeak(s)

	// dropping the last owner destroys the object but the block stays
	// for the weak handle
	s.Release()
	assert.Equal(t, before+1, registeredHeaders())
	assert.Equal(t, uint32(0), w.UseCount())

	w.Release()
	assert.Equal(t, before, registeredHeaders())
}

func TestWeakPtrCloneSwapOwnerBefore(t *testing.T) {
	a := MakeShared(1)
	b := MakeShared(2)

	wa := MakeWeak(a)
	wb := MakeWeak(b)
	wc := wa.Clone()
	assert.Equal(t, uint32(2), wa.WeakCount())

	assert.False(t, wa.OwnerBefore(wc) || wc.OwnerBefore(wa))
	assert.True(t, wa.OwnerBefore(wb) || wb.OwnerBefore(wa))
	assert.False(t, wa.OwnerBeforeShared(a))

	wa.Swap(&wb)

	lockedB := wa.Lock()
	assert.Equal(t, 2, *lockedB.Get())
	lockedB.Release()

	lockedA := wb.Lock()
	assert.Equal(t, 1, *lockedA.Get())
	lockedA.Release()

	wa.Release()
	wb.Release()
	wc.Release()
	a.Release()
	b.Release()
}

func TestWeakPtrPromotionRace(t *testing.T) {
	for round := 0; round < 2000; round++ {
		var destroyed int32

		obj := new(int)
		*obj = 42
		s := NewSharedWithDeleter(obj, func(p *int) {
			atomic.AddInt32(&destroyed, 1)
		})
		w := MakeWeak(s)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Release()
		}()
		go func() {
			defer wg.Done()
			locked := w.Lock()
			if !locked.IsNil() {
				// a successful promotion must still see the live object
				assert.Equal(t, int32(0), atomic.LoadInt32(&destroyed))
				assert.Equal(t, 42, *locked.Get())
				locked.Release()
			}
		}()
		wg.Wait()

		assert.Equal(t, int32(1), atomic.LoadInt32(&destroyed))
		w.Release()
	}
}
