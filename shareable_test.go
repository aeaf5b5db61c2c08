package sharedptr

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShareableLifecycle(t *testing.T) {
	before := registeredHeaders()

	sh := NewShareable(7)
	assert.Equal(t, 7, *sh.Ptr())
	assert.Equal(t, uint32(1), sh.UseCount())

	s := sh.Shared()
	assert.Equal(t, uint32(2), sh.UseCount())
	assert.Equal(t, 7, *s.Get())

	sh.Release()
	assert.Equal(t, uint32(1), s.UseCount())

	s.Release()
	assert.Equal(t, before, registeredHeaders())
}

func TestShareableSplitDestruction(t *testing.T) {
	before := registeredHeaders()

	// the last strong release and the last weak release race; the
	// block must come down exactly once, object first
	for round := 0; round < 2000; round++ {
		sh := NewShareable(uint64(round))
		s := sh.Shared()
		w := MakeWeak(s)
		sh.Release()

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Release()
		}()
		go func() {
			defer wg.Done()
			w.Release()
		}()
		wg.Wait()
	}

	assert.Equal(t, before, registeredHeaders())
}
