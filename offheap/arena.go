package offheap

import (
	"sync"
	"sync/atomic"
	"unsafe"
)

const (
	arenaMinClassShift = 6
	arenaMaxClassShift = 16
	arenaClassCount    = arenaMaxClassShift - arenaMinClassShift + 1

	DefaultArenaChunkBytes = 1 << 20
)

// arenaClass serves one power-of-two slot size. Freed slots are linked
// through their own first word; fresh slots are bumped off the current
// mmap chunk, growing by a new chunk when it runs dry.
type arenaClass struct {
	mutex    sync.Mutex
	slotSize uintptr
	freeList uintptr
	bump     mmapbytes
	chunks   []mmapbytes
	occupied Bitmap
}

// Arena is an allocator over anonymous mmap memory. The collector
// never scans or frees arena memory, which is exactly what a control
// block needs once its address is packed into a 64-bit cell word.
// Objects placed in the arena must not hold Go heap pointers.
//
// Arena never returns chunks to the kernel; freed slots recycle within
// their size class.
type Arena struct {
	chunkBytes int
	classes    [arenaClassCount]arenaClass

	allocatedObjects int64
}

func (p *Arena) Init(chunkBytes int) error {
	if chunkBytes <= 0 {
		chunkBytes = DefaultArenaChunkBytes
	}
	if chunkBytes < 1<<arenaMaxClassShift {
		chunkBytes = 1 << arenaMaxClassShift
	}
	p.chunkBytes = chunkBytes
	for i := range p.classes {
		p.classes[i].slotSize = uintptr(1) << uint(arenaMinClassShift+i)
	}
	return nil
}

func arenaClassIndex(size uintptr) int {
	if size > 1<<arenaMaxClassShift {
		return -1
	}
	for i := 0; i < arenaClassCount; i++ {
		if size <= uintptr(1)<<uint(arenaMinClassShift+i) {
			return i
		}
	}
	return -1
}

// Alloc returns a zeroed-on-first-use slot of at least size bytes. The
// only failures are an arena that was never Init'ed, a request over the
// largest class, and mmap failure.
func (p *Arena) Alloc(size uintptr) (unsafe.Pointer, error) {
	if p.chunkBytes == 0 {
		return nil, ErrArenaUninited
	}
	ci := arenaClassIndex(size)
	if ci < 0 {
		return nil, ErrAllocSizeTooBig
	}

	class := &p.classes[ci]
	class.mutex.Lock()

	var uSlot uintptr
	if class.freeList != 0 {
		uSlot = class.freeList
		class.freeList = *(*uintptr)(unsafe.Pointer(uSlot))
		*(*uintptr)(unsafe.Pointer(uSlot)) = 0
	} else {
		// bump the current chunk, growing first if needed
		if class.bump.addrStart+class.slotSize > class.bump.addrEnd {
			chunk, err := AllocMmapBytes(p.chunkBytes)
			if err != nil {
				class.mutex.Unlock()
				return nil, err
			}
			class.chunks = append(class.chunks, chunk)
			class.bump = chunk
		}
		uSlot = class.bump.addrStart
		class.bump.addrStart += class.slotSize
	}

	slot := class.slotIndex(uSlot, p.chunkBytes)
	if class.occupied.Has(slot) {
		class.mutex.Unlock()
		panic("offheap: slot already occupied")
	}
	class.occupied.Set(slot)
	class.mutex.Unlock()

	atomic.AddInt64(&p.allocatedObjects, 1)
	return unsafe.Pointer(uSlot), nil
}

// Free recycles a slot obtained from Alloc with the same size. Freeing
// a slot twice panics.
func (p *Arena) Free(ptr unsafe.Pointer, size uintptr) {
	ci := arenaClassIndex(size)
	if ci < 0 {
		panic("offheap: free size over largest class")
	}

	class := &p.classes[ci]
	uSlot := uintptr(ptr)

	class.mutex.Lock()
	slot := class.slotIndex(uSlot, p.chunkBytes)
	if slot < 0 || !class.occupied.Has(slot) {
		class.mutex.Unlock()
		panic("offheap: double free or foreign pointer")
	}
	class.occupied.UnSet(slot)
	*(*uintptr)(unsafe.Pointer(uSlot)) = class.freeList
	class.freeList = uSlot
	class.mutex.Unlock()

	atomic.AddInt64(&p.allocatedObjects, -1)
}

// slotIndex maps a slot address to a class-wide index for the
// occupancy bitmap. Caller holds the class mutex.
func (p *arenaClass) slotIndex(uSlot uintptr, chunkBytes int) int32 {
	slotsPerChunk := uintptr(chunkBytes) / p.slotSize
	for i, chunk := range p.chunks {
		if uSlot >= chunk.addrStart && uSlot < chunk.addrEnd {
			return int32(uintptr(i)*slotsPerChunk + (uSlot-chunk.addrStart)/p.slotSize)
		}
	}
	return -1
}

// AllocatedObjects reports live slots across all classes; balanced
// callers quiesce to zero.
func (p *Arena) AllocatedObjects() int64 {
	return atomic.LoadInt64(&p.allocatedObjects)
}
