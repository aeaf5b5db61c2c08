package sharedptr

import (
	"sync"
	"sync/atomic"
	"unsafe"
)

// Cells park waiters in a package-level table sharded by cell address;
// Go exposes no futex, so each shard pairs a mutex with a condition
// variable. The waiter holds the shard lock across its recheck and the
// notifier passes through the same lock, so no wakeup is lost.

const notifySharedCount = 64

type notifyShared struct {
	mutex sync.Mutex
	cond  *sync.Cond
}

var notifyShareds [notifySharedCount]notifyShared

func init() {
	for i := range notifyShareds {
		notifyShareds[i].cond = sync.NewCond(&notifyShareds[i].mutex)
	}
}

func notifyGetShared(uptr uintptr) *notifyShared {
	hash := uint32((uint64(uint32(uptr)) * 0x85ebca6b) >> 16)
	return &notifyShareds[hash%notifySharedCount]
}

// waitWord blocks while the cell word equals old.
func waitWord(cell *AtomicCountedPtr, old uint64) {
	shared := notifyGetShared(uintptr(unsafe.Pointer(cell)))
	shared.mutex.Lock()
	for atomic.LoadUint64(&cell.word) == old {
		shared.cond.Wait()
	}
	shared.mutex.Unlock()
}

// notifyWord wakes the waiters of every cell in the shard; they
// reevaluate and go back to sleep if their cell did not change. A
// single targeted wake is not possible on a shared shard, so both
// notify flavors broadcast.
func notifyWord(cell *AtomicCountedPtr) {
	shared := notifyGetShared(uintptr(unsafe.Pointer(cell)))
	shared.mutex.Lock()
	shared.cond.Broadcast()
	shared.mutex.Unlock()
}
