package offheap

import "errors"

var (
	ErrMmap            = errors.New("mmap error")
	ErrAllocSizeTooBig = errors.New("alloc size over largest class")
	ErrArenaUninited   = errors.New("arena not inited")
)
