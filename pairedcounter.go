package sharedptr

// PairedCounter packs two independent sub-counters into one 64-bit
// word: cnt2 (unsigned) in the low 32 bits, cnt1 (signed) in the high
// 32 bits. cnt1 is signed so the observer side may go transiently
// negative.
type PairedCounter uint64

func NewPairedCounter(c1 int32, c2 uint32) PairedCounter {
	return PairedCounter(uint64(uint32(c1))<<32 | uint64(c2))
}

func (c PairedCounter) Cnt1() int32 {
	return int32(uint32(c >> 32))
}

func (c PairedCounter) Cnt2() uint32 {
	return uint32(c)
}

func (c PairedCounter) SetCnt1(v int32) PairedCounter {
	return NewPairedCounter(v, c.Cnt2())
}

func (c PairedCounter) SetCnt2(v uint32) PairedCounter {
	return NewPairedCounter(c.Cnt1(), v)
}

// Add is component-wise with silent 32-bit wraparound per lane.
func (c PairedCounter) Add(r PairedCounter) PairedCounter {
	return NewPairedCounter(c.Cnt1()+r.Cnt1(), c.Cnt2()+r.Cnt2())
}

func (c PairedCounter) Sub(r PairedCounter) PairedCounter {
	return NewPairedCounter(c.Cnt1()-r.Cnt1(), c.Cnt2()-r.Cnt2())
}

// The ordering is pointwise: two counters compare only when both
// components compare the same way, so it is a strict partial order.
func (c PairedCounter) Gt(r PairedCounter) bool {
	return c.Cnt1() > r.Cnt1() && c.Cnt2() > r.Cnt2()
}

func (c PairedCounter) Ge(r PairedCounter) bool {
	return c.Cnt1() >= r.Cnt1() && c.Cnt2() >= r.Cnt2()
}

func (c PairedCounter) Lt(r PairedCounter) bool {
	return c.Cnt1() < r.Cnt1() && c.Cnt2() < r.Cnt2()
}

func (c PairedCounter) Le(r PairedCounter) bool {
	return c.Cnt1() <= r.Cnt1() && c.Cnt2() <= r.Cnt2()
}

func (c PairedCounter) Word() uint64 {
	return uint64(c)
}
