package sharedptr

const (
	// CacheCoherencyLineSize pads each atomic cell so that unrelated
	// cells never share a cache line.
	CacheCoherencyLineSize = 64

	// Local cell counters are normalized back to the control block once
	// they cross this threshold.
	normalizeThreshold = int16(1) << 14
)
