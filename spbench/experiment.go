package spbench

import (
	"sync"
	"sync/atomic"
	"time"
	"unsafe"
)

type workerScoreInternal struct {
	hits uint64
}

type workerScore struct {
	workerScoreInternal

	// Prevents false sharing on widespread platforms with
	// 128 mod (cache line size) = 0 .
	pad [128 - unsafe.Sizeof(workerScoreInternal{})%128]byte
}

// Experiment runs one scenario body on n workers for a fixed window
// and counts completed iterations. Workers start together behind a
// gate, run through a warmup window whose hits are discarded, then
// through the measured window.
type Experiment struct {
	workers int
	warmup  time.Duration
	runtime time.Duration

	stop   uint32
	scores []workerScore
}

func (p *Experiment) Init(workers int, warmup, runtime time.Duration) error {
	p.workers = workers
	p.warmup = warmup
	p.runtime = runtime
	return nil
}

func (p *Experiment) Workers() int {
	return p.workers
}

// Run drives testFunc on every worker until the window closes and
// returns the hits landed inside the measured window.
func (p *Experiment) Run(testFunc func(workerID int)) uint64 {
	var (
		start sync.WaitGroup
		done  sync.WaitGroup
		gate  = make(chan struct{})
	)

	atomic.StoreUint32(&p.stop, 0)
	p.scores = make([]workerScore, p.workers)

	start.Add(p.workers)
	done.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go func(workerID int) {
			defer done.Done()

			start.Done()
			<-gate

			for atomic.LoadUint32(&p.stop) == 0 {
				testFunc(workerID)
				atomic.AddUint64(&p.scores[workerID].hits, 1)
			}
		}(i)
	}

	start.Wait()
	close(gate)

	// let the workers converge in their caching behaviour before
	// counting
	time.Sleep(p.warmup)
	warmupHits := p.totalHits()

	time.Sleep(p.runtime)
	result := p.totalHits() - warmupHits

	atomic.StoreUint32(&p.stop, 1)
	done.Wait()

	return result
}

func (p *Experiment) totalHits() uint64 {
	var total uint64
	for i := range p.scores {
		total += atomic.LoadUint64(&p.scores[i].hits)
	}
	return total
}
