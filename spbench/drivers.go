package spbench

import (
	"time"
	"unsafe"

	"soloos/sharedptr"
)

// Target is the payload the scenarios traffic in. The value doubles as
// the hop distance in the cas scenarios.
type Target struct {
	U uint64
}

type workerStateInternal struct {
	sptr   sharedptr.SharedPtr[Target]
	target int
}

type workerState struct {
	workerStateInternal

	// Prevents false sharing on widespread platforms with
	// 128 mod (cache line size) = 0 .
	pad [128 - unsafe.Sizeof(workerStateInternal{})%128]byte
}

// ScenarioExperiment drives one operation scenario over a bank of
// atomic cells. With contention the workers walk a shared bank of vars
// cells; without it every worker owns a private cell.
type ScenarioExperiment struct {
	Experiment

	scenario   string
	contention bool
	cells      []sharedptr.AtomicSharedPtr[Target]
	states     []workerState
}

func (p *ScenarioExperiment) Init(scenario string, workers, vars int,
	contention bool, warmup, runtime time.Duration) error {
	err := p.Experiment.Init(workers, warmup, runtime)
	if err != nil {
		return err
	}

	p.scenario = scenario
	p.contention = contention

	cellCount := vars
	if !contention {
		cellCount = workers
	}
	p.cells = make([]sharedptr.AtomicSharedPtr[Target], cellCount)
	p.states = make([]workerState, workers)

	for i := range p.states {
		p.states[i].sptr = sharedptr.MakeShared(Target{U: uint64(i)*2 + 1})
		if !contention {
			p.states[i].target = i
		}
	}

	switch scenario {
	case ScenarioLoad:
		for i := range p.cells {
			// keep one null cell in the contended bank so the null
			// path stays on the profile
			if contention && vars > 3 && i == 0 {
				continue
			}
			p.cells[i].Store(sharedptr.MakeShared(Target{U: uint64(i)}))
		}
	case ScenarioExchange, ScenarioCASWeak, ScenarioCASStrong:
		for i := range p.cells {
			p.cells[i].Store(sharedptr.MakeShared(Target{U: uint64(i) * 2}))
		}
	}

	return nil
}

const (
	ScenarioStore     = "store"
	ScenarioLoad      = "load"
	ScenarioExchange  = "exchange"
	ScenarioCASWeak   = "cas_weak"
	ScenarioCASStrong = "cas_strong"
)

func (p *ScenarioExperiment) Run() uint64 {
	var testFunc func(workerID int)
	switch p.scenario {
	case ScenarioStore:
		testFunc = p.shootStore
	case ScenarioLoad:
		testFunc = p.shootLoad
	case ScenarioExchange:
		testFunc = p.shootExchange
	case ScenarioCASWeak:
		testFunc = p.shootCASWeak
	case ScenarioCASStrong:
		testFunc = p.shootCASStrong
	default:
		return 0
	}
	return p.Experiment.Run(testFunc)
}

// Close settles every reference the experiment still holds.
func (p *ScenarioExperiment) Close() {
	for i := range p.cells {
		p.cells[i].Reset()
	}
	for i := range p.states {
		p.states[i].sptr.Release()
	}
}

func (p *ScenarioExperiment) nextTarget(workerID int) int {
	state := &p.states[workerID]
	if p.contention {
		state.target = (state.target + 1) % len(p.cells)
	}
	return state.target
}

func (p *ScenarioExperiment) shootStore(workerID int) {
	p.cells[p.nextTarget(workerID)].StoreShared(p.states[workerID].sptr)
}

func (p *ScenarioExperiment) shootLoad(workerID int) {
	got := p.cells[p.nextTarget(workerID)].Load()
	got.Release()
}

func (p *ScenarioExperiment) shootExchange(workerID int) {
	state := &p.states[workerID]
	state.sptr = p.cells[p.nextTarget(workerID)].Swap(state.sptr)
}

func (p *ScenarioExperiment) shootCASWeak(workerID int) {
	p.shootCAS(workerID, true)
}

func (p *ScenarioExperiment) shootCASStrong(workerID int) {
	p.shootCAS(workerID, false)
}

func (p *ScenarioExperiment) shootCAS(workerID int, weak bool) {
	state := &p.states[workerID]
	cell := &p.cells[state.target]

	var expected sharedptr.SharedPtr[Target]
	if weak {
		for !cell.CompareAndSwapWeak(&expected, state.sptr) {
		}
	} else {
		for !cell.CompareAndSwapStrong(&expected, state.sptr) {
		}
	}

	// hop by the extracted value so the walk order depends on who won
	step := uint64(1)
	if got := expected.Get(); got != nil {
		step = got.U
	}
	if p.contention {
		state.target = int((uint64(state.target) + step) % uint64(len(p.cells)))
	}

	state.sptr.Release()
	state.sptr = expected
}
