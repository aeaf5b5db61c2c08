package spbench

import (
	"time"
)

// SPBench sweeps the scenario grid from Options and collects one
// Record per run.
type SPBench struct {
	options Options
	records []Record
}

func (p *SPBench) Init(options Options) error {
	if options.MinWorkers < 1 {
		options.MinWorkers = 1
	}
	if options.MaxWorkers < options.MinWorkers {
		options.MaxWorkers = options.MinWorkers
	}
	if options.MinVars < 1 {
		options.MinVars = 1
	}
	if options.MaxVars < options.MinVars {
		options.MaxVars = options.MinVars
	}
	p.options = options
	return nil
}

func (p *SPBench) Start() error {
	var (
		warmup  = time.Duration(p.options.WarmupMS) * time.Millisecond
		runtime = time.Duration(p.options.RunMS) * time.Millisecond
		err     error
	)

	for _, scenario := range p.options.Scenarios {
		for workers := p.options.MinWorkers; workers <= p.options.MaxWorkers; workers *= 2 {
			if p.options.WithContention {
				for vars := p.options.MinVars; vars <= p.options.MaxVars; vars *= 2 {
					err = p.runOne(scenario, workers, vars, true, warmup, runtime)
					if err != nil {
						return err
					}
				}
			}
			if p.options.WithoutContention {
				err = p.runOne(scenario, workers, p.options.MinVars, false, warmup, runtime)
				if err != nil {
					return err
				}
			}
		}
	}

	return nil
}

func (p *SPBench) runOne(scenario string, workers, vars int,
	contention bool, warmup, runtime time.Duration) error {
	var experiment ScenarioExperiment

	err := experiment.Init(scenario, workers, vars, contention, warmup, runtime)
	if err != nil {
		return err
	}

	hits := experiment.Run()
	experiment.Close()

	p.records = append(p.records, Record{
		Scenario:   scenario,
		Workers:    workers,
		Vars:       vars,
		Contention: contention,
		Hits:       hits,
		RunMS:      int32(p.options.RunMS),
	})
	return nil
}

func (p *SPBench) Records() []Record {
	return p.records
}
