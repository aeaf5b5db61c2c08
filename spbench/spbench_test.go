package spbench

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScenarioExperiments(t *testing.T) {
	scenarios := []string{
		ScenarioStore, ScenarioLoad, ScenarioExchange,
		ScenarioCASWeak, ScenarioCASStrong,
	}

	for _, scenario := range scenarios {
		for _, contention := range []bool{true, false} {
			var experiment ScenarioExperiment
			err := experiment.Init(scenario, 4, 5, contention,
				2*time.Millisecond, 20*time.Millisecond)
			assert.NoError(t, err)

			hits := experiment.Run()
			assert.NotZero(t, hits, "scenario %s contention=%v", scenario, contention)
			experiment.Close()
		}
	}
}

func TestSPBenchSweep(t *testing.T) {
	options := Options{
		MinWorkers:        1,
		MaxWorkers:        2,
		MinVars:           2,
		MaxVars:           2,
		WarmupMS:          1,
		RunMS:             5,
		Scenarios:         []string{ScenarioStore, ScenarioLoad},
		WithContention:    true,
		WithoutContention: true,
	}

	var bench SPBench
	assert.NoError(t, bench.Init(options))
	assert.NoError(t, bench.Start())

	records := bench.Records()
	// 2 scenarios x 2 worker steps x (1 contended + 1 private)
	assert.Equal(t, 8, len(records))
	for _, record := range records {
		assert.NotZero(t, record.Hits)
	}
}

func TestRecordRoundtrip(t *testing.T) {
	records := []Record{
		{Scenario: ScenarioStore, Workers: 4, Vars: 8, Contention: true, Hits: 12345, RunMS: 1000},
		{Scenario: ScenarioCASWeak, Workers: 1, Vars: 1, Contention: false, Hits: 7, RunMS: 50},
	}

	buf := EncodeRecords(records)
	assert.NotEmpty(t, buf)

	decoded := DecodeRecords(buf)
	assert.Equal(t, records, decoded)
}

func TestLoadOptionsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spbench.yaml")
	content := []byte("min_workers: 2\nmax_workers: 4\nrun_ms: 10\nscenarios:\n  - load\n")
	assert.NoError(t, os.WriteFile(path, content, 0644))

	options, err := LoadOptionsFile(path)
	assert.NoError(t, err)
	assert.Equal(t, 2, options.MinWorkers)
	assert.Equal(t, 4, options.MaxWorkers)
	assert.Equal(t, 10, options.RunMS)
	assert.Equal(t, []string{ScenarioLoad}, options.Scenarios)

	_, err = LoadOptionsFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
