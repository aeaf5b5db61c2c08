package spbench

import (
	"os"

	"github.com/goccy/go-yaml"
)

type Options struct {
	MinWorkers int `yaml:"min_workers"`
	MaxWorkers int `yaml:"max_workers"`
	MinVars    int `yaml:"min_vars"`
	MaxVars    int `yaml:"max_vars"`

	WarmupMS int `yaml:"warmup_ms"`
	RunMS    int `yaml:"run_ms"`

	Scenarios         []string `yaml:"scenarios"`
	WithContention    bool     `yaml:"with_contention"`
	WithoutContention bool     `yaml:"without_contention"`
}

func DefaultOptions() Options {
	return Options{
		MinWorkers:        1,
		MaxWorkers:        48,
		MinVars:           1,
		MaxVars:           64,
		WarmupMS:          100,
		RunMS:             1000,
		Scenarios:         []string{"store", "load", "exchange", "cas_weak", "cas_strong"},
		WithContention:    true,
		WithoutContention: true,
	}
}

func LoadOptionsFile(path string) (Options, error) {
	options := DefaultOptions()

	data, err := os.ReadFile(path)
	if err != nil {
		return options, err
	}

	err = yaml.Unmarshal(data, &options)
	if err != nil {
		return options, err
	}

	return options, nil
}
