package types

import (
	"context"
	"encoding/json"
	"os"
	"path"
	"strconv"

	"github.com/zeu5/lab-rl/util"
)

// Trainer runs a training call for a goal; policies.QLearner implements it
type Trainer interface {
	Train(context.Context, Goal, LearningParams) (*TrainingReport, error)
}

// TrainerFactory creates a fresh trainer (and its environment) for one run.
// Resources it allocates must be released when the context is done.
type TrainerFactory func(context.Context) (Trainer, error)

// Experiment encapsulates a goal and the learning parameters to train it with
type Experiment struct {
	Name    string
	Goal    Goal
	Params  LearningParams
	factory TrainerFactory
}

// NewExperiment creates a new experiment instance
func NewExperiment(name string, goal Goal, params LearningParams, factory TrainerFactory) *Experiment {
	return &Experiment{
		Name:    name,
		Goal:    goal,
		Params:  params,
		factory: factory,
	}
}

// Run trains once and hands the report to the analyzers
func (e *Experiment) Run(ctx context.Context, run int, analyzers []Analyzer, recordPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	trainer, err := e.factory(ctx)
	if err != nil {
		return err
	}
	report, err := trainer.Train(ctx, e.Goal, e.Params)
	if report != nil {
		for _, a := range analyzers {
			a.Analyze(run, e.Name, report)
		}
		if recordPath != "" {
			e.recordTraces(run, recordPath, report)
		}
	}
	return err
}

func (e *Experiment) recordTraces(run int, recordPath string, report *TrainingReport) {
	tracesFile := path.Join(recordPath, "traces", e.Name+"_"+strconv.Itoa(run)+".jsonl")
	for _, t := range report.Traces {
		bs, err := json.Marshal(t)
		if err != nil {
			continue
		}
		util.AppendToFile(tracesFile, string(bs))
	}
}

// ComparisonConfig contains the configuration for the comparison
type ComparisonConfig struct {
	Runs         int
	RecordPath   string // path to store the results
	RecordTraces bool
	Logger       Logger
}

// Comparison contains the different experiments to compare.
// The reports obtained from the experiments are analyzed and
// the analyzed datasets are then compared.
type Comparison struct {
	Experiments []*Experiment
	analyzers   map[string]Analyzer
	comparators map[string]Comparator
	cConfig     *ComparisonConfig
}

// NewComparison creates a comparison instance
func NewComparison(config *ComparisonConfig) *Comparison {
	if config.Logger == nil {
		config.Logger = NewNullLogger()
	}
	if config.Runs < 1 {
		config.Runs = 1
	}
	if config.RecordPath != "" {
		os.MkdirAll(config.RecordPath, 0777)
		if config.RecordTraces {
			os.MkdirAll(path.Join(config.RecordPath, "traces"), 0777)
		}
	}
	return &Comparison{
		Experiments: make([]*Experiment, 0),
		analyzers:   make(map[string]Analyzer),
		comparators: make(map[string]Comparator),
		cConfig:     config,
	}
}

// AddAnalysis adds an analyzer and comparator to the comparison
func (c *Comparison) AddAnalysis(name string, analyzer Analyzer, comparator Comparator) {
	c.analyzers[name] = analyzer
	c.comparators[name] = comparator
}

// Add experiments to compare
func (c *Comparison) AddExperiment(e *Experiment) {
	c.Experiments = append(c.Experiments, e)
}

func (c *Comparison) recordConfig() {
	if c.cConfig.RecordPath == "" {
		return
	}
	out := make(map[string]interface{})
	out["runs"] = c.cConfig.Runs
	experiments := make([]map[string]interface{}, 0)
	for _, e := range c.Experiments {
		experiments = append(experiments, map[string]interface{}{
			"name":   e.Name,
			"goal":   e.Goal,
			"params": e.Params,
		})
	}
	out["experiments"] = experiments
	analyzers := make([]string, 0)
	for name := range c.analyzers {
		analyzers = append(analyzers, name)
	}
	out["analyzers"] = analyzers

	bs, err := json.Marshal(out)
	if err != nil {
		c.cConfig.Logger.Errorf("error encoding comparison config: %s", err)
		return
	}
	util.WriteToFile(path.Join(c.cConfig.RecordPath, "comparison_config.json"), string(bs))
}

// Run the comparison. A failing experiment is logged and compared with
// whatever episodes it completed.
func (c *Comparison) Run(ctx context.Context) error {
	c.recordConfig()

	recordPath := ""
	if c.cConfig.RecordTraces {
		recordPath = c.cConfig.RecordPath
	}

	for run := 0; run < c.cConfig.Runs; run++ {
		c.cConfig.Logger.Infof("Run %d", run+1)
		datasets := make(map[string][]DataSet)
		for name := range c.analyzers {
			datasets[name] = make([]DataSet, len(c.Experiments))
		}

		names := make([]string, len(c.Experiments))
		for i, e := range c.Experiments {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if err := e.Run(ctx, run, c.listAnalyzers(), recordPath); err != nil {
				c.cConfig.Logger.Errorf("experiment %s failed: %s", e.Name, err)
			}
			for name, a := range c.analyzers {
				datasets[name][i] = a.DataSet()
				a.Reset()
			}
			names[i] = e.Name
		}
		for name, comp := range c.comparators {
			comp(run, names, datasets[name])
		}
	}
	return nil
}

func (c *Comparison) listAnalyzers() []Analyzer {
	out := make([]Analyzer, 0, len(c.analyzers))
	for _, a := range c.analyzers {
		out = append(out, a)
	}
	return out
}
