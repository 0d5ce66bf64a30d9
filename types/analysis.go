package types

import (
	"encoding/json"
	"os"
	"path"
	"strconv"

	"github.com/zeu5/lab-rl/util"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Generic Dataset that contains information after processing the reports
type DataSet interface{}

// Analyzer compresses the training reports of an experiment to a DataSet
type Analyzer interface {
	// run, experiment name, report
	Analyze(int, string, *TrainingReport)
	DataSet() DataSet
	Reset()
}

// Comparator differentiates between datasets of the named experiments
// run, experiment names, datasets
type Comparator func(int, []string, []DataSet)

func NoopComparator() Comparator {
	return func(_ int, _ []string, _ []DataSet) {}
}

// ChainComparators runs the comparators in order on the same datasets
func ChainComparators(comparators ...Comparator) Comparator {
	return func(run int, names []string, ds []DataSet) {
		for _, c := range comparators {
			c(run, names, ds)
		}
	}
}

// seriesAnalyzer records one value per episode
type seriesAnalyzer struct {
	values []float64
	f      func(*TrainingReport) []float64
}

func (s *seriesAnalyzer) Analyze(_ int, _ string, report *TrainingReport) {
	s.values = append(s.values, s.f(report)...)
}

func (s *seriesAnalyzer) DataSet() DataSet {
	out := make([]float64, len(s.values))
	copy(out, s.values)
	return out
}

func (s *seriesAnalyzer) Reset() {
	s.values = make([]float64, 0)
}

// StepsAnalyzer records the number of steps each episode needed to reach the goal
func StepsAnalyzer() Analyzer {
	return &seriesAnalyzer{
		values: make([]float64, 0),
		f: func(r *TrainingReport) []float64 {
			steps := r.Steps()
			out := make([]float64, len(steps))
			for i, s := range steps {
				out[i] = float64(s)
			}
			return out
		},
	}
}

// ReturnAnalyzer records the return of each episode
func ReturnAnalyzer() Analyzer {
	return &seriesAnalyzer{
		values: make([]float64, 0),
		f: func(r *TrainingReport) []float64 {
			return r.Returns()
		},
	}
}

// Summary of a per-episode series
type Summary struct {
	Episodes int     `json:"episodes"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	// mean over the last tenth of the episodes
	TailMean float64 `json:"tail_mean"`
}

func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	mean, std := stat.MeanStdDev(values, nil)
	if len(values) < 2 {
		// the sample deviation of a single episode is undefined
		std = 0
	}
	tail := len(values) / 10
	if tail == 0 {
		tail = 1
	}
	return Summary{
		Episodes: len(values),
		Mean:     mean,
		StdDev:   std,
		TailMean: stat.Mean(values[len(values)-tail:], nil),
	}
}

// SummaryComparator logs the summary of every series and stores them as json
func SummaryComparator(logger Logger, savePath, name string) Comparator {
	return func(run int, names []string, ds []DataSet) {
		out := make(map[string]Summary)
		for i, n := range names {
			values, ok := ds[i].([]float64)
			if !ok {
				continue
			}
			s := Summarize(values)
			out[n] = s
			logger.Infof("run %d %s %s: mean %.2f (std %.2f), last episodes %.2f", run, name, n, s.Mean, s.StdDev, s.TailMean)
		}
		if savePath == "" {
			return
		}
		bs, err := json.Marshal(out)
		if err != nil {
			logger.Errorf("error encoding summary: %s", err)
			return
		}
		if err := util.WriteToFile(path.Join(savePath, strconv.Itoa(run)+"_"+name+"_summary.json"), string(bs)); err != nil {
			logger.Errorf("error writing summary: %s", err)
		}
	}
}

// LinePlotComparator plots every series against the episode number
func LinePlotComparator(plotPath, name, yLabel string) Comparator {
	if _, err := os.Stat(plotPath); err != nil {
		os.MkdirAll(plotPath, os.ModePerm)
	}
	return func(run int, names []string, ds []DataSet) {
		p := plot.New()
		p.Title.Text = "Comparison"
		p.X.Label.Text = "Episode"
		p.Y.Label.Text = yLabel
		for i := 0; i < len(names); i++ {
			values, ok := ds[i].([]float64)
			if !ok {
				continue
			}
			points := make(plotter.XYs, len(values))
			for j, v := range values {
				points[j] = plotter.XY{
					X: float64(j),
					Y: v,
				}
			}
			line, err := plotter.NewLine(points)
			if err != nil {
				continue
			}
			line.Color = plotutil.Color(i)
			p.Add(line)
			p.Legend.Add(names[i], line)
		}
		p.Save(8*vg.Inch, 8*vg.Inch, path.Join(plotPath, strconv.Itoa(run)+"_"+name+".png"))
	}
}
