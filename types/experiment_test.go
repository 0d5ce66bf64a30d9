package types

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedTrainer produces one trace per episode with the given number of steps
type scriptedTrainer struct {
	steps []int
	err   error
}

func (s *scriptedTrainer) Train(_ context.Context, goal Goal, params LearningParams) (*TrainingReport, error) {
	report := NewTrainingReport(goal, 0)
	for i := 0; i < params.Episodes && i < len(s.steps); i++ {
		trace := NewTrace()
		for j := 0; j < s.steps[i]; j++ {
			trace.Append(Step{State: j, Action: 0, Reward: -1, Next: j + 1, Terminal: j == s.steps[i]-1})
		}
		report.Append(trace)
	}
	return report, s.err
}

func factoryFor(t Trainer) TrainerFactory {
	return func(context.Context) (Trainer, error) {
		return t, nil
	}
}

func TestTrainingReport(t *testing.T) {
	tr, _ := (&scriptedTrainer{steps: []int{3, 1, 0}}).Train(context.Background(), Goal{1}, LearningParams{Episodes: 3})
	assert.Equal(t, []int{3, 1, 0}, tr.Steps())
	assert.Equal(t, []float64{-3, -1, 0}, tr.Returns())

	last, ok := tr.Traces[0].Last()
	require.True(t, ok)
	assert.True(t, last.Terminal)
	_, ok = tr.Traces[2].Last()
	assert.False(t, ok)
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil))
	values := make([]float64, 20)
	for i := range values {
		values[i] = float64(i)
	}
	s := Summarize(values)
	assert.Equal(t, 20, s.Episodes)
	assert.InDelta(t, 9.5, s.Mean, 1e-9)
	// last two episodes
	assert.InDelta(t, 18.5, s.TailMean, 1e-9)
	assert.Greater(t, s.StdDev, 0.0)
}

func TestSummarizeSingleEpisode(t *testing.T) {
	s := Summarize([]float64{5})
	assert.Equal(t, Summary{Episodes: 1, Mean: 5, StdDev: 0, TailMean: 5}, s)

	dir := t.TempDir()
	SummaryComparator(NewNullLogger(), dir, "steps")(0, []string{"a"}, []DataSet{[]float64{5}})
	bs, err := os.ReadFile(path.Join(dir, "0_steps_summary.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": {"episodes": 1, "mean": 5, "std_dev": 0, "tail_mean": 5}}`, string(bs))
}

func TestComparison(t *testing.T) {
	dir := t.TempDir()
	buf := new(bytes.Buffer)
	c := NewComparison(&ComparisonConfig{
		Runs:         2,
		RecordPath:   dir,
		RecordTraces: true,
		Logger:       NewBufferLogger(buf),
	})

	compared := make(map[int][]DataSet)
	c.AddAnalysis("steps", StepsAnalyzer(), ChainComparators(
		func(run int, names []string, ds []DataSet) {
			assert.Equal(t, []string{"fast", "broken"}, names)
			compared[run] = ds
		},
		SummaryComparator(NewNullLogger(), dir, "steps"),
	))
	params := LearningParams{Episodes: 3}
	c.AddExperiment(NewExperiment("fast", Goal{1}, params, factoryFor(&scriptedTrainer{steps: []int{4, 2, 1}})))
	c.AddExperiment(NewExperiment("broken", Goal{1}, params, factoryFor(&scriptedTrainer{steps: []int{5}, err: errors.New("lab unreachable")})))

	require.NoError(t, c.Run(context.Background()))
	require.Len(t, compared, 2)
	assert.Equal(t, []float64{4, 2, 1}, compared[0][0])
	assert.Equal(t, []float64{5}, compared[1][1])
	assert.Contains(t, buf.String(), "lab unreachable")

	for _, f := range []string{"comparison_config.json", "1_steps_summary.json", path.Join("traces", "fast_1.jsonl")} {
		_, err := os.Stat(path.Join(dir, f))
		assert.NoError(t, err, f)
	}
}

func TestComparisonCancelled(t *testing.T) {
	c := NewComparison(&ComparisonConfig{})
	c.AddAnalysis("returns", ReturnAnalyzer(), NoopComparator())
	c.AddExperiment(NewExperiment("x", Goal{}, LearningParams{}, factoryFor(&scriptedTrainer{})))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.Run(ctx), context.Canceled)
}
