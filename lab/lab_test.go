package lab

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/lab-rl/policies"
	"github.com/zeu5/lab-rl/types"
)

func startSimulator(t *testing.T, seed uint64) (*Simulator, *httptest.Server) {
	sim := NewSimulator(seed)
	server := NewSimulatorServer(context.Background(), "", sim, nil)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return sim, ts
}

func setSimulator(t *testing.T, sim *Simulator, sunshine float64, fields map[string]bool) {
	sim.SetSunshine(sunshine)
	for _, f := range []string{Z1Light, Z2Light, Z1Blinds, Z2Blinds} {
		require.NoError(t, sim.Set(f, fields[f]))
	}
}

func TestLabOverSimulator(t *testing.T) {
	sim, ts := startSimulator(t, 1)
	l, err := NewLab(context.Background(), Config{URL: ts.URL + "/td"}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1024, l.StateSpace().Len())
	require.Equal(t, 8, l.ActionSpace().Len())
	first, _ := l.ActionSpace().Action(0)
	assert.Equal(t, SetZ1Light, first.Tag)
	assert.Equal(t, []interface{}{false}, first.Payload)
	assert.Equal(t, types.KindLight, first.Kind)
	last, _ := l.ActionSpace().Action(7)
	assert.Equal(t, SetZ2Blinds, last.Tag)
	assert.Equal(t, []interface{}{true}, last.Payload)
	assert.Equal(t, types.KindBlinds, last.Kind)

	setSimulator(t, sim, 450, map[string]bool{Z2Blinds: true})
	obs, err := l.ReadCurrentState(context.Background())
	require.NoError(t, err)
	// zone 2 gets 20 + 0.35*450 = 177.5 lux
	assert.Equal(t, []interface{}{0, 2, false, false, false, true, 2}, l.StateSpace().Decode(obs.State))

	// action 1 turns the zone 1 lights on
	require.NoError(t, l.PerformAction(context.Background(), 1))
	obs, err = l.ReadCurrentState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []interface{}{2, 2, true, false, false, true, 2}, l.StateSpace().Decode(obs.State))

	actions, err := l.ApplicableActions(obs.Index)
	require.NoError(t, err)
	// lights off in zone 1, lights on in zone 2, blinds up in zone 1, blinds down in zone 2
	assert.Equal(t, []int{0, 3, 5, 6}, actions)

	assert.Len(t, l.CompatibleStates([]interface{}{2, 2}), 64)
}

func TestLabReset(t *testing.T) {
	sim, ts := startSimulator(t, 3)
	l, err := NewLab(context.Background(), Config{URL: ts.URL + "/td"}, nil)
	require.NoError(t, err)

	seen := make(map[float64]bool)
	for i := 0; i < 40; i++ {
		require.NoError(t, l.Reset(context.Background()))
		seen[sim.Status()[Sunshine].(float64)] = true
	}
	for lux := range seen {
		assert.Contains(t, SunshineReadings, lux)
	}
	assert.Greater(t, len(seen), 1)
}

func TestLabSkipsMissingAffordances(t *testing.T) {
	td := SimulatorThingDescription("http://127.0.0.1:1")
	delete(td.Actions, "setZ2Blinds")
	delete(td.Actions, "reset")

	buf := new(bytes.Buffer)
	l, err := NewLabFromTD(td, NewClient(0), Config{}, types.NewBufferLogger(buf))
	require.NoError(t, err)
	assert.Equal(t, 6, l.ActionSpace().Len())
	assert.Contains(t, buf.String(), SetZ2Blinds)
	// no reset action nor reset path, resetting does nothing
	assert.NoError(t, l.Reset(context.Background()))
}

func TestLabConfigurationErrors(t *testing.T) {
	td := SimulatorThingDescription("http://127.0.0.1:1")
	delete(td.Properties, "status")
	_, err := NewLabFromTD(td, NewClient(0), Config{}, nil)
	assert.True(t, errors.Is(err, types.ErrConfiguration))

	td = SimulatorThingDescription("http://127.0.0.1:1")
	td.Actions = map[string]*ActionAffordance{}
	_, err = NewLabFromTD(td, NewClient(0), Config{}, nil)
	assert.True(t, errors.Is(err, types.ErrConfiguration))

	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()
	_, err = NewLab(context.Background(), Config{URL: ts.URL + "/td"}, nil)
	assert.True(t, errors.Is(err, types.ErrConfiguration))
}

func TestLabStatusKeyedBySemanticType(t *testing.T) {
	status := make(map[string]interface{})
	for _, f := range StatusFields {
		status[f.Type] = 120.0
	}
	status[StatusFields[2].Type] = true
	status[StatusFields[3].Type] = false
	status[StatusFields[4].Type] = false
	status[StatusFields[5].Type] = true

	lock := new(sync.Mutex)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lock.Lock()
		defer lock.Unlock()
		json.NewEncoder(w).Encode(status)
	}))
	defer ts.Close()

	td := SimulatorThingDescription(ts.URL)
	td.Properties["status"].Properties = nil
	l, err := NewLabFromTD(td, NewClient(0), Config{}, nil)
	require.NoError(t, err)
	obs, err := l.ReadCurrentState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.State{2, 2, 1, 0, 0, 1, 1}, obs.State)

	lock.Lock()
	delete(status, StatusFields[6].Type)
	lock.Unlock()
	_, err = l.ReadCurrentState(context.Background())
	assert.True(t, errors.Is(err, types.ErrConfiguration))
}

func TestTrainOnSimulator(t *testing.T) {
	_, ts := startSimulator(t, 5)
	l, err := NewLab(context.Background(), Config{URL: ts.URL + "/td"}, nil)
	require.NoError(t, err)

	learner := policies.NewQLearner(l, policies.WithSeed(5))
	// zone 1 at level 2 is reachable from anywhere: lights on, blinds down
	goal := types.Goal{2}
	report, err := learner.Train(context.Background(), goal, types.LearningParams{
		Episodes: 15,
		Alpha:    0.5,
		Gamma:    0.9,
		Epsilon:  0.3,
		Reward:   100,
		Horizon:  40,
	})
	require.NoError(t, err)
	assert.Len(t, report.Traces, 15)

	_, decoded, err := learner.CurrentState(context.Background())
	require.NoError(t, err)
	assert.Len(t, decoded, 7)
	action, err := learner.BestAction(goal, decoded)
	require.NoError(t, err)
	assert.NotEmpty(t, action.Tag)
}

func TestSimulatorServerOnListener(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	server := NewSimulatorServer(ctx, "", NewSimulator(1), nil)
	server.Serve(ln)

	l, err := NewLab(ctx, Config{URL: server.URL()}, nil)
	require.NoError(t, err)
	_, err = l.ReadCurrentState(ctx)
	require.NoError(t, err)
}
