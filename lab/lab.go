package lab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/zeu5/lab-rl/types"
)

// Config of the lab environment
type Config struct {
	// URL of the thing description
	URL     string
	Timeout time.Duration
	// ResetPath is posted to when the thing description has no reset action, empty disables resets
	ResetPath          string
	LightThresholds    []float64
	SunshineThresholds []float64
}

func (c *Config) setDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 5 * time.Second
	}
	if len(c.LightThresholds) == 0 {
		c.LightThresholds = DefaultLightThresholds
	}
	if len(c.SunshineThresholds) == 0 {
		c.SunshineThresholds = DefaultSunshineThresholds
	}
}

// actionHandle is what the lab needs to execute an action
type actionHandle struct {
	form   *Form
	target string
}

// Lab is the environment of a lab similar to the Interactions lab:
// two zones with lights and blinds, driven through its thing description
type Lab struct {
	*types.Spaces
	td       *ThingDescription
	client   *Client
	logger   types.Logger
	light    Discretizer
	sunshine Discretizer

	statusForm   *Form
	statusTarget string
	// status field name per state axis
	statusNames []string
	resetTarget string
	resetMethod string
}

var _ types.Environment = &Lab{}
var _ types.Resetter = &Lab{}

// NewLab fetches the thing description at config.URL and builds the lab from it
func NewLab(ctx context.Context, config Config, logger types.Logger) (*Lab, error) {
	config.setDefaults()
	client := NewClient(config.Timeout)
	td, err := client.FetchThingDescription(ctx, config.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching thing description: %w", types.ErrConfiguration, err)
	}
	if td.Base == "" {
		td.Base = config.URL
	}
	return NewLabFromTD(td, client, config, logger)
}

// NewLabFromTD builds the state and action spaces of the lab from a thing description
func NewLabFromTD(td *ThingDescription, client *Client, config Config, logger types.Logger) (*Lab, error) {
	config.setDefaults()
	if logger == nil {
		logger = types.NewNullLogger()
	}
	l := &Lab{
		td:       td,
		client:   client,
		logger:   logger,
		light:    NewDiscretizer(config.LightThresholds),
		sunshine: NewDiscretizer(config.SunshineThresholds),
	}

	if err := l.bindStatus(); err != nil {
		return nil, err
	}

	states, err := types.NewStateSpace(Axes(l.light, l.sunshine)...)
	if err != nil {
		return nil, err
	}
	logger.Infof("The lab has a state space of n=%d", states.Len())

	actions, err := types.NewActionSpace(states, l.controllableProperties())
	if err != nil {
		return nil, err
	}
	logger.Infof("The lab has an action space of m=%d", actions.Len())
	for _, a := range actions.Actions() {
		logger.Debug(a.String())
	}
	l.Spaces = types.NewSpaces(states, actions)

	if err := l.bindReset(config.ResetPath); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Lab) bindStatus() error {
	p, ok := l.td.PropertyBySemanticType(StatusType)
	if !ok {
		return fmt.Errorf("%w: thing description has no property of type %s", types.ErrConfiguration, StatusType)
	}
	form, ok := p.ReadForm()
	if !ok {
		return fmt.Errorf("%w: status property cannot be read", types.ErrConfiguration)
	}
	target, err := l.td.Resolve(form)
	if err != nil {
		return fmt.Errorf("%w: status form: %w", types.ErrConfiguration, err)
	}
	l.statusForm = form
	l.statusTarget = target

	l.statusNames = make([]string, len(StatusFields))
	for i, f := range StatusFields {
		name, ok := p.FieldBySemanticType(f.Type)
		if !ok {
			// payload keyed by the semantic type itself
			name = f.Type
		}
		l.statusNames[i] = name
	}
	return nil
}

func (l *Lab) controllableProperties() []types.ControllableProperty {
	props := make([]types.ControllableProperty, 0)
	for _, aff := range Affordances {
		a, ok := l.td.ActionBySemanticType(aff.Type)
		if !ok {
			l.logger.Warnf("thing description has no action of type %s, skipping", aff.Type)
			continue
		}
		form, ok := a.InvokeForm()
		if !ok {
			l.logger.Warnf("action %s cannot be invoked, skipping", aff.Type)
			continue
		}
		target, err := l.td.Resolve(form)
		if err != nil {
			l.logger.Warnf("action %s has an invalid form: %s", aff.Type, err)
			continue
		}
		fields := a.Input.BooleanFields()
		if len(fields) == 0 {
			l.logger.Warnf("action %s has no boolean input, skipping", aff.Type)
			continue
		}
		for _, field := range fields {
			props = append(props, types.ControllableProperty{
				Tag:    aff.Type,
				Kind:   aff.Kind,
				Axis:   aff.Axis,
				Field:  field,
				Values: []interface{}{false, true},
				Handle: &actionHandle{form: form, target: target},
			})
		}
	}
	return props
}

func (l *Lab) bindReset(resetPath string) error {
	if a, ok := l.td.ActionBySemanticType(ResetType); ok {
		if form, ok := a.InvokeForm(); ok {
			target, err := l.td.Resolve(form)
			if err != nil {
				return fmt.Errorf("%w: reset form: %w", types.ErrConfiguration, err)
			}
			l.resetTarget = target
			l.resetMethod = methodOf(form, http.MethodPost)
			return nil
		}
	}
	if resetPath == "" {
		return nil
	}
	target, err := l.td.Resolve(&Form{Href: resetPath})
	if err != nil {
		return fmt.Errorf("%w: reset path: %w", types.ErrConfiguration, err)
	}
	l.resetTarget = target
	l.resetMethod = http.MethodPost
	return nil
}

func methodOf(f *Form, def string) string {
	if f.Method == "" {
		return def
	}
	return strings.ToUpper(f.Method)
}

// ReadCurrentState reads the status property and discretizes it
func (l *Lab) ReadCurrentState(ctx context.Context) (types.Observation, error) {
	bs, err := l.client.Do(ctx, methodOf(l.statusForm, http.MethodGet), l.statusTarget, nil)
	if err != nil {
		return types.Observation{Index: types.UnknownState}, err
	}
	status := make(map[string]interface{})
	if err := json.Unmarshal(bs, &status); err != nil {
		return types.Observation{Index: types.UnknownState}, fmt.Errorf("error decoding status: %s", err)
	}
	state, err := l.decodeStatus(status)
	if err != nil {
		return types.Observation{Index: types.UnknownState}, err
	}
	return l.Observe(state)
}

func (l *Lab) decodeStatus(status map[string]interface{}) (types.State, error) {
	state := make(types.State, len(StatusFields))
	for i, f := range StatusFields {
		raw, ok := status[l.statusNames[i]]
		if !ok {
			return nil, fmt.Errorf("%w: status has no field %s", types.ErrConfiguration, l.statusNames[i])
		}
		switch f.Axis {
		case Z1Level, Z2Level, Sunshine:
			lux, ok := raw.(float64)
			if !ok {
				return nil, fmt.Errorf("%w: status field %s is not a number: %v", types.ErrConfiguration, l.statusNames[i], raw)
			}
			if f.Axis == Sunshine {
				state[i] = l.sunshine.Level(lux)
			} else {
				state[i] = l.light.Level(lux)
			}
		default:
			b, ok := raw.(bool)
			if !ok {
				return nil, fmt.Errorf("%w: status field %s is not a boolean: %v", types.ErrConfiguration, l.statusNames[i], raw)
			}
			if b {
				state[i] = 1
			}
		}
	}
	return state, nil
}

// PerformAction invokes the affordance of the action with its payload
func (l *Lab) PerformAction(ctx context.Context, a int) error {
	action, ok := l.ActionSpace().Action(a)
	if !ok {
		return fmt.Errorf("%w: no action with index %d", types.ErrConfiguration, a)
	}
	handle, ok := action.Handle.(*actionHandle)
	if !ok {
		return fmt.Errorf("%w: action %d cannot be executed", types.ErrConfiguration, a)
	}
	payload := make(map[string]interface{})
	for i, field := range action.PayloadTags {
		payload[field] = action.Payload[i]
	}
	if _, err := l.client.Do(ctx, methodOf(handle.form, http.MethodPost), handle.target, payload); err != nil {
		return err
	}
	l.logger.Debugf("performed %s", action)
	return nil
}

// Reset puts the lab back into a starting configuration, when it supports it
func (l *Lab) Reset(ctx context.Context) error {
	if l.resetTarget == "" {
		return nil
	}
	_, err := l.client.Do(ctx, l.resetMethod, l.resetTarget, nil)
	return err
}
