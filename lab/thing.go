package lab

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"

	"golang.org/x/exp/slices"
)

const (
	OpReadProperty = "readproperty"
	OpInvokeAction = "invokeaction"
)

// StringList is a json value that is either a single string or an array of strings
type StringList []string

func (s *StringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = StringList{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("expected a string or a list of strings: %s", err)
	}
	*s = list
	return nil
}

func (s StringList) Contains(v string) bool {
	return slices.Contains(s, v)
}

// Form describes how to invoke an operation over HTTP
type Form struct {
	Href        string     `json:"href"`
	Op          StringList `json:"op,omitempty"`
	Method      string     `json:"htv:methodName,omitempty"`
	ContentType string     `json:"contentType,omitempty"`
}

// DataSchema is the subset of the TD data schema vocabulary the lab needs
type DataSchema struct {
	Types      StringList             `json:"@type,omitempty"`
	Type       string                 `json:"type,omitempty"`
	Properties map[string]*DataSchema `json:"properties,omitempty"`
}

// FieldBySemanticType returns the name of the object property annotated with t
func (d *DataSchema) FieldBySemanticType(t string) (string, bool) {
	if d == nil {
		return "", false
	}
	for _, name := range sortedKeys(d.Properties) {
		if d.Properties[name].Types.Contains(t) {
			return name, true
		}
	}
	return "", false
}

// BooleanFields are the names of the boolean properties of an object schema, sorted
func (d *DataSchema) BooleanFields() []string {
	out := make([]string, 0)
	if d == nil || d.Type != "object" {
		return out
	}
	for _, name := range sortedKeys(d.Properties) {
		if d.Properties[name].Type == "boolean" {
			out = append(out, name)
		}
	}
	return out
}

type PropertyAffordance struct {
	DataSchema
	Forms []*Form `json:"forms"`
}

type ActionAffordance struct {
	Types StringList  `json:"@type,omitempty"`
	Input *DataSchema `json:"input,omitempty"`
	Forms []*Form     `json:"forms"`
}

// ThingDescription is a W3C WoT Thing Description in its JSON serialization
type ThingDescription struct {
	Context    interface{}                    `json:"@context,omitempty"`
	Title      string                         `json:"title"`
	Base       string                         `json:"base,omitempty"`
	Properties map[string]*PropertyAffordance `json:"properties"`
	Actions    map[string]*ActionAffordance   `json:"actions"`
}

func ParseThingDescription(data []byte) (*ThingDescription, error) {
	td := &ThingDescription{}
	if err := json.Unmarshal(data, td); err != nil {
		return nil, fmt.Errorf("error parsing thing description: %s", err)
	}
	return td, nil
}

// PropertyBySemanticType returns the first property, by name, annotated with t
func (td *ThingDescription) PropertyBySemanticType(t string) (*PropertyAffordance, bool) {
	for _, name := range sortedKeys(td.Properties) {
		if td.Properties[name].Types.Contains(t) {
			return td.Properties[name], true
		}
	}
	return nil, false
}

// ActionBySemanticType returns the first action, by name, annotated with t
func (td *ThingDescription) ActionBySemanticType(t string) (*ActionAffordance, bool) {
	for _, name := range sortedKeys(td.Actions) {
		if td.Actions[name].Types.Contains(t) {
			return td.Actions[name], true
		}
	}
	return nil, false
}

// Resolve returns the absolute target of the form
func (td *ThingDescription) Resolve(f *Form) (string, error) {
	href, err := url.Parse(f.Href)
	if err != nil {
		return "", err
	}
	if href.IsAbs() || td.Base == "" {
		return href.String(), nil
	}
	base, err := url.Parse(td.Base)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(href).String(), nil
}

// FormFor returns the first form for the operation. Forms without an op
// get the default operation of their affordance.
func FormFor(forms []*Form, op string, defaultOps ...string) (*Form, bool) {
	for _, f := range forms {
		ops := f.Op
		if len(ops) == 0 {
			ops = defaultOps
		}
		if ops.Contains(op) {
			return f, true
		}
	}
	return nil, false
}

func (p *PropertyAffordance) ReadForm() (*Form, bool) {
	return FormFor(p.Forms, OpReadProperty, OpReadProperty, "writeproperty")
}

func (a *ActionAffordance) InvokeForm() (*Form, bool) {
	return FormFor(a.Forms, OpInvokeAction, OpInvokeAction)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
