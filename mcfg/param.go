// Package mcfg implements the declaration of configuration parameters on a
// Component tree, and the filling of those parameters' values from external
// sources such as the command line or the process environment.
package mcfg

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/mediocregopher/redikv/mcmp"
	"github.com/mediocregopher/redikv/mtime"
)

// Param describes a single configuration parameter which has been registered
// on a Component via one of this package's constructor functions (String,
// Int, ...).
type Param struct {
	Component *mcmp.Component
	Name      string
	Usage     string
	Required  bool
	IsBool    bool

	// Into is a pointer to the value which will be populated by Populate. Its
	// pre-Populate value is also the Param's default.
	Into interface{}
}

// FullName returns the Param's Component path and Name joined with dashes,
// e.g. "net-listen-addr". This is the name used by SourceCLI.
func (p Param) FullName() string {
	return strings.Join(append(append([]string{}, p.Component.Path()...), p.Name), "-")
}

// ParamOpt is an option which can be passed in to a Param constructor
// (String, Int, ...) to adjust the Param's behavior.
type ParamOpt func(*Param)

// ParamUsage sets the usage string which describes a Param.
func ParamUsage(usage string) ParamOpt {
	return func(p *Param) { p.Usage = usage }
}

// ParamRequired indicates that a Param must be given a value by at least one
// Source, and Populate will error if it is not.
func ParamRequired() ParamOpt {
	return func(p *Param) { p.Required = true }
}

// ParamDefault sets the default value of a Param. If this is not used the
// Param's default is the zero value of its type.
func ParamDefault(into interface{}) ParamOpt {
	return func(p *Param) {
		switch v := p.Into.(type) {
		case *string:
			*v = into.(string)
		case *int:
			*v = into.(int)
		case *int64:
			*v = into.(int64)
		case *bool:
			*v = into.(bool)
		case *mtime.Duration:
			if s, ok := into.(string); ok {
				if err := v.UnmarshalText([]byte(s)); err != nil {
					panic(err)
				}
				return
			}
			*v = into.(mtime.Duration)
		default:
			b, err := json.Marshal(into)
			if err != nil {
				panic(err)
			}
			if err := json.Unmarshal(b, p.Into); err != nil {
				panic(err)
			}
		}
	}
}

var paramsMu sync.Mutex

type paramsKey int

func add(cmp *mcmp.Component, p Param, opts []ParamOpt) {
	for _, opt := range opts {
		opt(&p)
	}

	paramsMu.Lock()
	defer paramsMu.Unlock()
	params, _ := cmp.Value(paramsKey(0)).([]Param)
	cmp.SetValue(paramsKey(0), append(params, p))
}

func localParams(cmp *mcmp.Component) []Param {
	paramsMu.Lock()
	defer paramsMu.Unlock()
	params, _ := cmp.Value(paramsKey(0)).([]Param)
	out := make([]Param, len(params))
	copy(out, params)
	return out
}

// CollectParams returns every Param registered anywhere in cmp's Component
// tree.
func CollectParams(cmp *mcmp.Component) []Param {
	var out []Param
	mcmp.BreadthFirstVisit(cmp, func(c *mcmp.Component) bool {
		out = append(out, localParams(c)...)
		return true
	})
	return out
}

// String returns a *string which will be populated by Populate.
func String(cmp *mcmp.Component, name string, opts ...ParamOpt) *string {
	s := new(string)
	add(cmp, Param{Component: cmp, Name: strings.ToLower(name), Into: s}, opts)
	return s
}

// Int returns an *int which will be populated by Populate.
func Int(cmp *mcmp.Component, name string, opts ...ParamOpt) *int {
	i := new(int)
	add(cmp, Param{Component: cmp, Name: strings.ToLower(name), Into: i}, opts)
	return i
}

// Bool returns a *bool which will be populated by Populate. Unlike other
// Param types, a bool Param given on the CLI with no value (e.g. "--foo")
// is treated as true.
func Bool(cmp *mcmp.Component, name string, opts ...ParamOpt) *bool {
	b := new(bool)
	add(cmp, Param{Component: cmp, Name: strings.ToLower(name), Into: b, IsBool: true}, opts)
	return b
}

// Duration returns an *mtime.Duration which will be populated by Populate,
// parsed with time.ParseDuration (e.g. "500ms", "5s", "1h").
func Duration(cmp *mcmp.Component, name string, opts ...ParamOpt) *mtime.Duration {
	d := new(mtime.Duration)
	add(cmp, Param{Component: cmp, Name: strings.ToLower(name), Into: d}, opts)
	return d
}

// JSON populates into (which must be a pointer) with the JSON-decoded value
// of the named Param once Populate is run. into's pre-Populate value is also
// used as the Param's default.
func JSON(cmp *mcmp.Component, name string, into interface{}, opts ...ParamOpt) {
	add(cmp, Param{Component: cmp, Name: strings.ToLower(name), Into: into}, opts)
}
