package mlog

import (
	"github.com/mediocregopher/redikv/mcmp"
)

type cmpKey int

const (
	cmpKeyLogger cmpKey = iota
	cmpKeyFromLogger
)

// DefaultLogger is the Logger returned by From when no Logger has been set
// with SetLogger on the given Component or any of its ancestors.
var DefaultLogger = NewLogger()

// SetLogger sets the given Logger onto the Component. It will be inherited by
// that Component's children, and can be retrieved (with Component-specific
// namespacing) via From.
func SetLogger(cmp *mcmp.Component, l *Logger) {
	cmp.SetValue(cmpKeyLogger, l)

	var reset func(*mcmp.Component)
	reset = func(cmp *mcmp.Component) {
		cmp.SetValue(cmpKeyFromLogger, nil)
		for _, child := range cmp.Children() {
			reset(child)
		}
	}
	reset(cmp)
}

// GetLogger returns the Logger which was set on cmp, or one of its ancestors,
// via SetLogger. If none was ever set, DefaultLogger is returned.
func GetLogger(cmp *mcmp.Component) *Logger {
	if l, ok := cmp.InheritedValue(cmpKeyLogger); ok {
		return l.(*Logger)
	}
	return DefaultLogger
}

// From returns the result of GetLogger, with its namespace extended to
// reflect cmp's position in the component tree.
func From(cmp *mcmp.Component) *Logger {
	if l, _ := cmp.Value(cmpKeyFromLogger).(*Logger); l != nil {
		return l
	}

	l := GetLogger(cmp).Clone()
	if name, ok := cmp.Name(); ok {
		l = l.WithNamespace(name)
	}
	cmp.SetValue(cmpKeyFromLogger, l)
	return l
}
