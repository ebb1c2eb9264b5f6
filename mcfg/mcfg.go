package mcfg

import (
	"encoding"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mediocregopher/redikv/mcmp"
)

// Populate fills in the values of every Param registered anywhere in cmp's
// Component tree, using src. If src is nil, only default values are used,
// and Populate will error if any Param is Required.
//
// Populate may be called more than once on the same Component tree; each
// call only affects Params provided a value by the given Source.
func Populate(cmp *mcmp.Component, src Source) error {
	params := CollectParams(cmp)

	var pvs []ParamValue
	if src != nil {
		var err error
		if pvs, err = src.Parse(params); err != nil {
			return err
		}
	}

	// last value for a given Param wins
	latest := map[string]ParamValue{}
	for _, pv := range pvs {
		latest[pv.Param.FullName()] = pv
	}

	for _, p := range params {
		pv, ok := latest[p.FullName()]
		if !ok {
			if p.Required {
				return fmt.Errorf("required parameter --%s is not set", p.FullName())
			}
			continue
		}
		if err := fill(p, pv.Raw); err != nil {
			return fmt.Errorf("parameter --%s: %w", p.FullName(), err)
		}
	}

	return nil
}

func fill(p Param, raw string) error {
	if tu, ok := p.Into.(encoding.TextUnmarshaler); ok {
		return tu.UnmarshalText([]byte(raw))
	}

	switch into := p.Into.(type) {
	case *string:
		*into = raw
		return nil
	case *int:
		i, err := strconv.Atoi(raw)
		if err != nil {
			return err
		}
		*into = i
		return nil
	case *int64:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		*into = i
		return nil
	case *bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		*into = b
		return nil
	default:
		return json.Unmarshal([]byte(raw), p.Into)
	}
}
