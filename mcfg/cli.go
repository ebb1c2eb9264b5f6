package mcfg

import (
	"fmt"
	"os"
	"strings"
)

// SourceCLI is a Source which parses configuration out of command-line
// arguments, in "--name value" or "--name=value" form. Boolean Params may be
// given as a bare "--name" flag, which is equivalent to "--name=true".
type SourceCLI struct {
	// Args defaults to os.Args[1:] if nil.
	Args []string
}

// Parse implements the Source interface.
func (cli *SourceCLI) Parse(params []Param) ([]ParamValue, error) {
	args := cli.Args
	if args == nil {
		args = os.Args[1:]
	}

	byName := make(map[string]Param, len(params))
	for _, p := range params {
		byName[p.FullName()] = p
	}

	var pvs []ParamValue
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			return nil, fmt.Errorf("unexpected argument %q", arg)
		}
		arg = strings.TrimPrefix(arg, "--")

		name, val, hasVal := arg, "", false
		if eq := strings.IndexByte(arg, '='); eq >= 0 {
			name, val, hasVal = arg[:eq], arg[eq+1:], true
		}

		p, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown flag --%s", name)
		}

		if !hasVal {
			if p.IsBool {
				val = "true"
			} else if i+1 < len(args) {
				i++
				val = args[i]
			} else {
				return nil, fmt.Errorf("flag --%s requires a value", name)
			}
		}

		pvs = append(pvs, ParamValue{Param: p, Raw: val})
	}

	return pvs, nil
}
