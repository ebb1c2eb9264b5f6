package mcfg

// ParamValue is a value for a Param which has been parsed out of a Source.
type ParamValue struct {
	Param Param
	Raw   string
}

// Source parses ParamValues for the given Params out of some configuration
// source (the CLI, the environment, ...). Params for which the Source has no
// value are simply omitted from the returned slice.
type Source interface {
	Parse(params []Param) ([]ParamValue, error)
}

// Sources is a Source which is the concatenation of multiple other Sources.
// Sources are parsed in order, and if more than one provides a value for the
// same Param the later one wins.
type Sources []Source

// Parse implements the Source interface.
func (ss Sources) Parse(params []Param) ([]ParamValue, error) {
	var all []ParamValue
	for _, s := range ss {
		pvs, err := s.Parse(params)
		if err != nil {
			return nil, err
		}
		all = append(all, pvs...)
	}
	return all, nil
}
