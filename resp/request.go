package resp

// Request is a single parsed inbound frame: a command name (uppercased) and
// its byte-exact arguments, per spec.md §4.1.
type Request struct {
	Command string
	Args    [][]byte
}
