// Package resp implements encoding and decoding of the RESP2 wire protocol:
// request framing (arrays of bulk strings) and the five reply kinds a
// command may produce.
package resp

import "fmt"

// Kind identifies which of the RESP2 reply kinds a Value holds.
type Kind int

// The RESP2 reply kinds.
const (
	SimpleStringKind Kind = iota
	ErrorKind
	IntegerKind
	BulkStringKind
	ArrayKind
)

// Value is a single RESP2 reply value. Which fields are meaningful depends
// on Kind:
//
//   - SimpleStringKind / ErrorKind: Str
//   - IntegerKind: Int
//   - BulkStringKind: Bulk, unless Null is true (null bulk, "$-1\r\n")
//   - ArrayKind: Array, unless Null is true (null array, "*-1\r\n")
type Value struct {
	Kind  Kind
	Str   string
	Int   int64
	Bulk  []byte
	Array []Value
	Null  bool
}

// SimpleString returns a Value of SimpleStringKind.
func SimpleString(s string) Value { return Value{Kind: SimpleStringKind, Str: s} }

// Error returns a Value of ErrorKind with the given message (no leading "-").
func Error(s string) Value { return Value{Kind: ErrorKind, Str: s} }

// Errorf is a shortcut for Error(fmt.Sprintf(format, args...)).
func Errorf(format string, args ...interface{}) Value {
	return Error(fmt.Sprintf(format, args...))
}

// Integer returns a Value of IntegerKind.
func Integer(i int64) Value { return Value{Kind: IntegerKind, Int: i} }

// Bulk returns a Value of BulkStringKind wrapping b. A nil, non-null b
// encodes as an empty bulk string ("$0\r\n\r\n"); use NullBulk for "$-1\r\n".
func Bulk(b []byte) Value { return Value{Kind: BulkStringKind, Bulk: b} }

// BulkFromString is a shortcut for Bulk([]byte(s)).
func BulkFromString(s string) Value { return Bulk([]byte(s)) }

// NullBulk returns the null bulk string Value ("$-1\r\n").
func NullBulk() Value { return Value{Kind: BulkStringKind, Null: true} }

// Array returns a Value of ArrayKind.
func Array(vs ...Value) Value { return Value{Kind: ArrayKind, Array: vs} }

// NullArray returns the null array Value ("*-1\r\n").
func NullArray() Value { return Value{Kind: ArrayKind, Null: true} }

// Equal reports whether v and o encode to the same wire representation.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case SimpleStringKind, ErrorKind:
		return v.Str == o.Str
	case IntegerKind:
		return v.Int == o.Int
	case BulkStringKind:
		if v.Null != o.Null {
			return false
		}
		return v.Null || string(v.Bulk) == string(o.Bulk)
	case ArrayKind:
		if v.Null != o.Null {
			return false
		}
		if v.Null {
			return true
		}
		if len(v.Array) != len(o.Array) {
			return false
		}
		for i := range v.Array {
			if !v.Array[i].Equal(o.Array[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
