package store

import (
	"strconv"
	"strings"
)

// StreamID is the (ms, seq) pair identifying a stream entry, compared
// lexicographically per spec.md §3.
type StreamID struct {
	MS  int64
	Seq int64
}

// Less reports whether id is strictly less than o.
func (id StreamID) Less(o StreamID) bool {
	if id.MS != o.MS {
		return id.MS < o.MS
	}
	return id.Seq < o.Seq
}

// String renders id as "<ms>-<seq>", the wire form of the XADD reply.
func (id StreamID) String() string {
	return strconv.FormatInt(id.MS, 10) + "-" + strconv.FormatInt(id.Seq, 10)
}

// Field is a single (name, value) pair attached to a stream entry.
type Field struct {
	Name, Value []byte
}

// StreamEntry is a single appended record in a stream.
type StreamEntry struct {
	ID     StreamID
	Fields []Field
}

// stream is the KindStream payload: an append-only, strictly-increasing-id
// log of entries.
type stream struct {
	entries []StreamEntry
}

// StreamIDError is the error kind returned by the XADD validation pipeline.
// Its Error() text is the exact, wire-compatible message spec.md §4.3
// mandates.
type StreamIDError struct {
	msg string
}

func (e StreamIDError) Error() string { return e.msg }

const (
	errBadFormat  = "ERR The ID specified in XADD must be in the format timestamp-sequence_number or timestamp-*"
	errZero       = "ERR The ID specified in XADD must be greater than 0-0"
	errNotGreater = "ERR The ID specified in XADD is equal or smaller than the target stream top item"
)

// parseRequestedID parses the "<ms>-<seq>" or "<ms>-*" grammar from spec.md
// §4.3. autoSeq is true for the "-*" form, in which case Seq is meaningless.
func parseRequestedID(s string) (id StreamID, autoSeq bool, err error) {
	ms, rest, ok := strings.Cut(s, "-")
	if !ok {
		return StreamID{}, false, StreamIDError{errBadFormat}
	}

	msVal, err2 := parseNonNegInt(ms)
	if err2 != nil {
		return StreamID{}, false, StreamIDError{errBadFormat}
	}

	if rest == "*" {
		return StreamID{MS: msVal}, true, nil
	}

	seqVal, err2 := parseNonNegInt(rest)
	if err2 != nil {
		return StreamID{}, false, StreamIDError{errBadFormat}
	}
	return StreamID{MS: msVal, Seq: seqVal}, false, nil
}

func parseNonNegInt(s string) (int64, error) {
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.ParseInt(s, 10, 64)
}

// resolveID runs the full validation/assignment pipeline of spec.md §4.3
// steps 1-4 against the given stream (which may be nil/empty).
func resolveID(s *stream, requested string) (StreamID, error) {
	id, autoSeq, err := parseRequestedID(requested)
	if err != nil {
		return StreamID{}, err
	}

	if !autoSeq && id.MS == 0 && id.Seq == 0 {
		return StreamID{}, StreamIDError{errZero}
	}

	var last StreamID
	hasLast := s != nil && len(s.entries) > 0
	if hasLast {
		last = s.entries[len(s.entries)-1].ID
	}

	if autoSeq {
		switch {
		case !hasLast:
			if id.MS == 0 {
				id.Seq = 1
			} else {
				id.Seq = 0
			}
		case id.MS > last.MS:
			id.Seq = 0
		case id.MS == last.MS:
			id.Seq = last.Seq + 1
		default: // id.MS < last.MS
			return StreamID{}, StreamIDError{errNotGreater}
		}
	}

	if hasLast && !last.Less(id) {
		return StreamID{}, StreamIDError{errNotGreater}
	}

	return id, nil
}

// XAdd validates and assigns an id for a new entry per spec.md §4.3,
// appends it to the stream at key (creating the stream on first append, and
// creating the key itself if absent), and returns the assigned id rendered
// as "<ms>-<seq>". It returns ErrWrongType if key holds a non-stream value.
func (ks *Keyspace) XAdd(key, requestedID string, fields []Field) (string, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	e := ks.getLocked(key)
	if e != nil && e.kind != KindStream {
		return "", ErrWrongType{}
	}

	var s *stream
	if e != nil {
		s = e.stream
	}

	id, err := resolveID(s, requestedID)
	if err != nil {
		return "", err
	}

	if e == nil {
		e = &entry{kind: KindStream, stream: &stream{}}
		ks.entries[key] = e
		s = e.stream
	}
	s.entries = append(s.entries, StreamEntry{ID: id, Fields: fields})

	return id.String(), nil
}

// StreamEntries returns a copy of every entry appended to the stream at
// key, in append (and therefore id) order, or nil if key is absent or not
// a stream.
func (ks *Keyspace) StreamEntries(key string) []StreamEntry {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	e := ks.getLocked(key)
	if e == nil || e.kind != KindStream {
		return nil
	}
	out := make([]StreamEntry, len(e.stream.entries))
	copy(out, e.stream.entries)
	return out
}
