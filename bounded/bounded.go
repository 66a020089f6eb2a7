// Package bounded provides a fixed-capacity string value.
//
// A String keeps its bytes inline, so records built from it can be reset
// and reused without touching the heap. The capacity of a field is chosen
// by the caller on every Set together with the overflow Policy.
package bounded

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// MaxCapacity is the inline storage of every String in bytes.
const MaxCapacity = 64

// ErrTooLong is returned by Set under the Reject policy.
var ErrTooLong = errors.New("bounded: string exceeds capacity")

// Policy selects what happens when a value does not fit.
type Policy uint8

const (
	// Truncate keeps the leading characters that fit and drops the rest.
	Truncate Policy = iota
	// Reject fails with ErrTooLong and leaves the String unchanged.
	Reject
)

func (p Policy) String() string {
	switch p {
	case Truncate:
		return "truncate"
	case Reject:
		return "reject"
	default:
		return fmt.Sprintf("Policy(%d)", uint8(p))
	}
}

// ParsePolicy maps "truncate" and "reject" to their Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "truncate", "":
		return Truncate, nil
	case "reject":
		return Reject, nil
	default:
		return Truncate, fmt.Errorf("bounded: unknown overflow policy %q", s)
	}
}

// String is a string of at most MaxCapacity bytes. The zero value is empty.
// Two Strings holding the same text compare equal with ==.
type String struct {
	n   uint8
	buf [MaxCapacity]byte
}

// Of returns a String holding s truncated to MaxCapacity.
func Of(s string) String {
	var b String
	_ = b.Set(s, MaxCapacity, Truncate)
	return b
}

// Set stores v in s using at most capacity bytes.
// Truncation happens on character boundaries; a multi-byte character that
// does not fit is dropped along with everything after it.
func (s *String) Set(v string, capacity int, policy Policy) error {
	capacity = min(max(capacity, 0), MaxCapacity)

	n := len(v)
	if n > capacity {
		if policy == Reject {
			return fmt.Errorf("%w: %d bytes, capacity %d", ErrTooLong, len(v), capacity)
		}
		n = 0
		for n < len(v) {
			_, size := utf8.DecodeRuneInString(v[n:])
			if n+size > capacity {
				break
			}
			n += size
		}
	}

	copied := copy(s.buf[:], v[:n])
	if stale := int(s.n); stale > copied {
		clear(s.buf[copied:stale])
	}
	s.n = uint8(copied)
	return nil
}

// Reset empties s.
func (s *String) Reset() {
	clear(s.buf[:s.n])
	s.n = 0
}

// Len returns the number of stored bytes.
func (s *String) Len() int {
	return int(s.n)
}

// String returns a copy of the stored text.
func (s String) String() string {
	return string(s.buf[:s.n])
}

// Bytes returns the stored bytes. The slice aliases s and is only valid
// until s is modified.
func (s *String) Bytes() []byte {
	return s.buf[:s.n]
}

// Equal reports whether s holds exactly v.
func (s *String) Equal(v string) bool {
	return string(s.buf[:s.n]) == v
}
