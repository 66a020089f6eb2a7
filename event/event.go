// Package event defines the structural JSON events consumed by the remo
// decoders and a streaming tokenizer that produces them.
//
// A Source is pulled one event at a time:
//
//	{"id": "x", "users": [true]}
//
// yields StartObject, Key("id"), Value("x"), Key("users"), StartArray,
// Value(true), EndArray, EndObject, followed by io.EOF.
package event

import (
	"fmt"
	"strconv"
)

// Kind identifies a structural event.
type Kind uint8

const (
	StartObject Kind = iota + 1
	EndObject
	StartArray
	EndArray
	Key
	Value
)

func (k Kind) String() string {
	switch k {
	case StartObject:
		return "StartObject"
	case EndObject:
		return "EndObject"
	case StartArray:
		return "StartArray"
	case EndArray:
		return "EndArray"
	case Key:
		return "Key"
	case Value:
		return "Value"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ScalarKind is the primitive JSON type of a Scalar.
type ScalarKind uint8

const (
	Null ScalarKind = iota
	Bool
	Number
	String
)

func (k ScalarKind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	default:
		return fmt.Sprintf("ScalarKind(%d)", uint8(k))
	}
}

// Scalar is a JSON primitive carried by Key and Value events.
type Scalar struct {
	Kind ScalarKind
	Str  string
	Bool bool

	// Float holds every Number. Int is set as well when the literal is an
	// integer that fits in an int64.
	Float float64
	Int   int64
	IsInt bool
}

// StringScalar returns a String scalar.
func StringScalar(s string) Scalar {
	return Scalar{Kind: String, Str: s}
}

// BoolScalar returns a Bool scalar.
func BoolScalar(b bool) Scalar {
	return Scalar{Kind: Bool, Bool: b}
}

// FloatScalar returns a non-integer Number scalar.
func FloatScalar(f float64) Scalar {
	return Scalar{Kind: Number, Float: f}
}

// IntScalar returns an integer Number scalar.
func IntScalar(i int64) Scalar {
	return Scalar{Kind: Number, Float: float64(i), Int: i, IsInt: true}
}

// NumberScalar parses a JSON number literal.
func NumberScalar(literal string) (Scalar, error) {
	if i, err := strconv.ParseInt(literal, 10, 64); err == nil {
		return IntScalar(i), nil
	}
	f, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return Scalar{}, fmt.Errorf("event: invalid number %q: %w", literal, err)
	}
	return FloatScalar(f), nil
}

func (s Scalar) String() string {
	switch s.Kind {
	case Bool:
		return strconv.FormatBool(s.Bool)
	case Number:
		if s.IsInt {
			return strconv.FormatInt(s.Int, 10)
		}
		return strconv.FormatFloat(s.Float, 'g', -1, 64)
	case String:
		return strconv.Quote(s.Str)
	default:
		return "null"
	}
}

// Event is a single structural event. Scalar is only meaningful for Key and
// Value events.
type Event struct {
	Kind   Kind
	Scalar Scalar
}

func (e Event) String() string {
	switch e.Kind {
	case Key, Value:
		return e.Kind.String() + "(" + e.Scalar.String() + ")"
	default:
		return e.Kind.String()
	}
}

// Source yields events in document order and returns io.EOF once the input
// is exhausted. Any other error is final.
type Source interface {
	Next() (Event, error)
}
