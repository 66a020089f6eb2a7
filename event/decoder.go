package event

import (
	"io"

	"github.com/go-json-experiment/json/jsontext"
)

// Decoder is a Source reading JSON text from an io.Reader.
type Decoder struct {
	dec    *jsontext.Decoder
	length int64
}

var _ Source = (*Decoder)(nil)

// NewDecoder returns a Decoder over r. A non-negative length declares the
// total size of the document: the Decoder never reads past it, which keeps
// it from blocking on a connection that carries more than one body.
// Use -1 when the size is unknown.
func NewDecoder(r io.Reader, length int64) *Decoder {
	if length >= 0 {
		r = io.LimitReader(r, length)
	}
	return &Decoder{
		dec:    jsontext.NewDecoder(r, jsontext.AllowDuplicateNames(true)),
		length: length,
	}
}

// Next returns the next structural event.
func (d *Decoder) Next() (Event, error) {
	tok, err := d.dec.ReadToken()
	if err != nil {
		return Event{}, err
	}

	switch tok.Kind() {
	case '{':
		return Event{Kind: StartObject}, nil
	case '}':
		return Event{Kind: EndObject}, nil
	case '[':
		return Event{Kind: StartArray}, nil
	case ']':
		return Event{Kind: EndArray}, nil
	case '"':
		return Event{Kind: d.stringKind(), Scalar: StringScalar(tok.String())}, nil
	case '0':
		s, err := NumberScalar(tok.String())
		if err != nil {
			return Event{}, err
		}
		return Event{Kind: Value, Scalar: s}, nil
	case 't':
		return Event{Kind: Value, Scalar: BoolScalar(true)}, nil
	case 'f':
		return Event{Kind: Value, Scalar: BoolScalar(false)}, nil
	default:
		return Event{Kind: Value, Scalar: Scalar{Kind: Null}}, nil
	}
}

// stringKind tells object names from string values. Inside an object the
// decoder counts names and values separately, so a name leaves an odd count.
func (d *Decoder) stringKind() Kind {
	kind, n := d.dec.StackIndex(d.dec.StackDepth())
	if kind == '{' && n%2 == 1 {
		return Key
	}
	return Value
}

// Offset returns the number of bytes consumed so far.
func (d *Decoder) Offset() int64 {
	return d.dec.InputOffset()
}

// Remaining returns the declared bytes not consumed yet, or -1 when no
// length was declared.
func (d *Decoder) Remaining() int64 {
	if d.length < 0 {
		return -1
	}
	return max(d.length-d.dec.InputOffset(), 0)
}
