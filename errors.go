package remo

import (
	"errors"

	"github.com/jacoelho/remo/bounded"
	"github.com/jacoelho/remo/internal/engine"
)

// Every error below aborts the decode in progress. Unknown keys, scalars of
// an unexpected kind and unknown subtrees are not errors and are skipped.
var (
	// ErrStringTooLong indicates a string field exceeded its capacity under
	// the bounded.Reject policy.
	ErrStringTooLong = bounded.ErrTooLong

	ErrUUIDParse       = errors.New("remo: malformed UUID")
	ErrTimestampParse  = errors.New("remo: malformed timestamp")
	ErrMacAddressParse = errors.New("remo: malformed MAC address")

	// ErrUnexpectedEnumValue indicates an appliance type outside the known set.
	ErrUnexpectedEnumValue = errors.New("remo: unexpected enum value")

	// ErrUnknownNewestEventsType indicates an unknown sensor group under newest_events.
	ErrUnknownNewestEventsType = errors.New("remo: unknown newest_events type")

	ErrNodeTooDeep           = engine.ErrNodeTooDeep
	ErrUnexpectedMapArrayEnd = engine.ErrUnexpectedMapArrayEnd

	// ErrUnexpectedParserState indicates the active sub-record does not match
	// the context being parsed. It signals a bug, not bad input.
	ErrUnexpectedParserState = errors.New("remo: unexpected parser state")

	// ErrUnexpectedNode is the catch-all for events a context does not accept.
	// The wrapping error carries a short description of the context and event.
	ErrUnexpectedNode = engine.ErrUnexpectedNode

	// ErrDecoderBusy is returned when a decoder is used again from inside its
	// own callback.
	ErrDecoderBusy = errors.New("remo: decoder already in use")
)
