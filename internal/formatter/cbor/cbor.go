// Package cbor writes records as a CBOR sequence (RFC 8742), one data item
// per record.
package cbor

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/jacoelho/remo/internal/formatter"
	"github.com/jacoelho/remo/internal/results"
	"github.com/jacoelho/remo/internal/snapshot"
)

// encMode encodes deterministically with RFC 3339 timestamps.
var encMode cbor.EncMode

func init() {
	var err error
	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}
}

type Formatter struct {
	enc *cbor.Encoder
}

func NewWithWriter(writer io.Writer) formatter.Formatter {
	return &Formatter{enc: encMode.NewEncoder(writer)}
}

func (f *Formatter) Records(batch []snapshot.Record) error {
	for i := range batch {
		if err := f.enc.Encode(batch[i]); err != nil {
			return fmt.Errorf("encode CBOR: %w", err)
		}
	}
	return nil
}

// Summary is not part of the CBOR sequence.
func (f *Formatter) Summary(*results.Summary) error {
	return nil
}
