package formatter

import (
	"fmt"

	"github.com/jacoelho/remo/internal/results"
	"github.com/jacoelho/remo/internal/snapshot"
)

// Formatter writes decoded records. Implementations own their output device.
type Formatter interface {
	// Records writes the records emitted by one poll.
	Records(batch []snapshot.Record) error

	// Summary writes the run summary once polling ends. Formats meant for
	// machines may ignore it.
	Summary(s *results.Summary) error
}

// Format selects a Formatter implementation.
type Format int

const (
	FormatText Format = iota
	FormatYAML
	FormatCBOR
	FormatTemplate
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatCBOR:
		return "cbor"
	case FormatTemplate:
		return "template"
	default:
		return "text"
	}
}

// ParseFormat accepts "text", "yaml", "cbor" and "template".
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "text":
		return FormatText, nil
	case "yaml":
		return FormatYAML, nil
	case "cbor":
		return FormatCBOR, nil
	case "template":
		return FormatTemplate, nil
	default:
		return FormatText, fmt.Errorf("unknown output format %q (want text, yaml, cbor or template)", s)
	}
}

// UnmarshalText lets a Format be read from configuration files.
func (f *Format) UnmarshalText(b []byte) error {
	parsed, err := ParseFormat(string(b))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
