package remo

import (
	"log/slog"

	"github.com/jacoelho/remo/bounded"
)

// MaxDepth is the number of containers that may be open at once.
const MaxDepth = 10

// Field capacities in bytes.
const (
	MaxFirmwareVersionLen  = 48
	MaxNicknameLen         = 48
	MaxModelNameLen        = 64
	MaxDeviceNameLen       = 48
	MaxManufacturerLen     = 32
	MaxRemoteNameLen       = 32
	MaxSeriesLen           = 32
	MaxImageLen            = 32
	MaxCountryLen          = 8
	MaxEchonetLiteNameLen  = 64
	MaxEchonetLiteValueLen = 16
	SerialNumberLen        = 14
)

// Options configures a decoder. The zero value truncates long strings and
// does not log.
type Options struct {
	// Overflow selects what happens to strings longer than their field.
	Overflow bounded.Policy

	// Logger receives debug records about skipped subtrees and a summary
	// once a document is decoded.
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}
