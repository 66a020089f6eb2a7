package exit

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jacoelho/remo"
)

// Exit codes.
const (
	CodeSuccess = 0
	CodeFailure = 1
	CodeUsage   = 2
	// CodeDecode reports a listing that was fetched but could not be decoded.
	CodeDecode = 3
)

// Result holds the output destination and exit code for program termination.
type Result struct {
	Output   io.Writer
	ExitCode int
	Message  string
}

// Print writes the result message to the configured output destination.
func (r *Result) Print() {
	fmt.Fprint(r.Output, r.Message)
}

// Success creates a successful exit result that outputs to stdout with exit code 0.
func Success(message string) *Result {
	return &Result{
		Output:   os.Stdout,
		ExitCode: CodeSuccess,
		Message:  message,
	}
}

// Error creates an error exit result that outputs to stderr with exit code 1.
func Error(message string) *Result {
	return &Result{
		Output:   os.Stderr,
		ExitCode: CodeFailure,
		Message:  message,
	}
}

// Errorf creates an error exit result with formatted message.
func Errorf(format string, a ...any) *Result {
	return Error(fmt.Sprintf(format, a...))
}

// Usagef reports bad command-line input with exit code 2.
func Usagef(format string, a ...any) *Result {
	return &Result{
		Output:   os.Stderr,
		ExitCode: CodeUsage,
		Message:  fmt.Sprintf(format, a...),
	}
}

// FromError maps a run error to a result. Decoding failures get their own
// exit code so scripts can tell a bad listing from a failed request.
func FromError(err error) *Result {
	if err == nil {
		return Success("")
	}
	r := Errorf("Error: %v\n", err)
	if IsDecodeError(err) {
		r.ExitCode = CodeDecode
	}
	return r
}

var decodeErrors = []error{
	remo.ErrStringTooLong,
	remo.ErrUUIDParse,
	remo.ErrTimestampParse,
	remo.ErrMacAddressParse,
	remo.ErrUnexpectedEnumValue,
	remo.ErrUnknownNewestEventsType,
	remo.ErrNodeTooDeep,
	remo.ErrUnexpectedMapArrayEnd,
	remo.ErrUnexpectedParserState,
	remo.ErrUnexpectedNode,
}

// IsDecodeError reports whether err carries one of the decoder's error kinds.
func IsDecodeError(err error) bool {
	for _, target := range decodeErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
