package stdout

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jacoelho/remo/internal/formatter"
	"github.com/jacoelho/remo/internal/results"
	"github.com/jacoelho/remo/internal/snapshot"
)

// Formatter writes one line per record followed by the run summary.
type Formatter struct {
	writer io.Writer
}

// New creates a new stdout formatter that outputs to stdout.
func New() formatter.Formatter {
	return &Formatter{
		writer: os.Stdout,
	}
}

// NewWithWriter creates a new stdout formatter with a custom writer.
func NewWithWriter(writer io.Writer) formatter.Formatter {
	return &Formatter{
		writer: writer,
	}
}

// Records prints sub-records indented below the line of their parent kind.
func (f *Formatter) Records(batch []snapshot.Record) error {
	var line strings.Builder
	for _, r := range batch {
		line.Reset()
		if r.Sub() {
			line.WriteString("  ")
		}
		for i, field := range r.Fields() {
			if field.Name == "parent_id" {
				continue
			}
			if i == 0 {
				line.WriteString(fmt.Sprint(field.Value))
				continue
			}
			line.WriteByte(' ')
			line.WriteString(field.Name)
			line.WriteByte('=')
			line.WriteString(formatValue(field.Value))
		}
		line.WriteByte('\n')
		if _, err := io.WriteString(f.writer, line.String()); err != nil {
			return err
		}
	}
	return nil
}

func formatValue(v any) string {
	switch v := v.(type) {
	case string:
		return strconv.Quote(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		if v.IsZero() {
			return "-"
		}
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

func (f *Formatter) Summary(s *results.Summary) error {
	return s.FormatText(f.writer)
}
