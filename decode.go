package remo

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jacoelho/remo/event"
	"github.com/jacoelho/remo/internal/engine"
)

// drive pulls events from src into m until the input ends or an error
// occurs. Errors from src and from the callback are returned unchanged.
func drive[C engine.Context](src event.Source, m *engine.Machine[C, Key]) error {
	for {
		ev, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if err := m.Feed(ev); err != nil {
			return err
		}
	}

	if m.Depth() != 0 {
		return fmt.Errorf("%w: input ended in %s", io.ErrUnexpectedEOF, m.Context())
	}
	return nil
}

func logSummary(logger *slog.Logger, src event.Source, document string, records, subRecords int) {
	attrs := []any{
		"document", document,
		"records", records,
		"sub_records", subRecords,
	}
	if o, ok := src.(interface{ Offset() int64 }); ok {
		attrs = append(attrs, "bytes", o.Offset())
	}
	logger.Debug("decoded", attrs...)
}
