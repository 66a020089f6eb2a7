// Package yaml writes each poll as one YAML document.
package yaml

import (
	"fmt"
	"io"

	"github.com/goccy/go-yaml"

	"github.com/jacoelho/remo/internal/formatter"
	"github.com/jacoelho/remo/internal/results"
	"github.com/jacoelho/remo/internal/snapshot"
)

type Formatter struct {
	writer io.Writer
}

func NewWithWriter(writer io.Writer) formatter.Formatter {
	return &Formatter{writer: writer}
}

// Records writes batch as a sequence, separated from the previous poll by a
// document marker.
func (f *Formatter) Records(batch []snapshot.Record) error {
	if len(batch) == 0 {
		return nil
	}
	payload, err := yaml.Marshal(batch)
	if err != nil {
		return fmt.Errorf("encode YAML: %w", err)
	}
	if _, err := io.WriteString(f.writer, "---\n"); err != nil {
		return err
	}
	_, err = f.writer.Write(payload)
	return err
}

// Summary is not part of the YAML stream.
func (f *Formatter) Summary(*results.Summary) error {
	return nil
}
