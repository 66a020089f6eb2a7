// Package templated renders each record through a user-supplied template.
package templated

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/jacoelho/remo/internal/formatter"
	"github.com/jacoelho/remo/internal/results"
	"github.com/jacoelho/remo/internal/snapshot"
	rtemplate "github.com/jacoelho/remo/internal/template"
)

type Formatter struct {
	writer io.Writer
	tmpl   *template.Template
}

// Parse compiles text for use with NewWithWriter. A trailing newline is
// added when text has none so each record ends its own line.
func Parse(text string) (*template.Template, error) {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return rtemplate.Parse("record", text)
}

func NewWithWriter(writer io.Writer, tmpl *template.Template) formatter.Formatter {
	return &Formatter{writer: writer, tmpl: tmpl}
}

// Records executes the template once per record with the record's fields.
func (f *Formatter) Records(batch []snapshot.Record) error {
	for _, r := range batch {
		if err := f.tmpl.Execute(f.writer, r.Env()); err != nil {
			return fmt.Errorf("render %s: %w", r.Kind, err)
		}
	}
	return nil
}

// Summary is left to the template's author.
func (f *Formatter) Summary(*results.Summary) error {
	return nil
}
