// Package filter selects records with boolean expressions such as
//
//	kind == "echonetlite_property" && epc == 231
//
// Expressions see the fields of one record at a time. Names a record does
// not have evaluate to nil.
package filter

import (
	"errors"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/jacoelho/remo/internal/snapshot"
)

// ErrInvalidExpression indicates a filter that does not compile or does not
// evaluate to a boolean.
var ErrInvalidExpression = errors.New("invalid filter expression")

// Filter is a compiled expression. The zero value and a nil *Filter match
// every record.
type Filter struct {
	source  string
	program *vm.Program
}

// Compile parses source. An empty source matches everything.
func Compile(source string) (*Filter, error) {
	if source == "" {
		return &Filter{}, nil
	}

	program, err := expr.Compile(source,
		expr.Env(map[string]any{}),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, err)
	}
	return &Filter{source: source, program: program}, nil
}

// Match evaluates the filter against r.
func (f *Filter) Match(r snapshot.Record) (bool, error) {
	if f == nil || f.program == nil {
		return true, nil
	}

	out, err := expr.Run(f.program, r.Env())
	if err != nil {
		return false, fmt.Errorf("%w: %q: %v", ErrInvalidExpression, f.source, err)
	}
	matched, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %q returned %T", ErrInvalidExpression, f.source, out)
	}
	return matched, nil
}

// Apply returns the records of batch that match, reusing its backing array.
func (f *Filter) Apply(batch []snapshot.Record) ([]snapshot.Record, error) {
	if f == nil || f.program == nil {
		return batch, nil
	}

	kept := batch[:0]
	for _, r := range batch {
		ok, err := f.Match(r)
		if err != nil {
			return nil, err
		}
		if ok {
			kept = append(kept, r)
		}
	}
	return kept, nil
}

func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.source
}
