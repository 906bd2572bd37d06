package sheetlock

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// SheetFilter decides which worksheets take part in a run.
type SheetFilter struct {
	expression string
	program    *vm.Program
}

// CompileSheetFilter compiles a boolean expr-lang expression over the
// variables `name` (sheet name) and `index` (0-based position).
// An empty expression accepts every sheet.
func CompileSheetFilter(expression string) (*SheetFilter, error) {
	if expression == "" {
		return &SheetFilter{}, nil
	}
	program, err := expr.Compile(expression, expr.Env(filterEnv("", 0)), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile sheet filter %q: %w", expression, err)
	}
	return &SheetFilter{expression: expression, program: program}, nil
}

func filterEnv(name string, index int) map[string]any {
	return map[string]any{
		"name":  name,
		"index": index,
	}
}

// Accept evaluates the filter for one sheet.
func (f *SheetFilter) Accept(name string, index int) (bool, error) {
	if f == nil || f.program == nil {
		return true, nil
	}
	result, err := expr.Run(f.program, filterEnv(name, index))
	if err != nil {
		return false, fmt.Errorf("evaluate sheet filter %q: %w", f.expression, err)
	}
	ok, isBool := result.(bool)
	if !isBool {
		return false, fmt.Errorf("sheet filter %q evaluated to %T, expected bool", f.expression, result)
	}
	return ok, nil
}

// String returns the source expression.
func (f *SheetFilter) String() string {
	if f == nil {
		return ""
	}
	return f.expression
}
