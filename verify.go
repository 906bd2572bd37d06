package sheetlock

import (
	"fmt"
)

// Severity indicates the severity of a verification issue.
type Severity int

const (
	SeverityError   Severity = iota // A cell's lock state disagrees with its content
	SeverityWarning                 // The sheet is not protected
	SeverityInfo                    // The sheet was not checked
)

// Issue is a single finding from Verify.
type Issue struct {
	Severity Severity
	CellRef  CellRef
	Message  string
}

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "WARN"
	case SeverityInfo:
		return "INFO"
	default:
		return "ERROR"
	}
}

// String formats the issue as "[ERROR] Sheet1!A2: message".
func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s: %s", i.Severity, i.CellRef, i.Message)
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Verify checks, without changing anything, that every eligible sheet is
// protected and that inside its used range exactly the cells with content
// are locked. Password-protected sheets are reported and not inspected.
func Verify(wb Workbook, opts ...Option) ([]Issue, error) {
	p, err := NewProtector(opts...)
	if err != nil {
		return nil, err
	}
	return p.Verify(wb)
}

// Verify runs the checks with the protector's sheet filter.
func (p *Protector) Verify(wb Workbook) ([]Issue, error) {
	if wb == nil {
		return nil, ErrNoWorkbook
	}
	sheets, err := wb.Worksheets()
	if err != nil {
		return nil, fmt.Errorf("list worksheets: %w", err)
	}

	var issues []Issue
	for i, ws := range sheets {
		name := ws.Name()
		ok, err := p.filter.Accept(name, i)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		sheetIssues, err := verifySheet(ws)
		if err != nil {
			return nil, err
		}
		issues = append(issues, sheetIssues...)
	}
	return issues, nil
}

func verifySheet(ws Worksheet) ([]Issue, error) {
	name := ws.Name()
	origin := NewCellRef(name, 0, 0)
	protection := ws.Protection()

	pw, err := protection.IsPasswordProtected()
	if err != nil {
		return nil, newSheetError(name, StepProtection, err)
	}
	if pw {
		return []Issue{{Severity: SeverityInfo, CellRef: origin, Message: "password protected, not inspected"}}, nil
	}

	var issues []Issue
	protected, err := protection.IsProtected()
	if err != nil {
		return nil, newSheetError(name, StepProtection, err)
	}
	if !protected {
		issues = append(issues, Issue{Severity: SeverityWarning, CellRef: origin, Message: "sheet is not protected"})
	}

	rng, ok, err := ws.UsedRange(true)
	if err != nil {
		return nil, newSheetError(name, StepScan, err)
	}
	if !ok {
		return issues, nil
	}
	values, err := rng.Values()
	if err != nil {
		return nil, newSheetError(name, StepScan, err)
	}
	formulas, err := rng.Formulas()
	if err != nil {
		return nil, newSheetError(name, StepScan, err)
	}
	if err := checkShape(values, formulas); err != nil {
		return nil, newSheetError(name, StepScan, err)
	}
	locked, err := rng.LockedStates()
	if err != nil {
		return nil, newSheetError(name, StepScan, err)
	}

	for row := range values {
		for col := range values[row] {
			content := HasContent(values[row][col], formulas[row][col])
			switch {
			case content && !locked[row][col]:
				issues = append(issues, Issue{Severity: SeverityError, CellRef: rng.Cell(row, col), Message: "cell has content but is unlocked"})
			case !content && locked[row][col]:
				issues = append(issues, Issue{Severity: SeverityError, CellRef: rng.Cell(row, col), Message: "empty cell is locked"})
			}
		}
	}
	return issues, nil
}
