package sheetlock

import (
	"fmt"
	"strings"
)

// Describe returns a human-readable summary of every worksheet: its
// protection state, used range, and how many cells hold content or are
// locked. Useful for checking a workbook before and after a run.
func Describe(wb Workbook) (string, error) {
	if wb == nil {
		return "", ErrNoWorkbook
	}
	sheets, err := wb.Worksheets()
	if err != nil {
		return "", fmt.Errorf("list worksheets: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Workbook: %d sheet(s)\n", len(sheets))
	for _, ws := range sheets {
		if err := describeSheet(&b, ws); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func describeSheet(b *strings.Builder, ws Worksheet) error {
	name := ws.Name()
	state, err := protectionState(ws.Protection())
	if err != nil {
		return newSheetError(name, StepProtection, err)
	}
	fmt.Fprintf(b, "%s [%s]\n", name, state)

	rng, ok, err := ws.UsedRange(true)
	if err != nil {
		return newSheetError(name, StepScan, err)
	}
	if !ok {
		b.WriteString("  no used range\n")
		return nil
	}

	values, err := rng.Values()
	if err != nil {
		return newSheetError(name, StepScan, err)
	}
	formulas, err := rng.Formulas()
	if err != nil {
		return newSheetError(name, StepScan, err)
	}
	locked, err := rng.LockedStates()
	if err != nil {
		return newSheetError(name, StepScan, err)
	}

	var content, lockedCells, formulaCells int
	for row := range values {
		for col := range values[row] {
			if HasContent(values[row][col], formulas[row][col]) {
				content++
			}
			if formulas[row][col] != "" {
				formulaCells++
			}
			if locked[row][col] {
				lockedCells++
			}
		}
	}
	addr := rng.Address()
	fmt.Fprintf(b, "  used range %s %s\n", addr.First.CellName()+":"+addr.Last.CellName(), addr.Size())
	fmt.Fprintf(b, "  content cells: %d (formulas: %d)\n", content, formulaCells)
	fmt.Fprintf(b, "  locked cells: %d\n", lockedCells)
	return nil
}

func protectionState(p SheetProtection) (string, error) {
	pw, err := p.IsPasswordProtected()
	if err != nil {
		return "", err
	}
	if pw {
		return "password protected", nil
	}
	protected, err := p.IsProtected()
	if err != nil {
		return "", err
	}
	if protected {
		return "protected", nil
	}
	return "unprotected", nil
}
