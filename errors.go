package sheetlock

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch indicates the values and formulas grids of a range differ in size.
var ErrShapeMismatch = errors.New("values and formulas differ in shape")

// ErrNoWorkbook indicates a nil workbook was passed in.
var ErrNoWorkbook = errors.New("no workbook")

// ErrSheetNotFound indicates a sheet name that is not in the workbook.
var ErrSheetNotFound = errors.New("sheet not found")

// Step names the stage of sheet processing that failed.
type Step string

const (
	StepProtection Step = "protection"
	StepUnprotect  Step = "unprotect"
	StepUnlock     Step = "unlock"
	StepScan       Step = "scan"
	StepLock       Step = "lock"
	StepProtect    Step = "protect"
)

// SheetError is returned when a host call fails while processing a sheet.
type SheetError struct {
	Sheet string
	Step  Step
	Err   error
}

func (e *SheetError) Error() string {
	return fmt.Sprintf("sheet %q (%s): %v", e.Sheet, e.Step, e.Err)
}

func (e *SheetError) Unwrap() error {
	return e.Err
}

func newSheetError(sheet string, step Step, err error) *SheetError {
	return &SheetError{Sheet: sheet, Step: step, Err: err}
}
