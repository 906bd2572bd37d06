package sheetlock

// Workbook exposes the worksheets of a spreadsheet document in workbook order.
type Workbook interface {
	Worksheets() ([]Worksheet, error)
}

// Worksheet is the per-sheet capability set the protector needs.
type Worksheet interface {
	Name() string
	Protection() SheetProtection

	// SetAllLocked sets the locked flag on every cell of the sheet,
	// including cells that hold no data.
	SetAllLocked(locked bool) error

	// UsedRange returns the smallest rectangle holding content. With
	// valuesOnly set, formatting alone does not extend the range. The bool
	// result is false when the sheet is empty.
	UsedRange(valuesOnly bool) (UsedRange, bool, error)
}

// SheetProtection is the sheet-level protection toggle.
type SheetProtection interface {
	IsPasswordProtected() (bool, error)
	IsProtected() (bool, error)
	Protect() error
	Unprotect() error
}

// UsedRange is a rectangular block of a worksheet.
//
// Values and Formulas return parallel grids with the same dimensions as
// Address. Cells without a formula have an empty formula string.
type UsedRange interface {
	Address() AreaRef
	Values() ([][]string, error)
	Formulas() ([][]string, error)

	// Cell maps a range-relative position to an absolute cell reference.
	Cell(row, col int) CellRef

	// SetLocked applies the locked flag to all given cells in one call.
	SetLocked(cells []CellRef, locked bool) error

	// LockedStates reports the locked flag of every cell in the range.
	LockedStates() ([][]bool, error)
}
