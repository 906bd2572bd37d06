package sheetlock

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// MaxColumns is the number of columns in an xlsx worksheet (A..XFD).
const MaxColumns = 16384

// CellRef identifies a single cell in a worksheet.
type CellRef struct {
	Sheet string // sheet name (empty = unqualified)
	Row   int    // 0-based row index
	Col   int    // 0-based column index
}

// NewCellRef creates a CellRef with explicit sheet, row, col.
func NewCellRef(sheet string, row, col int) CellRef {
	return CellRef{Sheet: sheet, Row: row, Col: col}
}

// String formats the CellRef as "Sheet1!A1" or "A1" if no sheet.
func (c CellRef) String() string {
	if c.Sheet != "" {
		return quoteSheet(c.Sheet) + "!" + c.CellName()
	}
	return c.CellName()
}

// CellName returns just the cell part like "A1" without sheet name.
// Coordinates outside the worksheet grid fall back to R1C1 notation.
func (c CellRef) CellName() string {
	name, err := excelize.CoordinatesToCellName(c.Col+1, c.Row+1)
	if err != nil {
		return fmt.Sprintf("R%dC%d", c.Row+1, c.Col+1)
	}
	return name
}

func quoteSheet(name string) string {
	if strings.ContainsAny(name, " '!-") {
		return "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	return name
}

// AreaRef is a rectangular block of cells between two corners (inclusive).
type AreaRef struct {
	First CellRef
	Last  CellRef
}

// NewAreaRef creates an AreaRef from two cell references.
func NewAreaRef(first, last CellRef) AreaRef {
	return AreaRef{First: first, Last: last}
}

// String formats the AreaRef as "Sheet1!A1:C5" or "A1:C5".
func (a AreaRef) String() string {
	return a.First.String() + ":" + a.Last.CellName()
}

// Rows returns the number of rows covered by the area.
func (a AreaRef) Rows() int { return a.Last.Row - a.First.Row + 1 }

// Cols returns the number of columns covered by the area.
func (a AreaRef) Cols() int { return a.Last.Col - a.First.Col + 1 }

// Size formats the area dimensions as "(colsxrows)".
func (a AreaRef) Size() string {
	return fmt.Sprintf("(%dx%d)", a.Cols(), a.Rows())
}

// Contains reports whether ref lies inside the area.
func (a AreaRef) Contains(ref CellRef) bool {
	if a.First.Sheet != "" && ref.Sheet != "" && a.First.Sheet != ref.Sheet {
		return false
	}
	return ref.Row >= a.First.Row && ref.Row <= a.Last.Row &&
		ref.Col >= a.First.Col && ref.Col <= a.Last.Col
}
