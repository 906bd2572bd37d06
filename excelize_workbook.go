package sheetlock

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ExcelizeWorkbook implements Workbook on top of an excelize file.
type ExcelizeWorkbook struct {
	file   *excelize.File
	styles *styleVariants
}

// NewExcelizeWorkbook wraps an open excelize file.
func NewExcelizeWorkbook(f *excelize.File) *ExcelizeWorkbook {
	return &ExcelizeWorkbook{
		file:   f,
		styles: newStyleVariants(f),
	}
}

// OpenWorkbook opens an xlsx file from disk.
func OpenWorkbook(path string) (*ExcelizeWorkbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %q: %w", path, err)
	}
	return NewExcelizeWorkbook(f), nil
}

// OpenWorkbookReader opens an xlsx package from a reader.
func OpenWorkbookReader(r io.Reader) (*ExcelizeWorkbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook reader: %w", err)
	}
	return NewExcelizeWorkbook(f), nil
}

// Worksheets serializes the current workbook state once to read what
// excelize keeps private (sheet protection, formula and styled cell
// positions) and returns the worksheets in workbook order.
func (wb *ExcelizeWorkbook) Worksheets() ([]Worksheet, error) {
	buf, err := wb.file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("snapshot workbook: %w", err)
	}
	parts, err := readPackage(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("read workbook package: %w", err)
	}

	result := make([]Worksheet, 0, len(parts))
	for _, name := range wb.file.GetSheetList() {
		part, ok := parts[name]
		if !ok {
			continue
		}
		ws := &excelizeSheet{wb: wb, name: name, part: part}
		ws.protection = newExcelizeProtection(wb.file, name, part.protection)
		result = append(result, ws)
	}
	return result, nil
}

// Worksheet returns a single worksheet by name.
func (wb *ExcelizeWorkbook) Worksheet(name string) (Worksheet, error) {
	sheets, err := wb.Worksheets()
	if err != nil {
		return nil, err
	}
	for _, ws := range sheets {
		if ws.Name() == name {
			return ws, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
}

// Save writes the workbook to path.
func (wb *ExcelizeWorkbook) Save(path string) error {
	if err := wb.file.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %q: %w", path, err)
	}
	return nil
}

// Write writes the workbook to w.
func (wb *ExcelizeWorkbook) Write(w io.Writer) error {
	return wb.file.Write(w)
}

// Close closes the underlying excelize file.
func (wb *ExcelizeWorkbook) Close() error {
	return wb.file.Close()
}

// File returns the underlying excelize file for advanced operations.
func (wb *ExcelizeWorkbook) File() *excelize.File {
	return wb.file
}

// excelizeProtection tracks protection state across Unprotect/Protect so
// the original allowed actions survive the round trip.
type excelizeProtection struct {
	file      *excelize.File
	sheet     string
	protected bool
	password  bool
	options   *excelize.SheetProtectionOptions
}

func newExcelizeProtection(f *excelize.File, sheet string, info *protectionInfo) *excelizeProtection {
	return &excelizeProtection{
		file:      f,
		sheet:     sheet,
		protected: info.protected(),
		password:  info.passwordProtected(),
		options:   info.options(),
	}
}

var errPasswordProtected = errors.New("sheet is password protected")

func (p *excelizeProtection) IsPasswordProtected() (bool, error) { return p.password, nil }

func (p *excelizeProtection) IsProtected() (bool, error) { return p.protected, nil }

func (p *excelizeProtection) Unprotect() error {
	if p.password {
		return errPasswordProtected
	}
	if err := p.file.UnprotectSheet(p.sheet); err != nil {
		return fmt.Errorf("unprotect: %w", err)
	}
	p.protected = false
	return nil
}

func (p *excelizeProtection) Protect() error {
	if p.password {
		return errPasswordProtected
	}
	opts := *p.options
	if err := p.file.ProtectSheet(p.sheet, &opts); err != nil {
		return fmt.Errorf("protect: %w", err)
	}
	p.protected = true
	return nil
}

type excelizeSheet struct {
	wb         *ExcelizeWorkbook
	name       string
	part       *sheetPart
	protection *excelizeProtection
}

func (s *excelizeSheet) Name() string { return s.name }

func (s *excelizeSheet) Protection() SheetProtection { return s.protection }

// SetAllLocked rewrites row defaults, column defaults and every physical
// cell to the locked or unlocked copy of its style. On a sheet without rows
// column defaults cover A:XFD. Otherwise SetColStyle would fill every row of
// each column, so column defaults stop at the last physical column and rows
// 1..lastRow carry the trailing column style as their own default.
func (s *excelizeSheet) SetAllLocked(locked bool) error {
	f := s.wb.file
	styles := s.wb.styles

	// Column and row styles overwrite cell styles, so read cells first.
	var runs []styleRun
	for _, pos := range s.part.cells {
		cell, err := excelize.CoordinatesToCellName(pos.col, pos.row)
		if err != nil {
			return err
		}
		styleID, err := f.GetCellStyle(s.name, cell)
		if err != nil {
			return fmt.Errorf("read style of %s: %w", cell, err)
		}
		target, err := styles.variant(styleID, locked)
		if err != nil {
			return err
		}
		runs = appendRun(runs, pos.row, pos.col, target)
	}

	if err := s.setRowDefaults(locked); err != nil {
		return err
	}

	limit := MaxColumns
	if s.part.rows > 0 {
		limit = s.part.lastCol
	}
	for _, seg := range colSegments(s.part.cols, limit) {
		target, err := styles.variant(seg.style, locked)
		if err != nil {
			return err
		}
		if target == seg.style {
			continue
		}
		first, err := excelize.ColumnNumberToName(seg.min)
		if err != nil {
			return err
		}
		last, err := excelize.ColumnNumberToName(seg.max)
		if err != nil {
			return err
		}
		if err := f.SetColStyle(s.name, first+":"+last, target); err != nil {
			return fmt.Errorf("set column style %s:%s: %w", first, last, err)
		}
	}

	for _, rs := range s.part.rowStyles {
		target, err := styles.variant(rs.style, locked)
		if err != nil {
			return err
		}
		if err := f.SetRowStyle(s.name, rs.row, rs.row, target); err != nil {
			return fmt.Errorf("set row style %d: %w", rs.row, err)
		}
	}

	return applyRuns(f, s.name, runs)
}

// setRowDefaults gives rows 1..lastRow without a custom format the locked
// or unlocked copy of the style that columns right of the data fall back to.
// SetRowStyle also restyles the row's existing cells, so it runs before the
// column and cell styles are written.
func (s *excelizeSheet) setRowDefaults(locked bool) error {
	segments := colSegments(s.part.cols, MaxColumns)
	trailing := segments[len(segments)-1].style
	target, err := s.wb.styles.variant(trailing, locked)
	if err != nil {
		return err
	}
	if target == trailing {
		return nil
	}

	custom := make(map[int]bool, len(s.part.rowStyles))
	for _, rs := range s.part.rowStyles {
		custom[rs.row] = true
	}
	for _, span := range rowSpans(s.part.lastRow, custom) {
		if err := s.wb.file.SetRowStyle(s.name, span.first, span.last, target); err != nil {
			return fmt.Errorf("set row style %d:%d: %w", span.first, span.last, err)
		}
	}
	return nil
}

// UsedRange returns the bounding box of non-empty values and formulas.
// Without valuesOnly, cells that only carry formatting count as well.
func (s *excelizeSheet) UsedRange(valuesOnly bool) (UsedRange, bool, error) {
	rows, err := s.wb.file.GetRows(s.name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, false, fmt.Errorf("read rows: %w", err)
	}

	box := emptyBox()
	for r, row := range rows {
		for c, v := range row {
			if v != "" {
				box.add(r, c)
			}
		}
	}
	for _, pos := range s.part.formulaCells {
		box.add(pos.row-1, pos.col-1)
	}
	if !valuesOnly {
		for _, pos := range s.part.cells {
			box.add(pos.row-1, pos.col-1)
		}
	}
	if box.empty() {
		return nil, false, nil
	}

	area := NewAreaRef(
		NewCellRef(s.name, box.minRow, box.minCol),
		NewCellRef(s.name, box.maxRow, box.maxCol),
	)
	return &excelizeRange{sheet: s, area: area, rows: rows}, true, nil
}

// bbox is a 0-based bounding box.
type bbox struct {
	minRow, minCol, maxRow, maxCol int
}

func emptyBox() bbox {
	return bbox{minRow: -1, minCol: -1, maxRow: -1, maxCol: -1}
}

func (b *bbox) empty() bool { return b.maxRow < 0 }

func (b *bbox) add(row, col int) {
	if b.empty() {
		*b = bbox{minRow: row, minCol: col, maxRow: row, maxCol: col}
		return
	}
	b.minRow = min(b.minRow, row)
	b.minCol = min(b.minCol, col)
	b.maxRow = max(b.maxRow, row)
	b.maxCol = max(b.maxCol, col)
}

type excelizeRange struct {
	sheet *excelizeSheet
	area  AreaRef
	rows  [][]string
}

func (r *excelizeRange) Address() AreaRef { return r.area }

func (r *excelizeRange) Cell(row, col int) CellRef {
	return NewCellRef(r.sheet.name, r.area.First.Row+row, r.area.First.Col+col)
}

func (r *excelizeRange) grid() [][]string {
	g := make([][]string, r.area.Rows())
	for i := range g {
		g[i] = make([]string, r.area.Cols())
	}
	return g
}

func (r *excelizeRange) Values() ([][]string, error) {
	values := r.grid()
	for i := range values {
		src := r.area.First.Row + i
		if src >= len(r.rows) {
			continue
		}
		for j := range values[i] {
			if c := r.area.First.Col + j; c < len(r.rows[src]) {
				values[i][j] = r.rows[src][c]
			}
		}
	}
	return values, nil
}

func (r *excelizeRange) Formulas() ([][]string, error) {
	formulas := r.grid()
	for _, pos := range r.sheet.part.formulaCells {
		ref := NewCellRef(r.sheet.name, pos.row-1, pos.col-1)
		if !r.area.Contains(ref) {
			continue
		}
		formula, err := r.sheet.wb.file.GetCellFormula(r.sheet.name, ref.CellName())
		if err != nil {
			return nil, fmt.Errorf("read formula of %s: %w", ref.CellName(), err)
		}
		formulas[ref.Row-r.area.First.Row][ref.Col-r.area.First.Col] = formula
	}
	return formulas, nil
}

// SetLocked groups the cells into same-style runs per row and writes one
// style range per run.
func (r *excelizeRange) SetLocked(cells []CellRef, locked bool) error {
	if len(cells) == 0 {
		return nil
	}
	f := r.sheet.wb.file
	styles := r.sheet.wb.styles

	var runs []styleRun
	for _, ref := range cells {
		styleID, err := f.GetCellStyle(r.sheet.name, ref.CellName())
		if err != nil {
			return fmt.Errorf("read style of %s: %w", ref.CellName(), err)
		}
		target, err := styles.variant(styleID, locked)
		if err != nil {
			return err
		}
		if target == styleID {
			continue
		}
		runs = appendRun(runs, ref.Row+1, ref.Col+1, target)
	}
	return applyRuns(f, r.sheet.name, runs)
}

func (r *excelizeRange) LockedStates() ([][]bool, error) {
	f := r.sheet.wb.file
	states := make([][]bool, r.area.Rows())
	for i := range states {
		states[i] = make([]bool, r.area.Cols())
		for j := range states[i] {
			ref := r.Cell(i, j)
			styleID, err := f.GetCellStyle(r.sheet.name, ref.CellName())
			if err != nil {
				return nil, fmt.Errorf("read style of %s: %w", ref.CellName(), err)
			}
			locked, err := r.sheet.wb.styles.isLocked(styleID)
			if err != nil {
				return nil, err
			}
			states[i][j] = locked
		}
	}
	return states, nil
}
