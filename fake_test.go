package sheetlock

import (
	"errors"
	"slices"
)

// recorder collects host calls across sheets in call order.
type recorder struct {
	events []string
}

func (r *recorder) add(sheet, event string) {
	r.events = append(r.events, sheet+":"+event)
}

type fakeWorkbook struct {
	sheets []*fakeSheet
	err    error
}

func (wb *fakeWorkbook) Worksheets() ([]Worksheet, error) {
	if wb.err != nil {
		return nil, wb.err
	}
	result := make([]Worksheet, len(wb.sheets))
	for i, s := range wb.sheets {
		result[i] = s
	}
	return result, nil
}

type fakeSheet struct {
	name string
	prot *fakeProtection
	rng  *fakeRange // nil when the sheet is empty
	rec  *recorder

	allLocked  *bool
	unlockErr  error
	usedErr    error
	usedCalled int
}

// newFakeSheet builds a sheet whose used range starts at A1 and holds the
// given values. Formulas default to empty; every cell starts locked.
func newFakeSheet(rec *recorder, name string, values [][]string) *fakeSheet {
	s := &fakeSheet{
		name: name,
		rec:  rec,
		prot: &fakeProtection{sheet: name, rec: rec},
	}
	if values != nil {
		s.rng = newFakeRange(s, values)
	}
	return s
}

func (s *fakeSheet) Name() string { return s.name }

func (s *fakeSheet) Protection() SheetProtection { return s.prot }

func (s *fakeSheet) SetAllLocked(locked bool) error {
	s.rec.add(s.name, "set_all_locked")
	if s.unlockErr != nil {
		return s.unlockErr
	}
	s.allLocked = &locked
	if s.rng != nil {
		for i := range s.rng.locked {
			for j := range s.rng.locked[i] {
				s.rng.locked[i][j] = locked
			}
		}
	}
	return nil
}

func (s *fakeSheet) UsedRange(valuesOnly bool) (UsedRange, bool, error) {
	s.usedCalled++
	s.rec.add(s.name, "used_range")
	if s.usedErr != nil {
		return nil, false, s.usedErr
	}
	if s.rng == nil {
		return nil, false, nil
	}
	return s.rng, true, nil
}

type fakeProtection struct {
	sheet     string
	rec       *recorder
	password  bool
	protected bool
	protects  int
	protErr   error
}

func (p *fakeProtection) IsPasswordProtected() (bool, error) {
	p.rec.add(p.sheet, "is_password_protected")
	return p.password, nil
}

func (p *fakeProtection) IsProtected() (bool, error) { return p.protected, nil }

func (p *fakeProtection) Unprotect() error {
	p.rec.add(p.sheet, "unprotect")
	if p.password {
		return errors.New("password required")
	}
	p.protected = false
	return nil
}

func (p *fakeProtection) Protect() error {
	p.rec.add(p.sheet, "protect")
	if p.protErr != nil {
		return p.protErr
	}
	p.protected = true
	p.protects++
	return nil
}

type fakeRange struct {
	sheet    *fakeSheet
	origin   CellRef
	values   [][]string
	formulas [][]string
	locked   [][]bool

	calls   [][]CellRef
	lockErr error
}

func newFakeRange(s *fakeSheet, values [][]string) *fakeRange {
	r := &fakeRange{
		sheet:  s,
		origin: NewCellRef(s.name, 0, 0),
		values: values,
	}
	r.formulas = make([][]string, len(values))
	r.locked = make([][]bool, len(values))
	for i, row := range values {
		r.formulas[i] = make([]string, len(row))
		r.locked[i] = make([]bool, len(row))
		for j := range row {
			r.locked[i][j] = true
		}
	}
	return r
}

func (r *fakeRange) Address() AreaRef {
	cols := 0
	for _, row := range r.values {
		cols = max(cols, len(row))
	}
	last := NewCellRef(r.origin.Sheet, r.origin.Row+len(r.values)-1, r.origin.Col+cols-1)
	return NewAreaRef(r.origin, last)
}

func (r *fakeRange) Values() ([][]string, error) { return r.values, nil }

func (r *fakeRange) Formulas() ([][]string, error) { return r.formulas, nil }

func (r *fakeRange) Cell(row, col int) CellRef {
	return NewCellRef(r.origin.Sheet, r.origin.Row+row, r.origin.Col+col)
}

func (r *fakeRange) SetLocked(cells []CellRef, locked bool) error {
	r.sheet.rec.add(r.sheet.name, "set_locked")
	r.calls = append(r.calls, slices.Clone(cells))
	if r.lockErr != nil {
		return r.lockErr
	}
	for _, c := range cells {
		r.locked[c.Row-r.origin.Row][c.Col-r.origin.Col] = locked
	}
	return nil
}

func (r *fakeRange) LockedStates() ([][]bool, error) { return r.locked, nil }

// callSizes returns the number of cells passed to each SetLocked call.
func (r *fakeRange) callSizes() []int {
	sizes := make([]int, len(r.calls))
	for i, c := range r.calls {
		sizes[i] = len(c)
	}
	return sizes
}

// grid returns rows x cols cells all holding v.
func grid(rows, cols int, v string) [][]string {
	g := make([][]string, rows)
	for i := range g {
		g[i] = make([]string, cols)
		for j := range g[i] {
			g[i][j] = v
		}
	}
	return g
}
