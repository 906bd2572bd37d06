package sheetlock

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// createLockTestWorkbook builds a workbook with one plain sheet, one
// password-protected sheet and one empty sheet.
//
//	Sheet1:  A1 "Name"  B1 "Qty"
//	         A2 "Bolt"  B2 12
//	         A3 =B2*2   B3 (empty)
//	Secret:  A1 "hidden", protected with a password
//	Blank:   no cells
func createLockTestWorkbook(t *testing.T) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { f.Close() })

	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Name"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "Qty"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "Bolt"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", 12))
	require.NoError(t, f.SetCellFormula("Sheet1", "A3", "B2*2"))

	_, err := f.NewSheet("Secret")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Secret", "A1", "hidden"))
	require.NoError(t, f.ProtectSheet("Secret", &excelize.SheetProtectionOptions{Password: "pw"}))

	_, err = f.NewSheet("Blank")
	require.NoError(t, err)
	return f
}

func cellLocked(t *testing.T, f *excelize.File, sheet, cell string) bool {
	t.Helper()
	id, err := f.GetCellStyle(sheet, cell)
	require.NoError(t, err)
	st, err := f.GetStyle(id)
	require.NoError(t, err)
	return st.Protection == nil || st.Protection.Locked
}

func sheetByName(t *testing.T, wb *ExcelizeWorkbook, name string) *excelizeSheet {
	t.Helper()
	ws, err := wb.Worksheet(name)
	require.NoError(t, err)
	return ws.(*excelizeSheet)
}

func TestExcelizeWorkbook_Worksheets(t *testing.T) {
	f := createLockTestWorkbook(t)
	wb := NewExcelizeWorkbook(f)

	sheets, err := wb.Worksheets()
	require.NoError(t, err)
	require.Len(t, sheets, 3)
	assert.Equal(t, "Sheet1", sheets[0].Name())
	assert.Equal(t, "Secret", sheets[1].Name())
	assert.Equal(t, "Blank", sheets[2].Name())

	pw, err := sheets[1].Protection().IsPasswordProtected()
	require.NoError(t, err)
	assert.True(t, pw)
	protected, err := sheets[1].Protection().IsProtected()
	require.NoError(t, err)
	assert.True(t, protected)

	pw, err = sheets[0].Protection().IsPasswordProtected()
	require.NoError(t, err)
	assert.False(t, pw)
	protected, err = sheets[0].Protection().IsProtected()
	require.NoError(t, err)
	assert.False(t, protected)

	_, err = wb.Worksheet("Missing")
	assert.ErrorIs(t, err, ErrSheetNotFound)
}

func TestExcelizeSheet_UsedRange(t *testing.T) {
	f := createLockTestWorkbook(t)
	wb := NewExcelizeWorkbook(f)
	ws := sheetByName(t, wb, "Sheet1")

	rng, ok, err := ws.UsedRange(true)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Sheet1!A1:B3", rng.Address().String())

	values, err := rng.Values()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Name", "Qty"}, {"Bolt", "12"}, {"", ""}}, values)

	formulas, err := rng.Formulas()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"", ""}, {"", ""}, {"B2*2", ""}}, formulas)

	assert.Equal(t, NewCellRef("Sheet1", 2, 1), rng.Cell(2, 1))

	_, ok, err = sheetByName(t, wb, "Blank").UsedRange(true)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExcelizeSheet_UsedRangeOffset(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "C4", "x"))
	require.NoError(t, f.SetCellValue("Sheet1", "E6", "y"))

	styleID, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("Sheet1", "G9", "G9", styleID))

	wb := NewExcelizeWorkbook(f)
	ws := sheetByName(t, wb, "Sheet1")

	rng, ok, err := ws.UsedRange(true)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Sheet1!C4:E6", rng.Address().String())
	assert.Equal(t, NewCellRef("Sheet1", 5, 4), rng.Cell(2, 2))

	values, err := rng.Values()
	require.NoError(t, err)
	assert.Equal(t, "x", values[0][0])
	assert.Equal(t, "y", values[2][2])

	// Formatting alone counts once values-only is off.
	rng, ok, err = ws.UsedRange(false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Sheet1!C4:G9", rng.Address().String())
}

func TestRun_Excelize(t *testing.T) {
	f := createLockTestWorkbook(t)
	wb := NewExcelizeWorkbook(f)

	report, err := Run(wb)
	require.NoError(t, err)
	require.Len(t, report.Sheets, 3)
	assert.Equal(t, StatusProcessed, report.Sheets[0].Status)
	assert.Equal(t, "Sheet1!A1:B3", report.Sheets[0].UsedRange)
	assert.Equal(t, 5, report.Sheets[0].Stats.LockedCells)
	assert.Equal(t, StatusPasswordProtected, report.Sheets[1].Status)
	assert.Equal(t, StatusEmpty, report.Sheets[2].Status)

	for _, cell := range []string{"A1", "B1", "A2", "B2", "A3"} {
		assert.True(t, cellLocked(t, f, "Sheet1", cell), cell)
	}
	assert.False(t, cellLocked(t, f, "Sheet1", "B3"))
	assert.False(t, cellLocked(t, f, "Blank", "D5"), "column default of an empty sheet")

	// The password-protected sheet keeps its original style.
	id, err := f.GetCellStyle("Secret", "A1")
	require.NoError(t, err)
	assert.Zero(t, id)

	for _, name := range []string{"Sheet1", "Secret", "Blank"} {
		protected, err := sheetByName(t, wb, name).Protection().IsProtected()
		require.NoError(t, err)
		assert.True(t, protected, name)
	}
	pw, err := sheetByName(t, wb, "Secret").Protection().IsPasswordProtected()
	require.NoError(t, err)
	assert.True(t, pw)

	issues, err := Verify(wb)
	require.NoError(t, err)
	assert.False(t, HasErrors(issues))
	require.Len(t, issues, 1)
	assert.Equal(t, SeverityInfo, issues[0].Severity)
	assert.Equal(t, "Secret", issues[0].CellRef.Sheet)
}

func TestRun_ExcelizeIdempotent(t *testing.T) {
	f := createLockTestWorkbook(t)
	wb := NewExcelizeWorkbook(f)

	_, err := Run(wb)
	require.NoError(t, err)
	first, err := Describe(wb)
	require.NoError(t, err)

	report, err := Run(wb)
	require.NoError(t, err)
	assert.Equal(t, 5, report.Sheets[0].Stats.LockedCells)
	second, err := Describe(wb)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	issues, err := Verify(wb)
	require.NoError(t, err)
	assert.False(t, HasErrors(issues))
}

func TestRun_ExcelizePreservesFormatting(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Total"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", 3.5))
	bold, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		NumFmt: 2,
	})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("Sheet1", "A1", "B1", bold))

	_, err = Run(NewExcelizeWorkbook(f))
	require.NoError(t, err)

	for _, cell := range []string{"A1", "B1"} {
		id, err := f.GetCellStyle("Sheet1", cell)
		require.NoError(t, err)
		st, err := f.GetStyle(id)
		require.NoError(t, err)
		require.NotNil(t, st.Font)
		assert.True(t, st.Font.Bold, cell)
		assert.Equal(t, 2, st.NumFmt, cell)
		assert.True(t, cellLocked(t, f, "Sheet1", cell), cell)
	}
}

func TestRun_ExcelizeRestoresProtectionOptions(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "x"))
	require.NoError(t, f.ProtectSheet("Sheet1", &excelize.SheetProtectionOptions{
		FormatCells:         true,
		InsertRows:          true,
		SelectLockedCells:   true,
		SelectUnlockedCells: true,
	}))

	wb := NewExcelizeWorkbook(f)
	report, err := Run(wb)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessed, report.Sheets[0].Status)

	prot := sheetByName(t, wb, "Sheet1").protection
	assert.True(t, prot.protected)
	assert.False(t, prot.password)
	assert.True(t, prot.options.FormatCells)
	assert.True(t, prot.options.InsertRows)
	assert.True(t, prot.options.SelectLockedCells)
	assert.False(t, prot.options.DeleteRows)
	assert.False(t, prot.options.Sort)
}

func TestRun_ExcelizeSavedFile(t *testing.T) {
	f := createLockTestWorkbook(t)
	wb := NewExcelizeWorkbook(f)
	_, err := Run(wb)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "locked.xlsx")
	require.NoError(t, wb.Save(path))

	reopened, err := OpenWorkbook(path)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	assert.True(t, cellLocked(t, reopened.File(), "Sheet1", "A3"))
	assert.False(t, cellLocked(t, reopened.File(), "Sheet1", "B3"))

	issues, err := Verify(reopened)
	require.NoError(t, err)
	assert.False(t, HasErrors(issues))

	var buf bytes.Buffer
	require.NoError(t, reopened.Write(&buf))
	fromReader, err := OpenWorkbookReader(&buf)
	require.NoError(t, err)
	defer fromReader.Close()
	out, err := Describe(fromReader)
	require.NoError(t, err)
	assert.Contains(t, out, "Sheet1 [protected]")
}

func TestExcelizeProtection_PasswordRefused(t *testing.T) {
	f := createLockTestWorkbook(t)
	wb := NewExcelizeWorkbook(f)
	prot := sheetByName(t, wb, "Secret").Protection()

	assert.ErrorIs(t, prot.Unprotect(), errPasswordProtected)
	assert.ErrorIs(t, prot.Protect(), errPasswordProtected)
}

func TestExcelizeRange_SetLocked(t *testing.T) {
	f := createLockTestWorkbook(t)
	wb := NewExcelizeWorkbook(f)
	ws := sheetByName(t, wb, "Sheet1")
	require.NoError(t, ws.SetAllLocked(false))

	rng, ok, err := ws.UsedRange(true)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, rng.SetLocked(nil, true))
	require.NoError(t, rng.SetLocked([]CellRef{rng.Cell(0, 0), rng.Cell(0, 1), rng.Cell(2, 1)}, true))

	states, err := rng.LockedStates()
	require.NoError(t, err)
	assert.Equal(t, [][]bool{
		{true, true},
		{false, false},
		{false, true},
	}, states)

	require.NoError(t, rng.SetLocked([]CellRef{rng.Cell(0, 1)}, false))
	assert.False(t, cellLocked(t, f, "Sheet1", "B1"))
}

func TestRun_ExcelizeUnlocksBlankCellsOutsideData(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "x"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", "y"))

	wb := NewExcelizeWorkbook(f)
	_, err := Run(wb)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "locked.xlsx")
	require.NoError(t, wb.Save(path))
	saved, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer saved.Close()

	assert.True(t, cellLocked(t, saved, "Sheet1", "A1"))
	assert.True(t, cellLocked(t, saved, "Sheet1", "B2"))
	for _, cell := range []string{"B1", "A2", "C1", "C2", "Z2", "XFD1", "A50"} {
		assert.False(t, cellLocked(t, saved, "Sheet1", cell), cell)
	}
}

func TestRun_ExcelizeKeepsRowAndColumnDefaults(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	fill, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFFF00"}},
	})
	require.NoError(t, err)
	require.NoError(t, f.SetColStyle("Sheet1", "A:XFD", fill))
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "x"))
	require.NoError(t, f.SetCellValue("Sheet1", "A3", "z"))

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	require.NoError(t, err)
	require.NoError(t, f.SetRowStyle("Sheet1", 2, 2, bold))

	_, err = Run(NewExcelizeWorkbook(f))
	require.NoError(t, err)

	id, err := f.GetCellStyle("Sheet1", "D1")
	require.NoError(t, err)
	st, err := f.GetStyle(id)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Fill.Pattern)
	assert.False(t, cellLocked(t, f, "Sheet1", "D1"))

	id, err = f.GetCellStyle("Sheet1", "D2")
	require.NoError(t, err)
	st, err = f.GetStyle(id)
	require.NoError(t, err)
	require.NotNil(t, st.Font)
	assert.True(t, st.Font.Bold)
	assert.False(t, cellLocked(t, f, "Sheet1", "D2"))

	assert.True(t, cellLocked(t, f, "Sheet1", "A1"))
	assert.True(t, cellLocked(t, f, "Sheet1", "A3"))
}
