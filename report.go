package sheetlock

// SheetStatus records what a run did with a worksheet.
type SheetStatus string

const (
	StatusProcessed         SheetStatus = "processed"
	StatusEmpty             SheetStatus = "empty"
	StatusPasswordProtected SheetStatus = "password_protected"
	StatusFiltered          SheetStatus = "filtered"
)

// SheetReport is the outcome for one worksheet.
type SheetReport struct {
	Name      string      `json:"name" yaml:"name"`
	Status    SheetStatus `json:"status" yaml:"status"`
	UsedRange string      `json:"used_range,omitempty" yaml:"used_range,omitempty"`
	Stats     BatchStats  `json:"stats" yaml:"stats"`
}

// Report lists per-sheet outcomes in workbook order.
type Report struct {
	Sheets []SheetReport `json:"sheets" yaml:"sheets"`
}

// Count returns how many sheets ended with the given status.
func (r *Report) Count(status SheetStatus) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, s := range r.Sheets {
		if s.Status == status {
			n++
		}
	}
	return n
}

// LockedCells returns the number of cells locked across all sheets.
func (r *Report) LockedCells() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, s := range r.Sheets {
		n += s.Stats.LockedCells
	}
	return n
}
