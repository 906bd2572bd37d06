package sheetlock

import (
	"fmt"
	"log/slog"
)

// Protector locks the content cells of every unprotected sheet and leaves
// the sheet protected afterwards.
type Protector struct {
	opts   *Options
	filter *SheetFilter
	log    *slog.Logger
}

// NewProtector creates a Protector with the given options.
func NewProtector(opts ...Option) (*Protector, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.rowsPerChunk <= 0 {
		return nil, fmt.Errorf("rows per chunk must be positive, got %d", o.rowsPerChunk)
	}
	if o.byteThreshold <= 0 {
		return nil, fmt.Errorf("byte threshold must be positive, got %d", o.byteThreshold)
	}
	if o.rowSizer == nil {
		o.rowSizer = ApproxRowSize
	}
	filter, err := CompileSheetFilter(o.sheetFilter)
	if err != nil {
		return nil, err
	}
	log := o.logger
	if log == nil {
		log = slog.Default()
	}
	return &Protector{opts: o, filter: filter, log: log}, nil
}

// Run processes wb with a Protector built from opts.
func Run(wb Workbook, opts ...Option) (*Report, error) {
	p, err := NewProtector(opts...)
	if err != nil {
		return nil, err
	}
	return p.Run(wb)
}

// Run walks the worksheets in workbook order. Password-protected sheets are
// skipped untouched; every other sheet is unprotected, fully unlocked, has
// its content cells locked and is protected again. The first host error
// stops the run; the report covers the sheets handled so far.
func (p *Protector) Run(wb Workbook) (*Report, error) {
	if wb == nil {
		return nil, ErrNoWorkbook
	}
	sheets, err := wb.Worksheets()
	if err != nil {
		return nil, fmt.Errorf("list worksheets: %w", err)
	}

	report := &Report{}
	for i, ws := range sheets {
		name := ws.Name()
		log := p.log.With("sheet", name)
		log.Info("processing sheet")

		ok, err := p.filter.Accept(name, i)
		if err != nil {
			return report, err
		}
		if !ok {
			log.Info("sheet filtered", "filter", p.filter.String())
			report.Sheets = append(report.Sheets, SheetReport{Name: name, Status: StatusFiltered})
			continue
		}

		sr, err := p.protectSheet(ws, log)
		report.Sheets = append(report.Sheets, sr)
		if err != nil {
			return report, err
		}
	}

	p.log.Info("processing done", "sheets", len(sheets), "locked_cells", report.LockedCells())
	return report, nil
}

func (p *Protector) protectSheet(ws Worksheet, log *slog.Logger) (SheetReport, error) {
	name := ws.Name()
	sr := SheetReport{Name: name}
	protection := ws.Protection()

	pw, err := protection.IsPasswordProtected()
	if err != nil {
		return sr, newSheetError(name, StepProtection, err)
	}
	if pw {
		log.Info("password protected, skip sheet")
		sr.Status = StatusPasswordProtected
		return sr, nil
	}

	if err := protection.Unprotect(); err != nil {
		return sr, newSheetError(name, StepUnprotect, err)
	}
	if err := ws.SetAllLocked(false); err != nil {
		return sr, newSheetError(name, StepUnlock, err)
	}
	if err := p.processSheet(ws, &sr, log); err != nil {
		return sr, err
	}
	if err := protection.Protect(); err != nil {
		return sr, newSheetError(name, StepProtect, err)
	}
	return sr, nil
}

// processSheet locks the content cells of the sheet's used range.
func (p *Protector) processSheet(ws Worksheet, sr *SheetReport, log *slog.Logger) error {
	name := ws.Name()
	rng, ok, err := ws.UsedRange(true)
	if err != nil {
		return newSheetError(name, StepScan, err)
	}
	if !ok {
		log.Info("no used range found")
		sr.Status = StatusEmpty
		return nil
	}
	sr.UsedRange = rng.Address().String()

	values, err := rng.Values()
	if err != nil {
		return newSheetError(name, StepScan, fmt.Errorf("read values: %w", err))
	}
	formulas, err := rng.Formulas()
	if err != nil {
		return newSheetError(name, StepScan, fmt.Errorf("read formulas: %w", err))
	}
	log.Info("processing values and formulas", "range", sr.UsedRange)

	stats, err := LockCellsWithContent(rng, values, formulas, p.opts.batchConfig(log))
	sr.Stats = stats
	if err != nil {
		return newSheetError(name, StepLock, err)
	}
	sr.Status = StatusProcessed
	return nil
}
