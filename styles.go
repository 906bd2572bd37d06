package sheetlock

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/xuri/excelize/v2"
)

type variantKey struct {
	style  int
	locked bool
}

// styleVariants derives locked and unlocked copies of existing cell styles
// so that toggling protection leaves fonts, fills and number formats alone.
type styleVariants struct {
	file     *excelize.File
	variants map[variantKey]int
	locked   map[int]bool
}

func newStyleVariants(f *excelize.File) *styleVariants {
	return &styleVariants{
		file:     f,
		variants: make(map[variantKey]int),
		locked:   make(map[int]bool),
	}
}

// isLocked reports the locked flag of a style. Styles without a protection
// record are locked, as in every spreadsheet application.
func (v *styleVariants) isLocked(styleID int) (bool, error) {
	if locked, ok := v.locked[styleID]; ok {
		return locked, nil
	}
	st, err := v.file.GetStyle(styleID)
	if err != nil {
		return false, fmt.Errorf("read style %d: %w", styleID, err)
	}
	locked := st.Protection == nil || st.Protection.Locked
	v.locked[styleID] = locked
	return locked, nil
}

// variant returns a style identical to styleID except for the locked flag.
func (v *styleVariants) variant(styleID int, locked bool) (int, error) {
	key := variantKey{style: styleID, locked: locked}
	if id, ok := v.variants[key]; ok {
		return id, nil
	}

	st, err := v.file.GetStyle(styleID)
	if err != nil {
		return 0, fmt.Errorf("read style %d: %w", styleID, err)
	}
	current := st.Protection == nil || st.Protection.Locked
	if current == locked {
		v.variants[key] = styleID
		v.locked[styleID] = current
		return styleID, nil
	}

	if st.Protection == nil {
		st.Protection = &excelize.Protection{}
	}
	st.Protection.Locked = locked
	id, err := v.file.NewStyle(st)
	if err != nil {
		return 0, fmt.Errorf("derive style from %d: %w", styleID, err)
	}
	v.variants[key] = id
	v.locked[id] = locked
	return id, nil
}

// styleRun is a horizontal run of cells in one row sharing a target style.
// Coordinates are 1-based.
type styleRun struct {
	row, firstCol, lastCol int
	style                  int
}

// appendRun extends the last run when the cell continues it, otherwise
// starts a new run.
func appendRun(runs []styleRun, row, col, style int) []styleRun {
	if n := len(runs); n > 0 {
		last := &runs[n-1]
		if last.row == row && last.lastCol+1 == col && last.style == style {
			last.lastCol = col
			return runs
		}
	}
	return append(runs, styleRun{row: row, firstCol: col, lastCol: col, style: style})
}

func applyRuns(f *excelize.File, sheet string, runs []styleRun) error {
	for _, run := range runs {
		first, err := excelize.CoordinatesToCellName(run.firstCol, run.row)
		if err != nil {
			return err
		}
		last, err := excelize.CoordinatesToCellName(run.lastCol, run.row)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, first, last, run.style); err != nil {
			return fmt.Errorf("set style %s:%s: %w", first, last, err)
		}
	}
	return nil
}

// colSegments splits columns 1..limit into segments of equal default style,
// using the explicit <col> spans and style 0 for the gaps between them.
func colSegments(spans []colSpan, limit int) []colSpan {
	limit = min(limit, MaxColumns)
	spans = slices.Clone(spans)
	slices.SortFunc(spans, func(a, b colSpan) int { return cmp.Compare(a.min, b.min) })

	var segments []colSpan
	next := 1
	for _, span := range spans {
		lo, hi := span.min, span.max
		if lo < next {
			lo = next
		}
		if hi > limit {
			hi = limit
		}
		if lo > hi {
			continue
		}
		if lo > next {
			segments = append(segments, colSpan{min: next, max: lo - 1})
		}
		segments = append(segments, colSpan{min: lo, max: hi, style: span.style})
		next = hi + 1
	}
	if next <= limit {
		segments = append(segments, colSpan{min: next, max: limit})
	}
	return segments
}

// rowSpan is an inclusive, 1-based range of rows.
type rowSpan struct {
	first, last int
}

// rowSpans splits rows 1..last into maximal runs that skip the given rows.
func rowSpans(last int, skip map[int]bool) []rowSpan {
	var spans []rowSpan
	for row := 1; row <= last; row++ {
		if skip[row] {
			continue
		}
		if n := len(spans); n > 0 && spans[n-1].last == row-1 {
			spans[n-1].last = row
			continue
		}
		spans = append(spans, rowSpan{first: row, last: row})
	}
	return spans
}
