package sheetlock

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"unicode/utf16"
)

const (
	// DefaultRowsPerChunk is the number of rows scanned before an unconditional flush.
	DefaultRowsPerChunk = 1000
	// DefaultByteThreshold is the accumulated row size that triggers an early flush.
	DefaultByteThreshold = 10000
)

// RowSizer estimates the payload size of one row of cell values.
type RowSizer func(row []string) int

// ApproxRowSize serializes the row to a JSON array, serializes that text
// again as a JSON string and returns its length in UTF-16 code units.
// The figure is a size estimate, not a byte count.
func ApproxRowSize(row []string) int {
	n := 0
	for _, r := range string(encodeString(string(encodeRow(row)))) {
		n += utf16.RuneLen(r)
	}
	return n
}

// ExactRowSize returns the UTF-8 byte length of the row's JSON encoding.
func ExactRowSize(row []string) int {
	return len(encodeRow(row))
}

// encodeRow encodes a row as a JSON array; a nil row is an empty array.
func encodeRow(row []string) []byte {
	if row == nil {
		row = []string{}
	}
	return encodeJSON(row)
}

func encodeString(s string) []byte {
	return encodeJSON(s)
}

// encodeJSON encodes without HTML escaping. Strings and string slices
// cannot fail to encode: invalid UTF-8 is written as U+FFFD.
func encodeJSON(v any) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		panic(fmt.Sprintf("encode %T: %v", v, err))
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
}

// BatchConfig bounds the size of each SetLocked call.
type BatchConfig struct {
	RowsPerChunk  int
	ByteThreshold int
	RowSizer      RowSizer
	Logger        *slog.Logger
}

// DefaultBatchConfig returns the 1000-row / 10000-unit policy with the approximate sizer.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		RowsPerChunk:  DefaultRowsPerChunk,
		ByteThreshold: DefaultByteThreshold,
		RowSizer:      ApproxRowSize,
	}
}

// BatchStats summarizes one LockCellsWithContent pass.
type BatchStats struct {
	Rows             int `json:"rows" yaml:"rows"`
	Chunks           int `json:"chunks" yaml:"chunks"`
	Flushes          int `json:"flushes" yaml:"flushes"`
	ThresholdFlushes int `json:"threshold_flushes" yaml:"threshold_flushes"`
	LockedCells      int `json:"locked_cells" yaml:"locked_cells"`
}

// LockCellsWithContent locks every cell of rng whose value or formula is
// non-empty. Rows are walked in chunks of cfg.RowsPerChunk; pending cells are
// flushed when the accumulated row size reaches cfg.ByteThreshold and
// unconditionally at the end of every chunk.
func LockCellsWithContent(rng UsedRange, values, formulas [][]string, cfg BatchConfig) (BatchStats, error) {
	var stats BatchStats
	if err := checkShape(values, formulas); err != nil {
		return stats, err
	}
	if cfg.RowsPerChunk <= 0 {
		cfg.RowsPerChunk = DefaultRowsPerChunk
	}
	if cfg.ByteThreshold <= 0 {
		cfg.ByteThreshold = DefaultByteThreshold
	}
	if cfg.RowSizer == nil {
		cfg.RowSizer = ApproxRowSize
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	var (
		pending []CellRef
		size    int
	)
	flush := func() error {
		stats.Flushes++
		if err := rng.SetLocked(pending, true); err != nil {
			return err
		}
		stats.LockedCells += len(pending)
		pending = nil
		size = 0
		return nil
	}

	rangeLength := len(values)
	for start := 0; start < rangeLength; start += cfg.RowsPerChunk {
		stats.Chunks++
		for row := start; row < start+cfg.RowsPerChunk && row < rangeLength; row++ {
			for col := range values[row] {
				if HasContent(values[row][col], formulas[row][col]) {
					pending = append(pending, rng.Cell(row, col))
				}
			}
			stats.Rows++

			size += cfg.RowSizer(values[row])
			if size >= cfg.ByteThreshold {
				log.Info("reached threshold", "row", row, "size", size)
				stats.ThresholdFlushes++
				if err := flush(); err != nil {
					return stats, err
				}
			}
		}
		if err := flush(); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

func checkShape(values, formulas [][]string) error {
	if len(values) != len(formulas) {
		return fmt.Errorf("%w: %d value rows, %d formula rows", ErrShapeMismatch, len(values), len(formulas))
	}
	for i := range values {
		if len(values[i]) != len(formulas[i]) {
			return fmt.Errorf("%w: row %d has %d values, %d formulas", ErrShapeMismatch, i, len(values[i]), len(formulas[i]))
		}
	}
	return nil
}
