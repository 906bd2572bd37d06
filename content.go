package sheetlock

// HasContent reports whether a cell holds a value or a formula.
func HasContent(value, formula string) bool {
	return value != "" || formula != ""
}
