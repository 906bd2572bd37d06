package sheetlock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSheetFilter(t *testing.T) {
	tests := []struct {
		expr  string
		name  string
		index int
		want  bool
	}{
		{"", "Anything", 3, true},
		{`name != "Summary"`, "Data", 0, true},
		{`name != "Summary"`, "Summary", 1, false},
		{`index < 2`, "Third", 2, false},
		{`name startsWith "Q" && index > 0`, "Q2", 1, true},
		{`name matches "^Q[0-9]$"`, "Quarter", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.expr+"/"+tt.name, func(t *testing.T) {
			f, err := CompileSheetFilter(tt.expr)
			require.NoError(t, err)
			got, err := f.Accept(tt.name, tt.index)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.expr, f.String())
		})
	}
}

func TestSheetFilter_Errors(t *testing.T) {
	_, err := CompileSheetFilter(`name +`)
	assert.Error(t, err)

	_, err = CompileSheetFilter(`index + 1`)
	assert.Error(t, err, "non-boolean result rejected at compile time")

	_, err = CompileSheetFilter(`owner == "me"`)
	assert.Error(t, err, "unknown variable")
}

func TestSheetFilter_Nil(t *testing.T) {
	var f *SheetFilter
	ok, err := f.Accept("Sheet1", 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, f.String())
}
