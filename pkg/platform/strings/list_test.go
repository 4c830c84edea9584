package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []string
	}{
		{name: "empty", raw: "", expected: nil},
		{name: "blank", raw: "   ", expected: nil},
		{name: "single", raw: "Electron/", expected: []string{"Electron/"}},
		{name: "trims and drops empty", raw: " Electron/ ,, Wire/ ", expected: []string{"Electron/", "Wire/"}},
		{name: "dedupes preserving order", raw: "Wire/,Electron/,Wire/", expected: []string{"Wire/", "Electron/"}},
		{name: "case sensitive", raw: "wire/,Wire/", expected: []string{"wire/", "Wire/"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, SplitList(tc.raw, ","))
		})
	}
}

func TestDedupeAndTrim(t *testing.T) {
	assert.Nil(t, DedupeAndTrim(nil))
	assert.Equal(t, []string{}, DedupeAndTrim([]string{}))
	assert.Equal(t, []string{"a", "b"}, DedupeAndTrim([]string{" a", "b ", "a", "  "}))
}
