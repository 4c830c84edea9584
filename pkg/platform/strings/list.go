// Package strings holds small string helpers for configuration parsing.
package strings

import (
	"strings"
)

// SplitList splits a separated configuration value into its entries,
// trimming whitespace and dropping empty and repeated entries. Order is
// preserved. An empty input yields nil.
//
//	SplitList(" Electron/, Wire/,,Electron/", ",")
//	// []string{"Electron/", "Wire/"}
func SplitList(raw, sep string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return DedupeAndTrim(strings.Split(raw, sep))
}

// DedupeAndTrim removes duplicates and empty strings from values, trimming
// whitespace from each element.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}
	return result
}
