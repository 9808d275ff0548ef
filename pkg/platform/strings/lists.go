// Package strings parses the list-shaped values used in configuration.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
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

// SplitList splits a comma-separated value, e.g. an IP allowlist.
//
//	SplitList(" 10.0.0.1, ,10.0.0.2,10.0.0.1") // []string{"10.0.0.1", "10.0.0.2"}
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return DedupeAndTrim(strings.Split(raw, ","))
}

// ParsePairs parses "KEY=VALUE,KEY2=VALUE2". Keys are uppercased; entries
// without "=" or with an empty side are skipped. Later keys win.
func ParsePairs(raw string) map[string]string {
	out := make(map[string]string)
	for _, entry := range SplitList(raw) {
		key, value, ok := strings.Cut(entry, "=")
		key = strings.ToUpper(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if !ok || key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return out
}
