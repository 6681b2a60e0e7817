// Package strings holds small string helpers shared by configuration parsing.
package strings

import (
	"strings"
)

// SplitList splits a comma-separated setting such as KAFKA_BROKERS. Elements
// are trimmed, blanks dropped and repeats removed; order is preserved.
//
//	SplitList(" k1:9092, k2:9092 ,k1:9092,")
//	// Returns: []string{"k1:9092", "k2:9092"}
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return DedupeAndTrim(strings.Split(raw, ","))
}

// DedupeAndTrim removes duplicates and empty strings from values, trimming
// whitespace from each element. Order is preserved.
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
