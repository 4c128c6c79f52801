package repo

import "fmt"

const DefaultLimit = 20

// FormatLimitOffset builds a LIMIT/OFFSET clause, clamping nonsensical
// values instead of failing the query.
func FormatLimitOffset(limit, offset int) string {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	return fmt.Sprintf("LIMIT %d OFFSET %d", limit, offset)
}
