package parsers

import "strings"

// CleanSQLOutput strips markdown fencing and surrounding whitespace from a
// generated query. Calling it on already-clean SQL is a no-op, so it is safe
// to apply unconditionally.
func CleanSQLOutput(raw string) string {
	s := strings.TrimSpace(raw)

	s = strings.TrimPrefix(s, "```sql")
	s = strings.TrimPrefix(s, "```SQL")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	return strings.TrimSpace(s)
}
