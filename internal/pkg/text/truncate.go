// Package text holds small string helpers for terminal output.
package text

// Truncate shortens s to at most max runes, marking the cut with "...".
// The marker is not counted in max.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i] + "..."
		}
		n++
	}
	return s
}
