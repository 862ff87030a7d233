package strings

import (
	"strings"
)

// DefaultDescriptionMaxLen is the default width for a free-text column
// (module properties, definition descriptions) in the CLI's table output.
const DefaultDescriptionMaxLen = 60

// LabelColumnMaxLen is the width for the LABELS column in "list instances":
// a LabelSet's Go-syntax %v rendering can run long once a module carries a
// handful of routing labels, and the table must stay on one line per row.
const LabelColumnMaxLen = 40

// MinTruncateLen is the minimum maxLen value for TruncateDescription.
// Values smaller than this would not leave room for meaningful content plus "...".
const MinTruncateLen = 4

// TruncateDescription truncates s to maxLen characters and ensures
// single-line output, for any field rendered into a fixed-width CLI table
// column (instance labels, module descriptions, properties). It replaces
// newlines with spaces, collapses multiple whitespace characters into single
// spaces, and adds "..." if truncated.
//
// The function handles Unicode correctly by operating on runes rather than bytes,
// preventing truncation in the middle of multi-byte characters.
//
// If maxLen is less than MinTruncateLen (4), it is clamped to MinTruncateLen to ensure
// there is room for at least one character plus "...".
//
// Args:
//   - s: The string to truncate
//   - maxLen: Maximum length of the result (including "..." if truncated)
//
// Returns:
//   - Truncated and sanitized string
func TruncateDescription(s string, maxLen int) string {
	// Clamp maxLen to minimum value to prevent panic from negative slice index
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	// Use strings.Fields to split on any whitespace (handles \n, \r, \t, multiple spaces)
	// then rejoin with single spaces. This is more efficient than multiple ReplaceAll calls.
	s = strings.Join(strings.Fields(s), " ")

	// Use rune-based slicing to handle Unicode correctly
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
