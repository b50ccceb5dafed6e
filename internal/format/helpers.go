package format

import (
	"fmt"
	"math"
)

// FmtSimSeconds formats simulated seconds as "X.Ys" below a minute and
// "Xm Ys" above.
func FmtSimSeconds(s float64) string {
	if s >= 60 {
		total := int(math.Round(s))
		return fmt.Sprintf("%dm %ds", total/60, total%60)
	}
	return fmt.Sprintf("%.1fs", s)
}

// FmtPercent formats a [0,1] rate as a whole percentage.
func FmtPercent(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

// Truncate shortens s to maxLen characters, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// BoolMark returns "✓" for true and "✗" for false.
func BoolMark(v bool) string {
	if v {
		return "✓"
	}
	return "✗"
}
