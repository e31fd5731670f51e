package utils

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/fenilsonani/dupsweep/internal/ui/styles"
)

const (
	// MinTerminalWidth fits a member row with a typical path
	MinTerminalWidth = 80
	// MinTerminalHeight fits the group header, a few members and the help line
	MinTerminalHeight = 24

	ellipsis = "..."

	// rows taken by the title, group header, status line and help footer
	reservedRows = 10
	minPageSize  = 5
)

// TruncatePath shortens path to at most maxWidth bytes by dropping leading
// directories. Copies in a group usually share a base name, so the tail of the
// path is what tells them apart and is always kept.
func TruncatePath(path string, maxWidth int) string {
	if len(path) <= maxWidth {
		return path
	}
	if maxWidth <= len(ellipsis) {
		return ellipsis
	}

	start := len(path) - (maxWidth - len(ellipsis))
	for start < len(path) && !utf8.RuneStart(path[start]) {
		start++
	}
	tail := path[start:]

	// Prefer starting the visible tail at a directory boundary
	base := len(tail) - len(lastElem(tail))
	if i := strings.IndexRune(tail, os.PathSeparator); i > 0 && i < base {
		tail = tail[i:]
	}

	return ellipsis + tail
}

func lastElem(path string) string {
	if i := strings.LastIndexByte(path, os.PathSeparator); i >= 0 {
		return path[i+1:]
	}
	return path
}

// CalculatePageSize returns how many member rows fit in a terminal of the
// given height
func CalculatePageSize(terminalHeight int) int {
	return max(terminalHeight-reservedRows, minPageSize)
}

// IsTerminalTooSmall reports whether the selector would have to clip rows
func IsTerminalTooSmall(width, height int) bool {
	return width < MinTerminalWidth || height < MinTerminalHeight
}

// GetSizeWarningBanner is shown above the duplicate list in a small terminal
func GetSizeWarningBanner(width, height int) string {
	if !IsTerminalTooSmall(width, height) {
		return ""
	}

	msg := fmt.Sprintf("Terminal too small for the duplicate list, paths will be shortened (need %dx%d",
		MinTerminalWidth, MinTerminalHeight)
	if width > 0 && height > 0 {
		msg += fmt.Sprintf(", have %dx%d", width, height)
	}
	msg += ")"

	return styles.WarningStyle.Render(msg) + "\n\n"
}

// TruncateString cuts s to maxLen runes, marking the cut with an ellipsis
func TruncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	if maxLen <= len(ellipsis) {
		return ellipsis
	}

	runes := []rune(s)
	return string(runes[:maxLen-len(ellipsis)]) + ellipsis
}

// VisibleRange returns the [start, end) window of a list of total items
// that keeps cursor on screen when only pageSize rows fit
func VisibleRange(cursor, total, pageSize int) (int, int) {
	if pageSize <= 0 || total <= pageSize {
		return 0, total
	}

	start := cursor - pageSize/2
	if start < 0 {
		start = 0
	}
	if start+pageSize > total {
		start = total - pageSize
	}

	return start, start + pageSize
}
