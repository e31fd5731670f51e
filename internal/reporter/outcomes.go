package reporter

import (
	"fmt"
	"strings"

	"github.com/fenilsonani/dupsweep/internal/cleaner"
	"github.com/fenilsonani/dupsweep/internal/resolver"
	"github.com/fenilsonani/dupsweep/internal/ui/styles"
	"github.com/fenilsonani/dupsweep/pkg/utils"
)

// FormatOutcomes renders one line per planned deletion
func FormatOutcomes(outcomes []cleaner.Outcome) string {
	var b strings.Builder

	for _, o := range outcomes {
		switch o.Status {
		case cleaner.StatusDeleted:
			fmt.Fprintf(&b, "  %s %s\n", styles.SuccessStyle.Render("deleted"), o.File.Path)
		case cleaner.StatusWouldDelete:
			fmt.Fprintf(&b, "  %s %s\n", styles.InfoStyle.Render("would delete"), o.File.Path)
		default:
			msg := o.File.Path
			if o.Err != nil {
				msg = o.Err.UserMessage()
			}
			fmt.Fprintf(&b, "  %s %s\n", styles.ErrorStyle.Render(o.Status.String()), msg)
		}
	}

	return b.String()
}

// FormatResolution renders the totals of an interactive run
func FormatResolution(summary *resolver.Summary) string {
	var b strings.Builder

	verb := "Deleted"
	if summary.DryRun {
		verb = "Would delete"
	}

	b.WriteString(styles.TitleStyle.Render("=== Resolution Summary ===") + "\n")
	fmt.Fprintf(&b, "Groups resolved: %d\n", summary.Resolved)
	fmt.Fprintf(&b, "Groups skipped:  %d\n", summary.Skipped)
	fmt.Fprintf(&b, "%s: %d files (%s)\n", verb, summary.Deleted, utils.FormatBytes(summary.BytesFreed))

	if summary.Stopped {
		b.WriteString(styles.WarningStyle.Render("Stopped before every group was reviewed") + "\n")
	}

	if len(summary.Errors) > 0 {
		b.WriteString("\n" + cleaner.FormatErrorSummary(summary.Errors))
	}

	return b.String()
}
