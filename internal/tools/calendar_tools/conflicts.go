package calendar_tools

import (
	"fmt"
	"strings"
	"time"

	"github.com/teemow/meetwise/internal/scheduling"
)

// FormatConflictReport renders a conflict scan for people. The CLI reuses it.
func FormatConflictReport(report *scheduling.ConflictReport, loc *time.Location) string {
	days := int(report.To.Sub(report.From).Round(time.Hour).Hours() / 24)
	if len(report.Pairs) == 0 {
		return fmt.Sprintf("No conflicts found for %s in the next %d days (%d events checked).",
			strings.Join(report.Owners, ", "), days, report.Events)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d conflict(s) for %s in the next %d days:\n\n",
		len(report.Pairs), strings.Join(report.Owners, ", "), days)
	for i, pair := range report.Pairs {
		overlap := pair.Overlap().In(loc)
		fmt.Fprintf(&b, "%d. %s: '%s' overlaps %s: '%s'\n", i+1,
			pair.First.Owner, pair.First.Summary,
			pair.Second.Owner, pair.Second.Summary)
		fmt.Fprintf(&b, "   Overlap: %s to %s\n",
			overlap.Start.Format(listTimeLayout), overlap.End.Format("15:04"))
	}
	return b.String()
}
