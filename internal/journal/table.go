package journal

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// WriteTable writes entries as a text table, in the order given.
func WriteTable(w io.Writer, entries []Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No history yet")
		return
	}

	fmt.Fprintf(w, "%-17s %-19s %-10s %-5s %-24s %-8s %-9s %-5s\n",
		"Moment (UTC)", "Location", "Mode", "Stars", "Zenith star", "RA (h)", "Dec (°)", "G")
	fmt.Fprintln(w, strings.Repeat("─", 103))

	for _, e := range entries {
		zenith, ra, dec, g := "-", "-", "-", "-"
		if e.HasZenith() {
			zenith = e.Name
			if zenith == "" {
				zenith = e.SourceID
			}
			ra = fmt.Sprintf("%.4f", *e.RAHours)
			dec = fmt.Sprintf("%+.4f", *e.DecDeg)
		}
		if e.GMag != nil {
			g = fmt.Sprintf("%.2f", *e.GMag)
		}
		fmt.Fprintf(w, "%-17s %-19s %-10s %-5d %-24s %-8s %-9s %-5s\n",
			e.Moment.UTC().Format("2006-01-02 15:04"),
			fmt.Sprintf("%+.3f,%+.3f", e.Observer.LatDeg, e.Observer.LonDeg),
			e.BrightnessMode,
			e.StarCount,
			truncate(zenith, 24),
			ra, dec, g,
		)
	}
	fmt.Fprintf(w, "\n%d entries, newest %s\n", len(entries), entries[0].CreatedAt.Local().Format(time.DateTime))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
