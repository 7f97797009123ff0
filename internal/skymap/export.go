package skymap

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/litescript/gaiamaps/internal/astro"
)

// PlanExport is the JSON-serializable representation of a plan.
type PlanExport struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Moment      *time.Time      `json:"moment,omitempty"`
	Anchor      AnchorExport    `json:"anchor"`
	Zenith      *StarExport     `json:"zenith,omitempty"`
	Stars       []StarExport    `json:"stars"`
	Lines       []SegmentExport `json:"lines,omitempty"`
}

// AnchorExport is a JSON-friendly anchor.
type AnchorExport struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	RefLat float64 `json:"ref_lat"`
}

// StarExport is a JSON-friendly marker with derived fields.
type StarExport struct {
	SourceID     string   `json:"source_id,omitempty"`
	Name         string   `json:"name,omitempty"`
	Designation  string   `json:"designation,omitempty"`
	RAHours      *float64 `json:"ra_hours,omitempty"`
	DecDeg       *float64 `json:"dec_deg,omitempty"`
	GMag         *float64 `json:"phot_g_mean_mag,omitempty"`
	BPRP         *float64 `json:"bp_rp,omitempty"`
	DistancePc   *float64 `json:"distance_pc,omitempty"`
	SpectralType string   `json:"spectral_type,omitempty"`
	Lat          float64  `json:"lat"`
	Lon          float64  `json:"lon"`
	Color        string   `json:"color"`
	TempK        float64  `json:"temperature_k"`
	Radius       float64  `json:"radius"`
	Hitbox       float64  `json:"hitbox_radius"`
	Zenith       bool     `json:"zenith,omitempty"`
}

// SegmentExport is one asterism line.
type SegmentExport struct {
	From [2]float64 `json:"from"`
	To   [2]float64 `json:"to"`
}

// ExportPlan converts a plan to an exportable format.
func ExportPlan(plan *Plan, moment *time.Time, generatedAt time.Time) *PlanExport {
	export := &PlanExport{GeneratedAt: generatedAt, Moment: moment}
	if plan == nil {
		return export
	}

	export.Anchor = AnchorExport{
		Lat:    plan.Anchor.LatDeg,
		Lon:    plan.Anchor.LonDeg,
		RefLat: plan.Anchor.RefLatDeg,
	}
	for _, m := range plan.Markers {
		se := exportMarker(m)
		export.Stars = append(export.Stars, se)
		if m.IsZenith {
			z := se
			export.Zenith = &z
		}
	}
	for _, l := range plan.Lines {
		export.Lines = append(export.Lines, SegmentExport{
			From: [2]float64{l.From.Lat, l.From.Lon},
			To:   [2]float64{l.To.Lat, l.To.Lon},
		})
	}
	return export
}

func exportMarker(m Marker) StarExport {
	facts := astro.FactsFor(m.Star)
	return StarExport{
		SourceID:     m.Star.SourceID,
		Name:         m.Star.Name,
		Designation:  m.Star.Designation,
		RAHours:      m.Star.RAHours,
		DecDeg:       m.Star.DecDeg,
		GMag:         m.Star.GMag,
		BPRP:         m.Star.BPRP,
		DistancePc:   facts.DistancePc,
		SpectralType: facts.SpectralType,
		Lat:          m.Position.Lat,
		Lon:          m.Position.Lon,
		Color:        m.Visual.Color.Hex(),
		TempK:        m.Visual.Temperature,
		Radius:       m.Visual.Radius,
		Hitbox:       m.Visual.HitboxRadius,
		Zenith:       m.IsZenith,
	}
}

// WriteJSON writes the plan as JSON to the given writer.
func (e *PlanExport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

// WriteSummaryTable writes a text table of the plan's stars, zenith first.
func WriteSummaryTable(w io.Writer, plan *Plan, moment time.Time) {
	fmt.Fprintf(w, "Stars @ %s\n", moment.UTC().Format(time.RFC3339))
	fmt.Fprintln(w, strings.Repeat("─", 90))

	if plan == nil || len(plan.Markers) == 0 {
		fmt.Fprintln(w, "No stars")
		return
	}

	fmt.Fprintf(w, "%-1s %-20s %-10s %-9s %-6s %-6s %-9s %-8s %-7s\n",
		"", "Star", "RA (h)", "Dec (°)", "G", "BP-RP", "Dist pc", "Type", "Color")
	fmt.Fprintln(w, strings.Repeat("─", 90))

	rows := make([]Marker, 0, len(plan.Markers))
	if z, ok := plan.Zenith(); ok {
		rows = append(rows, z)
	}
	for _, m := range plan.Markers {
		if !m.IsZenith {
			rows = append(rows, m)
		}
	}

	for _, m := range rows {
		mark := " "
		if m.IsZenith {
			mark = "*"
		}
		facts := astro.FactsFor(m.Star)
		fmt.Fprintf(w, "%-1s %-20s %-10s %-9s %-6s %-6s %-9s %-8s %-7s\n",
			mark,
			truncateStr(m.Star.Label(), 20),
			formatOpt(m.Star.RAHours, "%.4f"),
			formatOpt(m.Star.DecDeg, "%+.4f"),
			formatOpt(m.Star.GMag, "%.2f"),
			formatOpt(m.Star.BPRP, "%.2f"),
			formatOpt(facts.DistancePc, "%.1f"),
			orDash(facts.SpectralType),
			m.Visual.Color.Hex(),
		)
	}

	fmt.Fprintf(w, "\nTotal: %d stars", len(plan.Markers))
	if plan.ZenithIndex >= 0 {
		fmt.Fprint(w, " (* zenith)")
	}
	fmt.Fprintln(w)
}

func formatOpt(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncateStr(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-2]) + ".."
}
