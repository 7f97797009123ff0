package skymap

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/litescript/gaiamaps/internal/astro"
)

func livePlan() *Plan {
	stars := []astro.Star{
		{SourceID: "1", RAHours: astro.Float(0), DecDeg: astro.Float(40), GMag: astro.Float(12.5), BPRP: astro.Float(0.8), Parallax: astro.Float(2)},
		{SourceID: "2", RAHours: astro.Float(12), DecDeg: astro.Float(-40), GMag: astro.Float(18)},
	}
	obs := astro.Observer{LatDeg: 40, LonDeg: 0}
	return Build(stars, astro.LiveAnchor(obs), &obs, DefaultOptions())
}

func TestExportPlan(t *testing.T) {
	generated := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	export := ExportPlan(livePlan(), nil, generated)

	if export.GeneratedAt != generated {
		t.Errorf("GeneratedAt = %v", export.GeneratedAt)
	}
	if len(export.Stars) != 2 {
		t.Fatalf("Stars = %d, want 2", len(export.Stars))
	}
	if export.Zenith == nil || export.Zenith.SourceID != "1" {
		t.Fatalf("Zenith = %+v, want source 1", export.Zenith)
	}
	if export.Zenith.DistancePc == nil || *export.Zenith.DistancePc != 500 {
		t.Errorf("zenith distance = %v, want 500", export.Zenith.DistancePc)
	}
	if !strings.HasPrefix(export.Stars[0].Color, "#") {
		t.Errorf("color = %q, want hex", export.Stars[0].Color)
	}
}

func TestExportPlan_Nil(t *testing.T) {
	export := ExportPlan(nil, nil, time.Now())
	if len(export.Stars) != 0 || export.Zenith != nil {
		t.Errorf("expected empty export, got %+v", export)
	}
}

func TestPlanExport_WriteJSON(t *testing.T) {
	moment := time.Date(2025, 3, 1, 22, 0, 0, 0, time.UTC)
	export := ExportPlan(livePlan(), &moment, moment)

	var buf bytes.Buffer
	if err := export.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	for _, key := range []string{"generated_at", "moment", "anchor", "zenith", "stars"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
}

func TestWriteSummaryTable(t *testing.T) {
	var buf bytes.Buffer
	WriteSummaryTable(&buf, livePlan(), time.Date(2025, 3, 1, 22, 0, 0, 0, time.UTC))
	out := buf.String()

	if !strings.Contains(out, "Stars @ 2025-03-01T22:00:00Z") {
		t.Errorf("missing header:\n%s", out)
	}
	if !strings.Contains(out, "Total: 2 stars (* zenith)") {
		t.Errorf("missing total:\n%s", out)
	}

	// Zenith row comes first.
	lines := strings.Split(out, "\n")
	var firstRow string
	for _, l := range lines[4:] {
		if strings.TrimSpace(l) != "" {
			firstRow = l
			break
		}
	}
	if !strings.HasPrefix(firstRow, "* 1 ") {
		t.Errorf("first row = %q, want zenith star 1", firstRow)
	}
}

func TestWriteSummaryTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	WriteSummaryTable(&buf, nil, time.Now())
	if !strings.Contains(buf.String(), "No stars") {
		t.Errorf("expected 'No stars', got:\n%s", buf.String())
	}
}

func TestTruncateStr(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"Dubhe", 20, "Dubhe"},
		{"4295806720123456789012", 10, "42958067.."},
		{"α UMa extra", 5, "α U.."},
		{"abc", 2, "ab"},
	}
	for _, tt := range tests {
		if got := truncateStr(tt.in, tt.max); got != tt.want {
			t.Errorf("truncateStr(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
