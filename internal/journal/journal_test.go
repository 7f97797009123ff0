package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/litescript/gaiamaps/internal/astro"
)

func openTemp(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestOpen_Disabled(t *testing.T) {
	if _, err := Open(context.Background(), ""); !errors.Is(err, ErrDisabled) {
		t.Errorf("Open(\"\") error = %v, want ErrDisabled", err)
	}
}

func TestRecordAndRecent(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()

	zenith := &astro.Star{
		SourceID: "4295806720",
		RAHours:  astro.Float(11.06),
		DecDeg:   astro.Float(61.75),
		GMag:     astro.Float(1.79),
	}
	moment := time.Date(2024, 6, 12, 22, 0, 0, 0, time.UTC)
	entry := NewEntry(astro.Observer{LatDeg: 41.35, LonDeg: 2.11}, moment, "naked-eye", 128, zenith)

	saved, err := j.Record(ctx, entry)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if _, err := uuid.Parse(saved.ID); err != nil {
		t.Errorf("ID %q is not a UUID: %v", saved.ID, err)
	}
	if saved.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}

	got, err := j.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("entries = %d, want 1", len(got))
	}
	e := got[0]
	if e.ID != saved.ID || e.SourceID != "4295806720" || e.Name != "4295806720" {
		t.Errorf("entry = %+v", e)
	}
	if !e.Moment.Equal(moment) {
		t.Errorf("Moment = %v, want %v", e.Moment, moment)
	}
	if e.Observer.LatDeg != 41.35 || e.StarCount != 128 || e.BrightnessMode != "naked-eye" {
		t.Errorf("entry = %+v", e)
	}
	if !e.HasZenith() || *e.GMag != 1.79 {
		t.Errorf("zenith fields lost: %+v", e)
	}
}

func TestRecord_NoZenith(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()

	if _, err := j.Record(ctx, NewEntry(astro.Observer{}, time.Now(), "all", 0, nil)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	got, err := j.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 || got[0].HasZenith() || got[0].SourceID != "" {
		t.Errorf("entry = %+v", got)
	}
}

func TestRecent_NewestFirstAndLimited(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		e := NewEntry(astro.Observer{LatDeg: float64(i)}, base, "bright", i, nil)
		e.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if _, err := j.Record(ctx, e); err != nil {
			t.Fatalf("Record %d: %v", i, err)
		}
	}

	got, err := j.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("entries = %d, want 3", len(got))
	}
	for i, want := range []int{4, 3, 2} {
		if got[i].StarCount != want {
			t.Errorf("entry %d star count = %d, want %d", i, got[i].StarCount, want)
		}
	}

	if none, _ := j.Recent(ctx, 0); none != nil {
		t.Errorf("Recent(0) = %v", none)
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	j, err := Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := j.Record(ctx, NewEntry(astro.Observer{}, time.Now(), "all", 1, nil)); err != nil {
		t.Fatal(err)
	}
	j.Close()

	j2, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer j2.Close()
	got, _ := j2.Recent(ctx, 10)
	if len(got) != 1 {
		t.Errorf("entries after reopen = %d, want 1", len(got))
	}
}
