// Package journal keeps a local SQLite history of resolved zenith stars.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/litescript/gaiamaps/internal/astro"
)

// ErrDisabled is returned by Open when no journal path is configured.
var ErrDisabled = errors.New("journal disabled")

const schema = `
CREATE TABLE IF NOT EXISTS zenith_history (
	id              TEXT PRIMARY KEY,
	observer_lat    REAL NOT NULL,
	observer_lon    REAL NOT NULL,
	moment          INTEGER NOT NULL,
	brightness_mode TEXT NOT NULL,
	star_count      INTEGER NOT NULL,
	source_id       TEXT,
	name            TEXT,
	ra_hours        REAL,
	dec_deg         REAL,
	g_mag           REAL,
	created_at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_zenith_history_created ON zenith_history(created_at);
`

// Entry is one completed star query.
type Entry struct {
	ID             string
	Observer       astro.Observer
	Moment         time.Time
	BrightnessMode string
	StarCount      int

	// Zenith star, when one was resolved
	SourceID string
	Name     string
	RAHours  *float64
	DecDeg   *float64
	GMag     *float64

	CreatedAt time.Time
}

// NewEntry describes a query result. zenith may be nil.
func NewEntry(obs astro.Observer, moment time.Time, mode string, starCount int, zenith *astro.Star) Entry {
	e := Entry{
		Observer:       obs,
		Moment:         moment.UTC(),
		BrightnessMode: mode,
		StarCount:      starCount,
	}
	if zenith != nil {
		e.SourceID = zenith.SourceID
		e.Name = zenith.Label()
		e.RAHours = zenith.RAHours
		e.DecDeg = zenith.DecDeg
		e.GMag = zenith.GMag
	}
	return e
}

// HasZenith reports whether the entry recorded a zenith star.
func (e Entry) HasZenith() bool {
	return e.RAHours != nil && e.DecDeg != nil
}

// Journal is a handle to the history database.
type Journal struct {
	db *sql.DB
}

// Open opens or creates the journal at path.
func Open(ctx context.Context, path string) (*Journal, error) {
	if path == "" {
		return nil, ErrDisabled
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// One physical connection; SQLite serialises writers anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure journal: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close releases the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record stores an entry, assigning its ID and creation time when unset.
func (j *Journal) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := j.db.ExecContext(ctx, `
INSERT INTO zenith_history
	(id, observer_lat, observer_lon, moment, brightness_mode, star_count,
	 source_id, name, ra_hours, dec_deg, g_mag, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Observer.LatDeg, e.Observer.LonDeg, e.Moment.UnixMilli(), e.BrightnessMode, e.StarCount,
		nullString(e.SourceID), nullString(e.Name), nullFloat(e.RAHours), nullFloat(e.DecDeg), nullFloat(e.GMag),
		e.CreatedAt.UnixNano(),
	)
	if err != nil {
		return e, fmt.Errorf("record journal entry: %w", err)
	}
	return e, nil
}

// Recent returns up to n entries, newest first.
func (j *Journal) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}

	rows, err := j.db.QueryContext(ctx, `
SELECT id, observer_lat, observer_lon, moment, brightness_mode, star_count,
       source_id, name, ra_hours, dec_deg, g_mag, created_at
FROM zenith_history
ORDER BY created_at DESC
LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e               Entry
			moment, created int64
			sourceID, name  sql.NullString
			ra, dec, gMag   sql.NullFloat64
		)
		if err := rows.Scan(&e.ID, &e.Observer.LatDeg, &e.Observer.LonDeg, &moment, &e.BrightnessMode, &e.StarCount,
			&sourceID, &name, &ra, &dec, &gMag, &created); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		e.Moment = time.UnixMilli(moment).UTC()
		e.CreatedAt = time.Unix(0, created).UTC()
		e.SourceID = sourceID.String
		e.Name = name.String
		e.RAHours = fromNull(ra)
		e.DecDeg = fromNull(dec)
		e.GMag = fromNull(gMag)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}
	return entries, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return astro.Float(v.Float64)
}
