// Package state provides thread-safe session state for the star map: the
// chosen observer and moment, the current star field and the query lifecycle.
package state

import (
	"errors"
	"sync"
	"time"

	"github.com/litescript/gaiamaps/internal/astro"
	"github.com/litescript/gaiamaps/internal/catalogue"
	"github.com/litescript/gaiamaps/internal/skymap"
)

var (
	// ErrIncompleteQuery is returned when a query is started without both a
	// location and a moment.
	ErrIncompleteQuery = errors.New("query needs a location and a date/time")

	// ErrQueryInFlight is returned when the query inputs change while a
	// query is outstanding.
	ErrQueryInFlight = errors.New("a star query is already in progress")
)

// User-facing failure messages.
const (
	MsgIncompleteQuery      = "Please select a location and date/time."
	MsgCatalogueUnavailable = "Catalogue unavailable."
	MsgFetchFailed          = "Failed to fetch stars."
)

// EventType represents the type of session event.
type EventType string

const (
	EventLocationSelected EventType = "LOCATION_SELECTED"
	EventMomentSet        EventType = "MOMENT_SET"
	EventQueryStarted     EventType = "QUERY_STARTED"
	EventStarsLoaded      EventType = "STARS_LOADED"
	EventFetchFailed      EventType = "FETCH_FAILED"
	EventStarSelected     EventType = "STAR_SELECTED"
	EventReportSaved      EventType = "REPORT_SAVED"
)

// Event represents a change in session state.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message,omitempty"`
	StarCount int       `json:"star_count,omitempty"`
	Zenith    string    `json:"zenith,omitempty"`
}

// Query is the frozen input of one catalogue request.
type Query struct {
	Observer astro.Observer
	Moment   time.Time
	Settings catalogue.Settings
}

// Manager handles all shared session state with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	// Query inputs
	observer *astro.Observer
	moment   *time.Time
	settings catalogue.Settings

	// Outstanding query, nil when idle
	inFlight *Query

	// Current star field. Each successful query replaces it.
	lastQuery   *Query
	stars       []astro.Star
	plan        *skymap.Plan
	zenith   *astro.Star
	selected *astro.Star // picked on the map; nil falls back to zenith
	popup    bool

	lastFetch     time.Time
	fetchDuration time.Duration
	lastError     error
	errorMessage  string

	// Event log (ring buffer)
	events       []Event
	maxEvents    int
	eventWriteAt int

	render skymap.Options
}

// Config holds configuration for the state manager.
type Config struct {
	MaxEvents int
	Settings  catalogue.Settings
	Sizes     astro.SizeMapper
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		MaxEvents: 50, // Last 50 events
		Settings:  catalogue.DefaultSettings(),
		Sizes:     astro.DefaultSizeMapper(),
	}
}

// NewManager creates a session showing the default reference stars.
func NewManager(cfg Config) *Manager {
	maxEvents := cfg.MaxEvents
	if maxEvents <= 0 {
		maxEvents = 50
	}
	render := skymap.DefaultOptions()
	if cfg.Sizes != (astro.SizeMapper{}) {
		render.Sizes = cfg.Sizes
	}
	settings := cfg.Settings
	if settings.BrightnessMode == "" {
		settings.BrightnessMode = catalogue.NakedEye
	}

	cat := astro.DefaultStarCatalog()
	return &Manager{
		settings:  settings,
		stars:     cat.Stars,
		plan:      skymap.Build(cat.Stars, cat.Anchor, nil, render),
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
		render:    render,
	}
}

// SelectLocation sets the observer location and clears any previous error.
func (m *Manager) SelectLocation(obs astro.Observer) error {
	if err := obs.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.inFlight != nil {
		return ErrQueryInFlight
	}
	m.observer = &obs
	m.lastError = nil
	m.errorMessage = ""
	m.addEvent(Event{Type: EventLocationSelected, Timestamp: time.Now()})
	return nil
}

// SetMoment sets the observation moment, normalised to UTC.
func (m *Manager) SetMoment(t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.inFlight != nil {
		return ErrQueryInFlight
	}
	utc := t.UTC()
	m.moment = &utc
	m.addEvent(Event{Type: EventMomentSet, Timestamp: time.Now(), Message: utc.Format(time.RFC3339)})
	return nil
}

// SetSettings replaces the query preferences used by the next query.
func (m *Manager) SetSettings(s catalogue.Settings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = s
}

// Settings returns the current query preferences.
func (m *Manager) Settings() catalogue.Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

// BeginQuery freezes the current inputs and marks a query in flight.
func (m *Manager) BeginQuery() (Query, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.inFlight != nil {
		return Query{}, ErrQueryInFlight
	}
	if m.observer == nil || m.moment == nil {
		m.lastError = ErrIncompleteQuery
		m.errorMessage = MsgIncompleteQuery
		return Query{}, ErrIncompleteQuery
	}

	q := Query{Observer: *m.observer, Moment: *m.moment, Settings: m.settings}
	m.inFlight = &q
	m.lastError = nil
	m.errorMessage = ""
	m.addEvent(Event{Type: EventQueryStarted, Timestamp: time.Now()})
	return q, nil
}

// CompleteQuery installs the result of the outstanding query, replacing the
// previous star field, and returns the resolved zenith star.
func (m *Manager) CompleteQuery(result catalogue.FetchResult) (astro.Star, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.inFlight == nil {
		return astro.Star{}, false
	}
	q := *m.inFlight
	m.inFlight = nil

	opts := m.render
	opts.Supplied = result.Offsets
	plan := skymap.Build(result.Stars, astro.LiveAnchor(q.Observer), &q.Observer, opts)

	m.lastQuery = &q
	m.stars = result.Stars
	m.plan = plan
	m.lastFetch = result.FetchedAt
	m.fetchDuration = result.Duration
	m.lastError = nil
	m.errorMessage = ""

	m.zenith = nil
	m.selected = nil
	m.popup = false
	ev := Event{Type: EventStarsLoaded, Timestamp: time.Now(), StarCount: len(result.Stars)}
	if plan.ZenithIndex >= 0 {
		z := result.Stars[plan.ZenithIndex]
		m.zenith = &z
		m.popup = true
		ev.Zenith = z.Label()
	}
	m.addEvent(ev)

	if m.zenith == nil {
		return astro.Star{}, false
	}
	return *m.zenith, true
}

// FailQuery ends the outstanding query with an error. The previous star
// field stays on display.
func (m *Manager) FailQuery(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.inFlight = nil
	m.lastError = err
	m.errorMessage = FailureMessage(err)
	m.addEvent(Event{Type: EventFetchFailed, Timestamp: time.Now(), Message: m.errorMessage})
}

// FailureMessage maps a query error to the text shown to the user.
func FailureMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrIncompleteQuery):
		return MsgIncompleteQuery
	case errors.Is(err, catalogue.ErrCatalogueUnavailable):
		return MsgCatalogueUnavailable
	default:
		return MsgFetchFailed
	}
}

// SetPopup opens or closes the star details. It stays closed while there is
// neither a selected nor a zenith star.
func (m *Manager) SetPopup(open bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.popup = open && (m.selected != nil || m.zenith != nil)
}

// SelectStar makes s the star the popup and reports act on, and opens the popup.
func (m *Manager) SelectStar(s astro.Star) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := s.Clone()
	m.selected = &c
	m.popup = true
	m.addEvent(Event{Type: EventStarSelected, Timestamp: time.Now(), Message: s.Label()})
}

// ClearSelection returns the popup and reports to the zenith star.
func (m *Manager) ClearSelection() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selected = nil
	m.popup = m.popup && m.zenith != nil
}

// RecordReport logs that a report was saved for a star.
func (m *Manager) RecordReport(star astro.Star, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addEvent(Event{Type: EventReportSaved, Timestamp: time.Now(), Message: path, Zenith: star.Label()})
}

// addEvent adds an event to the ring buffer.
func (m *Manager) addEvent(e Event) {
	if len(m.events) < m.maxEvents {
		m.events = append(m.events, e)
	} else {
		m.events[m.eventWriteAt] = e
		m.eventWriteAt = (m.eventWriteAt + 1) % m.maxEvents
	}
}

// Snapshot represents an immutable snapshot of current state.
type Snapshot struct {
	Observer      *astro.Observer
	Moment        *time.Time
	Settings      catalogue.Settings
	Loading       bool
	LastQuery     *Query
	Stars         []astro.Star
	Plan          *skymap.Plan
	Zenith        *astro.Star
	Selected      *astro.Star // Star shown in the popup: the picked star, else Zenith
	Popup         bool
	LastFetch     time.Time
	FetchDuration time.Duration
	LastError     error
	ErrorMessage  string
	Events        []Event
}

// Live reports whether the star field came from a catalogue query rather
// than the reference set.
func (s Snapshot) Live() bool {
	return s.LastQuery != nil
}

// Snapshot returns a consistent snapshot of current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := Snapshot{
		Settings:      m.settings,
		Loading:       m.inFlight != nil,
		Plan:          m.plan,
		Popup:         m.popup,
		LastFetch:     m.lastFetch,
		FetchDuration: m.fetchDuration,
		LastError:     m.lastError,
		ErrorMessage:  m.errorMessage,
		Events:        m.getEventsOrdered(),
	}
	if m.observer != nil {
		o := *m.observer
		snap.Observer = &o
	}
	if m.moment != nil {
		t := *m.moment
		snap.Moment = &t
	}
	if m.lastQuery != nil {
		q := *m.lastQuery
		snap.LastQuery = &q
	}
	if m.zenith != nil {
		z := *m.zenith
		snap.Zenith = &z
		snap.Selected = &z
	}
	if m.selected != nil {
		sel := m.selected.Clone()
		snap.Selected = &sel
	}

	// Copy stars slice
	snap.Stars = make([]astro.Star, len(m.stars))
	copy(snap.Stars, m.stars)

	return snap
}

// getEventsOrdered returns events in chronological order.
func (m *Manager) getEventsOrdered() []Event {
	if len(m.events) == 0 {
		return nil
	}

	// If buffer isn't full yet, just copy
	if len(m.events) < m.maxEvents {
		result := make([]Event, len(m.events))
		copy(result, m.events)
		return result
	}

	// Ring buffer is full, reorder from oldest to newest
	result := make([]Event, m.maxEvents)
	for i := 0; i < m.maxEvents; i++ {
		idx := (m.eventWriteAt + i) % m.maxEvents
		result[i] = m.events[idx]
	}
	return result
}

// RecentEvents returns the last n events.
func (m *Manager) RecentEvents(n int) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.getEventsOrdered()
	if len(all) <= n {
		return all
	}
	return all[len(all)-n:]
}
