package models

import (
	"time"
)

// Source system tags. "source" is the platform records are read from,
// "target" the platform missing records are created in.
const (
	SystemSource = "source"
	SystemTarget = "target"
)

// Event is the canonical, source-agnostic representation of one activity
// record. Events are created at scrape time, mutated only to toggle the
// ignored flag or attach a synced marker, and superseded when a day is
// rescraped. Identifiers are not stable across rescrape; fingerprints are.
type Event struct {
	// ID is the surrogate identifier assigned on persistence.
	ID uint `gorm:"primaryKey" json:"id"`

	// SourceSystem is "source" or "target".
	SourceSystem string `gorm:"size:50;index:idx_events_system_fp" json:"source_system"`

	// Fingerprint is the deterministic content identity. Empty means the
	// event has no content signature and is unmatchable by fingerprint.
	Fingerprint string `gorm:"size:128;index:idx_events_system_fp" json:"fingerprint"`

	// ChildName identifies the child the record belongs to.
	ChildName string `gorm:"size:255" json:"child_name"`

	// EventType is the canonical type tag (solid, nappy, sleep, message, ...).
	EventType string `gorm:"size:50" json:"event_type"`

	// Day is the local calendar day of the event in ISO form (2006-01-02).
	Day string `gorm:"size:10;index" json:"day"`

	// StartTimeUTC is the event instant. Duration-bearing types also carry
	// EndTimeUTC and sort by it.
	StartTimeUTC time.Time  `json:"start_time_utc"`
	EndTimeUTC   *time.Time `json:"end_time_utc,omitempty"`

	// Summary is the free-text rendering of the raw block.
	Summary string `gorm:"type:text" json:"summary"`

	// DetailLines are the ordered sub-lines of the raw block.
	DetailLines []string `gorm:"serializer:json;type:text" json:"detail_lines"`

	// Note is an optional free-text note attached to the record.
	Note string `gorm:"type:text" json:"note,omitempty"`

	// Author is the staff member who recorded the entry, when known.
	Author string `gorm:"size:255" json:"author,omitempty"`

	// RawRecordID is the scrape-assigned identity of the raw block this
	// event came from. Shared by all fragments of a split record.
	RawRecordID string `gorm:"size:128" json:"raw_record_id,omitempty"`

	// ParentSourceEventID is set when this event was produced by splitting
	// a bundled raw record; SplitIndex is its ordinal within the parent.
	// Single-entry records keep both null.
	ParentSourceEventID *string `gorm:"size:128" json:"parent_source_event_id,omitempty"`
	SplitIndex          *int    `json:"split_index,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	// Display caches, derived per request and never persisted.
	Matched   bool `gorm:"-" json:"matched"`
	Ignored   bool `gorm:"-" json:"ignored"`
	Duplicate bool `gorm:"-" json:"possible_duplicate"`
}

// EffectiveTime is the instant the event sorts by: end time for
// duration-bearing events, start time otherwise.
func (e *Event) EffectiveTime() time.Time {
	if e.EndTimeUTC != nil {
		return *e.EndTimeUTC
	}
	return e.StartTimeUTC
}

// IsSplitFragment reports whether the event was produced by the splitter.
func (e *Event) IsSplitFragment() bool {
	return e.ParentSourceEventID != nil
}

// IgnoredFingerprint records a fingerprint the user chose to exclude from
// syncing. Keyed by fingerprint, not event id, so the flag survives
// rescraping of the same day.
type IgnoredFingerprint struct {
	ID          uint      `gorm:"primaryKey"`
	Fingerprint string    `gorm:"size:128;uniqueIndex"`
	CreatedAt   time.Time
}

// SyncRecord is the durable at-most-once marker: a fingerprint present
// here has been created in the target and must never be created again.
type SyncRecord struct {
	ID          uint      `gorm:"primaryKey"`
	Fingerprint string    `gorm:"size:128;uniqueIndex"`
	ChildName   string    `gorm:"size:255"`
	EventType   string    `gorm:"size:50"`
	Day         string    `gorm:"size:10"`
	SyncedAt    time.Time
}

// Setting is a simple name -> JSON value record for operator-controlled
// tables (sync preferences, event-type mapping).
type Setting struct {
	Name      string    `gorm:"primaryKey;size:100"`
	Value     string    `gorm:"type:text"`
	UpdatedAt time.Time
}

// RunProgress is the durable progress record for one scrape or sync run,
// keyed by service. Processed never decreases within a run.
type RunProgress struct {
	Service    string     `gorm:"primaryKey;size:50" json:"service"`
	RunID      string     `gorm:"size:64" json:"run_id"`
	Total      int        `json:"total"`
	Processed  int        `json:"processed"`
	Status     string     `gorm:"size:20" json:"status"`
	Message    string     `gorm:"type:text" json:"message,omitempty"`
	Error      string     `gorm:"type:text" json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Run progress statuses.
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)
