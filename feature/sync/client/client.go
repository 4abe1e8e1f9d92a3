package client

import (
	"context"
	"errors"
	"time"

	"nursery-sync/feature/events"
)

// Collaborator failure taxonomy. Scrape runs abort on either; sync runs
// isolate failures to the current item.
var (
	// ErrTimeout marks a collaborator call that did not answer in time.
	ErrTimeout = errors.New("collaborator: timeout")
	// ErrAuthFailed marks rejected credentials or an expired session.
	ErrAuthFailed = errors.New("collaborator: authentication failed")
)

// ScrapeRequest asks a scraping collaborator for raw records.
type ScrapeRequest struct {
	// DaysBack is how many previous days to include beyond today.
	DaysBack int
	// AllowedDays optionally restricts the scrape to specific calendar
	// days (ISO form). Used when reading the target back after a sync.
	AllowedDays []string
}

// ScrapeClient is the read-side collaborator: one authenticated
// automation session per service, non-reentrant. Calls against the same
// service must serialize.
type ScrapeClient interface {
	// VerifyLogin checks the stored credentials without scraping.
	VerifyLogin(ctx context.Context) error
	// Scrape extracts raw records for the requested day range.
	Scrape(ctx context.Context, req ScrapeRequest) ([]events.RawRecord, error)
}

// Entry is the target system's expected input shape for one created
// record.
type Entry struct {
	ChildName    string     `json:"child_name"`
	EntryType    string     `json:"entry_type"`
	StartTimeUTC time.Time  `json:"start_time_utc"`
	EndTimeUTC   *time.Time `json:"end_time_utc,omitempty"`
	Note         string     `json:"note,omitempty"`
	Summary      string     `json:"summary,omitempty"`
	Message      string     `json:"message,omitempty"`
	DiaperType   string     `json:"diaper_type,omitempty"`
}

// TargetClient is the write-side collaborator. The target exposes no
// batch endpoint; one entry per call.
type TargetClient interface {
	// VerifyLogin checks the stored credentials without writing.
	VerifyLogin(ctx context.Context) error
	// CreateEntry creates one entry in the target system.
	CreateEntry(ctx context.Context, entry Entry) error
}
