package events

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"nursery-sync/feature/events/models"
)

// RawRecord is one scraped block from a platform, before normalisation.
// The scraping collaborator produces these; everything else in the system
// works on canonical events.
type RawRecord struct {
	// RecordID is the scrape-assigned identity of the block. Fragments
	// produced by splitting a bundled record all point back to it.
	RecordID string `json:"record_id"`

	// ChildName identifies the child the block belongs to.
	ChildName string `json:"child_name"`

	// Label is the platform's display label for the block ("Meals",
	// "Nappy change", ...). The type mapping turns it canonical.
	Label string `json:"label"`

	// DayISO is the local calendar day of the block ("2006-01-02").
	DayISO string `json:"day_iso"`

	// TimeText is the scraped time string; may be a clock token, a range,
	// or contain an embedded ISO instant.
	TimeText string `json:"time_text"`

	// StartISO / EndISO are explicit instants when the platform exposes
	// them; both optional.
	StartISO string `json:"start_iso,omitempty"`
	EndISO   string `json:"end_iso,omitempty"`

	// DetailLines are the ordered sub-lines of the block.
	DetailLines []string `json:"detail_lines"`

	// Note, Author and Summary are optional free-text fields.
	Note    string `json:"note,omitempty"`
	Author  string `json:"author,omitempty"`
	Summary string `json:"summary,omitempty"`
}

var (
	clockPattern      = regexp.MustCompile(`\b\d{1,2}:\d{2}\b`)
	clockTokenPattern = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})\s*(am|pm)?`)
	timeRangePattern  = regexp.MustCompile(`(?i)(\d{1,2}:\d{2}\s*(?:am|pm)?)\s*(?:-|–|to)\s*(\d{1,2}:\d{2}\s*(?:am|pm)?)`)
	isoInstantPattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}(?::\d{2})?(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2})?`)
)

// NormalisationError marks a raw record that could not be converted into a
// canonical event. Callers log it and drop the record; it never aborts the
// batch.
type NormalisationError struct {
	RecordID string
	Reason   string
}

func (e *NormalisationError) Error() string {
	return fmt.Sprintf("normalise record %q: %s", e.RecordID, e.Reason)
}

// Normalise converts one raw scraped record into a canonical event draft.
// The draft carries no fingerprint yet; persistence is the caller's
// responsibility. Missing optional fields default to empty rather than
// failing; a record without a resolvable child, type or day is malformed.
func Normalise(raw RawRecord, sourceSystem string, mapping TypeMapping) (*models.Event, error) {
	child := strings.TrimSpace(raw.ChildName)
	if child == "" {
		return nil, &NormalisationError{RecordID: raw.RecordID, Reason: "missing child identifier"}
	}

	eventType := mapping.Canonical(raw.Label)
	if eventType == "" {
		return nil, &NormalisationError{RecordID: raw.RecordID, Reason: "missing event label"}
	}

	start, ok := resolveStart(raw)
	if !ok {
		return nil, &NormalisationError{RecordID: raw.RecordID, Reason: "no parsable time or day"}
	}

	day := raw.DayISO
	if day == "" {
		day = start.UTC().Format("2006-01-02")
	}

	ev := &models.Event{
		SourceSystem: sourceSystem,
		ChildName:    child,
		EventType:    eventType,
		Day:          day,
		StartTimeUTC: start.UTC(),
		Summary:      strings.TrimSpace(raw.Summary),
		Note:         strings.TrimSpace(raw.Note),
		Author:       strings.TrimSpace(raw.Author),
		DetailLines:  append([]string(nil), raw.DetailLines...),
		RawRecordID:  raw.RecordID,
	}

	if end, ok := resolveEnd(raw, ev.StartTimeUTC, day); ok {
		ev.EndTimeUTC = &end
	}

	return ev, nil
}

// resolveStart derives the start instant in order of preference: explicit
// ISO instant, instant embedded in the time text, clock token combined
// with the day marker, or day midnight. The result depends only on the
// record, never on the time of computation.
func resolveStart(raw RawRecord) (time.Time, bool) {
	if t, ok := parseInstant(raw.StartISO); ok {
		return t, true
	}
	if t, ok := parseInstant(raw.TimeText); ok {
		return t, true
	}
	if raw.DayISO != "" {
		for _, text := range append([]string{raw.TimeText}, raw.DetailLines...) {
			if t, ok := combineDayClock(raw.DayISO, text); ok {
				return t, true
			}
		}
		if t, err := time.ParseInLocation("2006-01-02", raw.DayISO, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// resolveEnd derives an end instant from an explicit ISO value or from a
// clock range in the detail lines. A range end at or before the start
// rolls over to the next day.
func resolveEnd(raw RawRecord, start time.Time, day string) (time.Time, bool) {
	if t, ok := parseInstant(raw.EndISO); ok {
		return t, true
	}
	var candidate string
	for _, line := range append([]string{raw.TimeText}, raw.DetailLines...) {
		if m := timeRangePattern.FindStringSubmatch(line); m != nil {
			candidate = m[2]
			break
		}
	}
	if candidate == "" {
		return time.Time{}, false
	}
	end, ok := combineDayClock(day, candidate)
	if !ok {
		return time.Time{}, false
	}
	if !end.After(start) {
		end = end.Add(24 * time.Hour)
	}
	return end, true
}

// parseInstant extracts and parses an ISO-8601 instant embedded anywhere
// in the given text. Naive instants are taken as UTC.
func parseInstant(text string) (time.Time, bool) {
	if strings.TrimSpace(text) == "" {
		return time.Time{}, false
	}
	candidate := isoInstantPattern.FindString(text)
	if candidate == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
	} {
		if t, err := time.ParseInLocation(layout, candidate, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseClock parses a bare clock token ("7:23", "7:23pm") into hour and
// minute, applying am/pm when present.
func parseClock(token string) (hour, minute int, ok bool) {
	m := clockTokenPattern.FindStringSubmatch(token)
	if m == nil {
		return 0, 0, false
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return 0, 0, false
	}
	switch strings.ToLower(m[3]) {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	return hour, minute, true
}

// combineDayClock combines a day marker with the first clock token found
// in the given text.
func combineDayClock(dayISO, text string) (time.Time, bool) {
	base, err := time.ParseInLocation("2006-01-02", dayISO, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	hour, minute, ok := parseClock(text)
	if !ok {
		return time.Time{}, false
	}
	return base.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute), true
}
