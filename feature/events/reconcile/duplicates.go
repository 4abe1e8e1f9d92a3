package reconcile

import (
	"strings"
	"time"

	"nursery-sync/feature/events/fingerprint"
	"nursery-sync/feature/events/models"
)

// duplicateEventIDs flags source events that likely describe the same
// real-world entry twice: same day, type and detail signature but genuinely
// different precise times (beyond the heuristic precision, so clock skew
// alone does not trip it). The flag is advisory and never changes matching
// or sync eligibility.
func duplicateEventIDs(sourceEvents []*models.Event, precision time.Duration) map[uint]bool {
	type group struct {
		ids   []uint
		times map[time.Time]struct{}
	}
	groups := make(map[string]*group)
	for _, ev := range sourceEvents {
		key := strings.Join([]string{
			ev.Day,
			strings.ToLower(strings.TrimSpace(ev.EventType)),
			fingerprint.Signature(ev),
		}, "|")
		g, ok := groups[key]
		if !ok {
			g = &group{times: make(map[time.Time]struct{})}
			groups[key] = g
		}
		g.ids = append(g.ids, ev.ID)
		g.times[ev.StartTimeUTC.UTC().Truncate(precision)] = struct{}{}
	}

	flagged := make(map[uint]bool)
	for _, g := range groups {
		if len(g.ids) < 2 || len(g.times) < 2 {
			continue
		}
		for _, id := range g.ids {
			flagged[id] = true
		}
	}
	return flagged
}
