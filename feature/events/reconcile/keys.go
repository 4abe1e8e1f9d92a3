package reconcile

import (
	"fmt"
	"strings"
	"time"

	"nursery-sync/feature/events/fingerprint"
	"nursery-sync/feature/events/models"
)

// MatchKey derives the matching key for one event. Events with a
// fingerprint match on it, split fragments included, so a fragment of a
// bundled record pairs with the same entry recorded individually on the
// other side. A fragment falls back to the heuristic key only when its
// fingerprint is shared within its own system (sibling fragments with
// identical content must not collapse into one pair), which is why the
// fallback key carries the precise sub-entry time.
func MatchKey(ev *models.Event, precision time.Duration, shared map[string]bool) string {
	if ev.Fingerprint == "" || (ev.IsSplitFragment() && shared[ev.Fingerprint]) {
		return heuristicKey(ev, precision)
	}
	return "fp:" + ev.Fingerprint
}

// sharedFingerprints returns the fingerprints carried by more than one
// event in evs.
func sharedFingerprints(evs []*models.Event) map[string]bool {
	counts := make(map[string]int)
	for _, ev := range evs {
		if ev.Fingerprint != "" {
			counts[ev.Fingerprint]++
		}
	}
	shared := make(map[string]bool)
	for fp, n := range counts {
		if n > 1 {
			shared[fp] = true
		}
	}
	return shared
}

// heuristicKey builds the coarse fallback key from day, type,
// precision-truncated start time, child and detail signature.
func heuristicKey(ev *models.Event, precision time.Duration) string {
	return strings.Join([]string{
		"hx",
		ev.Day,
		strings.ToLower(strings.TrimSpace(ev.EventType)),
		ev.StartTimeUTC.UTC().Truncate(precision).Format(time.RFC3339),
		strings.ToLower(strings.TrimSpace(ev.ChildName)),
		fingerprint.Signature(ev),
	}, "|")
}

// perEventKey disambiguates anomaly rows (several same-source events under
// one key) so extras surface individually instead of being dropped.
func perEventKey(ev *models.Event, precision time.Duration) string {
	return fmt.Sprintf("%s#%d", heuristicKey(ev, precision), ev.ID)
}
