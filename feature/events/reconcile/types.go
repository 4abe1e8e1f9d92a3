package reconcile

import (
	"time"

	"nursery-sync/feature/events/models"
)

// MatchedPair is one row of the reconciliation output. Exactly one of
// Source/Target may be nil, never both. Pairs are derived per call and
// never persisted.
type MatchedPair struct {
	// Key is the matching key the pair was grouped under.
	Key string `json:"key"`

	// Source is the source-system event, nil for target-only rows.
	Source *models.Event `json:"source,omitempty"`

	// Target is the target-system event, nil for source-only rows.
	Target *models.Event `json:"target,omitempty"`

	// Duplicate marks the source event as a possible intra-source
	// duplicate. Advisory only; it never alters matching or sync
	// eligibility.
	Duplicate bool `json:"possible_duplicate"`
}

// IsMatched reports whether both sides are present.
func (p MatchedPair) IsMatched() bool {
	return p.Source != nil && p.Target != nil
}

// IsSourceOnly reports whether the row is a candidate-missing event.
func (p MatchedPair) IsSourceOnly() bool {
	return p.Source != nil && p.Target == nil
}

// EffectiveTime is the instant the pair sorts by.
func (p MatchedPair) EffectiveTime() time.Time {
	if p.Source != nil {
		return p.Source.EffectiveTime()
	}
	if p.Target != nil {
		return p.Target.EffectiveTime()
	}
	return time.Time{}
}
