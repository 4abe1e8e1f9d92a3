package reconcile

import (
	"sort"

	"nursery-sync/feature/events/models"
)

// Reconcile pairs canonical events from both systems. Every input event
// appears in exactly one MatchedPair: a key with one source and one target
// event is matched, one source only is candidate-missing, one target only
// is informational. Same-source extras under one key surface as their own
// rows rather than being dropped. The result is ordered by effective
// timestamp descending.
func Reconcile(sourceEvents, targetEvents []*models.Event, cfg Config) []MatchedPair {
	precision := cfg.HeuristicPrecision()

	type bucket struct {
		source []*models.Event
		target []*models.Event
	}
	buckets := make(map[string]*bucket)
	keys := make([]string, 0)

	add := func(evs []*models.Event, fromSource bool) {
		shared := sharedFingerprints(evs)
		for _, ev := range evs {
			key := MatchKey(ev, precision, shared)
			b, ok := buckets[key]
			if !ok {
				b = &bucket{}
				buckets[key] = b
				keys = append(keys, key)
			}
			if fromSource {
				b.source = append(b.source, ev)
			} else {
				b.target = append(b.target, ev)
			}
		}
	}
	add(sourceEvents, true)
	add(targetEvents, false)

	duplicates := duplicateEventIDs(sourceEvents, precision)

	pairs := make([]MatchedPair, 0, len(keys))
	for _, key := range keys {
		b := buckets[key]
		n := len(b.source)
		if len(b.target) > n {
			n = len(b.target)
		}
		for i := 0; i < n; i++ {
			var src, tgt *models.Event
			if i < len(b.source) {
				src = b.source[i]
			}
			if i < len(b.target) {
				tgt = b.target[i]
			}
			rowKey := key
			if i > 0 {
				// Modelling anomaly: more than one event from the same
				// source shared the key. Extras get per-event keys.
				if src != nil {
					rowKey = perEventKey(src, precision)
				} else {
					rowKey = perEventKey(tgt, precision)
				}
			}
			pair := MatchedPair{Key: rowKey, Source: src, Target: tgt}
			if src != nil {
				src.Matched = tgt != nil
				if duplicates[src.ID] {
					pair.Duplicate = true
					src.Duplicate = true
				}
			}
			if tgt != nil {
				tgt.Matched = src != nil
			}
			pairs = append(pairs, pair)
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		ti, tj := pairs[i].EffectiveTime(), pairs[j].EffectiveTime()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return pairs[i].Key < pairs[j].Key
	})

	return pairs
}
