package reconcile

import (
	"testing"
	"time"

	"nursery-sync/feature/events/fingerprint"
	"nursery-sync/feature/events/models"

	"github.com/stretchr/testify/assert"
)

var testCfg = Config{HeuristicPrecisionSeconds: 60}

func makeEvent(id uint, system, child, eventType, day string, start time.Time, lines ...string) *models.Event {
	ev := &models.Event{
		ID:           id,
		SourceSystem: system,
		ChildName:    child,
		EventType:    eventType,
		Day:          day,
		StartTimeUTC: start,
		DetailLines:  lines,
	}
	if fp, err := fingerprint.Compute(ev); err == nil {
		ev.Fingerprint = fp
	}
	return ev
}

func TestReconcile_Partition(t *testing.T) {
	day := "2024-03-05"
	at := func(h, m int) time.Time { return time.Date(2024, 3, 5, h, m, 0, 0, time.UTC) }

	matchedSrc := makeEvent(1, models.SystemSource, "Ada", "meal", day, at(11, 30), "Pasta bake")
	matchedTgt := makeEvent(2, models.SystemTarget, "Ada", "meal", day, at(11, 42), "Pasta bake")
	srcOnly := makeEvent(3, models.SystemSource, "Ada", "nappy", day, at(9, 0), "Wet nappy")
	tgtOnly := makeEvent(4, models.SystemTarget, "Ada", "sleep", day, at(13, 0), "Nap 90min")

	pairs := Reconcile(
		[]*models.Event{matchedSrc, srcOnly},
		[]*models.Event{matchedTgt, tgtOnly},
		testCfg,
	)
	assert.Len(t, pairs, 3)

	var matched, sourceOnly, targetOnly int
	for _, p := range pairs {
		switch {
		case p.IsMatched():
			matched++
			assert.Same(t, matchedSrc, p.Source)
			assert.Same(t, matchedTgt, p.Target)
		case p.IsSourceOnly():
			sourceOnly++
			assert.Same(t, srcOnly, p.Source)
		default:
			targetOnly++
			assert.Same(t, tgtOnly, p.Target)
		}
	}
	assert.Equal(t, 1, matched)
	assert.Equal(t, 1, sourceOnly)
	assert.Equal(t, 1, targetOnly)

	// Display flags follow the partition.
	assert.True(t, matchedSrc.Matched)
	assert.True(t, matchedTgt.Matched)
	assert.False(t, srcOnly.Matched)
	assert.False(t, tgtOnly.Matched)
}

func TestReconcile_TimestampDriftStillMatches(t *testing.T) {
	day := "2024-03-05"
	src := makeEvent(1, models.SystemSource, "Ada", "meal", day,
		time.Date(2024, 3, 5, 11, 30, 0, 0, time.UTC), "Pasta bake")
	tgt := makeEvent(2, models.SystemTarget, "Ada", "meal", day,
		time.Date(2024, 3, 5, 14, 55, 0, 0, time.UTC), "Pasta bake")

	pairs := Reconcile([]*models.Event{src}, []*models.Event{tgt}, testCfg)
	assert.Len(t, pairs, 1)
	assert.True(t, pairs[0].IsMatched())
}

func TestReconcile_SplitFragmentsMatchIndependently(t *testing.T) {
	day := "2024-03-05"
	parent := "rec-1"
	frag := func(id uint, system string, idx int, h, m int, line string) *models.Event {
		i := idx
		p := parent
		ev := makeEvent(id, system, "Ada", "meal", day,
			time.Date(2024, 3, 5, h, m, 0, 0, time.UTC), line)
		ev.SplitIndex = &i
		ev.ParentSourceEventID = &p
		return ev
	}

	srcA := frag(1, models.SystemSource, 0, 8, 0, "Bottle 150ml")
	srcB := frag(2, models.SystemSource, 1, 11, 0, "Bottle 120ml")
	tgtA := frag(3, models.SystemTarget, 0, 8, 0, "Bottle 150ml")

	pairs := Reconcile([]*models.Event{srcA, srcB}, []*models.Event{tgtA}, testCfg)
	assert.Len(t, pairs, 2)

	// Fragments never collapse onto the parent fingerprint: the 08:00
	// fragment matches its counterpart, the 11:00 one stays missing.
	assert.True(t, srcA.Matched)
	assert.False(t, srcB.Matched)
}

func TestReconcile_FragmentMatchesStandaloneEntry(t *testing.T) {
	day := "2024-03-05"
	parent := "rec-1"
	frag := func(id uint, idx, h int, line string) *models.Event {
		i := idx
		p := parent
		ev := makeEvent(id, models.SystemSource, "Ada", "meal", day,
			time.Date(2024, 3, 5, h, 0, 0, 0, time.UTC), line)
		ev.SplitIndex = &i
		ev.ParentSourceEventID = &p
		return ev
	}

	fragA := frag(1, 0, 8, "Bottle 120ml")
	fragB := frag(2, 1, 11, "Bottle 90ml")
	// The other side recorded the 08:00 feed as an ordinary, unsplit
	// entry. The fragment must still pair with it on the fingerprint.
	standalone := makeEvent(3, models.SystemTarget, "Ada", "meal", day,
		time.Date(2024, 3, 5, 8, 30, 0, 0, time.UTC), "Bottle 120ml")

	pairs := Reconcile([]*models.Event{fragA, fragB}, []*models.Event{standalone}, testCfg)
	assert.Len(t, pairs, 2)
	assert.True(t, fragA.Matched)
	assert.True(t, standalone.Matched)
	assert.False(t, fragB.Matched)
}

func TestReconcile_IdenticalSiblingFragmentsStayApart(t *testing.T) {
	day := "2024-03-05"
	parent := "rec-1"
	frag := func(id uint, idx, h int) *models.Event {
		i := idx
		p := parent
		ev := makeEvent(id, models.SystemSource, "Ada", "meal", day,
			time.Date(2024, 3, 5, h, 0, 0, 0, time.UTC), "Bottle 120ml")
		ev.SplitIndex = &i
		ev.ParentSourceEventID = &p
		return ev
	}

	// Two feeds with identical content share a fingerprint; the precise
	// sub-entry times keep them on separate rows.
	fragA := frag(1, 0, 8)
	fragB := frag(2, 1, 11)

	pairs := Reconcile([]*models.Event{fragA, fragB}, nil, testCfg)
	assert.Len(t, pairs, 2)
	assert.NotEqual(t, pairs[0].Key, pairs[1].Key)
	assert.True(t, pairs[0].IsSourceOnly())
	assert.True(t, pairs[1].IsSourceOnly())
}

func TestReconcile_SameKeyExtrasSurface(t *testing.T) {
	day := "2024-03-05"
	at := time.Date(2024, 3, 5, 11, 30, 0, 0, time.UTC)

	srcA := makeEvent(1, models.SystemSource, "Ada", "meal", day, at, "Pasta bake")
	srcB := makeEvent(2, models.SystemSource, "Ada", "meal", day, at, "Pasta bake")
	tgt := makeEvent(3, models.SystemTarget, "Ada", "meal", day, at, "Pasta bake")

	pairs := Reconcile([]*models.Event{srcA, srcB}, []*models.Event{tgt}, testCfg)
	assert.Len(t, pairs, 2)

	// First pairing wins the shared key; the extra surfaces on its own row
	// with a disambiguated key instead of being dropped.
	assert.True(t, pairs[0].IsMatched() || pairs[1].IsMatched())
	keys := map[string]struct{}{pairs[0].Key: {}, pairs[1].Key: {}}
	assert.Len(t, keys, 2)
}

func TestReconcile_OrderedNewestFirst(t *testing.T) {
	day := "2024-03-05"
	old := makeEvent(1, models.SystemSource, "Ada", "meal", day,
		time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC), "Breakfast")
	end := time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC)
	withEnd := makeEvent(2, models.SystemSource, "Ada", "sleep", day,
		time.Date(2024, 3, 5, 12, 30, 0, 0, time.UTC), "Nap")
	withEnd.EndTimeUTC = &end
	mid := makeEvent(3, models.SystemSource, "Ada", "nappy", day,
		time.Date(2024, 3, 5, 13, 0, 0, 0, time.UTC), "Dry nappy")

	pairs := Reconcile([]*models.Event{old, withEnd, mid}, nil, testCfg)
	assert.Len(t, pairs, 3)

	// The sleep row sorts by its end time, ahead of the 13:00 nappy.
	assert.Same(t, withEnd, pairs[0].Source)
	assert.Same(t, mid, pairs[1].Source)
	assert.Same(t, old, pairs[2].Source)
}

func TestReconcile_DuplicateAdvisory(t *testing.T) {
	day := "2024-03-05"

	t.Run("DistinctTimesFlagged", func(t *testing.T) {
		a := makeEvent(1, models.SystemSource, "Ada", "meal", day,
			time.Date(2024, 3, 5, 11, 30, 0, 0, time.UTC), "Pasta bake")
		b := makeEvent(2, models.SystemSource, "Ada", "meal", day,
			time.Date(2024, 3, 5, 12, 45, 0, 0, time.UTC), "Pasta bake")

		pairs := Reconcile([]*models.Event{a, b}, nil, testCfg)
		assert.Len(t, pairs, 2)
		assert.True(t, pairs[0].Duplicate)
		assert.True(t, pairs[1].Duplicate)

		// Advisory only: both rows remain source-only candidates.
		assert.True(t, pairs[0].IsSourceOnly())
		assert.True(t, pairs[1].IsSourceOnly())
	})

	t.Run("ClockSkewNotFlagged", func(t *testing.T) {
		a := makeEvent(1, models.SystemSource, "Ada", "meal", day,
			time.Date(2024, 3, 5, 11, 30, 5, 0, time.UTC), "Pasta bake")
		b := makeEvent(2, models.SystemSource, "Ada", "meal", day,
			time.Date(2024, 3, 5, 11, 30, 40, 0, time.UTC), "Pasta bake")

		pairs := Reconcile([]*models.Event{a, b}, nil, testCfg)
		for _, p := range pairs {
			assert.False(t, p.Duplicate)
		}
	})
}
