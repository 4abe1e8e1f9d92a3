package events

import (
	"strings"
	"time"

	"nursery-sync/feature/events/models"
)

// Split expands a draft whose detail lines bundle several timestamped
// sub-entries into independent drafts, one per sub-entry. Each fragment
// inherits the draft's fields, carries the raw record as its parent and
// its position as the split index, and is re-timed from its own leading
// clock token. Drafts with zero or one embedded time token pass through
// unchanged with both provenance fields left null.
func Split(draft *models.Event) []*models.Event {
	tokens := 0
	for _, line := range draft.DetailLines {
		if clockPattern.MatchString(line) {
			tokens++
		}
	}
	if tokens <= 1 {
		return []*models.Event{draft}
	}

	blocks := partitionEntryBlocks(draft.DetailLines)
	if len(blocks) <= 1 {
		return []*models.Event{draft}
	}

	out := make([]*models.Event, 0, len(blocks))
	for i, block := range blocks {
		fragment := *draft
		fragment.DetailLines = block

		idx := i
		fragment.SplitIndex = &idx
		parent := draft.RawRecordID
		fragment.ParentSourceEventID = &parent

		// Re-time from the fragment's own clock token; an implicit first
		// block without one keeps the parent's start.
		if start, ok := firstClockInstant(block, draft.Day); ok {
			fragment.StartTimeUTC = start
		}
		fragment.EndTimeUTC = nil
		if end, ok := blockRangeEnd(block, fragment.StartTimeUTC, draft.Day); ok {
			fragment.EndTimeUTC = &end
		}

		out = append(out, &fragment)
	}
	return out
}

// partitionEntryBlocks groups detail lines into sub-entries: a new block
// starts at every time-token line and absorbs following non-token lines.
// Empty leading lines before the first token are discarded; non-empty
// leading content becomes an implicit first block.
func partitionEntryBlocks(lines []string) [][]string {
	var blocks [][]string
	var current []string
	for _, line := range lines {
		if clockPattern.MatchString(line) {
			if len(current) > 0 {
				blocks = append(blocks, current)
			}
			current = []string{line}
			continue
		}
		if strings.TrimSpace(line) == "" && len(current) == 0 {
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

// firstClockInstant resolves the first clock token in the block against
// the event's day.
func firstClockInstant(block []string, dayISO string) (time.Time, bool) {
	for _, line := range block {
		if !clockPattern.MatchString(line) {
			continue
		}
		if t, ok := combineDayClock(dayISO, line); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// blockRangeEnd resolves a clock range inside the block into an end
// instant, rolling over midnight when the end precedes the start.
func blockRangeEnd(block []string, start time.Time, dayISO string) (time.Time, bool) {
	for _, line := range block {
		m := timeRangePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		end, ok := combineDayClock(dayISO, m[2])
		if !ok {
			return time.Time{}, false
		}
		if !end.After(start) {
			end = end.Add(24 * time.Hour)
		}
		return end, true
	}
	return time.Time{}, false
}
