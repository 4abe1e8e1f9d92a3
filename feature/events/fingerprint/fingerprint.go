package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"

	"nursery-sync/feature/events/models"
)

// ErrIndeterminate marks an event whose content signature is empty after
// all fallbacks. Such an event is permanently unmatchable by fingerprint
// and must never be forced to collide with another genuinely-empty event.
var ErrIndeterminate = errors.New("fingerprint: empty content signature")

var (
	leadingClockPattern = regexp.MustCompile(`(?i)^\s*\d{1,2}:\d{2}\s*(?:am|pm)?(?:\s*(?:-|–|to)\s*\d{1,2}:\d{2}\s*(?:am|pm)?)?\s*[:\-–]?\s*`)
	bracketPattern      = regexp.MustCompile(`\[[^\]]*\]`)
	parenPattern        = regexp.MustCompile(`\([^)]*\)`)
	whitespacePattern   = regexp.MustCompile(`\s+`)
)

// Compute derives the deterministic content identity of a canonical
// event. It is a pure function of (child, event type, day, detail
// signature): recomputing from the same normalised content always yields
// the same value, and the exact clock value never participates, so
// source-to-source timestamp drift within a day does not break matching.
func Compute(ev *models.Event) (string, error) {
	sig := Signature(ev)
	if sig == "" {
		return "", ErrIndeterminate
	}
	input := strings.Join([]string{
		strings.ToLower(strings.TrimSpace(ev.ChildName)),
		strings.ToLower(strings.TrimSpace(ev.EventType)),
		ev.Day,
		sig,
	}, "|")
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:]), nil
}

// Signature produces the normalised content signature shared by the
// fingerprint and the reconciler's heuristic keys: detail lines with
// leading clock tokens, sync markers and parenthetical asides stripped,
// lower-cased, whitespace-collapsed and deduplicated. When no line
// survives it falls back to the summary, then the note. Empty means the
// event has no matchable content.
func Signature(ev *models.Event) string {
	var parts []string
	seen := make(map[string]struct{})
	for _, line := range ev.DetailLines {
		cleaned := normaliseDetailLine(line)
		if cleaned == "" {
			continue
		}
		if _, dup := seen[cleaned]; dup {
			continue
		}
		seen[cleaned] = struct{}{}
		parts = append(parts, cleaned)
	}
	if len(parts) > 0 {
		return strings.Join(parts, " | ")
	}
	for _, fallback := range []string{ev.Summary, ev.Note} {
		if cleaned := cleanText(fallback); cleaned != "" {
			return cleaned
		}
	}
	return ""
}

// normaliseDetailLine strips the leading clock or clock-range token from a
// detail line and cleans the remainder. A line that was only a clock token
// contributes nothing.
func normaliseDetailLine(line string) string {
	stripped := leadingClockPattern.ReplaceAllString(line, "")
	return cleanText(stripped)
}

// cleanText removes bracketed sync markers and parenthetical asides,
// lower-cases and collapses whitespace.
func cleanText(text string) string {
	s := bracketPattern.ReplaceAllString(text, " ")
	s = parenPattern.ReplaceAllString(s, " ")
	s = strings.ToLower(s)
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.Trim(s, " -:|–,")
}
