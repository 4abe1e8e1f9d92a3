package events

import (
	"sort"
	"strings"
)

// Canonical event types. The set is open; these are the ones the default
// mapping and the target payload tables know about.
const (
	TypeMeal    = "meal"
	TypeNappy   = "nappy"
	TypeSleep   = "sleep"
	TypeSignIn  = "sign-in"
	TypeSignOut = "sign-out"
	TypeMessage = "message"
)

// TypeMapping maps raw display labels to canonical event types. The table
// is operator-editable (persisted as a setting); keyword fallbacks keep
// common label variants aligned when no explicit rule exists.
type TypeMapping map[string]string

// DefaultTypeMapping returns the mapping shipped out of the box.
func DefaultTypeMapping() TypeMapping {
	return TypeMapping{
		"meals":        TypeMeal,
		"meal":         TypeMeal,
		"breakfast":    TypeMeal,
		"lunch":        TypeMeal,
		"tea":          TypeMeal,
		"snack":        TypeMeal,
		"nappy":        TypeNappy,
		"nappy change": TypeNappy,
		"diaper":       TypeNappy,
		"sleep":        TypeSleep,
		"nap":          TypeSleep,
		"signed in":    TypeSignIn,
		"signed out":   TypeSignOut,
		"message":      TypeMessage,
	}
}

// Canonical resolves a raw display label to a canonical event type.
// Exact matches win over substring matches; unknown labels pass through
// lower-cased so new types surface rather than disappear.
func (m TypeMapping) Canonical(label string) string {
	lower := strings.ToLower(strings.TrimSpace(label))
	if lower == "" {
		return ""
	}
	if v, ok := m[lower]; ok {
		return v
	}

	// Substring fallback, longest key first so "nappy change" beats "nap".
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		if strings.Contains(lower, strings.ToLower(k)) {
			return m[k]
		}
	}
	return lower
}

// SyncTypeKey maps a canonical event type onto the vocabulary used by the
// sync-preference filter (the target system's entry categories).
func SyncTypeKey(eventType string) string {
	switch strings.ToLower(strings.TrimSpace(eventType)) {
	case TypeMeal, "meals", "solid", "food":
		return "solid"
	case TypeNappy, "nappy change", "diaper":
		return "nappy"
	case TypeSignIn, TypeSignOut, "signed in", "signed out", TypeMessage:
		return "message"
	default:
		return strings.ToLower(strings.TrimSpace(eventType))
	}
}

// DefaultIncludeTypes is the default sync-preference filter.
func DefaultIncludeTypes() []string {
	return []string{"solid", "nappy", "sleep", "message", "bottle", "medicine", "temperature", "bath"}
}
