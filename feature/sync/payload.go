package sync

import (
	"fmt"
	"strings"

	"nursery-sync/feature/events"
	"nursery-sync/feature/events/models"
	"nursery-sync/feature/sync/client"
)

// BuildEntry maps a normalised source event onto the target system's
// entry shape. Attendance and free-text events become message entries;
// nappy events get their diaper type inferred from the detail text.
func BuildEntry(ev *models.Event) client.Entry {
	entry := client.Entry{
		ChildName:    ev.ChildName,
		EntryType:    events.SyncTypeKey(ev.EventType),
		StartTimeUTC: ev.StartTimeUTC,
		EndTimeUTC:   ev.EndTimeUTC,
		Note:         ev.Note,
		Summary:      ev.Summary,
	}

	switch ev.EventType {
	case events.TypeNappy:
		entry.DiaperType = inferDiaperType(ev)
	case events.TypeSignIn:
		entry.Message = attendanceMessage("Signed in", ev)
	case events.TypeSignOut:
		entry.Message = attendanceMessage("Signed out", ev)
	case events.TypeMessage:
		entry.Message = messageText(ev)
	}
	return entry
}

// inferDiaperType reads the detail text for soil markers. A nappy with
// both markers reports the combined type; one with neither is dry.
func inferDiaperType(ev *models.Event) string {
	text := strings.ToLower(strings.Join(ev.DetailLines, " "))
	if text == "" {
		text = strings.ToLower(ev.Summary + " " + ev.Note)
	}

	soiled := strings.Contains(text, "bm") ||
		strings.Contains(text, "soiled") ||
		strings.Contains(text, "dirty") ||
		strings.Contains(text, "poo")
	wet := strings.Contains(text, "wet") || strings.Contains(text, "urine")

	switch {
	case soiled && wet:
		return "bm+wet"
	case soiled:
		return "bm"
	case wet:
		return "wet"
	default:
		return "dry"
	}
}

func attendanceMessage(verb string, ev *models.Event) string {
	msg := fmt.Sprintf("%s at %s", verb, ev.StartTimeUTC.Format("15:04"))
	if ev.Author != "" {
		msg += " by " + ev.Author
	}
	return msg
}

func messageText(ev *models.Event) string {
	if len(ev.DetailLines) > 0 {
		return strings.Join(ev.DetailLines, "\n")
	}
	if ev.Note != "" {
		return ev.Note
	}
	return ev.Summary
}
