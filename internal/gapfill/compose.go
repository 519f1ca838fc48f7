package gapfill

import (
	"fmt"
	"strings"
)

const (
	proposedDateLayout = "Mon, Jan 02, 2006"
	proposedTimeLayout = "3:04 PM"
)

// ComposeMessage renders the outreach notification for a candidate. It is
// pure: the output depends only on the candidate, so it can be re-rendered
// freely before the user edits it.
func ComposeMessage(c *Candidate) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Hi %s! This is your mobile vet team. ", firstName(c.ClientName)))
	b.WriteString("Our records show the following pets are due for care:\n")

	grouped := GroupRemindersByPatient(c)
	for _, name := range c.PatientNames {
		reminders := grouped[name]
		if len(reminders) == 0 {
			continue
		}
		b.WriteString("\n")
		b.WriteString(name)
		b.WriteString(":\n")
		for _, r := range reminders {
			b.WriteString("- ")
			b.WriteString(r)
			b.WriteString("\n")
		}
	}

	b.WriteString("\nWe have an opening")
	if start, ok := ParseTimestamp(c.ProposedStart); ok {
		b.WriteString(fmt.Sprintf(" on %s at %s", start.Format(proposedDateLayout), start.Format(proposedTimeLayout)))
	}
	if ws, ok := ParseTimestamp(c.ArrivalWindowStart); ok {
		if we, ok := ParseTimestamp(c.ArrivalWindowEnd); ok {
			b.WriteString(fmt.Sprintf(", with arrival between %s and %s", ws.Format(proposedTimeLayout), we.Format(proposedTimeLayout)))
		}
	}
	b.WriteString(".\n\n")

	held := "your pet"
	if len(c.PatientNames) > 0 {
		held = c.PatientNames[0]
	}
	b.WriteString(fmt.Sprintf(
		"We're holding this slot for %s, but it may be offered to other clients. Please reply promptly to confirm!",
		held,
	))

	return b.String()
}

// firstName returns the first whitespace-delimited token of a full name.
func firstName(fullName string) string {
	fields := strings.Fields(fullName)
	if len(fields) == 0 {
		return "there"
	}
	return fields[0]
}
