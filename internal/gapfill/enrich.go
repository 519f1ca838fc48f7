package gapfill

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// GroupRemindersByPatient normalizes a candidate's reminder associations into
// a single canonical map of patient name to reminder descriptions.
//
// When a patient's own Reminders list is present and non-empty it is used
// verbatim and the legacy flat list is ignored for that patient. Otherwise
// each flat reminder is attributed via the position of its id in the parallel
// ReminderIDs list; a reminder whose id cannot be matched to a patient index
// goes to the first patient. Patients with zero reminders stay in the map
// with an empty list.
func GroupRemindersByPatient(c *Candidate) map[string][]string {
	grouped := make(map[string][]string, len(c.PatientNames))
	for _, name := range c.PatientNames {
		grouped[name] = []string{}
	}

	authoritative := make(map[string]bool, len(c.Patients))
	for _, p := range c.Patients {
		if len(p.Reminders) == 0 {
			continue
		}
		descriptions := make([]string, 0, len(p.Reminders))
		for _, r := range p.Reminders {
			descriptions = append(descriptions, r.Description)
		}
		grouped[p.Name] = descriptions
		authoritative[p.Name] = true
	}

	if len(c.PatientNames) == 0 {
		return grouped
	}

	for _, r := range c.Reminders {
		name := c.PatientNames[0]
		if idx := indexOf(c.ReminderIDs, r.ID); idx >= 0 && idx < len(c.PatientNames) {
			name = c.PatientNames[idx]
		}
		if authoritative[name] {
			continue
		}
		grouped[name] = append(grouped[name], r.Description)
	}

	return grouped
}

func indexOf(ids []string, id string) int {
	if id == "" {
		return -1
	}
	for i, candidate := range ids {
		if candidate == id {
			return i
		}
	}
	return -1
}

// FormatPatientDescriptor builds the compact one-line patient summary shown
// next to each patient: age in whole years, breed, species in parentheses,
// and weight, each omitted independently when absent.
func FormatPatientDescriptor(p Patient) string {
	return formatPatientDescriptorAt(p, time.Now())
}

func formatPatientDescriptorAt(p Patient, now time.Time) string {
	parts := make([]string, 0, 4)

	if p.DateOfBirth != nil {
		if age, ok := ageYears(*p.DateOfBirth, now); ok {
			parts = append(parts, strconv.Itoa(age))
		}
	}
	if p.Breed != "" {
		parts = append(parts, p.Breed)
	}
	if p.Species != "" {
		parts = append(parts, "("+p.Species+")")
	}
	if p.WeightLbs != nil {
		parts = append(parts, fmt.Sprintf("%g lbs", *p.WeightLbs))
	}

	return strings.Join(parts, " ")
}

// ageYears floors elapsed years from dob to now. A negative age means a
// malformed date or clock skew and is reported as unknown, never rendered.
func ageYears(dob, now time.Time) (int, bool) {
	years := now.Year() - dob.Year()
	anniversary := dob.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	if years < 0 {
		return 0, false
	}
	return years, true
}
