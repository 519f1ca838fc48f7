package gapfill

import "time"

// Reminder is a read-only projection of an overdue care reminder from the
// upstream reminder system.
type Reminder struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// Patient is the richer per-patient record a candidate may carry. When
// Reminders is non-empty it is the authoritative reminder association for
// that patient.
type Patient struct {
	ID          string     `json:"id"`
	ExternalID  string     `json:"externalId,omitempty"`
	Name        string     `json:"name"`
	Species     string     `json:"species,omitempty"`
	Breed       string     `json:"breed,omitempty"`
	WeightLbs   *float64   `json:"weightLbs,omitempty"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	Alerts      []string   `json:"alerts,omitempty"`
	Reminders   []Reminder `json:"reminders,omitempty"`
}

// Address is the structured client address plus the precomputed display string.
type Address struct {
	Street string `json:"street,omitempty"`
	City   string `json:"city,omitempty"`
	State  string `json:"state,omitempty"`
	Zip    string `json:"zip,omitempty"`
	Full   string `json:"full,omitempty"`
}

// Candidate is one provider+day gap-fill opportunity produced by the route
// optimizer.
//
// Reminder associations come in two shapes. When a Patient carries its own
// Reminders, that list is authoritative. The flat Reminders/ReminderIDs pair
// is the legacy shape: ReminderIDs is parallel to PatientIDs, so the position
// of a reminder's id in ReminderIDs selects the owning patient. The two
// shapes are never merged.
type Candidate struct {
	ClientID         string   `json:"clientId"`
	ClientName       string   `json:"clientName"`
	ClientExternalID string   `json:"clientExternalId,omitempty"`
	ClientAlerts     []string `json:"clientAlerts,omitempty"`

	Address   Address  `json:"address"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	PatientIDs   []string  `json:"patientIds"`
	PatientNames []string  `json:"patientNames"`
	Patients     []Patient `json:"patients,omitempty"`

	Reminders   []Reminder `json:"reminders,omitempty"`
	ReminderIDs []string   `json:"reminderIds,omitempty"`

	TargetDate         string  `json:"targetDate"`
	ProposedStart      string  `json:"proposedStart"`
	ArrivalWindowStart string  `json:"arrivalWindowStart"`
	ArrivalWindowEnd   string  `json:"arrivalWindowEnd"`
	RequiredDurationS  int     `json:"requiredDurationSeconds"`
	AddedDriveSeconds  int     `json:"addedDriveSeconds"`
	HoleIndex          int     `json:"holeIndex"`
	Score              float64 `json:"score"`
	DeepLink           string  `json:"deepLink,omitempty"`
	OverduePatients    int     `json:"patientsWithOverdueReminders"`
}

// RunStats summarizes a single optimizer run.
type RunStats struct {
	HolesFound          int `json:"holesFound"`
	CandidatesEvaluated int `json:"candidatesEvaluated"`
	ShortlistSize       int `json:"shortlistSize"`
	FinalResults        int `json:"finalResults"`
}

// FetchResult is the optimizer response for one provider+day request.
type FetchResult struct {
	Candidates []Candidate `json:"candidates"`
	Stats      RunStats    `json:"stats"`
	Message    string      `json:"message,omitempty"`
}

// timestampLayouts are the accepted wire formats for candidate timestamps.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses a candidate timestamp in any accepted wire format.
func ParseTimestamp(value string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
