package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobilevet/routefill/internal/config"
	"github.com/mobilevet/routefill/internal/gapfill"
	"github.com/mobilevet/routefill/internal/outreach"
	"github.com/mobilevet/routefill/internal/schedule"
)

type stubFetcher struct {
	result *gapfill.FetchResult
	err    error
}

func (f *stubFetcher) FetchCandidates(_ context.Context, providerID, targetDate string) (*gapfill.FetchResult, error) {
	if providerID == "" {
		return nil, gapfill.ErrMissingProvider
	}
	if targetDate == "" {
		return nil, gapfill.ErrMissingDate
	}
	return f.result, f.err
}

type stubSender struct {
	mu   sync.Mutex
	err  error
	sent []string
}

func (s *stubSender) SendClientMessage(_ context.Context, clientID, message string, override bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, message)
	return s.err
}

type stubLookup struct{}

func (stubLookup) LookupByExternalID(_ context.Context, externalID string) (schedule.ProviderRef, error) {
	if externalID == "ext-77" {
		return schedule.ProviderRef{InternalID: "emp-12", Name: "Dr. Silberman"}, nil
	}
	return schedule.ProviderRef{}, errors.New("unknown provider")
}

func testCandidate() gapfill.Candidate {
	lat, lng := 30.2672, -97.7431
	return gapfill.Candidate{
		ClientID:     "c1",
		ClientName:   "Sarah Connor",
		Latitude:     &lat,
		Longitude:    &lng,
		PatientIDs:   []string{"p1", "p2"},
		PatientNames: []string{"Rex", "Ghost"},
		Patients: []gapfill.Patient{
			{ID: "p1", Name: "Rex", Species: "Dog", Breed: "Beagle", Reminders: []gapfill.Reminder{
				{ID: "r1", Description: "Rabies vaccine"},
			}},
			{ID: "p2", Name: "Ghost"},
		},
		TargetDate:         "2025-03-05",
		ProposedStart:      "2025-03-05T14:30:00Z",
		ArrivalWindowStart: "2025-03-05T14:15:00Z",
		ArrivalWindowEnd:   "2025-03-05T15:00:00Z",
		RequiredDurationS:  1800,
		AddedDriveSeconds:  300,
		HoleIndex:          1,
		DeepLink:           "https://app.example.com/appointments/doctor/ext-77",
		OverduePatients:    1,
	}
}

func newTestRouter(t *testing.T, sender outreach.MessageSender, fetchErr error) http.Handler {
	t.Helper()
	fetcher := &stubFetcher{
		result: &gapfill.FetchResult{
			Candidates: []gapfill.Candidate{testCandidate()},
			Stats:      gapfill.RunStats{HolesFound: 1, FinalResults: 1},
		},
		err: fetchErr,
	}
	service := gapfill.NewService(fetcher)
	manager := outreach.NewManager(config.ModeDevelopment, sender, nil, nil, nil)
	resolver := schedule.NewResolver(stubLookup{}, schedule.NewMemoryProviderCache(), nil, nil)
	handler := NewGapfillHandler(service, manager, resolver, nil, nil)

	r := chi.NewRouter()
	r.Post("/gapfill/candidates", handler.FetchCandidates)
	r.Post("/gapfill/preview", handler.Preview)
	r.Post("/gapfill/outreach/open", handler.OpenOutreach)
	r.Post("/gapfill/outreach/message", handler.EditOutreach)
	r.Post("/gapfill/outreach/send", handler.SendOutreach)
	r.Post("/gapfill/outreach/cancel", handler.CancelOutreach)
	r.Get("/gapfill/outreach/status", handler.OutreachStatus)
	r.Get("/health", handler.HealthCheck)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestFetchCandidatesEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubSender{}, nil)

	rec := doJSON(t, router, http.MethodPost, "/gapfill/candidates", map[string]string{
		"providerId": "prov-1",
		"targetDate": "2025-03-05",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp FetchCandidatesResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Candidates, 1)
	view := resp.Candidates[0]
	assert.Equal(t, []string{"Rabies vaccine"}, view.RemindersByPatient["Rex"])
	assert.Empty(t, view.RemindersByPatient["Ghost"])
	assert.Equal(t, "Beagle (Dog)", view.PatientDescriptors["Rex"])
	assert.Equal(t, 1, resp.Stats.HolesFound)
}

func TestFetchCandidatesValidationEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubSender{}, nil)

	rec := doJSON(t, router, http.MethodPost, "/gapfill/candidates", map[string]string{
		"targetDate": "2025-03-05",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOutreachFlowEndpoint(t *testing.T) {
	sender := &stubSender{}
	router := newTestRouter(t, sender, nil)

	// Fetch first so the candidate is findable.
	rec := doJSON(t, router, http.MethodPost, "/gapfill/candidates", map[string]string{
		"providerId": "prov-1", "targetDate": "2025-03-05",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/gapfill/outreach/open", map[string]any{
		"clientId": "c1",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var conf outreach.Confirmation
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&conf))
	assert.Equal(t, outreach.StatePreviewing, conf.State)
	assert.Contains(t, conf.Message, "Rabies vaccine")

	rec = doJSON(t, router, http.MethodPost, "/gapfill/outreach/message", map[string]string{
		"message": "custom outreach text",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/gapfill/outreach/send", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	sender.mu.Lock()
	defer sender.mu.Unlock()
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "custom outreach text", sender.sent[0])
}

func TestOutreachSendFailureEndpoint(t *testing.T) {
	sender := &stubSender{err: errors.New("gateway says no")}
	router := newTestRouter(t, sender, nil)

	doJSON(t, router, http.MethodPost, "/gapfill/candidates", map[string]string{
		"providerId": "prov-1", "targetDate": "2025-03-05",
	})
	doJSON(t, router, http.MethodPost, "/gapfill/outreach/open", map[string]any{"clientId": "c1"})
	doJSON(t, router, http.MethodPost, "/gapfill/outreach/message", map[string]string{"message": "kept edits"})

	rec := doJSON(t, router, http.MethodPost, "/gapfill/outreach/send", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	// Buffer and Previewing state survive the failure.
	rec = doJSON(t, router, http.MethodGet, "/gapfill/outreach/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status struct {
		Pending  outreach.Confirmation          `json:"pending"`
		Statuses map[string]outreach.SendStatus `json:"statuses"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.Equal(t, outreach.StatePreviewing, status.Pending.State)
	assert.Equal(t, "kept edits", status.Pending.Message)
	assert.Contains(t, status.Statuses["c1"].LastError, "gateway says no")
}

func TestOutreachOpenUnknownCandidate(t *testing.T) {
	router := newTestRouter(t, &stubSender{}, nil)
	rec := doJSON(t, router, http.MethodPost, "/gapfill/outreach/open", map[string]any{"clientId": "ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPreviewEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubSender{}, nil)

	doJSON(t, router, http.MethodPost, "/gapfill/candidates", map[string]string{
		"providerId": "prov-1", "targetDate": "2025-03-05",
	})

	rec := doJSON(t, router, http.MethodPost, "/gapfill/preview", map[string]string{"clientId": "c1"})
	require.Equal(t, http.StatusOK, rec.Code)

	var opt schedule.PreviewOption
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&opt))
	assert.Equal(t, "2025-03-05", opt.TargetDate)
	assert.Equal(t, 0, opt.InsertionIndex, "hole index 1 inserts at the top of the day")
	assert.Equal(t, "emp-12", opt.ProviderID)
	assert.Equal(t, 30, opt.ServiceMinutes)
	require.NotNil(t, opt.Latitude)
	assert.InDelta(t, 30.2672, *opt.Latitude, 1e-9)
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubSender{}, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
