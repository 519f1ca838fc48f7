package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mobilevet/routefill/internal/gapfill"
	"github.com/mobilevet/routefill/internal/outreach"
	"github.com/mobilevet/routefill/internal/schedule"
	"github.com/mobilevet/routefill/pkg/logging"
)

// GapfillHandler exposes the gap-fill candidate workflow over HTTP.
type GapfillHandler struct {
	service  *gapfill.Service
	outreach *outreach.Manager
	resolver *schedule.Resolver
	history  *outreach.Store
	logger   *logging.Logger
}

// NewGapfillHandler creates the workflow handler. The history store is
// optional; without it the audit endpoint answers 404.
func NewGapfillHandler(service *gapfill.Service, manager *outreach.Manager, resolver *schedule.Resolver, history *outreach.Store, logger *logging.Logger) *GapfillHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &GapfillHandler{
		service:  service,
		outreach: manager,
		resolver: resolver,
		history:  history,
		logger:   logger,
	}
}

// CandidateView is one candidate plus its derived display fields.
type CandidateView struct {
	gapfill.Candidate
	RemindersByPatient map[string][]string `json:"remindersByPatient"`
	PatientDescriptors map[string]string   `json:"patientDescriptors"`
}

// FetchCandidatesResponse is the response for POST /gapfill/candidates.
type FetchCandidatesResponse struct {
	Candidates []CandidateView  `json:"candidates"`
	Stats      gapfill.RunStats `json:"stats"`
	Message    string           `json:"message,omitempty"`
}

// FetchCandidates handles POST /gapfill/candidates.
func (h *GapfillHandler) FetchCandidates(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProviderID string `json:"providerId"`
		TargetDate string `json:"targetDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.Refresh(r.Context(), req.ProviderID, req.TargetDate)
	switch {
	case errors.Is(err, gapfill.ErrMissingProvider), errors.Is(err, gapfill.ErrMissingDate):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, gapfill.ErrSuperseded):
		// A newer fetch owns the screen; this result was discarded.
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		h.logger.Error("candidate fetch failed", "provider_id", req.ProviderID, "error", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	views := make([]CandidateView, 0, len(result.Candidates))
	for i := range result.Candidates {
		c := result.Candidates[i]
		descriptors := make(map[string]string, len(c.Patients))
		for _, p := range c.Patients {
			descriptors[p.Name] = gapfill.FormatPatientDescriptor(p)
		}
		views = append(views, CandidateView{
			Candidate:          c,
			RemindersByPatient: gapfill.GroupRemindersByPatient(&c),
			PatientDescriptors: descriptors,
		})
	}

	writeJSON(w, http.StatusOK, FetchCandidatesResponse{
		Candidates: views,
		Stats:      result.Stats,
		Message:    result.Message,
	})
}

// OpenOutreach handles POST /gapfill/outreach/open.
func (h *GapfillHandler) OpenOutreach(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientID string `json:"clientId"`
		Override bool   `json:"override"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	candidate, err := h.service.FindCandidate(req.ClientID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	conf, err := h.outreach.Open(candidate, req.Override)
	if err != nil {
		if errors.Is(err, outreach.ErrOverrideForbidden) {
			http.Error(w, err.Error(), http.StatusForbidden)
			return
		}
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, conf)
}

// EditOutreach handles POST /gapfill/outreach/message.
func (h *GapfillHandler) EditOutreach(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.outreach.Edit(req.Message); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, h.outreach.Pending())
}

// SendOutreach handles POST /gapfill/outreach/send.
func (h *GapfillHandler) SendOutreach(w http.ResponseWriter, r *http.Request) {
	err := h.outreach.Send(r.Context())
	switch {
	case errors.Is(err, outreach.ErrNoPendingConfirmation):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, outreach.ErrSendInFlight):
		// Duplicate trigger; the send already in flight will resolve.
		writeJSON(w, http.StatusAccepted, h.outreach.Pending())
		return
	case err != nil:
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"message":  err.Error(),
			"pending":  h.outreach.Pending(),
			"statuses": h.outreach.Statuses(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pending":  h.outreach.Pending(),
		"statuses": h.outreach.Statuses(),
	})
}

// CancelOutreach handles POST /gapfill/outreach/cancel.
func (h *GapfillHandler) CancelOutreach(w http.ResponseWriter, r *http.Request) {
	if err := h.outreach.Cancel(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DismissOutreachError handles POST /gapfill/outreach/dismiss.
func (h *GapfillHandler) DismissOutreachError(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientID string `json:"clientId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	h.outreach.DismissError(req.ClientID)
	w.WriteHeader(http.StatusNoContent)
}

// OutreachStatus handles GET /gapfill/outreach/status.
func (h *GapfillHandler) OutreachStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"pending":  h.outreach.Pending(),
		"statuses": h.outreach.Statuses(),
	})
}

// OutreachHistory handles GET /gapfill/outreach/history/{clientID}.
func (h *GapfillHandler) OutreachHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		http.Error(w, "audit history not configured", http.StatusNotFound)
		return
	}
	clientID := chi.URLParam(r, "clientID")
	attempts, err := h.history.ListByClient(r.Context(), clientID, 50)
	if err != nil {
		h.logger.Error("failed to list outreach history", "client_id", clientID, "error", err)
		http.Error(w, "failed to list outreach history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"attempts": attempts})
}

// Preview handles POST /gapfill/preview.
func (h *GapfillHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientID string `json:"clientId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	candidate, err := h.service.FindCandidate(req.ClientID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	opt, err := h.resolver.ResolvePreview(r.Context(), candidate)
	switch {
	case errors.Is(err, schedule.ErrInvalidTimestamp),
		errors.Is(err, schedule.ErrUnparseableLink),
		errors.Is(err, schedule.ErrInvalidDateFormat):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	case errors.Is(err, schedule.ErrUnresolvedProvider):
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	case err != nil:
		h.logger.Error("preview resolution failed", "client_id", req.ClientID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, opt)
}

// HealthCheck handles GET /health.
func (h *GapfillHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
