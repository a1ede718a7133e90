// Package api exposes HTTP handlers for the engagement service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"example.com/engagement/internal/auth"
	"example.com/engagement/internal/domain"
	"example.com/engagement/internal/engine"
	"example.com/engagement/internal/export"
	"example.com/engagement/internal/provider"
	"example.com/engagement/internal/query"
	"example.com/engagement/internal/timeline"
)

// Handler coordinates HTTP requests with the engine.
type Handler struct {
	engine *engine.Engine
}

// NewHandler builds a Handler.
func NewHandler(e *engine.Engine) *Handler {
	return &Handler{engine: e}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/timeline", h.timeline)
	mux.HandleFunc("/v1/timeline/refresh", h.refresh)
	mux.HandleFunc("/v1/analytics", h.analytics)
	mux.HandleFunc("/v1/share", h.share)
	mux.HandleFunc("/v1/export/entries.csv", h.exportEntries)
	mux.HandleFunc("/v1/export/report.txt", h.exportReport)
	mux.HandleFunc("/v1/entries", h.entries)
	mux.HandleFunc("/v1/entries/", h.entryByID)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if !h.requireRead(w, r) {
		return
	}
	if !h.applyQuery(w, r) {
		return
	}

	view, err := h.engine.View(r.Context())
	h.writeView(w, view, err)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if !h.requireRead(w, r) {
		return
	}

	if err := h.engine.Refresh(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, "platform_unavailable", err.Error())
		return
	}

	view, err := h.engine.View(r.Context())
	h.writeView(w, view, err)
}

func (h *Handler) writeView(w http.ResponseWriter, view timeline.View, err error) {
	resp := toTimelineResponse(view)
	if err != nil {
		if len(view.Entries) == 0 && len(view.Groups) == 0 && view.Pagination.Total == 0 {
			writeError(w, http.StatusBadGateway, "platform_unavailable", err.Error())
			return
		}
		// Serve the last known snapshot but flag it.
		resp.Stale = true
		resp.FetchError = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) analytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if !h.requireRead(w, r) {
		return
	}

	report, err := h.engine.Analytics(r.Context())
	if err != nil && report.TotalPrincipals == 0 {
		writeError(w, http.StatusBadGateway, "platform_unavailable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toReportView(report))
}

func (h *Handler) share(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if !h.requireRead(w, r) {
		return
	}

	writeJSON(w, http.StatusOK, ShareResponse{Query: h.engine.ShareState().Encode()})
}

func (h *Handler) exportEntries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if !h.requireRead(w, r) {
		return
	}
	if !h.applyQuery(w, r) {
		return
	}

	entries, err := h.engine.FilteredEntries(r.Context())
	if err != nil && len(entries) == 0 {
		writeError(w, http.StatusBadGateway, "platform_unavailable", err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="timeline.csv"`)
	if err := export.EntriesCSV(w, entries); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) exportReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if !h.requireRead(w, r) {
		return
	}

	report, err := h.engine.Analytics(r.Context())
	if err != nil && report.TotalPrincipals == 0 {
		writeError(w, http.StatusBadGateway, "platform_unavailable", err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="report.txt"`)
	if err := export.ReportText(w, report, time.Now().UTC()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) entries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if !h.requireWrite(w, r) {
		return
	}

	input, ok := decodeEntryRequest(w, r)
	if !ok {
		return
	}

	entry, err := h.engine.AddEntry(r.Context(), input)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toEntryView(entry))
}

func (h *Handler) entryByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/entries/")
	if rest == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing entry id")
		return
	}

	if id, ok := strings.CutSuffix(rest, "/follow-up"); ok {
		h.followUp(w, r, id)
		return
	}

	switch r.Method {
	case http.MethodPut:
		h.updateEntry(w, r, rest)
	case http.MethodDelete:
		h.deleteEntry(w, r, rest)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) updateEntry(w http.ResponseWriter, r *http.Request, id string) {
	if !h.requireWrite(w, r) {
		return
	}

	input, ok := decodeEntryRequest(w, r)
	if !ok {
		return
	}

	entry, err := h.engine.UpdateEntry(r.Context(), id, input)
	if err != nil {
		writeEntryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryView(entry))
}

func (h *Handler) deleteEntry(w http.ResponseWriter, r *http.Request, id string) {
	if !h.requireWrite(w, r) {
		return
	}

	if err := h.engine.DeleteEntry(r.Context(), id); err != nil {
		writeEntryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) followUp(w http.ResponseWriter, r *http.Request, id string) {
	if !h.requireWrite(w, r) {
		return
	}
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing entry id")
		return
	}

	switch r.Method {
	case http.MethodPost:
		var req FollowUpRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
			return
		}
		if req.Due.IsZero() {
			writeError(w, http.StatusBadRequest, "validation_failed", "due is required")
			return
		}
		entry, err := h.engine.MarkForFollowUp(r.Context(), id, req.Due)
		if err != nil {
			writeEntryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEntryView(entry))
	case http.MethodDelete:
		entry, err := h.engine.CompleteFollowUp(r.Context(), id)
		if err != nil {
			writeEntryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEntryView(entry))
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

// applyQuery imports the request's query string into the engine's view
// state. Individual field problems come back as a per-field error map.
func (h *Handler) applyQuery(w http.ResponseWriter, r *http.Request) bool {
	values := r.URL.Query()
	if len(values) == 0 {
		return true
	}

	params, err := query.Decode(values)
	if err != nil {
		var verr *query.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, ValidationErrorResponse{
				Type:   "validation_failed",
				Fields: verr.Fields,
			})
			return false
		}
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return false
	}
	if err := params.Validate(); err != nil {
		var verr *query.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, ValidationErrorResponse{
				Type:   "validation_failed",
				Fields: verr.Fields,
			})
			return false
		}
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return false
	}

	h.engine.ImportState(values)
	return true
}

func (h *Handler) requireRead(w http.ResponseWriter, r *http.Request) bool {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return false
	}
	if !claims.HasScope(auth.ScopeEngagementRead) && !claims.HasScope(auth.ScopeEngagementWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope engagement:read required")
		return false
	}
	return true
}

func (h *Handler) requireWrite(w http.ResponseWriter, r *http.Request) bool {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return false
	}
	if !claims.HasScope(auth.ScopeEngagementWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope engagement:write required")
		return false
	}
	return true
}

func writeEntryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEntryNotFound):
		writeError(w, http.StatusNotFound, "not_found", "entry not found")
	case errors.Is(err, domain.ErrNoFollowUp):
		writeError(w, http.StatusConflict, "no_follow_up", "entry has no open follow-up")
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func decodeEntryRequest(w http.ResponseWriter, r *http.Request) (provider.EntryInput, bool) {
	var req EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return provider.EntryInput{}, false
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return provider.EntryInput{}, false
	}
	return req.toInput(), true
}

// EntryRequest is the payload for creating or updating a timeline entry.
type EntryRequest struct {
	PrincipalID     string     `json:"principal_id"`
	PrincipalName   string     `json:"principal_name"`
	ActivityDate    time.Time  `json:"activity_date"`
	ActivityType    string     `json:"activity_type"`
	Subject         string     `json:"subject"`
	Details         string     `json:"details"`
	SourceTable     string     `json:"source_table"`
	SourceID        string     `json:"source_id,omitempty"`
	OpportunityName string     `json:"opportunity_name,omitempty"`
	ContactName     string     `json:"contact_name,omitempty"`
	ProductName     string     `json:"product_name,omitempty"`
	Status          string     `json:"status,omitempty"`
	Metadata        *EntryMeta `json:"metadata,omitempty"`
}

// EntryMeta is the request/response shape of entry metadata.
type EntryMeta struct {
	Kind                string            `json:"kind"`
	EmailThreadID       string            `json:"email_thread_id,omitempty"`
	EmailSubject        string            `json:"email_subject,omitempty"`
	CallDurationSeconds int               `json:"call_duration_seconds,omitempty"`
	CallOutcome         string            `json:"call_outcome,omitempty"`
	MeetingLocation     string            `json:"meeting_location,omitempty"`
	MeetingAttendees    int               `json:"meeting_attendees,omitempty"`
	ImportBatchID       string            `json:"import_batch_id,omitempty"`
	Extra               map[string]string `json:"extra,omitempty"`
}

// Validate ensures request correctness.
func (r EntryRequest) Validate() error {
	if strings.TrimSpace(r.PrincipalID) == "" {
		return errors.New("principal_id is required")
	}
	if r.ActivityDate.IsZero() {
		return errors.New("activity_date is required")
	}
	if !domain.ValidActivityType(domain.ActivityType(r.ActivityType)) {
		return errors.New("activity_type must be one of contact-update, interaction, opportunity-created, product-association")
	}
	if strings.TrimSpace(r.Subject) == "" {
		return errors.New("subject is required")
	}
	return nil
}

func (r EntryRequest) toInput() provider.EntryInput {
	input := provider.EntryInput{
		PrincipalID:     r.PrincipalID,
		PrincipalName:   r.PrincipalName,
		ActivityDate:    r.ActivityDate,
		Type:            domain.ActivityType(r.ActivityType),
		Subject:         r.Subject,
		Details:         r.Details,
		SourceTable:     r.SourceTable,
		SourceID:        r.SourceID,
		OpportunityName: r.OpportunityName,
		ContactName:     r.ContactName,
		ProductName:     r.ProductName,
		Status:          r.Status,
	}
	if r.Metadata != nil {
		input.Metadata = &domain.EntryMetadata{
			Kind:                domain.MetadataKind(r.Metadata.Kind),
			EmailThreadID:       r.Metadata.EmailThreadID,
			EmailSubject:        r.Metadata.EmailSubject,
			CallDurationSeconds: r.Metadata.CallDurationSeconds,
			CallOutcome:         r.Metadata.CallOutcome,
			MeetingLocation:     r.Metadata.MeetingLocation,
			MeetingAttendees:    r.Metadata.MeetingAttendees,
			ImportBatchID:       r.Metadata.ImportBatchID,
			Extra:               r.Metadata.Extra,
		}
	}
	return input
}

// FollowUpRequest carries the due date for POST .../follow-up.
type FollowUpRequest struct {
	Due time.Time `json:"due"`
}

// ShareResponse carries the encoded query string for shareable links.
type ShareResponse struct {
	Query string `json:"query"`
}

// ValidationErrorResponse maps offending fields to messages.
type ValidationErrorResponse struct {
	Type   string            `json:"type"`
	Fields map[string]string `json:"fields"`
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
