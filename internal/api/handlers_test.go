package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"example.com/engagement/internal/auth"
	"example.com/engagement/internal/domain"
	"example.com/engagement/internal/engine"
	"example.com/engagement/internal/provider/memory"
)

func newTestHandler(t *testing.T) (*Handler, *memory.Provider) {
	t.Helper()

	p := memory.New()
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	p.SeedEntries(
		domain.ActivityEntry{ID: "e-1", PrincipalID: "p-1", PrincipalName: "Acme", ActivityDate: base, Type: domain.TypeInteraction, Subject: "kickoff call"},
		domain.ActivityEntry{ID: "e-2", PrincipalID: "p-1", PrincipalName: "Acme", ActivityDate: base.Add(24 * time.Hour), Type: domain.TypeOpportunityCreated, Subject: "pilot deal"},
		domain.ActivityEntry{ID: "e-3", PrincipalID: "p-2", PrincipalName: "Globex", ActivityDate: base.Add(48 * time.Hour), Type: domain.TypeContactUpdate, Subject: "new buyer contact"},
	)
	p.SeedSummaries(
		domain.PrincipalSummary{PrincipalID: "p-1", PrincipalName: "Acme", EngagementScore: 75, ActivityStatus: domain.StatusActive, OpportunityCount: 2, ProductCount: 3, Region: "midwest"},
		domain.PrincipalSummary{PrincipalID: "p-2", PrincipalName: "Globex", EngagementScore: 30, ActivityStatus: domain.StatusStale, OpportunityCount: 0, ProductCount: 1, Region: "northeast"},
	)

	e := engine.New(p)
	t.Cleanup(e.Close)
	return NewHandler(e), p
}

func withScopes(req *http.Request, scopes ...string) *http.Request {
	claims := &auth.Claims{
		Subject:   "tester",
		TenantID:  "tenant-1",
		Scopes:    map[string]struct{}{},
		ExpiresAt: time.Now().Add(time.Hour),
	}
	for _, s := range scopes {
		claims.Scopes[s] = struct{}{}
	}
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

func serve(handler *Handler, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestTimelineDefaults(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/timeline", nil)
	req = withScopes(req, auth.ScopeEngagementRead)

	rr := serve(handler, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp TimelineResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Entries) != 3 {
		t.Fatalf("expected 3 entries got %d", len(resp.Entries))
	}
	if resp.Entries[0].EntryID != "e-3" {
		t.Fatalf("expected newest entry first, got %s", resp.Entries[0].EntryID)
	}
	if resp.Pagination.Total != 3 || resp.Pagination.Page != 1 {
		t.Fatalf("unexpected pagination: %+v", resp.Pagination)
	}
	if len(resp.Groups) != 3 {
		t.Fatalf("expected 3 day groups got %d", len(resp.Groups))
	}
}

func TestTimelineFilterByType(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/timeline?types=interaction", nil)
	req = withScopes(req, auth.ScopeEngagementRead)

	rr := serve(handler, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp TimelineResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Entries) != 1 || resp.Entries[0].EntryID != "e-1" {
		t.Fatalf("expected only the interaction entry, got %+v", resp.Entries)
	}
}

func TestTimelineRejectsMalformedQuery(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/timeline?types=bogus", nil)
	req = withScopes(req, auth.ScopeEngagementRead)

	rr := serve(handler, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestTimelineRequiresScope(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/timeline", nil)
	rr := serve(handler, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without claims got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/timeline", nil)
	req = withScopes(req)
	rr = serve(handler, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without scope got %d", rr.Code)
	}
}

func TestAnalyticsReport(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/analytics", nil)
	req = withScopes(req, auth.ScopeEngagementRead)

	rr := serve(handler, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp ReportView
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.TotalPrincipals != 2 || resp.ActivePrincipals != 1 {
		t.Fatalf("unexpected portfolio counts: %+v", resp)
	}
	if len(resp.TopPerformers) != 2 || resp.TopPerformers[0].PrincipalID != "p-1" {
		t.Fatalf("unexpected leaderboard: %+v", resp.TopPerformers)
	}
	if len(resp.StatusDistribution) != len(domain.KnownActivityStatuses) {
		t.Fatalf("expected every status bucket, got %d", len(resp.StatusDistribution))
	}
}

func TestCreateEntryRequiresWriteScope(t *testing.T) {
	handler, _ := newTestHandler(t)

	body := `{"principal_id":"p-1","activity_date":"2026-05-04T10:00:00Z","activity_type":"interaction","subject":"demo call"}`

	req := httptest.NewRequest(http.MethodPost, "/v1/entries", strings.NewReader(body))
	req = withScopes(req, auth.ScopeEngagementRead)
	rr := serve(handler, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 with read-only scope got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/entries", strings.NewReader(body))
	req = withScopes(req, auth.ScopeEngagementWrite)
	rr = serve(handler, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rr.Code, rr.Body.String())
	}

	var created EntryView
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if created.EntryID == "" || created.Subject != "demo call" {
		t.Fatalf("unexpected created entry: %+v", created)
	}
}

func TestCreateEntryValidation(t *testing.T) {
	handler, _ := newTestHandler(t)

	body := `{"principal_id":"","activity_date":"2026-05-04T10:00:00Z","activity_type":"interaction","subject":"x"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/entries", strings.NewReader(body))
	req = withScopes(req, auth.ScopeEngagementWrite)

	rr := serve(handler, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestFollowUpLifecycleOverHTTP(t *testing.T) {
	handler, _ := newTestHandler(t)

	due := FollowUpRequest{Due: time.Now().UTC().Add(72 * time.Hour)}
	payload, _ := json.Marshal(due)

	req := httptest.NewRequest(http.MethodPost, "/v1/entries/e-1/follow-up", bytes.NewReader(payload))
	req = withScopes(req, auth.ScopeEngagementWrite)
	rr := serve(handler, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var marked EntryView
	if err := json.Unmarshal(rr.Body.Bytes(), &marked); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !marked.FollowUpRequired || marked.FollowUpDate == nil {
		t.Fatalf("expected follow-up set: %+v", marked)
	}

	req = httptest.NewRequest(http.MethodDelete, "/v1/entries/e-1/follow-up", nil)
	req = withScopes(req, auth.ScopeEngagementWrite)
	rr = serve(handler, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodDelete, "/v1/entries/e-1/follow-up", nil)
	req = withScopes(req, auth.ScopeEngagementWrite)
	rr = serve(handler, req)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 on second completion got %d", rr.Code)
	}
}

func TestDeleteMissingEntry(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodDelete, "/v1/entries/missing", nil)
	req = withScopes(req, auth.ScopeEngagementWrite)
	rr := serve(handler, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestShareRoundTrip(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/timeline?types=interaction&q=kickoff", nil)
	req = withScopes(req, auth.ScopeEngagementRead)
	if rr := serve(handler, req); rr.Code != http.StatusOK {
		t.Fatalf("seed request failed: %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/share", nil)
	req = withScopes(req, auth.ScopeEngagementRead)
	rr := serve(handler, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp ShareResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !strings.Contains(resp.Query, "types=interaction") || !strings.Contains(resp.Query, "q=kickoff") {
		t.Fatalf("share state missing filters: %s", resp.Query)
	}
}

func TestExportEntriesCSV(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/export/entries.csv", nil)
	req = withScopes(req, auth.ScopeEngagementRead)
	rr := serve(handler, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("unexpected content type %q", ct)
	}
	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d lines", len(lines))
	}
}

func TestHealthzSkipsAuth(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req = req.WithContext(context.Background())
	rr := serve(handler, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
}
