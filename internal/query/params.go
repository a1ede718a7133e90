// Package query models the filter, sort, and pagination state of a
// timeline view and renders the canonical descriptor used as a cache key.
package query

import (
	"sort"
	"strings"
	"time"

	"example.com/engagement/internal/domain"
)

// SortField selects the primary sort key for the timeline.
type SortField string

const (
	SortByDate SortField = "date"
	SortByRank SortField = "rank"
	SortByType SortField = "type"
)

// SortDirection orders the primary sort key.
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// DefaultPageSize is applied when the caller does not pick one.
const DefaultPageSize = 20

// Criteria is the active filter set. Zero-valued fields impose no
// constraint. Multi-valued fields are OR-combined internally and
// AND-combined with the other fields.
type Criteria struct {
	Types            []domain.ActivityType
	DateFrom         *time.Time
	DateTo           *time.Time
	Search           string
	PrincipalIDs     []string
	SourceTables     []string
	Statuses         []string
	FollowUpRequired *bool
	OverdueOnly      bool
}

// Params is the full query state: criteria plus sort and pagination.
type Params struct {
	Criteria      Criteria
	SortField     SortField
	SortDirection SortDirection
	Page          int
	PageSize      int
}

// NewParams returns the default view state: newest first, first page.
func NewParams() Params {
	return Params{
		SortField:     SortByDate,
		SortDirection: Descending,
		Page:          1,
		PageSize:      DefaultPageSize,
	}
}

// Filter mutators. Each is idempotent (re-applying an equal value leaves
// the state untouched) and resets the page to 1 when the filter changes.

// SetTypes replaces the activity-type filter.
func (p *Params) SetTypes(types []domain.ActivityType) {
	normalized := normalizeTypes(types)
	if equalTypes(p.Criteria.Types, normalized) {
		return
	}
	p.Criteria.Types = normalized
	p.Page = 1
}

// SetDateRange replaces the inclusive activity-date range.
func (p *Params) SetDateRange(from, to *time.Time) {
	if equalTime(p.Criteria.DateFrom, from) && equalTime(p.Criteria.DateTo, to) {
		return
	}
	p.Criteria.DateFrom = cloneTime(from)
	p.Criteria.DateTo = cloneTime(to)
	p.Page = 1
}

// SetSearch replaces the free-text search term.
func (p *Params) SetSearch(term string) {
	term = strings.TrimSpace(term)
	if p.Criteria.Search == term {
		return
	}
	p.Criteria.Search = term
	p.Page = 1
}

// SetPrincipals replaces the principal-id scope.
func (p *Params) SetPrincipals(ids []string) {
	normalized := normalizeSet(ids)
	if equalStrings(p.Criteria.PrincipalIDs, normalized) {
		return
	}
	p.Criteria.PrincipalIDs = normalized
	p.Page = 1
}

// SetSourceTables replaces the source-table filter.
func (p *Params) SetSourceTables(tables []string) {
	normalized := normalizeSet(tables)
	if equalStrings(p.Criteria.SourceTables, normalized) {
		return
	}
	p.Criteria.SourceTables = normalized
	p.Page = 1
}

// SetStatuses replaces the status filter.
func (p *Params) SetStatuses(statuses []string) {
	normalized := normalizeSet(statuses)
	if equalStrings(p.Criteria.Statuses, normalized) {
		return
	}
	p.Criteria.Statuses = normalized
	p.Page = 1
}

// SetFollowUpRequired replaces the follow-up flag filter. nil removes it.
func (p *Params) SetFollowUpRequired(required *bool) {
	if equalBool(p.Criteria.FollowUpRequired, required) {
		return
	}
	p.Criteria.FollowUpRequired = cloneBool(required)
	p.Page = 1
}

// SetOverdueOnly toggles the overdue-follow-ups-only filter.
func (p *Params) SetOverdueOnly(overdue bool) {
	if p.Criteria.OverdueOnly == overdue {
		return
	}
	p.Criteria.OverdueOnly = overdue
	p.Page = 1
}

// SetSort replaces the sort field and direction. Invalid values fall
// back to defaults.
func (p *Params) SetSort(field SortField, direction SortDirection) {
	if field != SortByDate && field != SortByRank && field != SortByType {
		field = SortByDate
	}
	if direction != Ascending && direction != Descending {
		direction = Descending
	}
	p.SortField = field
	p.SortDirection = direction
}

// SetPage moves to the requested page. Values below 1 clamp to 1.
func (p *Params) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	p.Page = page
}

// SetPageSize replaces the page size and returns to the first page when it
// changes, since existing page offsets no longer line up.
func (p *Params) SetPageSize(size int) {
	if size < 1 {
		size = DefaultPageSize
	}
	if p.PageSize == size {
		return
	}
	p.PageSize = size
	p.Page = 1
}

// Reset restores the default state.
func (p *Params) Reset() {
	*p = NewParams()
}

// Canonical renders a deterministic descriptor of filters, sort, and
// principal scope. Two logically equal states always serialize
// identically regardless of insertion order; the result is used verbatim
// as the cache key. Pagination is excluded: a cached snapshot covers every
// page of the same filtered population.
func (p Params) Canonical() string {
	var b strings.Builder
	b.WriteString("types=")
	b.WriteString(joinTypes(normalizeTypes(p.Criteria.Types)))
	b.WriteString("|from=")
	b.WriteString(formatTime(p.Criteria.DateFrom))
	b.WriteString("|to=")
	b.WriteString(formatTime(p.Criteria.DateTo))
	b.WriteString("|q=")
	b.WriteString(strings.ToLower(strings.TrimSpace(p.Criteria.Search)))
	b.WriteString("|principals=")
	b.WriteString(strings.Join(normalizeSet(p.Criteria.PrincipalIDs), ","))
	b.WriteString("|tables=")
	b.WriteString(strings.Join(normalizeSet(p.Criteria.SourceTables), ","))
	b.WriteString("|statuses=")
	b.WriteString(strings.Join(normalizeSet(p.Criteria.Statuses), ","))
	b.WriteString("|followup=")
	b.WriteString(formatBool(p.Criteria.FollowUpRequired))
	b.WriteString("|overdue=")
	if p.Criteria.OverdueOnly {
		b.WriteString("1")
	} else {
		b.WriteString("0")
	}
	b.WriteString("|sort=")
	b.WriteString(string(p.SortField))
	b.WriteString(":")
	b.WriteString(string(p.SortDirection))
	return b.String()
}

func normalizeTypes(types []domain.ActivityType) []domain.ActivityType {
	if len(types) == 0 {
		return nil
	}
	seen := make(map[domain.ActivityType]struct{}, len(types))
	out := make([]domain.ActivityType, 0, len(types))
	for _, t := range types {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func normalizeSet(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}

func joinTypes(types []domain.ActivityType) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatBool(b *bool) string {
	switch {
	case b == nil:
		return "any"
	case *b:
		return "yes"
	default:
		return "no"
	}
}

func equalTypes(a, b []domain.ActivityType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func equalBool(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}
