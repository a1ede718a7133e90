package query

import (
	"fmt"
	"sort"
	"strings"

	"example.com/engagement/internal/domain"
)

// ValidationError reports malformed caller-supplied criteria, keyed by the
// offending field. Fields that pass validation are unaffected: the caller
// keeps whatever valid state it already holds.
type ValidationError struct {
	Fields map[string]string
}

// Error renders the field errors in a stable order.
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "invalid query: " + strings.Join(parts, "; ")
}

// Validate checks the full parameter set and returns a ValidationError
// naming every offending field, or nil when the state is well formed.
func (p Params) Validate() error {
	fields := make(map[string]string)

	for _, t := range p.Criteria.Types {
		if !domain.ValidActivityType(t) {
			fields["types"] = fmt.Sprintf("unknown activity type %q", t)
			break
		}
	}
	if p.Criteria.DateFrom != nil && p.Criteria.DateTo != nil && p.Criteria.DateFrom.After(*p.Criteria.DateTo) {
		fields["date_range"] = "start date is after end date"
	}
	switch p.SortField {
	case SortByDate, SortByRank, SortByType:
	default:
		fields["sort"] = fmt.Sprintf("unknown sort field %q", p.SortField)
	}
	switch p.SortDirection {
	case Ascending, Descending:
	default:
		fields["dir"] = fmt.Sprintf("unknown sort direction %q", p.SortDirection)
	}
	if p.Page < 1 {
		fields["page"] = "page must be >= 1"
	}
	if p.PageSize < 1 {
		fields["page_size"] = "page size must be >= 1"
	}

	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}
