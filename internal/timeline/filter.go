// Package timeline implements the pure transformation pipeline that turns
// raw activity entries into the displayed view: filter, sort, paginate,
// then group. Every function is deterministic and side-effect-free.
package timeline

import (
	"strings"
	"time"

	"example.com/engagement/internal/domain"
	"example.com/engagement/internal/query"
)

// Filter returns the entries matching every populated criterion, in their
// original order. Values within a multi-valued criterion are OR-combined;
// criteria are AND-combined. Empty criteria impose no constraint.
func Filter(entries []domain.ActivityEntry, criteria query.Criteria, now time.Time) []domain.ActivityEntry {
	types := typeSet(criteria.Types)
	principals := stringSet(criteria.PrincipalIDs)
	tables := stringSet(criteria.SourceTables)
	statuses := lowerSet(criteria.Statuses)
	search := strings.ToLower(strings.TrimSpace(criteria.Search))

	var rangeEnd time.Time
	if criteria.DateTo != nil {
		rangeEnd = endOfDay(*criteria.DateTo)
	}

	out := make([]domain.ActivityEntry, 0, len(entries))
	for _, e := range entries {
		if types != nil {
			if _, ok := types[e.Type]; !ok {
				continue
			}
		}
		if principals != nil {
			if _, ok := principals[e.PrincipalID]; !ok {
				continue
			}
		}
		if tables != nil {
			if _, ok := tables[e.SourceTable]; !ok {
				continue
			}
		}
		if statuses != nil {
			if _, ok := statuses[strings.ToLower(e.Status)]; !ok {
				continue
			}
		}
		if criteria.DateFrom != nil && e.ActivityDate.Before(*criteria.DateFrom) {
			continue
		}
		if criteria.DateTo != nil && e.ActivityDate.After(rangeEnd) {
			continue
		}
		if search != "" && !matchesSearch(e, search) {
			continue
		}
		if criteria.FollowUpRequired != nil && e.FollowUpRequired != *criteria.FollowUpRequired {
			continue
		}
		if criteria.OverdueOnly && !e.Overdue(now) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// matchesSearch checks subject, details, and principal name for the
// lower-cased term.
func matchesSearch(e domain.ActivityEntry, term string) bool {
	return strings.Contains(strings.ToLower(e.Subject), term) ||
		strings.Contains(strings.ToLower(e.Details), term) ||
		strings.Contains(strings.ToLower(e.PrincipalName), term)
}

// endOfDay pushes the range end to the last instant of its calendar day,
// making the boundary inclusive for any entry dated that day.
func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

func typeSet(types []domain.ActivityType) map[domain.ActivityType]struct{} {
	if len(types) == 0 {
		return nil
	}
	set := make(map[domain.ActivityType]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return set
}

func stringSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func lowerSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = struct{}{}
	}
	return set
}
