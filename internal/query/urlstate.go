package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"example.com/engagement/internal/domain"
)

// URL-state keys. Multi-valued fields are comma-joined so the encoded form
// stays a flat key-value set suitable for a shareable link.
const (
	keyTypes      = "types"
	keyFrom       = "from"
	keyTo         = "to"
	keySearch     = "q"
	keyPrincipals = "principals"
	keyTables     = "tables"
	keyStatuses   = "statuses"
	keyFollowUp   = "follow_up"
	keyOverdue    = "overdue"
	keySort       = "sort"
	keyDir        = "dir"
	keyPage       = "page"
	keyPageSize   = "size"
)

// Encode serializes the filter, sort, and pagination state to query
// parameters. Decode is its exact inverse.
func (p Params) Encode() url.Values {
	values := url.Values{}
	if types := normalizeTypes(p.Criteria.Types); len(types) > 0 {
		values.Set(keyTypes, joinTypes(types))
	}
	if p.Criteria.DateFrom != nil {
		values.Set(keyFrom, p.Criteria.DateFrom.UTC().Format(time.RFC3339))
	}
	if p.Criteria.DateTo != nil {
		values.Set(keyTo, p.Criteria.DateTo.UTC().Format(time.RFC3339))
	}
	if p.Criteria.Search != "" {
		values.Set(keySearch, p.Criteria.Search)
	}
	if ids := normalizeSet(p.Criteria.PrincipalIDs); len(ids) > 0 {
		values.Set(keyPrincipals, strings.Join(ids, ","))
	}
	if tables := normalizeSet(p.Criteria.SourceTables); len(tables) > 0 {
		values.Set(keyTables, strings.Join(tables, ","))
	}
	if statuses := normalizeSet(p.Criteria.Statuses); len(statuses) > 0 {
		values.Set(keyStatuses, strings.Join(statuses, ","))
	}
	if p.Criteria.FollowUpRequired != nil {
		values.Set(keyFollowUp, strconv.FormatBool(*p.Criteria.FollowUpRequired))
	}
	if p.Criteria.OverdueOnly {
		values.Set(keyOverdue, "true")
	}
	values.Set(keySort, string(p.SortField))
	values.Set(keyDir, string(p.SortDirection))
	values.Set(keyPage, strconv.Itoa(p.Page))
	values.Set(keyPageSize, strconv.Itoa(p.PageSize))
	return values
}

// Decode parses query parameters produced by Encode (or typed by hand)
// into a Params value. Unknown keys are ignored; malformed known keys fail
// the whole decode.
func Decode(values url.Values) (Params, error) {
	p := NewParams()

	if raw := values.Get(keyTypes); raw != "" {
		var types []domain.ActivityType
		for _, part := range strings.Split(raw, ",") {
			t := domain.ActivityType(strings.TrimSpace(part))
			if !domain.ValidActivityType(t) {
				return Params{}, fmt.Errorf("unknown activity type %q", t)
			}
			types = append(types, t)
		}
		p.Criteria.Types = normalizeTypes(types)
	}
	from, err := parseTimeParam(values, keyFrom)
	if err != nil {
		return Params{}, err
	}
	to, err := parseTimeParam(values, keyTo)
	if err != nil {
		return Params{}, err
	}
	p.Criteria.DateFrom = from
	p.Criteria.DateTo = to

	p.Criteria.Search = strings.TrimSpace(values.Get(keySearch))
	p.Criteria.PrincipalIDs = normalizeSet(splitParam(values.Get(keyPrincipals)))
	p.Criteria.SourceTables = normalizeSet(splitParam(values.Get(keyTables)))
	p.Criteria.Statuses = normalizeSet(splitParam(values.Get(keyStatuses)))

	if raw := values.Get(keyFollowUp); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return Params{}, fmt.Errorf("invalid %s value %q", keyFollowUp, raw)
		}
		p.Criteria.FollowUpRequired = &parsed
	}
	if raw := values.Get(keyOverdue); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return Params{}, fmt.Errorf("invalid %s value %q", keyOverdue, raw)
		}
		p.Criteria.OverdueOnly = parsed
	}

	if raw := values.Get(keySort); raw != "" {
		field := SortField(raw)
		if field != SortByDate && field != SortByRank && field != SortByType {
			return Params{}, fmt.Errorf("unknown sort field %q", raw)
		}
		p.SortField = field
	}
	if raw := values.Get(keyDir); raw != "" {
		dir := SortDirection(raw)
		if dir != Ascending && dir != Descending {
			return Params{}, fmt.Errorf("unknown sort direction %q", raw)
		}
		p.SortDirection = dir
	}
	if raw := values.Get(keyPage); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return Params{}, fmt.Errorf("invalid page %q", raw)
		}
		p.Page = page
	}
	if raw := values.Get(keyPageSize); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 {
			return Params{}, fmt.Errorf("invalid page size %q", raw)
		}
		p.PageSize = size
	}

	return p, nil
}

// Import replaces p with the decoded state and reports success. On any
// malformed input the existing state is left untouched.
func (p *Params) Import(values url.Values) bool {
	decoded, err := Decode(values)
	if err != nil {
		return false
	}
	*p = decoded
	return true
}

func parseTimeParam(values url.Values, key string) (*time.Time, error) {
	raw := values.Get(key)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s timestamp %q", key, raw)
	}
	parsed = parsed.UTC()
	return &parsed, nil
}

func splitParam(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}
