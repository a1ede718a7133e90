package timeline

import (
	"sort"
	"time"

	"example.com/engagement/internal/domain"
	"example.com/engagement/internal/query"
)

// Pagination summarizes the filtered population a page was cut from. It is
// computed before slicing, so totals always describe the whole filtered
// set rather than the visible page.
type Pagination struct {
	Page        int
	PageSize    int
	Total       int
	TotalPages  int
	HasNext     bool
	HasPrevious bool
}

// Group is one calendar-day bucket of the paginated slice, with per-type
// counts of what that day shows.
type Group struct {
	Day           string
	Label         string
	Date          time.Time
	Entries       []domain.ActivityEntry
	Interactions  int
	Opportunities int
	Contacts      int
	Products      int
}

// View is the pipeline's output for one query.
type View struct {
	Entries    []domain.ActivityEntry
	Groups     []Group
	Pagination Pagination
}

// Build runs the fixed pipeline (filter, sort, paginate, group) over the
// raw entries. The stage order is load-bearing: pagination totals must
// describe the filtered pre-slice population, and groups summarize only
// the page being shown.
func Build(entries []domain.ActivityEntry, params query.Params, now time.Time) View {
	filtered := Filter(entries, params.Criteria, now)
	sorted := Sort(filtered, params.SortField, params.SortDirection)
	page, pagination := Paginate(sorted, params.Page, params.PageSize)
	return View{
		Entries:    page,
		Groups:     GroupByDay(page),
		Pagination: pagination,
	}
}

// Sort orders entries by the requested field without mutating its input.
// Entries sharing the primary key keep ascending rank order regardless of
// the requested direction, so equal-key ordering is always deterministic.
func Sort(entries []domain.ActivityEntry, field query.SortField, direction query.SortDirection) []domain.ActivityEntry {
	out := make([]domain.ActivityEntry, len(entries))
	copy(out, entries)

	desc := direction == query.Descending
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		var less, equal bool
		switch field {
		case query.SortByRank:
			less, equal = a.Rank < b.Rank, a.Rank == b.Rank
		case query.SortByType:
			less, equal = a.Type < b.Type, a.Type == b.Type
		default:
			less, equal = a.ActivityDate.Before(b.ActivityDate), a.ActivityDate.Equal(b.ActivityDate)
		}
		if equal {
			return a.Rank < b.Rank
		}
		if desc {
			return !less
		}
		return less
	})
	return out
}

// Paginate slices out the requested page and reports totals for the whole
// input. The final page holds the remainder when the total does not divide
// evenly.
func Paginate(entries []domain.ActivityEntry, page, pageSize int) ([]domain.ActivityEntry, Pagination) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = query.DefaultPageSize
	}

	total := len(entries)
	totalPages := (total + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	slice := make([]domain.ActivityEntry, end-start)
	copy(slice, entries[start:end])

	return slice, Pagination{
		Page:        page,
		PageSize:    pageSize,
		Total:       total,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1 && total > 0,
	}
}

// GroupByDay buckets the paginated slice by calendar day, newest day
// first. Entries keep their incoming order within a bucket.
func GroupByDay(entries []domain.ActivityEntry) []Group {
	buckets := make(map[string]*Group)
	order := make([]string, 0)

	for _, e := range entries {
		day := e.ActivityDate.Format("2006-01-02")
		g, ok := buckets[day]
		if !ok {
			y, m, d := e.ActivityDate.Date()
			g = &Group{
				Day:   day,
				Label: e.ActivityDate.Format("Monday, Jan 2 2006"),
				Date:  time.Date(y, m, d, 0, 0, 0, 0, e.ActivityDate.Location()),
			}
			buckets[day] = g
			order = append(order, day)
		}
		g.Entries = append(g.Entries, e)
		switch e.Type {
		case domain.TypeInteraction:
			g.Interactions++
		case domain.TypeOpportunityCreated:
			g.Opportunities++
		case domain.TypeContactUpdate:
			g.Contacts++
		case domain.TypeProductAssociation:
			g.Products++
		}
	}

	sort.Slice(order, func(i, j int) bool { return order[i] > order[j] })

	groups := make([]Group, 0, len(order))
	for _, day := range order {
		groups = append(groups, *buckets[day])
	}
	return groups
}
