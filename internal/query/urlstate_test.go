package query

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/engagement/internal/domain"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	from := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)
	required := true

	p := NewParams()
	p.SetTypes([]domain.ActivityType{domain.TypeOpportunityCreated, domain.TypeInteraction})
	p.SetDateRange(&from, &to)
	p.SetSearch("renewal")
	p.SetPrincipals([]string{"p-9", "p-3"})
	p.SetSourceTables([]string{"interactions", "opportunities"})
	p.SetStatuses([]string{"open"})
	p.SetFollowUpRequired(&required)
	p.SetOverdueOnly(true)
	p.SetSort(SortByRank, Ascending)
	p.SetPage(3)
	p.SetPageSize(25)

	decoded, err := Decode(p.Encode())
	require.NoError(t, err)
	require.Equal(t, p, decoded)
}

func TestDecodeRejectsMalformedValues(t *testing.T) {
	cases := map[string]url.Values{
		"bad type":      {"types": {"phone-call"}},
		"bad timestamp": {"from": {"yesterday"}},
		"bad follow_up": {"follow_up": {"maybe"}},
		"bad sort":      {"sort": {"subject"}},
		"bad page":      {"page": {"-1"}},
		"bad size":      {"size": {"zero"}},
	}
	for name, values := range cases {
		_, err := Decode(values)
		require.Error(t, err, name)
	}
}

func TestImportLeavesStateOnFailure(t *testing.T) {
	p := NewParams()
	p.SetSearch("keep me")
	before := p

	ok := p.Import(url.Values{"page": {"not-a-number"}})
	require.False(t, ok)
	require.Equal(t, before, p)
}

func TestImportReplacesStateOnSuccess(t *testing.T) {
	p := NewParams()
	p.SetSearch("old")

	ok := p.Import(url.Values{"q": {"new"}, "sort": {"type"}, "dir": {"asc"}})
	require.True(t, ok)
	require.Equal(t, "new", p.Criteria.Search)
	require.Equal(t, SortByType, p.SortField)
	require.Equal(t, Ascending, p.SortDirection)
}

func TestDecodeIgnoresUnknownKeys(t *testing.T) {
	decoded, err := Decode(url.Values{"utm_source": {"share-link"}})
	require.NoError(t, err)
	require.Equal(t, NewParams(), decoded)
}
