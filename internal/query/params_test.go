package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/engagement/internal/domain"
)

func TestCanonicalIgnoresInsertionOrder(t *testing.T) {
	a := NewParams()
	a.SetTypes([]domain.ActivityType{domain.TypeInteraction, domain.TypeContactUpdate})
	a.SetPrincipals([]string{"p-2", "p-1"})

	b := NewParams()
	b.SetTypes([]domain.ActivityType{domain.TypeContactUpdate, domain.TypeInteraction})
	b.SetPrincipals([]string{"p-1", "p-2"})

	require.Equal(t, a.Canonical(), b.Canonical())
}

func TestCanonicalExcludesPagination(t *testing.T) {
	a := NewParams()
	a.SetSearch("acme")
	key := a.Canonical()

	a.SetPage(4)
	require.Equal(t, key, a.Canonical())
}

func TestFilterMutatorsResetPage(t *testing.T) {
	p := NewParams()
	p.SetPage(3)
	p.SetSearch("quarterly review")
	require.Equal(t, 1, p.Page)

	p.SetPage(5)
	p.SetOverdueOnly(true)
	require.Equal(t, 1, p.Page)
}

func TestFilterMutatorsAreIdempotent(t *testing.T) {
	p := NewParams()
	p.SetTypes([]domain.ActivityType{domain.TypeInteraction})
	p.SetPage(7)

	// Same value again, different slice order: state (incl. page) untouched.
	p.SetTypes([]domain.ActivityType{domain.TypeInteraction})
	require.Equal(t, 7, p.Page)

	p.SetPrincipals([]string{"p-1", "p-2"})
	p.SetPage(4)
	p.SetPrincipals([]string{"p-2", "p-1"})
	require.Equal(t, 4, p.Page)
}

func TestValidateReportsPerField(t *testing.T) {
	from := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	p := NewParams()
	p.SetDateRange(&from, &to)
	p.Criteria.Types = []domain.ActivityType{"phone-call"}
	p.Page = 0

	err := p.Validate()
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "date_range")
	require.Contains(t, verr.Fields, "types")
	require.Contains(t, verr.Fields, "page")
	require.NotContains(t, verr.Fields, "sort")
}

func TestValidateAcceptsDefaults(t *testing.T) {
	require.NoError(t, NewParams().Validate())
}
