package store

import (
	"context"
	"testing"

	"github.com/etnz/psw"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMasterlist(t *testing.T, s *Store) {
	t.Helper()
	for _, m := range []MasterlistEntry{
		{ISIN: appleISIN, Ticker: "AAPL", Name: "Apple Inc", Country: "US", Market: "NASDAQ", ShareTypeID: 1},
		{ISIN: ericssonISIN, Ticker: "ERIC B", Name: "Ericsson B", Country: "SE", Market: "Large Cap", ShareTypeID: 2},
		{ISIN: volvoISIN, Ticker: "VOLV B", Name: "Volvo B", Country: "SE", Market: "Large Cap", ShareTypeID: 2},
		{ISIN: novoISIN, Ticker: "NOVO B", Name: "Novo Nordisk", Country: "DK", Market: "Large Cap", ShareTypeID: 2},
	} {
		require.NoError(t, s.CreateMasterlist(context.Background(), &m))
	}
}

func TestMasterlistCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedMasterlist(t, s)

	err := s.CreateMasterlist(ctx, &MasterlistEntry{ISIN: " us0378331005", Name: "Apple again"})
	assert.ErrorIs(t, err, ErrDuplicate)

	err = s.CreateMasterlist(ctx, &MasterlistEntry{ISIN: "XX", Name: ""})
	var verr psw.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr, "isin")
	assert.Contains(t, verr, "name")

	require.NoError(t, s.UpdateMasterlist(ctx, appleISIN, &MasterlistEntry{Ticker: "aapl", Name: "Apple", Country: "US", Market: "NASDAQ", ShareTypeID: 1}))
	m, err := s.GetMasterlist(ctx, appleISIN)
	require.NoError(t, err)
	assert.Equal(t, "Apple", m.Name)
	assert.Equal(t, "AAPL", m.Ticker)

	assert.ErrorIs(t, s.UpdateMasterlist(ctx, "GB0002634946", &MasterlistEntry{Name: "BAE"}), ErrNotFound)

	require.NoError(t, s.DelistMasterlist(ctx, ericssonISIN))
	m, err = s.GetMasterlist(ctx, ericssonISIN)
	require.NoError(t, err)
	assert.True(t, m.Delisted)
	assert.Equal(t, testToday, m.DelistedDate)
	assert.ErrorIs(t, s.DelistMasterlist(ctx, "GB0002634946"), ErrNotFound)

	_, err = s.GetMasterlist(ctx, "GB0002634946")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListMasterlist(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedMasterlist(t, s)
	require.NoError(t, s.DelistMasterlist(ctx, ericssonISIN))

	page, err := s.ListMasterlist(ctx, MasterlistFilter{Country: "SE"}, Page{Number: 1, Size: 1})
	require.NoError(t, err)
	require.Len(t, page.Companies, 1)
	assert.Equal(t, "Ericsson B", page.Companies[0].Name)
	assert.Equal(t, Pagination{CurrentPage: 1, PerPage: 1, TotalPages: 2, TotalRecords: 2, HasNext: true}, page.Pagination)

	active := false
	page, err = s.ListMasterlist(ctx, MasterlistFilter{Delisted: &active, Search: "b"}, Page{})
	require.NoError(t, err)
	var names []string
	for _, c := range page.Companies {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Novo Nordisk", "Volvo B"}, names)

	page, err = s.ListMasterlist(ctx, MasterlistFilter{Search: "nOvO"}, Page{})
	require.NoError(t, err)
	require.Len(t, page.Companies, 1)
	assert.Equal(t, novoISIN, page.Companies[0].ISIN)
}

func TestMasterlistStatistics(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedMasterlist(t, s)
	require.NoError(t, s.DelistMasterlist(ctx, ericssonISIN))

	st, err := s.MasterlistStatistics(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, st.Total)
	assert.EqualValues(t, 3, st.Active)
	assert.EqualValues(t, 1, st.Delisted)
	assert.EqualValues(t, 3, st.Countries)
	assert.EqualValues(t, 2, st.Markets)
	require.NotEmpty(t, st.ByCountry)
	assert.Equal(t, Count{Name: "SE", Count: 2}, st.ByCountry[0])

	opts, err := s.MasterlistFilters(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"DK", "SE", "US"}, opts.Countries)
	assert.Equal(t, []string{"Large Cap", "NASDAQ"}, opts.Markets)
	assert.Equal(t, []int{1, 2}, opts.ShareTypes)
}

func TestSearchISIN(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedMasterlist(t, s)

	got, err := s.SearchISIN(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)

	got, err = s.SearchISIN(ctx, "se00001")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Ericsson B", got[0].CompanyName)
	assert.Equal(t, "Volvo B", got[1].CompanyName)

	// the exact ISIN comes before the name matches.
	got, err = s.SearchISIN(ctx, volvoISIN)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ISINSuggestion{
		ISIN:        volvoISIN,
		CompanyName: "Volvo B",
		Ticker:      "VOLV B",
		Country:     "SE",
		Currency:    "SEK",
		Market:      "Large Cap",
		ShareTypeID: 2,
		DisplayText: volvoISIN + " - Volvo B",
		Label:       volvoISIN + " - Volvo B (VOLV B)",
	}, got[0])

	// name prefixes rank before other name matches.
	got, err = s.SearchISIN(ctx, "no")
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "Novo Nordisk", got[0].CompanyName)
}

func TestSearchISINWildcards(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedMasterlist(t, s)
	require.NoError(t, s.CreateMasterlist(ctx, &MasterlistEntry{ISIN: "SE0000000018", Name: "Rate_100% AB", Country: "SE", ShareTypeID: 1}))

	tests := []struct {
		query string
		want  []string
	}{
		{"%%", []string{}},
		{"__", []string{}},
		{"o_v", []string{}},
		{"e_1", []string{"Rate_100% AB"}},
		{"0%", []string{"Rate_100% AB"}},
		{"!%", []string{}},
	}
	for _, test := range tests {
		got, err := s.SearchISIN(ctx, test.query)
		require.NoError(t, err, test.query)
		names := []string{}
		for _, g := range got {
			names = append(names, g.CompanyName)
		}
		assert.Equal(t, test.want, names, "SearchISIN(%q)", test.query)
	}
}
