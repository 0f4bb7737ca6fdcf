package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/etnz/psw/date"
	"github.com/etnz/psw/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	appleISIN = "US0378331005"
	volvoISIN = "SE0000115446"
)

var testToday = date.New(2024, time.June, 14)

type testServer struct {
	t       *testing.T
	store   *store.Store
	server  *Server
	handler http.Handler
}

// newTestServer serves an in-memory database with an admin "admin" and a
// user "user", both with the password "password".
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	st, err := store.Open("sqlite", ":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	st.Today = func() date.Date { return testToday }
	ctx := context.Background()
	require.NoError(t, st.Migrate(ctx))
	_, err = st.CreateUser(ctx, store.UserRequest{Username: "admin", Email: "admin@example.com", Password: "password", RoleID: store.RoleAdmin})
	require.NoError(t, err)
	_, err = st.CreateUser(ctx, store.UserRequest{Username: "user", Email: "user@example.com", Password: "password"})
	require.NoError(t, err)

	srv := NewServer(st, zap.NewNop(), time.Hour, 3)
	return &testServer{t: t, store: st, server: srv, handler: srv.Routes().Mux}
}

// do sends a request. A string body is sent as is, anything else as JSON.
func (ts *testServer) do(method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	ts.t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(ts.t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if _, ok := body.(string); !ok && body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) login(username string) *http.Cookie {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/auth/login", LoginRequest{Username: username, Password: "password"}, nil)
	require.Equal(ts.t, http.StatusOK, rec.Code, rec.Body.String())
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	ts.t.Fatalf("login of %s set no session cookie", username)
	return nil
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type problem struct {
	Status int    `json:"status"`
	Detail string `json:"detail"`
	Errors []struct {
		Name string `json:"name"`
	} `json:"errors"`
}

type money struct {
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

func TestLoginLogout(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/masterlist", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = ts.do(http.MethodGet, "/auth/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodPost, "/auth/login", LoginRequest{Username: "user", Password: "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = ts.do(http.MethodPost, "/auth/login", LoginRequest{Username: "user"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	cookie := ts.login("user")
	assert.True(t, cookie.HttpOnly)

	rec = ts.do(http.MethodGet, "/auth/me", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[Session](t, rec)
	assert.Equal(t, "user", me.Username)
	assert.Equal(t, store.RoleUser, me.RoleID)
	assert.NotContains(t, rec.Body.String(), cookie.Value, "the token is never sent in a body")

	rec = ts.do(http.MethodPost, "/auth/logout", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(http.MethodGet, "/auth/me", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRateLimit(t *testing.T) {
	ts := newTestServer(t)
	for range 3 {
		rec := ts.do(http.MethodPost, "/auth/login", LoginRequest{Username: "user", Password: "wrong"}, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := ts.do(http.MethodPost, "/auth/login", LoginRequest{Username: "user", Password: "password"}, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	ts.login("admin")
}

func TestAdminOnly(t *testing.T) {
	ts := newTestServer(t)
	user := ts.login("user")
	admin := ts.login("admin")

	rec := ts.do(http.MethodGet, "/api/users", nil, user)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = ts.do(http.MethodGet, "/api/companies/manual", nil, user)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(http.MethodGet, "/api/users", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]store.User](t, rec), 2)

	rec = ts.do(http.MethodPost, "/api/users", store.UserRequest{Username: "carol", Email: "carol@example.com", Password: "password"}, admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	carol := decode[store.User](t, rec)

	carolCookie := ts.login("carol")
	rec = ts.do(http.MethodDelete, fmt.Sprintf("/api/users/%d", carol.ID), nil, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = ts.do(http.MethodGet, "/auth/me", nil, carolCookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "sessions of a deleted user are closed")

	me := decode[Session](t, ts.do(http.MethodGet, "/auth/me", nil, admin))
	rec = ts.do(http.MethodDelete, fmt.Sprintf("/api/users/%d", me.UserID), nil, admin)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMeSettings(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login("user")

	rec := ts.do(http.MethodPut, "/api/me/format", FormatRequest{Format: "en"}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	me := decode[Session](t, ts.do(http.MethodGet, "/auth/me", nil, cookie))
	assert.Equal(t, "en", me.Format)

	rec = ts.do(http.MethodPut, "/api/me/email", EmailRequest{Email: "admin@example.com"}, cookie)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(http.MethodPut, "/api/me/password", PasswordRequest{CurrentPassword: "wrong", NewPassword: "x"}, cookie)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	p := decode[problem](t, rec)
	var fields []string
	for _, e := range p.Errors {
		fields = append(fields, e.Name)
	}
	assert.Equal(t, []string{"current_password", "new_password"}, fields)
}

func TestMasterlistRoutes(t *testing.T) {
	ts := newTestServer(t)
	user := ts.login("user")
	admin := ts.login("admin")

	apple := store.MasterlistEntry{ISIN: appleISIN, Ticker: "AAPL", Name: "Apple Inc", Country: "US", Market: "NASDAQ", ShareTypeID: 1}
	rec := ts.do(http.MethodPost, "/api/masterlist", apple, user)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = ts.do(http.MethodPost, "/api/masterlist", apple, user)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = ts.do(http.MethodPost, "/api/masterlist", store.MasterlistEntry{ISIN: "XX"}, user)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	volvo := store.MasterlistEntry{ISIN: volvoISIN, Ticker: "VOLV B", Name: "Volvo B", Country: "SE", Market: "Large Cap", ShareTypeID: 2}
	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/api/masterlist", volvo, user).Code)

	rec = ts.do(http.MethodGet, "/api/masterlist?country=SE", nil, user)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[store.MasterlistPage](t, rec)
	require.Len(t, page.Companies, 1)
	assert.Equal(t, volvoISIN, page.Companies[0].ISIN)

	rec = ts.do(http.MethodGet, "/api/search-isin?q=app", nil, user)
	require.Equal(t, http.StatusOK, rec.Code)
	suggestions := decode[[]store.ISINSuggestion](t, rec)
	require.NotEmpty(t, suggestions)
	assert.Equal(t, appleISIN, suggestions[0].ISIN)

	apple.Name = "Apple"
	rec = ts.do(http.MethodPut, "/api/masterlist/"+appleISIN, apple, user)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = ts.do(http.MethodPut, "/api/masterlist/GB0002634946", apple, user)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodDelete, "/api/masterlist/"+volvoISIN, nil, user)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = ts.do(http.MethodDelete, "/api/masterlist/"+volvoISIN, nil, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	m, err := ts.store.GetMasterlist(context.Background(), volvoISIN)
	require.NoError(t, err)
	assert.True(t, m.Delisted)
}

func TestTradeRoutes(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login("user")

	req := store.TradeRequest{
		TradeDate:    testToday,
		ISIN:         appleISIN,
		TradeType:    "buy",
		Shares:       decimal.NewFromInt(10),
		PriceLocal:   decimal.NewFromInt(100),
		Currency:     "USD",
		ExchangeRate: decimal.RequireFromString("10.5"),
	}
	rec := ts.do(http.MethodPost, "/api/trades", req, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	trade := decode[store.Trade](t, rec)
	assert.Equal(t, "BUY", trade.TradeType)
	assert.Equal(t, date.New(2024, time.June, 18), trade.SettlementDate, "T+2 over the weekend")
	assert.True(t, decimal.NewFromInt(10500).Equal(trade.TotalAmountSEK))

	rec = ts.do(http.MethodGet, fmt.Sprintf("/api/trades/%d", trade.ID), nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(http.MethodGet, "/api/trades/999", nil, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = ts.do(http.MethodGet, "/api/trades/abc", nil, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req.Shares = decimal.Zero
	rec = ts.do(http.MethodPost, "/api/trades", req, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/api/trades/calculate?trade_date=2024-06-14&currency_local=USD&shares_traded=10&price_per_share_local=100&exchange_rate_used=10.5", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	calc := decode[struct {
		SettlementDate date.Date `json:"settlement_date"`
		TotalLocal     money     `json:"total_amount_local"`
		TotalSEK       money     `json:"total_amount_sek"`
	}](t, rec)
	assert.Equal(t, date.New(2024, time.June, 18), calc.SettlementDate)
	assert.Equal(t, "USD", calc.TotalLocal.Currency)
	assert.True(t, decimal.NewFromInt(1000).Equal(calc.TotalLocal.Amount))
	assert.True(t, decimal.NewFromInt(10500).Equal(calc.TotalSEK.Amount))

	rec = ts.do(http.MethodGet, "/api/trades/calculate?shares_traded=0", nil, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	for _, tc := range []struct {
		query string
		want  int
	}{
		{"currency_local=USD&shares_traded=10&price_per_share_local=100", http.StatusBadRequest},
		{"currency_local=USD&shares_traded=10&price_per_share_local=100&price_per_share_sek=1050", http.StatusOK},
		{"currency_local=SEK&shares_traded=10&price_per_share_local=100", http.StatusOK},
	} {
		rec = ts.do(http.MethodGet, "/api/trades/calculate?"+tc.query, nil, cookie)
		require.Equal(t, tc.want, rec.Code, "%s: %s", tc.query, rec.Body.String())
		if tc.want == http.StatusBadRequest {
			p := decode[problem](t, rec)
			require.Len(t, p.Errors, 1)
			assert.Equal(t, "exchange_rate_used", p.Errors[0].Name)
		}
	}

	rec = ts.do(http.MethodDelete, fmt.Sprintf("/api/trades/%d", trade.ID), nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(http.MethodDelete, fmt.Sprintf("/api/trades/%d", trade.ID), nil, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDividendImport(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login("user")

	rows := [][]string{
		{"PaymentDate", "ISIN", "Symbol", "SharesHeld", "DividendLocal", "TaxLocal", "Currency", "DividendSEK", "TaxSEK", "NetSEK", "FXRate"},
		{"2024-05-16", appleISIN, "AAPL", "10", "2.40", "0.36", "USD", "25.20", "3.78", "21.42", "10.5"},
		{"2024-05-03", volvoISIN, "VOLV B", "100", "1800", "540", "SEK", "1800", "540", "1260", "1"},
	}
	var csv strings.Builder
	for _, r := range rows {
		csv.WriteString(strings.Join(r, "\t") + "\n")
	}

	rec := ts.do(http.MethodPost, "/api/dividends/import?broker=generic", csv.String(), cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sum := decode[store.ImportSummary](t, rec)
	assert.Equal(t, 2, sum.Imported)
	assert.Equal(t, 0, sum.Duplicates)
	assert.NotEmpty(t, sum.Batch)

	rec = ts.do(http.MethodPost, "/api/dividends/import", csv.String(), cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sum = decode[store.ImportSummary](t, rec)
	assert.Equal(t, 0, sum.Imported)
	assert.Equal(t, 2, sum.Duplicates)

	rec = ts.do(http.MethodPost, "/api/dividends/import?broker=unknown", csv.String(), cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = ts.do(http.MethodPost, "/api/dividends/import", "", cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/api/dividends?year=2024", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestBuylistRoutes(t *testing.T) {
	ts := newTestServer(t)
	user := ts.login("user")
	admin := ts.login("admin")

	entry := store.BuylistEntry{CompanyName: "Volvo B", Ticker: "volv b", ISIN: volvoISIN, Country: "se", StatusID: 1}
	rec := ts.do(http.MethodPost, "/api/buylist", entry, user)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[store.BuylistEntry](t, rec)
	assert.Equal(t, "VOLV B", created.Ticker)

	rec = ts.do(http.MethodPost, "/api/buylist", entry, user)
	assert.Equal(t, http.StatusConflict, rec.Code)

	path := fmt.Sprintf("/api/buylist/%d", created.ID)
	rec = ts.do(http.MethodGet, path, nil, admin)
	assert.Equal(t, http.StatusForbidden, rec.Code, "entries belong to their user")

	rec = ts.do(http.MethodPost, path+"/masterlist", nil, user)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, store.ActionAdded, decode[PromoteResult](t, rec).Action)
	_, err := ts.store.GetMasterlist(context.Background(), volvoISIN)
	assert.NoError(t, err)

	rec = ts.do(http.MethodDelete, path, nil, user)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(http.MethodGet, path, nil, user)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReferenceRoutes(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login("user")

	for _, path := range []string{"brokers", "account-groups", "strategy-groups", "statuses", "buylist-statuses", "currencies"} {
		rec := ts.do(http.MethodGet, "/api/reference/"+path, nil, cookie)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
	rec := ts.do(http.MethodGet, "/api/reference/formats", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	formats := decode[[]FormatOption](t, rec)
	assert.NotEmpty(t, formats)
}

func TestRulebook(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/rulebook", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `href="/rulebook/trading-rules"`)

	rec = ts.do(http.MethodGet, "/rulebook/trading-rules", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>Trading rules</h1>")

	rec = ts.do(http.MethodGet, "/rulebook/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPortfolioSummaryAndCompanyDetail(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login("user")
	ctx := context.Background()

	_, err := ts.store.CreateTrade(ctx, store.TradeRequest{
		TradeDate:  date.New(2024, time.January, 10),
		ISIN:       volvoISIN,
		TradeType:  "buy",
		Shares:     decimal.NewFromInt(100),
		PriceLocal: decimal.NewFromInt(250),
		Currency:   "SEK",
	})
	require.NoError(t, err)
	_, err = ts.store.RecomputeHoldings(ctx)
	require.NoError(t, err)
	_, err = ts.store.CreateDividend(ctx, store.DividendRequest{
		PayDate:  date.New(2024, time.April, 5),
		ISIN:     volvoISIN,
		TotalSEK: decimal.NewFromInt(1200),
	})
	require.NoError(t, err)

	rec := ts.do(http.MethodGet, "/api/portfolio/summary", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sum := decode[struct {
		TotalValue   money   `json:"total_value"`
		DividendsYTD money   `json:"total_dividends_ytd"`
		Monthly      money   `json:"expected_monthly_income"`
		Yield        float64 `json:"current_yield"`
		Holdings     int     `json:"total_holdings"`
		Recent       []struct {
			ISIN string `json:"isin"`
		} `json:"recent_dividends"`
		Upcoming []struct{} `json:"upcoming_dividends"`
	}](t, rec)
	assert.Equal(t, 1, sum.Holdings)
	assert.True(t, decimal.NewFromInt(25000).Equal(sum.TotalValue.Amount), "total value %v", sum.TotalValue.Amount)
	assert.True(t, decimal.NewFromInt(1200).Equal(sum.DividendsYTD.Amount))
	assert.True(t, decimal.NewFromInt(100).Equal(sum.Monthly.Amount))
	assert.InDelta(t, 4.8, sum.Yield, 0.001)
	require.Len(t, sum.Recent, 1)
	assert.Equal(t, volvoISIN, sum.Recent[0].ISIN)
	assert.NotNil(t, sum.Upcoming)

	for _, tc := range []struct {
		path string
		want int
	}{
		{"/api/companies/" + volvoISIN, http.StatusOK},
		{"/api/companies/se0000115446", http.StatusOK},
		{"/api/companies/" + appleISIN, http.StatusNotFound},
		{"/api/companies/unsupported", http.StatusOK},
	} {
		rec = ts.do(http.MethodGet, tc.path, nil, cookie)
		assert.Equal(t, tc.want, rec.Code, "%s: %s", tc.path, rec.Body.String())
	}

	rec = ts.do(http.MethodGet, "/api/companies/"+volvoISIN, nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[struct {
		ISIN      string     `json:"isin"`
		Trades    []struct{} `json:"trades"`
		Dividends []struct{} `json:"dividends"`
		Total     money      `json:"total_dividends_sek"`
		Holding   *struct {
			Shares decimal.Decimal `json:"shares_held"`
		} `json:"holding"`
	}](t, rec)
	assert.Equal(t, volvoISIN, detail.ISIN)
	assert.Len(t, detail.Trades, 1)
	assert.Len(t, detail.Dividends, 1)
	assert.True(t, decimal.NewFromInt(1200).Equal(detail.Total.Amount))
	require.NotNil(t, detail.Holding)
	assert.True(t, decimal.NewFromInt(100).Equal(detail.Holding.Shares))

	rec = ts.do(http.MethodGet, "/api/portfolio/summary", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
