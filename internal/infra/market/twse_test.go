package market

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestTWSE_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("date"); got != "20260227" {
			t.Errorf("date query = %q, want %q", got, "20260227")
		}
		// The quote table sits at index 8; the leading tables hold
		// index summaries.
		padding := strings.Repeat(`{"fields":[],"data":[]},`, 8)
		_, _ = w.Write([]byte(`{
			"stat": "OK",
			"tables": [` + padding + `{
				"fields": ["證券代號","證券名稱","成交股數","成交筆數","成交金額","開盤價","最高價","最低價","收盤價","漲跌(+/-)","漲跌價差","最後揭示買價","最後揭示買量","最後揭示賣價","最後揭示賣量","本益比"],
				"data": [
					["2330","台積電","25,000,123","30,100","15,000,456,789","600.00","610.00","598.00","605.00","<p style= color:red>+</p>","5.00","604.00","120","605.00","80","25.30"],
					["9999","停牌公司","0","0","0","--","--","--","--","<p>X</p>","--","--","","--","","0.00"]
				]
			}]
		}`))
	}))
	defer server.Close()

	f := NewTWSE(server.Client(), testLogger())
	f.baseURL = server.URL

	table, err := f.Fetch(context.Background(), "2026-02-27")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("rows = %d, want 2", table.Len())
	}

	want := map[string]any{
		"Date":              "2026-02-27",
		"SecurityCode":      "2330",
		"StockName":         "台積電",
		"TradeVolume":       int64(25000123),
		"Transaction":       int64(30100),
		"TradeValue":        int64(15000456789),
		"OpeningPrice":      600.0,
		"HighestPrice":      610.0,
		"LowestPrice":       598.0,
		"ClosingPrice":      605.0,
		"Change":            5.0,
		"LastBestBidPrice":  604.0,
		"LastBestBidVolume": int64(120),
		"LastBestAskPrice":  605.0,
		"LastBestAskVolume": int64(80),
		"PriceEarningratio": 25.3,
	}
	if diff := cmp.Diff(want, table.Rows[0]); diff != "" {
		t.Errorf("row 0 mismatch (-want +got):\n%s", diff)
	}

	// Suspended security: sentinels become zero, X direction keeps
	// Change at zero.
	if got := table.Rows[1]["Change"]; got != 0.0 {
		t.Errorf("suspended Change = %v, want 0", got)
	}
	if got := table.Rows[1]["LastBestBidVolume"]; got != int64(0) {
		t.Errorf("empty volume = %v, want 0", got)
	}
}

func TestTWSE_Fetch_MarketHoliday(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"stat": "很抱歉，沒有符合條件的資料!", "tables": []}`))
	}))
	defer server.Close()

	f := NewTWSE(server.Client(), testLogger())
	f.baseURL = server.URL

	table, err := f.Fetch(context.Background(), "2026-02-28")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	// A holiday keeps the full column set with zero rows.
	if table.Len() != 0 {
		t.Errorf("rows = %d, want 0", table.Len())
	}
	if diff := cmp.Diff(TWSEColumns, table.Columns); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
}

func TestTWSE_Fetch_NegativeChange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		padding := strings.Repeat(`{"fields":[],"data":[]},`, 8)
		_, _ = w.Write([]byte(`{
			"stat": "OK",
			"tables": [` + padding + `{
				"fields": ["證券代號","證券名稱","成交股數","成交筆數","成交金額","開盤價","最高價","最低價","收盤價","漲跌(+/-)","漲跌價差","最後揭示買價","最後揭示買量","最後揭示賣價","最後揭示賣量","本益比"],
				"data": [["2317","鴻海","1,000","10","100,000","100.00","101.00","99.00","99.50","<p style= color:green>-</p>","0.50","99.50","5","99.55","3","12.00"]]
			}]
		}`))
	}))
	defer server.Close()

	f := NewTWSE(server.Client(), testLogger())
	f.baseURL = server.URL

	table, err := f.Fetch(context.Background(), "2026-02-27")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got := table.Rows[0]["Change"]; got != -0.5 {
		t.Errorf("Change = %v, want -0.5", got)
	}
}
