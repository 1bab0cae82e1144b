package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTPEX_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.PostFormValue("date"); got != "2026/02/27" {
			t.Errorf("date = %q, want %q", got, "2026/02/27")
		}
		if got := r.PostFormValue("type"); got != "AL" {
			t.Errorf("type = %q, want %q", got, "AL")
		}
		_, _ = w.Write([]byte(`{
			"tables": [{
				"fields": ["代號","名稱","收盤 ","漲跌","開盤 ","最高 ","最低","成交股數  "," 成交金額(元)"," 成交筆數 ","最後買價","最後買量<br>(張數)","最後賣價","最後賣量<br>(張數)","發行股數 ","次日漲停價 ","次日跌停價"],
				"data": [
					["5483","中美晶","171.50","2.50","170.00","172.00","169.50","3,210,000","549,315,000","2,100","171.00","15","171.50","8","585,000,000","188.50","154.50"],
					["8069","元太","----","除息","----","----","----","1,000","200,000","12","200.00","1","201.00","2","114,000,000","220.00","180.00"]
				]
			}]
		}`))
	}))
	defer server.Close()

	f := NewTPEX(server.Client(), testLogger())
	f.baseURL = server.URL

	table, err := f.Fetch(context.Background(), "2026-02-27")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("rows = %d, want 2", table.Len())
	}

	row := table.Rows[0]
	if row["Code"] != "5483" || row["Close"] != 171.5 {
		t.Errorf("row 0 = %v", row)
	}
	if row["TradeVolume"] != int64(3210000) {
		t.Errorf("TradeVolume = %v", row["TradeVolume"])
	}

	// Ex-dividend row: price sentinels and the 除息 marker become null.
	exDiv := table.Rows[1]
	for _, col := range []string{"Close", "Open", "High", "Low", "Change"} {
		if exDiv[col] != nil {
			t.Errorf("%s = %v, want nil", col, exDiv[col])
		}
	}
}

func TestTPEX_Fetch_EmptyDay(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"tables": [{"fields": [], "data": []}]}`))
	}))
	defer server.Close()

	f := NewTPEX(server.Client(), testLogger())
	f.baseURL = server.URL

	table, err := f.Fetch(context.Background(), "2026-02-28")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if table.Len() != 0 {
		t.Errorf("rows = %d, want 0", table.Len())
	}
	if len(table.Columns) != len(TPEXColumns) {
		t.Errorf("columns = %d, want full set", len(table.Columns))
	}
}
