package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twmarket-crawler/internal/domain/entity"
)

func newAggregateServer(crawlers ...Crawler) *httptest.Server {
	handler := &AggregateHandler{
		Registry: NewRegistry(crawlers...),
		Logger:   slog.New(slog.DiscardHandler),
	}
	mux := http.NewServeMux()
	mux.Handle("GET /{$}", handler)
	return httptest.NewServer(mux)
}

func TestAggregateHandler_CollectsAllMarketSources(t *testing.T) {
	twse := &fakeCrawler{
		name:    "twse",
		columns: []string{"SecurityCode"},
		crawl:   staticTable([]string{"SecurityCode"}, map[string]any{"SecurityCode": "2330"}),
	}
	tpex := &fakeCrawler{
		name:    "tpex",
		columns: []string{"SecurityCode"},
		crawl:   staticTable([]string{"SecurityCode"}),
	}
	news := &fakeCrawler{
		name:          "cnyes",
		supportsHours: true,
		crawl: func(context.Context, string, int) (*entity.Table, error) {
			t.Error("news crawler must not be part of the aggregate fan-out")
			return nil, nil
		},
	}

	srv := newAggregateServer(twse, tpex, news)
	defer srv.Close()

	status, body := getJSON(t, srv.URL+"/?date=2026-03-02")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "2026-03-02", body["date"])

	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, data, 2)

	twseRows := data["twse"].([]any)
	require.Len(t, twseRows, 1)
	assert.Equal(t, "2330", twseRows[0].(map[string]any)["SecurityCode"])

	// Holiday-style empty table still serializes as an empty list.
	assert.Equal(t, []any{}, data["tpex"])
}

func TestAggregateHandler_PartialFailure(t *testing.T) {
	good := &fakeCrawler{
		name:    "twse",
		columns: []string{"SecurityCode"},
		crawl:   staticTable([]string{"SecurityCode"}, map[string]any{"SecurityCode": "2330"}),
	}
	bad := &fakeCrawler{
		name: "taifex",
		crawl: func(context.Context, string, int) (*entity.Table, error) {
			return nil, errors.New("HTTP 500: https://www.taifex.com.tw/cht/3/futDataDown")
		},
	}

	srv := newAggregateServer(good, bad)
	defer srv.Close()

	status, body := getJSON(t, srv.URL+"/?date=2026-03-02")

	assert.Equal(t, http.StatusOK, status, "a failed source must not fail the aggregate")

	data := body["data"].(map[string]any)
	require.Len(t, data, 2)

	failed, ok := data["taifex"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, failed["error"], "HTTP 500")

	assert.IsType(t, []any{}, data["twse"])
}

func TestAggregateHandler_InvalidDate(t *testing.T) {
	srv := newAggregateServer(&fakeCrawler{name: "twse", crawl: staticTable(nil)})
	defer srv.Close()

	status, body := getJSON(t, srv.URL+"/?date=20260302")

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"], "invalid date")
}

func TestAggregateHandler_DefaultsToToday(t *testing.T) {
	var gotDate string
	crawler := &fakeCrawler{
		name: "twse",
		crawl: func(_ context.Context, date string, _ int) (*entity.Table, error) {
			gotDate = date
			return entity.NewTable("Date"), nil
		},
	}
	srv := newAggregateServer(crawler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, gotDate)
	assert.Equal(t, gotDate, body["date"])
}
