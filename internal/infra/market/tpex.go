package market

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"twmarket-crawler/internal/domain/entity"
)

const tpexBaseURL = "https://www.tpex.org.tw"

// TPEXColumns is the fixed output schema for the over-the-counter daily
// quotes.
var TPEXColumns = []string{
	"Date",
	"Code",
	"Name",
	"Close",
	"Change",
	"Open",
	"High",
	"Low",
	"TradeVolume",
	"TradeAmount",
	"NumberOfTransactions",
	"LastBestBidPrice",
	"LastBidVolume",
	"LastBestAskPrice",
	"LastBestAskVolume",
	"IssuedShares",
	"NextDayUpLimitPrice",
	"NextDayDownLimitPrice",
}

// TPEX fetches the OTC exchange's after-trading daily quotes.
type TPEX struct {
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

func NewTPEX(client *http.Client, logger *slog.Logger) *TPEX {
	return &TPEX{client: client, logger: logger, baseURL: tpexBaseURL}
}

type tpexResponse struct {
	Stat   string      `json:"stat"`
	Tables []twseTable `json:"tables"`
}

// Fetch downloads and normalizes one trading day of OTC quotes.
func (f *TPEX) Fetch(ctx context.Context, date string) (*entity.Table, error) {
	form := url.Values{
		"date": {slashDate(date)},
		"type": {"AL"},
	}

	var resp tpexResponse
	if err := postFormJSON(ctx, f.client, f.baseURL+"/www/zh-tw/afterTrading/otc", form, &resp); err != nil {
		return nil, err
	}
	if resp.Stat != "" && resp.Stat != "OK" {
		f.logger.Info("TPEX reports no data", slog.String("date", date), slog.String("stat", resp.Stat))
		return emptyTable(TPEXColumns), nil
	}
	if len(resp.Tables) == 0 || len(resp.Tables[0].Data) == 0 {
		f.logger.Info("TPEX returned an empty table", slog.String("date", date))
		return emptyTable(TPEXColumns), nil
	}

	quote := resp.Tables[0]
	// Header names carry stray spaces and <br> fragments; the volume
	// columns switched units at some point, so both spellings are known.
	idx := make(map[string]int, 17)
	for name, aliases := range map[string][]string{
		"Code":                  {"代號"},
		"Name":                  {"名稱"},
		"Close":                 {"收盤"},
		"Change":                {"漲跌"},
		"Open":                  {"開盤"},
		"High":                  {"最高"},
		"Low":                   {"最低"},
		"TradeVolume":           {"成交股數"},
		"TradeAmount":           {"成交金額(元)"},
		"NumberOfTransactions":  {"成交筆數"},
		"LastBestBidPrice":      {"最後買價"},
		"LastBidVolume":         {"最後買量<br>(千股)", "最後買量<br>(張數)"},
		"LastBestAskPrice":      {"最後賣價"},
		"LastBestAskVolume":     {"最後賣量<br>(千股)", "最後賣量<br>(張數)"},
		"IssuedShares":          {"發行股數"},
		"NextDayUpLimitPrice":   {"次日漲停價"},
		"NextDayDownLimitPrice": {"次日跌停價"},
	} {
		i, err := fieldIndex(quote.Fields, aliases...)
		if err != nil {
			return nil, err
		}
		idx[name] = i
	}

	table := entity.NewTable(TPEXColumns...)
	for _, cells := range quote.Data {
		if len(cells) < len(quote.Fields) {
			return nil, fmt.Errorf("%w: row with %d cells, want %d", entity.ErrUpstreamFormat, len(cells), len(quote.Fields))
		}
		row := map[string]any{
			"Date": date,
			"Code": cellText(cells[idx["Code"]]),
			"Name": cellText(cells[idx["Name"]]),
		}

		var err error
		for _, name := range []string{"Close", "Open", "High", "Low"} {
			if row[name], err = nullFloatCell(name, cells[idx[name]], "----"); err != nil {
				return nil, err
			}
		}
		// Change is blanked on ex-dividend and ex-rights days.
		if row["Change"], err = nullFloatCell("Change", cells[idx["Change"]], "---", "除權", "除息", "除權息"); err != nil {
			return nil, err
		}
		for _, name := range []string{"TradeVolume", "TradeAmount", "NumberOfTransactions", "LastBidVolume", "LastBestAskVolume", "IssuedShares"} {
			if row[name], err = intCell(name, cells[idx[name]]); err != nil {
				return nil, err
			}
		}
		for _, name := range []string{"LastBestBidPrice", "LastBestAskPrice", "NextDayUpLimitPrice", "NextDayDownLimitPrice"} {
			if row[name], err = floatCell(name, cells[idx[name]]); err != nil {
				return nil, err
			}
		}

		table.Append(row)
	}
	return table, nil
}
