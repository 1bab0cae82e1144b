package market

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"twmarket-crawler/internal/domain/entity"
)

const twseBaseURL = "https://www.twse.com.tw"

// TWSEColumns is the fixed output schema: the exchange's per-security
// daily quotes with the Dir sign already folded into Change.
var TWSEColumns = []string{
	"Date",
	"SecurityCode",
	"StockName",
	"TradeVolume",
	"Transaction",
	"TradeValue",
	"OpeningPrice",
	"HighestPrice",
	"LowestPrice",
	"ClosingPrice",
	"Change",
	"LastBestBidPrice",
	"LastBestBidVolume",
	"LastBestAskPrice",
	"LastBestAskVolume",
	"PriceEarningratio",
}

// TWSE fetches the exchange's daily closing quotes (MI_INDEX, all
// securities).
type TWSE struct {
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

func NewTWSE(client *http.Client, logger *slog.Logger) *TWSE {
	return &TWSE{client: client, logger: logger, baseURL: twseBaseURL}
}

type twseTable struct {
	Fields []string `json:"fields"`
	Data   [][]any  `json:"data"`
}

type twseResponse struct {
	Stat   string      `json:"stat"`
	Tables []twseTable `json:"tables"`
}

// twseQuoteTable is the index of the all-securities quote table inside
// the MI_INDEX response; the preceding tables hold index summaries.
const twseQuoteTable = 8

// Fetch downloads and normalizes one trading day. A non-OK stat means a
// market holiday and yields the empty fixed-schema table.
func (f *TWSE) Fetch(ctx context.Context, date string) (*entity.Table, error) {
	url := fmt.Sprintf("%s/rwd/zh/afterTrading/MI_INDEX?date=%s&type=ALL&response=json", f.baseURL, compactDate(date))

	var resp twseResponse
	if err := getJSON(ctx, f.client, url, &resp); err != nil {
		return nil, err
	}
	if resp.Stat != "OK" {
		f.logger.Info("TWSE reports no data", slog.String("date", date), slog.String("stat", resp.Stat))
		return emptyTable(TWSEColumns), nil
	}
	if len(resp.Tables) <= twseQuoteTable {
		return nil, fmt.Errorf("%w: MI_INDEX has %d tables", entity.ErrUpstreamFormat, len(resp.Tables))
	}

	quote := resp.Tables[twseQuoteTable]
	idx := make(map[string]int, 16)
	for name, aliases := range map[string][]string{
		"SecurityCode":      {"證券代號"},
		"StockName":         {"證券名稱"},
		"TradeVolume":       {"成交股數"},
		"Transaction":       {"成交筆數"},
		"TradeValue":        {"成交金額"},
		"OpeningPrice":      {"開盤價"},
		"HighestPrice":      {"最高價"},
		"LowestPrice":       {"最低價"},
		"ClosingPrice":      {"收盤價"},
		"Dir":               {"漲跌(+/-)"},
		"Change":            {"漲跌價差"},
		"LastBestBidPrice":  {"最後揭示買價"},
		"LastBestBidVolume": {"最後揭示買量"},
		"LastBestAskPrice":  {"最後揭示賣價"},
		"LastBestAskVolume": {"最後揭示賣量"},
		"PriceEarningratio": {"本益比"},
	} {
		i, err := fieldIndex(quote.Fields, aliases...)
		if err != nil {
			return nil, err
		}
		idx[name] = i
	}

	table := entity.NewTable(TWSEColumns...)
	for _, cells := range quote.Data {
		if len(cells) < len(quote.Fields) {
			return nil, fmt.Errorf("%w: row with %d cells, want %d", entity.ErrUpstreamFormat, len(cells), len(quote.Fields))
		}
		row, err := twseRow(cells, idx, date)
		if err != nil {
			return nil, err
		}
		table.Append(row)
	}
	return table, nil
}

func twseRow(cells []any, idx map[string]int, date string) (map[string]any, error) {
	row := map[string]any{
		"Date":         date,
		"SecurityCode": cellText(cells[idx["SecurityCode"]]),
		"StockName":    cellText(cells[idx["StockName"]]),
	}

	for _, name := range []string{"TradeVolume", "Transaction", "TradeValue", "LastBestBidVolume", "LastBestAskVolume"} {
		n, err := intCell(name, cells[idx[name]])
		if err != nil {
			return nil, err
		}
		row[name] = n
	}
	for _, name := range []string{"OpeningPrice", "HighestPrice", "LowestPrice", "ClosingPrice", "LastBestBidPrice", "LastBestAskPrice", "PriceEarningratio"} {
		f, err := floatCell(name, cells[idx[name]])
		if err != nil {
			return nil, err
		}
		row[name] = f
	}

	// The up/down direction arrives as an HTML snippet; fold its sign
	// into Change and drop the column.
	change, err := floatCell("Change", cells[idx["Change"]])
	if err != nil {
		return nil, err
	}
	row["Change"] = change * dirSign(cellText(cells[idx["Dir"]]))
	return row, nil
}

// dirSign decodes the embedded direction markup: a red + means up, a
// green - means down, blank and X (suspended) mean no move.
func dirSign(raw string) float64 {
	text := raw
	for {
		open := strings.Index(text, "<")
		if open == -1 {
			break
		}
		end := strings.Index(text[open:], ">")
		if end == -1 {
			break
		}
		text = text[:open] + text[open+end+1:]
	}
	switch strings.TrimSpace(text) {
	case "+":
		return 1
	case "-":
		return -1
	default:
		return 0
	}
}
