package market

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"

	"twmarket-crawler/internal/domain/entity"
)

const taifexBaseURL = "https://www.taifex.com.tw"

// TAIFEXColumns is the fixed output schema for the futures daily report.
var TAIFEXColumns = []string{
	"Date",
	"Contract",
	"ContractMonth",
	"Open",
	"High",
	"Low",
	"Last",
	"Change",
	"ChangePercent",
	"Volume",
	"SettlementPrice",
	"OpenInterest",
	"BestBid",
	"BestAsk",
	"HistoricalHigh",
	"HistoricalLow",
	"TradingHalt",
	"TradingSession",
	"SpreadOrderVolume",
}

// TAIFEX fetches the futures exchange's daily trading report. The
// download endpoint returns CSV, historically in Big5.
type TAIFEX struct {
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

func NewTAIFEX(client *http.Client, logger *slog.Logger) *TAIFEX {
	return &TAIFEX{client: client, logger: logger, baseURL: taifexBaseURL}
}

// Fetch downloads and normalizes one trading day of futures data.
func (f *TAIFEX) Fetch(ctx context.Context, date string) (*entity.Table, error) {
	form := url.Values{
		"down_type":      {"1"},
		"commodity_id":   {"all"},
		"queryStartDate": {slashDate(date)},
		"queryEndDate":   {slashDate(date)},
	}

	body, err := postForm(ctx, f.client, f.baseURL+"/cht/3/futDataDown", form)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(body) {
		body, _, err = transform.Bytes(traditionalchinese.Big5.NewDecoder(), body)
		if err != nil {
			return nil, fmt.Errorf("decode Big5 response: %w", err)
		}
	}

	reader := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(body), "\ufeff")))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse CSV: %w", err)
	}
	if len(records) == 0 {
		f.logger.Info("TAIFEX returned no rows", slog.String("date", date))
		return emptyTable(TAIFEXColumns), nil
	}

	fields := records[0]
	idx := make(map[string]int, len(TAIFEXColumns))
	for name, alias := range map[string]string{
		"Date":              "交易日期",
		"Contract":          "契約",
		"ContractMonth":     "到期月份(週別)",
		"Open":              "開盤價",
		"High":              "最高價",
		"Low":               "最低價",
		"Last":              "收盤價",
		"Change":            "漲跌價",
		"ChangePercent":     "漲跌%",
		"Volume":            "成交量",
		"SettlementPrice":   "結算價",
		"OpenInterest":      "未沖銷契約數",
		"BestBid":           "最後最佳買價",
		"BestAsk":           "最後最佳賣價",
		"HistoricalHigh":    "歷史最高價",
		"HistoricalLow":     "歷史最低價",
		"TradingHalt":       "是否因訊息面暫停交易",
		"TradingSession":    "交易時段",
		"SpreadOrderVolume": "價差對單式委託成交量",
	} {
		i, err := fieldIndex(fields, alias)
		if err != nil {
			return nil, err
		}
		idx[name] = i
	}

	table := entity.NewTable(TAIFEXColumns...)
	for _, cells := range records[1:] {
		if len(cells) < len(fields) {
			continue
		}
		row := map[string]any{
			"Date":           strings.ReplaceAll(strings.TrimSpace(cells[idx["Date"]]), "/", "-"),
			"Contract":       strings.TrimSpace(cells[idx["Contract"]]),
			"ContractMonth":  strings.TrimSpace(cells[idx["ContractMonth"]]),
			"TradingSession": strings.TrimSpace(cells[idx["TradingSession"]]),
			"TradingHalt":    haltCell(cells[idx["TradingHalt"]]),
		}

		for _, name := range []string{
			"Open", "High", "Low", "Last", "Change", "SettlementPrice",
			"OpenInterest", "BestBid", "BestAsk", "HistoricalHigh", "HistoricalLow",
		} {
			v, err := nullFloatCell(name, cells[idx[name]], "-")
			if err != nil {
				return nil, err
			}
			row[name] = v
		}
		if row["ChangePercent"], err = percentCell("ChangePercent", cells[idx["ChangePercent"]]); err != nil {
			return nil, err
		}
		if row["Volume"], err = intCell("Volume", cells[idx["Volume"]]); err != nil {
			return nil, err
		}
		if row["SpreadOrderVolume"], err = floatCell("SpreadOrderVolume", cells[idx["SpreadOrderVolume"]]); err != nil {
			return nil, err
		}

		table.Append(row)
	}
	return table, nil
}

// haltCell normalizes the 是/否 trading-halt flag into 1/0, with dashes,
// asterisks and blanks meaning unknown.
func haltCell(raw string) any {
	switch strings.TrimSpace(raw) {
	case "是":
		return 1.0
	case "否":
		return 0.0
	default:
		return nil
	}
}
