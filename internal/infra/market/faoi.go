package market

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"twmarket-crawler/internal/domain/entity"
)

// FAOIColumns is the fixed output schema for the daily institutional
// investor flows (foreign investors, investment trusts, dealers).
var FAOIColumns = []string{
	"Date",
	"SecurityCode",
	"StockName",
	"ForeignInvestorsTotalBuy",
	"ForeignInvestorsTotalSell",
	"ForeignInvestorsDifference",
	"ForeignDealersTotalBuy",
	"ForeignDealersTotalSell",
	"ForeignDealersDifference",
	"SecuritiesInvestmentTotalBuy",
	"SecuritiesInvestmentTotalSell",
	"SecuritiesInvestmentDifference",
	"DealersDifference",
	"DealersProprietaryTotalBuy",
	"DealersProprietaryTotalSell",
	"DealersProprietaryDifference",
	"DealersHedgeTotalBuy",
	"DealersHedgeTotalSell",
	"DealersHedgeDifference",
	"TotalDifference",
}

// FAOI fetches the exchange's daily institutional buy/sell report (T86).
type FAOI struct {
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

func NewFAOI(client *http.Client, logger *slog.Logger) *FAOI {
	return &FAOI{client: client, logger: logger, baseURL: twseBaseURL}
}

type faoiResponse struct {
	Stat   string   `json:"stat"`
	Fields []string `json:"fields"`
	Data   [][]any  `json:"data"`
}

// Fetch downloads and normalizes one trading day of institutional flows.
func (f *FAOI) Fetch(ctx context.Context, date string) (*entity.Table, error) {
	url := fmt.Sprintf("%s/rwd/zh/fund/T86?date=%s&selectType=ALL&response=json", f.baseURL, compactDate(date))

	var resp faoiResponse
	if err := getJSON(ctx, f.client, url, &resp); err != nil {
		return nil, err
	}
	if resp.Stat != "OK" {
		f.logger.Info("FAOI reports no data", slog.String("date", date), slog.String("stat", resp.Stat))
		return emptyTable(FAOIColumns), nil
	}

	idx := make(map[string]int, len(FAOIColumns))
	for name, alias := range map[string]string{
		"SecurityCode":                   "證券代號",
		"StockName":                      "證券名稱",
		"ForeignInvestorsTotalBuy":       "外陸資買進股數(不含外資自營商)",
		"ForeignInvestorsTotalSell":      "外陸資賣出股數(不含外資自營商)",
		"ForeignInvestorsDifference":     "外陸資買賣超股數(不含外資自營商)",
		"ForeignDealersTotalBuy":         "外資自營商買進股數",
		"ForeignDealersTotalSell":        "外資自營商賣出股數",
		"ForeignDealersDifference":       "外資自營商買賣超股數",
		"SecuritiesInvestmentTotalBuy":   "投信買進股數",
		"SecuritiesInvestmentTotalSell":  "投信賣出股數",
		"SecuritiesInvestmentDifference": "投信買賣超股數",
		"DealersDifference":              "自營商買賣超股數",
		"DealersProprietaryTotalBuy":     "自營商買進股數(自行買賣)",
		"DealersProprietaryTotalSell":    "自營商賣出股數(自行買賣)",
		"DealersProprietaryDifference":   "自營商買賣超股數(自行買賣)",
		"DealersHedgeTotalBuy":           "自營商買進股數(避險)",
		"DealersHedgeTotalSell":          "自營商賣出股數(避險)",
		"DealersHedgeDifference":         "自營商買賣超股數(避險)",
		"TotalDifference":                "三大法人買賣超股數",
	} {
		i, err := fieldIndex(resp.Fields, alias)
		if err != nil {
			return nil, err
		}
		idx[name] = i
	}

	table := entity.NewTable(FAOIColumns...)
	for _, cells := range resp.Data {
		if len(cells) < len(resp.Fields) {
			return nil, fmt.Errorf("%w: row with %d cells, want %d", entity.ErrUpstreamFormat, len(cells), len(resp.Fields))
		}
		row := map[string]any{
			"Date":         date,
			"SecurityCode": cellText(cells[idx["SecurityCode"]]),
			"StockName":    cellText(cells[idx["StockName"]]),
		}
		for _, name := range FAOIColumns[3:] {
			n, err := intCell(name, cells[idx[name]])
			if err != nil {
				return nil, err
			}
			row[name] = n
		}
		table.Append(row)
	}
	return table, nil
}
