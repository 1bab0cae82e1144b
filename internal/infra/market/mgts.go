package market

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"twmarket-crawler/internal/domain/entity"
)

// MGTSColumns is the fixed output schema for the daily margin-trading
// and short-selling balances.
var MGTSColumns = []string{
	"Date",
	"SecurityCode",
	"StockName",
	"MarginPurchase",
	"MarginSales",
	"CashRedemption",
	"MarginPurchaseBalanceOfPreviousDay",
	"MarginPurchaseBalanceOfTheDay",
	"MarginPurchaseQuotaForTheNextDay",
	"ShortCovering",
	"ShortSale",
	"StockRedemption",
	"ShortSaleBalanceOfPreviousDay",
	"ShortSaleBalanceOfTheDay",
	"ShortSaleQuotaForTheNextDay",
	"OffsettingOfMarginPurchasesAndShortSales",
	"Note",
}

// MGTS fetches the exchange's daily margin transaction report (MI_MARGN).
type MGTS struct {
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

func NewMGTS(client *http.Client, logger *slog.Logger) *MGTS {
	return &MGTS{client: client, logger: logger, baseURL: twseBaseURL}
}

type mgtsResponse struct {
	Stat   string      `json:"stat"`
	Tables []twseTable `json:"tables"`
}

// mgtsDetailTable is the per-security table inside the MI_MARGN
// response; table 0 is the market-wide summary.
const mgtsDetailTable = 1

// Fetch downloads and normalizes one trading day of margin balances.
// The per-security table's headers repeat between the margin and short
// sections, so columns are taken positionally.
func (f *MGTS) Fetch(ctx context.Context, date string) (*entity.Table, error) {
	url := fmt.Sprintf("%s/rwd/zh/marginTrading/MI_MARGN?date=%s&selectType=ALL&response=json", f.baseURL, compactDate(date))

	var resp mgtsResponse
	if err := getJSON(ctx, f.client, url, &resp); err != nil {
		return nil, err
	}
	if resp.Stat != "OK" {
		f.logger.Info("MGTS reports no data", slog.String("date", date), slog.String("stat", resp.Stat))
		return emptyTable(MGTSColumns), nil
	}
	if len(resp.Tables) <= mgtsDetailTable {
		return nil, fmt.Errorf("%w: MI_MARGN has %d tables", entity.ErrUpstreamFormat, len(resp.Tables))
	}

	// MGTSColumns minus the synthetic Date column mirrors the upstream
	// column order.
	wantCells := len(MGTSColumns) - 1

	table := entity.NewTable(MGTSColumns...)
	for _, cells := range resp.Tables[mgtsDetailTable].Data {
		if len(cells) < wantCells {
			return nil, fmt.Errorf("%w: row with %d cells, want %d", entity.ErrUpstreamFormat, len(cells), wantCells)
		}
		row := map[string]any{
			"Date":         date,
			"SecurityCode": cellText(cells[0]),
			"StockName":    cellText(cells[1]),
			"Note":         cellText(cells[wantCells-1]),
		}
		for i, name := range MGTSColumns[3 : len(MGTSColumns)-1] {
			n, err := intCell(name, cells[i+2])
			if err != nil {
				return nil, err
			}
			row[name] = n
		}
		table.Append(row)
	}
	return table, nil
}
