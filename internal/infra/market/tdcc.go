package market

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"twmarket-crawler/internal/domain/entity"
)

const tdccBaseURL = "https://openapi.tdcc.com.tw"

// TDCCColumns is the fixed output schema for the weekly shareholder
// distribution table.
var TDCCColumns = []string{
	"Date",
	"SecurityCode",
	"HoldingLevel",
	"Holders",
	"Shares",
	"Percentage",
}

// TDCC fetches the depository's weekly holder-distribution open data.
// The endpoint only serves the latest period; the effective date comes
// from the payload itself, not from the request.
type TDCC struct {
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

func NewTDCC(client *http.Client, logger *slog.Logger) *TDCC {
	return &TDCC{client: client, logger: logger, baseURL: tdccBaseURL}
}

type tdccRecord struct {
	DataDate     string `json:"資料日期"`
	SecurityCode string `json:"證券代號"`
	HoldingLevel string `json:"持股分級"`
	Holders      string `json:"人數"`
	Shares       string `json:"股數"`
	Percentage   string `json:"占集保庫存數比例%"`
}

// Fetch downloads the latest holder-distribution period. The date
// argument is ignored; it exists to satisfy the shared fetcher shape.
func (f *TDCC) Fetch(ctx context.Context, _ string) (*entity.Table, error) {
	var records []tdccRecord
	if err := getJSON(ctx, f.client, f.baseURL+"/v1/opendata/1-5", &records); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		f.logger.Info("TDCC returned no records")
		return emptyTable(TDCCColumns), nil
	}

	dataDate, err := tdccDate(records[0].DataDate)
	if err != nil {
		return nil, err
	}

	table := entity.NewTable(TDCCColumns...)
	for _, rec := range records {
		row := map[string]any{
			"Date":         dataDate,
			"SecurityCode": strings.TrimSpace(rec.SecurityCode),
		}
		if row["HoldingLevel"], err = intCell("HoldingLevel", rec.HoldingLevel); err != nil {
			return nil, err
		}
		if row["Holders"], err = intCell("Holders", rec.Holders); err != nil {
			return nil, err
		}
		if row["Shares"], err = intCell("Shares", rec.Shares); err != nil {
			return nil, err
		}
		if row["Percentage"], err = floatCell("Percentage", rec.Percentage); err != nil {
			return nil, err
		}
		table.Append(row)
	}
	return table, nil
}

// tdccDate converts the payload's YYYYMMDD data date into YYYY-MM-DD.
func tdccDate(raw string) (string, error) {
	if len(raw) != 8 {
		return "", fmt.Errorf("%w: data date %q", entity.ErrUpstreamFormat, raw)
	}
	return fmt.Sprintf("%s-%s-%s", raw[:4], raw[4:6], raw[6:8]), nil
}
