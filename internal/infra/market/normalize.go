package market

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"twmarket-crawler/internal/domain/entity"
)

// The exchange feeds format every cell as display text: thousands
// separators in numbers, sentinel strings for missing values, header
// names with stray spaces and embedded <br> fragments. The helpers here
// turn those cells into typed values and map upstream headers onto the
// fixed English schemas.

// cellText flattens a raw JSON cell (string or number) into its text form.
func cellText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func stripCommas(s string) string { return strings.ReplaceAll(s, ",", "") }

// intCell parses an integer cell. Empty and "--" cells count as zero.
func intCell(column string, v any) (int64, error) {
	raw := strings.TrimSpace(stripCommas(cellText(v)))
	if raw == "" || raw == "--" {
		return 0, nil
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w: %q", column, entity.ErrUpstreamFormat, cellText(v))
	}
	return int64(n), nil
}

// floatCell parses a price cell. Empty and "--" cells count as zero.
func floatCell(column string, v any) (float64, error) {
	raw := strings.TrimSpace(stripCommas(cellText(v)))
	if raw == "" || raw == "--" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w: %q", column, entity.ErrUpstreamFormat, cellText(v))
	}
	return f, nil
}

// nullFloatCell parses a float cell where the given sentinels (and the
// empty string) mean "no value" and become JSON null.
func nullFloatCell(column string, v any, nulls ...string) (any, error) {
	raw := strings.TrimSpace(stripCommas(cellText(v)))
	if raw == "" || slices.Contains(nulls, raw) {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("column %s: %w: %q", column, entity.ErrUpstreamFormat, cellText(v))
	}
	return f, nil
}

// percentCell parses a "12.34%" cell into its fraction, 0.1234. A bare
// "-" means no value.
func percentCell(column string, v any) (any, error) {
	raw := strings.TrimSpace(cellText(v))
	if raw == "" || raw == "-" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(raw, "%"), 64)
	if err != nil {
		return nil, fmt.Errorf("column %s: %w: %q", column, entity.ErrUpstreamFormat, cellText(v))
	}
	return f / 100.0, nil
}

// normalizeHeader strips the decoration the exchanges leave in header
// names so variants like "收盤 " and "最後買量<br>(千股)" compare stably.
func normalizeHeader(s string) string {
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	return s
}

// fieldIndex locates a header among the upstream field names, accepting
// any of the known spellings.
func fieldIndex(fields []string, aliases ...string) (int, error) {
	for i, field := range fields {
		norm := normalizeHeader(field)
		for _, alias := range aliases {
			if norm == normalizeHeader(alias) {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: field %q not found", entity.ErrUpstreamFormat, aliases[0])
}

// emptyTable is the market-holiday result: zero rows, full column set.
func emptyTable(columns []string) *entity.Table {
	return entity.NewTable(columns...)
}
