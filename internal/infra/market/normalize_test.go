package market

import (
	"encoding/json"
	"testing"
)

func TestIntCell(t *testing.T) {
	tests := []struct {
		in      any
		want    int64
		wantErr bool
	}{
		{"1,234,567", 1234567, false},
		{"", 0, false},
		{"--", 0, false},
		{json.Number("42"), 42, false},
		{"12.0", 12, false},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := intCell("col", tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("intCell(%v) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("intCell(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestNullFloatCell(t *testing.T) {
	if v, err := nullFloatCell("col", "----", "----"); err != nil || v != nil {
		t.Errorf("nullFloatCell(----) = %v, %v, want nil", v, err)
	}
	if v, err := nullFloatCell("col", "1,234.5"); err != nil || v != 1234.5 {
		t.Errorf("nullFloatCell(1,234.5) = %v, %v, want 1234.5", v, err)
	}
	if v, err := nullFloatCell("col", "除息", "---", "除權", "除息"); err != nil || v != nil {
		t.Errorf("nullFloatCell(除息) = %v, %v, want nil", v, err)
	}
}

func TestPercentCell(t *testing.T) {
	if v, err := percentCell("col", "12.5%"); err != nil || v != 0.125 {
		t.Errorf("percentCell(12.5%%) = %v, %v, want 0.125", v, err)
	}
	if v, err := percentCell("col", "-"); err != nil || v != nil {
		t.Errorf("percentCell(-) = %v, %v, want nil", v, err)
	}
}

func TestFieldIndex(t *testing.T) {
	fields := []string{"代號", "名稱", "收盤 ", "最後買量<br>(張數)"}

	if i, err := fieldIndex(fields, "收盤"); err != nil || i != 2 {
		t.Errorf("fieldIndex(收盤) = %d, %v, want 2", i, err)
	}
	if i, err := fieldIndex(fields, "最後買量<br>(千股)", "最後買量<br>(張數)"); err != nil || i != 3 {
		t.Errorf("fieldIndex(最後買量 aliases) = %d, %v, want 3", i, err)
	}
	if _, err := fieldIndex(fields, "不存在"); err == nil {
		t.Error("fieldIndex(不存在) error = nil, want error")
	}
}

func TestDirSign(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"<p style= color:red>+</p>", 1},
		{"<p style= color:green>-</p>", -1},
		{"<p> </p>", 0},
		{"<p>X</p>", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := dirSign(tt.in); got != tt.want {
			t.Errorf("dirSign(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
