package crawl_test

import (
	"testing"
	"time"

	"twmarket-crawler/internal/crawl"
	"twmarket-crawler/internal/domain/entity"
)

func TestParseDate(t *testing.T) {
	got, err := crawl.ParseDate("2024-10-15")
	if err != nil {
		t.Fatalf("ParseDate() error = %v", err)
	}
	if got.Year() != 2024 || got.Month() != time.October || got.Day() != 15 {
		t.Errorf("ParseDate() = %v", got)
	}
	if _, offset := got.Zone(); offset != 8*60*60 {
		t.Errorf("zone offset = %d, want +08:00", offset)
	}

	if _, err := crawl.ParseDate("15/10/2024"); err == nil {
		t.Error("ParseDate() accepted malformed date")
	}
}

func TestResolveCutoff_DateMode(t *testing.T) {
	target, _ := crawl.ParseDate("2024-10-15")
	c := crawl.ResolveCutoff(target, 0, at(t, "2024-10-20 09:00:00"))

	if c.Mode != crawl.ModeExactDate {
		t.Fatalf("Mode = %v, want ModeExactDate", c.Mode)
	}

	cases := []struct {
		name string
		cand entity.Candidate
		want crawl.Verdict
	}{
		{"same day", timedItem("a", at(t, "2024-10-15 23:59:59")), crawl.VerdictMatch},
		{"earlier day", timedItem("b", at(t, "2024-10-14 00:00:01")), crawl.VerdictOlder},
		{"later day", timedItem("c", at(t, "2024-10-16 00:00:00")), crawl.VerdictSkip},
		{"undated", entity.Candidate{URL: "d"}, crawl.VerdictUndated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.Evaluate(tc.cand); got != tc.want {
				t.Errorf("Evaluate() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestResolveCutoff_RollingWindow(t *testing.T) {
	// hours=2 at crawl instant T keeps only items within the last 2 hours.
	now := at(t, "2024-10-15 12:00:00")
	c := crawl.ResolveCutoff(now, 2, now)

	if c.Mode != crawl.ModeRollingWindow {
		t.Fatalf("Mode = %v, want ModeRollingWindow", c.Mode)
	}

	verdicts := map[string]crawl.Verdict{
		"T-3h": c.Evaluate(timedItem("a", now.Add(-3*time.Hour))),
		"T-1h": c.Evaluate(timedItem("b", now.Add(-time.Hour))),
		"T+1h": c.Evaluate(timedItem("c", now.Add(time.Hour))),
	}

	if verdicts["T-3h"] != crawl.VerdictOlder {
		t.Errorf("T-3h verdict = %v, want VerdictOlder", verdicts["T-3h"])
	}
	if verdicts["T-1h"] != crawl.VerdictMatch {
		t.Errorf("T-1h verdict = %v, want VerdictMatch", verdicts["T-1h"])
	}
	if verdicts["T+1h"] != crawl.VerdictMatch {
		t.Errorf("T+1h verdict = %v, want VerdictMatch", verdicts["T+1h"])
	}
}

func TestRollingWindow_MixedDayScenario(t *testing.T) {
	// hours=4 at 2024-10-15T12:00+08:00: items at 08:30 and 10:15 stay,
	// the previous evening's item does not.
	now := at(t, "2024-10-15 12:00:00")
	c := crawl.ResolveCutoff(now, 4, now)

	kept := 0
	for _, ts := range []time.Time{
		at(t, "2024-10-15 08:30:00"),
		at(t, "2024-10-15 10:15:00"),
		at(t, "2024-10-14 18:00:00"),
	} {
		if c.Evaluate(timedItem(ts.String(), ts)) == crawl.VerdictMatch {
			kept++
		}
	}
	if kept != 2 {
		t.Errorf("kept = %d items, want 2", kept)
	}
}

func TestCutoff_Keep(t *testing.T) {
	now := at(t, "2024-10-15 12:00:00")

	window := crawl.ResolveCutoff(now, 2, now)
	if window.Keep(at(t, "2024-10-15 09:00:00")) {
		t.Error("Keep() = true for timestamp before window start")
	}
	if !window.Keep(at(t, "2024-10-15 11:30:00")) {
		t.Error("Keep() = false for timestamp inside window")
	}

	target, _ := crawl.ParseDate("2024-10-15")
	exact := crawl.ResolveCutoff(target, 0, now)
	if !exact.Keep(at(t, "2024-10-15 00:00:01")) {
		t.Error("Keep() = false for timestamp on target date")
	}
	if exact.Keep(at(t, "2024-10-16 00:00:01")) {
		t.Error("Keep() = true for timestamp on a different date")
	}
}

func TestResolveCutoff_StableAcrossScan(t *testing.T) {
	// The boundary is anchored at the resolve-time instant, not re-read
	// while the scan runs.
	now := at(t, "2024-10-15 12:00:00")
	c := crawl.ResolveCutoff(now, 1, now)

	want := at(t, "2024-10-15 11:00:00")
	if !c.Instant.Equal(want) {
		t.Errorf("Instant = %v, want %v", c.Instant, want)
	}
}
