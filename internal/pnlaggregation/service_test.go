package pnlaggregation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestRoundDisplayRoundsToTwoPlaces(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"-2269.5", "-2269.50"},
		{"0", "0.00"},
		{"12.345", "12.35"},
		{"12.344", "12.34"},
	}

	for _, c := range cases {
		d, err := decimal.NewFromString(c.in)
		if err != nil {
			t.Fatalf("bad fixture %q: %v", c.in, err)
		}
		got := roundDisplay(d)
		if got != c.want {
			t.Errorf("roundDisplay(%s) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestFormatDisplayDropsSecondsAndZone(t *testing.T) {
	in := time.Date(2026, 8, 6, 10, 5, 30, 0, time.UTC)
	if got := formatDisplay(in); got != "2026-08-06 10:05" {
		t.Errorf("formatDisplay(%v) = %s, want %s", in, got, "2026-08-06 10:05")
	}
}
