package redact

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestMask(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{"AB-123", "AB****"},
		{"AB", "***"},
		{"ABC", "***"},
		{"ABCD", "AB**"},
		{"ABCDEFGHIJKL", "AB******"}, // masked suffix capped at 6
		{12345, "***"},
		{nil, "***"},
	}
	for _, tc := range cases {
		if got := Mask(tc.in); got != tc.want {
			t.Fatalf("Mask(%v)=%v want=%v", tc.in, got, tc.want)
		}
	}
}

func TestPseudonymize(t *testing.T) {
	orig := randomInt
	randomInt = func(n int) int {
		if n != 10000 {
			t.Fatalf("n=%d", n)
		}
		return 42
	}
	defer func() { randomInt = orig }()

	if got := Pseudonymize("anything", nil); got != "pseu42" {
		t.Fatalf("got=%q", got)
	}
	got := Pseudonymize("anything", map[string]any{"prefix": "veh-", "suffix": "-x"})
	if got != "veh-42-x" {
		t.Fatalf("got=%q", got)
	}
}

func TestPseudonymize_RandomRange(t *testing.T) {
	for i := 0; i < 50; i++ {
		got := Pseudonymize("v", nil)
		n := strings.TrimPrefix(got, "pseu")
		if len(n) == 0 || len(n) > 4 {
			t.Fatalf("got=%q", got)
		}
	}
}

func TestGeneralize(t *testing.T) {
	roundTo1000 := map[string]any{"roundTo": float64(1000)}
	cases := []struct {
		name   string
		value  any
		params map[string]any
		want   any
	}{
		{"spec example", 57432, roundTo1000, "57000+"},
		{"json number", json.Number("57432"), roundTo1000, "57000+"},
		{"float payload", float64(57432), roundTo1000, "57000+"},
		{"default roundTo", 57432, nil, "57000+"},
		{"custom roundTo", 57432, map[string]any{"roundTo": 100}, "57400+"},
		{"string roundTo", 57432, map[string]any{"roundTo": "10000"}, "50000+"},
		{"malformed roundTo falls back", 57432, map[string]any{"roundTo": "lots"}, "57000+"},
		{"zero roundTo falls back", 57432, map[string]any{"roundTo": 0}, "57000+"},
		{"non-numeric masks", "57432", roundTo1000, "***"},
		{"nil masks", nil, roundTo1000, "***"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Generalize(tc.value, tc.params); got != tc.want {
				t.Fatalf("got=%v want=%v", got, tc.want)
			}
		})
	}
}

func TestSliceDigits(t *testing.T) {
	cases := []struct {
		name   string
		value  string
		ranges []DigitRange
		want   string
	}{
		{"reveal middle", "AB-123", []DigitRange{{3, 4}}, "**-1**"},
		{"reveal prefix", "AB-123", []DigitRange{{1, 2}}, "AB****"},
		{"clamped past end", "AB-123", []DigitRange{{5, 99}}, "****23"},
		{"full coverage", "AB-123", []DigitRange{{1, 6}}, "AB-123"},
		{"no ranges passes through", "AB-123", nil, "AB-123"},
		{"empty value", "", []DigitRange{{1, 2}}, ""},
		{"range before start", "AB", []DigitRange{{0, 1}}, "A*"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SliceDigits(tc.value, tc.ranges); got != tc.want {
				t.Fatalf("got=%q want=%q", got, tc.want)
			}
		})
	}
}

func TestSummary_Track(t *testing.T) {
	s := NewSummary()
	s.Track("vehicle.mileage", "generalize", map[string]any{"always": true})
	s.Track("vehicle.mileage", "generalize", map[string]any{"always": true})
	s.Track("vehicle.brand", "remove", nil)

	if len(s) != 2 {
		t.Fatalf("len=%d", len(s))
	}
	u := s["vehicle.mileage::generalize"]
	if u == nil || u.Count != 2 || u.Field != "vehicle.mileage" || u.Action != "generalize" {
		t.Fatalf("usage=%+v", u)
	}

	// A nil summary is a valid sink.
	var nilSummary Summary
	nilSummary.Track("a", "mask", nil)
}
