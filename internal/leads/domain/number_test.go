package domain

import (
	"testing"
	"time"
)

var sept2024 = time.Date(2024, time.September, 15, 12, 0, 0, 0, time.UTC)

func TestMonthYear(t *testing.T) {
	cases := []struct {
		in   time.Time
		want string
	}{
		{sept2024, "0924"},
		{time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), "0125"},
		{time.Date(2023, time.December, 31, 23, 59, 0, 0, time.UTC), "1223"},
	}

	for _, tc := range cases {
		if got := MonthYear(tc.in); got != tc.want {
			t.Errorf("MonthYear(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNextNumberMonotonic(t *testing.T) {
	got := NextNumber(LeadTypeConstruction, []string{"001-0924", "002-0924"}, sept2024)
	if got != "003-0924" {
		t.Fatalf("NextNumber = %q, want 003-0924", got)
	}
}

func TestNextNumberEmptyStartsAtOne(t *testing.T) {
	cases := []struct {
		t    LeadType
		want string
	}{
		{LeadTypeConstruction, "001-0924"},
		{LeadTypeRoofing, "001R-0924"},
		{LeadTypePlumbing, "001P-0924"},
	}

	for _, tc := range cases {
		if got := NextNumber(tc.t, nil, sept2024); got != tc.want {
			t.Errorf("NextNumber(%s, empty) = %q, want %q", tc.t, got, tc.want)
		}
	}
}

func TestNextNumberTypeIsolation(t *testing.T) {
	// CONSTRUCTION numbers in the set must not advance ROOFING's sequence.
	got := NextNumber(LeadTypeRoofing, []string{"001-0924", "002-0924"}, sept2024)
	if got != "001R-0924" {
		t.Fatalf("NextNumber(ROOFING) = %q, want 001R-0924", got)
	}
}

func TestNextNumberIgnoresMalformedEntries(t *testing.T) {
	existing := []string{"005-0924", "garbage", "01-0924", "0999-0924", ""}
	got := NextNumber(LeadTypeConstruction, existing, sept2024)
	if got != "006-0924" {
		t.Fatalf("NextNumber = %q, want 006-0924", got)
	}
}

func TestNextNumberClassifiesBack(t *testing.T) {
	for _, lt := range Types {
		number := NextNumber(lt, []string{"010-0924", "010R-0924", "010P-0924"}, sept2024)
		if got := Classify(number); got != lt {
			t.Errorf("Classify(NextNumber(%s)) = %q, want %q", lt, got, lt)
		}
	}
}

func TestSequenceFor(t *testing.T) {
	cases := []struct {
		t      LeadType
		number string
		want   int
	}{
		{LeadTypeConstruction, "005-0924", 5},
		{LeadTypeConstruction, "005R-0924", -1},
		{LeadTypeRoofing, "012R-1024", 12},
		{LeadTypeRoofing, "012P-1024", -1},
		{LeadTypePlumbing, "099P-0125", 99},
		{LeadTypePlumbing, "099-0125", -1},
		{LeadTypeConstruction, "05-0924", -1},
		{LeadTypeConstruction, "005-924", -1},
		{LeadTypeUnknown, "005-0924", -1},
	}

	for _, tc := range cases {
		if got := SequenceFor(tc.t, tc.number); got != tc.want {
			t.Errorf("SequenceFor(%s, %q) = %d, want %d", tc.t, tc.number, got, tc.want)
		}
	}
}

func TestNumericPrefix(t *testing.T) {
	cases := []struct {
		number string
		want   string
	}{
		{"005-0924", "005"},
		{"005R-1024", "005"},
		{"123P-0125", "123"},
		{"ABC-XYZ", ""},
		{"05-0924", ""},
		{"", ""},
	}

	for _, tc := range cases {
		if got := NumericPrefix(tc.number); got != tc.want {
			t.Errorf("NumericPrefix(%q) = %q, want %q", tc.number, got, tc.want)
		}
	}
}
