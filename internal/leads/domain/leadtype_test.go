package domain

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		number string
		want   LeadType
	}{
		{"053-1025", LeadTypeConstruction},
		{"053R-1025", LeadTypeRoofing},
		{"053P-1025", LeadTypePlumbing},
		{"  001-0924  ", LeadTypeConstruction},
		{"1-1", LeadTypeConstruction},
		{"12R-1025", LeadTypeRoofing},
		{"", LeadTypeUnknown},
		{"   ", LeadTypeUnknown},
		{"ABC-XYZ", LeadTypeUnknown},
		{"053X-1025", LeadTypeUnknown},
		{"053-", LeadTypeUnknown},
		{"-1025", LeadTypeUnknown},
		{"053R1025", LeadTypeUnknown},
	}

	for _, tc := range cases {
		if got := Classify(tc.number); got != tc.want {
			t.Errorf("Classify(%q) = %q, want %q", tc.number, got, tc.want)
		}
	}
}

func TestClassifyPartition(t *testing.T) {
	// Every classified value is exactly one of the four possible outcomes.
	inputs := []string{"001-0924", "001R-0924", "001P-0924", "junk", ""}
	valid := map[LeadType]bool{
		LeadTypeConstruction: true,
		LeadTypeRoofing:      true,
		LeadTypePlumbing:     true,
		LeadTypeUnknown:      true,
	}
	for _, in := range inputs {
		if !valid[Classify(in)] {
			t.Errorf("Classify(%q) returned out-of-domain value %q", in, Classify(in))
		}
	}
}

func TestParseLeadType(t *testing.T) {
	cases := []struct {
		in   string
		want LeadType
	}{
		{"CONSTRUCTION", LeadTypeConstruction},
		{"construction", LeadTypeConstruction},
		{" Roofing ", LeadTypeRoofing},
		{"PLUMBING", LeadTypePlumbing},
		{"", LeadTypeUnknown},
		{"landscaping", LeadTypeUnknown},
	}

	for _, tc := range cases {
		if got := ParseLeadType(tc.in); got != tc.want {
			t.Errorf("ParseLeadType(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

type numbered string

func (n numbered) Number() string { return string(n) }

func TestFilterByType(t *testing.T) {
	items := []numbered{"001-0924", "001R-0924", "002-0924", "001P-0924", "garbage"}

	construction := FilterByType(items, LeadTypeConstruction)
	if len(construction) != 2 {
		t.Fatalf("expected 2 construction leads, got %d", len(construction))
	}

	roofing := FilterByType(items, LeadTypeRoofing)
	if len(roofing) != 1 || roofing[0] != "001R-0924" {
		t.Fatalf("expected [001R-0924], got %v", roofing)
	}

	unknown := FilterByType(items, LeadTypeUnknown)
	if len(unknown) != 1 || unknown[0] != "garbage" {
		t.Fatalf("expected [garbage], got %v", unknown)
	}
}
