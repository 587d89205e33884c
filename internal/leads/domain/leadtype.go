// Package domain holds the pure lead-number logic: type classification,
// sequence generation, and prefix extraction. Nothing in this package
// performs I/O.
package domain

import (
	"regexp"
	"strings"
)

// LeadType identifies the line of business a lead belongs to. It is never
// stored; it is always derived from the shape of the lead number.
type LeadType string

const (
	LeadTypeConstruction LeadType = "CONSTRUCTION"
	LeadTypeRoofing      LeadType = "ROOFING"
	LeadTypePlumbing     LeadType = "PLUMBING"
	// LeadTypeUnknown is returned when a lead number matches none of the
	// canonical shapes (or is empty).
	LeadTypeUnknown LeadType = ""
)

// Types lists every concrete lead type, in classification priority order.
var Types = []LeadType{LeadTypeRoofing, LeadTypePlumbing, LeadTypeConstruction}

var (
	roofingShape      = regexp.MustCompile(`^\d+R-\d+$`)
	plumbingShape     = regexp.MustCompile(`^\d+P-\d+$`)
	constructionShape = regexp.MustCompile(`^\d+-\d+$`)
)

// ParseLeadType maps a textual type name to a LeadType, case-insensitively.
// Unrecognized values map to LeadTypeUnknown.
func ParseLeadType(s string) LeadType {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(LeadTypeConstruction):
		return LeadTypeConstruction
	case string(LeadTypeRoofing):
		return LeadTypeRoofing
	case string(LeadTypePlumbing):
		return LeadTypePlumbing
	default:
		return LeadTypeUnknown
	}
}

// Classify derives the lead type from the lead number's shape:
//
//	053-1025  → CONSTRUCTION
//	053R-1025 → ROOFING
//	053P-1025 → PLUMBING
//
// Empty or unrecognized input returns LeadTypeUnknown. Classify is total
// and pure; it never fails.
func Classify(leadNumber string) LeadType {
	trimmed := strings.TrimSpace(leadNumber)
	if trimmed == "" {
		return LeadTypeUnknown
	}

	if roofingShape.MatchString(trimmed) {
		return LeadTypeRoofing
	}
	if plumbingShape.MatchString(trimmed) {
		return LeadTypePlumbing
	}
	if constructionShape.MatchString(trimmed) {
		return LeadTypeConstruction
	}

	return LeadTypeUnknown
}

// Numbered is implemented by anything carrying a lead number.
type Numbered interface {
	Number() string
}

// FilterByType keeps only the elements whose lead number classifies as the
// given type. Used anywhere a per-type view is needed, since type is not a
// stored column.
func FilterByType[T Numbered](items []T, t LeadType) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if Classify(item.Number()) == t {
			out = append(out, item)
		}
	}
	return out
}
