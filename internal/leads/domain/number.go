package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Strict shapes used for sequence extraction. Unlike the classification
// patterns, these require exactly three sequence digits and a four-digit
// MMYY suffix; anything else is ignored when computing the next sequence.
var (
	roofingStrict      = regexp.MustCompile(`^\d{3}R-\d{4}$`)
	plumbingStrict     = regexp.MustCompile(`^\d{3}P-\d{4}$`)
	constructionStrict = regexp.MustCompile(`^\d{3}-\d{4}$`)
)

// MonthYear renders the MMYY suffix for the given time: two-digit month
// plus the last two digits of the year.
func MonthYear(now time.Time) string {
	return fmt.Sprintf("%02d%02d", int(now.Month()), now.Year()%100)
}

// SequenceFor extracts the 3-digit sequence prefix of a lead number if it
// matches the strict shape for the given type. Returns -1 for numbers of
// another type or of a non-canonical shape.
func SequenceFor(t LeadType, leadNumber string) int {
	var ok bool
	switch t {
	case LeadTypeRoofing:
		ok = roofingStrict.MatchString(leadNumber)
	case LeadTypePlumbing:
		ok = plumbingStrict.MatchString(leadNumber)
	case LeadTypeConstruction:
		ok = constructionStrict.MatchString(leadNumber)
	}
	if !ok {
		return -1
	}

	seq, err := strconv.Atoi(leadNumber[:3])
	if err != nil {
		return -1
	}
	return seq
}

// NextNumber computes the next lead number for the given type: the running
// max of the 3-digit prefixes over all existing numbers of that type, plus
// one, rendered with the type marker and the MMYY of now.
//
// There is no reservation: two concurrent callers can compute the same
// number. The caller must re-validate before committing (the leads service
// retries on the storage uniqueness constraint).
func NextNumber(t LeadType, existing []string, now time.Time) string {
	max := 0
	for _, number := range existing {
		if seq := SequenceFor(t, number); seq > max {
			max = seq
		}
	}

	base := fmt.Sprintf("%03d", max+1)
	mmyy := MonthYear(now)

	switch t {
	case LeadTypeRoofing:
		return base + "R-" + mmyy
	case LeadTypePlumbing:
		return base + "P-" + mmyy
	default:
		return base + "-" + mmyy
	}
}

// NumericPrefix returns the 3-digit sequence prefix of a canonically shaped
// lead number, or "" when the number matches none of the three shapes.
// The prefix is a single human-facing namespace shared across all types.
func NumericPrefix(leadNumber string) string {
	if roofingStrict.MatchString(leadNumber) ||
		plumbingStrict.MatchString(leadNumber) ||
		constructionStrict.MatchString(leadNumber) {
		return leadNumber[:3]
	}
	return ""
}
