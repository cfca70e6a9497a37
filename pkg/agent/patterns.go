package agent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// The extraction rules are deliberately regex-based surface heuristics,
// not general NLP. They are exported as named rules so each can be unit
// tested independently of scan orchestration.

// ExpirationPatterns match date-bearing phrases; the first capture group is
// the date token in M/D/Y or M-D-Y form with a 2- or 4-digit year.
var ExpirationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)expiration date:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`),
	regexp.MustCompile(`(?i)expires:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`),
	regexp.MustCompile(`(?i)end date:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`),
	regexp.MustCompile(`(?i)termination date:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`),
}

// CompanyPattern captures the rest of the line after a "company:" label.
var CompanyPattern = regexp.MustCompile(`(?i)company:?[ \t]*([^\n]+)`)

// AddressPattern captures the rest of the line after an "address:" label.
var AddressPattern = regexp.MustCompile(`(?i)address:?[ \t]*([^\n]+)`)

// ParseContractDate parses an M/D/Y or M-D-Y token. Two-digit years are
// normalized by prefixing "20".
func ParseContractDate(token string) (time.Time, error) {
	sep := "/"
	if strings.Contains(token, "-") {
		sep = "-"
	}

	parts := strings.Split(token, sep)
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("malformed date token %q", token)
	}
	if len(parts[2]) == 2 {
		parts[2] = "20" + parts[2]
	}

	month, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, err
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, err
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, err
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes out-of-range components; reject anything that
	// did not round-trip, like 13/45/2024.
	if date.Year() != year || date.Month() != time.Month(month) || date.Day() != day {
		return time.Time{}, fmt.Errorf("invalid calendar date %q", token)
	}
	return date, nil
}
