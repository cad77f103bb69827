package dataprocessing

import (
	"strconv"
	"strings"
	"time"

	apperrors "genderviz/internal/errors"
)

// ParseYear converts a four digit year into January 1st 00:00 UTC of that year.
// Surrounding whitespace is ignored; anything else that is not exactly four ASCII
// digits is a PARSING error.
func ParseYear(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	if len(v) != 4 {
		return time.Time{}, apperrors.NewParsingError("year must have four digits", nil).WithContext("value", s)
	}
	for i := 0; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return time.Time{}, apperrors.NewParsingError("year must have four digits", nil).WithContext("value", s)
		}
	}

	year, err := strconv.Atoi(v)
	if err != nil {
		return time.Time{}, apperrors.NewParsingError("invalid year", err).WithContext("value", s)
	}
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), nil
}
