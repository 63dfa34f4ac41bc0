package service

import (
	"time"

	"github.com/yourname/moodtracker/internal"
)

// DaysInMonth returns the length of a Gregorian calendar month,
// including the leap-year rule for February.
func DaysInMonth(year, month int) (int, error) {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31, nil
	case 4, 6, 9, 11:
		return 30, nil
	case 2:
		if (year%4 == 0 && year%100 != 0) || year%400 == 0 {
			return 29, nil
		}
		return 28, nil
	}
	return 0, internal.NewValidationError("invalid month: %d", month)
}

// ResolvePeriod validates the six date components and returns the
// inclusive period they span. It only validates; the caller classifies
// the period's granularity via Period.Granularity.
func ResolvePeriod(startYear, startMonth, startDay, endYear, endMonth, endDay int) (internal.Period, error) {
	startMax, err := DaysInMonth(startYear, startMonth)
	if err != nil {
		return internal.Period{}, err
	}
	endMax, err := DaysInMonth(endYear, endMonth)
	if err != nil {
		return internal.Period{}, err
	}

	if startDay < 1 || startDay > startMax {
		return internal.Period{}, internal.NewValidationError(
			"start day %d out of range for %04d-%02d", startDay, startYear, startMonth)
	}
	if endDay < 1 || endDay > endMax {
		return internal.Period{}, internal.NewValidationError(
			"end day %d out of range for %04d-%02d", endDay, endYear, endMonth)
	}

	start := time.Date(startYear, time.Month(startMonth), startDay, 0, 0, 0, 0, time.UTC)
	end := time.Date(endYear, time.Month(endMonth), endDay, 0, 0, 0, 0, time.UTC)
	if start.After(end) {
		return internal.Period{}, internal.NewValidationError("start date must not be after end date")
	}

	return internal.Period{Start: start, End: end}, nil
}
