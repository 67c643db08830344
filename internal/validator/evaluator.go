package validator

import (
	"errors"

	"github.com/olegiv/logvalidator-go/internal/timestamp"
)

// Evaluator defaults.
const (
	DefaultMinRemotePercent = 10.0
	DefaultDaysDelta        = 5
)

// ErrNoProbableDate is returned when no line yielded a date.
var ErrNoProbableDate = errors.New("date dictionary is empty")

// ValidateIPDistribution passes when remote addresses outnumber local ones
// or exceed minRemotePercent of all lines in the file.
func ValidateIPDistribution(s *Summary, minRemotePercent float64) bool {
	if s == nil || s.TotalLines == 0 {
		return false
	}
	if s.IPs.Remote == 0 && s.IPs.Local == 0 {
		return false
	}

	total := float64(s.TotalLines)
	pctRemote := float64(s.IPs.Remote) / total * 100
	pctLocal := float64(s.IPs.Local) / total * 100

	return pctRemote > pctLocal || pctRemote > minRemotePercent
}

// DateFrequencies sums hourly counts per calendar day.
func DateFrequencies(datetimes map[timestamp.Key]int) map[timestamp.Date]int {
	freq := make(map[timestamp.Date]int, len(datetimes))
	for k, count := range datetimes {
		freq[k.Date()] += count
	}
	return freq
}

// ProbableDate returns the day with the highest count. Ties go to the
// latest day.
func ProbableDate(datetimes map[timestamp.Key]int) (timestamp.Date, error) {
	var (
		best      timestamp.Date
		bestCount int
		found     bool
	)

	for day, count := range DateFrequencies(datetimes) {
		if !found || count > bestCount || (count == bestCount && best.Before(day)) {
			best, bestCount, found = day, count, true
		}
	}

	if !found {
		return timestamp.Date{}, ErrNoProbableDate
	}
	return best, nil
}

// ValidateDateConsistency passes when probable lies within daysDelta days
// of the YYYY-MM-DD pathDate. A negative daysDelta uses DefaultDaysDelta.
func ValidateDateConsistency(pathDate string, datetimes map[timestamp.Key]int, probable timestamp.Date, daysDelta int) bool {
	if daysDelta < 0 {
		daysDelta = DefaultDaysDelta
	}
	if pathDate == "" || len(datetimes) == 0 {
		return false
	}

	fileDate, err := timestamp.ParseDate(pathDate)
	if err != nil {
		return false
	}

	if probable.Before(fileDate.AddDays(-daysDelta)) {
		return false
	}
	if fileDate.AddDays(daysDelta).Before(probable) {
		return false
	}
	return true
}
