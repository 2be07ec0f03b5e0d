package utils

import (
	"time"
)

// IndiaLocation is the timezone used for expiry calendars.
var IndiaLocation *time.Location

func init() {
	var err error
	IndiaLocation, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fallback to UTC+5:30
		IndiaLocation = time.FixedZone("IST", 5*60*60+30*60)
	}
}

// ExpiryLabelLayout is the display format of a futures expiry.
const ExpiryLabelLayout = "02 Jan 2006"

// MonthlyExpiry returns the last Thursday of the month containing t, at the
// 15:30 IST close.
func MonthlyExpiry(t time.Time) time.Time {
	t = t.In(IndiaLocation)
	// Last day of the month
	lastDay := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, IndiaLocation).AddDate(0, 0, -1)

	for lastDay.Weekday() != time.Thursday {
		lastDay = lastDay.AddDate(0, 0, -1)
	}

	return time.Date(lastDay.Year(), lastDay.Month(), lastDay.Day(), 15, 30, 0, 0, IndiaLocation)
}

// MonthlyExpiries returns the next n monthly expiries at or after now, ordered
// near to far. Once the current month's expiry has passed the series starts
// with next month.
func MonthlyExpiries(now time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	now = now.In(IndiaLocation)
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, IndiaLocation)

	out := make([]time.Time, 0, n)
	for len(out) < n {
		exp := MonthlyExpiry(month)
		if !exp.Before(now) {
			out = append(out, exp)
		}
		month = month.AddDate(0, 1, 0)
	}
	return out
}

// ExpiryLabels formats the next n monthly expiries for display.
func ExpiryLabels(now time.Time, n int) []string {
	expiries := MonthlyExpiries(now, n)
	labels := make([]string, len(expiries))
	for i, e := range expiries {
		labels[i] = e.Format(ExpiryLabelLayout)
	}
	return labels
}
