// Package biztime centralizes time handling. All storage and transport use
// UTC; implicit local timezone is prohibited.
package biztime

import "time"

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// Day is a 24-hour day. Retention arithmetic uses fixed-length days and a
// 30-day month approximation, not calendar months.
const Day = 24 * time.Hour

// MonthsToDuration converts retention months to a duration using the 30-day
// month approximation.
func MonthsToDuration(months int) time.Duration {
	return time.Duration(months) * 30 * Day
}
