package core

import "time"

// businessDayCutoverHour is the hour before which a timestamp still belongs
// to the previous calendar date for reporting ("night shift belongs to
// yesterday").
const businessDayCutoverHour = 6

// BusinessDay returns the reporting date bucket for t: the calendar date,
// except timestamps before 06:00 roll back to the previous date. The result
// is midnight of that date in t's location.
func BusinessDay(t time.Time) time.Time {
	shifted := t.Add(-businessDayCutoverHour * time.Hour)
	return time.Date(shifted.Year(), shifted.Month(), shifted.Day(), 0, 0, 0, 0, t.Location())
}

// BusinessDayWindow returns the half-open timestamp interval [start, end)
// covered by the business day beginning on date: 06:00 that day up to 06:00
// the next.
func BusinessDayWindow(date time.Time) (start, end time.Time) {
	start = time.Date(date.Year(), date.Month(), date.Day(),
		businessDayCutoverHour, 0, 0, 0, date.Location())
	return start, start.Add(24 * time.Hour)
}
