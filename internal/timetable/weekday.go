// Package timetable holds the pure calendar and classification rules the
// substitution engine applies to a school's weekly timetable.
package timetable

import "time"

// Weekday is a day offset from Monday (Monday = 0 ... Sunday = 6).
type Weekday uint8

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// DaysInWeek is the number of weekday positions a mask can address.
const DaysInWeek = 7

var weekdayNames = [DaysInWeek]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// WeekdayOf maps a calendar date to its Monday-based weekday. Only the date
// part in UTC is considered.
func WeekdayOf(date time.Time) Weekday {
	return Weekday((int(date.UTC().Weekday()) + 6) % 7)
}

// IsOperating reports whether the weekday falls inside a school week of
// operatingDays days (5 for Monday-Friday, 7 for the full week).
func IsOperating(day Weekday, operatingDays int) bool {
	return int(day) < operatingDays && day < DaysInWeek
}

func (d Weekday) String() string {
	if d >= DaysInWeek {
		return "invalid"
	}
	return weekdayNames[d]
}
