package contacts

import "time"

// MaxBirthdayWindowDays bounds the upcoming-birthday query window.
const MaxBirthdayWindowDays = 366

// birthdayInWindow reports whether the birthday, projected onto the current
// year and onto the next one, falls within [today, today+days]. Checking
// both candidate years handles windows that cross New Year: a birthday in
// early January is found from late December. Feb 29 birthdays normalize to
// Mar 1 in non-leap years.
func birthdayInWindow(birthday, today time.Time, days int) bool {
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, days)

	for _, year := range []int{start.Year(), start.Year() + 1} {
		candidate := time.Date(year, birthday.Month(), birthday.Day(), 0, 0, 0, 0, time.UTC)
		if !candidate.Before(start) && !candidate.After(end) {
			return true
		}
	}
	return false
}
