package service

import (
	"strings"
	"time"

	"github.com/glebk/whoshere-bot/internal/domain"
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ResolvePeriod turns a day token into the date it designates relative to now.
// A weekday name always points to its next occurrence strictly after today.
func ResolvePeriod(token string, now time.Time) (time.Time, bool) {
	today := domain.DateOf(now)

	switch token = strings.ToLower(token); token {
	case "today":
		return today, true
	case "tomorrow":
		return today.AddDate(0, 0, 1), true
	}

	target, ok := weekdays[token]
	if !ok {
		return time.Time{}, false
	}

	offset := (int(target) - int(today.Weekday()) + 7) % 7
	if offset <= 0 {
		offset += 7
	}
	return today.AddDate(0, 0, offset), true
}

// daysFrom returns how many calendar days separate now's date from period
func daysFrom(period, now time.Time) int {
	a := domain.DateOf(now)
	b := domain.DateOf(period)
	return int(b.Sub(a).Hours() / 24)
}

// PeriodPhrase renders a period for use inside a sentence: "today", "tomorrow" or
// "on Thursday, October 22".
func PeriodPhrase(period, now time.Time) string {
	switch daysFrom(period, now) {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	}
	return "on " + period.Format("Monday, January 2")
}

// PeriodTitle renders a period as a heading: "Today", "Tomorrow" or "Thursday, October 22".
func PeriodTitle(period, now time.Time) string {
	switch daysFrom(period, now) {
	case 0:
		return "Today"
	case 1:
		return "Tomorrow"
	}
	return period.Format("Monday, January 2")
}
