package chat

import "time"

// SameDay reports whether a and b fall on the same calendar day in b's
// location.
func SameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// NeedsSeparator reports whether a date separator belongs before curr,
// given the previous rendered message's timestamp. The zero prev (first
// message of the list) always takes one.
func NeedsSeparator(prev, curr time.Time) bool {
	if prev.IsZero() {
		return true
	}
	return !SameDay(prev, curr)
}

// DayLabel renders the separator text for t relative to now:
// "Today", "Yesterday", or the date.
func DayLabel(t, now time.Time) string {
	t = t.In(now.Location())
	switch {
	case SameDay(t, now):
		return "Today"
	case SameDay(t, now.AddDate(0, 0, -1)):
		return "Yesterday"
	default:
		return t.Format("January 2, 2006")
	}
}
