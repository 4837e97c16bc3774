package board

import "time"

// DateFormat is the wire form of column dates.
const DateFormat = "2006-01-02"

// Default window shape: yesterday through two days out, with a week of
// backward history available.
const (
	initialBack    = 1
	initialForward = 2
	minLookback    = 7
)

// Window is the gap-free range of date columns between First and Last,
// bounded below by Min. It only ever grows.
type Window struct {
	first time.Time
	last  time.Time
	min   time.Time
}

// NewWindow builds the initial window around the given reference day.
func NewWindow(today time.Time) *Window {
	day := truncateDay(today)
	return &Window{
		first: day.AddDate(0, 0, -initialBack),
		last:  day.AddDate(0, 0, initialForward),
		min:   day.AddDate(0, 0, -minLookback),
	}
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// First returns the earliest visible date.
func (w *Window) First() string { return w.first.Format(DateFormat) }

// Last returns the latest visible date.
func (w *Window) Last() string { return w.last.Format(DateFormat) }

// Min returns the earliest date the window may ever reach.
func (w *Window) Min() string { return w.min.Format(DateFormat) }

// Dates lists every date in [First, Last] in order.
func (w *Window) Dates() []string {
	var dates []string
	for d := w.first; !d.After(w.last); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(DateFormat))
	}
	return dates
}

// Contains reports whether the date falls inside the window.
func (w *Window) Contains(date string) bool {
	d, err := time.ParseInLocation(DateFormat, date, w.first.Location())
	if err != nil {
		return false
	}
	return !d.Before(w.first) && !d.After(w.last)
}

// ExtendForward advances the last date by n days and returns the added
// dates in order.
func (w *Window) ExtendForward(n int) []string {
	var added []string
	for i := 0; i < n; i++ {
		w.last = w.last.AddDate(0, 0, 1)
		added = append(added, w.last.Format(DateFormat))
	}
	return added
}

// ExtendBackward retreats the first date by up to n days, stopping at the
// minimum date. The added dates are returned oldest-first; the slice is
// empty when the window is already at its bound.
func (w *Window) ExtendBackward(n int) []string {
	var added []string
	for i := 0; i < n; i++ {
		next := w.first.AddDate(0, 0, -1)
		if next.Before(w.min) {
			break
		}
		w.first = next
		added = append([]string{next.Format(DateFormat)}, added...)
	}
	return added
}
