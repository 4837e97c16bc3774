package board

import "time"

// ColumnTitle renders a human title for a date column: Yesterday, Today,
// Tomorrow, or "Mon, Jan 2" for everything else.
func ColumnTitle(date string, today time.Time) string {
	d, err := time.ParseInLocation(DateFormat, date, today.Location())
	if err != nil {
		return date
	}
	switch truncateDay(d).Sub(truncateDay(today)) / (24 * time.Hour) {
	case 0:
		return "Today"
	case -1:
		return "Yesterday"
	case 1:
		return "Tomorrow"
	}
	return d.Format("Mon, Jan 2")
}
