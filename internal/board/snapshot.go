package board

import (
	"time"

	"github.com/otavio/driftboard/internal/task"
)

// Column is a render-ready copy of one bucket.
type Column struct {
	Key   BucketKey
	Title string
	Date  string // empty for non-day buckets
	Tasks []*task.Task
}

// Snapshot deep-copies the visible buckets in display order: braindump, the
// date columns, then backlog. Call it from whatever goroutine owns the
// store; the result can be handed to a renderer without further locking.
func (s *Store) Snapshot(today time.Time) []Column {
	cols := []Column{{Key: BucketBraindump, Title: "Braindump"}}
	for _, d := range s.window.Dates() {
		cols = append(cols, Column{
			Key:   DayBucket(d),
			Title: ColumnTitle(d, today),
			Date:  d,
		})
	}
	cols = append(cols, Column{Key: BucketBacklog, Title: "Backlog"})

	for i := range cols {
		for _, t := range s.buckets[cols[i].Key] {
			cols[i].Tasks = append(cols[i].Tasks, t.Clone())
		}
	}
	return cols
}
