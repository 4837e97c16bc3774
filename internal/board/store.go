// Package board holds the client-side partitioned view of tasks: one bucket
// per date column plus braindump, backlog, archive, and calendar buckets,
// and the sliding date window the columns live in.
package board

import (
	"log"

	"github.com/otavio/driftboard/internal/task"
)

// BucketKey names one bucket. Date columns use DayBucket keys.
type BucketKey string

const (
	BucketBraindump BucketKey = "BRAINDUMP"
	BucketBacklog   BucketKey = "BACKLOG"
	BucketArchive   BucketKey = "ARCHIVED"
	BucketCalendar  BucketKey = "ON_CAL"
)

// DayBucket returns the key of a date column (date is YYYY-MM-DD).
func DayBucket(date string) BucketKey {
	return BucketKey("day:" + date)
}

// Store is the single piece of mutable shared state between the dispatcher
// and the reconciliation engine. It is not safe for concurrent use; the
// session loop serializes all access.
type Store struct {
	log     *log.Logger
	window  *Window
	buckets map[BucketKey][]*task.Task
}

// New creates a store with the initial column window around today.
func New(logger *log.Logger, w *Window) *Store {
	if logger == nil {
		logger = log.Default()
	}
	s := &Store{
		log:     logger,
		window:  w,
		buckets: make(map[BucketKey][]*task.Task),
	}
	s.initBuckets()
	return s
}

func (s *Store) initBuckets() {
	s.buckets[BucketBraindump] = nil
	s.buckets[BucketBacklog] = nil
	s.buckets[BucketArchive] = nil
	s.buckets[BucketCalendar] = nil
	for _, d := range s.window.Dates() {
		s.buckets[DayBucket(d)] = nil
	}
}

// Window returns the column window.
func (s *Store) Window() *Window { return s.window }

// BucketFor derives the owning bucket from a task's placement. ON_BOARD
// tasks and calendar tasks pinned to a date live in that date's column;
// dateless calendar tasks live in the calendar bucket.
func (s *Store) BucketFor(t *task.Task) BucketKey {
	switch t.Status {
	case task.StatusBraindump:
		return BucketBraindump
	case task.StatusBacklog:
		return BucketBacklog
	case task.StatusArchived:
		return BucketArchive
	case task.StatusOnCal:
		if t.ColumnDate == "" {
			return BucketCalendar
		}
		return DayBucket(t.ColumnDate)
	case task.StatusOnBoard:
		return DayBucket(t.ColumnDate)
	}
	return BucketBraindump
}

// Upsert places t in the target bucket at the position implied by its Order
// field (append when out of range), removing any record with the same server
// id from wherever it currently lives first. A source bucket the task left is
// reindexed here, so its order stays dense even when the insert fails.
// Placing a task in a column outside the current window is a logged no-op
// apart from that removal.
func (s *Store) Upsert(key BucketKey, t *task.Task) bool {
	var prev BucketKey
	var hadPrev bool
	if t.ID != 0 {
		if prev, hadPrev = s.BucketOf(t.ID); hadPrev {
			s.Remove(t.ID)
		}
	}
	if t.ID == 0 && t.FrontendID != "" {
		if k, ok := s.bucketOfFrontendID(t.FrontendID); ok {
			prev, hadPrev = k, true
			s.RemoveByFrontendID(t.FrontendID)
		}
	}
	if hadPrev && prev != key {
		defer s.Reindex(prev)
	}

	tasks, ok := s.buckets[key]
	if !ok {
		s.log.Printf("board: no bucket %s for task %d, dropping", key, t.ID)
		return false
	}

	pos := t.Order
	if pos < 0 || pos > len(tasks) {
		pos = len(tasks)
	}
	tasks = append(tasks, nil)
	copy(tasks[pos+1:], tasks[pos:])
	tasks[pos] = t
	s.buckets[key] = tasks
	return true
}

// Remove deletes the task with the given server id from whichever bucket
// holds it. Unknown ids are a no-op, since deletes race with other removal
// paths.
func (s *Store) Remove(id int64) bool {
	if id == 0 {
		return false
	}
	removed := false
	for key, tasks := range s.buckets {
		for i, t := range tasks {
			if t.ID == id {
				s.buckets[key] = append(tasks[:i], tasks[i+1:]...)
				removed = true
				break
			}
		}
	}
	return removed
}

// RemoveByFrontendID purges an optimistic placeholder by its client-assigned
// id. Used before inserting the server's authoritative echo.
func (s *Store) RemoveByFrontendID(fid string) bool {
	if fid == "" {
		return false
	}
	removed := false
	for key, tasks := range s.buckets {
		for i, t := range tasks {
			if t.FrontendID == fid {
				s.buckets[key] = append(tasks[:i], tasks[i+1:]...)
				removed = true
				break
			}
		}
	}
	return removed
}

// Reindex reassigns order 0..n-1 to match the bucket's current sequence.
// Must run after any structural change before the order is announced.
func (s *Store) Reindex(key BucketKey) {
	for i, t := range s.buckets[key] {
		t.Order = i
	}
}

// BucketOf returns the bucket currently holding the task with the given id.
func (s *Store) BucketOf(id int64) (BucketKey, bool) {
	for key, tasks := range s.buckets {
		for _, t := range tasks {
			if t.ID == id {
				return key, true
			}
		}
	}
	return "", false
}

func (s *Store) bucketOfFrontendID(fid string) (BucketKey, bool) {
	for key, tasks := range s.buckets {
		for _, t := range tasks {
			if t.FrontendID == fid {
				return key, true
			}
		}
	}
	return "", false
}

// Get returns the stored record for a server id, or nil.
func (s *Store) Get(id int64) *task.Task {
	for _, tasks := range s.buckets {
		for _, t := range tasks {
			if t.ID == id {
				return t
			}
		}
	}
	return nil
}

// Tasks returns the bucket's sequence. The slice is a copy; the records are
// shared, so callers outside the session loop must treat them as read-only.
func (s *Store) Tasks(key BucketKey) []*task.Task {
	return append([]*task.Task(nil), s.buckets[key]...)
}

// Len is the total number of tasks across all buckets.
func (s *Store) Len() int {
	n := 0
	for _, tasks := range s.buckets {
		n += len(tasks)
	}
	return n
}

// Reset clears every bucket, keeping the window. Used on logout and before
// applying a full list replace.
func (s *Store) Reset() {
	s.buckets = make(map[BucketKey][]*task.Task)
	s.initBuckets()
}

// ReplaceAll wipes the store and repopulates it from a full server list,
// partitioning by status and column date. Board tasks dated outside the
// window are dropped, as the server should only send the requested range.
func (s *Store) ReplaceAll(tasks []*task.Task) {
	s.Reset()
	for _, t := range tasks {
		key := s.BucketFor(t)
		bucket, ok := s.buckets[key]
		if !ok {
			s.log.Printf("board: list task %d dated %s outside window, dropping", t.ID, t.ColumnDate)
			continue
		}
		s.buckets[key] = append(bucket, t)
	}
	for key := range s.buckets {
		s.sortBucket(key)
	}
}

// sortBucket orders a bucket by the tasks' persisted order fields.
// Insertion sort: buckets are short and mostly ordered already.
func (s *Store) sortBucket(key BucketKey) {
	tasks := s.buckets[key]
	for i := 1; i < len(tasks); i++ {
		for j := i; j > 0 && tasks[j-1].Order > tasks[j].Order; j-- {
			tasks[j-1], tasks[j] = tasks[j], tasks[j-1]
		}
	}
}

// ExtendForward appends n date columns past the window's last date and
// returns how many were added.
func (s *Store) ExtendForward(n int) int {
	added := s.window.ExtendForward(n)
	for _, d := range added {
		s.buckets[DayBucket(d)] = nil
	}
	return len(added)
}

// ExtendBackward prepends up to n date columns before the window's first
// date, refusing to cross the window's minimum date. Returns how many were
// added, which may be 0; callers should skip the refetch in that case.
func (s *Store) ExtendBackward(n int) int {
	added := s.window.ExtendBackward(n)
	for _, d := range added {
		s.buckets[DayBucket(d)] = nil
	}
	return len(added)
}
