// Package sync connects the partition store to the task channel: the
// Dispatcher turns user intents into optimistic store mutations plus
// outbound messages, and the Engine merges inbound server state back in.
package sync

import (
	"log"

	"github.com/otavio/driftboard/internal/board"
	"github.com/otavio/driftboard/internal/task"
	"github.com/otavio/driftboard/internal/wire"
)

// Sender transmits an outbound envelope. Satisfied by *ws.Adapter.
type Sender interface {
	Send(action string, payload any)
}

// Dispatcher applies each user mutation to the store synchronously, then
// sends the matching message. It never waits for acknowledgement; the
// server's echo is merged later by the Engine.
type Dispatcher struct {
	store *board.Store
	send  Sender
	log   *log.Logger

	// Active filters, included in every fetch.
	Projects []int64
	Tags     []int64
}

// NewDispatcher wires a dispatcher to a store and a sender.
func NewDispatcher(store *board.Store, send Sender, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{store: store, send: send, log: logger}
}

// FetchTasks requests a full list for the current window and filters.
func (d *Dispatcher) FetchTasks() {
	w := d.store.Window()
	d.send.Send(wire.ActionFetchTasks, wire.FetchPayload{
		StartDate: w.First(),
		EndDate:   w.Last(),
		Projects:  d.Projects,
		Tags:      d.Tags,
	})
}

// CreateTask inserts an optimistic braindump task and sends the create. The
// returned frontend id is the key the server echo will carry.
func (d *Dispatcher) CreateTask(t *task.Task) string {
	t = t.Clone()
	t.ID = 0
	t.FrontendID = task.NewFrontendID()
	t.Status = task.StatusBraindump
	t.Duration = task.NormalizeDuration(t.Duration)
	t.Order = 0

	d.store.Upsert(board.BucketBraindump, t)
	d.store.Reindex(board.BucketBraindump)
	d.send.Send(wire.ActionCreateTask, t)
	return t.FrontendID
}

// UpdateTask replaces the task's record locally and sends the update.
func (d *Dispatcher) UpdateTask(t *task.Task) {
	t = t.Clone()
	t.Duration = task.NormalizeDuration(t.Duration)

	key := d.store.BucketFor(t)
	d.store.Upsert(key, t)
	d.store.Reindex(key)
	d.send.Send(wire.ActionUpdateTask, t)
}

// DeleteTask removes the task immediately and sends the delete without
// waiting for acknowledgement. The inbound echo is a no-op by then.
func (d *Dispatcher) DeleteTask(id int64) {
	if key, ok := d.store.BucketOf(id); ok {
		d.store.Remove(id)
		d.store.Reindex(key)
	}
	d.send.Send(wire.ActionDeleteTask, id)
}

// MoveTask relocates a task to another bucket at the given position and
// sends the resulting update. Both buckets are reindexed before anything is
// transmitted.
func (d *Dispatcher) MoveTask(id int64, target board.BucketKey, pos int) {
	t := d.store.Get(id)
	if t == nil {
		d.log.Printf("sync: move of unknown task %d ignored", id)
		return
	}

	t = t.Clone()
	applyPlacement(t, target)
	t.Order = pos

	d.store.Upsert(target, t)
	d.store.Reindex(target)
	t.Duration = task.NormalizeDuration(t.Duration)
	d.send.Send(wire.ActionUpdateTask, t)
}

// ReorderBucket reindexes a bucket and announces the full dense order. Every
// transmitted order is therefore 0-based with no gaps.
func (d *Dispatcher) ReorderBucket(key board.BucketKey) {
	d.store.Reindex(key)
	d.send.Send(wire.ActionUpdateTaskOrder, d.store.Tasks(key))
}

// ToggleCompletion flips the task's completed flag locally and tells the
// server to do the same.
func (d *Dispatcher) ToggleCompletion(id int64) {
	if t := d.store.Get(id); t != nil {
		t.Completed = !t.Completed
	}
	d.send.Send(wire.ActionToggleCompletion, id)
}

// AssignProject attaches the task to a project.
func (d *Dispatcher) AssignProject(taskID, projectID int64) {
	if t := d.store.Get(taskID); t != nil {
		p := projectID
		t.ProjectID = &p
	}
	d.send.Send(wire.ActionAssignProject, wire.AssignProjectPayload{
		TaskID:    taskID,
		ProjectID: projectID,
	})
}

// DropToCalendar removes the task from every bucket and hands it to the
// server as a calendar placement. The server replies with cal_task_updated,
// which puts it back at its authoritative position.
func (d *Dispatcher) DropToCalendar(t *task.Task) {
	if key, ok := d.store.BucketOf(t.ID); ok {
		d.store.Remove(t.ID)
		d.store.Reindex(key)
	}
	t = t.Clone()
	t.Status = task.StatusOnCal
	t.Duration = task.NormalizeDuration(t.Duration)
	d.send.Send(wire.ActionDroppedToCal, t)
}

// DropToBraindump sends the task back to the braindump, clearing its board
// and calendar placement.
func (d *Dispatcher) DropToBraindump(id int64) {
	d.MoveTask(id, board.BucketBraindump, 0)
}

// Archive moves the task to the archive via a regular update.
func (d *Dispatcher) Archive(id int64) {
	d.MoveTask(id, board.BucketArchive, 0)
}

// TurnOffRepeat asks the server to stop the task's recurring series. Future
// siblings come back as a refresh_for_rec deletion batch.
func (d *Dispatcher) TurnOffRepeat(id int64) {
	d.send.Send(wire.ActionTurnOffRepeat, id)
}

// ExtendForward grows the window forward by n columns and refetches.
func (d *Dispatcher) ExtendForward(n int) int {
	added := d.store.ExtendForward(n)
	if added > 0 {
		d.FetchTasks()
	}
	return added
}

// ExtendBackward grows the window backward by up to n columns. No refetch is
// issued when the window was already at its minimum date.
func (d *Dispatcher) ExtendBackward(n int) int {
	added := d.store.ExtendBackward(n)
	if added > 0 {
		d.FetchTasks()
	}
	return added
}

// applyPlacement rewrites the status and date fields implied by the target
// bucket, keeping the single-membership rule structural: one bucket, one
// consistent placement.
func applyPlacement(t *task.Task, target board.BucketKey) {
	clearDates := func() {
		t.ColumnDate = ""
		t.StartAt = nil
		t.EndAt = nil
	}
	switch target {
	case board.BucketBraindump:
		t.Status = task.StatusBraindump
		clearDates()
	case board.BucketBacklog:
		t.Status = task.StatusBacklog
		clearDates()
	case board.BucketArchive:
		t.Status = task.StatusArchived
	case board.BucketCalendar:
		t.Status = task.StatusOnCal
		t.ColumnDate = ""
	default:
		if t.Status != task.StatusOnCal {
			t.Status = task.StatusOnBoard
		}
		t.ColumnDate = string(target[len("day:"):])
	}
}
