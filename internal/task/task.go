package task

import (
	"time"

	"github.com/google/uuid"
)

// Status is the coarse placement of a task. Together with ColumnDate it
// determines which bucket holds the task.
type Status string

const (
	StatusBraindump Status = "BRAINDUMP"
	StatusBacklog   Status = "BACKLOG"
	StatusOnBoard   Status = "ON_BOARD"
	StatusOnCal     Status = "ON_CAL"
	StatusArchived  Status = "ARCHIVED"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusBraindump, StatusBacklog, StatusOnBoard, StatusOnCal, StatusArchived:
		return true
	}
	return false
}

// Task is the record shared between the store, the wire protocol, and the
// server. ID is 0 until the server has acknowledged the task; FrontendID is
// the client-assigned key used to match an optimistic insert with its echo.
type Task struct {
	ID          int64      `json:"id,omitempty"`
	FrontendID  string     `json:"frontend_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status"`
	ColumnDate  string     `json:"column_date,omitempty"`
	StartAt     *time.Time `json:"start_at,omitempty"`
	EndAt       *time.Time `json:"end_at,omitempty"`
	Duration    string     `json:"duration,omitempty"`
	Order       int        `json:"order"`
	Completed   bool       `json:"completed"`
	ProjectID   *int64     `json:"project_id,omitempty"`
	Tags        []int64    `json:"tags,omitempty"`

	RecurrenceRule   *string `json:"recurrence_rule,omitempty"`
	RecurrenceParent *int64  `json:"recurrence_parent,omitempty"`
	IsRecParent      bool    `json:"is_rec_task_parent,omitempty"`
}

// NewFrontendID allocates a client-assigned identifier for an optimistic task.
func NewFrontendID() string {
	return uuid.NewString()
}

// Clone returns a deep copy so optimistic mutation never aliases a record
// that the store already holds.
func (t *Task) Clone() *Task {
	c := *t
	if t.StartAt != nil {
		s := *t.StartAt
		c.StartAt = &s
	}
	if t.EndAt != nil {
		e := *t.EndAt
		c.EndAt = &e
	}
	if t.ProjectID != nil {
		p := *t.ProjectID
		c.ProjectID = &p
	}
	if t.RecurrenceRule != nil {
		r := *t.RecurrenceRule
		c.RecurrenceRule = &r
	}
	if t.RecurrenceParent != nil {
		r := *t.RecurrenceParent
		c.RecurrenceParent = &r
	}
	if t.Tags != nil {
		c.Tags = append([]int64(nil), t.Tags...)
	}
	return &c
}
