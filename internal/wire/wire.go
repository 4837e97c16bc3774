// Package wire defines the JSON channel protocol spoken between the board
// client and the task server: an outbound {action, payload} envelope and an
// inbound {type, data} envelope (task.deleted and a couple of bare-id
// actions carry an id instead of a data object).
package wire

import (
	"encoding/json"
	"fmt"

	"github.com/otavio/driftboard/internal/task"
)

// Inbound message types.
const (
	TypeConnected         = "connected"
	TypeTasksList         = "tasks.list"
	TypeTaskCreated       = "task.created"
	TypeTaskUpdated       = "task.updated"
	TypeTaskUpdatedLegacy = "task_updated"
	TypeTaskDeleted       = "task.deleted"
	TypeCalTaskUpdated    = "task.cal_task_updated"
	TypeRefreshForRec     = "task.refresh_for_rec"
	TypeFullRefresh       = "full_refresh"
	TypeError             = "error"
)

// Outbound actions.
const (
	ActionFetchTasks       = "fetch_tasks"
	ActionCreateTask       = "create_task"
	ActionUpdateTask       = "update_task"
	ActionDeleteTask       = "delete_task"
	ActionUpdateTaskOrder  = "update_task_order"
	ActionDroppedToCal     = "task_dropped_to_cal"
	ActionTurnOffRepeat    = "turn_off_repeat"
	ActionToggleCompletion = "toggle_completion"
	ActionAssignProject    = "assign_project"
)

// Outbound is the client-to-server envelope.
type Outbound struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

// NewOutbound wraps a payload value in an envelope.
func NewOutbound(action string, payload any) (Outbound, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Outbound{}, fmt.Errorf("encoding %s payload: %w", action, err)
	}
	return Outbound{Action: action, Payload: raw}, nil
}

// Inbound is the server-to-client envelope.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
	ID   int64           `json:"id,omitempty"`
}

// Task decodes the envelope's data as a single task record.
func (m Inbound) Task() (*task.Task, error) {
	var t task.Task
	if err := json.Unmarshal(m.Data, &t); err != nil {
		return nil, fmt.Errorf("decoding %s task: %w", m.Type, err)
	}
	return &t, nil
}

// TaskList decodes the envelope's data as a full task array.
func (m Inbound) TaskList() ([]*task.Task, error) {
	var tasks []*task.Task
	if err := json.Unmarshal(m.Data, &tasks); err != nil {
		return nil, fmt.Errorf("decoding %s list: %w", m.Type, err)
	}
	return tasks, nil
}

// Refresh is the payload of task.refresh_for_rec: tasks removed from a
// recurring series followed by their regenerated replacements. Deletions are
// applied before insertions.
type Refresh struct {
	Deleted []int64      `json:"deleted"`
	Created []*task.Task `json:"created"`
}

// Refresh decodes the envelope's data as a batch reconciliation payload.
func (m Inbound) Refresh() (Refresh, error) {
	var r Refresh
	if err := json.Unmarshal(m.Data, &r); err != nil {
		return Refresh{}, fmt.Errorf("decoding %s payload: %w", m.Type, err)
	}
	return r, nil
}

// ErrorText extracts a human-readable message from an error envelope.
func (m Inbound) ErrorText() string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(m.Data, &body); err == nil && body.Message != "" {
		return body.Message
	}
	return "something went wrong on the server"
}

// FetchPayload asks for the board window plus every non-board task.
type FetchPayload struct {
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	Projects  []int64 `json:"projects"`
	Tags      []int64 `json:"tags"`
}

// AssignProjectPayload attaches a task to a project.
type AssignProjectPayload struct {
	TaskID    int64 `json:"task_id"`
	ProjectID int64 `json:"project_id"`
}

// ErrorData is the data object of a pushed error message.
type ErrorData struct {
	Message string `json:"message"`
}

// TaskID decodes a payload that is a bare task id (delete_task,
// toggle_completion, turn_off_repeat all send one).
func TaskID(payload json.RawMessage) (int64, error) {
	var id int64
	if err := json.Unmarshal(payload, &id); err != nil {
		return 0, fmt.Errorf("decoding task id: %w", err)
	}
	return id, nil
}
