// Package db is the server-side storage layer: plain pgx queries over the
// tasks, projects, and tags tables, scanning straight into the shared task
// record.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/otavio/driftboard/internal/task"
)

const taskColumns = `t.id, t.frontend_id, t.title, t.description, t.status, t.column_date,
	t.start_at, t.end_at, t.duration, t.ord, t.completed, t.project_id,
	t.recurrence_rule, t.recurrence_parent_id, t.is_rec_parent,
	COALESCE(array_agg(tt.tag_id) FILTER (WHERE tt.tag_id IS NOT NULL), '{}')`

const taskGroup = `GROUP BY t.id`

func scanTask(row pgx.Row) (*task.Task, error) {
	var t task.Task
	var columnDate *string
	err := row.Scan(
		&t.ID, &t.FrontendID, &t.Title, &t.Description, &t.Status, &columnDate,
		&t.StartAt, &t.EndAt, &t.Duration, &t.Order, &t.Completed, &t.ProjectID,
		&t.RecurrenceRule, &t.RecurrenceParent, &t.IsRecParent, &t.Tags,
	)
	if err != nil {
		return nil, err
	}
	if columnDate != nil {
		t.ColumnDate = *columnDate
	}
	return &t, nil
}

func scanTasks(rows pgx.Rows) ([]*task.Task, error) {
	defer rows.Close()
	var tasks []*task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func nullableDate(d string) *string {
	if d == "" {
		return nil
	}
	return &d
}

// GetTask loads one task with its tags.
func GetTask(pool *pgxpool.Pool, id int64) (*task.Task, error) {
	rows, err := pool.Query(context.Background(), `
		SELECT `+taskColumns+`
		FROM tasks t LEFT JOIN task_tags tt ON tt.task_id = t.id
		WHERE t.id = $1 `+taskGroup,
		id)
	if err != nil {
		return nil, fmt.Errorf("getting task %d: %w", id, err)
	}
	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("task %d not found", id)
	}
	return tasks[0], nil
}

// ListTasks returns every non-board task plus the board and calendar tasks
// whose column date falls inside [start, end]. Project and tag filters are
// ANDed in when non-empty.
func ListTasks(pool *pgxpool.Pool, start, end string, projects, tags []int64) ([]*task.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks t LEFT JOIN task_tags tt ON tt.task_id = t.id
		WHERE (t.status NOT IN ('ON_BOARD', 'ON_CAL')
		       OR t.column_date IS NULL
		       OR t.column_date BETWEEN $1 AND $2)`
	args := []any{start, end}
	if len(projects) > 0 {
		args = append(args, projects)
		query += fmt.Sprintf(" AND t.project_id = ANY($%d)", len(args))
	}
	if len(tags) > 0 {
		args = append(args, tags)
		query += fmt.Sprintf(" AND t.id IN (SELECT task_id FROM task_tags WHERE tag_id = ANY($%d))", len(args))
	}
	query += " " + taskGroup + " ORDER BY t.ord ASC, t.created_at ASC"

	rows, err := pool.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return scanTasks(rows)
}

// CreateTask inserts a new task. Status is forced to BRAINDUMP regardless of
// what the client sent; everything enters through the braindump.
func CreateTask(pool *pgxpool.Pool, t *task.Task) (*task.Task, error) {
	var id int64
	err := pool.QueryRow(context.Background(), `
		INSERT INTO tasks (frontend_id, title, description, status, duration, ord,
		                   project_id, recurrence_rule, is_rec_parent)
		VALUES ($1, $2, $3, 'BRAINDUMP', $4, 0, $5, $6, $7)
		RETURNING id
	`, t.FrontendID, t.Title, t.Description, t.Duration, t.ProjectID,
		t.RecurrenceRule, t.RecurrenceRule != nil).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	if err := setTags(pool, id, t.Tags); err != nil {
		return nil, err
	}
	return GetTask(pool, id)
}

// UpdateTask writes the full record and returns the stored row.
func UpdateTask(pool *pgxpool.Pool, t *task.Task) (*task.Task, error) {
	tag, err := pool.Exec(context.Background(), `
		UPDATE tasks
		SET    title = $2, description = $3, status = $4, column_date = $5,
		       start_at = $6, end_at = $7, duration = $8, ord = $9,
		       completed = $10, project_id = $11, recurrence_rule = $12
		WHERE  id = $1
	`, t.ID, t.Title, t.Description, t.Status, nullableDate(t.ColumnDate),
		t.StartAt, t.EndAt, t.Duration, t.Order, t.Completed, t.ProjectID,
		t.RecurrenceRule)
	if err != nil {
		return nil, fmt.Errorf("updating task %d: %w", t.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("task %d not found", t.ID)
	}
	if err := setTags(pool, t.ID, t.Tags); err != nil {
		return nil, err
	}
	return GetTask(pool, t.ID)
}

// DeleteTask removes a task. Missing ids are not an error; deletes race
// with series regeneration.
func DeleteTask(pool *pgxpool.Pool, id int64) (bool, error) {
	tag, err := pool.Exec(context.Background(), `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("deleting task %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateTaskOrder persists a bucket's announced order: each task gets the
// dense 0-based position it holds in the array.
func UpdateTaskOrder(pool *pgxpool.Pool, tasks []*task.Task) error {
	ctx := context.Background()
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning order tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for i, t := range tasks {
		if t.ID == 0 {
			continue
		}
		if _, err := tx.Exec(ctx, `UPDATE tasks SET ord = $2 WHERE id = $1`, t.ID, i); err != nil {
			return fmt.Errorf("writing order for task %d: %w", t.ID, err)
		}
	}
	return tx.Commit(ctx)
}

// ToggleCompletion flips the completed flag and returns the updated row.
func ToggleCompletion(pool *pgxpool.Pool, id int64) (*task.Task, error) {
	_, err := pool.Exec(context.Background(), `
		UPDATE tasks SET completed = NOT completed WHERE id = $1
	`, id)
	if err != nil {
		return nil, fmt.Errorf("toggling completion for task %d: %w", id, err)
	}
	return GetTask(pool, id)
}

// AssignProject attaches the task to a project.
func AssignProject(pool *pgxpool.Pool, taskID, projectID int64) (*task.Task, error) {
	_, err := pool.Exec(context.Background(), `
		UPDATE tasks SET project_id = $2 WHERE id = $1
	`, taskID, projectID)
	if err != nil {
		return nil, fmt.Errorf("assigning project %d to task %d: %w", projectID, taskID, err)
	}
	return GetTask(pool, taskID)
}

// DropToCal places the task on the calendar with the given start/end.
func DropToCal(pool *pgxpool.Pool, t *task.Task) (*task.Task, error) {
	_, err := pool.Exec(context.Background(), `
		UPDATE tasks
		SET    status = 'ON_CAL', column_date = $2, start_at = $3, end_at = $4,
		       duration = $5
		WHERE  id = $1
	`, t.ID, nullableDate(t.ColumnDate), t.StartAt, t.EndAt, t.Duration)
	if err != nil {
		return nil, fmt.Errorf("dropping task %d to calendar: %w", t.ID, err)
	}
	return GetTask(pool, t.ID)
}

// futureSiblingIDs lists the not-yet-reached members of a recurring series,
// excluding the anchor task itself.
func futureSiblingIDs(pool *pgxpool.Pool, anchor *task.Task) ([]int64, error) {
	parentID := anchor.ID
	if anchor.RecurrenceParent != nil {
		parentID = *anchor.RecurrenceParent
	}
	today := time.Now().Format("2006-01-02")
	rows, err := pool.Query(context.Background(), `
		SELECT id FROM tasks
		WHERE  recurrence_parent_id = $1
		  AND  id != $2
		  AND  (column_date IS NULL OR column_date > $3)
	`, parentID, anchor.ID, today)
	if err != nil {
		return nil, fmt.Errorf("listing future siblings: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning sibling id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// TurnOffRepeat deletes the task's future siblings and clears its recurrence
// rule. Returns the updated task and the deleted sibling ids so the server
// can push a batch reconciliation.
func TurnOffRepeat(pool *pgxpool.Pool, id int64) (*task.Task, []int64, error) {
	anchor, err := GetTask(pool, id)
	if err != nil {
		return nil, nil, err
	}
	deleted, err := futureSiblingIDs(pool, anchor)
	if err != nil {
		return nil, nil, err
	}
	ctx := context.Background()
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("beginning repeat tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, sid := range deleted {
		if _, err := tx.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, sid); err != nil {
			return nil, nil, fmt.Errorf("deleting sibling %d: %w", sid, err)
		}
	}
	if _, err := tx.Exec(ctx, `
		UPDATE tasks SET recurrence_rule = NULL, is_rec_parent = FALSE WHERE id = $1
	`, id); err != nil {
		return nil, nil, fmt.Errorf("clearing recurrence rule: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	updated, err := GetTask(pool, id)
	if err != nil {
		return nil, nil, err
	}
	return updated, deleted, nil
}

// RegenerateSeries rebuilds the future members of a recurring series after a
// series-wide edit: the old siblings are deleted and replaced with copies of
// the anchor task on the dates they occupied. Returns the deleted ids and
// the created tasks, in the order a client must apply them.
func RegenerateSeries(pool *pgxpool.Pool, anchorID int64) ([]int64, []*task.Task, error) {
	anchor, err := GetTask(pool, anchorID)
	if err != nil {
		return nil, nil, err
	}
	parentID := anchor.ID
	if anchor.RecurrenceParent != nil {
		parentID = *anchor.RecurrenceParent
	}

	siblings, err := futureSiblingIDs(pool, anchor)
	if err != nil {
		return nil, nil, err
	}

	// Remember the dates the old siblings occupied.
	var dates []string
	for _, sid := range siblings {
		t, err := GetTask(pool, sid)
		if err != nil {
			return nil, nil, err
		}
		if t.ColumnDate != "" {
			dates = append(dates, t.ColumnDate)
		}
	}

	ctx := context.Background()
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("beginning series tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, sid := range siblings {
		if _, err := tx.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, sid); err != nil {
			return nil, nil, fmt.Errorf("deleting sibling %d: %w", sid, err)
		}
	}

	var createdIDs []int64
	for _, date := range dates {
		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO tasks (title, description, status, column_date, duration,
			                   ord, project_id, recurrence_rule, recurrence_parent_id)
			VALUES ($1, $2, 'ON_BOARD', $3, $4, 0, $5, $6, $7)
			RETURNING id
		`, anchor.Title, anchor.Description, date, anchor.Duration,
			anchor.ProjectID, anchor.RecurrenceRule, parentID).Scan(&id)
		if err != nil {
			return nil, nil, fmt.Errorf("regenerating sibling on %s: %w", date, err)
		}
		createdIDs = append(createdIDs, id)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	var created []*task.Task
	for _, id := range createdIDs {
		t, err := GetTask(pool, id)
		if err != nil {
			return nil, nil, err
		}
		created = append(created, t)
	}
	return siblings, created, nil
}

// ListProjects returns all projects as id/name pairs.
func ListProjects(pool *pgxpool.Pool) (map[int64]string, error) {
	rows, err := pool.Query(context.Background(), `SELECT id, name FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	projects := make(map[int64]string)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		projects[id] = name
	}
	return projects, rows.Err()
}

func setTags(pool *pgxpool.Pool, taskID int64, tags []int64) error {
	ctx := context.Background()
	if _, err := pool.Exec(ctx, `DELETE FROM task_tags WHERE task_id = $1`, taskID); err != nil {
		return fmt.Errorf("clearing tags for task %d: %w", taskID, err)
	}
	for _, tagID := range tags {
		if _, err := pool.Exec(ctx, `
			INSERT INTO task_tags (task_id, tag_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, taskID, tagID); err != nil {
			return fmt.Errorf("tagging task %d: %w", taskID, err)
		}
	}
	return nil
}
