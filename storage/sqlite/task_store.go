package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"teamtask/component"
	"teamtask/entity"
	"teamtask/storage"
)

var taskFields = []string{
	"id", "title", "description", "status", "priority", "due_date", "group_id",
	"assigned_to", "assigned_by", "department_id", "created_at", "updated_at",
}

// taskColumns renders the task column list, qualified by alias when given.
func taskColumns(alias string) string {
	if alias == "" {
		return strings.Join(taskFields, ", ")
	}
	cols := make([]string, len(taskFields))
	for i, f := range taskFields {
		cols[i] = fmt.Sprintf("%s.%s AS %s", alias, f, f)
	}
	return strings.Join(cols, ", ")
}

// taskWhere builds the WHERE body for f against the given table alias.
func taskWhere(f storage.TaskFilter, alias string) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	col := func(name string) string { return alias + "." + name }

	if f.AssignedBy != 0 {
		conditions = append(conditions, col("assigned_by")+" = ?")
		args = append(args, f.AssignedBy)
	}
	if f.AssignedTo != 0 {
		conditions = append(conditions, col("assigned_to")+" = ?")
		args = append(args, f.AssignedTo)
	}
	if f.Status != "" {
		conditions = append(conditions, col("status")+" = ?")
		args = append(args, string(f.Status))
	}
	if f.Priority != "" {
		conditions = append(conditions, col("priority")+" = ?")
		args = append(args, string(f.Priority))
	}

	if len(conditions) == 0 {
		return "1 = 1", nil
	}
	return strings.Join(conditions, " AND "), args
}

func (s *Store) CreateTask(ctx context.Context, t *entity.Task) error {
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	if t.Status == "" {
		t.Status = component.Pending
	}
	if t.Priority == "" {
		t.Priority = component.Medium
	}

	res, err := s.q.ExecContext(ctx, `
		INSERT INTO tasks (
			title, description, status, priority, due_date, group_id,
			assigned_to, assigned_by, department_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Title, t.Description, string(t.Status), string(t.Priority), t.DueDate, t.GroupID,
		t.AssignedTo, t.AssignedBy, t.DepartmentID, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting task for user %d: %w", t.AssignedTo, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading task id: %w", err)
	}
	t.ID = id
	return nil
}

func (s *Store) GetTask(ctx context.Context, id int64) (*entity.Task, error) {
	var t entity.Task
	err := s.q.GetContext(ctx, &t, "SELECT "+taskColumns("")+" FROM tasks WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting task %d: %w", id, err)
	}
	return &t, nil
}

func (s *Store) UpdateTask(ctx context.Context, id int64, patch storage.TaskPatch) error {
	var sets []string
	var args []interface{}

	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	} else if patch.ClearDescription {
		sets = append(sets, "description = NULL")
	}
	if patch.Priority != nil {
		sets = append(sets, "priority = ?")
		args = append(args, string(*patch.Priority))
	}
	if patch.DueDate != nil {
		sets = append(sets, "due_date = ?")
		args = append(args, *patch.DueDate)
	} else if patch.ClearDue {
		sets = append(sets, "due_date = NULL")
	}
	if patch.AssignedTo != nil {
		sets = append(sets, "assigned_to = ?")
		args = append(args, *patch.AssignedTo)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	res, err := s.q.ExecContext(ctx, "UPDATE tasks SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("updating task %d: %w", id, err)
	}
	return requireAffected(res, fmt.Sprintf("task %d", id))
}

func (s *Store) UpdateTaskStatus(ctx context.Context, id int64, status component.Status) error {
	res, err := s.q.ExecContext(ctx,
		"UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?",
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating status of task %d: %w", id, err)
	}
	return requireAffected(res, fmt.Sprintf("task %d", id))
}

// DeleteTask removes exactly one row; group siblings are left alone.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting task %d: %w", id, err)
	}
	return requireAffected(res, fmt.Sprintf("task %d", id))
}

func (s *Store) ListRepresentativeTasks(ctx context.Context, f storage.TaskFilter) ([]entity.Task, int, error) {
	outer, outerArgs := taskWhere(f, "t")
	inner, innerArgs := taskWhere(f, "f")

	from := fmt.Sprintf(`
		FROM tasks t
		WHERE %s
		  AND (t.group_id IS NULL OR t.id IN (
			SELECT MIN(f.id) FROM tasks f
			WHERE %s AND f.group_id IS NOT NULL
			GROUP BY f.group_id
		  ))`, outer, inner)

	args := append(append([]interface{}{}, outerArgs...), innerArgs...)
	return s.pageTasks(ctx, "t", from, args, f)
}

func (s *Store) ListTasks(ctx context.Context, f storage.TaskFilter) ([]entity.Task, int, error) {
	where, args := taskWhere(f, "t")
	return s.pageTasks(ctx, "t", "FROM tasks t WHERE "+where, args, f)
}

func (s *Store) pageTasks(ctx context.Context, alias, from string, args []interface{}, f storage.TaskFilter) ([]entity.Task, int, error) {
	var total int
	if err := s.q.GetContext(ctx, &total, "SELECT COUNT(*) "+from, args...); err != nil {
		return nil, 0, fmt.Errorf("counting tasks: %w", err)
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s.created_at DESC, %s.id DESC", taskColumns(alias), from, alias, alias)
	dataArgs := args
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		dataArgs = append(append([]interface{}{}, args...), f.Limit, f.Offset)
	}

	tasks := []entity.Task{}
	if err := s.q.SelectContext(ctx, &tasks, query, dataArgs...); err != nil {
		return nil, 0, fmt.Errorf("querying tasks: %w", err)
	}
	return tasks, total, nil
}

func (s *Store) ListGroupRows(ctx context.Context, groupIDs []string) ([]entity.Task, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}

	query, args, err := s.in("SELECT "+taskColumns("")+" FROM tasks WHERE group_id IN (?) ORDER BY id", groupIDs)
	if err != nil {
		return nil, fmt.Errorf("building group query: %w", err)
	}

	var tasks []entity.Task
	if err := s.q.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("querying group rows: %w", err)
	}
	return tasks, nil
}

func (s *Store) CountTasks(ctx context.Context, f storage.TaskFilter) (entity.TaskStats, error) {
	where, args := taskWhere(f, "t")

	var row struct {
		Total        int `db:"total"`
		Pending      int `db:"pending"`
		InProgress   int `db:"in_progress"`
		Completed    int `db:"completed"`
		HighPriority int `db:"high_priority"`
	}
	err := s.q.GetContext(ctx, &row, `
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN t.status = 'pending' THEN 1 ELSE 0 END), 0) AS pending,
			COALESCE(SUM(CASE WHEN t.status = 'in_progress' THEN 1 ELSE 0 END), 0) AS in_progress,
			COALESCE(SUM(CASE WHEN t.status = 'completed' THEN 1 ELSE 0 END), 0) AS completed,
			COALESCE(SUM(CASE WHEN t.priority = 'high' THEN 1 ELSE 0 END), 0) AS high_priority
		FROM tasks t WHERE `+where, args...)
	if err != nil {
		return entity.TaskStats{}, fmt.Errorf("counting task stats: %w", err)
	}

	high := row.HighPriority
	return entity.TaskStats{
		Total:        row.Total,
		Pending:      row.Pending,
		InProgress:   row.InProgress,
		Completed:    row.Completed,
		HighPriority: &high,
	}, nil
}

func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows for %s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	}
	return nil
}
