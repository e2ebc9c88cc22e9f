package entity

import (
	"time"

	"teamtask/component"
)

// Task is one assignee's copy of a logical task. Rows created together for
// several assignees share a GroupID.
type Task struct {
	ID           int64              `json:"id" db:"id"`
	Title        string             `json:"title" db:"title"`
	Description  *string            `json:"description,omitempty" db:"description"`
	Status       component.Status   `json:"status" db:"status"`
	Priority     component.Priority `json:"priority" db:"priority"`
	DueDate      *component.Date    `json:"due_date,omitempty" db:"due_date"`
	GroupID      *string            `json:"group_id,omitempty" db:"group_id"`
	AssignedTo   int64              `json:"assigned_to" db:"assigned_to"`
	AssignedBy   int64              `json:"assigned_by" db:"assigned_by"`
	DepartmentID *int64             `json:"department_id,omitempty" db:"department_id"`
	CreatedAt    time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" db:"updated_at"`

	Assignee            *UserRef    `json:"assignee,omitempty" db:"-"`
	Assigner            *UserRef    `json:"assigner,omitempty" db:"-"`
	Department          *Department `json:"department,omitempty" db:"-"`
	OtherGroupAssignees []Task      `json:"other_group_assignees,omitempty" db:"-"`
}

func (t *Task) IsGroup() bool {
	return t.GroupID != nil && *t.GroupID != ""
}

// TaskStats are raw row counts; a group task counts once per assignee.
type TaskStats struct {
	Total        int  `json:"total" db:"total"`
	Pending      int  `json:"pending" db:"pending"`
	InProgress   int  `json:"in_progress" db:"in_progress"`
	Completed    int  `json:"completed" db:"completed"`
	HighPriority *int `json:"high_priority,omitempty" db:"high_priority"`
}
