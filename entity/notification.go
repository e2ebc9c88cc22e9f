package entity

import "time"

type NotificationType string

const (
	TaskAssigned      NotificationType = "task_assigned"
	TaskStatusChanged NotificationType = "task_status_changed"
)

// NotifiableTask is the only source entity type notifications point at today.
const NotifiableTask = "task"

type Notification struct {
	ID             int64            `json:"id" db:"id"`
	UserID         int64            `json:"user_id" db:"user_id"`
	Type           NotificationType `json:"type" db:"type"`
	Title          string           `json:"title" db:"title"`
	Message        string           `json:"message" db:"message"`
	NotifiableType string           `json:"notifiable_type" db:"notifiable_type"`
	NotifiableID   int64            `json:"notifiable_id" db:"notifiable_id"`
	Read           bool             `json:"read" db:"read"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at" db:"updated_at"`
}
