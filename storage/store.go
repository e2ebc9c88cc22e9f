package storage

import (
	"context"
	"errors"

	"teamtask/component"
	"teamtask/entity"
)

var ErrNotFound = errors.New("record not found")

// TaskFilter narrows task listings. Zero values mean "no filter".
type TaskFilter struct {
	AssignedBy int64
	AssignedTo int64
	Status     component.Status
	Priority   component.Priority
	Limit      int
	Offset     int
}

// TaskPatch carries the fields updateTask may change. Nil means unchanged.
type TaskPatch struct {
	Title            *string
	Description      *string
	ClearDescription bool
	Priority         *component.Priority
	DueDate          *component.Date
	ClearDue         bool
	AssignedTo       *int64
}

// Store is the persistence boundary for tasks, notifications and users.
type Store interface {
	// WithinTx runs fn against a Store bound to one transaction. A nested call
	// reuses the outer transaction.
	WithinTx(ctx context.Context, fn func(Store) error) error

	// === Tasks ===

	CreateTask(ctx context.Context, t *entity.Task) error
	GetTask(ctx context.Context, id int64) (*entity.Task, error)
	UpdateTask(ctx context.Context, id int64, patch TaskPatch) error
	UpdateTaskStatus(ctx context.Context, id int64, status component.Status) error
	DeleteTask(ctx context.Context, id int64) error
	// ListRepresentativeTasks applies the filter and then keeps one row per
	// group: the lowest id among the filtered rows of that group.
	ListRepresentativeTasks(ctx context.Context, f TaskFilter) ([]entity.Task, int, error)
	ListTasks(ctx context.Context, f TaskFilter) ([]entity.Task, int, error)
	ListGroupRows(ctx context.Context, groupIDs []string) ([]entity.Task, error)
	CountTasks(ctx context.Context, f TaskFilter) (entity.TaskStats, error)

	// === Notifications ===

	CreateNotification(ctx context.Context, n *entity.Notification) error
	ListNotifications(ctx context.Context, userID int64, limit, offset int) ([]entity.Notification, int, error)
	ListUnreadNotifications(ctx context.Context, userID int64, limit int) ([]entity.Notification, error)
	CountUnreadNotifications(ctx context.Context, userID int64) (int, error)
	MarkNotificationRead(ctx context.Context, id, userID int64) (bool, error)
	MarkAllNotificationsRead(ctx context.Context, userID int64) (int64, error)

	// === Users & departments ===

	CreateUser(ctx context.Context, u *entity.User) error
	GetUser(ctx context.Context, id int64) (*entity.User, error)
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	GetUserRefs(ctx context.Context, ids []int64) (map[int64]entity.UserRef, error)
	MissingUserIDs(ctx context.Context, ids []int64) ([]int64, error)
	UserRoles(ctx context.Context, userID int64) ([]entity.Role, error)
	AssignRole(ctx context.Context, userID int64, role entity.Role) error
	CreateDepartment(ctx context.Context, d *entity.Department) error
	GetDepartments(ctx context.Context, ids []int64) (map[int64]entity.Department, error)
	DepartmentIDBySlug(ctx context.Context, slug string) (int64, error)
	AttachDepartment(ctx context.Context, userID, departmentID int64) error
	FirstDepartmentID(ctx context.Context, userID int64) (*int64, error)
	SameDepartmentUsers(ctx context.Context, userID int64) ([]entity.User, error)

	Ping(ctx context.Context) error
	Close() error
}
